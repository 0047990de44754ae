// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/uyuni-project/masked-dump/config"
	"github.com/uyuni-project/masked-dump/definition"
	"github.com/uyuni-project/masked-dump/dumper"
	"github.com/uyuni-project/masked-dump/output"
	"github.com/uyuni-project/masked-dump/progress"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write the masked SQL script of the configured tables",
	Args:  cobra.NoArgs,
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().StringP("output", "o", config.StdoutPath, "Output file, '-' for stdout")
	dumpCmd.Flags().Bool("gzip", false, "Compress the output")
	dumpCmd.Flags().Bool("allTables", false, "Dump every table, not only the configured ones")

	for key, flag := range map[string]string{"output.path": "output", "output.gzip": "gzip", "allTables": "allTables"} {
		if err := viper.BindPFlag(key, dumpCmd.Flags().Lookup(flag)); err != nil {
			log.Warn().Err(err).Str("flag", flag).Msg("Failed to bind PFlag")
		}
	}

	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	connection, schema, err := resolveSchema(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("cannot resolve tables")
		return err
	}
	defer connection.Close()

	sink, err := output.Open(ctx, cfg.Output)
	if err != nil {
		log.Error().Err(err).Msg("cannot open output")
		return err
	}
	return dumpTo(ctx, schema, sink)
}

// dumpTo commits the sink only when the whole script was written
func dumpTo(ctx context.Context, schema *definition.DumpSchema, sink output.Sink) error {
	start := time.Now()
	stats, err := dumper.New(schema, dumper.WithProgress(progress.NewLogger(log.Logger))).Dump(ctx, sink)
	if err != nil {
		log.Error().Err(err).Msg("dump failed")
		if abortErr := sink.Abort(); abortErr != nil {
			log.Warn().Err(abortErr).Msg("cannot discard partial output")
		}
		return err
	}
	if err := sink.Commit(); err != nil {
		log.Error().Err(err).Msg("cannot commit output")
		return err
	}

	log.Info().
		Int("tables", stats.Tables).
		Int("dataTables", stats.DataTables).
		Int64("rows", stats.Rows).
		Dur("elapsed", time.Since(start)).
		Msg("dump completed")
	return nil
}
