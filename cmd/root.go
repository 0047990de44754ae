// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/uyuni-project/masked-dump/config"
	"github.com/uyuni-project/masked-dump/database"
	"github.com/uyuni-project/masked-dump/definition"
	"github.com/uyuni-project/masked-dump/utils"
)

var rootCmd = &cobra.Command{
	Use:          "masked-dump",
	Short:        "Dump a database as a SQL script with sensitive columns masked",
	Version:      "0.1.0",
	SilenceUsage: true,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

var cfgFile string
var logLevel string
var cpuProfile string
var memProfile string

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Location of configuration file")
	rootCmd.PersistentFlags().String("logLevel", "info", "application log level")
	rootCmd.PersistentFlags().String("cpuProfile", "", "cpuProfile export folder location")
	rootCmd.PersistentFlags().String("memProfile", "", "memProfile export folder location")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		log.Warn().Err(err).Msg("Failed to bind PFlags")
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logLevel = viper.GetString("logLevel")
		cpuProfile = viper.GetString("cpuProfile")
		memProfile = viper.GetString("memProfile")

		logInit()
		cpuProfileInit()
		memProfileDump()
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		cpuProfileTearDown()
	}
}

func initConfig() {
	config.SetDefaults(viper.GetViper())
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(utils.GetAbsPath(cfgFile))

		if err := viper.ReadInConfig(); err != nil {
			log.Panic().Err(err).Msg("Failed to read config file")
		}
	}
}

func logCallerMarshalFunction(file string, line int) string {
	paths := strings.Split(file, "/")
	callerFile := file
	foundSubDir := false
	for _, currentPath := range paths {
		if foundSubDir {
			if callerFile != "" {
				callerFile = callerFile + "/"
			}
			callerFile = callerFile + currentPath
		} else {
			if strings.Contains(currentPath, "masked-dump") {
				foundSubDir = true
				callerFile = ""
			}
		}
	}
	return callerFile + ":" + strconv.Itoa(line)
}

// logInit writes to stderr: stdout may be carrying the dump
func logInit() {
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = zerolog.New(writer).With().Timestamp().Caller().Logger()
	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		return logCallerMarshalFunction(file, line)
	}
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func cpuProfileInit() {
	if cpuProfile != "" {
		f, err := os.Create(cpuProfile + "end_cpu_profile.prof")
		if err != nil {
			log.Error().Err(err).Msg("could not create CPU profile")
			return
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Panic().Err(err).Msg("could not start CPU profile")
		}
	}
}

func cpuProfileTearDown() {
	if cpuProfile != "" {
		pprof.StopCPUProfile()
	}
}

func memProfileDump() {
	if log.Debug().Enabled() && len(memProfile) > 0 {
		if err := utils.FolderExists(memProfile); err != nil {
			log.Error().Err(err).Msg("memory profiles disabled")
			return
		}
		go func() {
			count := 0
			for {
				time.Sleep(30 * time.Second)
				fileName := fmt.Sprintf("%s/memory_profile_%d.prof", memProfile, count)
				f, err := os.Create(fileName)
				if err != nil {
					log.Error().Err(err).Msgf("could not create memory profile file: %s", fileName)
					break
				}
				if err := pprof.WriteHeapProfile(f); err != nil {
					log.Error().Err(err).Msg("could not write memory profile")
				}
				f.Close()
				count++
			}
		}()
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// resolveSchema connects to the source and resolves the table policy against it.
// The caller closes the returned connection.
func resolveSchema(ctx context.Context, cfg *config.Config) (*database.Connection, *definition.DumpSchema, error) {
	connection, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	schema, err := definition.Build(ctx, cfg, connection)
	if err != nil {
		connection.Close()
		return nil, nil, err
	}
	return connection, schema, nil
}
