package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/uyuni-project/masked-dump/config"
	"github.com/uyuni-project/masked-dump/database"
	"github.com/uyuni-project/masked-dump/dialect"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets redacted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return writeConfig(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func writeConfig(w io.Writer, cfg *config.Config) error {
	redacted := cfg.Redacted()
	if redacted.Database.DSN != "" {
		name := redacted.Database.Driver
		if d, err := dialect.New(name); err == nil {
			name = d.Name()
		}
		redacted.Database.DSN = database.RedactDSN(name, redacted.Database.DSN)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(redacted); err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}
	return encoder.Close()
}
