package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/uyuni-project/masked-dump/definition"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables a dump would contain and how each one is exported",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		connection, schema, err := resolveSchema(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer connection.Close()
		return writeTables(cmd.OutOrStdout(), schema)
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}

// writeTables prints one line per table, in emission order
func writeTables(w io.Writer, schema *definition.DumpSchema) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tCONTENT\tMASKED COLUMNS")
	for _, table := range schema.Tables() {
		content := "schema+data"
		if !table.DumpData {
			content = "schema"
		}
		masked := make([]string, 0, len(table.Columns))
		for _, column := range table.Columns {
			masked = append(masked, column.Name)
		}
		if len(masked) == 0 {
			masked = append(masked, "-")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", table.Name, content, strings.Join(masked, ","))
	}
	return tw.Flush()
}
