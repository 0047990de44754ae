// SPDX-FileCopyrightText: 2023 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/uyuni-project/masked-dump/definition"
	"github.com/uyuni-project/masked-dump/schemareader"
)

// dotCmd represents the dot command
var dotCmd = &cobra.Command{
	Use:    "dot",
	Short:  "export the dumped tables as dot diagram, masked columns highlighted",
	Hidden: true,
	Args:   cobra.NoArgs,
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
		return writeDot(cmd.OutOrStdout(), schema)
	},
}

func init() {
	rootCmd.AddCommand(dotCmd)
}

func writeDot(w io.Writer, schema *definition.DumpSchema) error {
	tables := make([]schemareader.Table, 0, schema.Len())
	masked := make(map[string]definition.TableDefinition, schema.Len())
	for _, table := range schema.Tables() {
		tables = append(tables, table.Table)
		masked[table.Name] = table
	}
	return schemareader.DumpToGraphviz(w, tables, func(tableName, columnName string) bool {
		_, found := masked[tableName].FindColumn(columnName)
		return found
	})
}
