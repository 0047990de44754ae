// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package dumper writes a dump schema as a re-importable SQL script, masking column values on the way.
package dumper

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"github.com/rs/zerolog/log"

	"github.com/uyuni-project/masked-dump/definition"
	"github.com/uyuni-project/masked-dump/dialect"
	"github.com/uyuni-project/masked-dump/progress"
	"github.com/uyuni-project/masked-dump/schemareader"
	"github.com/uyuni-project/masked-dump/sqlUtil"
)

// Dumper walks the tables of a DumpSchema in order, one table and one row at a time
type Dumper struct {
	schema   *definition.DumpSchema
	progress progress.Reporter
}

func New(schema *definition.DumpSchema, opts ...Option) *Dumper {
	d := &Dumper{schema: schema, progress: progress.Noop{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dump writes the whole script to w. On error the output is incomplete and must be discarded.
func (d *Dumper) Dump(ctx context.Context, w io.Writer) (Stats, error) {
	stats := Stats{}
	sqlDialect := d.schema.Connection.Dialect
	writer := bufio.NewWriter(w)

	tables := d.schema.Tables()
	d.progress.Total(len(tables))

	if err := writeStatements(writer, sqlDialect.Preamble()...); err != nil {
		return stats, fmt.Errorf("write preamble: %w", err)
	}
	for _, table := range tables {
		rows, err := d.dumpTable(ctx, writer, table)
		d.progress.Advance()
		if err != nil {
			return stats, err
		}
		stats.Tables++
		if table.DumpData {
			stats.DataTables++
			stats.Rows += rows
		}
	}
	if err := writeStatements(writer, sqlDialect.Postamble()...); err != nil {
		return stats, fmt.Errorf("write postamble: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return stats, fmt.Errorf("flush output: %w", err)
	}

	log.Debug().Int("tables", stats.Tables).Int64("rows", stats.Rows).Msg("dump completed")
	return stats, nil
}

// DumpString returns the whole script in memory; meant for small schemas and tests
func (d *Dumper) DumpString(ctx context.Context) (string, error) {
	var sb strings.Builder
	if _, err := d.Dump(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (d *Dumper) dumpTable(ctx context.Context, writer *bufio.Writer, table definition.TableDefinition) (int64, error) {
	connection := d.schema.Connection
	sqlDialect := connection.Dialect

	structure, err := d.readStructure(ctx, table)
	if err != nil {
		return 0, err
	}
	if err := checkColumns(table, structure.ColumnNames()); err != nil {
		return 0, err
	}
	if err := WriteSchema(writer, sqlDialect, structure); err != nil {
		return 0, err
	}
	if !table.DumpData {
		log.Debug().Str("table", table.Name).Msg("schema dumped")
		return 0, writeTableSeparator(writer)
	}

	query, args := dataQuery(sqlDialect, table.Name, structure, table.ModifyQuery)
	stream, err := sqlUtil.StreamQuery(ctx, connection.DB, query, args...)
	if err != nil {
		return 0, fmt.Errorf("read data of table %s: %w", table.Name, err)
	}
	defer stream.Close()

	// the modifier may have changed the selected columns
	if err := checkColumns(table, stream.Columns()); err != nil {
		return 0, err
	}

	if err := WriteLock(writer, sqlDialect, table.Name); err != nil {
		return 0, err
	}
	var rows int64
	for stream.Next() {
		row := stream.Row()
		if err := TransformValue(row, table); err != nil {
			return rows, err
		}
		if err := WriteInsert(writer, sqlDialect, table.Name, row); err != nil {
			return rows, err
		}
		rows++
	}
	if err := stream.Err(); err != nil {
		return rows, fmt.Errorf("read data of table %s: %w", table.Name, err)
	}
	if err := WriteSequenceReset(writer, sqlDialect, structure); err != nil {
		return rows, err
	}
	if err := WriteUnlock(writer, sqlDialect, table.Name); err != nil {
		return rows, err
	}

	log.Debug().Str("table", table.Name).Int64("rows", rows).Msg("table dumped")
	return rows, writeTableSeparator(writer)
}

// readStructure returns the structure held by the definition, introspecting the table when there is none
func (d *Dumper) readStructure(ctx context.Context, table definition.TableDefinition) (schemareader.Table, error) {
	if len(table.Table.Columns) > 0 {
		return table.Table, nil
	}
	structure, err := d.schema.Connection.Reader.ReadTable(ctx, table.Name)
	if err != nil {
		return structure, &SchemaError{Table: table.Name, Err: err}
	}
	return structure, nil
}

// dataQuery selects every column taking values on insert, then lets the table's modifier adjust the query.
// Generated columns are left to the target database.
func dataQuery(d dialect.Dialect, tableName string, structure schemareader.Table, modify func(sb *sqlbuilder.SelectBuilder)) (string, []interface{}) {
	names := structure.DataColumnNames()
	columns := make([]string, 0, len(names))
	for _, name := range names {
		columns = append(columns, d.QuoteIdentifier(name))
	}
	sb := d.Flavor().NewSelectBuilder()
	sb.Select(columns...).From(d.QuoteIdentifier(tableName))
	if modify != nil {
		modify(sb)
	}
	return sb.Build()
}

func writeTableSeparator(writer *bufio.Writer) error {
	_, err := writer.WriteString("\n")
	return err
}
