package dumper

import (
	"fmt"
	"io"
	"strings"

	"github.com/uyuni-project/masked-dump/dialect"
	"github.com/uyuni-project/masked-dump/schemareader"
	"github.com/uyuni-project/masked-dump/sqlUtil"
)

func writeStatements(w io.Writer, statements ...string) error {
	for _, statement := range statements {
		if _, err := io.WriteString(w, statement+";\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteInsert writes one INSERT statement for the row, columns in retrieval order
func WriteInsert(w io.Writer, d dialect.Dialect, tableName string, row []sqlUtil.RowDataStructure) error {
	values, err := formatRowValue(d, row)
	if err != nil {
		return fmt.Errorf("table %s: %w", tableName, err)
	}
	statement := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdentifier(tableName), prepareColumnNames(d, row), values)
	return writeStatements(w, statement)
}

func prepareColumnNames(d dialect.Dialect, row []sqlUtil.RowDataStructure) string {
	result := make([]string, 0, len(row))
	for _, col := range row {
		result = append(result, d.QuoteIdentifier(col.ColumnName))
	}
	return strings.Join(result, ", ")
}

func formatRowValue(d dialect.Dialect, row []sqlUtil.RowDataStructure) (string, error) {
	result := make([]string, 0, len(row))
	for _, col := range row {
		val, err := formatField(d, col)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", col.ColumnName, err)
		}
		result = append(result, val)
	}
	return strings.Join(result, ", "), nil
}

// formatField encodes NULL, then the empty string, then anything else through the dialect
func formatField(d dialect.Dialect, col sqlUtil.RowDataStructure) (string, error) {
	switch v := col.Value.(type) {
	case nil:
		return "NULL", nil
	case string:
		if v == "" {
			return d.EmptyString(), nil
		}
	case []byte:
		if len(v) == 0 {
			return d.EmptyString(), nil
		}
	}
	return d.QuoteValue(col.Value, col.ColumnType)
}

// WriteSchema writes the statements recreating the table, dropping any table of the same name first.
// Nothing is written when the structure cannot be rendered.
func WriteSchema(w io.Writer, d dialect.Dialect, table schemareader.Table) error {
	statements, err := d.CreateTable(table)
	if err != nil {
		return &SchemaError{Table: table.Name, Err: err}
	}
	return writeStatements(w, append([]string{d.DropTable(table.Name)}, statements...)...)
}

// WriteLock writes the statements opening the data section of a table
func WriteLock(w io.Writer, d dialect.Dialect, tableName string) error {
	return writeStatements(w, d.Lock(tableName)...)
}

// WriteUnlock writes the statements closing the data section of a table
func WriteUnlock(w io.Writer, d dialect.Dialect, tableName string) error {
	return writeStatements(w, d.Unlock(tableName)...)
}

// WriteSequenceReset writes the statements moving auto increment counters past the dumped rows
func WriteSequenceReset(w io.Writer, d dialect.Dialect, table schemareader.Table) error {
	return writeStatements(w, d.ResetSequences(table)...)
}
