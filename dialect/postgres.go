// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

package dialect

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"
	"github.com/spf13/cast"

	"github.com/uyuni-project/masked-dump/schemareader"
)

// Postgres renders scripts for PostgreSQL
type Postgres struct{}

func NewPostgres() *Postgres {
	return &Postgres{}
}

func (d *Postgres) Name() string {
	return PostgresName
}

func (d *Postgres) Flavor() sqlbuilder.Flavor {
	return sqlbuilder.PostgreSQL
}

func (d *Postgres) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

func (d *Postgres) QuoteValue(value interface{}, columnType string) (string, error) {
	switch v := value.(type) {
	case []byte:
		if strings.EqualFold(columnType, "BYTEA") {
			return fmt.Sprintf("decode('%s', 'hex')", hex.EncodeToString(v)), nil
		}
		return d.quoteText(string(v), columnType), nil
	case string:
		return d.quoteText(v, columnType), nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case time.Time:
		return pq.QuoteLiteral(string(pq.FormatTimestamp(v))), nil
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return "", fmt.Errorf("cannot encode value of type %T: %w", value, err)
	}
	return d.quoteText(s, columnType), nil
}

func (d *Postgres) quoteText(s string, columnType string) string {
	if IsNumericType(columnType) && IsNumericLiteral(s) {
		return s
	}
	return pq.QuoteLiteral(s)
}

// EmptyString is a pair of single quotes: double quotes delimit identifiers in PostgreSQL
func (d *Postgres) EmptyString() string {
	return "''"
}

func (d *Postgres) Preamble() []string {
	return []string{
		"SET client_encoding = 'UTF8'",
		"SET standard_conforming_strings = on",
		"SET session_replication_role = replica",
		"SET client_min_messages = warning",
	}
}

func (d *Postgres) Postamble() []string {
	return []string{
		"RESET client_min_messages",
		"RESET session_replication_role",
		"RESET standard_conforming_strings",
		"RESET client_encoding",
	}
}

// DropTable cascades so that foreign keys left on the target do not block the drop
func (d *Postgres) DropTable(tableName string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", d.QuoteIdentifier(tableName))
}

// CreateTable renders CREATE TABLE followed by its indexes and column comments.
// Foreign keys are left out: they would need the referenced table to exist already.
func (d *Postgres) CreateTable(table schemareader.Table) ([]string, error) {
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("%w: table %s has no columns", ErrUnrenderable, table.Name)
	}
	quotedTable := d.QuoteIdentifier(table.Name)

	definitions := make([]string, 0, len(table.Columns)+1)
	for _, column := range table.Columns {
		if column.Name == "" || column.Type == "" {
			return nil, fmt.Errorf("%w: table %s: column %q has no type", ErrUnrenderable, table.Name, column.Name)
		}
		parts := []string{d.QuoteIdentifier(column.Name), postgresColumnType(column)}
		if column.IsGenerated() {
			parts = append(parts, "GENERATED ALWAYS AS ("+column.Generation+") STORED")
		}
		if !column.Nullable {
			parts = append(parts, "NOT NULL")
		}
		if column.Default != nil && !column.IsGenerated() {
			parts = append(parts, "DEFAULT "+*column.Default)
		}
		definitions = append(definitions, strings.Join(parts, " "))
	}
	if len(table.PKColumns) > 0 {
		definitions = append(definitions, fmt.Sprintf("PRIMARY KEY (%s)", quoteIdentifiers(d, table.PKColumns)))
	}

	statements := []string{
		fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", quotedTable, strings.Join(definitions, ",\n  ")),
	}
	for _, index := range table.Indexes {
		keyword := "INDEX"
		if index.Unique {
			keyword = "UNIQUE INDEX"
		}
		statements = append(statements, fmt.Sprintf("CREATE %s %s ON %s (%s)",
			keyword, d.QuoteIdentifier(index.Name), quotedTable, d.indexParts(index.Parts)))
	}
	for _, column := range table.Columns {
		if column.Comment != "" {
			statements = append(statements, fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s",
				quotedTable, d.QuoteIdentifier(column.Name), pq.QuoteLiteral(column.Comment)))
		}
	}
	return statements, nil
}

func (d *Postgres) indexParts(parts []schemareader.IndexPart) string {
	rendered := make([]string, 0, len(parts))
	for _, part := range parts {
		if part.Expression != "" {
			rendered = append(rendered, "("+part.Expression+")")
			continue
		}
		rendered = append(rendered, d.QuoteIdentifier(part.Column))
	}
	return strings.Join(rendered, ", ")
}

// ResetSequences moves the sequence of every serial column past the loaded rows.
// An empty table leaves the sequence so that nextval returns 1.
func (d *Postgres) ResetSequences(table schemareader.Table) []string {
	var statements []string
	quotedTable := d.QuoteIdentifier(table.Name)
	for _, column := range table.Columns {
		if !column.AutoIncrement {
			continue
		}
		quotedColumn := d.QuoteIdentifier(column.Name)
		statements = append(statements, fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence(%s, %s), COALESCE(MAX(%s), 1), MAX(%s) IS NOT NULL) FROM %s",
			pq.QuoteLiteral(quotedTable), pq.QuoteLiteral(column.Name), quotedColumn, quotedColumn, quotedTable))
	}
	return statements
}

func postgresColumnType(column schemareader.Column) string {
	if !column.AutoIncrement {
		return column.Type
	}
	switch strings.ToLower(column.Type) {
	case "smallint":
		return "smallserial"
	case "integer":
		return "serial"
	case "bigint":
		return "bigserial"
	}
	return column.Type
}

// Lock opens a transaction: PostgreSQL only holds table locks inside one
func (d *Postgres) Lock(tableName string) []string {
	quoted := d.QuoteIdentifier(tableName)
	return []string{
		"BEGIN",
		fmt.Sprintf("LOCK TABLE %s IN ACCESS EXCLUSIVE MODE", quoted),
		fmt.Sprintf("ALTER TABLE %s DISABLE TRIGGER ALL", quoted),
	}
}

func (d *Postgres) Unlock(tableName string) []string {
	return []string{
		fmt.Sprintf("ALTER TABLE %s ENABLE TRIGGER ALL", d.QuoteIdentifier(tableName)),
		"COMMIT",
	}
}
