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
	"github.com/spf13/cast"

	"github.com/uyuni-project/masked-dump/schemareader"
)

const mysqlTimeFormat = "2006-01-02 15:04:05.999999"

// MySQL renders scripts for MySQL and MariaDB, matching what mysqldump emits
type MySQL struct{}

func NewMySQL() *MySQL {
	return &MySQL{}
}

func (d *MySQL) Name() string {
	return MySQLName
}

func (d *MySQL) Flavor() sqlbuilder.Flavor {
	return sqlbuilder.MySQL
}

func (d *MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteValue emits numbers bare, binary data as hex and everything else as a
// double quoted, backslash escaped string.
func (d *MySQL) QuoteValue(value interface{}, columnType string) (string, error) {
	switch v := value.(type) {
	case []byte:
		if isMySQLBinaryType(columnType) {
			return "0x" + strings.ToUpper(hex.EncodeToString(v)), nil
		}
		return d.quoteText(string(v), columnType), nil
	case string:
		return d.quoteText(v, columnType), nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case time.Time:
		return `"` + v.Format(mysqlTimeFormat) + `"`, nil
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return "", fmt.Errorf("cannot encode value of type %T: %w", value, err)
	}
	return d.quoteText(s, columnType), nil
}

func (d *MySQL) quoteText(s string, columnType string) string {
	if IsNumericType(columnType) && IsNumericLiteral(s) {
		return s
	}
	return `"` + escapeMySQL(s) + `"`
}

func (d *MySQL) EmptyString() string {
	return `""`
}

func (d *MySQL) Preamble() []string {
	return []string{
		"/*!40101 SET @OLD_CHARACTER_SET_CLIENT=@@CHARACTER_SET_CLIENT */",
		"/*!40101 SET @OLD_CHARACTER_SET_RESULTS=@@CHARACTER_SET_RESULTS */",
		"/*!40101 SET @OLD_COLLATION_CONNECTION=@@COLLATION_CONNECTION */",
		"/*!40101 SET NAMES utf8 */",
		"/*!50503 SET NAMES utf8mb4 */",
		"/*!40014 SET @OLD_FOREIGN_KEY_CHECKS=@@FOREIGN_KEY_CHECKS, FOREIGN_KEY_CHECKS=0 */",
		"/*!40101 SET @OLD_SQL_MODE=@@SQL_MODE, SQL_MODE='NO_AUTO_VALUE_ON_ZERO' */",
		"/*!40111 SET @OLD_SQL_NOTES=@@SQL_NOTES, SQL_NOTES=0 */",
	}
}

func (d *MySQL) Postamble() []string {
	return []string{
		"/*!40111 SET SQL_NOTES=@OLD_SQL_NOTES */",
		"/*!40101 SET SQL_MODE=@OLD_SQL_MODE */",
		"/*!40014 SET FOREIGN_KEY_CHECKS=@OLD_FOREIGN_KEY_CHECKS */",
		"/*!40101 SET CHARACTER_SET_CLIENT=@OLD_CHARACTER_SET_CLIENT */",
		"/*!40101 SET CHARACTER_SET_RESULTS=@OLD_CHARACTER_SET_RESULTS */",
		"/*!40101 SET COLLATION_CONNECTION=@OLD_COLLATION_CONNECTION */",
	}
}

func (d *MySQL) DropTable(tableName string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdentifier(tableName))
}

// CreateTable renders a single CREATE TABLE statement with inline keys and foreign keys.
// Foreign keys are safe to create in any order because the preamble disables their checks.
// The statement reported by the server is preferred when the table carries one.
func (d *MySQL) CreateTable(table schemareader.Table) ([]string, error) {
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("%w: table %s has no columns", ErrUnrenderable, table.Name)
	}
	if table.CreateStatement != "" {
		return []string{table.CreateStatement}, nil
	}

	definitions := make([]string, 0, len(table.Columns)+len(table.Indexes)+1)
	for _, column := range table.Columns {
		definition, err := d.columnDefinition(column)
		if err != nil {
			return nil, fmt.Errorf("%w: table %s: %s", ErrUnrenderable, table.Name, err)
		}
		definitions = append(definitions, definition)
	}
	if len(table.PKColumns) > 0 {
		definitions = append(definitions, fmt.Sprintf("PRIMARY KEY (%s)", quoteIdentifiers(d, table.PKColumns)))
	}
	for _, index := range table.Indexes {
		keyword := "KEY"
		switch {
		case index.Type != "":
			keyword = index.Type + " KEY"
		case index.Unique:
			keyword = "UNIQUE KEY"
		}
		definitions = append(definitions, fmt.Sprintf("%s %s (%s)",
			keyword, d.QuoteIdentifier(index.Name), d.indexParts(index.Parts)))
	}
	for _, reference := range table.References {
		definition := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			d.QuoteIdentifier(reference.Name), quoteIdentifiers(d, reference.Columns),
			d.QuoteIdentifier(reference.TableName), quoteIdentifiers(d, reference.ForeignColumns))
		definitions = append(definitions, definition+referentialActions(reference))
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(d.QuoteIdentifier(table.Name))
	sb.WriteString(" (\n  ")
	sb.WriteString(strings.Join(definitions, ",\n  "))
	sb.WriteString("\n)")
	if table.Options.Engine != "" {
		sb.WriteString(" ENGINE=" + table.Options.Engine)
	}
	if table.Options.Collation != "" {
		sb.WriteString(" COLLATE=" + table.Options.Collation)
	}
	if table.Options.Comment != "" {
		sb.WriteString(" COMMENT='" + escapeMySQL(table.Options.Comment) + "'")
	}
	return []string{sb.String()}, nil
}

func (d *MySQL) columnDefinition(column schemareader.Column) (string, error) {
	if column.Name == "" || column.Type == "" {
		return "", fmt.Errorf("column %q has no type", column.Name)
	}
	parts := []string{d.QuoteIdentifier(column.Name), column.Type}
	if column.IsGenerated() {
		storage := "VIRTUAL"
		if column.Stored {
			storage = "STORED"
		}
		parts = append(parts, "GENERATED ALWAYS AS ("+column.Generation+") "+storage)
	}
	if !column.Nullable {
		parts = append(parts, "NOT NULL")
	}
	switch {
	case column.IsGenerated():
	case column.Default != nil:
		parts = append(parts, "DEFAULT "+*column.Default)
	case column.Nullable:
		parts = append(parts, "DEFAULT NULL")
	}
	if column.OnUpdate != "" {
		parts = append(parts, "ON UPDATE "+column.OnUpdate)
	}
	if column.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}
	if column.Comment != "" {
		parts = append(parts, "COMMENT '"+escapeMySQL(column.Comment)+"'")
	}
	return strings.Join(parts, " "), nil
}

func (d *MySQL) indexParts(parts []schemareader.IndexPart) string {
	rendered := make([]string, 0, len(parts))
	for _, part := range parts {
		switch {
		case part.Expression != "":
			rendered = append(rendered, "("+part.Expression+")")
		case part.Length > 0:
			rendered = append(rendered, fmt.Sprintf("%s(%d)", d.QuoteIdentifier(part.Column), part.Length))
		default:
			rendered = append(rendered, d.QuoteIdentifier(part.Column))
		}
	}
	return strings.Join(rendered, ", ")
}

// referentialActions renders the non default ON DELETE and ON UPDATE clauses
func referentialActions(reference schemareader.Reference) string {
	var sb strings.Builder
	for _, action := range []struct{ event, rule string }{
		{"DELETE", reference.OnDelete},
		{"UPDATE", reference.OnUpdate},
	} {
		switch strings.ToUpper(action.rule) {
		case "", "RESTRICT", "NO ACTION":
			continue
		}
		sb.WriteString(" ON " + action.event + " " + strings.ToUpper(action.rule))
	}
	return sb.String()
}

// ResetSequences has nothing to do: InnoDB moves AUTO_INCREMENT past inserted values
func (d *MySQL) ResetSequences(table schemareader.Table) []string {
	return nil
}

func (d *MySQL) Lock(tableName string) []string {
	quoted := d.QuoteIdentifier(tableName)
	return []string{
		fmt.Sprintf("LOCK TABLES %s WRITE", quoted),
		fmt.Sprintf("ALTER TABLE %s DISABLE KEYS", quoted),
	}
}

func (d *MySQL) Unlock(tableName string) []string {
	return []string{
		fmt.Sprintf("ALTER TABLE %s ENABLE KEYS", d.QuoteIdentifier(tableName)),
		"UNLOCK TABLES",
	}
}

var mysqlEscaper = strings.NewReplacer(
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\x1a", `\Z`,
)

// escapeMySQL escapes the same characters as mysql_real_escape_string
func escapeMySQL(s string) string {
	return mysqlEscaper.Replace(s)
}

func isMySQLBinaryType(columnType string) bool {
	switch strings.ToUpper(columnType) {
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY", "BIT", "GEOMETRY":
		return true
	}
	return false
}
