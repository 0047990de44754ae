// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package dialect isolates everything that depends on the target SQL dialect:
// quoting, DDL rendering, lock statements and the session settings around the script.
package dialect

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/huandu/go-sqlbuilder"

	"github.com/uyuni-project/masked-dump/schemareader"
)

const (
	MySQLName    = "mysql"
	PostgresName = "postgres"
)

// ErrUnsupportedDialect is returned by New for unknown dialect names
var ErrUnsupportedDialect = errors.New("unsupported dialect")

// ErrUnrenderable marks a structure that cannot be expressed in the dialect
var ErrUnrenderable = errors.New("cannot render table structure")

// Dialect renders every dialect specific fragment of a dump script.
// Statements are returned without a trailing newline.
type Dialect interface {
	Name() string
	Flavor() sqlbuilder.Flavor

	QuoteIdentifier(name string) string
	// QuoteValue encodes a non-null, non-empty value; columnType is the driver's database type name
	QuoteValue(value interface{}, columnType string) (string, error)
	// EmptyString is the literal used for empty strings
	EmptyString() string

	Preamble() []string
	Postamble() []string

	DropTable(tableName string) string
	CreateTable(table schemareader.Table) ([]string, error)

	// ResetSequences realigns auto increment counters once the table data is loaded
	ResetSequences(table schemareader.Table) []string

	Lock(tableName string) []string
	Unlock(tableName string) []string
}

// New returns the dialect registered under name
func New(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case MySQLName, "mariadb":
		return NewMySQL(), nil
	case PostgresName, "postgresql", "pgsql":
		return NewPostgres(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, name)
}

var numericLiteral = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)([eE][-+]?\d+)?$`)

// IsNumericLiteral reports whether s can be emitted unquoted as a number
func IsNumericLiteral(s string) bool {
	return numericLiteral.MatchString(s)
}

// IsNumericType reports whether a driver database type name holds numbers.
// Covers the names reported by go-sql-driver/mysql and lib/pq.
func IsNumericType(columnType string) bool {
	t := strings.ToUpper(columnType)
	if t == "" || strings.Contains(t, "INTERVAL") || strings.Contains(t, "POINT") {
		return false
	}
	for _, numeric := range []string{"INT", "DECIMAL", "NUMERIC", "FLOAT", "DOUBLE", "REAL", "YEAR"} {
		if strings.Contains(t, numeric) {
			return true
		}
	}
	return false
}

func quoteIdentifiers(d Dialect, names []string) string {
	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, d.QuoteIdentifier(name))
	}
	return strings.Join(quoted, ", ")
}
