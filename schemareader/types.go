// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

package schemareader

import "errors"

// ErrTableNotFound is returned when introspection finds no columns for a table
var ErrTableNotFound = errors.New("table not found")

// Table represents the structure of a DB table, enough to render it back as DDL
type Table struct {
	Name       string
	Columns    []Column
	PKColumns  []string
	Indexes    []Index
	References []Reference
	Options    TableOptions
	// CreateStatement is the DDL as reported by the server itself, empty when unavailable
	CreateStatement string
}

// Column is a single table column, in declaration order
type Column struct {
	Name     string
	Type     string
	Nullable bool
	// Default is an SQL expression, literals already quoted
	Default       *string
	AutoIncrement bool
	// OnUpdate is the MySQL ON UPDATE expression, e.g. CURRENT_TIMESTAMP
	OnUpdate string
	// Generation is the expression of a generated column; such columns take no data
	Generation string
	Stored     bool
	Comment    string
}

// IsGenerated reports whether the column value is computed by the database
func (c Column) IsGenerated() bool {
	return c.Generation != ""
}

// Index represents a secondary index among columns of a Table
type Index struct {
	Name   string
	Parts  []IndexPart
	Unique bool
	// Type is FULLTEXT or SPATIAL for those MySQL index kinds, empty otherwise
	Type string
}

// IndexPart is either a column, optionally limited to a prefix Length, or an Expression
type IndexPart struct {
	Column     string
	Length     int
	Expression string
}

// Columns returns the names of the plain column parts of the index
func (i Index) Columns() []string {
	result := make([]string, 0, len(i.Parts))
	for _, part := range i.Parts {
		if part.Column != "" {
			result = append(result, part.Column)
		}
	}
	return result
}

// IndexColumns builds index parts from plain column names
func IndexColumns(names ...string) []IndexPart {
	result := make([]IndexPart, 0, len(names))
	for _, name := range names {
		result = append(result, IndexPart{Column: name})
	}
	return result
}

// Reference is a foreign key from Columns to ForeignColumns of TableName
type Reference struct {
	Name           string
	TableName      string
	Columns        []string
	ForeignColumns []string
	// OnDelete and OnUpdate hold the referential actions as reported, e.g. CASCADE
	OnDelete string
	OnUpdate string
}

// TableOptions holds dialect specific table attributes. Empty values are not rendered.
type TableOptions struct {
	Engine    string
	Collation string
	Comment   string
}

// ColumnNames returns the column names in declaration order
func (t Table) ColumnNames() []string {
	result := make([]string, 0, len(t.Columns))
	for _, column := range t.Columns {
		result = append(result, column.Name)
	}
	return result
}

// DataColumnNames returns the columns that take values on insert, in declaration order
func (t Table) DataColumnNames() []string {
	result := make([]string, 0, len(t.Columns))
	for _, column := range t.Columns {
		if !column.IsGenerated() {
			result = append(result, column.Name)
		}
	}
	return result
}

// HasColumn reports whether the table declares a column with the given name
func (t Table) HasColumn(name string) bool {
	for _, column := range t.Columns {
		if column.Name == name {
			return true
		}
	}
	return false
}

// IsPKColumn reports whether the column is part of the primary key
func (t Table) IsPKColumn(name string) bool {
	for _, column := range t.PKColumns {
		if column == name {
			return true
		}
	}
	return false
}
