// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package definition describes what a dump contains: which tables, in which order,
// with or without data and with which column masking rules.
package definition

import (
	"errors"
	"fmt"

	"github.com/huandu/go-sqlbuilder"

	"github.com/uyuni-project/masked-dump/database"
	"github.com/uyuni-project/masked-dump/masking"
	"github.com/uyuni-project/masked-dump/schemareader"
)

var (
	ErrUnknownColumn  = errors.New("unknown column")
	ErrDuplicateTable = errors.New("duplicate table")
)

// ColumnDefinition is the masking rule of one column
type ColumnDefinition struct {
	Name        string
	Transformer masking.Transformer
}

// ModifyValue runs the rule's transformer on a single value
func (c ColumnDefinition) ModifyValue(value interface{}) (interface{}, error) {
	return c.Transformer.Transform(value)
}

// TableDefinition is the export policy of one table.
// Columns only lists masked columns; every other column is dumped as read.
type TableDefinition struct {
	Name     string
	Table    schemareader.Table
	DumpData bool
	Columns  []ColumnDefinition
	// ModifyQuery, when set, adjusts the data query before it runs
	ModifyQuery func(sb *sqlbuilder.SelectBuilder)
}

func (t TableDefinition) FindColumn(name string) (ColumnDefinition, bool) {
	for _, column := range t.Columns {
		if column.Name == name {
			return column, true
		}
	}
	return ColumnDefinition{}, false
}

// DumpSchema is the ordered set of tables to dump and the connection they come from.
// Tables are emitted in the order they were added.
type DumpSchema struct {
	Connection *database.Connection
	tables     []TableDefinition
}

func NewDumpSchema(connection *database.Connection) *DumpSchema {
	return &DumpSchema{Connection: connection, tables: make([]TableDefinition, 0)}
}

// Add appends a table definition, refusing a name that is already present
func (s *DumpSchema) Add(table TableDefinition) error {
	if s.Contains(table.Name) {
		return fmt.Errorf("%w: %s", ErrDuplicateTable, table.Name)
	}
	s.tables = append(s.tables, table)
	return nil
}

func (s *DumpSchema) Contains(tableName string) bool {
	for _, table := range s.tables {
		if table.Name == tableName {
			return true
		}
	}
	return false
}

// Tables returns the definitions in emission order
func (s *DumpSchema) Tables() []TableDefinition {
	return s.tables
}

func (s *DumpSchema) Len() int {
	return len(s.tables)
}
