package sqlUtil

import (
	"context"
	"database/sql"
	"fmt"
)

// Queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

type RowDataStructure struct {
	ColumnName   string
	ColumnType   string
	initialValue interface{}
	Value        interface{}
}

func NewRowDataStructure(columnName string, columnType string, value interface{}) RowDataStructure {
	return RowDataStructure{ColumnName: columnName, ColumnType: columnType, initialValue: value, Value: value}
}

// GetInitialValue returns the value as it was read, before any masking
func (row RowDataStructure) GetInitialValue() interface{} {
	return row.initialValue
}

// RowStream iterates a result set one row at a time. Only the current row is held in memory.
type RowStream struct {
	rows        *sql.Rows
	columnTypes []*sql.ColumnType
	current     []RowDataStructure
	err         error
}

// StreamQuery executes the query and returns a stream over its rows. The caller must Close it.
func StreamQuery(ctx context.Context, db Queryer, query string, args ...interface{}) (*RowStream, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute %q: %w", query, err)
	}

	// get column type info
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("read column types of %q: %w", query, err)
	}
	return &RowStream{rows: rows, columnTypes: columnTypes}, nil
}

// Columns returns the result column names in retrieval order
func (s *RowStream) Columns() []string {
	result := make([]string, 0, len(s.columnTypes))
	for _, columnType := range s.columnTypes {
		result = append(result, columnType.Name())
	}
	return result
}

// Next advances to the following row, returning false at the end or on error
func (s *RowStream) Next() bool {
	if s.err != nil || !s.rows.Next() {
		return false
	}

	// scanning into *interface{} copies driver owned buffers, so the values outlive the next call
	values := make([]interface{}, len(s.columnTypes))
	pointers := make([]interface{}, len(s.columnTypes))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := s.rows.Scan(pointers...); err != nil {
		s.err = fmt.Errorf("scan row: %w", err)
		return false
	}

	s.current = make([]RowDataStructure, 0, len(values))
	for i, value := range values {
		s.current = append(s.current, NewRowDataStructure(s.columnTypes[i].Name(), s.columnTypes[i].DatabaseTypeName(), value))
	}
	return true
}

// Row returns the current row
func (s *RowStream) Row() []RowDataStructure {
	return s.current
}

func (s *RowStream) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.rows.Err()
}

func (s *RowStream) Close() error {
	return s.rows.Close()
}
