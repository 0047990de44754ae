// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

package dumper

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uyuni-project/masked-dump/definition"
	"github.com/uyuni-project/masked-dump/dialect"
	"github.com/uyuni-project/masked-dump/masking"
	"github.com/uyuni-project/masked-dump/schemareader"
	"github.com/uyuni-project/masked-dump/sqlUtil"
)

func TestFormatField(t *testing.T) {
	tests := []struct {
		dialect     dialect.Dialect
		col         sqlUtil.RowDataStructure
		expectedVal string
	}{
		// NULL value
		{dialect.NewMySQL(), sqlUtil.RowDataStructure{}, "NULL"},
		{dialect.NewPostgres(), sqlUtil.RowDataStructure{ColumnType: "TEXT"}, "NULL"},
		// empty string
		{dialect.NewMySQL(), sqlUtil.RowDataStructure{ColumnType: "VARCHAR", Value: []byte{}}, `""`},
		{dialect.NewMySQL(), sqlUtil.RowDataStructure{ColumnType: "VARCHAR", Value: ""}, `""`},
		{dialect.NewPostgres(), sqlUtil.RowDataStructure{ColumnType: "TEXT", Value: ""}, "''"},
		// numbers
		{dialect.NewMySQL(), sqlUtil.RowDataStructure{ColumnType: "INT", Value: []byte("10")}, "10"},
		{dialect.NewPostgres(), sqlUtil.RowDataStructure{ColumnType: "NUMERIC", Value: "-10"}, "-10"},
		// timestamps
		{dialect.NewPostgres(), sqlUtil.RowDataStructure{ColumnType: "TIMESTAMPTZ", Value: time.Date(2019, time.May, 29, 13, 49, 0, 0, time.FixedZone("UTC-1", -3600))}, "'2019-05-29 13:49:00-01:00'"},
		// text
		{dialect.NewMySQL(), sqlUtil.RowDataStructure{ColumnType: "VARCHAR", Value: []byte(`say "hi"`)}, `"say \"hi\""`},
		{dialect.NewPostgres(), sqlUtil.RowDataStructure{ColumnType: "TEXT", Value: "default"}, "'default'"},
		// binary
		{dialect.NewPostgres(), sqlUtil.RowDataStructure{ColumnType: "BYTEA", Value: []byte("hello")}, "decode('68656c6c6f', 'hex')"},
	}

	for _, test := range tests {
		result, err := formatField(test.dialect, test.col)
		require.NoError(t, err)
		if result != test.expectedVal {
			t.Errorf("formatField(%s, %+v) = %s; expected %s", test.dialect.Name(), test.col, result, test.expectedVal)
		}
	}
}

func TestWriteInsert(t *testing.T) {
	var buf bytes.Buffer
	row := []sqlUtil.RowDataStructure{
		sqlUtil.NewRowDataStructure("id", "INT", int64(1)),
		sqlUtil.NewRowDataStructure("email", "VARCHAR", "redacted@example.com"),
		sqlUtil.NewRowDataStructure("note", "TEXT", nil),
	}

	err := WriteInsert(&buf, dialect.NewMySQL(), "users", row)

	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `users` (`id`, `email`, `note`) VALUES (1, \"redacted@example.com\", NULL);\n", buf.String())
}

func TestWriteSchema(t *testing.T) {
	var buf bytes.Buffer

	err := WriteSchema(&buf, dialect.NewMySQL(), logsTable())

	require.NoError(t, err)
	assert.Equal(t, "DROP TABLE IF EXISTS `logs`;\n"+createLogs, buf.String())
}

func TestWriteSchemaUnrenderable(t *testing.T) {
	var buf bytes.Buffer

	err := WriteSchema(&buf, dialect.NewMySQL(), schemareader.Table{Name: "broken"})

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "broken", schemaErr.Table)
	assert.ErrorIs(t, err, dialect.ErrUnrenderable)
	assert.Empty(t, buf.String())
}

func TestWriteLockUnlock(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteLock(&buf, dialect.NewMySQL(), "users"))
	require.NoError(t, WriteUnlock(&buf, dialect.NewMySQL(), "users"))

	assert.Equal(t, statements(
		"LOCK TABLES `users` WRITE",
		"ALTER TABLE `users` DISABLE KEYS",
		"ALTER TABLE `users` ENABLE KEYS",
		"UNLOCK TABLES",
	), buf.String())
}

func TestTransformValue(t *testing.T) {
	table := definition.TableDefinition{Name: "users", Columns: []definition.ColumnDefinition{replaceRule(t, "email", "redacted@example.com")}}
	row := []sqlUtil.RowDataStructure{
		sqlUtil.NewRowDataStructure("id", "INT", int64(1)),
		sqlUtil.NewRowDataStructure("email", "VARCHAR", []byte("real@x.com")),
	}

	require.NoError(t, TransformValue(row, table))

	assert.Equal(t, int64(1), row[0].Value)
	assert.Equal(t, "redacted@example.com", row[1].Value)
	assert.Equal(t, []byte("real@x.com"), row[1].GetInitialValue())
}

func TestTransformValueReturnsMaskingError(t *testing.T) {
	failure := errors.New("generator exhausted")
	table := definition.TableDefinition{Name: "users", Columns: []definition.ColumnDefinition{{
		Name: "email",
		Transformer: masking.TransformerFunc(func(interface{}) (interface{}, error) {
			return nil, failure
		}),
	}}}
	row := []sqlUtil.RowDataStructure{sqlUtil.NewRowDataStructure("email", "VARCHAR", "a@x.com")}

	err := TransformValue(row, table)

	var maskingErr *MaskingError
	require.ErrorAs(t, err, &maskingErr)
	assert.Equal(t, "users", maskingErr.Table)
	assert.Equal(t, "email", maskingErr.Column)
	assert.ErrorIs(t, err, failure)
}
