// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

package dialect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uyuni-project/masked-dump/schemareader"
)

func TestPostgresQuoteValue(t *testing.T) {
	tests := []struct {
		name        string
		value       interface{}
		columnType  string
		expectedVal string
	}{
		{"numeric", []byte("10"), "NUMERIC", "10"},
		{"negative int", []byte("-10"), "INT4", "-10"},
		{"text", "default", "TEXT", "'default'"},
		{"single quote", "it's", "TEXT", "'it''s'"},
		{"bool", false, "BOOL", "FALSE"},
		{"bytea", []byte("hello"), "BYTEA", "decode('68656c6c6f', 'hex')"},
		{"timestamptz", time.Date(1984, time.July, 9, 17, 20, 0, 0, time.UTC), "TIMESTAMPTZ", "'1984-07-09 17:20:00Z'"},
	}

	d := NewPostgres()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, err := d.QuoteValue(test.value, test.columnType)
			require.NoError(t, err)
			assert.Equal(t, test.expectedVal, result)
		})
	}
}

func TestPostgresCreateTable(t *testing.T) {
	totalDefault := "0"
	table := schemareader.Table{
		Name: "orders",
		Columns: []schemareader.Column{
			{Name: "id", Type: "integer", AutoIncrement: true},
			{Name: "total", Type: "numeric(10,2)", Nullable: true, Default: &totalDefault, Comment: "gross"},
		},
		PKColumns: []string{"id"},
		Indexes:   []schemareader.Index{{Name: "orders_total_idx", Parts: schemareader.IndexColumns("total")}},
	}

	statements, err := NewPostgres().CreateTable(table)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE \"orders\" (\n  \"id\" serial NOT NULL,\n  \"total\" numeric(10,2) DEFAULT 0,\n  PRIMARY KEY (\"id\")\n)",
		`CREATE INDEX "orders_total_idx" ON "orders" ("total")`,
		`COMMENT ON COLUMN "orders"."total" IS 'gross'`,
	}, statements)
}

func TestPostgresCreateTableGeneratedColumn(t *testing.T) {
	table := schemareader.Table{
		Name: "orders",
		Columns: []schemareader.Column{
			{Name: "total", Type: "numeric", Nullable: true},
			{Name: "doubled", Type: "numeric", Nullable: true, Generation: "(total * (2)::numeric)", Stored: true},
		},
		Indexes: []schemareader.Index{{Name: "orders_doubled_idx", Parts: []schemareader.IndexPart{{Expression: "round(doubled)"}}}},
	}

	statements, err := NewPostgres().CreateTable(table)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE \"orders\" (\n  \"total\" numeric,\n  \"doubled\" numeric GENERATED ALWAYS AS ((total * (2)::numeric)) STORED\n)",
		`CREATE INDEX "orders_doubled_idx" ON "orders" ((round(doubled)))`,
	}, statements)
}

func TestPostgresResetSequences(t *testing.T) {
	table := schemareader.Table{
		Name: "Orders",
		Columns: []schemareader.Column{
			{Name: "id", Type: "integer", AutoIncrement: true},
			{Name: "total", Type: "numeric"},
		},
	}

	statements := NewPostgres().ResetSequences(table)

	assert.Equal(t, []string{
		`SELECT setval(pg_get_serial_sequence('"Orders"', 'id'), COALESCE(MAX("id"), 1), MAX("id") IS NOT NULL) FROM "Orders"`,
	}, statements)
	assert.Empty(t, NewPostgres().ResetSequences(schemareader.Table{Name: "logs", Columns: table.Columns[1:]}))
}

func TestPostgresLockUnlock(t *testing.T) {
	d := NewPostgres()
	assert.Equal(t, []string{
		"BEGIN",
		`LOCK TABLE "users" IN ACCESS EXCLUSIVE MODE`,
		`ALTER TABLE "users" DISABLE TRIGGER ALL`,
	}, d.Lock("users"))
	assert.Equal(t, []string{`ALTER TABLE "users" ENABLE TRIGGER ALL`, "COMMIT"}, d.Unlock("users"))
	assert.Equal(t, "''", d.EmptyString())
	assert.Len(t, d.Postamble(), len(d.Preamble()))
}
