package definition

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/huandu/go-sqlbuilder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uyuni-project/masked-dump/config"
	"github.com/uyuni-project/masked-dump/database"
	"github.com/uyuni-project/masked-dump/dialect"
	"github.com/uyuni-project/masked-dump/masking"
	"github.com/uyuni-project/masked-dump/schemareader"
)

type fakeReader struct {
	tables map[string]schemareader.Table
	names  []string
}

func (r *fakeReader) ReadTableNames(ctx context.Context) ([]string, error) {
	return r.names, nil
}

func (r *fakeReader) ReadTable(ctx context.Context, tableName string) (schemareader.Table, error) {
	table, ok := r.tables[tableName]
	if !ok {
		return table, fmt.Errorf("%w: %s", schemareader.ErrTableNotFound, tableName)
	}
	return table, nil
}

func newConnection() *database.Connection {
	reader := &fakeReader{tables: make(map[string]schemareader.Table)}
	for _, name := range []string{"audit", "logs", "orders", "sessions", "tmp_import", "users"} {
		reader.names = append(reader.names, name)
		reader.tables[name] = schemareader.Table{
			Name: name,
			Columns: []schemareader.Column{
				{Name: "id", Type: "int"},
				{Name: "email", Type: "varchar(255)", Nullable: true},
			},
			PKColumns: []string{"id"},
		}
	}
	return &database.Connection{Dialect: dialect.NewMySQL(), Reader: reader}
}

func tableNames(schema *DumpSchema) []string {
	result := make([]string, 0)
	for _, table := range schema.Tables() {
		result = append(result, table.Name)
	}
	return result
}

func TestBuildKeepsConfiguredOrder(t *testing.T) {
	cfg := &config.Config{
		Tables: []config.Table{
			{Name: "users", Columns: []config.Column{{Name: "email", Strategy: "replace", Params: map[string]interface{}{"value": "x"}}}},
			{Name: "logs", SchemaOnly: true},
			{Name: "audit"},
		},
	}

	schema, err := Build(context.Background(), cfg, newConnection())

	require.NoError(t, err)
	assert.Equal(t, []string{"users", "logs", "audit"}, tableNames(schema))
	tables := schema.Tables()
	assert.True(t, tables[0].DumpData)
	assert.False(t, tables[1].DumpData)
	assert.True(t, tables[2].DumpData)

	column, found := tables[0].FindColumn("email")
	require.True(t, found)
	masked, err := column.ModifyValue([]byte("real@x.com"))
	require.NoError(t, err)
	assert.Equal(t, "x", masked)

	_, found = tables[0].FindColumn("id")
	assert.False(t, found)
}

func TestBuildAllTables(t *testing.T) {
	cfg := &config.Config{
		AllTables:  true,
		Exclude:    []string{"sessions", "tmp_*"},
		SchemaOnly: []string{"aud*"},
		Tables:     []config.Table{{Name: "users"}},
	}

	schema, err := Build(context.Background(), cfg, newConnection())

	require.NoError(t, err)
	assert.Equal(t, []string{"users", "audit", "logs", "orders"}, tableNames(schema))
	assert.False(t, schema.Tables()[1].DumpData)
	assert.True(t, schema.Tables()[3].DumpData)
}

func TestBuildExcludeWinsOverConfiguredTable(t *testing.T) {
	cfg := &config.Config{
		Exclude: []string{"users"},
		Tables:  []config.Table{{Name: "users"}, {Name: "orders"}},
	}

	schema, err := Build(context.Background(), cfg, newConnection())

	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, tableNames(schema))
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name     string
		tables   []config.Table
		expected error
	}{
		{"missing table", []config.Table{{Name: "ghosts"}}, schemareader.ErrTableNotFound},
		{"unknown column", []config.Table{{Name: "users", Columns: []config.Column{{Name: "phone", Strategy: "set_null"}}}}, ErrUnknownColumn},
		{"unknown strategy", []config.Table{{Name: "users", Columns: []config.Column{{Name: "email", Strategy: "shred"}}}}, masking.ErrUnknownStrategy},
		{"bad params", []config.Table{{Name: "users", Columns: []config.Column{{Name: "email", Strategy: "hash", Params: map[string]interface{}{"function": "crc"}}}}}, masking.ErrInvalidParams},
		{"unknown order column", []config.Table{{Name: "users", OrderBy: []string{"created"}}}, ErrUnknownColumn},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Build(context.Background(), &config.Config{Tables: test.tables}, newConnection())
			assert.ErrorIs(t, err, test.expected)
		})
	}
}

func TestQueryModifier(t *testing.T) {
	table := newConnection().Reader.(*fakeReader).tables["users"]
	definition, err := NewTableDefinition(table, config.Table{Name: "users", Where: "id < 1000", OrderBy: []string{"id desc", "email"}}, dialect.NewMySQL())
	require.NoError(t, err)
	require.NotNil(t, definition.ModifyQuery)

	sb := sqlbuilder.MySQL.NewSelectBuilder()
	sb.Select("`id`", "`email`").From("`users`")
	definition.ModifyQuery(sb)
	query, args := sb.Build()

	assert.Equal(t, "SELECT `id`, `email` FROM `users` WHERE id < 1000 ORDER BY `id` DESC, `email`", query)
	assert.Empty(t, args)
}

func TestQueryModifierKeepsDollarSigns(t *testing.T) {
	tests := []struct {
		where    string
		expected string
	}{
		{"note <> 'price $0'", "SELECT `id` FROM `users` WHERE note <> 'price $0'"},
		{"note LIKE '%$$%'", "SELECT `id` FROM `users` WHERE note LIKE '%$$%'"},
		{"note = '${name}'", "SELECT `id` FROM `users` WHERE note = '${name}'"},
	}
	table := newConnection().Reader.(*fakeReader).tables["users"]
	for _, test := range tests {
		t.Run(test.where, func(t *testing.T) {
			definition, err := NewTableDefinition(table, config.Table{Name: "users", Where: test.where}, dialect.NewMySQL())
			require.NoError(t, err)

			sb := sqlbuilder.MySQL.NewSelectBuilder()
			sb.Select("`id`").From("`users`")
			definition.ModifyQuery(sb)
			query, args := sb.Build()

			assert.Equal(t, test.expected, query)
			assert.Empty(t, args)
		})
	}
}

func TestQueryModifierLimit(t *testing.T) {
	table := newConnection().Reader.(*fakeReader).tables["users"]
	definition, err := NewTableDefinition(table, config.Table{Name: "users", Limit: 10}, dialect.NewMySQL())
	require.NoError(t, err)

	sb := sqlbuilder.MySQL.NewSelectBuilder()
	sb.Select("`id`").From("`users`")
	definition.ModifyQuery(sb)
	query, _ := sb.Build()

	assert.Contains(t, query, "LIMIT")
}

func TestNoQueryModifierWithoutFilters(t *testing.T) {
	table := newConnection().Reader.(*fakeReader).tables["users"]
	definition, err := NewTableDefinition(table, config.Table{Name: "users"}, dialect.NewMySQL())

	require.NoError(t, err)
	assert.Nil(t, definition.ModifyQuery)
}

func TestDumpSchemaRejectsDuplicates(t *testing.T) {
	schema := NewDumpSchema(nil)
	require.NoError(t, schema.Add(TableDefinition{Name: "users"}))

	err := schema.Add(TableDefinition{Name: "users"})

	assert.True(t, errors.Is(err, ErrDuplicateTable))
	assert.Equal(t, 1, schema.Len())
}
