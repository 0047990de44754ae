package dumper

import (
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/uyuni-project/masked-dump/database"
	"github.com/uyuni-project/masked-dump/definition"
	"github.com/uyuni-project/masked-dump/dialect"
	"github.com/uyuni-project/masked-dump/masking"
	"github.com/uyuni-project/masked-dump/schemareader"
	"github.com/uyuni-project/masked-dump/testutils"
)

const (
	selectUsers = "SELECT `id`, `email` FROM `users`"
	selectNotes = "SELECT `id`, `note` FROM `notes`"
	createUsers = "CREATE TABLE `users` (\n  `id` int NOT NULL,\n  `email` varchar(255) DEFAULT NULL,\n  PRIMARY KEY (`id`)\n);\n"
	createLogs  = "CREATE TABLE `logs` (\n  `line` text NOT NULL\n);\n"
)

type progressRecorder struct {
	total    int
	advanced int
}

func (p *progressRecorder) Total(n int) {
	p.total = n
}

func (p *progressRecorder) Advance() {
	p.advanced++
}

func usersTable() schemareader.Table {
	return schemareader.Table{
		Name: "users",
		Columns: []schemareader.Column{
			{Name: "id", Type: "int"},
			{Name: "email", Type: "varchar(255)", Nullable: true},
		},
		PKColumns: []string{"id"},
	}
}

func logsTable() schemareader.Table {
	return schemareader.Table{
		Name:    "logs",
		Columns: []schemareader.Column{{Name: "line", Type: "text"}},
	}
}

func notesTable() schemareader.Table {
	return schemareader.Table{
		Name: "notes",
		Columns: []schemareader.Column{
			{Name: "id", Type: "int"},
			{Name: "note", Type: "text", Nullable: true},
		},
	}
}

func usersRows() *sqlmock.Rows {
	return sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("INT", int64(0)),
		sqlmock.NewColumn("email").OfType("VARCHAR", "").Nullable(true),
	)
}

func notesRows() *sqlmock.Rows {
	return sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("INT", int64(0)),
		sqlmock.NewColumn("note").OfType("TEXT", "").Nullable(true),
	)
}

func replaceRule(t *testing.T, column string, value string) definition.ColumnDefinition {
	t.Helper()
	transformer, err := masking.New("replace", masking.Params{"value": value})
	require.NoError(t, err)
	return definition.ColumnDefinition{Name: column, Transformer: transformer}
}

// newSchema returns a MySQL dump schema over the mocked database holding the given tables
func newSchema(t *testing.T, repo *testutils.DataRepository, tables ...definition.TableDefinition) *definition.DumpSchema {
	t.Helper()
	return newSchemaWithDialect(t, repo, dialect.NewMySQL(), tables...)
}

func newSchemaWithDialect(t *testing.T, repo *testutils.DataRepository, d dialect.Dialect, tables ...definition.TableDefinition) *definition.DumpSchema {
	t.Helper()
	schema := definition.NewDumpSchema(database.New(repo.DB, d))
	for _, table := range tables {
		require.NoError(t, schema.Add(table))
	}
	return schema
}

func statements(lines ...string) string {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line + ";\n")
	}
	return sb.String()
}

func mysqlPreamble() string {
	return statements(dialect.NewMySQL().Preamble()...)
}

func mysqlPostamble() string {
	return statements(dialect.NewMySQL().Postamble()...)
}

// linesMentioning returns the output lines containing s
func linesMentioning(output string, s string) []string {
	result := make([]string, 0)
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, s) {
			result = append(result, line)
		}
	}
	return result
}
