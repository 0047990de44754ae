// SPDX-FileCopyrightText: 2023 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

package schemareader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Reader inspects a database and returns the structure of its tables
type Reader interface {
	ReadTableNames(ctx context.Context) ([]string, error)
	ReadTable(ctx context.Context, tableName string) (Table, error)
}

type mysqlReader struct {
	db     *sql.DB
	server *mysqlServer
}

// mysqlServer holds what introspection needs to know about the server flavor
type mysqlServer struct {
	mariaDB           bool
	functionalIndexes bool
}

type postgresReader struct {
	db *sql.DB
}

// NewMySQLReader returns a Reader for the database selected by the MySQL connection
func NewMySQLReader(db *sql.DB) Reader {
	return &mysqlReader{db: db}
}

// NewPostgresReader returns a Reader for the current schema of the PostgreSQL connection
func NewPostgresReader(db *sql.DB) Reader {
	return &postgresReader{db: db}
}

func readStrings(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]string, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		result = append(result, value)
	}
	return result, rows.Err()
}

func (r *mysqlReader) ReadTableNames(ctx context.Context) ([]string, error) {
	names, err := readStrings(ctx, r.db, MySQLReadTableNames)
	if err != nil {
		return nil, fmt.Errorf("read table names: %w", err)
	}
	return names, nil
}

// readServer asks the server version once per reader
func (r *mysqlReader) readServer(ctx context.Context) (*mysqlServer, error) {
	if r.server != nil {
		return r.server, nil
	}
	var version string
	if err := r.db.QueryRowContext(ctx, MySQLReadVersion).Scan(&version); err != nil {
		return nil, fmt.Errorf("read server version: %w", err)
	}
	r.server = parseMySQLVersion(version)
	log.Debug().Str("version", version).Bool("mariadb", r.server.mariaDB).Msg("mysql server")
	return r.server, nil
}

func parseMySQLVersion(version string) *mysqlServer {
	server := &mysqlServer{mariaDB: strings.Contains(strings.ToLower(version), "mariadb")}
	var major, minor, patch int
	fmt.Sscanf(version, "%d.%d.%d", &major, &minor, &patch)
	server.functionalIndexes = !server.mariaDB &&
		(major > 8 || (major == 8 && (minor > 0 || patch >= 13)))
	return server
}

// ReadTable introspects a single table through information_schema
// and keeps the server's own CREATE TABLE statement
func (r *mysqlReader) ReadTable(ctx context.Context, tableName string) (Table, error) {
	table := Table{Name: tableName}

	server, err := r.readServer(ctx)
	if err != nil {
		return table, err
	}
	columns, err := r.readColumns(ctx, server, tableName)
	if err != nil {
		return table, fmt.Errorf("read columns of table %s: %w", tableName, err)
	}
	if len(columns) == 0 {
		return table, fmt.Errorf("%w: %s", ErrTableNotFound, tableName)
	}
	table.Columns = columns

	if err := r.readIndexes(ctx, server, &table); err != nil {
		return table, fmt.Errorf("read indexes of table %s: %w", tableName, err)
	}
	references, err := readReferences(ctx, r.db, MySQLReadReferences, tableName)
	if err != nil {
		return table, fmt.Errorf("read references of table %s: %w", tableName, err)
	}
	table.References = references

	row := r.db.QueryRowContext(ctx, MySQLReadTableOptions, tableName)
	if err := row.Scan(&table.Options.Engine, &table.Options.Collation, &table.Options.Comment); err != nil {
		return table, fmt.Errorf("read options of table %s: %w", tableName, err)
	}

	var name string
	row = r.db.QueryRowContext(ctx, MySQLShowCreateTable(tableName))
	if err := row.Scan(&name, &table.CreateStatement); err != nil {
		return table, fmt.Errorf("read create statement of table %s: %w", tableName, err)
	}

	log.Debug().Str("table", tableName).Int("columns", len(table.Columns)).Msg("table introspected")
	return table, nil
}

// MySQLShowCreateTable returns the statement reporting the DDL of a table
func MySQLShowCreateTable(tableName string) string {
	return "SHOW CREATE TABLE `" + strings.ReplaceAll(tableName, "`", "``") + "`"
}

func (r *mysqlReader) readColumns(ctx context.Context, server *mysqlServer, tableName string) ([]Column, error) {
	rows, err := r.db.QueryContext(ctx, MySQLReadColumns, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]Column, 0)
	for rows.Next() {
		var (
			column       Column
			isNullable   string
			defaultValue sql.NullString
			extra        string
			generation   string
		)
		if err := rows.Scan(&column.Name, &column.Type, &isNullable, &defaultValue, &extra, &column.Comment, &generation); err != nil {
			return nil, err
		}
		column.Nullable = strings.EqualFold(isNullable, "YES")
		lowerExtra := strings.ToLower(extra)
		column.AutoIncrement = strings.Contains(lowerExtra, "auto_increment")
		if i := strings.Index(lowerExtra, "on update "); i >= 0 {
			column.OnUpdate = strings.TrimSpace(extra[i+len("on update "):])
		}
		switch {
		case generation != "":
			column.Generation = generation
			column.Stored = strings.Contains(lowerExtra, "stored") || strings.Contains(lowerExtra, "persistent")
		case defaultValue.Valid:
			if value, ok := mysqlDefault(defaultValue.String, lowerExtra, server.mariaDB); ok {
				column.Default = &value
			}
		}
		result = append(result, column)
	}
	return result, rows.Err()
}

var mysqlLiteralEscaper = strings.NewReplacer(`\`, `\\`, `'`, `''`)

// mysqlDefault turns an information_schema COLUMN_DEFAULT into an SQL expression.
// MariaDB already reports SQL, MySQL reports the bare value and flags expressions in EXTRA.
func mysqlDefault(value string, lowerExtra string, mariaDB bool) (string, bool) {
	if mariaDB {
		if strings.EqualFold(value, "NULL") {
			return "", false
		}
		return value, true
	}
	upper := strings.ToUpper(value)
	switch {
	case strings.HasPrefix(upper, "CURRENT_TIMESTAMP"), strings.HasPrefix(upper, "NOW("):
		return value, true
	case strings.Contains(lowerExtra, "default_generated"):
		return "(" + value + ")", true
	case strings.HasPrefix(value, "b'") && strings.HasSuffix(value, "'"):
		return value, true
	}
	return "'" + mysqlLiteralEscaper.Replace(value) + "'", true
}

func (r *mysqlReader) readIndexes(ctx context.Context, server *mysqlServer, table *Table) error {
	query := MySQLReadIndexesWithoutExpressions
	if server.functionalIndexes {
		query = MySQLReadIndexes
	}
	rows, err := r.db.QueryContext(ctx, query, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			indexName, indexType   string
			nonUnique              int
			columnName, expression sql.NullString
			subPart                sql.NullInt64
		)
		if err := rows.Scan(&indexName, &nonUnique, &columnName, &subPart, &indexType, &expression); err != nil {
			return err
		}
		if indexName == mysqlPrimaryIndexName {
			table.PKColumns = append(table.PKColumns, columnName.String)
			continue
		}
		// functional parts have no column name
		part := IndexPart{Column: columnName.String, Length: int(subPart.Int64), Expression: expression.String}
		kind := strings.ToUpper(indexType)
		if kind != "FULLTEXT" && kind != "SPATIAL" {
			kind = ""
		}
		table.Indexes = appendIndexPart(table.Indexes, Index{Name: indexName, Unique: nonUnique == 0, Type: kind}, part)
	}
	return rows.Err()
}

func (r *postgresReader) ReadTableNames(ctx context.Context) ([]string, error) {
	names, err := readStrings(ctx, r.db, PostgresReadTableNames)
	if err != nil {
		return nil, fmt.Errorf("read table names: %w", err)
	}
	return names, nil
}

// ReadTable introspects a single table through the pg catalog
func (r *postgresReader) ReadTable(ctx context.Context, tableName string) (Table, error) {
	table := Table{Name: tableName}

	relation := pq.QuoteIdentifier(tableName)

	columns, err := r.readColumns(ctx, relation)
	if err != nil {
		return table, fmt.Errorf("read columns of table %s: %w", tableName, err)
	}
	if len(columns) == 0 {
		return table, fmt.Errorf("%w: %s", ErrTableNotFound, tableName)
	}
	table.Columns = columns

	pkColumns, err := readStrings(ctx, r.db, PostgresReadPkColumnNames, relation)
	if err != nil {
		return table, fmt.Errorf("read primary key of table %s: %w", tableName, err)
	}
	if len(pkColumns) > 0 {
		table.PKColumns = pkColumns
	}

	if err := r.readIndexes(ctx, relation, &table); err != nil {
		return table, fmt.Errorf("read indexes of table %s: %w", tableName, err)
	}
	references, err := readReferences(ctx, r.db, PostgresReadReferences, tableName)
	if err != nil {
		return table, fmt.Errorf("read references of table %s: %w", tableName, err)
	}
	table.References = references

	log.Debug().Str("table", tableName).Int("columns", len(table.Columns)).Msg("table introspected")
	return table, nil
}

func (r *postgresReader) readColumns(ctx context.Context, relation string) ([]Column, error) {
	rows, err := r.db.QueryContext(ctx, PostgresReadColumns, relation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]Column, 0)
	for rows.Next() {
		var (
			column       Column
			defaultValue sql.NullString
			generated    bool
		)
		if err := rows.Scan(&column.Name, &column.Type, &column.Nullable, &defaultValue, &column.Comment, &generated); err != nil {
			return nil, err
		}
		switch {
		case generated:
			column.Generation = defaultValue.String
			column.Stored = true
		case defaultValue.Valid:
			// serial columns own their sequence, which is not part of the dump
			if strings.HasPrefix(defaultValue.String, "nextval(") {
				column.AutoIncrement = true
			} else {
				column.Default = &defaultValue.String
			}
		}
		result = append(result, column)
	}
	return result, rows.Err()
}

func (r *postgresReader) readIndexes(ctx context.Context, relation string, table *Table) error {
	rows, err := r.db.QueryContext(ctx, PostgresReadIndexes, relation)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			indexName, columnName string
			unique                bool
		)
		if err := rows.Scan(&indexName, &unique, &columnName); err != nil {
			return err
		}
		table.Indexes = appendIndexPart(table.Indexes, Index{Name: indexName, Unique: unique}, IndexPart{Column: columnName})
	}
	return rows.Err()
}

// appendIndexPart relies on rows being ordered by index name
func appendIndexPart(indexes []Index, index Index, part IndexPart) []Index {
	if len(indexes) > 0 && indexes[len(indexes)-1].Name == index.Name {
		last := &indexes[len(indexes)-1]
		last.Parts = append(last.Parts, part)
		return indexes
	}
	index.Parts = []IndexPart{part}
	return append(indexes, index)
}

func readReferences(ctx context.Context, db *sql.DB, query string, tableName string) ([]Reference, error) {
	rows, err := db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]Reference, 0)
	for rows.Next() {
		var constraintName, column, foreignTable, foreignColumn, onDelete, onUpdate string
		if err := rows.Scan(&constraintName, &column, &foreignTable, &foreignColumn, &onDelete, &onUpdate); err != nil {
			return nil, err
		}
		if len(result) > 0 && result[len(result)-1].Name == constraintName {
			last := &result[len(result)-1]
			last.Columns = append(last.Columns, column)
			last.ForeignColumns = append(last.ForeignColumns, foreignColumn)
			continue
		}
		result = append(result, Reference{
			Name:           constraintName,
			TableName:      foreignTable,
			Columns:        []string{column},
			ForeignColumns: []string{foreignColumn},
			OnDelete:       onDelete,
			OnUpdate:       onUpdate,
		})
	}
	return result, rows.Err()
}
