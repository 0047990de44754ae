package definition

import (
	"context"
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"github.com/rs/zerolog/log"

	"github.com/uyuni-project/masked-dump/config"
	"github.com/uyuni-project/masked-dump/database"
	"github.com/uyuni-project/masked-dump/dialect"
	"github.com/uyuni-project/masked-dump/masking"
	"github.com/uyuni-project/masked-dump/schemareader"
)

// Build resolves the configuration against the database structure.
// Configured tables come first, in configuration order; with allTables every other
// table follows in the order the database lists them. Exclude patterns win over both.
func Build(ctx context.Context, cfg *config.Config, connection *database.Connection) (*DumpSchema, error) {
	schema := NewDumpSchema(connection)

	for _, tableConfig := range cfg.Tables {
		excluded, err := schemareader.MatchTableName(tableConfig.Name, cfg.Exclude)
		if err != nil {
			return nil, err
		}
		if excluded {
			log.Debug().Str("table", tableConfig.Name).Msg("configured table is excluded")
			continue
		}
		table, err := connection.Reader.ReadTable(ctx, tableConfig.Name)
		if err != nil {
			return nil, err
		}
		schemaOnly, err := schemareader.MatchTableName(tableConfig.Name, cfg.SchemaOnly)
		if err != nil {
			return nil, err
		}
		definition, err := NewTableDefinition(table, tableConfig, connection.Dialect)
		if err != nil {
			return nil, err
		}
		definition.DumpData = definition.DumpData && !schemaOnly
		if err := schema.Add(definition); err != nil {
			return nil, err
		}
	}

	if !cfg.AllTables {
		return schema, nil
	}
	names, err := connection.Reader.ReadTableNames(ctx)
	if err != nil {
		return nil, err
	}
	names, err = schemareader.FilterTableNames(names, cfg.Exclude)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if schema.Contains(name) {
			continue
		}
		table, err := connection.Reader.ReadTable(ctx, name)
		if err != nil {
			return nil, err
		}
		schemaOnly, err := schemareader.MatchTableName(name, cfg.SchemaOnly)
		if err != nil {
			return nil, err
		}
		if err := schema.Add(TableDefinition{Name: name, Table: table, DumpData: !schemaOnly}); err != nil {
			return nil, err
		}
	}
	return schema, nil
}

// NewTableDefinition binds a table configuration to the table structure, building its
// masking rules and query modifier
func NewTableDefinition(table schemareader.Table, tableConfig config.Table, d dialect.Dialect) (TableDefinition, error) {
	definition := TableDefinition{
		Name:     table.Name,
		Table:    table,
		DumpData: !tableConfig.SchemaOnly,
		Columns:  make([]ColumnDefinition, 0, len(tableConfig.Columns)),
	}

	for _, columnConfig := range tableConfig.Columns {
		if !table.HasColumn(columnConfig.Name) {
			return definition, fmt.Errorf("table %s: %w %s", table.Name, ErrUnknownColumn, columnConfig.Name)
		}
		if _, found := definition.FindColumn(columnConfig.Name); found {
			return definition, fmt.Errorf("table %s: column %s has more than one masking rule", table.Name, columnConfig.Name)
		}
		transformer, err := masking.New(columnConfig.Strategy, columnConfig.Params)
		if err != nil {
			return definition, fmt.Errorf("table %s column %s: %w", table.Name, columnConfig.Name, err)
		}
		definition.Columns = append(definition.Columns, ColumnDefinition{Name: columnConfig.Name, Transformer: transformer})
	}

	modifyQuery, err := queryModifier(table, tableConfig, d)
	if err != nil {
		return definition, err
	}
	definition.ModifyQuery = modifyQuery
	return definition, nil
}

// queryModifier turns where, orderBy and limit into a hook on the data query.
// orderBy entries are a column name optionally followed by ASC or DESC.
func queryModifier(table schemareader.Table, tableConfig config.Table, d dialect.Dialect) (func(sb *sqlbuilder.SelectBuilder), error) {
	if tableConfig.Where == "" && len(tableConfig.OrderBy) == 0 && tableConfig.Limit == 0 {
		return nil, nil
	}

	orderBy := make([]string, 0, len(tableConfig.OrderBy))
	for _, entry := range tableConfig.OrderBy {
		fields := strings.Fields(entry)
		if len(fields) == 0 || len(fields) > 2 {
			return nil, fmt.Errorf("table %s: invalid orderBy entry %q", table.Name, entry)
		}
		if !table.HasColumn(fields[0]) {
			return nil, fmt.Errorf("table %s: orderBy: %w %s", table.Name, ErrUnknownColumn, fields[0])
		}
		term := d.QuoteIdentifier(fields[0])
		if len(fields) == 2 {
			direction := strings.ToUpper(fields[1])
			if direction != "ASC" && direction != "DESC" {
				return nil, fmt.Errorf("table %s: invalid orderBy direction %q", table.Name, fields[1])
			}
			term += " " + direction
		}
		orderBy = append(orderBy, term)
	}

	// where is raw SQL, so $ must not be read as a builder placeholder
	where, limit := sqlbuilder.Escape(tableConfig.Where), tableConfig.Limit
	return func(sb *sqlbuilder.SelectBuilder) {
		if where != "" {
			sb.Where(where)
		}
		if len(orderBy) > 0 {
			sb.OrderBy(orderBy...)
		}
		if limit > 0 {
			sb.Limit(limit)
		}
	}, nil
}
