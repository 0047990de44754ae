package dumper

import (
	"github.com/uyuni-project/masked-dump/definition"
	"github.com/uyuni-project/masked-dump/sqlUtil"
)

// TransformValue replaces, in place, the value of every column that has a masking rule.
// Each rule runs exactly once per cell on the value as read; other columns are untouched.
func TransformValue(row []sqlUtil.RowDataStructure, table definition.TableDefinition) error {
	for i := range row {
		column, found := table.FindColumn(row[i].ColumnName)
		if !found {
			continue
		}
		value, err := column.ModifyValue(row[i].GetInitialValue())
		if err != nil {
			return &MaskingError{Table: table.Name, Column: column.Name, Err: err}
		}
		row[i].Value = value
	}
	return nil
}

// checkColumns verifies that every masking rule names one of columns
func checkColumns(table definition.TableDefinition, columns []string) error {
	for _, column := range table.Columns {
		found := false
		for _, name := range columns {
			if name == column.Name {
				found = true
				break
			}
		}
		if !found {
			return &ConfigError{Table: table.Name, Column: column.Name, Err: definition.ErrUnknownColumn}
		}
	}
	return nil
}
