package schemareader

import (
	"fmt"
	"io"
)

// ColumnHighlighter tells the graph which columns to mark, e.g. masked ones
type ColumnHighlighter func(tableName, columnName string) bool

// DumpToGraphviz outputs a dot representation of a schema. Use:
// masked-dump dot | dot -Tx11
func DumpToGraphviz(w io.Writer, tables []Table, highlight ColumnHighlighter) error {
	p := &dotPrinter{w: w}
	p.printf("graph schema {\n")
	p.printf("  layout=fdp;\n")
	p.printf("  K=0.15;\n")
	p.printf("  maxiter=1000;\n")
	p.printf("  start=0;\n\n")

	for _, table := range tables {
		p.printf("\"%s\" [shape=box];\n", table.Name)

		for _, column := range table.Columns {
			color := "transparent"
			if table.IsPKColumn(column.Name) {
				color = "gainsboro"
			}
			if highlight != nil && highlight(table.Name, column.Name) {
				color = "salmon"
			}
			p.printf("\"%s-%s\" [label=\"\" xlabel=\"%s\" style=filled fillcolor=\"%s\"];\n", table.Name, column.Name, column.Name, color)
			p.printf("\"%s\" -- \"%s-%s\";\n", table.Name, table.Name, column.Name)
		}

		for _, index := range table.Indexes {
			label := "index"
			if index.Unique {
				label = "unique"
			}
			p.printf("\"%s-%s\" [label=\"%s\" shape=tab];\n", table.Name, index.Name, label)

			for _, indexColumn := range index.Columns() {
				p.printf("\"%s-%s\" -- \"%s-%s\" [style=dashed];\n", table.Name, indexColumn, table.Name, index.Name)
			}
		}

		for i, reference := range table.References {
			p.printf("\"%s-%s-%d\" [label=\"\" shape=diamond];\n", table.Name, reference.TableName, i)

			for c, column := range reference.Columns {
				p.printf("\"%s-%s-%d\" -- \"%s-%s\";\n", table.Name, reference.TableName, i, table.Name, column)
				p.printf("\"%s-%s-%d\" -- \"%s-%s\";\n", table.Name, reference.TableName, i, reference.TableName, reference.ForeignColumns[c])
			}
		}
	}

	p.printf("}\n")
	return p.err
}

// dotPrinter keeps the first write error so the graph code stays linear
type dotPrinter struct {
	w   io.Writer
	err error
}

func (p *dotPrinter) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
