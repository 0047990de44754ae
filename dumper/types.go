package dumper

import (
	"fmt"

	"github.com/uyuni-project/masked-dump/progress"
)

// Stats summarizes a finished dump
type Stats struct {
	Tables     int
	DataTables int
	Rows       int64
}

type Option func(d *Dumper)

// WithProgress sets the sink notified once per finished table
func WithProgress(reporter progress.Reporter) Option {
	return func(d *Dumper) {
		d.progress = reporter
	}
}

// ConfigError is a masking rule or query modifier that does not fit the table it is bound to
type ConfigError struct {
	Table  string
	Column string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("table %s: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("table %s column %s: %v", e.Table, e.Column, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// SchemaError is a table structure that could not be read or rendered
type SchemaError struct {
	Table string
	Err   error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema of table %s: %v", e.Table, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// MaskingError is a failure raised by a column's transformer
type MaskingError struct {
	Table  string
	Column string
	Err    error
}

func (e *MaskingError) Error() string {
	return fmt.Sprintf("masking table %s column %s: %v", e.Table, e.Column, e.Err)
}

func (e *MaskingError) Unwrap() error {
	return e.Err
}
