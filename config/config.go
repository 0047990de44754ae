// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

const (
	EnvPrefix     = "MASKED_DUMP"
	redactedValue = "******"
	StdoutPath    = "-"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	LogLevel   string   `mapstructure:"logLevel" yaml:"logLevel"`
	Database   Database `mapstructure:"database" yaml:"database"`
	Output     Output   `mapstructure:"output" yaml:"output"`
	AllTables  bool     `mapstructure:"allTables" yaml:"allTables"`
	// SchemaOnly and Exclude hold table name glob patterns
	SchemaOnly []string `mapstructure:"schemaOnly" yaml:"schemaOnly,omitempty"`
	Exclude    []string `mapstructure:"exclude" yaml:"exclude,omitempty"`
	Tables     []Table  `mapstructure:"tables" yaml:"tables,omitempty"`
}

// Database holds either a full driver DSN or its parts
type Database struct {
	Driver   string `mapstructure:"driver" yaml:"driver"`
	DSN      string `mapstructure:"dsn" yaml:"dsn,omitempty"`
	Host     string `mapstructure:"host" yaml:"host,omitempty"`
	Port     int    `mapstructure:"port" yaml:"port,omitempty"`
	User     string `mapstructure:"user" yaml:"user,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	Name     string `mapstructure:"name" yaml:"name,omitempty"`
	SSLMode  string `mapstructure:"sslMode" yaml:"sslMode,omitempty"`
}

type Output struct {
	Path string `mapstructure:"path" yaml:"path"`
	Gzip bool   `mapstructure:"gzip" yaml:"gzip"`
	S3   S3     `mapstructure:"s3" yaml:"s3,omitempty"`
}

type S3 struct {
	Bucket         string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Key            string `mapstructure:"key" yaml:"key,omitempty"`
	Region         string `mapstructure:"region" yaml:"region,omitempty"`
	Endpoint       string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	ForcePathStyle bool   `mapstructure:"forcePathStyle" yaml:"forcePathStyle,omitempty"`
}

// Enabled reports whether the dump goes to object storage instead of a local path
func (s S3) Enabled() bool {
	return s.Bucket != ""
}

// Table is the export policy of one table. Tables are dumped in the order they are listed.
type Table struct {
	Name       string   `mapstructure:"name" yaml:"name"`
	SchemaOnly bool     `mapstructure:"schemaOnly" yaml:"schemaOnly,omitempty"`
	Where      string   `mapstructure:"where" yaml:"where,omitempty"`
	OrderBy    []string `mapstructure:"orderBy" yaml:"orderBy,omitempty"`
	Limit      int      `mapstructure:"limit" yaml:"limit,omitempty"`
	Columns    []Column `mapstructure:"columns" yaml:"columns,omitempty"`
}

// Column binds a masking strategy to a column
type Column struct {
	Name     string                 `mapstructure:"name" yaml:"name"`
	Strategy string                 `mapstructure:"strategy" yaml:"strategy"`
	Params   map[string]interface{} `mapstructure:"params" yaml:"params,omitempty"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("output.path", StdoutPath)
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Database.Driver == "" {
		return fmt.Errorf("%w: database.driver is required", ErrInvalidConfig)
	}
	if c.Database.DSN == "" && c.Database.Name == "" {
		return fmt.Errorf("%w: database.dsn or database.name is required", ErrInvalidConfig)
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return fmt.Errorf("%w: database.port %d out of range", ErrInvalidConfig, c.Database.Port)
	}
	if c.Output.S3.Enabled() {
		if c.Output.S3.Key == "" {
			return fmt.Errorf("%w: output.s3.key is required with output.s3.bucket", ErrInvalidConfig)
		}
	} else if c.Output.Path == "" {
		return fmt.Errorf("%w: output.path is required", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Tables))
	for i, table := range c.Tables {
		if table.Name == "" {
			return fmt.Errorf("%w: tables[%d] has no name", ErrInvalidConfig, i)
		}
		if seen[table.Name] {
			return fmt.Errorf("%w: table %s is listed twice", ErrInvalidConfig, table.Name)
		}
		seen[table.Name] = true
		if table.Limit < 0 {
			return fmt.Errorf("%w: table %s: limit must not be negative", ErrInvalidConfig, table.Name)
		}
		for j, column := range table.Columns {
			if column.Name == "" || column.Strategy == "" {
				return fmt.Errorf("%w: table %s: columns[%d] needs name and strategy", ErrInvalidConfig, table.Name, j)
			}
		}
	}
	return nil
}

// Redacted returns a copy safe to print. The DSN is left to the caller, which knows its driver format.
func (c *Config) Redacted() Config {
	redacted := *c
	if redacted.Database.Password != "" {
		redacted.Database.Password = redactedValue
	}
	return redacted
}
