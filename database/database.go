// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package database opens the source connection together with its dialect and schema reader.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/uyuni-project/masked-dump/config"
	"github.com/uyuni-project/masked-dump/dialect"
	"github.com/uyuni-project/masked-dump/schemareader"
)

const redactedPassword = "xxxxx"

// Connection is the source database: rows are read through DB, structure through Reader
// and every literal is rendered by Dialect.
type Connection struct {
	DB      *sql.DB
	Dialect dialect.Dialect
	Reader  schemareader.Reader
}

// New wraps an already opened database
func New(db *sql.DB, d dialect.Dialect) *Connection {
	var reader schemareader.Reader
	if d.Name() == dialect.PostgresName {
		reader = schemareader.NewPostgresReader(db)
	} else {
		reader = schemareader.NewMySQLReader(db)
	}
	return &Connection{DB: db, Dialect: d, Reader: reader}
}

// Open connects to the configured database and checks it answers
func Open(ctx context.Context, cfg config.Database) (*Connection, error) {
	d, err := dialect.New(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn := DSN(d.Name(), cfg)
	db, err := sql.Open(d.Name(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.Name(), err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to %s: %w", RedactDSN(d.Name(), dsn), err)
	}
	// a dump runs on one connection at a time
	db.SetMaxOpenConns(1)

	log.Debug().Str("driver", d.Name()).Str("dsn", RedactDSN(d.Name(), dsn)).Msg("connected")
	return New(db, d), nil
}

func (c *Connection) Close() error {
	return c.DB.Close()
}

// DSN returns cfg.DSN when set, otherwise builds one in the driver's format
func DSN(dialectName string, cfg config.Database) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	if dialectName == dialect.PostgresName {
		return postgresDSN(cfg)
	}
	return mysqlDSN(cfg)
}

func mysqlDSN(cfg config.Database) string {
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	c.DBName = cfg.Name
	return c.FormatDSN()
}

var pqValueEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func postgresDSN(cfg config.Database) string {
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts := []string{
		fmt.Sprintf("user='%s'", pqValueEscaper.Replace(cfg.User)),
		fmt.Sprintf("password='%s'", pqValueEscaper.Replace(cfg.Password)),
		fmt.Sprintf("dbname='%s'", pqValueEscaper.Replace(cfg.Name)),
		fmt.Sprintf("host='%s'", pqValueEscaper.Replace(cfg.Host)),
		fmt.Sprintf("port='%d'", port),
		"sslmode=" + sslMode,
	}
	return strings.Join(parts, " ")
}

var pqPasswordPattern = regexp.MustCompile(`password=('(\\.|[^'])*'|\S*)`)

// RedactDSN hides the password of a DSN so that it can be logged
func RedactDSN(dialectName string, dsn string) string {
	if dialectName != dialect.PostgresName {
		c, err := mysql.ParseDSN(dsn)
		if err != nil {
			return redactedPassword
		}
		if c.Passwd != "" {
			c.Passwd = redactedPassword
		}
		return c.FormatDSN()
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return redactedPassword
		}
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redactedPassword)
		}
		return u.String()
	}
	return pqPasswordPattern.ReplaceAllString(dsn, "password="+redactedPassword)
}
