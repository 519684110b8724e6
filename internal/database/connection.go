// Package database owns the SQL connection, driver differences and the
// schema. Repositories receive the handle by construction; nothing
// reaches for an ambient global.
package database

import (
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Options describes how to reach the relational store.
type Options struct {
	Driver       string // postgres, mysql, sqlite3
	Host         string
	Port         int
	Name         string
	User         string
	Password     string
	Path         string // sqlite3 file path
	MaxOpenConns int
	MaxIdleConns int
}

// Open connects and verifies the connection with a ping.
func Open(opts Options) (*sqlx.DB, error) {
	dsn, err := opts.dsn()
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Connect(opts.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", opts.Driver, err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

func (o Options) dsn() (string, error) {
	switch o.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			o.Host, o.Port, o.User, o.Password, o.Name), nil
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
			o.User, o.Password, o.Host, o.Port, o.Name), nil
	case "sqlite3":
		path := o.Path
		if path == "" {
			path = "stopwatch.db"
		}
		return path + "?_foreign_keys=on", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", o.Driver)
	}
}
