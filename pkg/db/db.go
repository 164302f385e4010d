package db

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/SAP/go-hdb/driver"
	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Rows is the subset of *sql.Rows the broker reads results through.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Conn is one transient database handle. Nothing is sent over the wire until
// PingContext or QueryContext is called.
type Conn interface {
	PingContext(ctx context.Context) error
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
	Close() error
}

// Opener creates a fresh Conn for a target. It never hands out a shared handle.
type Opener interface {
	Dialect() Dialect
	Open(t Target) (Conn, error)
}

type Db struct {
	*sql.DB
}

func (db *Db) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SQLOpener opens database/sql handles restricted to a single physical
// connection, so each Open maps to exactly one connection to the server.
type SQLOpener struct {
	dialect        Dialect
	connectTimeout time.Duration
}

func NewSQLOpener(dialect Dialect, connectTimeout time.Duration) *SQLOpener {
	return &SQLOpener{dialect: dialect, connectTimeout: connectTimeout}
}

func (o *SQLOpener) Dialect() Dialect {
	return o.dialect
}

func (o *SQLOpener) Open(t Target) (Conn, error) {
	dsn, err := o.dialect.DSN(t, o.connectTimeout)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(o.dialect.DriverName(), dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return &Db{db}, nil
}
