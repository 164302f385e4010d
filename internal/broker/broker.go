// Package broker owns the lifecycle of the single, transient database
// connection behind every gateway request: open with the caller's
// credentials, run exactly one parameterized query, close on every path.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stock-lookup/pkg/db"
	"stock-lookup/pkg/limiter"

	"github.com/rs/zerolog"
)

// Credentials identify the target database for one request. Port 0 means
// the dialect's standard port.
type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

func (c Credentials) target() db.Target {
	return db.Target{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Database: c.Database,
	}
}

// Row is one result row keyed by column name as reported by the driver.
type Row map[string]any

// ConnectionError means no usable connection could be established:
// unreachable host, rejected login, unknown database or connect timeout.
type ConnectionError struct {
	Err error
	msg string
}

func (e *ConnectionError) Error() string { return e.msg }
func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError means the connection was fine but the statement failed.
type QueryError struct {
	Err error
	msg string
}

func (e *QueryError) Error() string { return e.msg }
func (e *QueryError) Unwrap() error { return e.Err }

type Broker struct {
	opener         db.Opener
	limiter        limiter.Limiter
	connectTimeout time.Duration
	queryTimeout   time.Duration
}

type Option func(*Broker)

func WithLimiter(l limiter.Limiter) Option {
	return func(b *Broker) { b.limiter = l }
}

func WithConnectTimeout(d time.Duration) Option {
	return func(b *Broker) { b.connectTimeout = d }
}

func WithQueryTimeout(d time.Duration) Option {
	return func(b *Broker) { b.queryTimeout = d }
}

func New(opener db.Opener, opts ...Option) *Broker {
	b := &Broker{
		opener:         opener,
		limiter:        limiter.Unlimited{},
		connectTimeout: 5 * time.Second,
		queryTimeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Broker) Dialect() db.Dialect {
	return b.opener.Dialect()
}

// Execute opens one connection with creds, runs query with params bound
// positionally and returns every row. The connection is closed before
// Execute returns, whether it succeeds, fails or panics. No retries.
func (b *Broker) Execute(ctx context.Context, creds Credentials, query string, params ...any) ([]Row, error) {
	if want := countPlaceholders(b.Dialect(), query); want != len(params) {
		return nil, &QueryError{
			Err: errParamCount,
			msg: fmt.Sprintf("query expects %d parameters, got %d", want, len(params)),
		}
	}

	logger := zerolog.Ctx(ctx).With().
		Str("dialect", string(b.Dialect())).
		Str("host", creds.Host).
		Str("database", creds.Database).
		Logger()

	slotCtx, cancelSlot := context.WithTimeout(ctx, b.connectTimeout)
	release, err := b.limiter.Acquire(slotCtx)
	cancelSlot()
	if err != nil {
		return nil, err
	}
	defer release()

	conn, err := b.opener.Open(creds.target())
	if err != nil {
		return nil, newConnectionError(err, creds)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			logger.Debug().Err(cerr).Msg("closing database connection")
		}
	}()

	start := time.Now()
	pingCtx, cancelPing := context.WithTimeout(ctx, b.connectTimeout)
	err = conn.PingContext(pingCtx)
	cancelPing()
	if err != nil {
		return nil, newConnectionError(err, creds)
	}

	queryCtx, cancelQuery := context.WithTimeout(ctx, b.queryTimeout)
	defer cancelQuery()

	rs, err := conn.QueryContext(queryCtx, query, params...)
	if err != nil {
		return nil, newQueryError(err, creds)
	}
	defer rs.Close()

	rows, err := scanRows(rs)
	if err != nil {
		return nil, newQueryError(err, creds)
	}

	logger.Debug().
		Int("rows", len(rows)).
		Dur("duration", time.Since(start)).
		Msg("query executed")

	return rows, nil
}

var errParamCount = errors.New("parameter count mismatch")

func newConnectionError(err error, creds Credentials) *ConnectionError {
	return &ConnectionError{Err: err, msg: redact(err.Error(), creds.Password)}
}

func newQueryError(err error, creds Credentials) *QueryError {
	return &QueryError{Err: err, msg: redact(err.Error(), creds.Password)}
}
