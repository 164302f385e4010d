// Package brokertest provides a fault-injecting db.Opener that records every
// open, query and close, for testing code built on the broker.
package brokertest

import (
	"context"
	"sync"
	"sync/atomic"

	"stock-lookup/pkg/db"
)

// Table is a canned result set.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Behavior scripts how a single stub connection responds.
type Behavior struct {
	OpenErr     error
	PingErr     error
	QueryErr    error
	ScanErr     error
	RowsErr     error
	PanicOnNext bool
	// Result produces the rows for a successful query. Nil yields an empty table.
	Result func(query string, args []any) (Table, error)
}

type Opener struct {
	dialect db.Dialect
	behave  func(t db.Target) Behavior

	opens  atomic.Int32
	closes atomic.Int32

	mu    sync.Mutex
	conns []*Conn
}

func NewOpener(dialect db.Dialect, behave func(t db.Target) Behavior) *Opener {
	return &Opener{dialect: dialect, behave: behave}
}

func (o *Opener) Dialect() db.Dialect { return o.dialect }

func (o *Opener) Open(t db.Target) (db.Conn, error) {
	b := o.behave(t)
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	o.opens.Add(1)

	c := &Conn{opener: o, Target: t, behavior: b}
	o.mu.Lock()
	o.conns = append(o.conns, c)
	o.mu.Unlock()
	return c, nil
}

// Opens and Closes count successful Open calls and Close calls across all conns.
func (o *Opener) Opens() int  { return int(o.opens.Load()) }
func (o *Opener) Closes() int { return int(o.closes.Load()) }

func (o *Opener) Conns() []*Conn {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Conn(nil), o.conns...)
}

type Conn struct {
	Target   db.Target
	opener   *Opener
	behavior Behavior

	closes atomic.Int32

	mu        sync.Mutex
	lastQuery string
	lastArgs  []any
}

func (c *Conn) PingContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.behavior.PingErr
}

func (c *Conn) QueryContext(_ context.Context, query string, args ...any) (db.Rows, error) {
	c.mu.Lock()
	c.lastQuery = query
	c.lastArgs = append([]any(nil), args...)
	c.mu.Unlock()

	if c.behavior.QueryErr != nil {
		return nil, c.behavior.QueryErr
	}

	var table Table
	if c.behavior.Result != nil {
		var err error
		table, err = c.behavior.Result(query, args)
		if err != nil {
			return nil, err
		}
	}
	return &Rows{
		table:       table,
		pos:         -1,
		scanErr:     c.behavior.ScanErr,
		rowsErr:     c.behavior.RowsErr,
		panicOnNext: c.behavior.PanicOnNext,
	}, nil
}

func (c *Conn) Close() error {
	c.closes.Add(1)
	c.opener.closes.Add(1)
	return nil
}

func (c *Conn) Closes() int { return int(c.closes.Load()) }

func (c *Conn) LastQuery() (string, []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastQuery, c.lastArgs
}

type Rows struct {
	table       Table
	pos         int
	scanErr     error
	rowsErr     error
	panicOnNext bool
	closed      bool
}

func (r *Rows) Columns() ([]string, error) { return r.table.Columns, nil }

func (r *Rows) Next() bool {
	if r.panicOnNext {
		panic("brokertest: injected panic")
	}
	r.pos++
	return r.pos < len(r.table.Rows)
}

func (r *Rows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.table.Rows[r.pos]
	for i := range dest {
		*(dest[i].(*any)) = row[i]
	}
	return nil
}

// Err reports RowsErr once iteration has finished, as a driver would for a
// connection dropped mid result set.
func (r *Rows) Err() error {
	if r.pos >= len(r.table.Rows) {
		return r.rowsErr
	}
	return nil
}

func (r *Rows) Close() error { r.closed = true; return nil }
