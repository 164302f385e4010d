package db

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	cases := map[string]Dialect{
		"":           Postgres,
		"postgres":   Postgres,
		"PostgreSQL": Postgres,
		"mssql":      MSSQL,
		"sqlserver":  MSSQL,
		"hana":       HANA,
	}
	for in, want := range cases {
		got, err := ParseDialect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDialect("oracle")
	assert.Error(t, err)
}

func TestDSN_Postgres(t *testing.T) {
	dsn, err := Postgres.DSN(Target{
		Host:     "localhost",
		User:     "app",
		Password: "p@ss;word",
		Database: "inventory",
	}, 5*time.Second)
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "localhost:5432", u.Host)
	assert.Equal(t, "/inventory", u.Path)
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss;word", pass)
	assert.Equal(t, "5", u.Query().Get("connect_timeout"))
}

func TestDSN_MSSQLWithExplicitPort(t *testing.T) {
	dsn, err := MSSQL.DSN(Target{Host: "10.0.0.5", Port: 14330, User: "sa", Password: "x", Database: "stock"}, 1500*time.Millisecond)
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "sqlserver", u.Scheme)
	assert.Equal(t, "10.0.0.5:14330", u.Host)
	assert.Equal(t, "stock", u.Query().Get("database"))
	assert.Equal(t, "2", u.Query().Get("connection timeout"))
}

func TestDSN_HANAAndIPv6(t *testing.T) {
	dsn, err := HANA.DSN(Target{Host: "::1", User: "SYSTEM", Password: "x", Database: "HXE"}, 0)
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "[::1]:30015", u.Host)
	assert.Equal(t, "HXE", u.Query().Get("databaseName"))
	assert.Equal(t, "1", u.Query().Get("timeout"))
}

func TestDSN_RequiresFields(t *testing.T) {
	_, err := Postgres.DSN(Target{Host: "h", User: "u"}, time.Second)
	assert.Error(t, err)
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$1", Postgres.Placeholder(1))
	assert.Equal(t, "@p2", MSSQL.Placeholder(2))
	assert.Equal(t, "?", HANA.Placeholder(1))
}

func TestSQLOpener_OpenDoesNotDial(t *testing.T) {
	o := NewSQLOpener(Postgres, time.Second)
	conn, err := o.Open(Target{Host: "203.0.113.1", User: "u", Password: "p", Database: "d"})
	require.NoError(t, err)
	assert.NoError(t, conn.Close())
}
