package db

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Dialect selects the driver, DSN format, default port and SQL flavour used
// for every connection the gateway opens.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MSSQL    Dialect = "mssql"
	HANA     Dialect = "hana"
)

func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "postgres", "postgresql", "pg":
		return Postgres, nil
	case "mssql", "sqlserver":
		return MSSQL, nil
	case "hana", "hdb":
		return HANA, nil
	default:
		return "", fmt.Errorf("unsupported db dialect: %s", s)
	}
}

func (d Dialect) DriverName() string {
	switch d {
	case MSSQL:
		return "sqlserver"
	case HANA:
		return "hdb"
	default:
		return "pgx"
	}
}

func (d Dialect) DefaultPort() int {
	switch d {
	case MSSQL:
		return 1433
	case HANA:
		return 30015
	default:
		return 5432
	}
}

// DisplayName is the human readable product name used in user-facing messages.
func (d Dialect) DisplayName() string {
	switch d {
	case MSSQL:
		return "SQL Server"
	case HANA:
		return "SAP HANA"
	default:
		return "PostgreSQL"
	}
}

// Target is the caller-supplied address and login of one database.
type Target struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

func (t Target) address(d Dialect) string {
	port := t.Port
	if port <= 0 {
		port = d.DefaultPort()
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(port))
}

// DSN builds the driver connection string. Values are URL-encoded, never
// spliced into a key=value string, so a password containing ';' or '@'
// cannot inject extra options.
func (d Dialect) DSN(t Target, connectTimeout time.Duration) (string, error) {
	if t.Host == "" || t.Database == "" || t.User == "" {
		return "", fmt.Errorf("host, user and database are required")
	}

	secs := int(connectTimeout.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}

	q := url.Values{}
	u := &url.URL{
		User: url.UserPassword(t.User, t.Password),
		Host: t.address(d),
	}

	switch d {
	case Postgres:
		u.Scheme = "postgres"
		u.Path = "/" + t.Database
		q.Set("sslmode", "disable")
		q.Set("connect_timeout", strconv.Itoa(secs))
	case MSSQL:
		u.Scheme = "sqlserver"
		q.Set("database", t.Database)
		q.Set("encrypt", "disable")
		q.Set("connection timeout", strconv.Itoa(secs))
		q.Set("dial timeout", strconv.Itoa(secs))
	case HANA:
		u.Scheme = "hdb"
		q.Set("databaseName", t.Database)
		q.Set("timeout", strconv.Itoa(secs))
	default:
		return "", fmt.Errorf("unsupported db dialect: %s", d)
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Placeholder returns the positional bind marker for the n-th (1-based) parameter.
func (d Dialect) Placeholder(n int) string {
	switch d {
	case MSSQL:
		return "@p" + strconv.Itoa(n)
	case HANA:
		return "?"
	default:
		return "$" + strconv.Itoa(n)
	}
}
