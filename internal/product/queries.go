package product

import (
	"fmt"
	"strings"
	"unicode"

	"stock-lookup/pkg/db"
)

// Queries holds the only statements the gateway ever sends. Caller input
// reaches them exclusively as bind values.
type Queries struct {
	dialect db.Dialect
	table   string
}

func NewQueries(dialect db.Dialect, table string) (*Queries, error) {
	if err := ValidateIdentifier(table); err != nil {
		return nil, err
	}
	return &Queries{dialect: dialect, table: table}, nil
}

// Clock returns a zero-parameter query yielding the server's current time
// in a column named now.
func (q *Queries) Clock() string {
	switch q.dialect {
	case db.MSSQL:
		return "SELECT SYSDATETIMEOFFSET() AS now"
	case db.HANA:
		return "SELECT CURRENT_TIMESTAMP AS now FROM DUMMY"
	default:
		return "SELECT NOW() AS now"
	}
}

// Search returns the keyword search statement and its single bind value.
// The value is compared against both name and sku.
func (q *Queries) Search(keyword string) (string, []any) {
	p := q.dialect.Placeholder(1)
	pattern := ContainsPattern(q.dialect, keyword)

	var query string
	switch q.dialect {
	case db.MSSQL:
		query = fmt.Sprintf(`
SELECT name, sku, description, quantity
FROM %s
WHERE LOWER(name) LIKE %s ESCAPE '\' OR LOWER(sku) LIKE %s ESCAPE '\'
ORDER BY quantity DESC, name ASC`, q.table, p, p)
	case db.HANA:
		query = fmt.Sprintf(`
SELECT p.name, p.sku, p.description, p.quantity
FROM %s p, (SELECT %s AS pattern FROM DUMMY) k
WHERE LOWER(p.name) LIKE k.pattern ESCAPE '\' OR LOWER(p.sku) LIKE k.pattern ESCAPE '\'
ORDER BY p.quantity DESC, p.name ASC`, q.table, p)
	default:
		query = fmt.Sprintf(`
SELECT name, sku, description, quantity
FROM %s
WHERE name ILIKE %s ESCAPE '\' OR sku ILIKE %s ESCAPE '\'
ORDER BY quantity DESC, name ASC`, q.table, p, p)
	}

	return query, []any{pattern}
}

// ContainsPattern wraps keyword in wildcards for a substring match, escaping
// LIKE metacharacters so the keyword is matched literally. Dialects without
// ILIKE get a lower-cased pattern to compare against LOWER(column).
func ContainsPattern(dialect db.Dialect, keyword string) string {
	var b strings.Builder
	b.Grow(len(keyword) + 2)
	b.WriteByte('%')
	for _, r := range keyword {
		switch r {
		case '\\', '%', '_':
			b.WriteByte('\\')
		case '[':
			if dialect == db.MSSQL {
				b.WriteByte('\\')
			}
		}
		b.WriteRune(r)
	}
	b.WriteByte('%')

	if dialect == db.Postgres {
		return b.String()
	}
	return strings.ToLower(b.String())
}

// ValidateIdentifier accepts a plain or schema-qualified table name.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("table name is empty")
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return fmt.Errorf("table name %q has an empty segment", name)
		}
		for i, r := range part {
			if i == 0 {
				if !(unicode.IsLetter(r) || r == '_') {
					return fmt.Errorf("table name %q must start with letter/_", name)
				}
			} else if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
				return fmt.Errorf("table name %q has invalid char", name)
			}
		}
	}
	return nil
}
