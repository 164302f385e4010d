package broker

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"stock-lookup/pkg/db"
)

func scanRows(rows db.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0, 64)
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = normalize(raw[i])
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// normalize turns driver byte slices (text, numeric and decimal columns on
// some drivers) into strings. Binary data is left as-is.
func normalize(v any) any {
	if b, ok := v.([]byte); ok && utf8.Valid(b) {
		return string(b)
	}
	return v
}

const redacted = "********"

// redact hides secret in driver error text. Very short secrets are only
// replaced where they appear as a DSN value, so ordinary words survive.
func redact(msg, secret string) string {
	switch {
	case secret == "":
		return msg
	case len(secret) >= 4:
		return strings.ReplaceAll(msg, secret, redacted)
	default:
		r := strings.NewReplacer(
			"password="+secret, "password="+redacted,
			":"+secret+"@", ":"+redacted+"@",
		)
		return r.Replace(msg)
	}
}

// countPlaceholders returns how many bind values query needs. Numbered
// markers ($n, @pn) count by highest index so one value may be reused.
func countPlaceholders(d db.Dialect, query string) int {
	switch d {
	case db.HANA:
		return strings.Count(query, "?")
	case db.MSSQL:
		return highestIndex(query, "@p")
	default:
		return highestIndex(query, "$")
	}
}

func highestIndex(query, marker string) int {
	max := 0
	for i := 0; i < len(query); {
		j := strings.Index(query[i:], marker)
		if j < 0 {
			break
		}
		start := i + j + len(marker)
		end := start
		for end < len(query) && query[end] >= '0' && query[end] <= '9' {
			end++
		}
		if end > start {
			if n, err := strconv.Atoi(query[start:end]); err == nil && n > max {
				max = n
			}
		}
		i = start
	}
	return max
}
