package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// DBCmd identifies a statement registered in QueryMap
type DBCmd int

// Query keeps statement text per dialect.
// Empty Postgres variant is derived from Sqlite one by switching "?" placeholders to "$N".
type Query struct {
	Sqlite   string
	Postgres string
}

// QueryMap maps commands to their statements
type QueryMap struct {
	queries map[DBCmd]Query
}

// NewQueryMap makes an empty QueryMap
func NewQueryMap() *QueryMap {
	return &QueryMap{queries: make(map[DBCmd]Query)}
}

// Add registers dialect-specific statements for cmd, replacing previous registration
func (q *QueryMap) Add(cmd DBCmd, query Query) *QueryMap {
	q.queries[cmd] = query
	return q
}

// AddSame registers a statement written in sqlite dialect and shared by all engines
func (q *QueryMap) AddSame(cmd DBCmd, query string) *QueryMap {
	return q.Add(cmd, Query{Sqlite: query})
}

// Pick returns statement of cmd for the engine type
func (q *QueryMap) Pick(dbType Type, cmd DBCmd) (string, error) {
	query, ok := q.queries[cmd]
	if !ok {
		return "", fmt.Errorf("no query for command %d", cmd)
	}

	switch dbType {
	case Sqlite:
		return query.Sqlite, nil
	case Postgres:
		if query.Postgres == "" {
			return numberPlaceholders(query.Sqlite), nil
		}
		return query.Postgres, nil
	default:
		return "", fmt.Errorf("database type %q is not supported", dbType)
	}
}

// Statement returns query of cmd for this engine
func (e *SQL) Statement(queries *QueryMap, cmd DBCmd) (string, error) {
	query, err := queries.Pick(e.dbType, cmd)
	if err != nil {
		return "", fmt.Errorf("failed to get query: %w", err)
	}
	return query, nil
}

// numberPlaceholders replaces "?" with "$1", "$2"... skipping the ones inside single-quoted literals
func numberPlaceholders(q string) string {
	var sb strings.Builder
	sb.Grow(len(q) + 8)
	n, inQuote := 0, false
	for _, r := range q {
		switch {
		case r == '\'':
			inQuote = !inQuote
			sb.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			sb.WriteString("$" + strconv.Itoa(n))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
