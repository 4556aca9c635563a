// Package datasource runs read-only SQL for snippets and returns the rows
// as tables.
//
// Two drivers are supported: "sqlite" (modernc.org/sqlite, pure Go) and
// "postgres" (github.com/lib/pq). Only single SELECT or WITH statements
// are accepted, and a query returning more than MaxRows rows fails rather
// than silently truncating.
package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/jonwraymond/snippetexec/frame"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultMaxRows caps the rows a single query may return.
const DefaultMaxRows = 100_000

// Errors returned by Source.
var (
	ErrUnsupportedDriver = errors.New("unsupported driver")
	ErrNotReadOnly       = errors.New("only single SELECT or WITH statements are allowed")
	ErrTooManyRows       = errors.New("query returned too many rows")
)

// Config configures a Source.
type Config struct {
	// Driver is DriverSQLite or DriverPostgres.
	Driver string

	// DSN is the driver-specific data source name.
	DSN string

	// MaxRows caps the rows returned by one query.
	// Default: DefaultMaxRows
	MaxRows int
}

// Source executes read-only queries against a database.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: queries honor cancellation and deadlines.
// - Errors: rejected statements return ErrNotReadOnly.
type Source struct {
	db      *sql.DB
	driver  string
	maxRows int
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Source, error) {
	switch cfg.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if cfg.Driver == DriverSQLite && strings.Contains(cfg.DSN, ":memory:") {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return New(db, cfg.Driver, cfg.MaxRows), nil
}

// New wraps an open database handle.
func New(db *sql.DB, driver string, maxRows int) *Source {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Source{db: db, driver: driver, maxRows: maxRows}
}

// Query runs a read-only statement and returns its rows as a table.
func (s *Source) Query(ctx context.Context, query string, args ...any) (*frame.Table, error) {
	if err := checkReadOnly(query); err != nil {
		return nil, err
	}

	var (
		rows *sql.Rows
		err  error
	)
	if s.driver == DriverPostgres {
		tx, txErr := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
		if txErr != nil {
			return nil, fmt.Errorf("starting read-only transaction: %w", txErr)
		}
		defer func() { _ = tx.Rollback() }()
		rows, err = tx.QueryContext(ctx, query, args...)
	} else {
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return s.scan(rows)
}

// Close closes the database handle.
func (s *Source) Close() error {
	return s.db.Close()
}

func (s *Source) scan(rows *sql.Rows) (*frame.Table, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	columns := make([]string, len(types))
	for i, ct := range types {
		columns[i] = ct.Name()
	}

	var out [][]any
	for rows.Next() {
		if len(out) == s.maxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, s.maxRows)
		}
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make([]any, len(columns))
		for i, v := range raw {
			row[i] = normalize(v, types[i].DatabaseTypeName())
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return frame.NewTable(columns, out)
}

// normalize maps driver values onto the types snippets work with.
func normalize(v any, dbType string) any {
	switch x := v.(type) {
	case []byte:
		s := string(x)
		switch strings.ToUpper(dbType) {
		case "NUMERIC", "DECIMAL":
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
		return s
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}

// checkReadOnly accepts a single SELECT or WITH statement, optionally
// followed by one semicolon.
func checkReadOnly(query string) error {
	q := strings.TrimSpace(stripComments(query))
	q = strings.TrimSuffix(q, ";")
	if q == "" || strings.Contains(q, ";") {
		return ErrNotReadOnly
	}
	keyword, _, _ := strings.Cut(q, " ")
	if i := strings.IndexAny(keyword, "\n\t("); i >= 0 {
		keyword = keyword[:i]
	}
	switch strings.ToUpper(keyword) {
	case "SELECT", "WITH":
		return nil
	}
	return ErrNotReadOnly
}

// stripComments removes leading line and block comments.
func stripComments(q string) string {
	for {
		q = strings.TrimSpace(q)
		switch {
		case strings.HasPrefix(q, "--"):
			_, rest, found := strings.Cut(q, "\n")
			if !found {
				return ""
			}
			q = rest
		case strings.HasPrefix(q, "/*"):
			_, rest, found := strings.Cut(q, "*/")
			if !found {
				return ""
			}
			q = rest
		default:
			return q
		}
	}
}
