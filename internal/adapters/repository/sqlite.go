package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/okian/ingestor/internal/domain/model"
	"github.com/okian/ingestor/pkg/logger"
)

//go:embed schema/sqlite.sql
var sqliteSchema string

// SQLite is a Store keeping documents as JSON rows in a local database. It is
// meant for single-machine runs and tests; conditions are evaluated with the
// JSON1 functions.
type SQLite struct {
	db     *sql.DB
	path   string
	logger logger.Logger
}

// NewSQLite opens (creating if needed) the database at path. Use ":memory:"
// for a throwaway store.
func NewSQLite(ctx context.Context, path string, opts ...Option) (*SQLite, error) {
	o := apply("sqlite", opts)
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one connection: in-memory databases are per connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	o.logger.Info(ctx, "opened sqlite store", logger.String("path", path))
	return &SQLite{db: db, path: path, logger: o.logger}, nil
}

func (s *SQLite) IndexExists(ctx context.Context, index string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM indices WHERE name = ?", index).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("index exists %s: %w", index, err)
	}
	return n > 0, nil
}

func (s *SQLite) CreateIndex(ctx context.Context, index string, mapping []byte) error {
	var m sql.NullString
	if len(mapping) > 0 {
		m = sql.NullString{String: string(mapping), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, "INSERT INTO indices(name, mapping) VALUES(?, ?) ON CONFLICT(name) DO NOTHING", index, m)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	return nil
}

// Bulk inserts docs in one transaction, creating index on first use.
func (s *SQLite) Bulk(ctx context.Context, index string, docs []any) (BulkResult, error) {
	var result BulkResult
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("bulk %s: %w", index, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "INSERT INTO indices(name) VALUES(?) ON CONFLICT(name) DO NOTHING", index); err != nil {
		return result, fmt.Errorf("bulk %s: %w", index, err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO documents(idx, body) VALUES(?, ?)")
	if err != nil {
		return result, fmt.Errorf("bulk %s: %w", index, err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			result.fail(err.Error())
			continue
		}
		if _, err := stmt.ExecContext(ctx, index, string(raw)); err != nil {
			result.fail(err.Error())
			continue
		}
		result.Indexed++
	}
	if err := tx.Commit(); err != nil {
		return BulkResult{Failed: len(docs), Errors: []string{err.Error()}}, fmt.Errorf("bulk %s: commit: %w", index, err)
	}
	return result, nil
}

func (s *SQLite) Sample(ctx context.Context, index string) (map[string]any, error) {
	if err := s.requireIndex(ctx, index); err != nil {
		return nil, err
	}
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE idx = ? ORDER BY id LIMIT 1", index).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s is empty", ErrNotFound, index)
	}
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", index, err)
	}
	return decodeDocument(strings.NewReader(body))
}

func (s *SQLite) Count(ctx context.Context, index string, conds []model.Condition) (int64, error) {
	if err := s.requireIndex(ctx, index); err != nil {
		return 0, err
	}
	query := "SELECT COUNT(*) FROM documents WHERE idx = ?"
	args := []any{index}
	for _, c := range conds {
		path := "$." + c.Field
		switch c.Op {
		case model.OpContainsDay:
			query += " AND instr(json_extract(body, ?), ?) > 0"
			args = append(args, path, c.Day())
		default:
			query += " AND json_extract(body, ?) = ?"
			args = append(args, path, sqlValue(c.Value))
		}
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", index, err)
	}
	return n, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Path returns the database path.
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) requireIndex(ctx context.Context, index string) error {
	ok, err := s.IndexExists(ctx, index)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, index)
	}
	return nil
}

// sqlValue maps a condition value onto the type json_extract yields, so
// integers compare as INTEGER and whole floats too.
func sqlValue(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case reflect.Bool:
		if rv.Bool() {
			return int64(1)
		}
		return int64(0)
	default:
		return v
	}
}
