package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"example.com/ecomdata/internal/dataset"
	"example.com/ecomdata/internal/exchange"
)

// ErrStoreMissing is returned when the store file has not been built yet.
var ErrStoreMissing = errors.New("store not found, run ingest-data first")

//go:embed schema.sql
var schemaSQL string

// Store wraps the relational store holding the ingested entities.
type Store struct {
	db *sql.DB
}

// New wires a store over an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for read-only query execution.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Init creates the five entity tables with their keys and constraints.
func (s *Store) Init(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Load appends every exchange file in dir to its table inside a single
// transaction. Any failure, including a constraint violation, rolls back the
// whole load.
func (s *Store) Load(ctx context.Context, dir string) (map[string]int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback()

	loaded := make(map[string]int, len(dataset.Entities))
	for _, table := range dataset.Entities {
		header, rows, err := exchange.ReadFile(exchange.Path(dir, table))
		if err != nil {
			return nil, err
		}
		n, err := s.loadTable(ctx, tx, table, header, rows)
		if err != nil {
			return nil, err
		}
		loaded[table] = n
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit load: %w", err)
	}
	return loaded, nil
}

func (s *Store) loadTable(ctx context.Context, tx *sql.Tx, table string, header []string, rows [][]string) (int, error) {
	columns, err := tableColumns(ctx, tx, table)
	if err != nil {
		return 0, err
	}
	if err := matchHeader(table, header, columns); err != nil {
		return 0, err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(header)), ", ")
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, table, strings.Join(header, ", "), placeholders)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare insert %s: %w", table, err)
	}
	defer stmt.Close()

	args := make([]any, len(header))
	for i, row := range rows {
		for j, v := range row {
			args[j] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			// +2: one for the header row, one for 1-based line numbers
			return 0, fmt.Errorf("insert %s line %d: %w", table, i+2, err)
		}
	}
	return len(rows), nil
}

// Counts returns the row count of each entity table.
func (s *Store) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(dataset.Entities))
	for _, table := range dataset.Entities {
		var n int64
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func tableColumns(ctx context.Context, q queryer, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table info %s: %w", table, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iter table info %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return columns, nil
}

func matchHeader(table string, header, columns []string) error {
	got := append([]string(nil), header...)
	want := append([]string(nil), columns...)
	sort.Strings(got)
	sort.Strings(want)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("%s: header %v does not match table columns %v", table, header, columns)
	}
	return nil
}
