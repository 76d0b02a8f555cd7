package query

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"example.com/ecomdata/internal/dataset"
)

// Result is a query result with every value rendered as text.
type Result struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func (r Result) Empty() bool {
	return len(r.Rows) == 0
}

// Head returns the first n rows of r.
func (r Result) Head(n int) Result {
	if n < 0 || len(r.Rows) <= n {
		return r
	}
	return Result{Columns: r.Columns, Rows: r.Rows[:n]}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Run executes body and collects the full result.
func Run(ctx context.Context, db queryer, body string) (Result, error) {
	rows, err := db.QueryContext(ctx, body)
	if err != nil {
		return Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("read columns: %w", err)
	}

	result := Result{Columns: columns, Rows: [][]string{}}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, fmt.Errorf("scan row: %w", err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = format(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iter rows: %w", err)
	}
	return result, nil
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(dataset.TimestampLayout)
	default:
		return fmt.Sprint(x)
	}
}
