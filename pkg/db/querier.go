package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the narrow database contract handlers and repositories depend
// on. Keeping it small makes repositories trivial to fake in tests and keeps
// SQL knowledge out of handler code.
type Querier interface {
	// FetchAll runs query and returns every row as a column-name keyed map.
	// An empty result set returns an empty slice, not an error.
	FetchAll(ctx context.Context, query string, args ...any) ([]map[string]any, error)

	// FetchOne runs query and returns the first row, or nil when the result
	// set is empty. A miss is not an error: callers decide whether absence
	// is exceptional.
	FetchOne(ctx context.Context, query string, args ...any) (map[string]any, error)

	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, query string, args ...any) (int64, error)

	// Insert builds and runs an INSERT for table from fields and returns the
	// generated id. Column order is deterministic (sorted) so generated SQL
	// is stable across runs.
	Insert(ctx context.Context, table string, fields map[string]any) (string, error)

	// Update builds and runs an UPDATE for table, setting fields and
	// appending the where clause. Placeholders in where must start after the
	// field placeholders; use Update's returned statement conventions below.
	Update(ctx context.Context, table string, fields map[string]any, where string, args ...any) (int64, error)
}

// PgxQuerier implements Querier over a pgx connection pool.
type PgxQuerier struct {
	pool *pgxpool.Pool
}

// NewQuerier wraps pool in the Querier contract.
func NewQuerier(pool *pgxpool.Pool) *PgxQuerier {
	return &PgxQuerier{pool: pool}
}

func (q *PgxQuerier) FetchAll(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db: query failed: %w", err)
	}
	defer rows.Close()

	out := make([]map[string]any, 0)
	for rows.Next() {
		row, err := pgx.RowToMap(rows)
		if err != nil {
			return nil, fmt.Errorf("db: row scan failed: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: rows iteration failed: %w", err)
	}
	return out, nil
}

func (q *PgxQuerier) FetchOne(ctx context.Context, query string, args ...any) (map[string]any, error) {
	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db: query failed: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db: row scan failed: %w", err)
	}
	return row, nil
}

func (q *PgxQuerier) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := q.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db: exec failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *PgxQuerier) Insert(ctx context.Context, table string, fields map[string]any) (string, error) {
	query, args, err := buildInsert(table, fields)
	if err != nil {
		return "", err
	}

	var id string
	if err := q.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("db: insert failed: %w", err)
	}
	return id, nil
}

func (q *PgxQuerier) Update(ctx context.Context, table string, fields map[string]any, where string, args ...any) (int64, error) {
	query, fullArgs, err := buildUpdate(table, fields, where, args)
	if err != nil {
		return 0, err
	}

	tag, err := q.pool.Exec(ctx, query, fullArgs...)
	if err != nil {
		return 0, fmt.Errorf("db: update failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// buildInsert produces "INSERT INTO t (a, b) VALUES ($1, $2) RETURNING id"
// with columns in sorted order.
func buildInsert(table string, fields map[string]any) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, ErrNoFields
	}

	cols := sortedKeys(fields)
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = fields[col]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
	)
	return query, args, nil
}

// buildUpdate produces "UPDATE t SET a = $1, b = $2 WHERE <where>" with the
// where clause placeholders renumbered to follow the SET placeholders. The
// caller writes where with $1-based placeholders for its own args.
func buildUpdate(table string, fields map[string]any, where string, whereArgs []any) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, ErrNoFields
	}

	cols := sortedKeys(fields)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(whereArgs))
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, fields[col])
	}

	where = shiftPlaceholders(where, len(cols), len(whereArgs))
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s", table, strings.Join(sets, ", "))
	if where != "" {
		query += " WHERE " + where
	}
	return query, args, nil
}

// shiftPlaceholders rewrites $1..$n in clause to $(1+offset)..$(n+offset).
// Replacements run highest-first so $1 does not corrupt $10.
func shiftPlaceholders(clause string, offset, count int) string {
	for i := count; i >= 1; i-- {
		clause = strings.ReplaceAll(
			clause,
			fmt.Sprintf("$%d", i),
			fmt.Sprintf("$%d", i+offset),
		)
	}
	return clause
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
