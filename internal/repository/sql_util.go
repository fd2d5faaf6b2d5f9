package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"copro-edd-import/internal/domain"

	"github.com/lib/pq"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func placeholders(n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(ps, ", ")
}

// upsertSQL builds an insert that updates every non-key column on conflict
// and returns the row id plus whether the row was created.
func upsertSQL(table string, cols, conflict []string) string {
	key := map[string]bool{}
	for _, c := range conflict {
		key[c] = true
	}
	sets := []string{}
	for _, c := range cols {
		if !key[c] {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
	}
	if len(sets) == 0 {
		// DO NOTHING would not return the existing row
		last := conflict[len(conflict)-1]
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", last, last))
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s RETURNING id::text, (xmax = 0) AS created",
		table, strings.Join(cols, ", "), placeholders(len(cols)), strings.Join(conflict, ", "), strings.Join(sets, ", "),
	)
}

// linkSQL builds an insert that leaves an existing row untouched.
func linkSQL(table string, cols, conflict []string) string {
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING",
		table, strings.Join(cols, ", "), placeholders(len(cols)), strings.Join(conflict, ", "),
	)
}

// upsert runs an upsertSQL statement.
func upsert(ctx context.Context, q querier, query string, args ...any) (id string, created bool, err error) {
	err = q.QueryRowContext(ctx, query, args...).Scan(&id, &created)
	return id, created, err
}

// link runs a linkSQL statement and reports whether a row was inserted.
func link(ctx context.Context, q querier, query string, args ...any) (bool, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func jsonArg(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return string(b), nil
}

func dateArg(d *domain.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}

func enumArg[T ~string](v *T) any {
	if v == nil {
		return nil
	}
	return string(*v)
}

// wrapPQ adds the Postgres error code and constraint to err.
func wrapPQ(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Constraint != "" {
			return fmt.Errorf("%s: %s (%s, constraint %s): %w", op, pqErr.Message, pqErr.Code, pqErr.Constraint, err)
		}
		return fmt.Errorf("%s: %s (%s): %w", op, pqErr.Message, pqErr.Code, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	return hasCode(err, "23505")
}

// job ids are uuids; anything else cannot name a row
func isInvalidText(err error) bool {
	return hasCode(err, "22P02")
}

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
