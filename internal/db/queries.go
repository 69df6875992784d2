package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/hpungsan/abacus/internal/calc"
	"github.com/hpungsan/abacus/internal/errors"
)

// Insert stores a new calculation and sets c.ID to the identity assigned by
// the storage engine.
func (d *DB) Insert(ctx context.Context, c *calc.Calculation) error {
	query := d.rebind(`
		INSERT INTO calculations (expression, result, created_at)
		VALUES (?, ?, ?)
		RETURNING id
	`)

	var id int64
	err := d.conn.QueryRowContext(ctx, query, c.Expression, c.Result, calc.ToMicros(c.CreatedAt)).Scan(&id)
	if err != nil {
		return errors.NewInternal(err)
	}

	c.ID = id
	return nil
}

// ListRecent returns up to limit calculations, newest first.
// Rows created in the same microsecond fall back to insertion order.
func (d *DB) ListRecent(ctx context.Context, limit int) ([]calc.Calculation, error) {
	query := d.rebind(`
		SELECT id, expression, result, created_at
		FROM calculations
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`)

	rows, err := d.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	items := make([]calc.Calculation, 0, limit)
	for rows.Next() {
		var (
			c         calc.Calculation
			createdAt int64
		)
		if err := rows.Scan(&c.ID, &c.Expression, &c.Result, &createdAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		c.CreatedAt = calc.FromMicros(createdAt)
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return items, nil
}

// DeleteAll removes every calculation and returns how many rows were deleted.
func (d *DB) DeleteAll(ctx context.Context) (int64, error) {
	result, err := d.conn.ExecContext(ctx, `DELETE FROM calculations`)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// rebind rewrites ? placeholders to $N for PostgreSQL.
func (d *DB) rebind(query string) string {
	if d.dialect != DialectPostgres {
		return query
	}
	return sqlx.Rebind(sqlx.DOLLAR, query)
}
