package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/callboard/internal/persistence"
)

// CounterRepository implements persistence.CounterRepository using SQLite.
// Every query is scoped by the owning user id so tenants cannot reach each
// other's counters.
type CounterRepository struct {
	db *DB
}

// NewCounterRepository creates a SQLite-backed counter repository.
func NewCounterRepository(db *DB) *CounterRepository {
	return &CounterRepository{db: db}
}

const counterColumns = `id, user_id, name, color, is_active, position, created_at`

// CreateCounter inserts a new service point.
func (r *CounterRepository) CreateCounter(ctx context.Context, counter persistence.Counter) error {
	if counter.ID == "" || counter.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.db.sql.ExecContext(ctx, `
		INSERT INTO counters (`+counterColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		counter.ID,
		counter.UserID,
		counter.Name,
		counter.Color,
		counter.IsActive,
		counter.Position,
		formatTime(counter.CreatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// GetCounter retrieves a counter owned by the given user.
func (r *CounterRepository) GetCounter(ctx context.Context, userID, id string) (persistence.Counter, error) {
	if userID == "" || id == "" {
		return persistence.Counter{}, persistence.ErrNotFound
	}
	row := r.db.sql.QueryRowContext(ctx,
		`SELECT `+counterColumns+` FROM counters WHERE id = ? AND user_id = ?`, id, userID)
	return scanCounter(row)
}

// ListCounters returns all of a user's counters ordered by position.
func (r *CounterRepository) ListCounters(ctx context.Context, userID string) ([]persistence.Counter, error) {
	return r.listCounters(ctx,
		`SELECT `+counterColumns+` FROM counters WHERE user_id = ? ORDER BY position ASC, created_at ASC`,
		userID)
}

// ListActiveCounters returns the user's active counters ordered by position.
func (r *CounterRepository) ListActiveCounters(ctx context.Context, userID string) ([]persistence.Counter, error) {
	return r.listCounters(ctx,
		`SELECT `+counterColumns+` FROM counters WHERE user_id = ? AND is_active = 1 ORDER BY position ASC, created_at ASC`,
		userID)
}

func (r *CounterRepository) listCounters(ctx context.Context, query, userID string) ([]persistence.Counter, error) {
	rows, err := r.db.sql.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var counters []persistence.Counter
	for rows.Next() {
		counter, err := scanCounter(rows)
		if err != nil {
			return nil, err
		}
		counters = append(counters, counter)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return counters, nil
}

// UpdateCounter persists the mutable fields of an owned counter.
func (r *CounterRepository) UpdateCounter(ctx context.Context, counter persistence.Counter) error {
	result, err := r.db.sql.ExecContext(ctx, `
		UPDATE counters
		SET name = ?, color = ?, is_active = ?, position = ?
		WHERE id = ? AND user_id = ?
	`,
		counter.Name,
		counter.Color,
		counter.IsActive,
		counter.Position,
		counter.ID,
		counter.UserID,
	)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteCounter removes an owned counter and nulls the counter reference on
// any commands that pointed at it. Commands survive their counter.
func (r *CounterRepository) DeleteCounter(ctx context.Context, userID, id string) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE commands SET counter_id = NULL WHERE counter_id = ? AND user_id = ?`, id, userID); err != nil {
			return mapError(err)
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM counters WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return mapError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// CountCounters returns how many counters the user owns.
func (r *CounterRepository) CountCounters(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.sql.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM counters WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// NextPosition returns the current max position plus one.
func (r *CounterRepository) NextPosition(ctx context.Context, userID string) (int, error) {
	var maxPosition int
	err := r.db.sql.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM counters WHERE user_id = ?`, userID).Scan(&maxPosition)
	if err != nil {
		return 0, mapError(err)
	}
	return maxPosition + 1, nil
}

func scanCounter(row rowScanner) (persistence.Counter, error) {
	var (
		counter   persistence.Counter
		createdAt string
	)
	err := row.Scan(
		&counter.ID,
		&counter.UserID,
		&counter.Name,
		&counter.Color,
		&counter.IsActive,
		&counter.Position,
		&createdAt,
	)
	if err != nil {
		return persistence.Counter{}, mapError(err)
	}
	if counter.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Counter{}, err
	}
	return counter, nil
}
