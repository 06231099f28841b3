package sqlite

import (
	"context"

	"github.com/example/callboard/internal/persistence"
)

// ActivityRepository implements persistence.ActivityRepository using
// SQLite. The activity_log table is a write-only audit sink.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a SQLite-backed activity repository.
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// AppendActivity inserts an audit record.
func (r *ActivityRepository) AppendActivity(ctx context.Context, entry persistence.ActivityEntry) error {
	if entry.ID == "" || entry.UserID == "" || entry.Action == "" {
		return persistence.ErrConstraintViolation
	}
	details := entry.Details
	if details == "" {
		details = "{}"
	}

	_, err := r.db.sql.ExecContext(ctx, `
		INSERT INTO activity_log (id, user_id, action, details, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.UserID,
		entry.Action,
		details,
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}
