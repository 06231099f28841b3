package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/callboard/internal/persistence"
)

// CommandRepository implements persistence.CommandRepository using SQLite.
type CommandRepository struct {
	db *DB
}

// NewCommandRepository creates a SQLite-backed command repository.
func NewCommandRepository(db *DB) *CommandRepository {
	return &CommandRepository{db: db}
}

const commandColumns = `c.id, c.number, c.message, c.user_id, c.counter_id, c.status,
	c.is_announced, c.priority, c.created_at, c.updated_at, c.announced_at`

const commandJoinedColumns = commandColumns + `, ct.name AS counter_name, ct.color AS counter_color`

// CreateCommand inserts a new call. The partial unique index on
// (user_id, number) for active rows turns a racing duplicate into
// persistence.ErrDuplicate.
func (r *CommandRepository) CreateCommand(ctx context.Context, command persistence.Command) error {
	if command.ID == "" || command.UserID == "" || command.Number == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.db.sql.ExecContext(ctx, `
		INSERT INTO commands (id, number, message, user_id, counter_id, status,
			is_announced, priority, created_at, updated_at, announced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		command.ID,
		command.Number,
		nullString(command.Message),
		command.UserID,
		nullString(command.CounterID),
		command.Status,
		command.IsAnnounced,
		command.Priority,
		formatTime(command.CreatedAt),
		formatTime(command.UpdatedAt),
		formatTimePtr(command.AnnouncedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// GetCommand retrieves a command owned by the given user.
func (r *CommandRepository) GetCommand(ctx context.Context, userID, id string) (persistence.Command, error) {
	if userID == "" || id == "" {
		return persistence.Command{}, persistence.ErrNotFound
	}
	row := r.db.sql.QueryRowContext(ctx, `
		SELECT `+commandColumns+` FROM commands c WHERE c.id = ? AND c.user_id = ?
	`, id, userID)
	return scanCommand(row)
}

// GetCommandWithCounter retrieves a command by id joined with its counter's
// name and color.
func (r *CommandRepository) GetCommandWithCounter(ctx context.Context, id string) (persistence.CommandWithCounter, error) {
	if id == "" {
		return persistence.CommandWithCounter{}, persistence.ErrNotFound
	}
	row := r.db.sql.QueryRowContext(ctx, `
		SELECT `+commandJoinedColumns+`
		FROM commands c
		LEFT JOIN counters ct ON c.counter_id = ct.id
		WHERE c.id = ?
	`, id)
	return scanCommandWithCounter(row)
}

// ListCommands returns the user's commands filtered by status, newest
// first, capped at the filter limit.
func (r *CommandRepository) ListCommands(ctx context.Context, userID string, filter persistence.CommandFilter) ([]persistence.CommandWithCounter, error) {
	status := filter.Status
	if status == "" {
		status = persistence.CommandStatusActive
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.sql.QueryContext(ctx, `
		SELECT `+commandJoinedColumns+`
		FROM commands c
		LEFT JOIN counters ct ON c.counter_id = ct.id
		WHERE c.user_id = ? AND c.status = ?
		ORDER BY c.created_at DESC
		LIMIT ?
	`, userID, status, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectCommands(rows)
}

// ListActiveForDisplay returns active commands ordered for the public
// display: priority descending, then creation time ascending so equal
// priorities stay first-come-first-served.
func (r *CommandRepository) ListActiveForDisplay(ctx context.Context, userID string) ([]persistence.CommandWithCounter, error) {
	rows, err := r.db.sql.QueryContext(ctx, `
		SELECT `+commandJoinedColumns+`
		FROM commands c
		LEFT JOIN counters ct ON c.counter_id = ct.id
		WHERE c.user_id = ? AND c.status = 'active'
		ORDER BY c.priority DESC, c.created_at ASC
	`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectCommands(rows)
}

// UpdateCommand applies a partial update to an owned command.
func (r *CommandRepository) UpdateCommand(ctx context.Context, userID, id string, update persistence.CommandUpdate) error {
	assignments := make([]string, 0, 5)
	args := make([]any, 0, 6)

	if update.Status != nil {
		assignments = append(assignments, "status = ?")
		args = append(args, *update.Status)
	}
	if update.SetMessage {
		assignments = append(assignments, "message = ?")
		args = append(args, nullString(update.Message))
	}
	if update.IsAnnounced != nil {
		assignments = append(assignments, "is_announced = ?")
		args = append(args, *update.IsAnnounced)
	}
	if update.UpdatedAt != nil {
		assignments = append(assignments, "updated_at = ?")
		args = append(args, formatTime(*update.UpdatedAt))
	}
	if update.AnnouncedAt != nil {
		assignments = append(assignments, "announced_at = ?")
		args = append(args, formatTime(*update.AnnouncedAt))
	}

	if len(assignments) == 0 {
		return persistence.ErrConstraintViolation
	}

	args = append(args, id, userID)
	result, err := r.db.sql.ExecContext(ctx,
		`UPDATE commands SET `+strings.Join(assignments, ", ")+` WHERE id = ? AND user_id = ?`,
		args...)
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

// DeleteCommand hard-deletes an owned command.
func (r *CommandRepository) DeleteCommand(ctx context.Context, userID, id string) error {
	result, err := r.db.sql.ExecContext(ctx,
		`DELETE FROM commands WHERE id = ? AND user_id = ?`, id, userID)
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

// HasActiveNumber reports whether the user already has an active command
// with the given number.
func (r *CommandRepository) HasActiveNumber(ctx context.Context, userID, number string) (bool, error) {
	var count int
	err := r.db.sql.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM commands
		WHERE user_id = ? AND number = ? AND status = 'active'
	`, userID, number).Scan(&count)
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

// MarkAnnounced stamps the announced flag on a still-active command.
// Returns persistence.ErrNotFound when the command is absent, owned by
// another tenant, or no longer active.
func (r *CommandRepository) MarkAnnounced(ctx context.Context, userID, id string, at time.Time) error {
	result, err := r.db.sql.ExecContext(ctx, `
		UPDATE commands
		SET is_announced = 1, announced_at = ?
		WHERE id = ? AND user_id = ? AND status = 'active'
	`, formatTime(at), id, userID)
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

// CommandStats aggregates the user's command counts. The day window bounds
// the completed/cancelled/created "today" figures.
func (r *CommandRepository) CommandStats(ctx context.Context, userID string, dayStart, dayEnd time.Time) (persistence.CommandStats, error) {
	start := formatTime(dayStart)
	end := formatTime(dayEnd)

	var stats persistence.CommandStats
	err := r.db.sql.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN status = 'active' THEN 1 END),
			COUNT(CASE WHEN status = 'completed' AND updated_at >= ? AND updated_at < ? THEN 1 END),
			COUNT(CASE WHEN status = 'cancelled' AND updated_at >= ? AND updated_at < ? THEN 1 END),
			COUNT(CASE WHEN created_at >= ? AND created_at < ? THEN 1 END)
		FROM commands
		WHERE user_id = ?
	`, start, end, start, end, start, end, userID).Scan(
		&stats.Active,
		&stats.CompletedToday,
		&stats.CancelledToday,
		&stats.CreatedToday,
	)
	if err != nil {
		return persistence.CommandStats{}, mapError(err)
	}
	return stats, nil
}

func collectCommands(rows *sql.Rows) ([]persistence.CommandWithCounter, error) {
	var commands []persistence.CommandWithCounter
	for rows.Next() {
		command, err := scanCommandWithCounter(rows)
		if err != nil {
			return nil, err
		}
		commands = append(commands, command)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return commands, nil
}

func scanCommand(row rowScanner) (persistence.Command, error) {
	var (
		command              persistence.Command
		message, counterID   sql.NullString
		announcedAt          sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&command.ID,
		&command.Number,
		&message,
		&command.UserID,
		&counterID,
		&command.Status,
		&command.IsAnnounced,
		&command.Priority,
		&createdAt,
		&updatedAt,
		&announcedAt,
	)
	if err != nil {
		return persistence.Command{}, mapError(err)
	}

	command.Message = stringPtr(message)
	command.CounterID = stringPtr(counterID)
	if command.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Command{}, err
	}
	if command.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Command{}, err
	}
	if command.AnnouncedAt, err = parseTimePtr(announcedAt); err != nil {
		return persistence.Command{}, err
	}
	return command, nil
}

func scanCommandWithCounter(row rowScanner) (persistence.CommandWithCounter, error) {
	var (
		command                   persistence.CommandWithCounter
		message, counterID        sql.NullString
		announcedAt               sql.NullString
		counterName, counterColor sql.NullString
		createdAt, updatedAt      string
	)
	err := row.Scan(
		&command.ID,
		&command.Number,
		&message,
		&command.UserID,
		&counterID,
		&command.Status,
		&command.IsAnnounced,
		&command.Priority,
		&createdAt,
		&updatedAt,
		&announcedAt,
		&counterName,
		&counterColor,
	)
	if err != nil {
		return persistence.CommandWithCounter{}, mapError(err)
	}

	command.Message = stringPtr(message)
	command.CounterID = stringPtr(counterID)
	command.CounterName = stringPtr(counterName)
	command.CounterColor = stringPtr(counterColor)
	if command.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.CommandWithCounter{}, err
	}
	if command.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.CommandWithCounter{}, err
	}
	if command.AnnouncedAt, err = parseTimePtr(announcedAt); err != nil {
		return persistence.CommandWithCounter{}, err
	}
	return command, nil
}
