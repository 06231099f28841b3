package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/callboard/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a SQLite-backed user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, restaurant_name, logo_url, plan_id,
	brand_color, voice_settings, is_active, created_at, updated_at`

// CreateUser inserts a new tenant account.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.db.sql.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		user.ID,
		normalizeEmail(user.Email),
		user.PasswordHash,
		user.RestaurantName,
		nullString(user.LogoURL),
		user.PlanID,
		user.BrandColor,
		nullString(user.VoiceSettings),
		user.IsActive,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// GetUser retrieves a tenant account by id.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.db.sql.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail retrieves a tenant account by its normalized email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.db.sql.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalized)
	return scanUser(row)
}

// UpdateUser persists the full mutable state of an existing account.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	result, err := r.db.sql.ExecContext(ctx, `
		UPDATE users
		SET email = ?, password_hash = ?, restaurant_name = ?, logo_url = ?,
			plan_id = ?, brand_color = ?, voice_settings = ?, is_active = ?,
			updated_at = ?
		WHERE id = ?
	`,
		normalizeEmail(user.Email),
		user.PasswordHash,
		user.RestaurantName,
		nullString(user.LogoURL),
		user.PlanID,
		user.BrandColor,
		nullString(user.VoiceSettings),
		user.IsActive,
		formatTime(user.UpdatedAt),
		user.ID,
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user                   persistence.User
		logoURL, voiceSettings sql.NullString
		createdAt, updatedAt   string
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.RestaurantName,
		&logoURL,
		&user.PlanID,
		&user.BrandColor,
		&voiceSettings,
		&user.IsActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.User{}, mapError(err)
	}

	user.LogoURL = stringPtr(logoURL)
	user.VoiceSettings = stringPtr(voiceSettings)
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
