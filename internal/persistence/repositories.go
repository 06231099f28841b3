package persistence

import (
	"context"
	"time"
)

// UserRepository exposes persistence operations for tenant accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateUser(ctx context.Context, user User) error
}

// PlanRepository exposes read-only access to the plan catalog.
type PlanRepository interface {
	GetPlan(ctx context.Context, id string) (Plan, error)
	ListPlans(ctx context.Context) ([]Plan, error)
}

// CounterRepository exposes persistence operations for service points.
// All lookups are scoped by the owning user id.
type CounterRepository interface {
	CreateCounter(ctx context.Context, counter Counter) error
	GetCounter(ctx context.Context, userID, id string) (Counter, error)
	ListCounters(ctx context.Context, userID string) ([]Counter, error)
	ListActiveCounters(ctx context.Context, userID string) ([]Counter, error)
	UpdateCounter(ctx context.Context, counter Counter) error
	// DeleteCounter removes the counter and nulls the counter reference on
	// any commands that pointed at it.
	DeleteCounter(ctx context.Context, userID, id string) error
	CountCounters(ctx context.Context, userID string) (int, error)
	NextPosition(ctx context.Context, userID string) (int, error)
}

// CommandFilter narrows command listings for the dashboard.
type CommandFilter struct {
	Status string
	Limit  int
}

// CommandUpdate describes a partial update applied to an owned command.
// Nil pointer fields are left untouched; SetMessage distinguishes "clear
// the message" from "leave it alone".
type CommandUpdate struct {
	Status      *string
	SetMessage  bool
	Message     *string
	IsAnnounced *bool
	UpdatedAt   *time.Time
	AnnouncedAt *time.Time
}

// CommandRepository exposes persistence operations for the call lifecycle.
type CommandRepository interface {
	CreateCommand(ctx context.Context, command Command) error
	GetCommand(ctx context.Context, userID, id string) (Command, error)
	GetCommandWithCounter(ctx context.Context, id string) (CommandWithCounter, error)
	ListCommands(ctx context.Context, userID string, filter CommandFilter) ([]CommandWithCounter, error)
	// ListActiveForDisplay returns active commands ordered by priority
	// descending then creation time ascending.
	ListActiveForDisplay(ctx context.Context, userID string) ([]CommandWithCounter, error)
	UpdateCommand(ctx context.Context, userID, id string, update CommandUpdate) error
	DeleteCommand(ctx context.Context, userID, id string) error
	HasActiveNumber(ctx context.Context, userID, number string) (bool, error)
	// MarkAnnounced stamps the announced flag on a still-active command.
	MarkAnnounced(ctx context.Context, userID, id string, at time.Time) error
	CommandStats(ctx context.Context, userID string, dayStart, dayEnd time.Time) (CommandStats, error)
}

// SessionRepository stores bearer-token session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	// DeleteSessionByToken is idempotent: deleting an absent token is not
	// an error.
	DeleteSessionByToken(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// ActivityRepository appends audit records. Entries are never read back by
// the API surface.
type ActivityRepository interface {
	AppendActivity(ctx context.Context, entry ActivityEntry) error
}
