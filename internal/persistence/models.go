package persistence

import "time"

// User represents a tenant account owning counters, commands, and sessions.
type User struct {
	ID             string
	Email          string
	PasswordHash   string
	RestaurantName string
	LogoURL        *string
	PlanID         string
	BrandColor     string
	VoiceSettings  *string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Plan represents a read-only subscription tier gating features.
// Features holds a serialized JSON array of feature labels.
type Plan struct {
	ID           string
	Name         string
	Price        float64
	Features     string
	VoiceEnabled bool
	MultiCounter bool
	AdsEnabled   bool
	CreatedAt    time.Time
}

// Counter represents a named service point belonging to a tenant.
type Counter struct {
	ID        string
	UserID    string
	Name      string
	Color     string
	IsActive  bool
	Position  int
	CreatedAt time.Time
}

// Command statuses persisted in the commands table.
const (
	CommandStatusActive    = "active"
	CommandStatusCompleted = "completed"
	CommandStatusCancelled = "cancelled"
)

// Command represents a call pushed to the display queue.
type Command struct {
	ID          string
	Number      string
	Message     *string
	UserID      string
	CounterID   *string
	Status      string
	IsAnnounced bool
	Priority    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	AnnouncedAt *time.Time
}

// CommandWithCounter is a command joined with its owning counter's display
// attributes. Counter fields are nil when the command has no counter or the
// counter has been deleted.
type CommandWithCounter struct {
	Command
	CounterName  *string
	CounterColor *string
}

// CommandStats aggregates per-tenant command counts. The "today" fields are
// bounded by the day window supplied to the query.
type CommandStats struct {
	Active         int
	CompletedToday int
	CancelledToday int
	CreatedToday   int
}

// Session represents a bearer-token authentication session.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ActivityEntry is an append-only audit record. Details holds a serialized
// JSON payload describing the action.
type ActivityEntry struct {
	ID        string
	UserID    string
	Action    string
	Details   string
	CreatedAt time.Time
}
