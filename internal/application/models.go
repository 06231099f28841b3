package application

import "time"

// User represents a tenant account as exposed by the services. The
// password credential never leaves the persistence layer through this
// type.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	RestaurantName string    `json:"restaurant_name"`
	LogoURL        *string   `json:"logo_url,omitempty"`
	PlanID         string    `json:"plan_id"`
	BrandColor     string    `json:"brand_color"`
	VoiceSettings  *string   `json:"voice_settings,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Plan is a subscription tier with its parsed feature list.
type Plan struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	Features     []string `json:"features"`
	VoiceEnabled bool     `json:"voice_enabled"`
	MultiCounter bool     `json:"multi_counter"`
	AdsEnabled   bool     `json:"ads_enabled"`
}

// Counter is a named service point.
type Counter struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	IsActive  bool      `json:"is_active"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// CommandStatus is the closed set of lifecycle states for a call.
type CommandStatus string

const (
	CommandStatusActive    CommandStatus = "active"
	CommandStatusCompleted CommandStatus = "completed"
	CommandStatusCancelled CommandStatus = "cancelled"
)

// Valid reports whether the status is one of the three lifecycle states.
func (s CommandStatus) Valid() bool {
	switch s {
	case CommandStatusActive, CommandStatusCompleted, CommandStatusCancelled:
		return true
	}
	return false
}

// Command is a call joined with its counter's display attributes.
type Command struct {
	ID           string        `json:"id"`
	Number       string        `json:"number"`
	Message      *string       `json:"message,omitempty"`
	UserID       string        `json:"user_id"`
	CounterID    *string       `json:"counter_id,omitempty"`
	Status       CommandStatus `json:"status"`
	IsAnnounced  bool          `json:"is_announced"`
	Priority     int           `json:"priority"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	AnnouncedAt  *time.Time    `json:"announced_at,omitempty"`
	CounterName  *string       `json:"counter_name,omitempty"`
	CounterColor *string       `json:"counter_color,omitempty"`
}

// RegisterParams captures the registration input.
type RegisterParams struct {
	Email          string
	Password       string
	RestaurantName string
}

// LoginParams captures the login input.
type LoginParams struct {
	Email    string
	Password string
}

// AuthResult is the outcome of a successful register or login: the account
// plus a fresh bearer session.
type AuthResult struct {
	User      User
	Token     string
	ExpiresAt time.Time
}

// Profile bundles the account, its plan metadata, and its ordered
// counters.
type Profile struct {
	User
	Plan     Plan      `json:"plan"`
	Counters []Counter `json:"counters"`
}

// UpdateProfileParams carries the partial profile update set. Nil fields
// are left untouched.
type UpdateProfileParams struct {
	RestaurantName *string
	LogoURL        *string
	BrandColor     *string
	VoiceSettings  *string
}

// CreateCounterParams captures the counter creation input. Color is
// optional; a palette color is picked when empty.
type CreateCounterParams struct {
	Name  string
	Color string
}

// UpdateCounterParams carries the partial counter update set.
type UpdateCounterParams struct {
	Name     *string
	Color    *string
	IsActive *bool
	Position *int
}

// ListCommandsParams narrows the dashboard command listing.
type ListCommandsParams struct {
	Status string
	Limit  int
}

// CreateCommandParams captures the call creation input.
type CreateCommandParams struct {
	Number    string
	Message   string
	CounterID *string
	Priority  int
}

// UpdateCommandParams carries the partial command update set. Status
// strings outside the lifecycle enum are silently ignored.
type UpdateCommandParams struct {
	Status      *string
	Message     *string
	IsAnnounced *bool
}

// DashboardStats summarizes the tenant's queue for the dashboard.
type DashboardStats struct {
	ActiveCommands int      `json:"active_commands"`
	TotalToday     int      `json:"total_today"`
	PlanName       string   `json:"plan_name"`
	Features       []string `json:"features"`
}

// DisplayData is the public projection polled by the display screen.
type DisplayData struct {
	RestaurantName  string    `json:"restaurant_name"`
	BrandColor      string    `json:"brand_color"`
	LogoURL         *string   `json:"logo_url,omitempty"`
	CurrentCommands []Command `json:"current_commands"`
	Counters        []Counter `json:"counters"`
}

// PingResult is the display liveness payload.
type PingResult struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// DisplayStats is the public aggregate counter payload.
type DisplayStats struct {
	ActiveCommands int       `json:"active_commands"`
	CompletedToday int       `json:"completed_today"`
	CancelledToday int       `json:"cancelled_today"`
	CreatedToday   int       `json:"created_today"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Ad describes one advertisement slot for the display rotation.
type Ad struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	URL      string `json:"url"`
	Duration int    `json:"duration"`
	Title    string `json:"title"`
}

// AdsPayload is the plan-gated advertisement response.
type AdsPayload struct {
	Ads                    []Ad `json:"ads"`
	RotationInterval       int  `json:"rotation_interval"`
	DisplayBetweenCommands bool `json:"display_between_commands"`
}
