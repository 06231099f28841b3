package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/callboard/internal/persistence"
)

var (
	userCounter    uint64
	counterCounter uint64
	commandCounter uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserOption configures the generated user record.
type UserOption func(*persistence.User)

// NewUserFixture returns a deterministic tenant account with optional
// overrides. The account references the seeded basic plan.
func NewUserFixture(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:             id,
		Email:          fmt.Sprintf("%s@example.com", id),
		PasswordHash:   fmt.Sprintf("hash-%03d", idx),
		RestaurantName: fmt.Sprintf("Restaurant %03d", idx),
		PlanID:         "basic",
		BrandColor:     "#3b82f6",
		IsActive:       true,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) { u.ID = id }
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(u *persistence.User) { u.Email = email }
}

// WithUserPlan overrides the referenced plan.
func WithUserPlan(planID string) UserOption {
	return func(u *persistence.User) { u.PlanID = planID }
}

// WithUserActive sets the active flag on the generated account.
func WithUserActive(active bool) UserOption {
	return func(u *persistence.User) { u.IsActive = active }
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(u *persistence.User) { u.PasswordHash = hash }
}

// --------------------------- Counter fixtures ----------------------------

// CounterOption configures the generated counter record.
type CounterOption func(*persistence.Counter)

// NewCounterFixture returns a deterministic counter owned by the given user.
func NewCounterFixture(userID string, opts ...CounterOption) persistence.Counter {
	idx := atomic.AddUint64(&counterCounter, 1)
	counter := persistence.Counter{
		ID:        fmt.Sprintf("counter-%03d", idx),
		UserID:    userID,
		Name:      fmt.Sprintf("Guichet %03d", idx),
		Color:     "#3b82f6",
		IsActive:  true,
		Position:  int(idx),
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&counter)
	}
	return counter
}

// WithCounterID overrides the generated counter ID.
func WithCounterID(id string) CounterOption {
	return func(c *persistence.Counter) { c.ID = id }
}

// WithCounterName overrides the generated counter name.
func WithCounterName(name string) CounterOption {
	return func(c *persistence.Counter) { c.Name = name }
}

// WithCounterPosition overrides the generated position.
func WithCounterPosition(position int) CounterOption {
	return func(c *persistence.Counter) { c.Position = position }
}

// WithCounterActive sets the active flag on the generated counter.
func WithCounterActive(active bool) CounterOption {
	return func(c *persistence.Counter) { c.IsActive = active }
}

// --------------------------- Command fixtures ----------------------------

// CommandOption configures the generated command record.
type CommandOption func(*persistence.Command)

// NewCommandFixture returns a deterministic active command owned by the
// given user.
func NewCommandFixture(userID string, opts ...CommandOption) persistence.Command {
	idx := atomic.AddUint64(&commandCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Second)
	command := persistence.Command{
		ID:        fmt.Sprintf("command-%03d", idx),
		Number:    fmt.Sprintf("%d", idx%10000),
		UserID:    userID,
		Status:    persistence.CommandStatusActive,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&command)
	}
	return command
}

// WithCommandID overrides the generated command ID.
func WithCommandID(id string) CommandOption {
	return func(c *persistence.Command) { c.ID = id }
}

// WithCommandNumber overrides the generated number.
func WithCommandNumber(number string) CommandOption {
	return func(c *persistence.Command) { c.Number = number }
}

// WithCommandStatus overrides the lifecycle status.
func WithCommandStatus(status string) CommandOption {
	return func(c *persistence.Command) { c.Status = status }
}

// WithCommandCounter attaches the command to a counter.
func WithCommandCounter(counterID string) CommandOption {
	return func(c *persistence.Command) { c.CounterID = &counterID }
}

// WithCommandPriority overrides the display priority.
func WithCommandPriority(priority int) CommandOption {
	return func(c *persistence.Command) { c.Priority = priority }
}

// WithCommandCreatedAt sets the creation timestamp.
func WithCommandCreatedAt(t time.Time) CommandOption {
	return func(c *persistence.Command) {
		c.CreatedAt = t
		c.UpdatedAt = t
	}
}

// --------------------------- Session fixtures ----------------------------

// SessionOption configures the generated session record.
type SessionOption func(*persistence.Session)

// NewSessionFixture returns a deterministic week-long session for the given
// user.
func NewSessionFixture(userID string, opts ...SessionOption) persistence.Session {
	idx := atomic.AddUint64(&sessionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	session := persistence.Session{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    userID,
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: created.Add(7 * 24 * time.Hour),
		CreatedAt: created,
	}
	for _, opt := range opts {
		opt(&session)
	}
	return session
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(s *persistence.Session) { s.Token = token }
}

// WithSessionExpiresAt overrides the expiry timestamp.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(s *persistence.Session) { s.ExpiresAt = t }
}
