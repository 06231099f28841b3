package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/callboard/internal/persistence"
)

// DisplayService serves the public, unauthenticated display endpoints. All
// lookups are keyed by the tenant id embedded in the display URL.
type DisplayService struct {
	users    persistence.UserRepository
	plans    persistence.PlanRepository
	commands persistence.CommandRepository
	counters persistence.CounterRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewDisplayService constructs a DisplayService with the provided dependencies.
func NewDisplayService(users persistence.UserRepository, plans persistence.PlanRepository, commands persistence.CommandRepository, counters persistence.CounterRepository, now func() time.Time) *DisplayService {
	return NewDisplayServiceWithLogger(users, plans, commands, counters, now, nil)
}

// NewDisplayServiceWithLogger constructs a DisplayService with a specified logger.
func NewDisplayServiceWithLogger(users persistence.UserRepository, plans persistence.PlanRepository, commands persistence.CommandRepository, counters persistence.CounterRepository, now func() time.Time, logger *slog.Logger) *DisplayService {
	if now == nil {
		now = time.Now
	}
	return &DisplayService{
		users:    users,
		plans:    plans,
		commands: commands,
		counters: counters,
		now:      now,
		logger:   defaultLogger(logger),
	}
}

func (s *DisplayService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DisplayService", operation, attrs...)
}

// Snapshot returns everything a display screen needs for one poll: branding,
// the active calls in announcement order, and the active counters.
func (s *DisplayService) Snapshot(ctx context.Context, userID string) (data DisplayData, err error) {
	if s == nil {
		err = fmt.Errorf("DisplayService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Snapshot", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "display snapshot failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var user persistence.User
	user, err = s.activeUser(ctx, userID)
	if err != nil {
		return
	}

	var commands []persistence.CommandWithCounter
	commands, err = s.commands.ListActiveForDisplay(ctx, userID)
	if err != nil {
		return
	}
	var counters []persistence.Counter
	counters, err = s.counters.ListActiveCounters(ctx, userID)
	if err != nil {
		return
	}

	data = DisplayData{
		RestaurantName:  user.RestaurantName,
		BrandColor:      user.BrandColor,
		LogoURL:         user.LogoURL,
		CurrentCommands: toCommandsWithCounter(commands),
		Counters:        toCounters(counters),
	}
	return
}

// Ping confirms the tenant's display is addressable.
func (s *DisplayService) Ping(ctx context.Context, userID string) (PingResult, error) {
	if s == nil {
		return PingResult{}, fmt.Errorf("DisplayService is nil")
	}
	if _, err := s.activeUser(ctx, userID); err != nil {
		s.loggerWith(ctx, "Ping", "user_id", userID).ErrorContext(ctx, "display ping failed", "error", err, "error_kind", ErrorKind(err))
		return PingResult{}, err
	}
	return PingResult{Timestamp: s.now().UTC(), Status: "online"}, nil
}

// Stats exposes the tenant's daily aggregates to the display.
func (s *DisplayService) Stats(ctx context.Context, userID string) (stats DisplayStats, err error) {
	if s == nil {
		err = fmt.Errorf("DisplayService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Stats", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "display stats failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if _, err = s.activeUser(ctx, userID); err != nil {
		return
	}

	now := s.now()
	dayStart, dayEnd := dayWindow(now)
	var counts persistence.CommandStats
	counts, err = s.commands.CommandStats(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return
	}

	stats = DisplayStats{
		ActiveCommands: counts.Active,
		CompletedToday: counts.CompletedToday,
		CancelledToday: counts.CancelledToday,
		CreatedToday:   counts.CreatedToday,
		LastUpdated:    now.UTC(),
	}
	return
}

// Announce marks a still-active call as announced so the display does not
// replay it. Completed or cancelled calls cannot be announced.
func (s *DisplayService) Announce(ctx context.Context, userID, commandID string) error {
	if s == nil {
		return fmt.Errorf("DisplayService is nil")
	}

	logger := s.loggerWith(ctx, "Announce", "user_id", userID, "command_id", commandID)

	if _, err := s.activeUser(ctx, userID); err != nil {
		logger.ErrorContext(ctx, "announce failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if err := s.commands.MarkAnnounced(ctx, userID, commandID, s.now()); err != nil {
		err = mapNotFound(err)
		logger.ErrorContext(ctx, "announce failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "command announced")
	return nil
}

// Ads returns the rotation payload for tenants whose plan carries the ads
// feature. Other plans get ErrForbidden.
func (s *DisplayService) Ads(ctx context.Context, userID string) (payload AdsPayload, err error) {
	if s == nil {
		err = fmt.Errorf("DisplayService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Ads", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "ads lookup failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var user persistence.User
	user, err = s.activeUser(ctx, userID)
	if err != nil {
		return
	}
	var plan persistence.Plan
	plan, err = s.plans.GetPlan(ctx, user.PlanID)
	if err != nil {
		err = mapNotFound(err)
		return
	}
	if !plan.AdsEnabled {
		err = ErrForbidden
		return
	}

	// Placeholder inventory until a real campaign store lands.
	payload = AdsPayload{
		Ads: []Ad{
			{ID: "ad-1", Type: "image", URL: "/ads/promo1.jpg", Duration: 5000, Title: "Promotion spéciale"},
			{ID: "ad-2", Type: "video", URL: "/ads/video1.mp4", Duration: 10000, Title: "Vidéo promotionnelle"},
		},
		RotationInterval:       30000,
		DisplayBetweenCommands: true,
	}
	return
}

func (s *DisplayService) activeUser(ctx context.Context, userID string) (persistence.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.User{}, ErrNotFound
		}
		return persistence.User{}, err
	}
	if !user.IsActive {
		return persistence.User{}, ErrNotFound
	}
	return user, nil
}
