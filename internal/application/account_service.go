package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/callboard/internal/persistence"
)

// AccountService manages tenant profiles and their counters.
type AccountService struct {
	users       persistence.UserRepository
	plans       persistence.PlanRepository
	counters    persistence.CounterRepository
	activity    persistence.ActivityRepository
	idGenerator func() string
	now         func() time.Time
	pickColor   func(index int) string
	logger      *slog.Logger
}

// NewAccountService constructs an AccountService with the provided dependencies.
func NewAccountService(users persistence.UserRepository, plans persistence.PlanRepository, counters persistence.CounterRepository, activity persistence.ActivityRepository, idGenerator func() string, now func() time.Time) *AccountService {
	return NewAccountServiceWithLogger(users, plans, counters, activity, idGenerator, now, nil)
}

// NewAccountServiceWithLogger constructs an AccountService with a specified logger.
func NewAccountServiceWithLogger(users persistence.UserRepository, plans persistence.PlanRepository, counters persistence.CounterRepository, activity persistence.ActivityRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AccountService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AccountService{
		users:       users,
		plans:       plans,
		counters:    counters,
		activity:    activity,
		idGenerator: idGenerator,
		now:         now,
		pickColor:   paletteColor,
		logger:      defaultLogger(logger),
	}
}

func (s *AccountService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AccountService", operation, attrs...)
}

// Profile returns the account with its plan metadata and ordered counters.
func (s *AccountService) Profile(ctx context.Context, userID string) (profile Profile, err error) {
	if s == nil {
		err = fmt.Errorf("AccountService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Profile", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "profile lookup failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var user persistence.User
	user, err = s.users.GetUser(ctx, userID)
	if err != nil {
		err = mapNotFound(err)
		return
	}

	var plan persistence.Plan
	plan, err = s.plans.GetPlan(ctx, user.PlanID)
	if err != nil {
		err = mapNotFound(err)
		return
	}

	var counters []persistence.Counter
	counters, err = s.counters.ListCounters(ctx, userID)
	if err != nil {
		return
	}

	profile = Profile{User: toUser(user), Plan: toPlan(plan), Counters: toCounters(counters)}
	return
}

// UpdateProfile applies the provided fields. Empty strings and invalid
// brand colors are skipped rather than rejected, matching the dashboard's
// lenient contract, and do not count toward the update set.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (updated User, err error) {
	if s == nil {
		err = fmt.Errorf("AccountService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateProfile", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "profile update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "profile updated")
	}()

	var user persistence.User
	user, err = s.users.GetUser(ctx, userID)
	if err != nil {
		err = mapNotFound(err)
		return
	}

	changed := false
	if params.RestaurantName != nil {
		if name := SanitizeText(*params.RestaurantName); name != "" {
			user.RestaurantName = name
			changed = true
		}
	}
	if params.LogoURL != nil {
		if trimmed := SanitizeText(*params.LogoURL); trimmed != "" {
			user.LogoURL = &trimmed
			changed = true
		}
	}
	if params.BrandColor != nil && validHexColor(*params.BrandColor) {
		user.BrandColor = *params.BrandColor
		changed = true
	}
	if params.VoiceSettings != nil && *params.VoiceSettings != "" {
		settings := *params.VoiceSettings
		user.VoiceSettings = &settings
		changed = true
	}

	if !changed {
		err = newValidationError("fields", "Aucune modification spécifiée")
		return
	}

	user.UpdatedAt = s.now()
	if err = s.users.UpdateUser(ctx, user); err != nil {
		err = mapNotFound(err)
		return
	}

	updated = toUser(user)
	return
}

// ListCounters returns the tenant's counters ordered by position.
func (s *AccountService) ListCounters(ctx context.Context, userID string) ([]Counter, error) {
	if s == nil {
		return nil, fmt.Errorf("AccountService is nil")
	}
	counters, err := s.counters.ListCounters(ctx, userID)
	if err != nil {
		s.loggerWith(ctx, "ListCounters", "user_id", userID).ErrorContext(ctx, "counter listing failed", "error", err)
		return nil, err
	}
	return toCounters(counters), nil
}

// CreateCounter adds a counter at the end of the board. Plans without the
// multi counter feature are capped at a single counter.
func (s *AccountService) CreateCounter(ctx context.Context, userID string, params CreateCounterParams) (counter Counter, err error) {
	if s == nil {
		err = fmt.Errorf("AccountService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateCounter", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "counter creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("counter_id", counter.ID).InfoContext(ctx, "counter created")
	}()

	name := SanitizeText(params.Name)
	if name == "" {
		err = newValidationError("name", "Nom du guichet requis")
		return
	}

	var user persistence.User
	user, err = s.users.GetUser(ctx, userID)
	if err != nil {
		err = mapNotFound(err)
		return
	}

	var plan persistence.Plan
	plan, err = s.plans.GetPlan(ctx, user.PlanID)
	if err != nil {
		err = mapNotFound(err)
		return
	}

	var count int
	count, err = s.counters.CountCounters(ctx, userID)
	if err != nil {
		return
	}
	if !plan.MultiCounter && count >= 1 {
		err = ErrPlanLimit
		return
	}

	color := params.Color
	if !validHexColor(color) {
		color = s.pickColor(count)
	}

	var position int
	position, err = s.counters.NextPosition(ctx, userID)
	if err != nil {
		return
	}

	now := s.now()
	record := persistence.Counter{
		ID:        s.idGenerator(),
		UserID:    userID,
		Name:      name,
		Color:     color,
		IsActive:  true,
		Position:  position,
		CreatedAt: now,
	}
	if err = s.counters.CreateCounter(ctx, record); err != nil {
		return
	}

	s.recordActivity(ctx, logger, userID, "counter_created", map[string]string{"counter_id": record.ID, "name": name}, now)

	counter = toCounter(record)
	return
}

// UpdateCounter applies the non-nil fields to one of the tenant's counters.
func (s *AccountService) UpdateCounter(ctx context.Context, userID, counterID string, params UpdateCounterParams) (counter Counter, err error) {
	if s == nil {
		err = fmt.Errorf("AccountService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateCounter", "user_id", userID, "counter_id", counterID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "counter update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "counter updated")
	}()

	var record persistence.Counter
	record, err = s.counters.GetCounter(ctx, userID, counterID)
	if err != nil {
		err = mapNotFound(err)
		return
	}

	changed := false
	if params.Name != nil {
		name := SanitizeText(*params.Name)
		if name == "" {
			err = newValidationError("name", "Nom du guichet requis")
			return
		}
		record.Name = name
		changed = true
	}
	if params.Color != nil && validHexColor(*params.Color) {
		record.Color = *params.Color
		changed = true
	}
	if params.IsActive != nil {
		record.IsActive = *params.IsActive
		changed = true
	}
	if params.Position != nil {
		if *params.Position < 1 {
			err = newValidationError("position", "Position invalide")
			return
		}
		record.Position = *params.Position
		changed = true
	}

	if !changed {
		err = newValidationError("fields", "Aucune modification spécifiée")
		return
	}

	if err = s.counters.UpdateCounter(ctx, record); err != nil {
		err = mapNotFound(err)
		return
	}

	counter = toCounter(record)
	return
}

// DeleteCounter removes a counter, detaching its calls first. The last
// remaining counter cannot be removed.
func (s *AccountService) DeleteCounter(ctx context.Context, userID, counterID string) error {
	if s == nil {
		return fmt.Errorf("AccountService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteCounter", "user_id", userID, "counter_id", counterID)

	// Ownership is verified before the floor check so a foreign or unknown
	// counter id reports not found, not the last-counter rule.
	if _, err := s.counters.GetCounter(ctx, userID, counterID); err != nil {
		err = mapNotFound(err)
		logger.ErrorContext(ctx, "counter deletion failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	count, err := s.counters.CountCounters(ctx, userID)
	if err != nil {
		logger.ErrorContext(ctx, "counter deletion failed", "error", err)
		return err
	}
	if count <= 1 {
		logger.ErrorContext(ctx, "counter deletion failed", "error", ErrLastCounter, "error_kind", ErrorKind(ErrLastCounter))
		return ErrLastCounter
	}

	if err := s.counters.DeleteCounter(ctx, userID, counterID); err != nil {
		err = mapNotFound(err)
		logger.ErrorContext(ctx, "counter deletion failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.recordActivity(ctx, logger, userID, "counter_deleted", map[string]string{"counter_id": counterID}, s.now())
	logger.InfoContext(ctx, "counter deleted")
	return nil
}

func (s *AccountService) recordActivity(ctx context.Context, logger *slog.Logger, userID, action string, details map[string]string, now time.Time) {
	appendActivity(ctx, logger, s.activity, s.idGenerator, userID, action, details, now)
}

// mapNotFound rewrites the persistence sentinel into the application one so
// handlers only ever match application errors.
func mapNotFound(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
