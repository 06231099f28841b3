package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/example/callboard/internal/persistence"
)

// CommandService manages the call lifecycle for the tenant dashboard.
type CommandService struct {
	commands    persistence.CommandRepository
	counters    persistence.CounterRepository
	users       persistence.UserRepository
	plans       persistence.PlanRepository
	activity    persistence.ActivityRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCommandService constructs a CommandService with the provided dependencies.
func NewCommandService(commands persistence.CommandRepository, counters persistence.CounterRepository, users persistence.UserRepository, plans persistence.PlanRepository, activity persistence.ActivityRepository, idGenerator func() string, now func() time.Time) *CommandService {
	return NewCommandServiceWithLogger(commands, counters, users, plans, activity, idGenerator, now, nil)
}

// NewCommandServiceWithLogger constructs a CommandService with a specified logger.
func NewCommandServiceWithLogger(commands persistence.CommandRepository, counters persistence.CounterRepository, users persistence.UserRepository, plans persistence.PlanRepository, activity persistence.ActivityRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CommandService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CommandService{
		commands:    commands,
		counters:    counters,
		users:       users,
		plans:       plans,
		activity:    activity,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *CommandService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CommandService", operation, attrs...)
}

// List returns the tenant's commands, newest first. The status defaults to
// active and the page size to fifty.
func (s *CommandService) List(ctx context.Context, userID string, params ListCommandsParams) ([]Command, error) {
	if s == nil {
		return nil, fmt.Errorf("CommandService is nil")
	}

	filter := persistence.CommandFilter{Status: strings.TrimSpace(params.Status), Limit: params.Limit}
	commands, err := s.commands.ListCommands(ctx, userID, filter)
	if err != nil {
		s.loggerWith(ctx, "List", "user_id", userID).ErrorContext(ctx, "command listing failed", "error", err)
		return nil, err
	}
	return toCommandsWithCounter(commands), nil
}

// Create registers a new call. A tenant cannot hold two active calls on the
// same number.
func (s *CommandService) Create(ctx context.Context, userID string, params CreateCommandParams) (command Command, err error) {
	if s == nil {
		err = fmt.Errorf("CommandService is nil")
		return
	}

	number := strings.TrimSpace(params.Number)
	logger := s.loggerWith(ctx, "Create", "user_id", userID, "number", number)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "command creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("command_id", command.ID).InfoContext(ctx, "command created")
	}()

	if number == "" {
		err = newValidationError("number", "Numéro de commande requis")
		return
	}
	if !validCommandNumber(number) {
		err = newValidationError("number", "Numéro invalide (1-4 caractères, lettres et chiffres)")
		return
	}

	var taken bool
	taken, err = s.commands.HasActiveNumber(ctx, userID, number)
	if err != nil {
		return
	}
	if taken {
		err = ErrNumberActive
		return
	}

	var counterID *string
	if params.CounterID != nil && strings.TrimSpace(*params.CounterID) != "" {
		id := strings.TrimSpace(*params.CounterID)
		if _, lookupErr := s.counters.GetCounter(ctx, userID, id); lookupErr != nil {
			if errors.Is(lookupErr, persistence.ErrNotFound) {
				err = newValidationError("counter_id", "Guichet invalide")
				return
			}
			err = lookupErr
			return
		}
		counterID = &id
	}

	var message *string
	if sanitized := SanitizeText(params.Message); sanitized != "" {
		message = &sanitized
	}

	now := s.now()
	record := persistence.Command{
		ID:        s.idGenerator(),
		Number:    number,
		Message:   message,
		UserID:    userID,
		CounterID: counterID,
		Status:    persistence.CommandStatusActive,
		Priority:  params.Priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = s.commands.CreateCommand(ctx, record); err != nil {
		// The partial unique index catches a concurrent create that slipped
		// past the pre-check.
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrNumberActive
		}
		return
	}

	s.recordActivity(ctx, logger, userID, "command_created", map[string]string{"command_id": record.ID, "number": number}, now)

	command, err = s.joined(ctx, record)
	return
}

// Update applies the non-nil fields to an owned command. A status outside
// the lifecycle enum is silently ignored and does not count toward the
// update set.
func (s *CommandService) Update(ctx context.Context, userID, commandID string, params UpdateCommandParams) (command Command, err error) {
	if s == nil {
		err = fmt.Errorf("CommandService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Update", "user_id", userID, "command_id", commandID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "command update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "command updated")
	}()

	var record persistence.Command
	record, err = s.commands.GetCommand(ctx, userID, commandID)
	if err != nil {
		err = mapNotFound(err)
		return
	}

	now := s.now()
	update := persistence.CommandUpdate{}
	details := map[string]string{"command_id": commandID}
	changed := false

	if params.Status != nil {
		if status := CommandStatus(*params.Status); status.Valid() {
			value := string(status)
			update.Status = &value
			details["status"] = value
			changed = true
		}
	}
	if params.Message != nil {
		update.SetMessage = true
		if sanitized := SanitizeText(*params.Message); sanitized != "" {
			update.Message = &sanitized
			details["message"] = sanitized
		}
		changed = true
	}
	if params.IsAnnounced != nil {
		update.IsAnnounced = params.IsAnnounced
		if *params.IsAnnounced {
			update.AnnouncedAt = &now
		}
		details["is_announced"] = strconv.FormatBool(*params.IsAnnounced)
		changed = true
	}

	if !changed {
		err = newValidationError("fields", "Aucune modification spécifiée")
		return
	}

	update.UpdatedAt = &now
	if err = s.commands.UpdateCommand(ctx, userID, commandID, update); err != nil {
		err = mapNotFound(err)
		return
	}

	s.recordActivity(ctx, logger, userID, "command_updated", details, now)

	command, err = s.joined(ctx, record)
	return
}

// Delete removes an owned command.
func (s *CommandService) Delete(ctx context.Context, userID, commandID string) error {
	if s == nil {
		return fmt.Errorf("CommandService is nil")
	}

	logger := s.loggerWith(ctx, "Delete", "user_id", userID, "command_id", commandID)

	if err := s.commands.DeleteCommand(ctx, userID, commandID); err != nil {
		err = mapNotFound(err)
		logger.ErrorContext(ctx, "command deletion failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.recordActivity(ctx, logger, userID, "command_deleted", map[string]string{"command_id": commandID}, s.now())
	logger.InfoContext(ctx, "command deleted")
	return nil
}

// Stats aggregates the tenant's queue over the current UTC day, enriched
// with its plan name and feature list.
func (s *CommandService) Stats(ctx context.Context, userID string) (stats DashboardStats, err error) {
	if s == nil {
		err = fmt.Errorf("CommandService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Stats", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "stats aggregation failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	dayStart, dayEnd := dayWindow(s.now())
	var counts persistence.CommandStats
	counts, err = s.commands.CommandStats(ctx, userID, dayStart, dayEnd)
	if err != nil {
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

	stats = DashboardStats{
		ActiveCommands: counts.Active,
		TotalToday:     counts.CreatedToday,
		PlanName:       plan.Name,
		Features:       parseFeatures(plan.Features),
	}
	return
}

func (s *CommandService) joined(ctx context.Context, record persistence.Command) (Command, error) {
	joined, err := s.commands.GetCommandWithCounter(ctx, record.ID)
	if err != nil {
		return Command{}, mapNotFound(err)
	}
	return toCommandWithCounter(joined), nil
}

func (s *CommandService) recordActivity(ctx context.Context, logger *slog.Logger, userID, action string, details map[string]string, now time.Time) {
	appendActivity(ctx, logger, s.activity, s.idGenerator, userID, action, details, now)
}

// dayWindow bounds the current UTC day, half open.
func dayWindow(now time.Time) (time.Time, time.Time) {
	utc := now.UTC()
	start := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
