package application

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/callboard/internal/persistence"
)

// memStore backs the service tests with map-based repositories that honor
// the same contracts as the SQLite implementations.
type memStore struct {
	mu         sync.Mutex
	users      map[string]persistence.User
	plans      map[string]persistence.Plan
	counters   map[string]persistence.Counter
	commands   map[string]persistence.Command
	sessions   map[string]persistence.Session
	activities []persistence.ActivityEntry

	createSessionErr error
	appendErr        error
}

func newMemStore() *memStore {
	store := &memStore{
		users:    make(map[string]persistence.User),
		plans:    make(map[string]persistence.Plan),
		counters: make(map[string]persistence.Counter),
		commands: make(map[string]persistence.Command),
		sessions: make(map[string]persistence.Session),
	}
	store.plans["basic"] = persistence.Plan{ID: "basic", Name: "Basic", Features: `["Affichage numéro"]`}
	store.plans["premium"] = persistence.Plan{ID: "premium", Name: "Premium", Price: 29, Features: `["Multi-guichets"]`, VoiceEnabled: true, MultiCounter: true}
	store.plans["golden"] = persistence.Plan{ID: "golden", Name: "Golden", Price: 59, Features: `["Publicités"]`, VoiceEnabled: true, MultiCounter: true, AdsEnabled: true}
	return store
}

// ----------------------------- users -----------------------------

func (s *memStore) CreateUser(_ context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return persistence.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memStore) GetUser(_ context.Context, id string) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (s *memStore) UpdateUser(_ context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.users[user.ID] = user
	return nil
}

// ----------------------------- plans ------------------------------

func (s *memStore) GetPlan(_ context.Context, id string) (persistence.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[id]
	if !ok {
		return persistence.Plan{}, persistence.ErrNotFound
	}
	return plan, nil
}

func (s *memStore) ListPlans(_ context.Context) ([]persistence.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plans := make([]persistence.Plan, 0, len(s.plans))
	for _, plan := range s.plans {
		plans = append(plans, plan)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Price < plans[j].Price })
	return plans, nil
}

// ---------------------------- counters ----------------------------

func (s *memStore) CreateCounter(_ context.Context, counter persistence.Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[counter.ID] = counter
	return nil
}

func (s *memStore) GetCounter(_ context.Context, userID, id string) (persistence.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counter, ok := s.counters[id]
	if !ok || counter.UserID != userID {
		return persistence.Counter{}, persistence.ErrNotFound
	}
	return counter, nil
}

func (s *memStore) ListCounters(_ context.Context, userID string) ([]persistence.Counter, error) {
	return s.listCounters(userID, false), nil
}

func (s *memStore) ListActiveCounters(_ context.Context, userID string) ([]persistence.Counter, error) {
	return s.listCounters(userID, true), nil
}

func (s *memStore) listCounters(userID string, activeOnly bool) []persistence.Counter {
	s.mu.Lock()
	defer s.mu.Unlock()
	counters := make([]persistence.Counter, 0)
	for _, counter := range s.counters {
		if counter.UserID != userID {
			continue
		}
		if activeOnly && !counter.IsActive {
			continue
		}
		counters = append(counters, counter)
	}
	sort.Slice(counters, func(i, j int) bool {
		if counters[i].Position != counters[j].Position {
			return counters[i].Position < counters[j].Position
		}
		return counters[i].CreatedAt.Before(counters[j].CreatedAt)
	})
	return counters
}

func (s *memStore) UpdateCounter(_ context.Context, counter persistence.Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.counters[counter.ID]
	if !ok || existing.UserID != counter.UserID {
		return persistence.ErrNotFound
	}
	s.counters[counter.ID] = counter
	return nil
}

func (s *memStore) DeleteCounter(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	counter, ok := s.counters[id]
	if !ok || counter.UserID != userID {
		return persistence.ErrNotFound
	}
	for cid, command := range s.commands {
		if command.CounterID != nil && *command.CounterID == id {
			command.CounterID = nil
			s.commands[cid] = command
		}
	}
	delete(s.counters, id)
	return nil
}

func (s *memStore) CountCounters(_ context.Context, userID string) (int, error) {
	return len(s.listCounters(userID, false)), nil
}

func (s *memStore) NextPosition(_ context.Context, userID string) (int, error) {
	max := 0
	for _, counter := range s.listCounters(userID, false) {
		if counter.Position > max {
			max = counter.Position
		}
	}
	return max + 1, nil
}

// ---------------------------- commands ----------------------------

func (s *memStore) CreateCommand(_ context.Context, command persistence.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.commands {
		if existing.UserID == command.UserID && existing.Number == command.Number && existing.Status == persistence.CommandStatusActive && command.Status == persistence.CommandStatusActive {
			return persistence.ErrDuplicate
		}
	}
	s.commands[command.ID] = command
	return nil
}

func (s *memStore) GetCommand(_ context.Context, userID, id string) (persistence.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	command, ok := s.commands[id]
	if !ok || command.UserID != userID {
		return persistence.Command{}, persistence.ErrNotFound
	}
	return command, nil
}

func (s *memStore) GetCommandWithCounter(_ context.Context, id string) (persistence.CommandWithCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	command, ok := s.commands[id]
	if !ok {
		return persistence.CommandWithCounter{}, persistence.ErrNotFound
	}
	return s.join(command), nil
}

func (s *memStore) join(command persistence.Command) persistence.CommandWithCounter {
	joined := persistence.CommandWithCounter{Command: command}
	if command.CounterID != nil {
		if counter, ok := s.counters[*command.CounterID]; ok {
			name := counter.Name
			color := counter.Color
			joined.CounterName = &name
			joined.CounterColor = &color
		}
	}
	return joined
}

func (s *memStore) ListCommands(_ context.Context, userID string, filter persistence.CommandFilter) ([]persistence.CommandWithCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := filter.Status
	if status == "" {
		status = persistence.CommandStatusActive
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	matched := make([]persistence.Command, 0)
	for _, command := range s.commands {
		if command.UserID == userID && command.Status == status {
			matched = append(matched, command)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	joined := make([]persistence.CommandWithCounter, 0, len(matched))
	for _, command := range matched {
		joined = append(joined, s.join(command))
	}
	return joined, nil
}

func (s *memStore) ListActiveForDisplay(_ context.Context, userID string) ([]persistence.CommandWithCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]persistence.Command, 0)
	for _, command := range s.commands {
		if command.UserID == userID && command.Status == persistence.CommandStatusActive {
			matched = append(matched, command)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority > matched[j].Priority
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	joined := make([]persistence.CommandWithCounter, 0, len(matched))
	for _, command := range matched {
		joined = append(joined, s.join(command))
	}
	return joined, nil
}

func (s *memStore) UpdateCommand(_ context.Context, userID, id string, update persistence.CommandUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	command, ok := s.commands[id]
	if !ok || command.UserID != userID {
		return persistence.ErrNotFound
	}
	if update.Status != nil {
		command.Status = *update.Status
	}
	if update.SetMessage {
		command.Message = update.Message
	}
	if update.IsAnnounced != nil {
		command.IsAnnounced = *update.IsAnnounced
	}
	if update.UpdatedAt != nil {
		command.UpdatedAt = *update.UpdatedAt
	}
	if update.AnnouncedAt != nil {
		command.AnnouncedAt = update.AnnouncedAt
	}
	s.commands[id] = command
	return nil
}

func (s *memStore) DeleteCommand(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	command, ok := s.commands[id]
	if !ok || command.UserID != userID {
		return persistence.ErrNotFound
	}
	delete(s.commands, id)
	return nil
}

func (s *memStore) HasActiveNumber(_ context.Context, userID, number string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, command := range s.commands {
		if command.UserID == userID && command.Number == number && command.Status == persistence.CommandStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) MarkAnnounced(_ context.Context, userID, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	command, ok := s.commands[id]
	if !ok || command.UserID != userID || command.Status != persistence.CommandStatusActive {
		return persistence.ErrNotFound
	}
	command.IsAnnounced = true
	command.AnnouncedAt = &at
	command.UpdatedAt = at
	s.commands[id] = command
	return nil
}

func (s *memStore) CommandStats(_ context.Context, userID string, dayStart, dayEnd time.Time) (persistence.CommandStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats persistence.CommandStats
	for _, command := range s.commands {
		if command.UserID != userID {
			continue
		}
		inWindow := !command.CreatedAt.Before(dayStart) && command.CreatedAt.Before(dayEnd)
		if command.Status == persistence.CommandStatusActive {
			stats.Active++
		}
		if inWindow {
			stats.CreatedToday++
			switch command.Status {
			case persistence.CommandStatusCompleted:
				stats.CompletedToday++
			case persistence.CommandStatusCancelled:
				stats.CancelledToday++
			}
		}
	}
	return stats, nil
}

// ---------------------------- sessions ----------------------------

func (s *memStore) CreateSession(_ context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createSessionErr != nil {
		return persistence.Session{}, s.createSessionErr
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *memStore) GetSession(_ context.Context, token string) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *memStore) DeleteSessionByToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *memStore) DeleteExpiredSessions(_ context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

// ---------------------------- activity ----------------------------

func (s *memStore) AppendActivity(_ context.Context, entry persistence.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.activities = append(s.activities, entry)
	return nil
}

func (s *memStore) activityActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := make([]string, 0, len(s.activities))
	for _, entry := range s.activities {
		actions = append(actions, entry.Action)
	}
	return actions
}
