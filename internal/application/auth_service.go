package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/callboard/internal/persistence"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// PasswordHasher derives a storable hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

const (
	defaultPlanID      = "basic"
	defaultBrandColor  = "#3b82f6"
	defaultCounterName = "Comptoir Principal"
	defaultSessionTTL  = 7 * 24 * time.Hour
)

// AuthService coordinates registration, login, and session validation.
type AuthService struct {
	users          persistence.UserRepository
	sessions       persistence.SessionRepository
	counters       persistence.CounterRepository
	activity       persistence.ActivityRepository
	hashPassword   PasswordHasher
	verifyPassword PasswordVerifier
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users persistence.UserRepository, sessions persistence.SessionRepository, counters persistence.CounterRepository, activity persistence.ActivityRepository, idGenerator, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(users, sessions, counters, activity, idGenerator, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(users persistence.UserRepository, sessions persistence.SessionRepository, counters persistence.CounterRepository, activity persistence.ActivityRepository, idGenerator, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &AuthService{
		users:          users,
		sessions:       sessions,
		counters:       counters,
		activity:       activity,
		hashPassword:   func(password string) (string, error) { return CreatePasswordHash(password, DefaultArgon2idParams) },
		verifyPassword: VerifyPassword,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Register creates a tenant account with its default counter and opens a
// first session.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.users == nil || s.sessions == nil || s.counters == nil {
		err = fmt.Errorf("auth repositories not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	restaurantName := SanitizeText(params.RestaurantName)

	logger := s.loggerWith(ctx, "Register", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "registration succeeded")
	}()

	vErr := &ValidationError{}
	if email == "" {
		vErr.add("email", "Tous les champs sont requis")
	} else if !validEmail(email) {
		vErr.add("email", "Format email invalide")
	}
	if params.Password == "" {
		vErr.add("password", "Tous les champs sont requis")
	} else if len(params.Password) < 6 {
		vErr.add("password", "Le mot de passe doit contenir au moins 6 caractères")
	}
	if restaurantName == "" {
		vErr.add("restaurant_name", "Tous les champs sont requis")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if _, lookupErr := s.users.GetUserByEmail(ctx, email); lookupErr == nil {
		err = ErrEmailTaken
		return
	} else if !errors.Is(lookupErr, persistence.ErrNotFound) {
		err = lookupErr
		return
	}

	var passwordHash string
	passwordHash, err = s.hashPassword(params.Password)
	if err != nil {
		return
	}

	now := s.now()
	user := persistence.User{
		ID:             s.idGenerator(),
		Email:          email,
		PasswordHash:   passwordHash,
		RestaurantName: restaurantName,
		PlanID:         defaultPlanID,
		BrandColor:     defaultBrandColor,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err = s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrEmailTaken
		}
		return
	}

	counter := persistence.Counter{
		ID:        s.idGenerator(),
		UserID:    user.ID,
		Name:      defaultCounterName,
		Color:     defaultBrandColor,
		IsActive:  true,
		Position:  1,
		CreatedAt: now,
	}
	if err = s.counters.CreateCounter(ctx, counter); err != nil {
		return
	}

	var session persistence.Session
	session, err = s.openSession(ctx, user.ID, now)
	if err != nil {
		return
	}

	s.recordActivity(ctx, logger, user.ID, "user_registered", map[string]string{"email": email}, now)

	result = AuthResult{User: toUser(user), Token: session.Token, ExpiresAt: session.ExpiresAt}
	return
}

// Login validates credentials and issues a new session token. Unknown
// accounts, disabled accounts, and wrong passwords are indistinguishable
// to the caller.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.users == nil || s.sessions == nil {
		err = fmt.Errorf("auth repositories not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))

	logger := s.loggerWith(ctx, "Login", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "login succeeded")
	}()

	// Missing or malformed input is a validation failure; only real
	// authentication attempts collapse into ErrInvalidCredentials.
	if email == "" || params.Password == "" {
		err = newValidationError("credentials", "Email et mot de passe requis")
		return
	}
	if !validEmail(email) {
		err = newValidationError("email", "Format email invalide")
		return
	}

	var user persistence.User
	user, err = s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}
	if !user.IsActive {
		err = ErrInvalidCredentials
		return
	}
	if verifyErr := s.verifyPassword(user.PasswordHash, params.Password); verifyErr != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now()
	if pruneErr := s.sessions.DeleteExpiredSessions(ctx, now); pruneErr != nil {
		logger.WarnContext(ctx, "failed to prune expired sessions", "error", pruneErr)
	}

	var session persistence.Session
	session, err = s.openSession(ctx, user.ID, now)
	if err != nil {
		return
	}

	s.recordActivity(ctx, logger, user.ID, "user_login", map[string]string{"email": email}, now)

	result = AuthResult{User: toUser(user), Token: session.Token, ExpiresAt: session.ExpiresAt}
	return
}

// Logout discards the session behind the token. Unknown tokens are not an
// error so repeated logouts stay harmless.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("auth repositories not configured")
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "Logout", "token_provided", trimmed != "")
	if trimmed == "" {
		logger.InfoContext(ctx, "logout without token ignored")
		return nil
	}

	if err := s.sessions.DeleteSessionByToken(ctx, trimmed); err != nil {
		logger.ErrorContext(ctx, "logout failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "logout succeeded")
	return nil
}

// ValidateSession resolves a bearer token to its active account.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.users == nil || s.sessions == nil {
		err = fmt.Errorf("auth repositories not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "session validated")
	}()

	if trimmed == "" {
		err = ErrUnauthorized
		return
	}

	var session persistence.Session
	session, err = s.sessions.GetSession(ctx, trimmed)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}

	now := s.now()
	if !session.ExpiresAt.After(now) {
		if deleteErr := s.sessions.DeleteSessionByToken(ctx, trimmed); deleteErr != nil {
			logger.WarnContext(ctx, "failed to delete expired session", "error", deleteErr)
		}
		err = ErrSessionExpired
		return
	}

	var stored persistence.User
	stored, err = s.users.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}
	if !stored.IsActive {
		err = ErrUnauthorized
		return
	}

	user = toUser(stored)
	return
}

func (s *AuthService) openSession(ctx context.Context, userID string, now time.Time) (persistence.Session, error) {
	token := s.tokenGenerator()
	if token == "" {
		token = s.idGenerator()
	}
	session := persistence.Session{
		ID:        s.idGenerator(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	return s.sessions.CreateSession(ctx, session)
}

func (s *AuthService) recordActivity(ctx context.Context, logger *slog.Logger, userID, action string, details map[string]string, now time.Time) {
	appendActivity(ctx, logger, s.activity, s.idGenerator, userID, action, details, now)
}
