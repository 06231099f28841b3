package application

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when the requested resource does not exist
	// or is not owned by the caller.
	ErrNotFound = errors.New("application: not found")
	// ErrUnauthorized is returned when the session token is missing,
	// unknown, or tied to an inactive account.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrInvalidCredentials is returned for every login failure so callers
	// cannot distinguish unknown accounts from wrong passwords.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token has passed its
	// expiration.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrEmailTaken is returned when registering an already used email.
	ErrEmailTaken = errors.New("application: email already registered")
	// ErrNumberActive is returned when the tenant already has an active
	// command with the requested number.
	ErrNumberActive = errors.New("application: number already active")
	// ErrPlanLimit is returned when the tenant's plan does not allow the
	// requested resource count.
	ErrPlanLimit = errors.New("application: plan limit reached")
	// ErrForbidden is returned when the tenant's plan does not enable the
	// requested feature.
	ErrForbidden = errors.New("application: forbidden")
	// ErrLastCounter is returned when deleting a counter would leave the
	// tenant with none.
	ErrLastCounter = errors.New("application: cannot delete last counter")
)

// ValidationError carries field-level validation messages surfaced to the
// API envelope.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error joins the field messages in a stable order.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}

	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, v.FieldErrors[field])
	}
	return strings.Join(messages, "; ")
}

// HasErrors reports whether any field issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

func newValidationError(field, message string) *ValidationError {
	vErr := &ValidationError{}
	vErr.add(field, message)
	return vErr
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrEmailTaken):
		return "email_taken"
	case errors.Is(err, ErrNumberActive):
		return "number_active"
	case errors.Is(err, ErrPlanLimit):
		return "plan_limit"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrLastCounter):
		return "last_counter"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	return "unexpected"
}
