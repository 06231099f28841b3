package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/callboard/internal/application"
)

type accountService interface {
	Profile(ctx context.Context, userID string) (application.Profile, error)
	UpdateProfile(ctx context.Context, userID string, params application.UpdateProfileParams) (application.User, error)
	ListCounters(ctx context.Context, userID string) ([]application.Counter, error)
	CreateCounter(ctx context.Context, userID string, params application.CreateCounterParams) (application.Counter, error)
	UpdateCounter(ctx context.Context, userID, counterID string, params application.UpdateCounterParams) (application.Counter, error)
	DeleteCounter(ctx context.Context, userID, counterID string) error
}

type UserHandler struct {
	service   accountService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service accountService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	profile, err := h.service.Profile(r.Context(), user.ID)
	if err != nil {
		h.log(r.Context(), "Profile", "user_id", user.ID).ErrorContext(r.Context(), "profile lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		if errors.Is(err, application.ErrNotFound) {
			h.responder.writeJSON(r.Context(), w, http.StatusNotFound, apiResponse{Success: false, Error: "Utilisateur non trouvé"})
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateProfile", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode profile update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateProfile", "user_id", user.ID)

	updated, err := h.service.UpdateProfile(r.Context(), user.ID, application.UpdateProfileParams{
		RestaurantName: req.RestaurantName,
		LogoURL:        req.LogoURL,
		BrandColor:     req.BrandColor,
		VoiceSettings:  req.VoiceSettings,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "profile update rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "profile updated")
	h.responder.writeMessage(r.Context(), w, http.StatusOK, "Profil mis à jour", updated)
}

func (h *UserHandler) ListCounters(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	counters, err := h.service.ListCounters(r.Context(), user.ID)
	if err != nil {
		h.log(r.Context(), "ListCounters", "user_id", user.ID).ErrorContext(r.Context(), "counter listing failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, counters)
}

func (h *UserHandler) CreateCounter(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req counterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateCounter", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode counter request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CreateCounter", "user_id", user.ID)

	counter, err := h.service.CreateCounter(r.Context(), user.ID, application.CreateCounterParams{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "counter creation rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("counter_id", counter.ID).InfoContext(r.Context(), "counter created")
	h.responder.writeMessage(r.Context(), w, http.StatusCreated, "Guichet créé", counter)
}

func (h *UserHandler) UpdateCounter(w http.ResponseWriter, r *http.Request, counterID string) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req updateCounterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateCounter", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode counter update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateCounter", "user_id", user.ID, "counter_id", counterID)

	counter, err := h.service.UpdateCounter(r.Context(), user.ID, counterID, application.UpdateCounterParams{
		Name:     req.Name,
		Color:    req.Color,
		IsActive: req.IsActive,
		Position: req.Position,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "counter update rejected", "error", err, "error_kind", application.ErrorKind(err))
		if errors.Is(err, application.ErrNotFound) {
			h.responder.writeJSON(r.Context(), w, http.StatusNotFound, apiResponse{Success: false, Error: "Guichet non trouvé"})
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "counter updated")
	h.responder.writeMessage(r.Context(), w, http.StatusOK, "Guichet mis à jour", counter)
}

func (h *UserHandler) DeleteCounter(w http.ResponseWriter, r *http.Request, counterID string) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	logger := h.log(r.Context(), "DeleteCounter", "user_id", user.ID, "counter_id", counterID)

	if err := h.service.DeleteCounter(r.Context(), user.ID, counterID); err != nil {
		logger.ErrorContext(r.Context(), "counter deletion rejected", "error", err, "error_kind", application.ErrorKind(err))
		if errors.Is(err, application.ErrNotFound) {
			h.responder.writeJSON(r.Context(), w, http.StatusNotFound, apiResponse{Success: false, Error: "Guichet non trouvé"})
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "counter deleted")
	h.responder.writeMessage(r.Context(), w, http.StatusOK, "Guichet supprimé", nil)
}

func (h *UserHandler) caller(w http.ResponseWriter, r *http.Request) (application.User, bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return application.User{}, false
	}
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, apiResponse{Success: false, Error: "Non autorisé"})
		return application.User{}, false
	}
	return user, true
}

type updateProfileRequest struct {
	RestaurantName *string `json:"restaurant_name"`
	LogoURL        *string `json:"logo_url"`
	BrandColor     *string `json:"brand_color"`
	VoiceSettings  *string `json:"voice_settings"`
}

type counterRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type updateCounterRequest struct {
	Name     *string `json:"name"`
	Color    *string `json:"color"`
	IsActive *bool   `json:"is_active"`
	Position *int    `json:"position"`
}
