package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/example/callboard/internal/application"
)

type commandService interface {
	List(ctx context.Context, userID string, params application.ListCommandsParams) ([]application.Command, error)
	Create(ctx context.Context, userID string, params application.CreateCommandParams) (application.Command, error)
	Update(ctx context.Context, userID, commandID string, params application.UpdateCommandParams) (application.Command, error)
	Delete(ctx context.Context, userID, commandID string) error
	Stats(ctx context.Context, userID string) (application.DashboardStats, error)
}

type CommandHandler struct {
	service   commandService
	responder responder
	logger    *slog.Logger
}

func NewCommandHandler(service commandService, logger *slog.Logger) *CommandHandler {
	base := defaultLogger(logger)
	return &CommandHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CommandHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CommandHandler", operation, attrs...)
}

func (h *CommandHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	params := application.ListCommandsParams{Status: query.Get("status")}
	if raw := query.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			params.Limit = limit
		}
	}

	commands, err := h.service.List(r.Context(), user.ID, params)
	if err != nil {
		h.log(r.Context(), "List", "user_id", user.ID).ErrorContext(r.Context(), "command listing failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, commands)
}

func (h *CommandHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req createCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode command request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "user_id", user.ID, "number", req.Number)

	command, err := h.service.Create(r.Context(), user.ID, application.CreateCommandParams{
		Number:    req.Number,
		Message:   req.Message,
		CounterID: req.CounterID,
		Priority:  req.Priority,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "command creation rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("command_id", command.ID).InfoContext(r.Context(), "command created")
	h.responder.writeMessage(r.Context(), w, http.StatusCreated, "Commande créée", command)
}

func (h *CommandHandler) Update(w http.ResponseWriter, r *http.Request, commandID string) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req updateCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode command update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "user_id", user.ID, "command_id", commandID)

	command, err := h.service.Update(r.Context(), user.ID, commandID, application.UpdateCommandParams{
		Status:      req.Status,
		Message:     req.Message,
		IsAnnounced: req.IsAnnounced,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "command update rejected", "error", err, "error_kind", application.ErrorKind(err))
		if errors.Is(err, application.ErrNotFound) {
			h.responder.writeJSON(r.Context(), w, http.StatusNotFound, apiResponse{Success: false, Error: "Commande non trouvée"})
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "command updated")
	h.responder.writeMessage(r.Context(), w, http.StatusOK, "Commande mise à jour", command)
}

func (h *CommandHandler) Delete(w http.ResponseWriter, r *http.Request, commandID string) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	logger := h.log(r.Context(), "Delete", "user_id", user.ID, "command_id", commandID)

	if err := h.service.Delete(r.Context(), user.ID, commandID); err != nil {
		logger.ErrorContext(r.Context(), "command deletion rejected", "error", err, "error_kind", application.ErrorKind(err))
		if errors.Is(err, application.ErrNotFound) {
			h.responder.writeJSON(r.Context(), w, http.StatusNotFound, apiResponse{Success: false, Error: "Commande non trouvée"})
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "command deleted")
	h.responder.writeMessage(r.Context(), w, http.StatusOK, "Commande supprimée", nil)
}

func (h *CommandHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), user.ID)
	if err != nil {
		h.log(r.Context(), "Stats", "user_id", user.ID).ErrorContext(r.Context(), "stats lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, stats)
}

func (h *CommandHandler) caller(w http.ResponseWriter, r *http.Request) (application.User, bool) {
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

type createCommandRequest struct {
	Number    string  `json:"number"`
	Message   string  `json:"message"`
	CounterID *string `json:"counter_id"`
	Priority  int     `json:"priority"`
}

type updateCommandRequest struct {
	Status      *string `json:"status"`
	Message     *string `json:"message"`
	IsAnnounced *bool   `json:"is_announced"`
}
