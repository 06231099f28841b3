package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/callboard/internal/application"
)

type displayService interface {
	Snapshot(ctx context.Context, userID string) (application.DisplayData, error)
	Ping(ctx context.Context, userID string) (application.PingResult, error)
	Stats(ctx context.Context, userID string) (application.DisplayStats, error)
	Announce(ctx context.Context, userID, commandID string) error
	Ads(ctx context.Context, userID string) (application.AdsPayload, error)
}

// DisplayHandler serves the unauthenticated endpoints polled by the public
// display screens.
type DisplayHandler struct {
	service   displayService
	responder responder
	logger    *slog.Logger
}

func NewDisplayHandler(service displayService, logger *slog.Logger) *DisplayHandler {
	base := defaultLogger(logger)
	return &DisplayHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DisplayHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DisplayHandler", operation, attrs...)
}

func (h *DisplayHandler) Snapshot(w http.ResponseWriter, r *http.Request, userID string) {
	if !h.ready(w) {
		return
	}

	data, err := h.service.Snapshot(r.Context(), userID)
	if err != nil {
		h.log(r.Context(), "Snapshot", "user_id", userID).ErrorContext(r.Context(), "display snapshot failed", "error", err, "error_kind", application.ErrorKind(err))
		h.writeDisplayError(r, w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, data)
}

func (h *DisplayHandler) Ping(w http.ResponseWriter, r *http.Request, userID string) {
	if !h.ready(w) {
		return
	}

	result, err := h.service.Ping(r.Context(), userID)
	if err != nil {
		h.log(r.Context(), "Ping", "user_id", userID).ErrorContext(r.Context(), "display ping failed", "error", err, "error_kind", application.ErrorKind(err))
		h.writeDisplayError(r, w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, result)
}

func (h *DisplayHandler) Stats(w http.ResponseWriter, r *http.Request, userID string) {
	if !h.ready(w) {
		return
	}

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		h.log(r.Context(), "Stats", "user_id", userID).ErrorContext(r.Context(), "display stats failed", "error", err, "error_kind", application.ErrorKind(err))
		h.writeDisplayError(r, w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, stats)
}

func (h *DisplayHandler) Announce(w http.ResponseWriter, r *http.Request, userID, commandID string) {
	if !h.ready(w) {
		return
	}

	logger := h.log(r.Context(), "Announce", "user_id", userID, "command_id", commandID)

	if err := h.service.Announce(r.Context(), userID, commandID); err != nil {
		logger.ErrorContext(r.Context(), "announce failed", "error", err, "error_kind", application.ErrorKind(err))
		if errors.Is(err, application.ErrNotFound) {
			h.responder.writeJSON(r.Context(), w, http.StatusNotFound, apiResponse{Success: false, Error: "Commande non trouvée"})
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "command announced")
	h.responder.writeMessage(r.Context(), w, http.StatusOK, "Commande annoncée", nil)
}

func (h *DisplayHandler) Ads(w http.ResponseWriter, r *http.Request, userID string) {
	if !h.ready(w) {
		return
	}

	payload, err := h.service.Ads(r.Context(), userID)
	if err != nil {
		h.log(r.Context(), "Ads", "user_id", userID).ErrorContext(r.Context(), "ads lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.writeDisplayError(r, w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, payload)
}

func (h *DisplayHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// writeDisplayError gives unknown or suspended tenants a display-specific
// not found message.
func (h *DisplayHandler) writeDisplayError(r *http.Request, w http.ResponseWriter, err error) {
	if errors.Is(err, application.ErrNotFound) {
		h.responder.writeJSON(r.Context(), w, http.StatusNotFound, apiResponse{Success: false, Error: "Restaurant non trouvé"})
		return
	}
	h.responder.handleServiceError(r.Context(), w, err)
}
