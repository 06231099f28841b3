package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/callboard/internal/application"
)

var (
	errBadRequestBody      = errors.New("Format de requête invalide")
	errMissingSessionToken = errors.New("Token d'authentification requis")
)

// apiResponse is the envelope shared by every endpoint. Success responses
// carry data and sometimes a message; failures carry only an error string.
type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeData(ctx context.Context, w http.ResponseWriter, status int, data any) {
	r.writeJSON(ctx, w, status, apiResponse{Success: true, Data: data})
}

func (r responder) writeMessage(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	r.writeJSON(ctx, w, status, apiResponse{Success: true, Data: data, Message: message})
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := err.Error(); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, apiResponse{Success: false, Error: message})
}

// handleServiceError maps application errors onto the envelope. Handlers
// with a more specific message for ErrNotFound intercept it before calling
// this.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, apiResponse{Success: false, Error: "Email ou mot de passe incorrect"})
	case errors.Is(err, application.ErrSessionExpired):
		r.writeJSON(ctx, w, http.StatusUnauthorized, apiResponse{Success: false, Error: "Session expirée"})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusUnauthorized, apiResponse{Success: false, Error: "Non autorisé"})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, apiResponse{Success: false, Error: statusMessage(http.StatusNotFound)})
	// Conflicts and plan limits surface as 400, like every other rejected
	// input.
	case errors.Is(err, application.ErrEmailTaken):
		r.writeJSON(ctx, w, http.StatusBadRequest, apiResponse{Success: false, Error: "Un compte existe déjà avec cet email"})
	case errors.Is(err, application.ErrNumberActive):
		r.writeJSON(ctx, w, http.StatusBadRequest, apiResponse{Success: false, Error: "Une commande avec ce numéro est déjà active"})
	case errors.Is(err, application.ErrPlanLimit):
		r.writeJSON(ctx, w, http.StatusBadRequest, apiResponse{Success: false, Error: "Votre plan ne permet pas d'ajouter plus de guichets"})
	case errors.Is(err, application.ErrForbidden):
		r.writeJSON(ctx, w, http.StatusForbidden, apiResponse{Success: false, Error: "Fonctionnalité non disponible avec votre plan"})
	case errors.Is(err, application.ErrLastCounter):
		r.writeJSON(ctx, w, http.StatusBadRequest, apiResponse{Success: false, Error: "Impossible de supprimer le dernier guichet"})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusBadRequest, apiResponse{Success: false, Error: vErr.Error()})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, apiResponse{Success: false, Error: statusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Requête invalide"
	case http.StatusUnauthorized:
		return "Non autorisé"
	case http.StatusForbidden:
		return "Accès refusé"
	case http.StatusNotFound:
		return "Ressource non trouvée"
	case http.StatusConflict:
		return "Conflit avec l'état actuel de la ressource"
	default:
		return "Erreur interne du serveur"
	}
}
