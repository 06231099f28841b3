package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/example/callboard/internal/persistence"
)

// appendActivity writes an audit entry. The audit trail is best effort and
// never blocks the primary operation.
func appendActivity(ctx context.Context, logger *slog.Logger, activity persistence.ActivityRepository, idGenerator func() string, userID, action string, details map[string]string, now time.Time) {
	if activity == nil {
		return
	}
	payload, err := json.Marshal(details)
	if err != nil || details == nil {
		payload = []byte("{}")
	}
	entry := persistence.ActivityEntry{
		ID:        idGenerator(),
		UserID:    userID,
		Action:    action,
		Details:   string(payload),
		CreatedAt: now,
	}
	if err := activity.AppendActivity(ctx, entry); err != nil {
		logger.WarnContext(ctx, "failed to append activity entry", "action", action, "error", err)
	}
}
