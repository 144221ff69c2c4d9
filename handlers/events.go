package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"finora/api/logger"
	"finora/api/models"

	"go.uber.org/zap"
)

// DeliverProfileEvent is the worker pool handler for profile events. The
// save may have happened on another instance, so the user's snapshot and
// idle editor are dropped before the event reaches their streams; the
// refetch that follows reads the shared store.
func (h *Handler) DeliverProfileEvent(_ context.Context, job []byte) error {
	var event models.ProfileEvent
	if err := json.Unmarshal(job, &event); err != nil {
		return fmt.Errorf("failed to unmarshal profile event: %w", err)
	}
	if event.UserID == "" {
		return fmt.Errorf("profile event %s has no user", event.EventID)
	}

	h.forget(event.UserID)
	delivered := h.hub.Send(event.UserID, string(job))
	logger.Get().Debug("profile event delivered",
		zap.String("event_id", event.EventID),
		zap.String("user_id", event.UserID),
		zap.Int("streams", delivered))
	return nil
}
