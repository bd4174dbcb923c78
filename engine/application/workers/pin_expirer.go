package workers

import (
	"context"
	"log/slog"
	"time"

	application "crossvote/engine/application"
	"crossvote/engine/ports"
)

// PinExpirer unpins messages whose pin window closed. The schedule row is
// deleted even when the unpin call fails, so each pin is attempted at most
// once; a failed unpin is logged and abandoned.
type PinExpirer struct {
	Pins      ports.PinRepository
	Spaces    ports.SpaceRepository
	Transport ports.Transport
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (e PinExpirer) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(e.Logger)
	now := time.Now().UTC()
	if e.Clock != nil {
		now = e.Clock.Now().UTC()
	}

	due, err := e.Pins.ListDuePins(ctx, now)
	if err != nil {
		logger.Error("pin expiry sweep failed",
			"event", "pin_expiry_sweep_failed",
			"module", "engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	unpinned := 0
	for _, pin := range due {
		if e.unpin(ctx, pin.MessageID) {
			unpinned++
		}
		if err := e.Pins.DeletePin(ctx, pin.MessageID); err != nil {
			logger.Error("pin schedule delete failed",
				"event", "pin_expiry_delete_failed",
				"module", "engine",
				"layer", "worker",
				"message_id", pin.MessageID,
				"error", err.Error(),
			)
		}
	}

	if len(due) > 0 {
		logger.Info("pin expiry sweep completed",
			"event", "pin_expiry_sweep_completed",
			"module", "engine",
			"layer", "worker",
			"due_count", len(due),
			"unpinned_count", unpinned,
		)
	}
	return nil
}

// unpin tries each configured space until one accepts the unpin. The schedule
// does not record which space holds the message, so the sweep probes them.
func (e PinExpirer) unpin(ctx context.Context, messageID string) bool {
	logger := application.ResolveLogger(e.Logger)
	spaces, err := e.Spaces.ListPostableSpaces(ctx)
	if err != nil {
		logger.Warn("space listing failed during unpin",
			"event", "pin_expiry_spaces_failed",
			"module", "engine",
			"layer", "worker",
			"message_id", messageID,
			"error", err.Error(),
		)
		return false
	}
	for _, space := range spaces {
		if err := e.Transport.UnpinMessage(ctx, space.SpaceID, messageID); err == nil {
			return true
		}
	}
	logger.Warn("unpin failed in every space; schedule dropped anyway",
		"event", "pin_expiry_unpin_failed",
		"module", "engine",
		"layer", "worker",
		"message_id", messageID,
	)
	return false
}
