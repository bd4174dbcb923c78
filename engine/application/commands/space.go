package commands

import (
	"context"
	"log/slog"
	"strings"

	application "crossvote/engine/application"
	"crossvote/engine/domain/entities"
	domainerrors "crossvote/engine/domain/errors"
	"crossvote/engine/ports"
)

// SpaceUseCase records per-space channel configuration. A space becomes a
// replication destination the moment its post channel is set.
type SpaceUseCase struct {
	Spaces ports.SpaceRepository
	Logger *slog.Logger
}

func (uc SpaceUseCase) ConfigureSpace(
	ctx context.Context,
	spaceID string,
	panelChannelID string,
	postChannelID string,
) error {
	logger := application.ResolveLogger(uc.Logger)
	spaceID = strings.TrimSpace(spaceID)
	if spaceID == "" {
		return domainerrors.ErrInvalidPostInput
	}
	if err := uc.Spaces.SaveSpaceSettings(ctx, entities.SpaceSettings{
		SpaceID:        spaceID,
		PanelChannelID: strings.TrimSpace(panelChannelID),
		PostChannelID:  strings.TrimSpace(postChannelID),
	}); err != nil {
		return err
	}
	logger.Info("space configured",
		"event", "space_configured",
		"module", "engine",
		"layer", "application",
		"space_id", spaceID,
	)
	return nil
}
