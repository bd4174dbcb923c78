package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "crossvote/engine/application"
	"crossvote/engine/domain/entities"
	domainerrors "crossvote/engine/domain/errors"
	"crossvote/engine/ports"
)

// ModerationUseCase toggles bans independently of everything else.
type ModerationUseCase struct {
	Bans   ports.BanRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (uc ModerationUseCase) BanUser(ctx context.Context, userID string, reason string) error {
	logger := application.ResolveLogger(uc.Logger)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domainerrors.ErrInvalidPostInput
	}
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	if err := uc.Bans.SetBan(ctx, entities.Ban{
		UserID:    userID,
		Banned:    true,
		Reason:    strings.TrimSpace(reason),
		CreatedAt: now,
	}); err != nil {
		return err
	}
	logger.Info("user banned",
		"event", "moderation_user_banned",
		"module", "engine",
		"layer", "application",
		"user_id", userID,
	)
	return nil
}

func (uc ModerationUseCase) UnbanUser(ctx context.Context, userID string) error {
	return uc.Bans.RemoveBan(ctx, strings.TrimSpace(userID))
}

func (uc ModerationUseCase) IsBanned(ctx context.Context, userID string) (bool, error) {
	ban, found, err := uc.Bans.GetBan(ctx, strings.TrimSpace(userID))
	if err != nil {
		return false, err
	}
	return found && ban.Banned, nil
}
