package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"crossvote/engine/application/commands"
	"crossvote/engine/application/queries"
	"crossvote/engine/domain/entities"
	httptransport "crossvote/engine/transport/http"
)

type Handler struct {
	Posts        commands.SubmitPostUseCase
	Votes        commands.VoteUseCase
	Entitlements commands.EntitlementUseCase
	Moderation   commands.ModerationUseCase
	Spaces       commands.SpaceUseCase
	PostQueries  queries.PostQueries
	Grants       queries.EntitlementQueries
	Logger       *slog.Logger
}

func (h Handler) SubmitPostHandler(
	ctx context.Context,
	req httptransport.SubmitPostRequest,
) (httptransport.SubmitPostResponse, error) {
	result, err := h.Posts.SubmitPost(ctx, commands.SubmitPostCommand{
		OwnerID: req.OwnerID,
		SpaceID: req.SpaceID,
		Profile: entities.Profile{
			Name:     req.Name,
			Age:      req.Age,
			City:     req.City,
			Bio:      req.Bio,
			ImageURL: req.ImageURL,
		},
	})
	if err != nil {
		return httptransport.SubmitPostResponse{}, err
	}
	return httptransport.SubmitPostResponse{
		RootID:    result.RootID,
		Tier:      string(result.Tier),
		Pinned:    result.Pinned,
		CopyCount: result.CopyCount,
	}, nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	result, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		MessageID: req.MessageID,
		VoterID:   req.VoterID,
		Kind:      entities.VoteKind(req.Kind),
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		RootID:      result.RootID,
		SmashCount:  result.SmashCount,
		RejectCount: result.RejectCount,
	}, nil
}

func (h Handler) PostTallyHandler(ctx context.Context, messageID string) (httptransport.PostTallyResponse, error) {
	tally, err := h.PostQueries.GetTally(ctx, messageID)
	if err != nil {
		return httptransport.PostTallyResponse{}, err
	}
	return httptransport.PostTallyResponse{
		RootID:      tally.RootID,
		OwnerID:     tally.OwnerID,
		SmashCount:  tally.SmashCount,
		RejectCount: tally.RejectCount,
		CopyCount:   tally.CopyCount,
	}, nil
}

func (h Handler) GrantEntitlementHandler(
	ctx context.Context,
	req httptransport.GrantEntitlementRequest,
) (httptransport.EntitlementResponse, error) {
	var duration *time.Duration
	if req.DurationDays != nil {
		d := time.Duration(*req.DurationDays) * 24 * time.Hour
		duration = &d
	}
	grant, err := h.Entitlements.Grant(ctx, req.UserID, req.Tier, duration)
	if err != nil {
		return httptransport.EntitlementResponse{}, err
	}
	return grantResponse(grant), nil
}

func (h Handler) RevokeEntitlementHandler(ctx context.Context, userID string) error {
	return h.Entitlements.Revoke(ctx, userID, "manual")
}

func (h Handler) GetEntitlementHandler(ctx context.Context, userID string) (httptransport.EntitlementResponse, bool, error) {
	grant, found, err := h.Grants.Query(ctx, userID)
	if err != nil || !found {
		return httptransport.EntitlementResponse{}, found, err
	}
	return grantResponse(grant), true, nil
}

func (h Handler) BanUserHandler(ctx context.Context, req httptransport.BanRequest) error {
	return h.Moderation.BanUser(ctx, req.UserID, req.Reason)
}

func (h Handler) UnbanUserHandler(ctx context.Context, userID string) error {
	return h.Moderation.UnbanUser(ctx, userID)
}

func (h Handler) ConfigureSpaceHandler(ctx context.Context, req httptransport.ConfigureSpaceRequest) error {
	return h.Spaces.ConfigureSpace(ctx, req.SpaceID, req.PanelChannelID, req.PostChannelID)
}

func grantResponse(grant entities.EntitlementGrant) httptransport.EntitlementResponse {
	resp := httptransport.EntitlementResponse{
		UserID:    grant.UserID,
		Tier:      string(grant.Tier),
		GrantedAt: grant.GrantedAt.UTC().Format(time.RFC3339),
	}
	if grant.ExpiresAt != nil {
		resp.ExpiresAt = grant.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return resp
}
