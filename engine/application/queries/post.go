package queries

import (
	"context"
	"errors"

	"crossvote/engine/domain/entities"
	domainerrors "crossvote/engine/domain/errors"
	"crossvote/engine/ports"
)

// PostQueries resolves posts and tallies through any copy id.
type PostQueries struct {
	Posts ports.PostRepository
	Links ports.CopyLinkRepository
}

// PostTally is the authoritative counter pair for a root post.
type PostTally struct {
	RootID      string
	OwnerID     string
	SmashCount  int64
	RejectCount int64
	CopyCount   int
}

// GetPost resolves any message id (root or copy) to the root post.
func (q PostQueries) GetPost(ctx context.Context, anyID string) (entities.Post, error) {
	rootID, err := q.Links.ResolveRoot(ctx, anyID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrPostNotFound) {
			// A root created before linking existed has no reflexive row.
			rootID = anyID
		} else {
			return entities.Post{}, err
		}
	}
	return q.Posts.GetPost(ctx, rootID)
}

// GetTally returns the single authoritative count pair for whichever copy the
// caller saw, plus how many messages carry it.
func (q PostQueries) GetTally(ctx context.Context, anyID string) (PostTally, error) {
	post, err := q.GetPost(ctx, anyID)
	if err != nil {
		return PostTally{}, err
	}
	copies, err := q.Links.ListCopies(ctx, post.MessageID)
	if err != nil {
		return PostTally{}, err
	}
	return PostTally{
		RootID:      post.MessageID,
		OwnerID:     post.OwnerID,
		SmashCount:  post.SmashCount,
		RejectCount: post.RejectCount,
		CopyCount:   len(copies),
	}, nil
}
