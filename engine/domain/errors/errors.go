package errors

import "errors"

var (
	ErrPostNotFound       = errors.New("post not found")
	ErrSelfVoteForbidden  = errors.New("self-vote forbidden")
	ErrAlreadyVoted       = errors.New("already voted")
	ErrUserBanned         = errors.New("user is banned")
	ErrQuotaExceeded      = errors.New("daily post limit reached")
	ErrSpaceNotConfigured = errors.New("space has no post channel configured")
	ErrInvalidTier        = errors.New("invalid entitlement tier")
	ErrInvalidVoteKind    = errors.New("invalid vote kind")
	ErrInvalidPostInput   = errors.New("invalid post input")
	ErrDeliveryFailed     = errors.New("message delivery failed")
)
