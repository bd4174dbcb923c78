package entities

import "time"

// PinSchedule marks a pinned message for automatic unpinning once UnpinAt
// passes. Rows are consumed by the lifecycle scheduler and deleted after one
// processing attempt.
type PinSchedule struct {
	MessageID string
	UnpinAt   time.Time
}
