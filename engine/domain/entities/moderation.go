package entities

import "time"

// Ban blocks a user from submitting posts and casting votes.
type Ban struct {
	UserID    string
	Banned    bool
	Reason    string
	CreatedAt time.Time
}
