package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SubmitPostRequest struct {
	OwnerID  string `json:"owner_id"`
	SpaceID  string `json:"space_id"`
	Name     string `json:"name"`
	Age      string `json:"age"`
	City     string `json:"city"`
	Bio      string `json:"bio"`
	ImageURL string `json:"image_url,omitempty"`
}

type SubmitPostResponse struct {
	RootID    string `json:"root_id"`
	Tier      string `json:"tier,omitempty"`
	Pinned    bool   `json:"pinned"`
	CopyCount int    `json:"copy_count"`
}

type CastVoteRequest struct {
	MessageID string `json:"message_id"`
	VoterID   string `json:"voter_id"`
	Kind      string `json:"kind"`
}

type CastVoteResponse struct {
	RootID      string `json:"root_id"`
	SmashCount  int64  `json:"smash_count"`
	RejectCount int64  `json:"reject_count"`
}

type PostTallyResponse struct {
	RootID      string `json:"root_id"`
	OwnerID     string `json:"owner_id"`
	SmashCount  int64  `json:"smash_count"`
	RejectCount int64  `json:"reject_count"`
	CopyCount   int    `json:"copy_count"`
}

type GrantEntitlementRequest struct {
	UserID       string `json:"user_id"`
	Tier         string `json:"tier"`
	DurationDays *int   `json:"duration_days,omitempty"`
}

type EntitlementResponse struct {
	UserID    string `json:"user_id"`
	Tier      string `json:"tier"`
	ExpiresAt string `json:"expires_at,omitempty"`
	GrantedAt string `json:"granted_at"`
}

type BanRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason,omitempty"`
}

type ConfigureSpaceRequest struct {
	SpaceID        string `json:"space_id"`
	PanelChannelID string `json:"panel_channel_id,omitempty"`
	PostChannelID  string `json:"post_channel_id,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
