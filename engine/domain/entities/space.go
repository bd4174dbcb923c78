package entities

// SpaceSettings is the per-community-space configuration. A space with a
// post channel configured is an eligible replication destination.
type SpaceSettings struct {
	SpaceID        string
	PanelChannelID string
	PostChannelID  string
}

func (s SpaceSettings) Postable() bool {
	return s.PostChannelID != ""
}
