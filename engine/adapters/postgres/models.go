package postgresadapter

import (
	"strings"
	"time"

	"crossvote/engine/domain/entities"
)

type postModel struct {
	MessageID   string    `gorm:"column:message_id;primaryKey"`
	OwnerID     string    `gorm:"column:owner_id"`
	Name        string    `gorm:"column:name"`
	Age         string    `gorm:"column:age"`
	City        string    `gorm:"column:city"`
	Bio         string    `gorm:"column:bio"`
	ImageURL    string    `gorm:"column:image_url"`
	SmashCount  int64     `gorm:"column:smash_count"`
	RejectCount int64     `gorm:"column:reject_count"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (postModel) TableName() string {
	return "posts"
}

func postModelFromEntity(post entities.Post) postModel {
	row := postModel{
		MessageID:   strings.TrimSpace(post.MessageID),
		OwnerID:     strings.TrimSpace(post.OwnerID),
		Name:        strings.TrimSpace(post.Profile.Name),
		Age:         strings.TrimSpace(post.Profile.Age),
		City:        strings.TrimSpace(post.Profile.City),
		Bio:         post.Profile.Bio,
		ImageURL:    strings.TrimSpace(post.Profile.ImageURL),
		SmashCount:  post.SmashCount,
		RejectCount: post.RejectCount,
		CreatedAt:   post.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m postModel) toEntity() entities.Post {
	return entities.Post{
		MessageID: m.MessageID,
		OwnerID:   m.OwnerID,
		Profile: entities.Profile{
			Name:     m.Name,
			Age:      m.Age,
			City:     m.City,
			Bio:      m.Bio,
			ImageURL: m.ImageURL,
		},
		SmashCount:  m.SmashCount,
		RejectCount: m.RejectCount,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

type copyLinkModel struct {
	MessageID string `gorm:"column:message_id;primaryKey"`
	RootID    string `gorm:"column:root_id"`
}

func (copyLinkModel) TableName() string {
	return "post_links"
}

type voteModel struct {
	PosterID  string    `gorm:"column:poster_id;primaryKey"`
	VoterID   string    `gorm:"column:voter_id;primaryKey"`
	Kind      string    `gorm:"column:kind"`
	MessageID string    `gorm:"column:message_id"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	row := voteModel{
		PosterID:  strings.TrimSpace(vote.PosterID),
		VoterID:   strings.TrimSpace(vote.VoterID),
		Kind:      string(vote.Kind),
		MessageID: strings.TrimSpace(vote.MessageID),
		CreatedAt: vote.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

type banModel struct {
	UserID    string    `gorm:"column:user_id;primaryKey"`
	Banned    bool      `gorm:"column:banned"`
	Reason    string    `gorm:"column:reason"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (banModel) TableName() string {
	return "bans"
}

func banModelFromEntity(ban entities.Ban) banModel {
	row := banModel{
		UserID:    strings.TrimSpace(ban.UserID),
		Banned:    ban.Banned,
		Reason:    strings.TrimSpace(ban.Reason),
		CreatedAt: ban.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m banModel) toEntity() entities.Ban {
	return entities.Ban{
		UserID:    m.UserID,
		Banned:    m.Banned,
		Reason:    m.Reason,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

type grantModel struct {
	UserID    string     `gorm:"column:user_id;primaryKey"`
	Tier      string     `gorm:"column:tier"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	GrantedAt time.Time  `gorm:"column:granted_at"`
}

func (grantModel) TableName() string {
	return "entitlements"
}

func grantModelFromEntity(grant entities.EntitlementGrant) grantModel {
	row := grantModel{
		UserID:    strings.TrimSpace(grant.UserID),
		Tier:      string(grant.Tier),
		GrantedAt: grant.GrantedAt.UTC(),
	}
	if grant.ExpiresAt != nil {
		expiresAt := grant.ExpiresAt.UTC()
		row.ExpiresAt = &expiresAt
	}
	if row.GrantedAt.IsZero() {
		row.GrantedAt = time.Now().UTC()
	}
	return row
}

func (m grantModel) toEntity() entities.EntitlementGrant {
	grant := entities.EntitlementGrant{
		UserID:    m.UserID,
		Tier:      entities.Tier(m.Tier),
		GrantedAt: m.GrantedAt.UTC(),
	}
	if m.ExpiresAt != nil {
		expiresAt := m.ExpiresAt.UTC()
		grant.ExpiresAt = &expiresAt
	}
	return grant
}

type quotaModel struct {
	UserID string `gorm:"column:user_id;primaryKey"`
	Day    string `gorm:"column:day"`
	Count  int    `gorm:"column:count"`
}

func (quotaModel) TableName() string {
	return "quotas"
}

type pinModel struct {
	MessageID string    `gorm:"column:message_id;primaryKey"`
	UnpinAt   time.Time `gorm:"column:unpin_at"`
}

func (pinModel) TableName() string {
	return "pins"
}

type spaceModel struct {
	SpaceID        string `gorm:"column:space_id;primaryKey"`
	PanelChannelID string `gorm:"column:panel_channel_id"`
	PostChannelID  string `gorm:"column:post_channel_id"`
}

func (spaceModel) TableName() string {
	return "space_settings"
}

func (m spaceModel) toEntity() entities.SpaceSettings {
	return entities.SpaceSettings{
		SpaceID:        m.SpaceID,
		PanelChannelID: m.PanelChannelID,
		PostChannelID:  m.PostChannelID,
	}
}

type replicationMarkerModel struct {
	RootID    string    `gorm:"column:root_id;primaryKey"`
	SpaceID   string    `gorm:"column:space_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (replicationMarkerModel) TableName() string {
	return "replication_markers"
}
