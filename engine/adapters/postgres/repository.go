package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"crossvote/engine/domain/entities"
	domainerrors "crossvote/engine/domain/errors"
	"crossvote/engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

var (
	_ ports.PostRepository         = (*Repository)(nil)
	_ ports.CopyLinkRepository     = (*Repository)(nil)
	_ ports.VoteRepository         = (*Repository)(nil)
	_ ports.BanRepository          = (*Repository)(nil)
	_ ports.EntitlementRepository  = (*Repository)(nil)
	_ ports.QuotaRepository        = (*Repository)(nil)
	_ ports.PinRepository          = (*Repository)(nil)
	_ ports.SpaceRepository        = (*Repository)(nil)
	_ ports.ReplicationMarkerStore = (*Repository)(nil)
)

func (r *Repository) CreatePost(ctx context.Context, post entities.Post) error {
	row := postModelFromEntity(post)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "message_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"owner_id":  row.OwnerID,
			"name":      row.Name,
			"age":       row.Age,
			"city":      row.City,
			"bio":       row.Bio,
			"image_url": row.ImageURL,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("engine_repo_create_post_failed", create.Error,
			"message_id", strings.TrimSpace(post.MessageID),
			"owner_id", strings.TrimSpace(post.OwnerID),
		)
	}
	return nil
}

func (r *Repository) GetPost(ctx context.Context, messageID string) (entities.Post, error) {
	var row postModel
	err := r.db.WithContext(ctx).
		Where("message_id = ?", strings.TrimSpace(messageID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Post{}, domainerrors.ErrPostNotFound
		}
		return entities.Post{}, r.logError("engine_repo_get_post_failed", err,
			"message_id", strings.TrimSpace(messageID),
		)
	}
	return row.toEntity(), nil
}

// IncrementCounters is a single atomic UPDATE so concurrent votes on the same
// root never lose an increment.
func (r *Repository) IncrementCounters(
	ctx context.Context,
	rootID string,
	smashDelta int64,
	rejectDelta int64,
) error {
	result := r.db.WithContext(ctx).Model(&postModel{}).
		Where("message_id = ?", strings.TrimSpace(rootID)).
		Updates(map[string]any{
			"smash_count":  gorm.Expr("smash_count + ?", smashDelta),
			"reject_count": gorm.Expr("reject_count + ?", rejectDelta),
		})
	if result.Error != nil {
		return r.logError("engine_repo_increment_counters_failed", result.Error,
			"root_id", strings.TrimSpace(rootID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPostNotFound
	}
	return nil
}

func (r *Repository) LinkCopy(ctx context.Context, rootID string, copyID string) error {
	row := copyLinkModel{
		MessageID: strings.TrimSpace(copyID),
		RootID:    strings.TrimSpace(rootID),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("engine_repo_link_copy_failed", create.Error,
			"root_id", strings.TrimSpace(rootID),
			"copy_id", strings.TrimSpace(copyID),
		)
	}
	return nil
}

func (r *Repository) ListCopies(ctx context.Context, rootID string) ([]string, error) {
	var rows []copyLinkModel
	if err := r.db.WithContext(ctx).
		Where("root_id = ?", strings.TrimSpace(rootID)).
		Order("message_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("engine_repo_list_copies_failed", err,
			"root_id", strings.TrimSpace(rootID),
		)
	}
	items := make([]string, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.MessageID)
	}
	return items, nil
}

func (r *Repository) ResolveRoot(ctx context.Context, anyID string) (string, error) {
	var row copyLinkModel
	err := r.db.WithContext(ctx).
		Where("message_id = ?", strings.TrimSpace(anyID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domainerrors.ErrPostNotFound
		}
		return "", r.logError("engine_repo_resolve_root_failed", err,
			"message_id", strings.TrimSpace(anyID),
		)
	}
	return row.RootID, nil
}

// RecordVote relies on the (poster_id, voter_id) unique constraint: a racing
// duplicate surfaces as a unique violation and maps to the duplicate-vote
// error, so the constraint is the real guard, not the application check.
func (r *Repository) RecordVote(ctx context.Context, vote entities.Vote) error {
	row := voteModelFromEntity(vote)
	create := r.db.WithContext(ctx).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrAlreadyVoted
		}
		return r.logError("engine_repo_record_vote_failed", create.Error,
			"poster_id", strings.TrimSpace(vote.PosterID),
			"voter_id", strings.TrimSpace(vote.VoterID),
		)
	}
	return nil
}

func (r *Repository) HasVote(ctx context.Context, posterID string, voterID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&voteModel{}).
		Where("poster_id = ?", strings.TrimSpace(posterID)).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("engine_repo_has_vote_failed", err,
			"poster_id", strings.TrimSpace(posterID),
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return count > 0, nil
}

func (r *Repository) SetBan(ctx context.Context, ban entities.Ban) error {
	row := banModelFromEntity(ban)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"banned": row.Banned,
			"reason": row.Reason,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("engine_repo_set_ban_failed", create.Error,
			"user_id", strings.TrimSpace(ban.UserID),
		)
	}
	return nil
}

func (r *Repository) RemoveBan(ctx context.Context, userID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Delete(&banModel{})
	if result.Error != nil {
		return r.logError("engine_repo_remove_ban_failed", result.Error,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return nil
}

func (r *Repository) GetBan(ctx context.Context, userID string) (entities.Ban, bool, error) {
	var row banModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Ban{}, false, nil
		}
		return entities.Ban{}, false, r.logError("engine_repo_get_ban_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) UpsertGrant(ctx context.Context, grant entities.EntitlementGrant) error {
	row := grantModelFromEntity(grant)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"tier":       row.Tier,
			"expires_at": row.ExpiresAt,
			"granted_at": row.GrantedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("engine_repo_upsert_grant_failed", create.Error,
			"user_id", strings.TrimSpace(grant.UserID),
		)
	}
	return nil
}

func (r *Repository) GetGrant(ctx context.Context, userID string) (entities.EntitlementGrant, bool, error) {
	var row grantModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.EntitlementGrant{}, false, nil
		}
		return entities.EntitlementGrant{}, false, r.logError("engine_repo_get_grant_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) DeleteGrant(ctx context.Context, userID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Delete(&grantModel{})
	if result.Error != nil {
		return r.logError("engine_repo_delete_grant_failed", result.Error,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return nil
}

func (r *Repository) ListExpiredGrants(ctx context.Context, now time.Time) ([]entities.EntitlementGrant, error) {
	var rows []grantModel
	if err := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL").
		Where("expires_at <= ?", now.UTC()).
		Order("user_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("engine_repo_list_expired_grants_failed", err)
	}
	items := make([]entities.EntitlementGrant, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetQuota(ctx context.Context, userID string, day string) (int, error) {
	var row quotaModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, r.logError("engine_repo_get_quota_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	// A stale bucket from a previous day counts as zero.
	if row.Day != day {
		return 0, nil
	}
	return row.Count, nil
}

// IncrementQuota keeps one row per user; a write on a new day resets the
// bucket instead of accumulating across days.
func (r *Repository) IncrementQuota(ctx context.Context, userID string, day string) error {
	row := quotaModel{
		UserID: strings.TrimSpace(userID),
		Day:    day,
		Count:  1,
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"day": day,
			"count": gorm.Expr(
				"CASE WHEN quotas.day = ? THEN quotas.count + 1 ELSE 1 END", day,
			),
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("engine_repo_increment_quota_failed", create.Error,
			"user_id", strings.TrimSpace(userID),
			"day", day,
		)
	}
	return nil
}

func (r *Repository) SchedulePin(ctx context.Context, pin entities.PinSchedule) error {
	row := pinModel{
		MessageID: strings.TrimSpace(pin.MessageID),
		UnpinAt:   pin.UnpinAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "message_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"unpin_at": row.UnpinAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("engine_repo_schedule_pin_failed", create.Error,
			"message_id", strings.TrimSpace(pin.MessageID),
		)
	}
	return nil
}

func (r *Repository) ListDuePins(ctx context.Context, now time.Time) ([]entities.PinSchedule, error) {
	var rows []pinModel
	if err := r.db.WithContext(ctx).
		Where("unpin_at <= ?", now.UTC()).
		Order("unpin_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("engine_repo_list_due_pins_failed", err)
	}
	items := make([]entities.PinSchedule, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.PinSchedule{
			MessageID: row.MessageID,
			UnpinAt:   row.UnpinAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) DeletePin(ctx context.Context, messageID string) error {
	result := r.db.WithContext(ctx).
		Where("message_id = ?", strings.TrimSpace(messageID)).
		Delete(&pinModel{})
	if result.Error != nil {
		return r.logError("engine_repo_delete_pin_failed", result.Error,
			"message_id", strings.TrimSpace(messageID),
		)
	}
	return nil
}

func (r *Repository) SaveSpaceSettings(ctx context.Context, settings entities.SpaceSettings) error {
	row := spaceModel{
		SpaceID:        strings.TrimSpace(settings.SpaceID),
		PanelChannelID: strings.TrimSpace(settings.PanelChannelID),
		PostChannelID:  strings.TrimSpace(settings.PostChannelID),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "space_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"panel_channel_id": row.PanelChannelID,
			"post_channel_id":  row.PostChannelID,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("engine_repo_save_space_failed", create.Error,
			"space_id", strings.TrimSpace(settings.SpaceID),
		)
	}
	return nil
}

func (r *Repository) GetSpaceSettings(ctx context.Context, spaceID string) (entities.SpaceSettings, bool, error) {
	var row spaceModel
	err := r.db.WithContext(ctx).
		Where("space_id = ?", strings.TrimSpace(spaceID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.SpaceSettings{}, false, nil
		}
		return entities.SpaceSettings{}, false, r.logError("engine_repo_get_space_failed", err,
			"space_id", strings.TrimSpace(spaceID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListPostableSpaces(ctx context.Context) ([]entities.SpaceSettings, error) {
	var rows []spaceModel
	if err := r.db.WithContext(ctx).
		Where("post_channel_id <> ''").
		Order("space_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("engine_repo_list_postable_spaces_failed", err)
	}
	items := make([]entities.SpaceSettings, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ReserveReplication(ctx context.Context, rootID string, spaceID string) (bool, error) {
	row := replicationMarkerModel{
		RootID:    strings.TrimSpace(rootID),
		SpaceID:   strings.TrimSpace(spaceID),
		CreatedAt: time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "root_id"}, {Name: "space_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return false, nil
		}
		return false, r.logError("engine_repo_reserve_replication_failed", create.Error,
			"root_id", strings.TrimSpace(rootID),
			"space_id", strings.TrimSpace(spaceID),
		)
	}
	return create.RowsAffected > 0, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("engine repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
