package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"treevite/server/internal/model"
)

type pgInviteRepository struct {
	db *gorm.DB
}

func NewPGInviteRepository(db *gorm.DB) InviteRepository {
	return &pgInviteRepository{db: db}
}

func (r *pgInviteRepository) Create(ctx context.Context, invite *model.Invite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *pgInviteRepository) GetUnconsumedByCode(ctx context.Context, conversationID uuid.UUID, code string) (*model.Invite, error) {
	var invite model.Invite
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND code = ? AND status = ?",
			conversationID, code, model.InviteStatusUnconsumed).
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// Consume is the only mutation with mutual-exclusion requirements in the
// subsystem. The WHERE clause re-checks status so two concurrent
// redemptions of the same code serialize in the database: exactly one
// update reports an affected row.
func (r *pgInviteRepository) Consume(ctx context.Context, inviteID, participantID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Invite{}).
		Where("id = ? AND status = ?", inviteID, model.InviteStatusUnconsumed).
		Updates(map[string]interface{}{
			"status":                     model.InviteStatusConsumed,
			"consumed_by_participant_id": participantID,
			"consumed_at":                at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *pgInviteRepository) ListConsumedByWave(ctx context.Context, waveID uuid.UUID) ([]model.Invite, error) {
	var invites []model.Invite
	err := r.db.WithContext(ctx).
		Where("wave_id = ? AND status = ?", waveID, model.InviteStatusConsumed).
		Order("consumed_at ASC").
		Find(&invites).Error
	return invites, err
}

func (r *pgInviteRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, filter InviteListFilter, limit, offset int) ([]model.Invite, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.Invite{}).
		Where("conversation_id = ?", conversationID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.WaveID != nil {
		query = query.Where("wave_id = ?", *filter.WaveID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invites []model.Invite
	err := query.
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&invites).Error
	return invites, total, err
}

func (r *pgInviteRepository) ListByOwner(ctx context.Context, conversationID, ownerParticipantID uuid.UUID, limit, offset int) ([]model.Invite, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.Invite{}).
		Where("conversation_id = ? AND owner_participant_id = ?", conversationID, ownerParticipantID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invites []model.Invite
	err := query.
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&invites).Error
	return invites, total, err
}
