package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"treevite/server/internal/model"
)

type pgLoginCredentialRepository struct {
	db *gorm.DB
}

func NewPGLoginCredentialRepository(db *gorm.DB) LoginCredentialRepository {
	return &pgLoginCredentialRepository{db: db}
}

func (r *pgLoginCredentialRepository) Upsert(ctx context.Context, credential *model.LoginCredential) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "conversation_id"},
				{Name: "participant_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"verify_hash",
				"lookup_hash",
				"fingerprint",
				"fingerprint_key_id",
				"revoked",
				"updated_at",
			}),
		}).
		Create(credential).Error
}

func (r *pgLoginCredentialRepository) GetActiveByLookupHash(ctx context.Context, conversationID uuid.UUID, lookupHash string) (*model.LoginCredential, error) {
	var credential model.LoginCredential
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND lookup_hash = ? AND revoked = ?",
			conversationID, lookupHash, false).
		First(&credential).Error
	if err != nil {
		return nil, err
	}
	return &credential, nil
}

func (r *pgLoginCredentialRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.LoginCredential{}).
		Where("id = ?", id).
		UpdateColumn("last_used_at", at).
		Error
}

func (r *pgLoginCredentialRepository) Revoke(ctx context.Context, conversationID, participantID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.LoginCredential{}).
		Where("conversation_id = ? AND participant_id = ?", conversationID, participantID).
		UpdateColumn("revoked", true).
		Error
}
