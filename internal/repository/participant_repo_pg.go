package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"treevite/server/internal/model"
)

type pgAccountRepository struct {
	db *gorm.DB
}

func NewPGAccountRepository(db *gorm.DB) AccountRepository {
	return &pgAccountRepository{db: db}
}

func (r *pgAccountRepository) Create(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

type pgParticipantRepository struct {
	db *gorm.DB
}

func NewPGParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &pgParticipantRepository{db: db}
}

func (r *pgParticipantRepository) Create(ctx context.Context, participant *model.Participant) error {
	return r.db.WithContext(ctx).Create(participant).Error
}

func (r *pgParticipantRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Participant, error) {
	var participant model.Participant
	if err := r.db.WithContext(ctx).First(&participant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *pgParticipantRepository) GetByConversationAndAccount(ctx context.Context, conversationID, accountID uuid.UUID) (*model.Participant, error) {
	var participant model.Participant
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND account_id = ?", conversationID, accountID).
		First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}
