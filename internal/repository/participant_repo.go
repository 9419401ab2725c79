package repository

import (
	"context"

	"github.com/google/uuid"

	"treevite/server/internal/model"
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
}

type ParticipantRepository interface {
	Create(ctx context.Context, participant *model.Participant) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Participant, error)
	GetByConversationAndAccount(ctx context.Context, conversationID, accountID uuid.UUID) (*model.Participant, error)
}
