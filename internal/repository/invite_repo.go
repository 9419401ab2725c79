package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"treevite/server/internal/model"
)

// InviteListFilter narrows the admin roster listing. Nil fields match
// everything.
type InviteListFilter struct {
	Status *model.InviteStatus
	WaveID *uuid.UUID
}

type InviteRepository interface {
	Create(ctx context.Context, invite *model.Invite) error
	GetUnconsumedByCode(ctx context.Context, conversationID uuid.UUID, code string) (*model.Invite, error)
	// Consume transitions the invite from unconsumed to consumed with a
	// single conditional update. It reports false when the row was
	// already consumed, meaning the caller lost the race.
	Consume(ctx context.Context, inviteID, participantID uuid.UUID, at time.Time) (bool, error)
	// ListConsumedByWave returns every consumed invite in a wave, one per
	// member who joined through it.
	ListConsumedByWave(ctx context.Context, waveID uuid.UUID) ([]model.Invite, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID, filter InviteListFilter, limit, offset int) ([]model.Invite, int64, error)
	ListByOwner(ctx context.Context, conversationID, ownerParticipantID uuid.UUID, limit, offset int) ([]model.Invite, int64, error)
}
