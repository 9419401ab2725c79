package repository

import (
	"context"

	"github.com/google/uuid"

	"treevite/server/internal/model"
)

type WaveRepository interface {
	Create(ctx context.Context, wave *model.Wave) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Wave, error)
	GetByNumber(ctx context.Context, conversationID uuid.UUID, number int) (*model.Wave, error)
	// MaxWaveNumber returns the highest wave number for the conversation,
	// or 0 when no waves exist.
	MaxWaveNumber(ctx context.Context, conversationID uuid.UUID) (int, error)
	// ListChildren returns every wave whose declared parent is the given
	// wave number.
	ListChildren(ctx context.Context, conversationID uuid.UUID, parentNumber int) ([]model.Wave, error)
	List(ctx context.Context, conversationID uuid.UUID, waveNumber *int, limit, offset int) ([]model.Wave, int64, error)
}
