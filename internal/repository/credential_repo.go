package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"treevite/server/internal/model"
)

type LoginCredentialRepository interface {
	// Upsert inserts the credential or, when one already exists for the
	// (conversation, participant) pair, replaces its derived hashes in
	// place and clears the revoked flag.
	Upsert(ctx context.Context, credential *model.LoginCredential) error
	// GetActiveByLookupHash fetches the non-revoked row indexed by the
	// deterministic lookup hash.
	GetActiveByLookupHash(ctx context.Context, conversationID uuid.UUID, lookupHash string) (*model.LoginCredential, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	Revoke(ctx context.Context, conversationID, participantID uuid.UUID) error
}
