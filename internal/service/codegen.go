package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"treevite/server/internal/model"
	"treevite/server/internal/repository"
	pkgcrypto "treevite/server/pkg/crypto"
)

// maxCodeAttempts bounds code regeneration when an insert hits the
// (conversation, code) unique index. Collisions are birthday-rare at
// this code length; hitting the bound means something systemic is wrong,
// so it surfaces as a named error rather than looping forever.
const maxCodeAttempts = 5

// createInviteWithRetry fills in a fresh code and inserts the invite,
// regenerating the code on duplicate-key conflicts.
func createInviteWithRetry(ctx context.Context, repo repository.InviteRepository, invite *model.Invite) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := pkgcrypto.GenerateInviteCode()
		if err != nil {
			return fmt.Errorf("generate invite code: %w", err)
		}
		invite.Code = code

		err = repo.Create(ctx, invite)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("insert invite: %w", err)
		}
	}
	return ErrCodeGenerationExhausted
}
