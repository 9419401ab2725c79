package service

import (
	"context"

	"github.com/google/uuid"

	"treevite/server/internal/model"
	"treevite/server/internal/repository"
)

// grantMemberInvites mints a parent-wave member's allotment of invites in
// a child wave: invites_per_user codes owned by the member, each carrying
// the invite the member consumed as parent for lineage.
//
// Both backfill directions go through here: wave creation over existing
// members (wave-first) and a fresh join over existing child waves
// (member-first). The allotment is therefore identical regardless of the
// order in which tree structure and membership were declared. Inserts are
// independent rows; a failure partway leaves unconsumed invites behind,
// which is safe.
func grantMemberInvites(
	ctx context.Context,
	inviteRepo repository.InviteRepository,
	childWave *model.Wave,
	ownerParticipantID uuid.UUID,
	parentInviteID uuid.UUID,
) (int, error) {
	created := 0
	for i := 0; i < childWave.InvitesPerUser; i++ {
		owner := ownerParticipantID
		parent := parentInviteID
		invite := &model.Invite{
			ConversationID:     childWave.ConversationID,
			WaveID:             childWave.ID,
			ParentInviteID:     &parent,
			OwnerParticipantID: &owner,
			Status:             model.InviteStatusUnconsumed,
		}
		if err := createInviteWithRetry(ctx, inviteRepo, invite); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
