package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"treevite/server/internal/model"
	"treevite/server/internal/repository"
)

// CreateWaveResult is the created wave plus how many invites the
// creation actually minted (owner seeds + backfill).
type CreateWaveResult struct {
	Wave           *model.Wave `json:"wave"`
	InvitesCreated int         `json:"invites_created"`
}

type WaveService interface {
	// CreateWave declares the next wave of a conversation's invitation
	// tree. explicitParent overrides the default parent (the current
	// highest wave number); nil accepts the default.
	CreateWave(ctx context.Context, conversationID uuid.UUID, invitesPerUser, ownerInvites int, explicitParent *int) (*CreateWaveResult, error)
}

type waveService struct {
	waveRepo   repository.WaveRepository
	inviteRepo repository.InviteRepository
}

func NewWaveService(waveRepo repository.WaveRepository, inviteRepo repository.InviteRepository) WaveService {
	return &waveService{waveRepo: waveRepo, inviteRepo: inviteRepo}
}

func (s *waveService) CreateWave(ctx context.Context, conversationID uuid.UUID, invitesPerUser, ownerInvites int, explicitParent *int) (*CreateWaveResult, error) {
	if conversationID == uuid.Nil {
		return nil, ErrConversationRequired
	}
	if invitesPerUser < 0 || ownerInvites < 0 || (invitesPerUser == 0 && ownerInvites == 0) {
		return nil, ErrInviteCountsInvalid
	}

	maxNumber, err := s.waveRepo.MaxWaveNumber(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("max wave number: %w", err)
	}
	waveNumber := maxNumber + 1

	parentNumber := maxNumber
	if explicitParent != nil {
		parentNumber = *explicitParent
	}
	// Parent strictly precedes child, which also rules out cycles.
	if parentNumber < 0 || parentNumber >= waveNumber {
		return nil, ErrParentWaveInvalid
	}

	// The conceptual root (wave 0) has size 1. A parent wave whose cached
	// size is missing or non-positive is treated the same way: fail open
	// rather than block wave creation.
	parentSize := 1
	var parentWave *model.Wave
	if parentNumber > 0 {
		parentWave, err = s.waveRepo.GetByNumber(ctx, conversationID, parentNumber)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParentWaveNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("get parent wave: %w", err)
		}
		if parentWave.Size > 0 {
			parentSize = parentWave.Size
		}
	}

	wave := &model.Wave{
		ConversationID:   conversationID,
		WaveNumber:       waveNumber,
		ParentWaveNumber: parentNumber,
		InvitesPerUser:   invitesPerUser,
		OwnerInvites:     ownerInvites,
		Size:             parentSize*invitesPerUser + ownerInvites,
	}
	if err := s.waveRepo.Create(ctx, wave); err != nil {
		return nil, fmt.Errorf("create wave: %w", err)
	}

	created := 0

	// Owner-seeded invites have no recruiting parent and no owner.
	for i := 0; i < ownerInvites; i++ {
		invite := &model.Invite{
			ConversationID: conversationID,
			WaveID:         wave.ID,
			Status:         model.InviteStatusUnconsumed,
		}
		if err := createInviteWithRetry(ctx, s.inviteRepo, invite); err != nil {
			return nil, err
		}
		created++
	}

	// The root's single conceptual member gets its allotment like any
	// parent-wave member would. It never redeemed anything, so these
	// invites carry no lineage and no owner, same as owner seeds.
	if parentNumber == 0 {
		for i := 0; i < invitesPerUser; i++ {
			invite := &model.Invite{
				ConversationID: conversationID,
				WaveID:         wave.ID,
				Status:         model.InviteStatusUnconsumed,
			}
			if err := createInviteWithRetry(ctx, s.inviteRepo, invite); err != nil {
				return nil, err
			}
			created++
		}
	}

	// Wave-first backfill: every member already in the parent wave gets
	// their allotment in this new wave.
	if parentWave != nil && invitesPerUser > 0 {
		members, err := s.inviteRepo.ListConsumedByWave(ctx, parentWave.ID)
		if err != nil {
			return nil, fmt.Errorf("list parent wave members: %w", err)
		}
		for _, member := range members {
			if member.ConsumedByParticipantID == nil {
				continue
			}
			n, err := grantMemberInvites(ctx, s.inviteRepo, wave, *member.ConsumedByParticipantID, member.ID)
			created += n
			if err != nil {
				return nil, err
			}
		}
	}

	return &CreateWaveResult{Wave: wave, InvitesCreated: created}, nil
}
