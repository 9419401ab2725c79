package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"treevite/server/internal/model"
	"treevite/server/internal/repository"
)

// Actor is an already-authenticated participant identity, resolved by
// the handler from a bearer token whose conversation matches the
// request. Nil means the caller is anonymous.
type Actor struct {
	AccountID     uuid.UUID
	ParticipantID uuid.UUID
}

// RedeemResult carries everything a fresh participant needs: the wave
// joined, the invite burned, the one-time-visible login code, and a
// bearer token.
type RedeemResult struct {
	WaveID        uuid.UUID `json:"wave_id"`
	InviteID      uuid.UUID `json:"invite_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	LoginCode     string    `json:"login_code"`
	TokenSet
}

type RedeemService interface {
	Redeem(ctx context.Context, conversationID uuid.UUID, code string, actor *Actor) (*RedeemResult, error)
}

type redeemService struct {
	inviteRepo        repository.InviteRepository
	waveRepo          repository.WaveRepository
	accountRepo       repository.AccountRepository
	participantRepo   repository.ParticipantRepository
	credentialService CredentialService
}

func NewRedeemService(
	inviteRepo repository.InviteRepository,
	waveRepo repository.WaveRepository,
	accountRepo repository.AccountRepository,
	participantRepo repository.ParticipantRepository,
	credentialService CredentialService,
) RedeemService {
	return &redeemService{
		inviteRepo:        inviteRepo,
		waveRepo:          waveRepo,
		accountRepo:       accountRepo,
		participantRepo:   participantRepo,
		credentialService: credentialService,
	}
}

func (s *redeemService) Redeem(ctx context.Context, conversationID uuid.UUID, code string, actor *Actor) (*RedeemResult, error) {
	if conversationID == uuid.Nil {
		return nil, ErrConversationRequired
	}
	if code == "" {
		return nil, ErrInviteInvalidOrUsed
	}

	// Pre-check filters obviously-dead codes before identity is
	// provisioned. It does not prevent double redemption; Consume does.
	invite, err := s.inviteRepo.GetUnconsumedByCode(ctx, conversationID, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInviteInvalidOrUsed
	}
	if err != nil {
		return nil, fmt.Errorf("lookup invite: %w", err)
	}

	participant, err := s.resolveParticipant(ctx, conversationID, invite, actor)
	if err != nil {
		return nil, err
	}

	// Losing the conditional update means a concurrent request consumed
	// the code between the pre-check and here. The participant created
	// above is left in place: an orphaned anonymous identity is harmless,
	// holding a lock across the whole flow is not.
	consumed, err := s.inviteRepo.Consume(ctx, invite.ID, participant.ID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("consume invite: %w", err)
	}
	if !consumed {
		return nil, ErrInviteRaceLost
	}

	loginCode, err := s.credentialService.Issue(ctx, conversationID, participant.ID)
	if err != nil {
		return nil, err
	}

	// Member-first grant: child waves declared before this join owe the
	// new member their allotment now.
	wave, err := s.waveRepo.GetByID(ctx, invite.WaveID)
	if err != nil {
		return nil, fmt.Errorf("get joined wave: %w", err)
	}
	children, err := s.waveRepo.ListChildren(ctx, conversationID, wave.WaveNumber)
	if err != nil {
		return nil, fmt.Errorf("list child waves: %w", err)
	}
	for i := range children {
		if children[i].InvitesPerUser <= 0 {
			continue
		}
		if _, err := grantMemberInvites(ctx, s.inviteRepo, &children[i], participant.ID, invite.ID); err != nil {
			return nil, err
		}
	}

	tokens, err := s.credentialService.IssueToken(ctx, conversationID, participant.AccountID, participant.ID)
	if err != nil {
		return nil, err
	}

	return &RedeemResult{
		WaveID:        invite.WaveID,
		InviteID:      invite.ID,
		ParticipantID: participant.ID,
		LoginCode:     loginCode,
		TokenSet:      *tokens,
	}, nil
}

// resolveParticipant reuses the acting identity when present and valid,
// otherwise provisions a fresh anonymous account + participant scoped to
// this conversation.
func (s *redeemService) resolveParticipant(ctx context.Context, conversationID uuid.UUID, invite *model.Invite, actor *Actor) (*model.Participant, error) {
	if actor != nil {
		participant, err := s.participantRepo.GetByID(ctx, actor.ParticipantID)
		if err == nil && participant.ConversationID == conversationID {
			return participant, nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get participant: %w", err)
		}

		// The claimed participant id is stale or belongs elsewhere, but
		// the account may already hold a participant row here. Reusing it
		// keeps one row per (conversation, account).
		participant, err = s.participantRepo.GetByConversationAndAccount(ctx, conversationID, actor.AccountID)
		if err == nil {
			return participant, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get participant by account: %w", err)
		}
		// Unknown identity: fall through to anonymous.
	}

	account := &model.Account{Status: model.AccountStatusActive}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	participant := &model.Participant{
		ConversationID: conversationID,
		AccountID:      account.ID,
		WaveID:         invite.WaveID,
		InviteID:       invite.ID,
	}
	if err := s.participantRepo.Create(ctx, participant); err != nil {
		return nil, fmt.Errorf("create participant: %w", err)
	}
	return participant, nil
}
