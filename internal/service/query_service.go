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

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is a limit/offset window. Zero values take the default; limits
// above maxPageSize are clamped.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type WavePage struct {
	Items  []model.Wave `json:"items"`
	Total  int64        `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

type InvitePage struct {
	Items  []model.Invite `json:"items"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// InviteFilter narrows the admin invite roster. Status is matched
// exactly when set; Wave resolves a wave number within the conversation.
type InviteFilter struct {
	Status *model.InviteStatus
	Wave   *int
}

// WaveContext describes how a participant sits in the tree: the wave
// they joined, when, and that wave's declared fan-out.
type WaveContext struct {
	WaveID         uuid.UUID `json:"wave_id"`
	WaveNumber     int       `json:"wave_number"`
	JoinedAt       time.Time `json:"joined_at"`
	InvitesPerUser int       `json:"invites_per_user"`
	OwnerInvites   int       `json:"owner_invites"`
	Size           int       `json:"size"`
}

type QueryService interface {
	ListWaves(ctx context.Context, conversationID uuid.UUID, waveNumber *int, page Page) (*WavePage, error)
	ListInvites(ctx context.Context, conversationID uuid.UUID, filter InviteFilter, page Page) (*InvitePage, error)
	ListParticipantInvites(ctx context.Context, conversationID, participantID uuid.UUID, page Page) (*InvitePage, error)
	ParticipantWaveContext(ctx context.Context, conversationID, participantID uuid.UUID) (*WaveContext, error)
}

type queryService struct {
	waveRepo        repository.WaveRepository
	inviteRepo      repository.InviteRepository
	participantRepo repository.ParticipantRepository
}

func NewQueryService(
	waveRepo repository.WaveRepository,
	inviteRepo repository.InviteRepository,
	participantRepo repository.ParticipantRepository,
) QueryService {
	return &queryService{
		waveRepo:        waveRepo,
		inviteRepo:      inviteRepo,
		participantRepo: participantRepo,
	}
}

func (s *queryService) ListWaves(ctx context.Context, conversationID uuid.UUID, waveNumber *int, page Page) (*WavePage, error) {
	if conversationID == uuid.Nil {
		return nil, ErrConversationRequired
	}
	page = page.normalize()

	waves, total, err := s.waveRepo.List(ctx, conversationID, waveNumber, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list waves: %w", err)
	}
	return &WavePage{Items: waves, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *queryService) ListInvites(ctx context.Context, conversationID uuid.UUID, filter InviteFilter, page Page) (*InvitePage, error) {
	if conversationID == uuid.Nil {
		return nil, ErrConversationRequired
	}
	page = page.normalize()

	repoFilter := repository.InviteListFilter{Status: filter.Status}
	if filter.Wave != nil {
		wave, err := s.waveRepo.GetByNumber(ctx, conversationID, *filter.Wave)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWaveNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("resolve wave filter: %w", err)
		}
		repoFilter.WaveID = &wave.ID
	}

	invites, total, err := s.inviteRepo.ListByConversation(ctx, conversationID, repoFilter, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	return &InvitePage{Items: invites, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *queryService) ListParticipantInvites(ctx context.Context, conversationID, participantID uuid.UUID, page Page) (*InvitePage, error) {
	page = page.normalize()

	invites, total, err := s.inviteRepo.ListByOwner(ctx, conversationID, participantID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list participant invites: %w", err)
	}
	return &InvitePage{Items: invites, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *queryService) ParticipantWaveContext(ctx context.Context, conversationID, participantID uuid.UUID) (*WaveContext, error) {
	participant, err := s.participantRepo.GetByID(ctx, participantID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	if participant.ConversationID != conversationID {
		return nil, ErrParticipantNotFound
	}

	wave, err := s.waveRepo.GetByID(ctx, participant.WaveID)
	if err != nil {
		return nil, fmt.Errorf("get joined wave: %w", err)
	}

	return &WaveContext{
		WaveID:         wave.ID,
		WaveNumber:     wave.WaveNumber,
		JoinedAt:       participant.CreatedAt,
		InvitesPerUser: wave.InvitesPerUser,
		OwnerInvites:   wave.OwnerInvites,
		Size:           wave.Size,
	}, nil
}
