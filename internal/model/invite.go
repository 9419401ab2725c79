package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InviteStatus string

const (
	InviteStatusUnconsumed InviteStatus = "unconsumed"
	InviteStatusConsumed   InviteStatus = "consumed"
)

// Invite is one redeemable code in a wave. ParentInviteID and
// OwnerParticipantID are both null for owner-seeded invites; for
// member-owned invites, ParentInviteID is the invite the owner consumed
// to join the parent wave, giving the recruiting lineage. Invites are
// never deleted; status flips from unconsumed to consumed at most once.
type Invite struct {
	ID                      uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID          uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_invites_conv_code,priority:1" json:"conversation_id"`
	WaveID                  uuid.UUID    `gorm:"type:uuid;not null;index" json:"wave_id"`
	ParentInviteID          *uuid.UUID   `gorm:"type:uuid" json:"parent_invite_id,omitempty"`
	Code                    string       `gorm:"type:varchar(64);not null;uniqueIndex:idx_invites_conv_code,priority:2" json:"code"`
	OwnerParticipantID      *uuid.UUID   `gorm:"type:uuid;index" json:"owner_participant_id,omitempty"`
	Status                  InviteStatus `gorm:"type:varchar(16);not null;default:unconsumed" json:"status"`
	ConsumedByParticipantID *uuid.UUID   `gorm:"type:uuid" json:"consumed_by_participant_id,omitempty"`
	ConsumedAt              *time.Time   `json:"consumed_at,omitempty"`
	CreatedAt               time.Time    `json:"created_at"`
	UpdatedAt               time.Time    `json:"updated_at"`
}

func (Invite) TableName() string { return "invites" }

func (i *Invite) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
