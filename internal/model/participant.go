package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Participant scopes an account to one conversation. WaveID and InviteID
// record how the participant got in: the wave joined and the invite
// redeemed at first join.
type Participant struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	AccountID      uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	WaveID         uuid.UUID `gorm:"type:uuid;not null" json:"wave_id"`
	InviteID       uuid.UUID `gorm:"type:uuid;not null" json:"invite_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Participant) TableName() string { return "participants" }

func (p *Participant) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
