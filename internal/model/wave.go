package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Wave is one generation of the invitation tree for a conversation.
// ParentWaveNumber 0 means the conceptual root, which has size 1.
//
// Size is capacity computed once at creation
// (parentSize*InvitesPerUser + OwnerInvites), not live membership; later
// joins never mutate it.
type Wave struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_waves_conv_number,priority:1" json:"conversation_id"`
	WaveNumber       int       `gorm:"not null;uniqueIndex:idx_waves_conv_number,priority:2" json:"wave_number"`
	ParentWaveNumber int       `gorm:"not null;default:0" json:"parent_wave_number"`
	InvitesPerUser   int       `gorm:"not null;default:0" json:"invites_per_user"`
	OwnerInvites     int       `gorm:"not null;default:0" json:"owner_invites"`
	Size             int       `gorm:"not null;default:0" json:"size"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Wave) TableName() string { return "waves" }

func (w *Wave) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
