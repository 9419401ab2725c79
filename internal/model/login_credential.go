package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoginCredential holds the three derived representations of a
// participant's reusable login code. The plaintext is never stored:
// VerifyHash (bcrypt) proves possession at login, LookupHash (keyed,
// deterministic) indexes the row, Fingerprint (keyed, versioned by
// FingerprintKeyID) is an audit derivative that takes no part in
// verification. One live credential per (conversation, participant);
// reissue upserts in place and clears Revoked.
type LoginCredential struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_credentials_conv_participant,priority:1" json:"conversation_id"`
	ParticipantID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_credentials_conv_participant,priority:2" json:"participant_id"`
	VerifyHash       string     `gorm:"type:varchar(128);not null" json:"-"`
	LookupHash       string     `gorm:"type:varchar(64);not null;index:idx_credentials_lookup" json:"-"`
	Fingerprint      string     `gorm:"type:varchar(64);not null" json:"-"`
	FingerprintKeyID string     `gorm:"type:varchar(32);not null" json:"fingerprint_key_id"`
	Revoked          bool       `gorm:"not null;default:false" json:"revoked"`
	LastUsedAt       *time.Time `json:"last_used_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (LoginCredential) TableName() string { return "login_credentials" }

func (lc *LoginCredential) BeforeCreate(_ *gorm.DB) error {
	if lc.ID == uuid.Nil {
		lc.ID = uuid.New()
	}
	return nil
}
