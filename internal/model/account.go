package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountStatus int

const (
	AccountStatusActive   AccountStatus = 1
	AccountStatusDisabled AccountStatus = 2
)

// Account is the durable identity shell behind one or more participants.
// Accounts provisioned during redemption are anonymous: no username, no
// e-mail, nothing but an id.
type Account struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Status    AccountStatus `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

func (a *Account) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
