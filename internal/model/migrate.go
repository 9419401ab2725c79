package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for all models and creates custom indexes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Account{},
		&Participant{},
		&Wave{},
		&Invite{},
		&LoginCredential{},
	); err != nil {
		return err
	}

	// One participant row per account per conversation.
	return db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_participants_conv_account " +
			"ON participants (conversation_id, account_id)",
	).Error
}
