package migration_1

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type History struct {
	UserID    string    `gorm:"index:idx_history_user_created,priority:1"`
	CreatedAt time.Time `gorm:"index:idx_history_user_created,priority:2"`
}

func (History) TableName() string {
	return "history"
}

// Migration adds the index backing the per-user, newest-first listing.
func Migration(db *gorm.DB) error {
	if err := db.Migrator().CreateIndex(&History{}, "idx_history_user_created"); err != nil {
		return fmt.Errorf("error creating idx_history_user_created: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropIndex(&History{}, "idx_history_user_created"); err != nil {
		return fmt.Errorf("error dropping idx_history_user_created: %w", err)
	}
	return nil
}
