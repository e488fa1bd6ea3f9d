package migration_0

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type History struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	UserID       string    `gorm:"not null;index"`
	ToolName     string    `gorm:"not null"`
	Prompt       string    `gorm:"not null"`
	ResponseType string    `gorm:"size:10;not null"`
	Response     string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (History) TableName() string {
	return "history"
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().CreateTable(&History{}); err != nil {
		return fmt.Errorf("error creating history table: %w", err)
	}
	return nil
}
