package database

import "time"

const (
	ResponseText  string = "text"
	ResponseImage string = "image"
)

// History is one persisted prompt/response pair. Rows are never updated once
// written; they are only created and deleted.
type History struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	UserID       string    `gorm:"not null;index;index:idx_history_user_created,priority:1"`
	ToolName     string    `gorm:"not null"`
	Prompt       string    `gorm:"not null"`
	ResponseType string    `gorm:"size:10;not null"`
	Response     string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null;index:idx_history_user_created,priority:2"`
}

func (History) TableName() string {
	return "history"
}
