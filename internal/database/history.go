package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

var ErrHistoryNotFound = errors.New("history record not found")

// SQLite only supports one writer at a time, so writes take this lock.
var dbMutex sync.Mutex

func SaveHistory(ctx context.Context, db *gorm.DB, userID, toolName, prompt, responseType, response string) (History, error) {
	record := History{
		UserID:       userID,
		ToolName:     toolName,
		Prompt:       prompt,
		ResponseType: responseType,
		Response:     response,
		CreatedAt:    time.Now().UTC(),
	}

	dbMutex.Lock()
	defer dbMutex.Unlock()

	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		slog.Error("error saving history", "user_id", userID, "tool_name", toolName, "error", err)
		return History{}, fmt.Errorf("error saving history: %w", err)
	}
	return record, nil
}

func ListHistory(ctx context.Context, db *gorm.DB, userID string, limit int) ([]History, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	history := []History{}
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&history).
		Error
	if err != nil {
		return nil, fmt.Errorf("error listing history: %w", err)
	}
	return history, nil
}

func GetHistory(ctx context.Context, db *gorm.DB, id uint, userID string) (History, error) {
	var record History
	err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return History{}, ErrHistoryNotFound
		}
		return History{}, fmt.Errorf("error getting history record: %w", err)
	}
	return record, nil
}

// DeleteHistory removes the record only if it belongs to userID. Deleting a
// missing or foreign record is not an error; the returned count is zero.
func DeleteHistory(ctx context.Context, db *gorm.DB, id uint, userID string) (int64, error) {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	res := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&History{})
	if res.Error != nil {
		slog.Error("error deleting history", "id", id, "user_id", userID, "error", res.Error)
		return 0, fmt.Errorf("error deleting history record: %w", res.Error)
	}
	return res.RowsAffected, nil
}
