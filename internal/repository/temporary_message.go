package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// TemporaryMessageRepository tracks bot notices that must be removed from
// the chat once DeleteAt passes.
type TemporaryMessageRepository interface {
	Add(ctx context.Context, chatID int64, messageID string, deleteAt time.Time) error
	GetExpired(ctx context.Context, now time.Time, limit int) ([]TemporaryMessage, error)
	Delete(ctx context.Context, ids []int64) error
}

type GormTemporaryMessageRepository struct {
	db *gorm.DB
}

func NewTemporaryMessageRepository(db *gorm.DB) *GormTemporaryMessageRepository {
	return &GormTemporaryMessageRepository{db: db}
}

func (r *GormTemporaryMessageRepository) Add(ctx context.Context, chatID int64, messageID string, deleteAt time.Time) error {
	msg := TemporaryMessage{
		ChatID:    chatID,
		MessageID: messageID,
		DeleteAt:  deleteAt.UTC(),
	}
	return r.db.WithContext(ctx).Create(&msg).Error
}

func (r *GormTemporaryMessageRepository) GetExpired(ctx context.Context, now time.Time, limit int) ([]TemporaryMessage, error) {
	var messages []TemporaryMessage
	err := r.db.WithContext(ctx).Where("delete_at <= ?", now.UTC()).Order("delete_at ASC").Limit(limit).Find(&messages).Error
	return messages, err
}

func (r *GormTemporaryMessageRepository) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&TemporaryMessage{}, ids).Error
}
