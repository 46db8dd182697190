package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type MuteRepository interface {
	MuteUser(ctx context.Context, chatID, userID int64, userName, reason string, until time.Time) error
	UnmuteUser(ctx context.Context, chatID, userID int64) error
	IsMuted(ctx context.Context, chatID, userID int64, now time.Time) (bool, time.Time, error)
	GetActiveMutes(ctx context.Context, chatID int64, now time.Time) ([]Mute, error)
	CountActiveMutes(ctx context.Context, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type GormMuteRepository struct {
	db *gorm.DB
}

func NewMuteRepository(db *gorm.DB) *GormMuteRepository {
	return &GormMuteRepository{db: db}
}

// MuteUser records a mute. An existing record keeps the later expiry.
func (r *GormMuteRepository) MuteUser(ctx context.Context, chatID, userID int64, userName, reason string, until time.Time) error {
	db := r.db.WithContext(ctx)
	until = until.UTC()

	var existing Mute
	err := db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			mute := Mute{
				ChatID:    chatID,
				UserID:    userID,
				UserName:  userName,
				Reason:    reason,
				ExpiresAt: until,
			}
			if err := db.Create(&mute).Error; err != nil {
				return fmt.Errorf("failed to create mute: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to check existing mute: %w", err)
	}

	updates := map[string]interface{}{}
	if until.After(existing.ExpiresAt) {
		updates["expires_at"] = until
		updates["reason"] = reason
	}
	if userName != "" && userName != existing.UserName {
		updates["user_name"] = userName
	}

	if len(updates) > 0 {
		if err := db.Model(&existing).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update mute: %w", err)
		}
	}
	return nil
}

func (r *GormMuteRepository) UnmuteUser(ctx context.Context, chatID, userID int64) error {
	if err := r.db.WithContext(ctx).Where("chat_id = ? AND user_id = ?", chatID, userID).Delete(&Mute{}).Error; err != nil {
		return fmt.Errorf("failed to unmute user: %w", err)
	}
	return nil
}

func (r *GormMuteRepository) IsMuted(ctx context.Context, chatID, userID int64, now time.Time) (bool, time.Time, error) {
	var mute Mute
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Where("expires_at > ?", now.UTC()).
		First(&mute).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, time.Time{}, nil
		}
		return false, time.Time{}, fmt.Errorf("failed to check mute status: %w", err)
	}
	return true, mute.ExpiresAt, nil
}

func (r *GormMuteRepository) GetActiveMutes(ctx context.Context, chatID int64, now time.Time) ([]Mute, error) {
	var mutes []Mute
	if err := r.db.WithContext(ctx).
		Where("chat_id = ? AND expires_at > ?", chatID, now.UTC()).
		Order("expires_at ASC").
		Find(&mutes).Error; err != nil {
		return nil, fmt.Errorf("failed to get active mutes: %w", err)
	}
	return mutes, nil
}

func (r *GormMuteRepository) CountActiveMutes(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Mute{}).Where("expires_at > ?", now.UTC()).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active mutes: %w", err)
	}
	return count, nil
}

func (r *GormMuteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&Mute{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete expired mutes: %w", res.Error)
	}
	return res.RowsAffected, nil
}
