package repository

import (
	"time"
)

// Mute is a restriction issued by the bot. On platforms without native
// member restriction it is also what the bot enforces itself.
type Mute struct {
	ID        uint      `gorm:"primaryKey"`
	ChatID    int64     `gorm:"uniqueIndex:idx_mutes_chat_user"`
	UserID    int64     `gorm:"uniqueIndex:idx_mutes_chat_user"`
	UserName  string    `gorm:"size:255"`
	Reason    string    `gorm:"size:50"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}

// ChatStats holds one day of moderation counters for a chat.
type ChatStats struct {
	ChatID            int64     `gorm:"primaryKey;autoIncrement:false"`
	Date              time.Time `gorm:"primaryKey;type:date"`
	SpamViolations    int64     `gorm:"default:0"`
	WordViolations    int64     `gorm:"default:0"`
	LinkViolations    int64     `gorm:"default:0"`
	ForwardViolations int64     `gorm:"default:0"`
	MuteCount         int64     `gorm:"default:0"`
	NightTransitions  int64     `gorm:"default:0"`
}

type TemporaryMessage struct {
	ID        int64     `gorm:"primaryKey"`
	ChatID    int64     `gorm:"not null"`
	MessageID string    `gorm:"not null"`
	DeleteAt  time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
