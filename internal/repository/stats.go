package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Stat names a ChatStats counter column.
type Stat string

const (
	StatSpam             Stat = "spam_violations"
	StatWord             Stat = "word_violations"
	StatLink             Stat = "link_violations"
	StatForward          Stat = "forward_violations"
	StatMute             Stat = "mute_count"
	StatNightTransitions Stat = "night_transitions"
)

func (s Stat) valid() bool {
	switch s {
	case StatSpam, StatWord, StatLink, StatForward, StatMute, StatNightTransitions:
		return true
	}
	return false
}

type StatsRepository interface {
	IncrementChatStat(ctx context.Context, chatID int64, stat Stat) error
	GetChatTotalStats(ctx context.Context, chatID int64) (*ChatStats, error)
}

type GormStatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *GormStatsRepository {
	return &GormStatsRepository{db: db}
}

// IncrementChatStat bumps today's counter, creating the day row on first use.
func (r *GormStatsRepository) IncrementChatStat(ctx context.Context, chatID int64, stat Stat) error {
	if !stat.valid() {
		return fmt.Errorf("unknown chat stat %q", stat)
	}
	field := string(stat)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	return r.db.WithContext(ctx).Model(&ChatStats{}).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chat_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			field: clause.Expr{SQL: "chat_stats." + field + " + 1"},
		}),
	}).Create(map[string]interface{}{
		"chat_id": chatID,
		"date":    today,
		field:     1,
	}).Error
}

func (r *GormStatsRepository) GetChatTotalStats(ctx context.Context, chatID int64) (*ChatStats, error) {
	var stats ChatStats
	err := r.db.WithContext(ctx).Model(&ChatStats{}).
		Select("chat_id, SUM(spam_violations) as spam_violations, SUM(word_violations) as word_violations, SUM(link_violations) as link_violations, SUM(forward_violations) as forward_violations, SUM(mute_count) as mute_count, SUM(night_transitions) as night_transitions").
		Where("chat_id = ?", chatID).
		Group("chat_id").
		Take(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ChatStats{ChatID: chatID}, nil
		}
		return nil, err
	}
	return &stats, nil
}
