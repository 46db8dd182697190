package service

import (
	"context"
	"time"

	"github.com/nikalaichik/moderator-bot/internal/metrics"
)

func (s *ModerationService) StartMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)

	update := func() {
		now := s.now()
		metrics.ActivityWindows.Set(float64(s.windows.Sweep(now)))
		metrics.NightModeChats.Set(float64(s.registry.NightChatCount()))

		if s.muteRepo == nil {
			return
		}
		if _, err := s.muteRepo.DeleteExpired(ctx, now); err != nil {
			s.logger.Error("Failed to delete expired mutes", "error", err)
		}
		count, err := s.muteRepo.CountActiveMutes(ctx, now)
		if err != nil {
			s.logger.Error("Failed to count active mutes", "error", err)
			return
		}
		metrics.SetActiveMutes(float64(count))
	}

	go update()

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				update()
			}
		}
	}()
}

// StartCleanupTask removes expired bot notices from their chats.
func (s *ModerationService) StartCleanupTask(ctx context.Context) {
	if s.tempRepo == nil {
		return
	}
	ticker := time.NewTicker(2 * time.Second)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupNotices(ctx)
			}
		}
	}()
}

func (s *ModerationService) cleanupNotices(ctx context.Context) {
	expired, err := s.tempRepo.GetExpired(ctx, s.now(), 50)
	if err != nil {
		s.logger.Error("Failed to get expired messages", "error", err)
		return
	}

	if len(expired) == 0 {
		return
	}

	s.logger.Debug("Found expired messages to delete", "count", len(expired))

	var toDeleteIDs []int64
	for _, msg := range expired {
		if err := s.client.DeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil {
			s.logger.Warn("Failed to delete expired message from chat (will delete from DB)",
				"msg_id", msg.MessageID, "chat_id", msg.ChatID, "error", err)
		} else {
			metrics.IncDeletedMessages("temp_expired")
		}
		toDeleteIDs = append(toDeleteIDs, msg.ID)
	}

	if err := s.tempRepo.Delete(ctx, toDeleteIDs); err != nil {
		s.logger.Error("Failed to delete messages from DB", "error", err)
	}
}
