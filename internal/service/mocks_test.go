package service

import (
	"context"
	"sync"
	"time"

	"github.com/nikalaichik/moderator-bot/internal/nightmode"
	"github.com/nikalaichik/moderator-bot/internal/platform"
	"github.com/nikalaichik/moderator-bot/internal/repository"
)

type restrictCall struct {
	ChatID  int64
	UserID  int64
	CanSend bool
	Until   time.Time
}

type MockClient struct {
	DeleteMessageFunc  func(ctx context.Context, chatID int64, messageID string) error
	RestrictMemberFunc func(ctx context.Context, chatID, userID int64, canSend bool, until time.Time) error
	SendMessageFunc    func(ctx context.Context, chatID int64, text string, silent bool) (string, error)
	BanMemberFunc      func(ctx context.Context, chatID, userID int64) error
	UnbanMemberFunc    func(ctx context.Context, chatID, userID int64) error
	Caps               platform.Capabilities

	mu        sync.Mutex
	deletes   int
	restricts []restrictCall
	sent      []string
	calls     []string
}

func (m *MockClient) DeleteMessage(ctx context.Context, chatID int64, messageID string) error {
	m.mu.Lock()
	m.deletes++
	m.mu.Unlock()
	if m.DeleteMessageFunc != nil {
		return m.DeleteMessageFunc(ctx, chatID, messageID)
	}
	return nil
}

func (m *MockClient) RestrictMember(ctx context.Context, chatID, userID int64, canSend bool, until time.Time) error {
	m.mu.Lock()
	m.restricts = append(m.restricts, restrictCall{ChatID: chatID, UserID: userID, CanSend: canSend, Until: until})
	m.mu.Unlock()
	if m.RestrictMemberFunc != nil {
		return m.RestrictMemberFunc(ctx, chatID, userID, canSend, until)
	}
	return nil
}

func (m *MockClient) SetChatPermissions(ctx context.Context, chatID int64, perms platform.Permissions) error {
	return nil
}

func (m *MockClient) GetChatAdministrators(ctx context.Context, chatID int64) ([]int64, error) {
	return nil, nil
}

func (m *MockClient) SendMessage(ctx context.Context, chatID int64, text string, silent bool) (string, error) {
	m.mu.Lock()
	m.sent = append(m.sent, text)
	m.mu.Unlock()
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, chatID, text, silent)
	}
	return "notice-1", nil
}

func (m *MockClient) BanMember(ctx context.Context, chatID, userID int64) error {
	m.mu.Lock()
	m.calls = append(m.calls, "ban")
	m.mu.Unlock()
	if m.BanMemberFunc != nil {
		return m.BanMemberFunc(ctx, chatID, userID)
	}
	return nil
}

func (m *MockClient) UnbanMember(ctx context.Context, chatID, userID int64) error {
	m.mu.Lock()
	m.calls = append(m.calls, "unban")
	m.mu.Unlock()
	if m.UnbanMemberFunc != nil {
		return m.UnbanMemberFunc(ctx, chatID, userID)
	}
	return nil
}

func (m *MockClient) Capabilities() platform.Capabilities {
	return m.Caps
}

func (m *MockClient) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

type MockMuteRepository struct {
	MuteUserFunc func(ctx context.Context, chatID, userID int64, userName, reason string, until time.Time) error
	IsMutedFunc  func(ctx context.Context, chatID, userID int64, now time.Time) (bool, time.Time, error)

	muted   []int64
	unmuted []int64
}

func (m *MockMuteRepository) MuteUser(ctx context.Context, chatID, userID int64, userName, reason string, until time.Time) error {
	m.muted = append(m.muted, userID)
	if m.MuteUserFunc != nil {
		return m.MuteUserFunc(ctx, chatID, userID, userName, reason, until)
	}
	return nil
}

func (m *MockMuteRepository) UnmuteUser(ctx context.Context, chatID, userID int64) error {
	m.unmuted = append(m.unmuted, userID)
	return nil
}

func (m *MockMuteRepository) IsMuted(ctx context.Context, chatID, userID int64, now time.Time) (bool, time.Time, error) {
	if m.IsMutedFunc != nil {
		return m.IsMutedFunc(ctx, chatID, userID, now)
	}
	return false, time.Time{}, nil
}

func (m *MockMuteRepository) GetActiveMutes(ctx context.Context, chatID int64, now time.Time) ([]repository.Mute, error) {
	var mutes []repository.Mute
	for _, id := range m.muted {
		mutes = append(mutes, repository.Mute{ChatID: chatID, UserID: id})
	}
	return mutes, nil
}

func (m *MockMuteRepository) CountActiveMutes(ctx context.Context, now time.Time) (int64, error) {
	return int64(len(m.muted)), nil
}

func (m *MockMuteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type MockTempRepository struct {
	added   []time.Time
	expired []repository.TemporaryMessage
	deleted []int64
}

func (m *MockTempRepository) Add(ctx context.Context, chatID int64, messageID string, deleteAt time.Time) error {
	m.added = append(m.added, deleteAt)
	return nil
}

func (m *MockTempRepository) GetExpired(ctx context.Context, now time.Time, limit int) ([]repository.TemporaryMessage, error) {
	return m.expired, nil
}

func (m *MockTempRepository) Delete(ctx context.Context, ids []int64) error {
	m.deleted = append(m.deleted, ids...)
	return nil
}

type MockStatsRepository struct {
	IncrementChatStatFunc func(ctx context.Context, chatID int64, stat repository.Stat) error

	stats []repository.Stat
}

func (m *MockStatsRepository) IncrementChatStat(ctx context.Context, chatID int64, stat repository.Stat) error {
	m.stats = append(m.stats, stat)
	if m.IncrementChatStatFunc != nil {
		return m.IncrementChatStatFunc(ctx, chatID, stat)
	}
	return nil
}

func (m *MockStatsRepository) GetChatTotalStats(ctx context.Context, chatID int64) (*repository.ChatStats, error) {
	return &repository.ChatStats{ChatID: chatID, SpamViolations: int64(len(m.stats))}, nil
}

type MockNightMode struct {
	EnableFunc  func(ctx context.Context, chatID int64) error
	DisableFunc func(ctx context.Context, chatID int64) error
}

func (m *MockNightMode) Enable(ctx context.Context, chatID int64) error {
	if m.EnableFunc != nil {
		return m.EnableFunc(ctx, chatID)
	}
	return nil
}

func (m *MockNightMode) Disable(ctx context.Context, chatID int64) error {
	if m.DisableFunc != nil {
		return m.DisableFunc(ctx, chatID)
	}
	return nil
}

func (m *MockNightMode) Schedule() nightmode.Schedule {
	return nightmode.Schedule{Location: time.UTC}
}
