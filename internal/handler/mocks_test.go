package handler

import (
	"context"
	"time"

	"github.com/nikalaichik/moderator-bot/internal/nightmode"
	"github.com/nikalaichik/moderator-bot/internal/pipeline"
	"github.com/nikalaichik/moderator-bot/internal/platform"
	"github.com/nikalaichik/moderator-bot/internal/repository"
)

type MockService struct {
	OnMessageFunc        func(ctx context.Context, event pipeline.MessageEvent, from platform.User) pipeline.Decision
	EnableNightModeFunc  func(ctx context.Context, chatID int64) error
	DisableNightModeFunc func(ctx context.Context, chatID int64) error
	ReloadFromFileFunc   func(ctx context.Context) (int, error)
	MuteUserFunc         func(ctx context.Context, chatID int64, target platform.User, duration time.Duration) error
	KickUserFunc         func(ctx context.Context, chatID int64, target platform.User) error

	events   []pipeline.MessageEvent
	notices  []string
	newUsers []platform.User
	muted    []time.Duration
}

func (m *MockService) OnMessage(ctx context.Context, event pipeline.MessageEvent, from platform.User) pipeline.Decision {
	m.events = append(m.events, event)
	if m.OnMessageFunc != nil {
		return m.OnMessageFunc(ctx, event, from)
	}
	return pipeline.Allow()
}

func (m *MockService) OnNewChatMembers(ctx context.Context, chatID int64, members []platform.User) {
	m.newUsers = append(m.newUsers, members...)
}

func (m *MockService) EnableNightMode(ctx context.Context, chatID int64) error {
	if m.EnableNightModeFunc != nil {
		return m.EnableNightModeFunc(ctx, chatID)
	}
	return nil
}

func (m *MockService) DisableNightMode(ctx context.Context, chatID int64) error {
	if m.DisableNightModeFunc != nil {
		return m.DisableNightModeFunc(ctx, chatID)
	}
	return nil
}

func (m *MockService) ReloadForbiddenWords(words []string) int {
	return len(words)
}

func (m *MockService) ReloadFromFile(ctx context.Context) (int, error) {
	if m.ReloadFromFileFunc != nil {
		return m.ReloadFromFileFunc(ctx)
	}
	return 0, nil
}

func (m *MockService) KickUser(ctx context.Context, chatID int64, target platform.User) error {
	if m.KickUserFunc != nil {
		return m.KickUserFunc(ctx, chatID, target)
	}
	return nil
}

func (m *MockService) BanUser(ctx context.Context, chatID int64, target platform.User) error {
	return nil
}

func (m *MockService) MuteUser(ctx context.Context, chatID int64, target platform.User, duration time.Duration) error {
	m.muted = append(m.muted, duration)
	if m.MuteUserFunc != nil {
		return m.MuteUserFunc(ctx, chatID, target, duration)
	}
	return nil
}

func (m *MockService) UnmuteUser(ctx context.Context, chatID int64, target platform.User) error {
	return nil
}

func (m *MockService) GetChatStats(ctx context.Context, chatID int64) (*repository.ChatStats, int, error) {
	return &repository.ChatStats{ChatID: chatID, SpamViolations: 3}, 1, nil
}

func (m *MockService) NightSchedule() nightmode.Schedule {
	return nightmode.Schedule{
		NightStart: nightmode.ClockTime{Hour: 22},
		DayStart:   nightmode.ClockTime{Hour: 9},
		Location:   time.UTC,
	}
}

func (m *MockService) Notify(ctx context.Context, chatID int64, text string) {
	m.notices = append(m.notices, text)
}

func (m *MockService) StartMetricsUpdater(ctx context.Context) {}

func (m *MockService) StartCleanupTask(ctx context.Context) {}

type MockLister struct {
	Admins []int64
	Err    error
	calls  int
}

func (m *MockLister) GetChatAdministrators(ctx context.Context, chatID int64) ([]int64, error) {
	m.calls++
	return m.Admins, m.Err
}
