package nightmode

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nikalaichik/moderator-bot/internal/messages"
	"github.com/nikalaichik/moderator-bot/internal/platform"
	"github.com/nikalaichik/moderator-bot/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchedule = Schedule{
	NightStart: ClockTime{Hour: 22},
	DayStart:   ClockTime{Hour: 9},
	Location:   time.UTC,
}

func newTestScheduler(t *testing.T, now time.Time, client *MockClient, opts ...Option) (*Scheduler, *registry.Registry) {
	t.Helper()
	reg := registry.New(registry.ModerationConfig{SpamMessageLimit: 5, SpamWindowSeconds: 10, SpamMuteDurationHours: 6})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	s := New(logger, reg, client, testSchedule, opts...)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s, reg
}

func at(h, m int) time.Time {
	return time.Date(2024, 5, 1, h, m, 0, 0, time.UTC)
}

func TestScheduler_EnableInsideWindowClosesImmediately(t *testing.T) {
	client := &MockClient{}
	s, reg := newTestScheduler(t, at(23, 50), client)

	require.NoError(t, s.Enable(context.Background(), 42))

	assert.Equal(t, registry.PhaseClosed, reg.Snapshot(42).Night.Phase)
	calls := client.PermissionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, platform.ClosedPermissions(), calls[0].Perms)
	require.Len(t, client.Sent(), 1)
	assert.Contains(t, client.Sent()[0], "09:00")
}

func TestScheduler_EnableOutsideWindowStaysOpen(t *testing.T) {
	client := &MockClient{}
	s, reg := newTestScheduler(t, at(12, 0), client)

	require.NoError(t, s.Enable(context.Background(), 42))

	snap := reg.Snapshot(42)
	assert.True(t, snap.Night.Enabled)
	assert.Equal(t, registry.PhaseOpen, snap.Night.Phase)
	assert.Empty(t, client.PermissionCalls())
}

func TestScheduler_DoubleEnableRegistersOnePair(t *testing.T) {
	s, _ := newTestScheduler(t, at(12, 0), &MockClient{})
	ctx := context.Background()

	require.NoError(t, s.Enable(ctx, 42))
	assert.ErrorIs(t, s.Enable(ctx, 42), ErrAlreadyEnabled)

	assert.Equal(t, []string{"night_off_42", "night_on_42"}, s.Triggers())
	assert.Len(t, s.cron.Entries(), 2)
}

func TestScheduler_DoubleDisable(t *testing.T) {
	client := &MockClient{}
	s, reg := newTestScheduler(t, at(23, 0), client)
	ctx := context.Background()

	require.NoError(t, s.Enable(ctx, 42))
	require.Equal(t, registry.PhaseClosed, reg.Snapshot(42).Night.Phase)

	require.NoError(t, s.Disable(ctx, 42))
	assert.ErrorIs(t, s.Disable(ctx, 42), ErrNotEnabled)

	snap := reg.Snapshot(42)
	assert.False(t, snap.Night.Enabled)
	assert.Equal(t, registry.PhaseOpen, snap.Night.Phase)
	assert.Empty(t, s.Triggers())
	assert.Empty(t, s.cron.Entries())

	calls := client.PermissionCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, platform.OpenPermissions(), calls[1].Perms, "disable always reopens the chat")
	assert.Equal(t, messages.MsgNightOff, client.Sent()[len(client.Sent())-1])
}

func TestScheduler_DisableReleasesApplyLock(t *testing.T) {
	s, _ := newTestScheduler(t, at(23, 0), &MockClient{})
	ctx := context.Background()

	for chatID := int64(1); chatID <= 3; chatID++ {
		require.NoError(t, s.Enable(ctx, chatID))
	}
	assert.Equal(t, 3, s.applyLocks.Size())

	for chatID := int64(1); chatID <= 3; chatID++ {
		require.NoError(t, s.Disable(ctx, chatID))
	}
	assert.Equal(t, 0, s.applyLocks.Size())

	require.NoError(t, s.Enable(ctx, 2))
	assert.Equal(t, 1, s.applyLocks.Size(), "re-enabled chat gets a fresh lock")
}

func TestScheduler_DisableWhileOpenStillForcesOpen(t *testing.T) {
	client := &MockClient{}
	s, _ := newTestScheduler(t, at(12, 0), client)
	ctx := context.Background()

	require.NoError(t, s.Enable(ctx, 42))
	require.NoError(t, s.Disable(ctx, 42))

	calls := client.PermissionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, platform.OpenPermissions(), calls[0].Perms)
	assert.Empty(t, client.Sent(), "no notice when the chat was already open")
}

func TestScheduler_FireIsIdempotentButReissuesPlatformCall(t *testing.T) {
	client := &MockClient{}
	s, reg := newTestScheduler(t, at(12, 0), client)
	ctx := context.Background()
	require.NoError(t, s.Enable(ctx, 42))

	s.Fire(ctx, 42, registry.PhaseClosed)
	s.Fire(ctx, 42, registry.PhaseClosed)

	assert.Equal(t, registry.PhaseClosed, reg.Snapshot(42).Night.Phase)
	assert.Len(t, client.PermissionCalls(), 2)
	assert.Len(t, client.Sent(), 1, "the notice is only sent on an actual change")
}

func TestScheduler_FailedTransitionIsStillRecorded(t *testing.T) {
	var transitions []error
	client := &MockClient{
		SetChatPermissionsFunc: func(ctx context.Context, chatID int64, perms platform.Permissions) error {
			return &platform.TransientError{Op: "setChatPermissions", Err: errors.New("timeout")}
		},
	}
	s, reg := newTestScheduler(t, at(12, 0), client, WithTransitionHook(func(_ context.Context, _ int64, _ registry.Phase, err error) {
		transitions = append(transitions, err)
	}))
	ctx := context.Background()
	require.NoError(t, s.Enable(ctx, 42))

	s.Fire(ctx, 42, registry.PhaseClosed)
	assert.Equal(t, registry.PhaseClosed, reg.Snapshot(42).Night.Phase)
	assert.Empty(t, client.Sent())

	s.Fire(ctx, 42, registry.PhaseOpen)
	assert.Equal(t, registry.PhaseOpen, reg.Snapshot(42).Night.Phase, "a failed transition does not block the next one")
	require.Len(t, transitions, 2)
	assert.Error(t, transitions[0])
}

func TestScheduler_UnsupportedPermissionsAreNotFailures(t *testing.T) {
	var transitions []error
	client := &MockClient{
		SetChatPermissionsFunc: func(ctx context.Context, chatID int64, perms platform.Permissions) error {
			return platform.ErrUnsupported
		},
	}
	s, _ := newTestScheduler(t, at(23, 0), client, WithTransitionHook(func(_ context.Context, _ int64, _ registry.Phase, err error) {
		transitions = append(transitions, err)
	}))

	require.NoError(t, s.Enable(context.Background(), 42))
	require.Len(t, transitions, 1)
	assert.NoError(t, transitions[0])
	assert.Len(t, client.Sent(), 1)
}

func TestScheduler_TriggerJobsFire(t *testing.T) {
	client := &MockClient{}
	s, reg := newTestScheduler(t, at(12, 0), client)
	require.NoError(t, s.Enable(context.Background(), 42))

	s.mu.Lock()
	onID := s.triggers["night_on_42"]
	offID := s.triggers["night_off_42"]
	s.mu.Unlock()

	on := s.cron.Entry(onID)
	require.True(t, on.Valid())
	on.Job.Run()
	assert.Equal(t, registry.PhaseClosed, reg.Snapshot(42).Night.Phase)

	s.cron.Entry(offID).Job.Run()
	assert.Equal(t, registry.PhaseOpen, reg.Snapshot(42).Night.Phase)
}

func TestScheduler_IgnoresTriggersForDisabledChat(t *testing.T) {
	client := &MockClient{}
	s, reg := newTestScheduler(t, at(12, 0), client)

	s.Fire(context.Background(), 7, registry.PhaseClosed)

	assert.False(t, reg.Snapshot(7).Night.Enabled)
	assert.Empty(t, client.PermissionCalls())
}

func TestScheduler_StopRemovesTriggers(t *testing.T) {
	s, _ := newTestScheduler(t, at(12, 0), &MockClient{})
	s.Start()
	ctx := context.Background()
	require.NoError(t, s.Enable(ctx, 1))
	require.NoError(t, s.Enable(ctx, 2))

	require.NoError(t, s.Stop(ctx))
	assert.Empty(t, s.Triggers())
}
