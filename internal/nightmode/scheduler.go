package nightmode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/nikalaichik/moderator-bot/internal/messages"
	"github.com/nikalaichik/moderator-bot/internal/metrics"
	"github.com/nikalaichik/moderator-bot/internal/platform"
	"github.com/nikalaichik/moderator-bot/internal/registry"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/robfig/cron/v3"
)

var (
	ErrAlreadyEnabled = errors.New("night mode already enabled")
	ErrNotEnabled     = errors.New("night mode not enabled")
)

// TransitionFunc is called after a phase has been applied to a chat.
type TransitionFunc func(ctx context.Context, chatID int64, phase registry.Phase, err error)

type Option func(*Scheduler)

// WithClock replaces time.Now, used for the enable-time window check.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

func WithTransitionHook(fn TransitionFunc) Option {
	return func(s *Scheduler) {
		s.onTransition = fn
	}
}

// Scheduler owns the daily night_on/night_off triggers of every enrolled
// chat. Phases live in the registry; the scheduler only drives them.
type Scheduler struct {
	logger   *slog.Logger
	registry *registry.Registry
	client   platform.Client
	schedule Schedule
	cron     *cron.Cron
	now      func() time.Time

	onTransition TransitionFunc

	// mu serializes enrollment changes with their trigger registration.
	mu       sync.Mutex
	triggers map[string]cron.EntryID

	// applyLocks order platform permission calls per chat.
	applyLocks *xsync.Map[int64, *sync.Mutex]

	ctx    context.Context
	cancel context.CancelFunc
}

func New(logger *slog.Logger, reg *registry.Registry, client platform.Client, schedule Schedule, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		logger:     logger,
		registry:   reg,
		client:     client,
		schedule:   schedule,
		cron:       cron.New(cron.WithLocation(schedule.location())),
		now:        time.Now,
		triggers:   make(map[string]cron.EntryID),
		applyLocks: xsync.NewMap[int64, *sync.Mutex](),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Schedule() Schedule {
	return s.schedule
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Night mode scheduler started",
		"night_start", s.schedule.NightStart.String(),
		"day_start", s.schedule.DayStart.String(),
		"timezone", s.schedule.location().String(),
	)
}

// Stop deregisters every trigger and waits for running firings, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	for name, id := range s.triggers {
		s.cron.Remove(id)
		delete(s.triggers, name)
	}
	s.mu.Unlock()

	done := s.cron.Stop()
	defer s.cancel()

	select {
	case <-done.Done():
		s.logger.Info("Night mode scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for night mode triggers: %w", ctx.Err())
	}
}

// Enable enrolls the chat, registers its two daily triggers and closes the
// chat right away when called inside the night window.
func (s *Scheduler) Enable(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	if !s.registry.EnableNight(chatID) {
		s.mu.Unlock()
		return ErrAlreadyEnabled
	}
	if err := s.registerTriggers(chatID); err != nil {
		s.removeTriggers(chatID)
		s.registry.DisableNight(chatID)
		s.mu.Unlock()
		return fmt.Errorf("register night mode triggers: %w", err)
	}
	s.mu.Unlock()

	metrics.NightModeChats.Set(float64(s.registry.NightChatCount()))
	s.logger.Info("Night mode enabled", "chat_id", chatID)

	if s.schedule.InWindow(s.now()) {
		s.Fire(ctx, chatID, registry.PhaseClosed)
	}
	return nil
}

// Disable removes the chat's triggers and always reopens it, whatever phase
// it was in.
func (s *Scheduler) Disable(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	prev, ok := s.registry.DisableNight(chatID)
	if !ok {
		s.mu.Unlock()
		return ErrNotEnabled
	}
	s.removeTriggers(chatID)
	s.mu.Unlock()

	metrics.NightModeChats.Set(float64(s.registry.NightChatCount()))
	s.logger.Info("Night mode disabled", "chat_id", chatID, "previous_phase", prev.String())

	lock := s.applyLock(chatID)
	lock.Lock()
	defer lock.Unlock()
	s.apply(ctx, chatID, registry.PhaseOpen, prev == registry.PhaseClosed)

	// a waiting Fire re-checks the registry, so dropping the lock is safe
	// unless the chat was re-enrolled meanwhile
	if !s.registry.NightEnabled(chatID) {
		s.applyLocks.Delete(chatID)
	}
	return nil
}

// Fire runs one phase transition the way a trigger does. Repeating a
// transition leaves the recorded phase as is but re-issues the platform call.
func (s *Scheduler) Fire(ctx context.Context, chatID int64, phase registry.Phase) {
	prev, ok := s.registry.SetPhase(chatID, phase)
	if !ok {
		s.logger.Debug("Ignoring trigger for chat without night mode", "chat_id", chatID, "phase", phase.String())
		return
	}

	lock := s.applyLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	// a later transition or a disable may have overtaken this one
	snap := s.registry.Snapshot(chatID)
	if !snap.Night.Enabled || snap.Night.Phase != phase {
		s.logger.Debug("Skipping superseded transition", "chat_id", chatID, "phase", phase.String())
		return
	}
	s.apply(ctx, chatID, phase, prev != phase)
}

// apply pushes phase to the platform. Failures are logged and counted; the
// recorded phase is never rolled back.
func (s *Scheduler) apply(ctx context.Context, chatID int64, phase registry.Phase, announce bool) {
	perms := platform.OpenPermissions()
	if phase == registry.PhaseClosed {
		perms = platform.ClosedPermissions()
	}

	err := s.client.SetChatPermissions(ctx, chatID, perms)
	switch {
	case err == nil:
	case errors.Is(err, platform.ErrUnsupported):
		s.logger.Debug("Chat permissions unsupported, relying on bot-side enforcement", "chat_id", chatID)
		err = nil
	default:
		metrics.IncPlatformError("set_chat_permissions", platform.Kind(err))
		s.logger.Error("Failed to apply night mode phase", "chat_id", chatID, "phase", phase.String(), "error", err)
	}
	metrics.IncNightTransition(phase.String(), err)

	if err == nil && announce {
		text := messages.MsgNightOff
		if phase == registry.PhaseClosed {
			text = fmt.Sprintf(messages.MsgNightOn, s.schedule.DayStart.String())
		}
		if _, sendErr := s.client.SendMessage(ctx, chatID, text, true); sendErr != nil {
			s.logger.Warn("Failed to send night mode notice", "chat_id", chatID, "error", sendErr)
		}
	}

	if s.onTransition != nil {
		s.onTransition(ctx, chatID, phase, err)
	}
}

func (s *Scheduler) applyLock(chatID int64) *sync.Mutex {
	lock, _ := s.applyLocks.LoadOrCompute(chatID, func() (*sync.Mutex, bool) {
		return &sync.Mutex{}, false
	})
	return lock
}

func triggerName(phase registry.Phase, chatID int64) string {
	if phase == registry.PhaseClosed {
		return "night_on_" + strconv.FormatInt(chatID, 10)
	}
	return "night_off_" + strconv.FormatInt(chatID, 10)
}

// registerTriggers must be called with mu held. Existing triggers for the
// chat are removed first so a chat never fires twice a day.
func (s *Scheduler) registerTriggers(chatID int64) error {
	s.removeTriggers(chatID)

	add := func(phase registry.Phase, at ClockTime) error {
		id, err := s.cron.AddFunc(at.cronSpec(), func() {
			s.Fire(s.ctx, chatID, phase)
		})
		if err != nil {
			return err
		}
		s.triggers[triggerName(phase, chatID)] = id
		return nil
	}

	if err := add(registry.PhaseClosed, s.schedule.NightStart); err != nil {
		return err
	}
	return add(registry.PhaseOpen, s.schedule.DayStart)
}

// removeTriggers must be called with mu held.
func (s *Scheduler) removeTriggers(chatID int64) {
	for _, phase := range []registry.Phase{registry.PhaseClosed, registry.PhaseOpen} {
		name := triggerName(phase, chatID)
		if id, ok := s.triggers[name]; ok {
			s.cron.Remove(id)
			delete(s.triggers, name)
		}
	}
}

// Triggers lists the registered trigger names in sorted order.
func (s *Scheduler) Triggers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.triggers))
	for name := range s.triggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
