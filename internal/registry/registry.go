package registry

import (
	"sync"
	"sync/atomic"

	"github.com/nikalaichik/moderator-bot/internal/utils"

	"github.com/puzpuzpuz/xsync/v4"
)

type Phase int

const (
	PhaseOpen Phase = iota
	PhaseClosed
)

func (p Phase) String() string {
	if p == PhaseClosed {
		return "closed"
	}
	return "open"
}

// ModerationConfig is replaced as a whole, never mutated in place.
type ModerationConfig struct {
	ForbiddenWords        []string
	SpamMessageLimit      int
	SpamWindowSeconds     int
	SpamMuteDurationHours int
}

type NightState struct {
	ChatID  int64
	Enabled bool
	Phase   Phase
}

// Snapshot is what a single moderation decision reads from the registry.
type Snapshot struct {
	Config *ModerationConfig
	Night  NightState
}

type chatEntry struct {
	mu      sync.RWMutex
	phase   Phase
	removed bool
}

// Registry is the process-wide source of truth for moderation config and
// night-mode enrollment. Night entries are locked per chat.
type Registry struct {
	config atomic.Pointer[ModerationConfig]
	chats  *xsync.Map[int64, *chatEntry]
}

func New(cfg ModerationConfig) *Registry {
	r := &Registry{
		chats: xsync.NewMap[int64, *chatEntry](),
	}
	r.SetConfig(cfg)
	return r
}

// Config returns the active config. Callers must treat it as read-only.
func (r *Registry) Config() *ModerationConfig {
	return r.config.Load()
}

func (r *Registry) SetConfig(cfg ModerationConfig) {
	cfg.ForbiddenWords = utils.NormalizeWords(cfg.ForbiddenWords)
	r.config.Store(&cfg)
}

// ReplaceForbiddenWords swaps in a new word set and returns its size.
func (r *Registry) ReplaceForbiddenWords(words []string) int {
	normalized := utils.NormalizeWords(words)
	for {
		old := r.config.Load()
		next := *old
		next.ForbiddenWords = normalized
		if r.config.CompareAndSwap(old, &next) {
			return len(normalized)
		}
	}
}

func (r *Registry) Snapshot(chatID int64) Snapshot {
	snap := Snapshot{
		Config: r.config.Load(),
		Night:  NightState{ChatID: chatID},
	}
	if e, ok := r.chats.Load(chatID); ok {
		e.mu.RLock()
		if !e.removed {
			snap.Night.Enabled = true
			snap.Night.Phase = e.phase
		}
		e.mu.RUnlock()
	}
	return snap
}

// EnableNight adds the chat to the night-mode set in the OPEN phase.
// It reports false if the chat was already enrolled.
func (r *Registry) EnableNight(chatID int64) bool {
	_, loaded := r.chats.LoadOrCompute(chatID, func() (*chatEntry, bool) {
		return &chatEntry{phase: PhaseOpen}, false
	})
	return !loaded
}

// DisableNight removes the chat from the night-mode set and returns the
// phase it was in. ok is false if the chat was not enrolled.
func (r *Registry) DisableNight(chatID int64) (prev Phase, ok bool) {
	e, found := r.chats.LoadAndDelete(chatID)
	if !found {
		return PhaseOpen, false
	}
	e.mu.Lock()
	prev = e.phase
	e.removed = true
	e.phase = PhaseOpen
	e.mu.Unlock()
	return prev, true
}

// SetPhase records a phase transition for an enrolled chat and returns the
// previous phase. ok is false when the chat is not enrolled.
func (r *Registry) SetPhase(chatID int64, phase Phase) (prev Phase, ok bool) {
	e, found := r.chats.Load(chatID)
	if !found {
		return PhaseOpen, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return PhaseOpen, false
	}
	prev = e.phase
	e.phase = phase
	return prev, true
}

func (r *Registry) NightEnabled(chatID int64) bool {
	return r.Snapshot(chatID).Night.Enabled
}

func (r *Registry) NightChats() []int64 {
	var ids []int64
	r.chats.Range(func(chatID int64, _ *chatEntry) bool {
		ids = append(ids, chatID)
		return true
	})
	return ids
}

func (r *Registry) NightChatCount() int {
	return r.chats.Size()
}
