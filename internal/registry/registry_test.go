package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return New(ModerationConfig{
		ForbiddenWords:        []string{"Spam", "casino"},
		SpamMessageLimit:      3,
		SpamWindowSeconds:     10,
		SpamMuteDurationHours: 6,
	})
}

func TestRegistry_ReplaceForbiddenWords(t *testing.T) {
	r := newTestRegistry()
	before := r.Config()
	require.Equal(t, []string{"spam", "casino"}, before.ForbiddenWords)

	count := r.ReplaceForbiddenWords([]string{"one", " Two ", "one"})
	assert.Equal(t, 2, count)

	after := r.Config()
	assert.Equal(t, []string{"one", "two"}, after.ForbiddenWords)
	assert.Equal(t, 3, after.SpamMessageLimit, "other fields survive the swap")
	assert.Equal(t, []string{"spam", "casino"}, before.ForbiddenWords, "earlier snapshots are never mutated")
}

func TestRegistry_NightLifecycle(t *testing.T) {
	r := newTestRegistry()

	assert.False(t, r.Snapshot(42).Night.Enabled)
	assert.True(t, r.EnableNight(42))
	assert.False(t, r.EnableNight(42), "second enable is rejected")

	snap := r.Snapshot(42)
	assert.True(t, snap.Night.Enabled)
	assert.Equal(t, PhaseOpen, snap.Night.Phase)

	prev, ok := r.SetPhase(42, PhaseClosed)
	assert.True(t, ok)
	assert.Equal(t, PhaseOpen, prev)
	assert.Equal(t, PhaseClosed, r.Snapshot(42).Night.Phase)

	prev, ok = r.DisableNight(42)
	assert.True(t, ok)
	assert.Equal(t, PhaseClosed, prev)
	_, ok = r.DisableNight(42)
	assert.False(t, ok)
	snap = r.Snapshot(42)
	assert.False(t, snap.Night.Enabled)
	assert.Equal(t, PhaseOpen, snap.Night.Phase)

	_, ok = r.SetPhase(42, PhaseClosed)
	assert.False(t, ok, "transitions for a disabled chat are ignored")
}

func TestRegistry_ConcurrentEnable(t *testing.T) {
	r := newTestRegistry()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.EnableNight(7) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, []int64{7}, r.NightChats())
	assert.Equal(t, 1, r.NightChatCount())
}

func TestRegistry_SnapshotDuringReload(t *testing.T) {
	r := newTestRegistry()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				r.ReplaceForbiddenWords([]string{"a", "b"})
			} else {
				r.ReplaceForbiddenWords([]string{"x", "y", "z"})
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		words := r.Snapshot(1).Config.ForbiddenWords
		n := len(words)
		if n != 2 && n != 3 {
			t.Fatalf("observed a partial word set: %v", words)
		}
	}
	close(stop)
	wg.Wait()
}
