package activity

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

type key struct {
	chatID int64
	userID int64
}

// window holds one user's recent message timestamps in one chat.
// All fields are guarded by mu; a dead window has been swept from the
// arena and must not be written to.
type window struct {
	mu     sync.Mutex
	stamps []time.Time
	span   time.Duration
	dead   bool
}

// Store keeps a sliding window of message timestamps per (chat, user).
// Each key is locked independently, so different users never contend.
// State is volatile and starts empty on every process start.
type Store struct {
	windows *xsync.Map[key, *window]
}

func NewStore() *Store {
	return &Store{
		windows: xsync.NewMap[key, *window](),
	}
}

// RecordAndCheck prunes timestamps with now-ts >= windowSeconds, appends now
// and reports the resulting count and whether it reached limit.
func (s *Store) RecordAndCheck(chatID, userID int64, now time.Time, limit, windowSeconds int) (int, bool) {
	span := time.Duration(windowSeconds) * time.Second
	k := key{chatID: chatID, userID: userID}

	for {
		w, _ := s.windows.LoadOrCompute(k, func() (*window, bool) {
			return &window{}, false
		})

		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			continue
		}
		w.span = span
		w.stamps = prune(w.stamps, now, span)
		w.stamps = append(w.stamps, now)
		count := len(w.stamps)
		w.mu.Unlock()

		return count, limit > 0 && count >= limit
	}
}

// Reset clears the window of one user so the burst that earned a penalty
// cannot retrigger it.
func (s *Store) Reset(chatID, userID int64) {
	w, ok := s.windows.Load(key{chatID: chatID, userID: userID})
	if !ok {
		return
	}
	w.mu.Lock()
	w.stamps = w.stamps[:0]
	w.mu.Unlock()
}

// Count returns the number of timestamps currently inside the user's window.
func (s *Store) Count(chatID, userID int64, now time.Time) int {
	w, ok := s.windows.Load(key{chatID: chatID, userID: userID})
	if !ok {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stamps = prune(w.stamps, now, w.span)
	return len(w.stamps)
}

// Sweep drops windows that no longer hold any timestamp inside their span
// and returns how many windows remain.
func (s *Store) Sweep(now time.Time) int {
	s.windows.Range(func(k key, w *window) bool {
		w.mu.Lock()
		w.stamps = prune(w.stamps, now, w.span)
		if len(w.stamps) == 0 {
			w.dead = true
			s.windows.Delete(k)
		}
		w.mu.Unlock()
		return true
	})
	return s.windows.Size()
}

// Len is the number of tracked (chat, user) windows.
func (s *Store) Len() int {
	return s.windows.Size()
}

func prune(stamps []time.Time, now time.Time, span time.Duration) []time.Time {
	valid := stamps[:0]
	for _, ts := range stamps {
		if now.Sub(ts) < span {
			valid = append(valid, ts)
		}
	}
	return valid
}
