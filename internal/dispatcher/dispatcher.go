package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nikalaichik/moderator-bot/internal/metrics"
	"github.com/nikalaichik/moderator-bot/internal/platform"
)

var ErrClosed = errors.New("dispatcher is shut down")

// HandlerFunc processes one inbound message.
type HandlerFunc func(ctx context.Context, msg platform.Message) error

// Dispatcher runs messages on a fixed number of workers. Messages of one
// chat are queued and handled one at a time in arrival order; different
// chats run in parallel.
type Dispatcher struct {
	workers int
	do      HandlerFunc
	ctx     context.Context

	feeder chan *task
	out    chan struct{}

	lk      sync.Mutex
	active  map[int64][]*task
	closed  bool
	pending sync.WaitGroup

	log *slog.Logger
}

type task struct {
	chatID  int64
	msg     platform.Message
	control string
}

// New starts the workers. Handlers run with a context that keeps ctx's
// values but is never cancelled, so in-flight work is finished on shutdown.
func New(ctx context.Context, logger *slog.Logger, workers int, do HandlerFunc) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		workers: workers,
		do:      do,
		ctx:     context.WithoutCancel(ctx),
		feeder:  make(chan *task),
		out:     make(chan struct{}),
		active:  make(map[int64][]*task),
		log:     logger.With("system", "dispatcher"),
	}

	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

// Add queues msg behind any earlier messages of the same chat.
func (d *Dispatcher) Add(ctx context.Context, msg platform.Message) error {
	t := &task{chatID: msg.ChatID, msg: msg}

	d.lk.Lock()
	if d.closed {
		d.lk.Unlock()
		return ErrClosed
	}
	d.pending.Add(1)
	metrics.DispatchQueued.Inc()

	if q, ok := d.active[t.chatID]; ok {
		d.active[t.chatID] = append(q, t)
		d.lk.Unlock()
		return nil
	}
	d.active[t.chatID] = []*task{}
	metrics.DispatchActiveChats.Set(float64(len(d.active)))
	d.lk.Unlock()

	select {
	case d.feeder <- t:
		return nil
	case <-ctx.Done():
		d.lk.Lock()
		// hand any followers to a worker so they are not stranded
		rest := d.active[t.chatID]
		delete(d.active, t.chatID)
		metrics.DispatchActiveChats.Set(float64(len(d.active)))
		d.lk.Unlock()
		d.pending.Done()
		for _, f := range rest {
			d.pending.Done()
			d.log.Warn("Dropped queued message", "chat_id", f.chatID, "message_id", f.msg.MessageID)
		}
		return ctx.Err()
	}
}

// Shutdown stops intake and waits for queued messages to be handled,
// bounded by ctx. Workers are released only after a complete drain.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.lk.Lock()
	if d.closed {
		d.lk.Unlock()
		return nil
	}
	d.closed = true
	d.lk.Unlock()
	d.log.Info("Shutting down dispatcher", "workers", d.workers)

	drained := make(chan struct{})
	go func() {
		d.pending.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		d.lk.Lock()
		chats, left := len(d.active), 0
		for _, q := range d.active {
			left += len(q) + 1
		}
		d.lk.Unlock()
		return fmt.Errorf("dispatcher drain interrupted with %d chats busy (~%d messages): %w", chats, left, ctx.Err())
	}

	for i := 0; i < d.workers; i++ {
		d.feeder <- &task{control: "stop"}
	}
	close(d.feeder)
	for i := 0; i < d.workers; i++ {
		<-d.out
	}

	d.log.Info("Dispatcher shutdown complete")
	return nil
}

func (d *Dispatcher) worker() {
	for work := range d.feeder {
		for work != nil {
			if work.control == "stop" {
				d.out <- struct{}{}
				return
			}

			if err := d.do(d.ctx, work.msg); err != nil {
				d.log.Error("Message handler failed", "chat_id", work.chatID, "error", err)
			}
			metrics.DispatchProcessed.Inc()
			d.pending.Done()

			d.lk.Lock()
			rem, ok := d.active[work.chatID]
			if !ok {
				d.log.Error("Should always have an active entry while a worker is processing a chat")
			}

			if len(rem) == 0 {
				delete(d.active, work.chatID)
				work = nil
			} else {
				work = rem[0]
				d.active[work.chatID] = rem[1:]
			}
			metrics.DispatchActiveChats.Set(float64(len(d.active)))
			d.lk.Unlock()
		}
	}
}
