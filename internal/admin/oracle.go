package admin

import (
	"context"
	"log/slog"
	"slices"

	"github.com/nikalaichik/moderator-bot/internal/metrics"
	"github.com/nikalaichik/moderator-bot/internal/platform"
)

// Lister is the platform call the oracle delegates to.
type Lister interface {
	GetChatAdministrators(ctx context.Context, chatID int64) ([]int64, error)
}

// Oracle answers whether a user administers a chat. It never returns an
// error: a failed lookup counts as "not admin", so moderation stays strict.
type Oracle struct {
	logger *slog.Logger
	lister Lister
	cache  Cache
}

// NewOracle builds an oracle; cache may be nil to always ask the platform.
func NewOracle(logger *slog.Logger, lister Lister, cache Cache) *Oracle {
	return &Oracle{
		logger: logger,
		lister: lister,
		cache:  cache,
	}
}

func (o *Oracle) IsAdmin(ctx context.Context, chatID, userID int64) bool {
	admins, ok := o.admins(ctx, chatID)
	return ok && slices.Contains(admins, userID)
}

// Forget drops any cached administrator set for the chat.
func (o *Oracle) Forget(ctx context.Context, chatID int64) {
	if o.cache == nil {
		return
	}
	if err := o.cache.Purge(ctx, chatID); err != nil {
		o.logger.Warn("Failed to purge admin cache", "chat_id", chatID, "error", err)
	}
}

func (o *Oracle) admins(ctx context.Context, chatID int64) ([]int64, bool) {
	if o.cache != nil {
		admins, hit, err := o.cache.Get(ctx, chatID)
		if err != nil {
			o.logger.Warn("Admin cache read failed", "chat_id", chatID, "error", err)
		} else if hit {
			return admins, true
		}
	}

	admins, err := o.lister.GetChatAdministrators(ctx, chatID)
	if err != nil {
		metrics.AdminLookupFailures.Inc()
		metrics.IncPlatformError("get_chat_administrators", platform.Kind(err))
		o.logger.Error("Failed to check admin status, treating as non-admin", "chat_id", chatID, "error", err)
		return nil, false
	}

	if o.cache != nil {
		if err := o.cache.Set(ctx, chatID, admins); err != nil {
			o.logger.Warn("Admin cache write failed", "chat_id", chatID, "error", err)
		}
	}
	return admins, true
}

// Dispatch memoizes administrator sets for the lifetime of one update so a
// pipeline run never asks the platform twice. It is not safe for
// concurrent use.
type Dispatch struct {
	oracle *Oracle
	memo   map[int64][]int64
}

func (o *Oracle) ForDispatch() *Dispatch {
	return &Dispatch{
		oracle: o,
		memo:   make(map[int64][]int64),
	}
}

func (d *Dispatch) IsAdmin(ctx context.Context, chatID, userID int64) bool {
	admins, seen := d.memo[chatID]
	if !seen {
		admins, _ = d.oracle.admins(ctx, chatID)
		d.memo[chatID] = admins
	}
	return slices.Contains(admins, userID)
}
