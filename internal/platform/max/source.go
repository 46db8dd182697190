package max

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nikalaichik/moderator-bot/internal/platform"

	"github.com/max-messenger/max-bot-api-client-go/schemes"
)

var _ platform.Source = (*Adapter)(nil)

// Start subscribes a webhook when a host is configured and long-polls
// otherwise. Updates the moderation core has no use for are dropped.
func (a *Adapter) Start(ctx context.Context) (<-chan platform.Message, func() error, error) {
	var (
		updates <-chan schemes.UpdateInterface
		cleanup = func() error { return nil }
	)

	if a.webhook.Host == "" {
		a.logger.Info("Starting Long Polling")
		updates = a.bot.GetUpdates(ctx)
	} else {
		var err error
		updates, cleanup, err = a.startWebhook(ctx)
		if err != nil {
			return nil, nil, err
		}
	}

	out := make(chan platform.Message, 100)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				msg, ok := toMessage(upd)
				if !ok {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, cleanup, nil
}

func (a *Adapter) startWebhook(ctx context.Context) (<-chan schemes.UpdateInterface, func() error, error) {
	updates := make(chan schemes.UpdateInterface, 100)

	if subs, err := a.bot.Subscriptions.GetSubscriptions(ctx); err == nil {
		for _, sub := range subs.Subscriptions {
			if _, err := a.bot.Subscriptions.Unsubscribe(ctx, sub.Url); err != nil {
				a.logger.Warn("Failed to unsubscribe old webhook", "url", sub.Url, "error", err)
			}
		}
	}

	webhookURL := fmt.Sprintf("%s/webhook", a.webhook.Host)
	if _, err := a.bot.Subscriptions.Subscribe(ctx, webhookURL, []string{}, a.webhook.Secret); err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe webhook: %w", err)
	}
	a.logger.Info("Subscribed to webhook", "url", webhookURL)

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", a.bot.GetHandler(updates))

	server := &http.Server{
		Addr:              ":" + a.webhook.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.logger.Info("Webhook server listening", "port", a.webhook.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Webhook server failed", "error", err)
		}
	}()

	cleanup := func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	}
	return updates, cleanup, nil
}
