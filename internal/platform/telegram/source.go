package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nikalaichik/moderator-bot/internal/platform"

	"github.com/go-telegram/bot"
)

var _ platform.Source = (*Adapter)(nil)

// Start begins receiving updates by long polling, or through a webhook when
// a public URL is configured. The returned cleanup stops the webhook server.
func (a *Adapter) Start(ctx context.Context) (<-chan platform.Message, func() error, error) {
	if a.webhook.PublicURL == "" {
		a.logger.Info("Starting Long Polling")
		if _, err := a.b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
			a.logger.Warn("Failed to delete webhook before polling", "error", err)
		}
		go a.b.Start(ctx)
		return a.updates, func() error { return nil }, nil
	}

	webhookURL := strings.TrimSuffix(a.webhook.PublicURL, "/") + "/webhook"
	if _, err := a.b.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:         webhookURL,
		SecretToken: a.webhook.Secret,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to set webhook: %w", err)
	}
	a.logger.Info("Subscribed to webhook", "url", webhookURL)

	mux := http.NewServeMux()
	mux.Handle("/webhook", a.b.WebhookHandler())

	server := &http.Server{
		Addr:              a.webhook.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go a.b.StartWebhook(ctx)
	go func() {
		a.logger.Info("Webhook server listening", "addr", a.webhook.Listen)
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
	return a.updates, cleanup, nil
}
