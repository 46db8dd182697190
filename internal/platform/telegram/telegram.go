package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nikalaichik/moderator-bot/internal/platform"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// WebhookConfig switches the adapter from long polling to webhooks when
// PublicURL is set.
type WebhookConfig struct {
	PublicURL string
	Listen    string
	Secret    string
}

// Adapter implements platform.Client and platform.Source over the Telegram
// Bot API.
type Adapter struct {
	logger  *slog.Logger
	b       *bot.Bot
	webhook WebhookConfig
	updates chan platform.Message
}

var _ platform.Client = (*Adapter)(nil)

func New(logger *slog.Logger, token string, webhook WebhookConfig) (*Adapter, error) {
	a := &Adapter{
		logger:  logger,
		webhook: webhook,
		updates: make(chan platform.Message, 100),
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(a.handleUpdate),
	}
	if webhook.Secret != "" {
		opts = append(opts, bot.WithWebhookSecretToken(webhook.Secret))
	}

	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	a.b = b
	return a, nil
}

func (a *Adapter) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	var (
		msg platform.Message
		ok  bool
	)
	switch {
	case update.Message != nil:
		msg, ok = toMessage(update.Message)
	case update.EditedMessage != nil:
		msg, ok = toMessage(update.EditedMessage)
		msg.IsEdited = true
	}
	if !ok {
		return
	}
	select {
	case a.updates <- msg:
	case <-ctx.Done():
	}
}

func (a *Adapter) Capabilities() platform.Capabilities {
	return platform.Capabilities{NativeRestrict: true, ChatPermissions: true}
}

func (a *Adapter) DeleteMessage(ctx context.Context, chatID int64, messageID string) error {
	id, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("invalid telegram message id %q: %w", messageID, err)
	}
	_, err = a.b.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: id,
	})
	return classify("deleteMessage", err)
}

func (a *Adapter) RestrictMember(ctx context.Context, chatID, userID int64, canSendMessages bool, until time.Time) error {
	perms := toChatPermissions(platform.ClosedPermissions())
	if canSendMessages {
		perms = toChatPermissions(platform.OpenPermissions())
	}
	params := &bot.RestrictChatMemberParams{
		ChatID:      chatID,
		UserID:      userID,
		Permissions: &perms,
	}
	if !until.IsZero() {
		params.UntilDate = int(until.Unix())
	}
	_, err := a.b.RestrictChatMember(ctx, params)
	return classify("restrictChatMember", err)
}

func (a *Adapter) SetChatPermissions(ctx context.Context, chatID int64, perms platform.Permissions) error {
	_, err := a.b.SetChatPermissions(ctx, &bot.SetChatPermissionsParams{
		ChatID:      chatID,
		Permissions: toChatPermissions(perms),
	})
	return classify("setChatPermissions", err)
}

func (a *Adapter) GetChatAdministrators(ctx context.Context, chatID int64) ([]int64, error) {
	members, err := a.b.GetChatAdministrators(ctx, &bot.GetChatAdministratorsParams{
		ChatID: chatID,
	})
	if err != nil {
		return nil, classify("getChatAdministrators", err)
	}
	return adminIDs(members), nil
}

func (a *Adapter) SendMessage(ctx context.Context, chatID int64, text string, silent bool) (string, error) {
	msg, err := a.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:              chatID,
		Text:                text,
		DisableNotification: silent,
	})
	if err != nil {
		return "", classify("sendMessage", err)
	}
	return strconv.Itoa(msg.ID), nil
}

func (a *Adapter) BanMember(ctx context.Context, chatID, userID int64) error {
	_, err := a.b.BanChatMember(ctx, &bot.BanChatMemberParams{
		ChatID: chatID,
		UserID: userID,
	})
	return classify("banChatMember", err)
}

func (a *Adapter) UnbanMember(ctx context.Context, chatID, userID int64) error {
	_, err := a.b.UnbanChatMember(ctx, &bot.UnbanChatMemberParams{
		ChatID:       chatID,
		UserID:       userID,
		OnlyIfBanned: true,
	})
	return classify("unbanChatMember", err)
}

func toChatPermissions(p platform.Permissions) models.ChatPermissions {
	return models.ChatPermissions{
		CanSendMessages:       p.CanSendMessages,
		CanSendAudios:         p.CanSendMedia,
		CanSendDocuments:      p.CanSendMedia,
		CanSendPhotos:         p.CanSendMedia,
		CanSendVideos:         p.CanSendMedia,
		CanSendVideoNotes:     p.CanSendMedia,
		CanSendVoiceNotes:     p.CanSendMedia,
		CanSendPolls:          p.CanSendOther,
		CanSendOtherMessages:  p.CanSendOther,
		CanAddWebPagePreviews: p.CanAddWebPagePreviews,
	}
}

func adminIDs(members []models.ChatMember) []int64 {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		switch m.Type {
		case models.ChatMemberTypeOwner:
			if m.Owner != nil && m.Owner.User != nil {
				ids = append(ids, m.Owner.User.ID)
			}
		case models.ChatMemberTypeAdministrator:
			if m.Administrator != nil {
				ids = append(ids, m.Administrator.User.ID)
			}
		}
	}
	return ids
}
