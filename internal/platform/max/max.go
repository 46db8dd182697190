package max

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikalaichik/moderator-bot/internal/platform"

	maxbot "github.com/max-messenger/max-bot-api-client-go"
)

// WebhookConfig switches the adapter from long polling to a webhook
// subscription when Host is set.
type WebhookConfig struct {
	Host   string
	Port   string
	Secret string
}

// Adapter implements the part of platform.Client that MAX offers. MAX has
// no per-member restriction or chat-wide permissions, so mutes and night
// mode are enforced by the bot deleting messages.
type Adapter struct {
	logger  *slog.Logger
	bot     *maxbot.Api
	webhook WebhookConfig
}

var _ platform.Client = (*Adapter)(nil)

func New(logger *slog.Logger, token string, webhook WebhookConfig) (*Adapter, error) {
	bot, err := maxbot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot client: %w", err)
	}
	return &Adapter{
		logger:  logger,
		bot:     bot,
		webhook: webhook,
	}, nil
}

func (a *Adapter) Capabilities() platform.Capabilities {
	return platform.Capabilities{}
}

func (a *Adapter) DeleteMessage(ctx context.Context, _ int64, messageID string) error {
	_, err := a.bot.Messages.DeleteMessage(ctx, messageID)
	return classify("delete_message", err)
}

func (a *Adapter) RestrictMember(context.Context, int64, int64, bool, time.Time) error {
	return platform.ErrUnsupported
}

func (a *Adapter) SetChatPermissions(context.Context, int64, platform.Permissions) error {
	return platform.ErrUnsupported
}

func (a *Adapter) GetChatAdministrators(ctx context.Context, chatID int64) ([]int64, error) {
	adminList, err := a.bot.Chats.GetChatAdmins(ctx, chatID)
	if err != nil {
		return nil, classify("get_chat_admins", err)
	}
	ids := make([]int64, 0, len(adminList.Members))
	for _, member := range adminList.Members {
		ids = append(ids, member.UserId)
	}
	return ids, nil
}

// SendMessage posts text to the chat. MAX has no silent delivery flag, so
// silent is ignored.
func (a *Adapter) SendMessage(ctx context.Context, chatID int64, text string, _ bool) (string, error) {
	msg := maxbot.NewMessage()
	msg.SetChat(chatID)
	msg.SetText(text)

	respMsg, err := a.bot.Messages.SendWithResult(ctx, msg)
	if err != nil {
		return "", classify("send_message", err)
	}
	if respMsg == nil {
		return "", nil
	}
	return respMsg.Body.Mid, nil
}

// BanMember removes the user from the chat. MAX keeps no ban list the bot
// can manage, so a removed user may rejoin through an invite link.
func (a *Adapter) BanMember(ctx context.Context, chatID, userID int64) error {
	_, err := a.bot.Chats.RemoveMember(ctx, chatID, userID)
	return classify("remove_member", err)
}

func (a *Adapter) UnbanMember(context.Context, int64, int64) error {
	return platform.ErrUnsupported
}
