package telegram

import (
	"strconv"
	"strings"

	"github.com/nikalaichik/moderator-bot/internal/platform"

	"github.com/go-telegram/bot/models"
)

// toMessage maps a Telegram message to the platform-neutral form. Service
// messages without a sender are dropped.
func toMessage(m *models.Message) (platform.Message, bool) {
	if m.From == nil && len(m.NewChatMembers) == 0 {
		return platform.Message{}, false
	}

	text := m.Text
	if text == "" {
		text = m.Caption
	}

	msg := platform.Message{
		ChatID:        m.Chat.ID,
		MessageID:     strconv.Itoa(m.ID),
		Text:          text,
		IsPrivate:     m.Chat.Type == models.ChatTypePrivate,
		IsForwarded:   m.ForwardOrigin != nil,
		HasLinkEntity: hasLink(m.Entities) || hasLink(m.CaptionEntities),
	}
	if m.From != nil {
		msg.From = toUser(*m.From)
	}
	if r := m.ReplyToMessage; r != nil && r.From != nil {
		u := toUser(*r.From)
		msg.ReplyTo = &u
	}
	for _, u := range m.NewChatMembers {
		if u.IsBot {
			continue
		}
		msg.NewMembers = append(msg.NewMembers, toUser(u))
	}
	return msg, true
}

func toUser(u models.User) platform.User {
	return platform.User{
		ID:       u.ID,
		Username: u.Username,
		FullName: strings.TrimSpace(u.FirstName + " " + u.LastName),
	}
}

func hasLink(entities []models.MessageEntity) bool {
	for _, e := range entities {
		if e.Type == models.MessageEntityTypeURL || e.Type == models.MessageEntityTypeTextLink {
			return true
		}
	}
	return false
}
