package max

import (
	"regexp"

	"github.com/nikalaichik/moderator-bot/internal/platform"

	"github.com/max-messenger/max-bot-api-client-go/schemes"
)

// MAX delivers no link entities, so links are detected in the text.
var urlRegex = regexp.MustCompile(`(?i)(?:https?://)?(?:[\p{L}0-9](?:[\p{L}0-9-]{0,61}[\p{L}0-9])?\.)+[\p{L}0-9][\p{L}0-9-]{0,61}[\p{L}0-9]`)

func toMessage(upd schemes.UpdateInterface) (platform.Message, bool) {
	switch u := upd.(type) {
	case *schemes.MessageCreatedUpdate:
		return fromCreated(u.Message), true
	case *schemes.MessageEditedUpdate:
		msg := fromCreated(u.Message)
		msg.IsEdited = true
		return msg, true
	case *schemes.UserAddedToChatUpdate:
		return platform.Message{
			ChatID:     u.ChatId,
			NewMembers: []platform.User{toUser(u.User)},
		}, true
	default:
		return platform.Message{}, false
	}
}

func fromCreated(m schemes.Message) platform.Message {
	msg := platform.Message{
		ChatID:        m.Recipient.ChatId,
		MessageID:     m.Body.Mid,
		From:          toUser(m.Sender),
		Text:          m.Body.Text,
		IsPrivate:     string(m.Recipient.ChatType) == "dialog" || m.Recipient.ChatId > 0,
		HasLinkEntity: urlRegex.MatchString(m.Body.Text),
	}
	if m.Link != nil {
		switch string(m.Link.Type) {
		case "forward":
			msg.IsForwarded = true
			if m.Link.Message.Text != "" {
				msg.Text = m.Link.Message.Text
				msg.HasLinkEntity = msg.HasLinkEntity || urlRegex.MatchString(msg.Text)
			}
		case "reply":
			u := toUser(m.Link.Sender)
			msg.ReplyTo = &u
		}
	}
	return msg
}

func toUser(u schemes.User) platform.User {
	return platform.User{
		ID:       u.UserId,
		FullName: u.Name,
	}
}
