package platform

import (
	"context"
	"time"
)

// Permissions is the chat-wide set of member rights toggled by night mode.
type Permissions struct {
	CanSendMessages       bool
	CanSendMedia          bool
	CanSendOther          bool
	CanAddWebPagePreviews bool
}

// OpenPermissions are the rights restored when a chat opens.
func OpenPermissions() Permissions {
	return Permissions{
		CanSendMessages:       true,
		CanSendMedia:          true,
		CanSendOther:          true,
		CanAddWebPagePreviews: true,
	}
}

// ClosedPermissions leave the chat read-only for everyone except admins.
func ClosedPermissions() Permissions {
	return Permissions{}
}

type User struct {
	ID       int64
	Username string
	FullName string
}

// Mention returns the name a notice should use for the user.
func (u User) Mention() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FullName != "" {
		return u.FullName
	}
	return "User"
}

// Message is a platform-neutral inbound chat message. IsEdited marks a new
// revision of a message that was already delivered.
type Message struct {
	ChatID        int64
	MessageID     string
	From          User
	Text          string
	IsPrivate     bool
	IsForwarded   bool
	HasLinkEntity bool
	IsEdited      bool
	ReplyTo       *User
	NewMembers    []User
}

// Capabilities describes which parts of the Client a platform implements natively.
type Capabilities struct {
	NativeRestrict  bool
	ChatPermissions bool
}

// Client is the messaging-platform collaborator consumed by the moderation core.
type Client interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID string) error
	RestrictMember(ctx context.Context, chatID, userID int64, canSendMessages bool, until time.Time) error
	SetChatPermissions(ctx context.Context, chatID int64, perms Permissions) error
	GetChatAdministrators(ctx context.Context, chatID int64) ([]int64, error)
	SendMessage(ctx context.Context, chatID int64, text string, silent bool) (string, error)
	BanMember(ctx context.Context, chatID, userID int64) error
	UnbanMember(ctx context.Context, chatID, userID int64) error
	Capabilities() Capabilities
}

// Source delivers inbound messages until ctx is cancelled.
type Source interface {
	Start(ctx context.Context) (<-chan Message, func() error, error)
}
