package nightmode

import (
	"context"
	"sync"
	"time"

	"github.com/nikalaichik/moderator-bot/internal/platform"
)

type permissionCall struct {
	ChatID int64
	Perms  platform.Permissions
}

type MockClient struct {
	SetChatPermissionsFunc func(ctx context.Context, chatID int64, perms platform.Permissions) error

	mu          sync.Mutex
	permissions []permissionCall
	sent        []string
}

func (m *MockClient) DeleteMessage(ctx context.Context, chatID int64, messageID string) error {
	return nil
}

func (m *MockClient) RestrictMember(ctx context.Context, chatID, userID int64, canSendMessages bool, until time.Time) error {
	return nil
}

func (m *MockClient) SetChatPermissions(ctx context.Context, chatID int64, perms platform.Permissions) error {
	m.mu.Lock()
	m.permissions = append(m.permissions, permissionCall{ChatID: chatID, Perms: perms})
	m.mu.Unlock()
	if m.SetChatPermissionsFunc != nil {
		return m.SetChatPermissionsFunc(ctx, chatID, perms)
	}
	return nil
}

func (m *MockClient) GetChatAdministrators(ctx context.Context, chatID int64) ([]int64, error) {
	return nil, nil
}

func (m *MockClient) SendMessage(ctx context.Context, chatID int64, text string, silent bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, text)
	return "1", nil
}

func (m *MockClient) BanMember(ctx context.Context, chatID, userID int64) error {
	return nil
}

func (m *MockClient) UnbanMember(ctx context.Context, chatID, userID int64) error {
	return nil
}

func (m *MockClient) Capabilities() platform.Capabilities {
	return platform.Capabilities{NativeRestrict: true, ChatPermissions: true}
}

func (m *MockClient) PermissionCalls() []permissionCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]permissionCall(nil), m.permissions...)
}

func (m *MockClient) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}
