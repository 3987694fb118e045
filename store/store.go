package store

import (
	"context"
	"time"

	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/learnagent", "store")

// DefaultMaxMessages is the number of most recent messages kept per chat.
const DefaultMaxMessages = 50

// DefaultTitle is the title of a chat created on first use.
const DefaultTitle = "New Chat"

// ChatInfo describes a conversation.
type ChatInfo struct {
	TenantID  string         `json:"tenant_id"`
	ChatID    string         `json:"chat_id"`
	Title     string         `json:"title"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	Messages []llms.Message `json:"messages,omitempty"`
}

// ConversationStore keeps the transcript of conversations.
// The tenant and chat IDs are taken from chatmodel.ChatContext in ctx.
type ConversationStore interface {
	// Messages returns the transcript of the chat
	Messages(ctx context.Context) []llms.Message
	// Add appends messages to the transcript of the chat,
	// keeping only the most recent messages.
	Add(ctx context.Context, msgs ...llms.Message) error
	// Reset deletes the chat
	Reset(ctx context.Context) error
	// UpdateChat creates or updates the chat with the title and metadata.
	UpdateChat(ctx context.Context, title string, metadata map[string]any) error
	// GetChatInfo returns the chat info with messages,
	// empty id means the chat from ctx.
	GetChatInfo(ctx context.Context, id string) (*ChatInfo, error)
	// ListChats returns the chat IDs of the tenant.
	ListChats(ctx context.Context) ([]string, error)
}

// Manager provides maintenance operations over all tenants.
type Manager interface {
	// ListTenants returns the IDs of tenants with stored chats.
	ListTenants(ctx context.Context) ([]string, error)
	// Cleanup deletes chats of the tenant not updated within olderThan,
	// and returns the number of deleted chats.
	Cleanup(ctx context.Context, tenantID string, olderThan time.Duration) (uint32, error)
}

// Option configures a store.
type Option func(*options)

type options struct {
	maxMessages int
}

// WithMaxMessages sets the number of most recent messages kept per chat.
func WithMaxMessages(n int) Option {
	return func(o *options) {
		o.maxMessages = n
	}
}

func newOptions(opts ...Option) options {
	o := options{maxMessages: DefaultMaxMessages}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxMessages <= 0 {
		o.maxMessages = DefaultMaxMessages
	}
	return o
}

// CleanupAll runs Cleanup for every tenant of the manager,
// and returns the total number of deleted chats.
func CleanupAll(ctx context.Context, m Manager, olderThan time.Duration) (uint32, error) {
	tenants, err := m.ListTenants(ctx)
	if err != nil {
		return 0, err
	}
	var total uint32
	for _, tenantID := range tenants {
		deleted, err := m.Cleanup(ctx, tenantID, olderThan)
		if err != nil {
			return total, err
		}
		total += deleted
	}
	if total > 0 {
		logger.ContextKV(ctx, xlog.INFO,
			"status", "cleanup",
			"tenants", len(tenants),
			"deleted", total,
		)
	}
	return total, nil
}
