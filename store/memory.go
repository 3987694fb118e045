package store

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/effective-security/learnagent/chatmodel"
	"github.com/effective-security/learnagent/pkg/llms"
)

type memoryChat struct {
	info     ChatInfo
	messages []llms.Message
}

type inMemory struct {
	maxMessages int

	mu sync.RWMutex
	// tenant => chat => conversation
	storage map[string]map[string]*memoryChat
}

// Store is implemented by the in-memory and Redis stores.
type Store interface {
	ConversationStore
	Manager
}

var (
	_ Store = (*inMemory)(nil)
	_ Store = (*redisStore)(nil)
)

// NewMemoryStore returns a process-local store.
func NewMemoryStore(opts ...Option) Store {
	o := newOptions(opts...)
	return &inMemory{
		maxMessages: o.maxMessages,
		storage:     make(map[string]map[string]*memoryChat),
	}
}

// chat returns the chat, creating it when create is true.
// Must be called under lock.
func (m *inMemory) chat(tenantID, chatID string, create bool) *memoryChat {
	chats := m.storage[tenantID]
	if chats == nil {
		if !create {
			return nil
		}
		chats = make(map[string]*memoryChat)
		m.storage[tenantID] = chats
	}
	c := chats[chatID]
	if c == nil && create {
		now := time.Now()
		c = &memoryChat{
			info: ChatInfo{
				TenantID:  tenantID,
				ChatID:    chatID,
				Title:     DefaultTitle,
				CreatedAt: now,
				UpdatedAt: now,
				Metadata:  make(map[string]any),
			},
		}
		chats[chatID] = c
	}
	return c
}

func (m *inMemory) Messages(ctx context.Context) []llms.Message {
	tenantID, chatID, err := chatmodel.GetTenantAndChatID(ctx)
	if err != nil {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if c := m.chat(tenantID, chatID, false); c != nil {
		return slices.Clone(c.messages)
	}
	return nil
}

func (m *inMemory) Add(ctx context.Context, msgs ...llms.Message) error {
	tenantID, chatID, err := chatmodel.GetTenantAndChatID(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.chat(tenantID, chatID, true)
	c.messages = append(c.messages, msgs...)
	if n := len(c.messages) - m.maxMessages; n > 0 {
		c.messages = slices.Clone(c.messages[n:])
	}
	c.info.UpdatedAt = time.Now()
	return nil
}

func (m *inMemory) Reset(ctx context.Context) error {
	tenantID, chatID, err := chatmodel.GetTenantAndChatID(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if chats := m.storage[tenantID]; chats != nil {
		delete(chats, chatID)
		if len(chats) == 0 {
			delete(m.storage, tenantID)
		}
	}
	return nil
}

func (m *inMemory) UpdateChat(ctx context.Context, title string, metadata map[string]any) error {
	tenantID, chatID, err := chatmodel.GetTenantAndChatID(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.chat(tenantID, chatID, true)
	if title != "" {
		c.info.Title = title
	}
	maps.Copy(c.info.Metadata, metadata)
	c.info.UpdatedAt = time.Now()
	return nil
}

func (m *inMemory) GetChatInfo(ctx context.Context, id string) (*ChatInfo, error) {
	tenantID, chatID, err := chatmodel.GetTenantAndChatID(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = chatID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.chat(tenantID, id, true)
	info := c.info
	info.Metadata = maps.Clone(c.info.Metadata)
	info.Messages = slices.Clone(c.messages)
	return &info, nil
}

func (m *inMemory) ListChats(ctx context.Context) ([]string, error) {
	tenantID, _, err := chatmodel.GetTenantAndChatID(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.storage[tenantID])), nil
}

func (m *inMemory) ListTenants(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.storage)), nil
}

func (m *inMemory) Cleanup(_ context.Context, tenantID string, olderThan time.Duration) (uint32, error) {
	cutoff := time.Now().Add(-olderThan)

	m.mu.Lock()
	defer m.mu.Unlock()
	chats := m.storage[tenantID]
	deleted := uint32(0)
	for id, c := range chats {
		if c.info.UpdatedAt.Before(cutoff) {
			delete(chats, id)
			deleted++
		}
	}
	if chats != nil && len(chats) == 0 {
		delete(m.storage, tenantID)
	}
	return deleted, nil
}
