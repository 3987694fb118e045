package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/effective-security/learnagent/chatmodel"
	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/effective-security/learnagent/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConversationStore runs the same scenario against any store.
func testConversationStore(t *testing.T, st store.Store) {
	ctx := context.Background()
	msg1 := llms.MessageFromTextParts(llms.RoleHuman, "What is Azure Container Apps?")
	msg2 := llms.MessageFromTextParts(llms.RoleAI, "Azure Container Apps is a serverless container platform.")

	expErr := "invalid chat context"
	assert.EqualError(t, st.Reset(ctx), expErr)
	assert.EqualError(t, st.Add(ctx, msg1), expErr)
	assert.EqualError(t, st.UpdateChat(ctx, "", nil), expErr)
	_, err := st.ListChats(ctx)
	assert.EqualError(t, err, expErr)
	_, err = st.GetChatInfo(ctx, "")
	assert.EqualError(t, err, expErr)
	assert.Empty(t, st.Messages(ctx))

	tenantID := "msteams"
	chatID := "a:conv1"
	ctx = chatmodel.WithChatContext(ctx, chatmodel.NewChatContext(tenantID, chatID, nil))

	require.NoError(t, st.Add(ctx, msg1, msg2))
	messages := st.Messages(ctx)
	require.Len(t, messages, 2)
	assert.Equal(t, llms.RoleHuman, messages[0].Role)
	assert.Equal(t, msg1.GetText(), messages[0].GetText())
	assert.Equal(t, msg2.GetText(), messages[1].GetText())

	ci, err := st.GetChatInfo(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, tenantID, ci.TenantID)
	assert.Equal(t, chatID, ci.ChatID)
	assert.Equal(t, store.DefaultTitle, ci.Title)
	assert.Len(t, ci.Messages, 2)

	updatedAt := ci.UpdatedAt
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, st.UpdateChat(ctx, "Container Apps", map[string]any{"channel": "msteams"}))
	ci, err = st.GetChatInfo(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, "Container Apps", ci.Title)
	assert.Equal(t, "msteams", ci.Metadata["channel"])
	assert.True(t, ci.UpdatedAt.After(updatedAt))

	// second chat of the same tenant
	ctx2 := chatmodel.WithChatContext(context.Background(), chatmodel.NewChatContext(tenantID, "a:conv2", nil))
	require.NoError(t, st.Add(ctx2, msg1))
	chats, err := st.ListChats(ctx2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a:conv1", "a:conv2"}, chats)
	assert.Len(t, st.Messages(ctx2), 1)

	tenants, err := st.ListTenants(ctx)
	require.NoError(t, err)
	assert.Contains(t, tenants, tenantID)

	require.NoError(t, st.Reset(ctx))
	assert.Empty(t, st.Messages(ctx))
	chats, err = st.ListChats(ctx2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a:conv2"}, chats)

	deleted, err := st.Cleanup(ctx, tenantID, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), deleted)

	time.Sleep(2 * time.Millisecond)
	deleted, err = store.CleanupAll(ctx, st, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), deleted)
	assert.Empty(t, st.Messages(ctx2))
}

func testTrim(t *testing.T, st store.Store) {
	ctx := chatmodel.WithChatContext(context.Background(), chatmodel.NewChatContext("webchat", "", nil))
	for _, text := range []string{"1", "2", "3", "4", "5"} {
		require.NoError(t, st.Add(ctx, llms.MessageFromTextParts(llms.RoleHuman, text)))
	}
	messages := st.Messages(ctx)
	require.Len(t, messages, 3)
	assert.Equal(t, "3", messages[0].GetText())
	assert.Equal(t, "5", messages[2].GetText())
}

func Test_MemoryStore(t *testing.T) {
	testConversationStore(t, store.NewMemoryStore())
	testTrim(t, store.NewMemoryStore(store.WithMaxMessages(3)))
}

func Test_MemoryStore_MessagesAreCopied(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := chatmodel.WithChatContext(context.Background(), chatmodel.NewChatContext("webchat", "c1", nil))
	require.NoError(t, st.Add(ctx, llms.MessageFromTextParts(llms.RoleHuman, "hello")))

	messages := st.Messages(ctx)
	messages[0] = llms.MessageFromTextParts(llms.RoleAI, "changed")
	assert.Equal(t, "hello", st.Messages(ctx)[0].GetText())
}
