package main

import (
	"context"
	"testing"

	"github.com/effective-security/learnagent/callbacks"
	"github.com/effective-security/learnagent/chatmodel"
	"github.com/effective-security/learnagent/config"
	"github.com/effective-security/learnagent/mocks/mockassistants"
	"github.com/effective-security/learnagent/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAgent_OpenStore(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		a := &agent{cfg: &config.Config{Store: config.StoreConfig{Type: config.StoreNone}}}
		require.NoError(t, a.openStore())
		assert.Nil(t, a.store)
	})
	t.Run("memory", func(t *testing.T) {
		a := &agent{cfg: &config.Config{Store: config.StoreConfig{Type: config.StoreMemory, MaxMessages: 10}}}
		require.NoError(t, a.openStore())
		assert.NotNil(t, a.store)
		assert.Nil(t, a.redis)
	})
	t.Run("redis", func(t *testing.T) {
		a := &agent{cfg: &config.Config{Store: config.StoreConfig{
			Type:     config.StoreRedis,
			RedisURL: "redis://localhost:6379/0",
			Prefix:   "test",
		}}}
		require.NoError(t, a.openStore())
		assert.NotNil(t, a.store)
		require.NotNil(t, a.redis)
		assert.Equal(t, "localhost:6379", a.redis.Options().Addr)
		_ = a.redis.Close()
	})
	t.Run("invalid_redis_url", func(t *testing.T) {
		a := &agent{cfg: &config.Config{Store: config.StoreConfig{Type: config.StoreRedis, RedisURL: "http://nope"}}}
		err := a.openStore()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid redis_url")
	})
	t.Run("unsupported", func(t *testing.T) {
		a := &agent{cfg: &config.Config{Store: config.StoreConfig{Type: "sql"}}}
		assert.EqualError(t, a.openStore(), "unsupported store type: sql")
	})
}

func TestAgent_Health(t *testing.T) {
	a := &agent{registry: tools.NewRegistry()}
	h := a.health()
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 0, h.Tools)
	assert.Empty(t, h.Names)
}

func TestAgent_NewSender(t *testing.T) {
	a := &agent{cfg: &config.Config{}}
	sender, err := a.newSender()
	require.NoError(t, err)
	assert.NotNil(t, sender)
}

func TestScratchpadAssistant(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mockassistants.NewMockIAssistant(ctrl)
	inner.EXPECT().Handle(gomock.Any(), "hello").Return("hi there", nil).Times(2)

	sp := callbacks.NewScratchpad(callbacks.ModeDefault)
	ast := &scratchpadAssistant{IAssistant: inner, scratchpad: sp}

	ctx := chatmodel.WithChatContext(context.Background(),
		chatmodel.NewChatContext("msteams", "conv1", nil))
	reply, err := ast.Handle(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", reply)

	stats, _ := sp.EndRun(ctx)
	assert.Nil(t, stats, "run must be ended by Handle")

	reply, err = ast.Handle(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", reply)
}
