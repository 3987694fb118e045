package hosting_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/learnagent/hosting"
	"github.com/effective-security/learnagent/mocks/mockhosting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestConnectorSender(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokens := mockhosting.NewMockTokenProvider(ctrl)

	var got hosting.Activity
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/conversations/conv1/activities/act1", r.URL.Path)
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tokens.EXPECT().Token(gomock.Any()).Return("token123", nil)

	in := newMessage("hi")
	in.ServiceURL = srv.URL
	reply := in.CreateReply("hello")

	s := hosting.NewConnectorSender(srv.Client(), tokens)
	require.NoError(t, s.Send(context.Background(), reply))
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "act1", got.ReplyToID)
}

func TestConnectorSender_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokens := mockhosting.NewMockTokenProvider(ctrl)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad conversation", http.StatusNotFound)
	}))
	defer srv.Close()

	in := newMessage("hi")
	in.ServiceURL = srv.URL
	reply := in.CreateReply("hello")

	s := hosting.NewConnectorSender(nil, nil)
	err := s.Send(context.Background(), reply)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404 Not Found: bad conversation")

	tokens.EXPECT().Token(gomock.Any()).Return("", errors.New("no credential"))
	s = hosting.NewConnectorSender(nil, tokens)
	err = s.Send(context.Background(), reply)
	assert.EqualError(t, err, "failed to get connector token: no credential")

	reply.ServiceURL = ""
	err = s.Send(context.Background(), reply)
	assert.EqualError(t, err, "activity has no serviceUrl")
}

func TestTurnContext_SendError(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := mockhosting.NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("connector down"))

	turn := hosting.NewTurnContext(newMessage("hi"), sender)
	err := turn.SendActivity(context.Background(), "reply")
	assert.EqualError(t, err, "failed to send reply: connector down")
	assert.Empty(t, turn.Replies())
}
