package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

//go:generate mockgen -source=sender.go -destination=../mocks/mockhosting/sender_mock.gen.go -package mockhosting

// DefaultConnectorScope is the token scope of the channel connector service.
const DefaultConnectorScope = "https://api.botframework.com/.default"

// Sender posts outbound activities to the channel.
type Sender interface {
	Send(ctx context.Context, activity *Activity) error
}

// TokenProvider returns a bearer token for the outbound calls.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// ConnectorSender posts replies to {serviceUrl}/v3/conversations/{id}/activities/{replyToId}.
type ConnectorSender struct {
	client *http.Client
	tokens TokenProvider
}

// NewConnectorSender returns a Sender, tokens is optional.
func NewConnectorSender(client *http.Client, tokens TokenProvider) *ConnectorSender {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ConnectorSender{
		client: client,
		tokens: tokens,
	}
}

// Send posts the activity.
func (s *ConnectorSender) Send(ctx context.Context, activity *Activity) error {
	target, err := ActivityURL(activity)
	if err != nil {
		return err
	}

	body, err := json.Marshal(activity)
	if err != nil {
		return errors.Wrap(err, "failed to encode activity")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	if s.tokens != nil {
		token, err := s.tokens.Token(ctx)
		if err != nil {
			return errors.WithMessage(err, "failed to get connector token")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to post activity to %s", activity.ServiceURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("failed to post activity: %s: %s", resp.Status, slices.StringUpto(string(msg), 256))
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "activity_sent",
		"conversation", activity.Conversation.ID,
		"reply_to", activity.ReplyToID,
	)
	return nil
}

// ActivityURL returns the connector URL to post the activity to.
func ActivityURL(activity *Activity) (string, error) {
	if activity.ServiceURL == "" {
		return "", errors.New("activity has no serviceUrl")
	}
	if activity.Conversation.ID == "" {
		return "", errors.New("activity has no conversation")
	}

	target := strings.TrimSuffix(activity.ServiceURL, "/") +
		"/v3/conversations/" + url.PathEscape(activity.Conversation.ID) + "/activities"
	if activity.ReplyToID != "" {
		target += "/" + url.PathEscape(activity.ReplyToID)
	}
	return target, nil
}
