package hosting

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Activity types
const (
	ActivityTypeMessage            = "message"
	ActivityTypeConversationUpdate = "conversationUpdate"
)

// DeliveryModeExpectReplies asks for the replies in the HTTP response body.
const DeliveryModeExpectReplies = "expectReplies"

// ChannelAccount is a user or the bot on a channel.
type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// ConversationAccount identifies the conversation.
type ConversationAccount struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name,omitempty"`
	IsGroup  bool   `json:"isGroup,omitempty"`
	TenantID string `json:"tenantId,omitempty"`
}

// Activity is the subset of the activity protocol used by the agent.
type Activity struct {
	Type         string              `json:"type" validate:"required"`
	ID           string              `json:"id,omitempty"`
	Timestamp    *time.Time          `json:"timestamp,omitempty"`
	ChannelID    string              `json:"channelId,omitempty"`
	ServiceURL   string              `json:"serviceUrl,omitempty" validate:"omitempty,url"`
	From         ChannelAccount      `json:"from"`
	Recipient    ChannelAccount      `json:"recipient"`
	Conversation ConversationAccount `json:"conversation"`
	Text         string              `json:"text,omitempty"`
	TextFormat   string              `json:"textFormat,omitempty"`
	Locale       string              `json:"locale,omitempty"`
	MembersAdded []ChannelAccount    `json:"membersAdded,omitempty"`
	ReplyToID    string              `json:"replyToId,omitempty"`
	DeliveryMode string              `json:"deliveryMode,omitempty"`
}

var validate = validator.New()

// Validate returns an error if the activity misses required fields.
func (a *Activity) Validate() error {
	if err := validate.Struct(a); err != nil {
		return errors.Wrap(err, "invalid activity")
	}
	return nil
}

// IsMessage returns true for message activities.
func (a *Activity) IsMessage() bool {
	return a.Type == ActivityTypeMessage
}

// ExpectReplies returns true when the replies are returned in the HTTP response.
func (a *Activity) ExpectReplies() bool {
	return strings.EqualFold(a.DeliveryMode, DeliveryModeExpectReplies)
}

// CreateReply returns a message activity replying to a.
func (a *Activity) CreateReply(text string) *Activity {
	now := time.Now().UTC()
	return &Activity{
		Type:         ActivityTypeMessage,
		ID:           uuid.NewString(),
		Timestamp:    &now,
		ChannelID:    a.ChannelID,
		ServiceURL:   a.ServiceURL,
		From:         a.Recipient,
		Recipient:    a.From,
		Conversation: a.Conversation,
		Text:         text,
		TextFormat:   "markdown",
		Locale:       a.Locale,
		ReplyToID:    a.ID,
	}
}

// AddedMembers returns the members added to the conversation, other than the bot.
func (a *Activity) AddedMembers() []ChannelAccount {
	var list []ChannelAccount
	for _, m := range a.MembersAdded {
		if m.ID != a.Recipient.ID {
			list = append(list, m)
		}
	}
	return list
}
