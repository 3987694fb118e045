package hosting

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
)

// TurnContext is the context of one inbound activity.
type TurnContext interface {
	// Activity returns the inbound activity.
	Activity() *Activity
	// SendActivity sends a text reply to the conversation.
	SendActivity(ctx context.Context, text string) error
	// Replies returns the replies sent in this turn.
	Replies() []*Activity
}

type turnContext struct {
	activity *Activity
	sender   Sender

	lock    sync.Mutex
	replies []*Activity
}

// NewTurnContext returns a TurnContext for the activity.
// Replies are posted with the sender, unless the activity expects replies
// in the response, or sender is nil.
func NewTurnContext(activity *Activity, sender Sender) TurnContext {
	return &turnContext{
		activity: activity,
		sender:   sender,
	}
}

func (t *turnContext) Activity() *Activity {
	return t.activity
}

func (t *turnContext) SendActivity(ctx context.Context, text string) error {
	reply := t.activity.CreateReply(text)

	if t.sender != nil && !t.activity.ExpectReplies() {
		if err := t.sender.Send(ctx, reply); err != nil {
			return errors.WithMessage(err, "failed to send reply")
		}
	}

	t.lock.Lock()
	t.replies = append(t.replies, reply)
	t.lock.Unlock()
	return nil
}

func (t *turnContext) Replies() []*Activity {
	t.lock.Lock()
	defer t.lock.Unlock()
	return append([]*Activity(nil), t.replies...)
}
