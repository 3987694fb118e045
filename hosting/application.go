package hosting

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/learnagent/assistants"
	"github.com/effective-security/learnagent/pkg/metricskey"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/learnagent", "hosting")

// ErrUnsupportedActivity is returned when no route handles the activity.
var ErrUnsupportedActivity = errors.New("unsupported activity")

// Handler handles a turn.
type Handler func(ctx context.Context, turn TurnContext) error

// ErrorHandler is called when a Handler returns an error.
type ErrorHandler func(ctx context.Context, turn TurnContext, err error)

type route struct {
	name    string
	match   func(a *Activity) bool
	handler Handler
}

// Application routes activities to handlers.
// Routes are matched in registration order and the first match wins.
type Application struct {
	routes  []route
	onError ErrorHandler
}

// NewApplication returns an empty Application.
func NewApplication() *Application {
	return &Application{
		onError: defaultErrorHandler,
	}
}

// OnConversationUpdate registers a handler for a conversation update event,
// "membersAdded" is the only supported event.
func (a *Application) OnConversationUpdate(event string, h Handler) *Application {
	a.routes = append(a.routes, route{
		name: "conversationUpdate:" + event,
		match: func(act *Activity) bool {
			if act.Type != ActivityTypeConversationUpdate {
				return false
			}
			switch event {
			case "membersAdded":
				return len(act.MembersAdded) > 0
			}
			return false
		},
		handler: h,
	})
	return a
}

// OnMessage registers a handler for a message with the exact text,
// compared case-insensitively after trimming.
func (a *Application) OnMessage(text string, h Handler) *Application {
	text = strings.TrimSpace(text)
	a.routes = append(a.routes, route{
		name: "message:" + text,
		match: func(act *Activity) bool {
			return act.IsMessage() && strings.EqualFold(strings.TrimSpace(act.Text), text)
		},
		handler: h,
	})
	return a
}

// OnActivity registers a handler for all activities of the type.
func (a *Application) OnActivity(activityType string, h Handler) *Application {
	a.routes = append(a.routes, route{
		name: activityType,
		match: func(act *Activity) bool {
			return act.Type == activityType
		},
		handler: h,
	})
	return a
}

// OnTurnError sets the handler called when a route handler fails.
func (a *Application) OnTurnError(h ErrorHandler) *Application {
	a.onError = h
	return a
}

// OnTurn dispatches the activity to the first matching route.
// Handler errors are passed to the error handler and not returned.
func (a *Application) OnTurn(ctx context.Context, turn TurnContext) error {
	act := turn.Activity()
	for _, r := range a.routes {
		if !r.match(act) {
			continue
		}

		started := time.Now()
		err := r.handler(ctx, turn)
		metricskey.PerfTurn.MeasureSince(started, act.Type)
		if err != nil {
			metricskey.StatsTurnsFailed.IncrCounter(1, act.Type)
			logger.ContextKV(ctx, xlog.ERROR,
				"status", "turn_failed",
				"route", r.name,
				"conversation", act.Conversation.ID,
				"err", err.Error(),
			)
			if a.onError != nil {
				a.onError(ctx, turn, err)
			}
			return nil
		}
		metricskey.StatsTurnsSucceeded.IncrCounter(1, act.Type)
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "turn_handled",
			"route", r.name,
			"conversation", act.Conversation.ID,
			"elapsed", time.Since(started).String(),
		)
		return nil
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "activity_ignored",
		"type", act.Type,
	)
	return errors.Wrapf(ErrUnsupportedActivity, "type %q", act.Type)
}

func defaultErrorHandler(ctx context.Context, turn TurnContext, err error) {
	if sendErr := turn.SendActivity(ctx, assistants.ErrorReply(err)); sendErr != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"status", "failed_to_send_error_reply",
			"err", sendErr.Error(),
		)
	}
}
