package hosting

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/learnagent/chatmodel"
	"github.com/effective-security/xlog"
)

// MaxActivitySize is the largest accepted activity body.
const MaxActivitySize = 1 << 20

// ExpectedReplies is the response body for expectReplies delivery.
type ExpectedReplies struct {
	Activities []*Activity `json:"activities"`
}

// Adapter is the HTTP handler of the messaging endpoint.
type Adapter struct {
	app    *Application
	sender Sender
}

// NewAdapter returns an Adapter posting replies with sender.
func NewAdapter(app *Application, sender Sender) *Adapter {
	return &Adapter{
		app:    app,
		sender: sender,
	}
}

// ServeHTTP decodes the activity and runs the turn.
// Each turn runs with a ChatContext of the channel and conversation.
func (a *Adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var activity Activity
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxActivitySize)).Decode(&activity); err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "invalid_activity",
			"err", err.Error(),
		)
		writeError(w, http.StatusBadRequest, "invalid activity")
		return
	}
	if err := activity.Validate(); err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "invalid_activity",
			"err", err.Error(),
		)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chatCtx := chatmodel.NewChatContext(activity.ChannelID, activity.Conversation.ID, &activity)
	ctx = chatmodel.WithChatContext(ctx, chatCtx)

	turn := NewTurnContext(&activity, a.sender)
	err := a.app.OnTurn(ctx, turn)
	if err != nil && !errors.Is(err, ErrUnsupportedActivity) {
		logger.ContextKV(ctx, xlog.ERROR,
			"status", "turn_failed",
			"conversation", activity.Conversation.ID,
			"err", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "failed to process activity")
		return
	}

	if activity.ExpectReplies() {
		writeJSON(w, http.StatusOK, ExpectedReplies{Activities: turn.Replies()})
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
