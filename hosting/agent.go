package hosting

import (
	"context"

	"github.com/effective-security/learnagent/assistants"
	"github.com/effective-security/xlog"
)

// HelpCommand replies with the welcome message.
const HelpCommand = "/help"

// NewAgentApplication returns the Application of the Microsoft Learn assistant:
// welcome on members added and on /help, all other messages are answered
// by the assistant.
func NewAgentApplication(assistant assistants.IAssistant) *Application {
	app := NewApplication()
	app.OnConversationUpdate("membersAdded", welcome)
	app.OnMessage(HelpCommand, help)
	app.OnActivity(ActivityTypeMessage, func(ctx context.Context, turn TurnContext) error {
		text := turn.Activity().Text
		logger.ContextKV(ctx, xlog.INFO,
			"status", "message_received",
			"conversation", turn.Activity().Conversation.ID,
			"size", len(text),
		)

		reply, err := assistant.Handle(ctx, text)
		if err != nil {
			return err
		}
		return turn.SendActivity(ctx, reply)
	})
	return app
}

// welcome greets once per activity that adds anyone besides the bot.
func welcome(ctx context.Context, turn TurnContext) error {
	if len(turn.Activity().AddedMembers()) == 0 {
		return nil
	}
	return turn.SendActivity(ctx, assistants.WelcomeMessage)
}

func help(ctx context.Context, turn TurnContext) error {
	return turn.SendActivity(ctx, assistants.WelcomeMessage)
}
