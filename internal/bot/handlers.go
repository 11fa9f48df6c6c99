package bot

import (
	"context"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/utils/json/option"
	"go.uber.org/zap"
)

// handleInteraction dispatches slash-command interactions to their handlers.
// Non-command interactions are ignored.
func (b *Bot) handleInteraction(e *gateway.InteractionCreateEvent) {
	data, ok := e.Data.(*discord.CommandInteraction)
	if !ok {
		b.logger.Debug("Received unhandled interaction type", zap.Any("type", e.Data))
		return
	}

	b.logger.Info("Received slash command",
		zap.String("command", data.Name),
		zap.String("user_id", e.SenderID().String()),
	)

	cmd, ok := b.cmdManager.GetCommand(data.Name)
	if !ok {
		b.logger.Warn("Unknown command", zap.String("command", data.Name))
		b.respondText(e, "Unknown command.")
		return
	}

	if err := cmd.Execute(context.Background(), b.session, e, data); err != nil {
		b.logger.Error("Error executing command",
			zap.String("command", data.Name),
			zap.Error(err),
		)
		b.respondText(e, "An error occurred while executing the command.")
	}
}

func (b *Bot) respondText(e *gateway.InteractionCreateEvent, content string) {
	err := b.session.RespondInteraction(e.ID, e.Token, api.InteractionResponse{
		Type: api.MessageInteractionWithSource,
		Data: &api.InteractionResponseData{
			Content: option.NewNullableString(content),
		},
	})
	if err != nil {
		b.logger.Error("Failed to respond to interaction", zap.Error(err))
	}
}
