package commands

import (
	"context"
	"errors"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/session"
	"go.uber.org/zap"

	"github.com/knockerbot/knocker/internal/ai"
	"github.com/knockerbot/knocker/internal/voice"
)

// discordMaxMessageLength is Discord's hard cap on message content.
const discordMaxMessageLength = 2000

// ChatCommand handles the /chat command: it forwards the user's message to
// the chat model and posts the reply, optionally speaking it into the guild's
// voice channel.
type ChatCommand struct {
	logger       *zap.Logger
	chat         *ai.ChatService
	orchestrator *voice.Orchestrator
}

// NewChatCommand creates a new ChatCommand instance.
func NewChatCommand(logger *zap.Logger, chat *ai.ChatService, orchestrator *voice.Orchestrator) Command {
	return &ChatCommand{
		logger:       logger.Named("chat_command"),
		chat:         chat,
		orchestrator: orchestrator,
	}
}

// Name returns the name of the command.
func (c *ChatCommand) Name() string {
	return "chat"
}

// Description returns the description of the command.
func (c *ChatCommand) Description() string {
	return "Chat with the bot."
}

// Options returns the command options.
func (c *ChatCommand) Options() []discord.CommandOption {
	return []discord.CommandOption{
		&discord.StringOption{
			OptionName:  "message",
			Description: "Your message to the bot",
			Required:    true,
		},
		&discord.BooleanOption{
			OptionName:  "speak",
			Description: "Speak the reply in your voice channel",
			Required:    false,
		},
	}
}

// Execute runs the command. The model round trip can exceed the interaction
// deadline, so the reply arrives as a follow-up message.
func (c *ChatCommand) Execute(ctx context.Context, s *session.Session, e *gateway.InteractionCreateEvent, data *discord.CommandInteraction) error {
	var message string
	var speak bool

	for _, opt := range data.Options {
		switch opt.Name {
		case "message":
			message = opt.String()
		case "speak":
			v, err := opt.BoolValue()
			if err != nil {
				c.logger.Warn("Failed to parse speak option", zap.Error(err))
				continue
			}
			speak = v
		}
	}
	if message == "" {
		return respondEphemeral(s, e, "Please provide a message.")
	}

	if err := respond(s, e, "🤔 Thinking..."); err != nil {
		return err
	}

	go func() {
		reply, err := c.chat.Complete(ctx, message)
		if err != nil {
			c.logger.Error("Failed to get chat completion", zap.Error(err))
			c.sendFollowUp(s, e.ChannelID, "❌ Failed to get a response.")
			return
		}

		for _, chunk := range splitMessage(reply, discordMaxMessageLength) {
			c.sendFollowUp(s, e.ChannelID, chunk)
		}

		if !speak {
			return
		}
		switch err := c.orchestrator.Speak(ctx, e.GuildID, reply); {
		case err == nil:
		case errors.Is(err, voice.ErrSessionNotFound):
			c.sendFollowUp(s, e.ChannelID, "I'm not in a voice channel.")
		default:
			c.logger.Error("Failed to speak chat reply", zap.Error(err))
			c.sendFollowUp(s, e.ChannelID, "❌ Failed to speak the reply.")
		}
	}()

	return nil
}

func (c *ChatCommand) sendFollowUp(s *session.Session, channelID discord.ChannelID, content string) {
	if _, err := s.SendMessage(channelID, content); err != nil {
		c.logger.Error("Failed to send follow-up message", zap.Error(err))
	}
}

// splitMessage breaks content into chunks that fit Discord's message limit.
func splitMessage(content string, limit int) []string {
	if content == "" {
		return nil
	}
	runes := []rune(content)
	chunks := make([]string, 0, len(runes)/limit+1)
	for len(runes) > limit {
		chunks = append(chunks, string(runes[:limit]))
		runes = runes[limit:]
	}
	return append(chunks, string(runes))
}
