package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/session"
	"go.uber.org/zap"

	"github.com/knockerbot/knocker/internal/voice"
)

// LeaveCommand handles the /leave command: the bot leaves the guild's voice
// channel.
type LeaveCommand struct {
	logger   *zap.Logger
	registry *voice.Registry
}

// NewLeaveCommand creates a new LeaveCommand instance.
func NewLeaveCommand(logger *zap.Logger, registry *voice.Registry) Command {
	return &LeaveCommand{
		logger:   logger.Named("leave_command"),
		registry: registry,
	}
}

// Name returns the name of the command.
func (c *LeaveCommand) Name() string {
	return "leave"
}

// Description returns the description of the command.
func (c *LeaveCommand) Description() string {
	return "Leave the voice channel."
}

// Options returns the command options.
func (c *LeaveCommand) Options() []discord.CommandOption {
	return nil
}

// Execute runs the command.
func (c *LeaveCommand) Execute(ctx context.Context, s *session.Session, e *gateway.InteractionCreateEvent, data *discord.CommandInteraction) error {
	if e.GuildID == 0 {
		return respondEphemeral(s, e, "This command can only be used in a server.")
	}

	err := c.registry.Leave(ctx, e.GuildID)
	if err != nil && !errors.Is(err, voice.ErrSessionNotFound) {
		c.logger.Error("Failed to leave voice channel", zap.Error(err))
	}
	return respond(s, e, c.reply(err))
}

// reply maps the registry outcome to the user-facing message. Transport
// failures carry the error detail.
func (c *LeaveCommand) reply(err error) string {
	switch {
	case err == nil:
		return "Left voice channel."
	case errors.Is(err, voice.ErrSessionNotFound):
		return "I'm not in a voice channel."
	default:
		return fmt.Sprintf("❌ Failed to leave voice channel: %v", err)
	}
}
