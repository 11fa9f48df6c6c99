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

// voiceStateCommand is the shared implementation behind /mute, /unmute,
// /deafen and /undeafen. Each instance flips one flag in one direction.
type voiceStateCommand struct {
	logger   *zap.Logger
	registry *voice.Registry

	name        string
	description string
	deafen      bool // operate on the deafen flag instead of mute
	target      bool
	alreadyMsg  string
	successMsg  string
}

// NewMuteCommand creates the /mute command.
func NewMuteCommand(logger *zap.Logger, registry *voice.Registry) Command {
	return &voiceStateCommand{
		logger:      logger.Named("mute_command"),
		registry:    registry,
		name:        "mute",
		description: "Mute the bot in the voice channel.",
		target:      true,
		alreadyMsg:  "I'm already muted.",
		successMsg:  "I'm now muted.",
	}
}

// NewUnmuteCommand creates the /unmute command.
func NewUnmuteCommand(logger *zap.Logger, registry *voice.Registry) Command {
	return &voiceStateCommand{
		logger:      logger.Named("unmute_command"),
		registry:    registry,
		name:        "unmute",
		description: "Unmute the bot in the voice channel.",
		target:      false,
		alreadyMsg:  "I'm already unmuted.",
		successMsg:  "I'm now unmuted.",
	}
}

// NewDeafenCommand creates the /deafen command.
func NewDeafenCommand(logger *zap.Logger, registry *voice.Registry) Command {
	return &voiceStateCommand{
		logger:      logger.Named("deafen_command"),
		registry:    registry,
		name:        "deafen",
		description: "Deafen the bot in the voice channel.",
		deafen:      true,
		target:      true,
		alreadyMsg:  "I'm already deafened.",
		successMsg:  "I'm now deafened.",
	}
}

// NewUndeafenCommand creates the /undeafen command.
func NewUndeafenCommand(logger *zap.Logger, registry *voice.Registry) Command {
	return &voiceStateCommand{
		logger:      logger.Named("undeafen_command"),
		registry:    registry,
		name:        "undeafen",
		description: "Undeafen the bot in the voice channel.",
		deafen:      true,
		target:      false,
		alreadyMsg:  "I'm already undeafened.",
		successMsg:  "I'm now undeafened.",
	}
}

// Name returns the name of the command.
func (c *voiceStateCommand) Name() string {
	return c.name
}

// Description returns the description of the command.
func (c *voiceStateCommand) Description() string {
	return c.description
}

// Options returns the command options.
func (c *voiceStateCommand) Options() []discord.CommandOption {
	return nil
}

// Execute runs the command.
func (c *voiceStateCommand) Execute(ctx context.Context, s *session.Session, e *gateway.InteractionCreateEvent, data *discord.CommandInteraction) error {
	if e.GuildID == 0 {
		return respondEphemeral(s, e, "This command can only be used in a server.")
	}

	var err error
	if c.deafen {
		err = c.registry.SetDeafen(ctx, e.GuildID, c.target)
	} else {
		err = c.registry.SetMute(ctx, e.GuildID, c.target)
	}
	if err != nil && !errors.Is(err, voice.ErrSessionNotFound) && !errors.Is(err, voice.ErrAlreadyInState) {
		c.logger.Error("Failed to update voice state",
			zap.String("command", c.name),
			zap.Error(err),
		)
	}
	return respond(s, e, c.reply(err))
}

// reply maps the registry outcome to the user-facing message. Success and
// failure texts are mutually exclusive.
func (c *voiceStateCommand) reply(err error) string {
	switch {
	case err == nil:
		return c.successMsg
	case errors.Is(err, voice.ErrSessionNotFound):
		return "I'm not in a voice channel."
	case errors.Is(err, voice.ErrAlreadyInState):
		return c.alreadyMsg
	default:
		return fmt.Sprintf("❌ Failed to update voice state: %v", err)
	}
}
