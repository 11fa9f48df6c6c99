package commands

import (
	"context"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/session"
	"github.com/diamondburned/arikawa/v3/state"
	"go.uber.org/zap"

	"github.com/knockerbot/knocker/internal/voice"
)

// JoinCommand handles the /join command: the bot joins the invoking user's
// voice channel.
type JoinCommand struct {
	logger   *zap.Logger
	registry *voice.Registry
	state    *state.State
}

// NewJoinCommand creates a new JoinCommand instance.
func NewJoinCommand(logger *zap.Logger, registry *voice.Registry, st *state.State) Command {
	return &JoinCommand{
		logger:   logger.Named("join_command"),
		registry: registry,
		state:    st,
	}
}

// Name returns the name of the command.
func (c *JoinCommand) Name() string {
	return "join"
}

// Description returns the description of the command.
func (c *JoinCommand) Description() string {
	return "Join your voice channel."
}

// Options returns the command options.
func (c *JoinCommand) Options() []discord.CommandOption {
	return nil
}

// Execute runs the command. The channel to join is resolved from the
// invoker's voice state; joining already being connected elsewhere moves the
// bot to the new channel.
func (c *JoinCommand) Execute(ctx context.Context, s *session.Session, e *gateway.InteractionCreateEvent, data *discord.CommandInteraction) error {
	if e.GuildID == 0 {
		return respondEphemeral(s, e, "This command can only be used in a server.")
	}

	voiceState, err := c.state.VoiceState(e.GuildID, e.SenderID())
	if err != nil || voiceState == nil || !voiceState.ChannelID.IsValid() {
		return respond(s, e, "You're not in a voice channel.")
	}
	channelID := voiceState.ChannelID

	if err := respond(s, e, "🔊 Joining voice channel..."); err != nil {
		return err
	}

	go func() {
		if _, err := c.registry.Join(ctx, e.GuildID, channelID); err != nil {
			c.logger.Error("Failed to join voice channel",
				zap.String("guild_id", e.GuildID.String()),
				zap.String("channel_id", channelID.String()),
				zap.Error(err),
			)
			return
		}
		if _, err := s.SendMessage(e.ChannelID, "Joined voice channel."); err != nil {
			c.logger.Error("Failed to send follow-up message", zap.Error(err))
		}
	}()

	return nil
}
