package commands

import (
	"context"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/session"
)

// PingCommand is a simple command that responds with "Pong!".
type PingCommand struct{}

// NewPingCommand creates a new PingCommand instance.
func NewPingCommand() Command {
	return &PingCommand{}
}

// Name returns the name of the command.
func (c *PingCommand) Name() string {
	return "ping"
}

// Description returns the description of the command.
func (c *PingCommand) Description() string {
	return "Responds with Pong!"
}

// Options returns the command options.
func (c *PingCommand) Options() []discord.CommandOption {
	return nil
}

// Execute runs the command.
func (c *PingCommand) Execute(ctx context.Context, s *session.Session, e *gateway.InteractionCreateEvent, data *discord.CommandInteraction) error {
	return respond(s, e, "Pong!")
}
