package voice

import (
	"context"

	"github.com/diamondburned/arikawa/v3/discord"
)

// Transport establishes live links to guild voice channels. The production
// implementation sits on the Discord voice gateway; tests substitute fakes.
type Transport interface {
	Connect(ctx context.Context, guildID discord.GuildID, channelID discord.ChannelID) (Connection, error)
}

// Connection is one live link to a voice channel.
type Connection interface {
	// Subscribe installs the connection's event handler and starts event
	// delivery. It must be called exactly once, before any events are
	// expected to flow.
	Subscribe(h Handler)

	// SetMuteDeaf pushes the bot's self-mute and self-deafen flags to the
	// channel.
	SetMuteDeaf(ctx context.Context, mute, deaf bool) error

	// WriteOpus transmits one 20 ms opus frame.
	WriteOpus(frame []byte) error

	// Close tears the link down and stops event delivery.
	Close(ctx context.Context) error
}
