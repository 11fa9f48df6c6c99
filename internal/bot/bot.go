package bot

import (
	"context"
	"fmt"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/session"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/knockerbot/knocker/internal/commands"
	"github.com/knockerbot/knocker/internal/config"
)

// Bot represents the Discord bot.
type Bot struct {
	session    *session.Session
	config     *config.Config
	cmdManager *commands.CommandManager
	logger     *zap.Logger
}

// NewBotParameters holds dependencies for NewBot.
type NewBotParameters struct {
	fx.In

	Cfg        *config.Config
	S          *session.Session
	CmdManager *commands.CommandManager
	Logger     *zap.Logger
}

// NewBot creates and initializes a new Bot and installs the interaction
// handler on the gateway session.
func NewBot(params NewBotParameters) (*Bot, error) {
	if params.Cfg.Discord.ApplicationID == nil || *params.Cfg.Discord.ApplicationID == 0 {
		return nil, fmt.Errorf("application ID is not set or is zero in config")
	}

	b := &Bot{
		session:    params.S,
		config:     params.Cfg,
		cmdManager: params.CmdManager,
		logger:     params.Logger,
	}

	params.S.AddHandler(b.handleInteraction)

	return b, nil
}

// Start registers the slash commands for the configured guilds. Session
// opening is handled by the Fx lifecycle.
func (b *Bot) Start(ctx context.Context) error {
	guildIDs := b.guildIDs()
	if len(guildIDs) == 0 {
		b.logger.Warn("No guild IDs configured, skipping command registration")
		return nil
	}
	b.cmdManager.RegisterCommands(guildIDs)
	return nil
}

// Stop performs bot-specific shutdown. Session closing is handled by the Fx
// lifecycle.
func (b *Bot) Stop(ctx context.Context) error {
	b.logger.Info("Stopping bot")
	return nil
}

func (b *Bot) guildIDs() []discord.GuildID {
	ids := make([]discord.GuildID, 0, len(b.config.Discord.GuildIDs))
	for _, idStr := range b.config.Discord.GuildIDs {
		sf, err := discord.ParseSnowflake(idStr)
		if err != nil {
			b.logger.Error("Failed to parse guild ID", zap.String("guild_id", idStr), zap.Error(err))
			continue
		}
		ids = append(ids, discord.GuildID(sf))
	}
	return ids
}
