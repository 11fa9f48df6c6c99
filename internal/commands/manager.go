package commands

import (
	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/session"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// CommandManagerParams holds dependencies for NewCommandManager.
type CommandManagerParams struct {
	fx.In

	Session       *session.Session
	ApplicationID discord.AppID
	Logger        *zap.Logger
	Commands      []Command `group:"commands"`
}

// CommandManager indexes the registered slash commands and synchronizes them
// with Discord.
type CommandManager struct {
	session       *session.Session
	applicationID discord.AppID
	logger        *zap.Logger
	commands      map[string]Command
}

// NewCommandManager creates a CommandManager from the commands collected in
// the Fx value group. Duplicate names keep the first registration.
func NewCommandManager(params CommandManagerParams) *CommandManager {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	commandMap := make(map[string]Command, len(params.Commands))
	for _, cmd := range params.Commands {
		if cmd == nil {
			continue
		}
		if _, exists := commandMap[cmd.Name()]; exists {
			logger.Warn("Duplicate command name, keeping first registration", zap.String("name", cmd.Name()))
			continue
		}
		commandMap[cmd.Name()] = cmd
	}

	return &CommandManager{
		session:       params.Session,
		applicationID: params.ApplicationID,
		logger:        logger,
		commands:      commandMap,
	}
}

// GetCommand retrieves a registered command by its name.
func (cm *CommandManager) GetCommand(name string) (Command, bool) {
	cmd, ok := cm.commands[name]
	return cmd, ok
}

// RegisterCommands bulk-overwrites the slash commands for each guild.
func (cm *CommandManager) RegisterCommands(guildIDs []discord.GuildID) {
	cmds := make([]api.CreateCommandData, 0, len(cm.commands))
	for _, cmd := range cm.commands {
		cmds = append(cmds, api.CreateCommandData{
			Name:        cmd.Name(),
			Description: cmd.Description(),
			Options:     cmd.Options(),
		})
	}
	if len(cmds) == 0 {
		cm.logger.Info("No commands to register")
		return
	}

	for _, guildID := range guildIDs {
		registered, err := cm.session.BulkOverwriteGuildCommands(cm.applicationID, guildID, cmds)
		if err != nil {
			cm.logger.Error("Failed to bulk overwrite commands for guild",
				zap.Error(err),
				zap.Stringer("guildID", guildID),
			)
			continue
		}
		cm.logger.Info("Registered slash commands for guild",
			zap.Int("count", len(registered)),
			zap.Stringer("guildID", guildID),
		)
	}
}

// UnregisterAllCommands removes every slash command for the specified guilds.
func (cm *CommandManager) UnregisterAllCommands(guildIDs []discord.GuildID) {
	for _, guildID := range guildIDs {
		if _, err := cm.session.BulkOverwriteGuildCommands(cm.applicationID, guildID, []api.CreateCommandData{}); err != nil {
			cm.logger.Error("Failed to unregister commands for guild",
				zap.Error(err),
				zap.Stringer("guildID", guildID),
			)
		}
	}
}
