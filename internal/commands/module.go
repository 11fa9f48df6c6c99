// Package commands provides command infrastructure and Fx modules.
package commands

import (
	"go.uber.org/fx"
)

func asCommand(constructor any) any {
	return fx.Annotate(
		constructor,
		fx.As(new(Command)),
		fx.ResultTags(`group:"commands"`),
	)
}

// Module provides command-related dependencies.
var Module = fx.Module("commands",
	fx.Provide(
		NewCommandManager,
		asCommand(NewPingCommand),
		asCommand(NewVersionCommand),
		asCommand(NewChatCommand),
		asCommand(NewDrawCommand),
		asCommand(NewJoinCommand),
		asCommand(NewLeaveCommand),
		asCommand(NewMuteCommand),
		asCommand(NewUnmuteCommand),
		asCommand(NewDeafenCommand),
		asCommand(NewUndeafenCommand),
	),
)
