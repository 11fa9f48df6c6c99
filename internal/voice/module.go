package voice

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/knockerbot/knocker/internal/ai"
)

// Module wires the voice engine: the live transport, the session registry and
// the playback orchestrator.
var Module = fx.Module("voice",
	fx.Provide(
		func(t *ArikawaTransport) Transport { return t },
		NewArikawaTransport,
		NewRegistry,
		func(logger *zap.Logger, registry *Registry, speech *ai.SpeechService) *Orchestrator {
			return NewOrchestrator(logger, registry, speech)
		},
	),
	fx.Invoke(func(lc fx.Lifecycle, registry *Registry) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				registry.Shutdown(ctx)
				return nil
			},
		})
	}),
)
