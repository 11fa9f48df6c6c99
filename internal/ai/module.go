package ai

import (
	"github.com/sashabaranov/go-openai"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/knockerbot/knocker/internal/config"
)

// Module provides the AI collaborator services.
var Module = fx.Module("ai",
	fx.Provide(
		func(logger *zap.Logger, cfg *config.Config, client *openai.Client) (*ChatService, error) {
			return NewChatService(logger, cfg, client)
		},
		func(logger *zap.Logger, cfg *config.Config, client *openai.Client) *ImageService {
			return NewImageService(logger, cfg, client)
		},
		func(logger *zap.Logger, cfg *config.Config, client *openai.Client) *SpeechService {
			return NewSpeechService(logger, cfg, client)
		},
	),
)
