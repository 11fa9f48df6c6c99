// Package openai provides the OpenAI API client and its Fx module.
package openai

import (
	"errors"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/knockerbot/knocker/internal/config"
)

// Module provides OpenAI-related dependencies.
var Module = fx.Module("openai",
	fx.Provide(NewClient),
)

// NewClient creates and configures a new OpenAI client. A missing API key is
// fatal at startup.
func NewClient(cfg *config.Config, logger *zap.Logger) (*openai.Client, error) {
	if cfg.OpenAI.APIKey == "" {
		logger.Error("OpenAI API key is not configured")

		return nil, errors.New("OpenAI API key (config.OpenAI.APIKey) is not configured")
	}

	client := openai.NewClient(cfg.OpenAI.APIKey)
	logger.Info("OpenAI client created successfully.")

	return client, nil
}
