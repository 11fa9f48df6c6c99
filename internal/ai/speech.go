package ai

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/knockerbot/knocker/internal/config"
)

// speechAPI is the slice of the OpenAI client the speech service uses.
type speechAPI interface {
	CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// SpeechService synthesizes text to a single well-known mp3 artifact. Every
// invocation overwrites the previous artifact; concurrent invocations for
// different guilds race on the shared path.
type SpeechService struct {
	logger *zap.Logger
	client speechAPI

	model string
	voice string
	path  string
}

// NewSpeechService creates a SpeechService backed by the given client.
func NewSpeechService(logger *zap.Logger, cfg *config.Config, client speechAPI) *SpeechService {
	return &SpeechService{
		logger: logger.Named("speech"),
		client: client,
		model:  cfg.OpenAI.SpeechModel,
		voice:  cfg.OpenAI.SpeechVoice,
		path:   filepath.Join(cfg.Data.Dir, cfg.Data.SpeechFile),
	}
}

// ArtifactPath returns the fixed path the synthesized audio is written to.
func (s *SpeechService) ArtifactPath() string {
	return s.path
}

// Synthesize converts text to speech and writes it to the artifact path,
// returning that path.
func (s *SpeechService) Synthesize(ctx context.Context, text string) (string, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.SpeechModel(s.model),
		Input: text,
		Voice: openai.SpeechVoice(s.voice),
	})
	if err != nil {
		return "", fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Close()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	f, err := os.Create(s.path)
	if err != nil {
		return "", fmt.Errorf("failed to create speech artifact: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, resp)
	if err != nil {
		return "", fmt.Errorf("failed to save speech artifact: %w", err)
	}

	s.logger.Debug("Speech synthesized",
		zap.String("model", s.model),
		zap.String("voice", s.voice),
		zap.Int64("bytes", written))

	return s.path, nil
}
