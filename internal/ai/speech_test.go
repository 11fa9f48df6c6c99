package ai

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/knockerbot/knocker/internal/config"
)

type fakeSpeechAPI struct {
	audio   string
	err     error
	lastReq openai.CreateSpeechRequest
}

func (a *fakeSpeechAPI) CreateSpeech(_ context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error) {
	a.lastReq = req
	if a.err != nil {
		return openai.RawResponse{}, a.err
	}
	return openai.RawResponse{ReadCloser: io.NopCloser(strings.NewReader(a.audio))}, nil
}

func speechTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		OpenAI: config.OpenAIConfig{
			SpeechModel: "tts-1-hd",
			SpeechVoice: "echo",
		},
		Data: config.DataConfig{
			Dir:        t.TempDir(),
			SpeechFile: "speech.mp3",
		},
	}
}

func TestSpeechServiceSynthesize(t *testing.T) {
	cfg := speechTestConfig(t)
	api := &fakeSpeechAPI{audio: "mp3-bytes"}
	service := &SpeechService{
		logger: zaptest.NewLogger(t),
		client: api,
		model:  cfg.OpenAI.SpeechModel,
		voice:  cfg.OpenAI.SpeechVoice,
		path:   filepath.Join(cfg.Data.Dir, cfg.Data.SpeechFile),
	}

	path, err := service.Synthesize(context.Background(), "hello there")
	require.NoError(t, err)
	assert.Equal(t, service.ArtifactPath(), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mp3-bytes", string(data))

	assert.Equal(t, openai.SpeechModel("tts-1-hd"), api.lastReq.Model)
	assert.Equal(t, openai.SpeechVoice("echo"), api.lastReq.Voice)
	assert.Equal(t, "hello there", api.lastReq.Input)
}

func TestSpeechServiceOverwritesArtifact(t *testing.T) {
	cfg := speechTestConfig(t)
	api := &fakeSpeechAPI{audio: "first"}
	service := &SpeechService{
		logger: zaptest.NewLogger(t),
		client: api,
		model:  cfg.OpenAI.SpeechModel,
		voice:  cfg.OpenAI.SpeechVoice,
		path:   filepath.Join(cfg.Data.Dir, cfg.Data.SpeechFile),
	}

	_, err := service.Synthesize(context.Background(), "one")
	require.NoError(t, err)

	api.audio = "second"
	path, err := service.Synthesize(context.Background(), "two")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestSpeechServiceAPIError(t *testing.T) {
	cfg := speechTestConfig(t)
	service := &SpeechService{
		logger: zaptest.NewLogger(t),
		client: &fakeSpeechAPI{err: errors.New("quota exceeded")},
		model:  cfg.OpenAI.SpeechModel,
		voice:  cfg.OpenAI.SpeechVoice,
		path:   filepath.Join(cfg.Data.Dir, cfg.Data.SpeechFile),
	}

	_, err := service.Synthesize(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "speech synthesis failed")
}
