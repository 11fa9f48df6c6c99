package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/knockerbot/knocker/internal/config"
)

type fakeCompletionAPI struct {
	calls    int
	response string
	err      error
}

func (f *fakeCompletionAPI) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}

	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.response}},
		},
	}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.OpenAI.ChatModel = "gpt-4o"
	cfg.OpenAI.MaxTokens = 512
	cfg.OpenAI.SystemPrompt = "test prompt"
	cfg.Voice.CompletionCacheSize = 8
	return cfg
}

func TestChatService_Complete(t *testing.T) {
	api := &fakeCompletionAPI{response: "hello there"}

	svc, err := NewChatService(zaptest.NewLogger(t), testConfig(), api)
	require.NoError(t, err)

	got, err := svc.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", got)
	assert.Equal(t, 1, api.calls)
}

func TestChatService_CachesIdenticalQueries(t *testing.T) {
	api := &fakeCompletionAPI{response: "cached"}

	svc, err := NewChatService(zaptest.NewLogger(t), testConfig(), api)
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), "same question")
	require.NoError(t, err)

	// Whitespace variations hit the same cache entry.
	got, err := svc.Complete(context.Background(), "  same question ")
	require.NoError(t, err)

	assert.Equal(t, "cached", got)
	assert.Equal(t, 1, api.calls)
}

func TestChatService_PropagatesAPIError(t *testing.T) {
	api := &fakeCompletionAPI{err: errors.New("rate limited")}

	svc, err := NewChatService(zaptest.NewLogger(t), testConfig(), api)
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), "hi")
	assert.ErrorContains(t, err, "rate limited")
}

func TestChatService_NoChoices(t *testing.T) {
	// A response with an empty choice list is an error, not an empty reply.
	svc, err := NewChatService(zaptest.NewLogger(t), testConfig(), apiWithNoChoices{})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), "hi")
	assert.ErrorContains(t, err, "no choices")
}

type apiWithNoChoices struct{}

func (apiWithNoChoices) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, nil
}
