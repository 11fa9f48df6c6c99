// Package ai wraps the OpenAI API behind the three thin collaborators the
// bot needs: chat completion, image generation and speech synthesis. Each is
// a single request/response call with no conversation state.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/knockerbot/knocker/internal/config"
)

// completionAPI is the slice of the OpenAI client the chat service uses.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatService produces a single chat-completion response for a query.
type ChatService struct {
	logger *zap.Logger
	client completionAPI

	model        string
	maxTokens    int
	systemPrompt string

	// cache memoizes recent completions by normalized query. This is
	// request/response memoization, not conversation history.
	cache *lru.Cache[string, string]
}

// NewChatService creates a ChatService backed by the given client.
func NewChatService(logger *zap.Logger, cfg *config.Config, client completionAPI) (*ChatService, error) {
	cache, err := lru.New[string, string](cfg.Voice.CompletionCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion cache: %w", err)
	}

	return &ChatService{
		logger:       logger.Named("chat"),
		client:       client,
		model:        cfg.OpenAI.ChatModel,
		maxTokens:    cfg.OpenAI.MaxTokens,
		systemPrompt: cfg.OpenAI.SystemPrompt,
		cache:        cache,
	}, nil
}

// Complete sends the query to the model and returns the response text.
func (s *ChatService) Complete(ctx context.Context, query string) (string, error) {
	key := strings.TrimSpace(query)

	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug("Completion cache hit", zap.String("query", key))

		return cached, nil
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: s.systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: query,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	s.cache.Add(key, content)

	s.logger.Debug("Completion generated",
		zap.String("model", s.model),
		zap.Int("response_length", len(content)))

	return content, nil
}
