// Package llm wraps the OpenAI API behind the narrow interfaces the
// indexing and generation pipelines consume, so tests and the memory
// backend can substitute fakes.
package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Embedder turns texts into embedding vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel produces a completion for a system and user message pair.
type ChatModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Config carries the OpenAI settings the client needs.
type Config struct {
	APIKey      string
	Model       string
	EmbedModel  string
	BaseURL     string
	Temperature float32
}

// Client implements Embedder and ChatModel over the OpenAI API.
type Client struct {
	api         *openai.Client
	model       string
	embedModel  string
	temperature float32
}

// NewClient builds a Client. BaseURL overrides the OpenAI endpoint, which
// also lets tests point the client at a local server.
func NewClient(cfg Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:         openai.NewClientWithConfig(apiCfg),
		model:       cfg.Model,
		embedModel:  cfg.EmbedModel,
		temperature: cfg.Temperature,
	}
}

// EmbedTexts embeds texts with the configured embedding model. Vectors come
// back in input order.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.embedModel),
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: %d embeddings for %d texts", ErrEmptyEmbeddingData, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))

	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ErrEmptyEmbeddingData, item.Index)
		}

		vectors[item.Index] = item.Embedding
	}

	return vectors, nil
}

// Complete runs a chat completion with the configured model and temperature
// and returns the first choice's content, trimmed.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyChatResponse
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
