package llm

import "errors"

var (
	// ErrEmptyChatResponse indicates the chat completion returned no choices.
	ErrEmptyChatResponse = errors.New("llm: chat completion returned no choices")
	// ErrEmptyEmbeddingData indicates the embeddings response did not cover every input text.
	ErrEmptyEmbeddingData = errors.New("llm: embeddings response is incomplete")
)
