package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestEmbedTexts(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		// Indices arrive out of order on purpose.
		_, _ = w.Write([]byte(`{"object":"list","data":[` +
			`{"object":"embedding","index":1,"embedding":[0.4,0.5]},` +
			`{"object":"embedding","index":0,"embedding":[0.1,0.2]}],` +
			`"model":"text-embedding-3-small"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{
		APIKey:     "test-key",
		EmbedModel: "text-embedding-3-small",
		BaseURL:    srv.URL + "/v1",
	})

	vectors, err := client.EmbedTexts(t.Context(), []string{"chunk one", "chunk two"})
	assert.NoError(t, err)

	assert.Equal(t, "/v1/embeddings", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, []string{"chunk one", "chunk two"}, gotBody.Input)
	assert.Equal(t, "text-embedding-3-small", gotBody.Model)

	assert.Equal(t, [][]float32{{0.1, 0.2}, {0.4, 0.5}}, vectors)
}

func TestEmbedTexts_NoInput(t *testing.T) {
	called := false

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	vectors, err := client.EmbedTexts(t.Context(), nil)
	assert.NoError(t, err)
	assert.Zero(t, vectors)
	assert.False(t, called)
}

func TestEmbedTexts_IncompleteData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1]}],"model":"text-embedding-3-small"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	_, err := client.EmbedTexts(t.Context(), []string{"one", "two"})
	assert.IsError(t, err, ErrEmptyEmbeddingData)
}

func TestComplete(t *testing.T) {
	var gotBody struct {
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","choices":[` +
			`{"index":0,"message":{"role":"assistant","content":"\nSELECT p.id FROM patient p\n"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{
		APIKey:      "test-key",
		Model:       "gpt-4.1-mini",
		Temperature: 0.2,
		BaseURL:     srv.URL + "/v1",
	})

	sql, err := client.Complete(t.Context(), "system text", "user text")
	assert.NoError(t, err)

	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "gpt-4.1-mini", gotBody.Model)
	assert.Equal(t, float32(0.2), gotBody.Temperature)
	assert.Equal(t, 2, len(gotBody.Messages))
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, "system text", gotBody.Messages[0].Content)
	assert.Equal(t, "user", gotBody.Messages[1].Role)
	assert.Equal(t, "user text", gotBody.Messages[1].Content)

	assert.Equal(t, "SELECT p.id FROM patient p", sql)
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "test-key", Model: "gpt-4.1-mini", BaseURL: srv.URL + "/v1"})

	_, err := client.Complete(t.Context(), "system", "user")
	assert.IsError(t, err, ErrEmptyChatResponse)
}

func TestComplete_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "bad-key", Model: "gpt-4.1-mini", BaseURL: srv.URL + "/v1"})

	_, err := client.Complete(t.Context(), "system", "user")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
