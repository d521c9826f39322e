package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/caresuite/nl2sql"
)

const defaultControlPlaneURL = "https://api.pinecone.io"

// PineconeConfig carries everything the serverless REST API needs.
type PineconeConfig struct {
	APIKey    string
	Index     string
	Cloud     string
	Region    string
	Namespace string
	Dimension int
	Metric    string

	// ControlPlaneURL overrides the index management endpoint. Empty means
	// the public API.
	ControlPlaneURL string
	// Host overrides data plane host discovery. Empty means the host is
	// resolved by describing the index.
	Host string
}

// PineconeStore talks to a Pinecone serverless index over its REST API.
// The data plane host is resolved once via the control plane and cached.
type PineconeStore struct {
	cfg          PineconeConfig
	client       *http.Client
	pollInterval time.Duration
	readyTimeout time.Duration

	mu   sync.Mutex
	host string
}

// NewPineconeStore returns a store for cfg.Index. The index itself is not
// touched until EnsureIndex or the first data plane call.
func NewPineconeStore(cfg PineconeConfig) *PineconeStore {
	if cfg.ControlPlaneURL == "" {
		cfg.ControlPlaneURL = defaultControlPlaneURL
	}
	return &PineconeStore{
		cfg:          cfg,
		client:       &http.Client{Timeout: 30 * time.Second},
		pollInterval: 2 * time.Second,
		readyTimeout: 2 * time.Minute,
	}
}

type indexDescription struct {
	Name   string `json:"name"`
	Host   string `json:"host"`
	Status struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

type serverlessSpec struct {
	Cloud  string `json:"cloud"`
	Region string `json:"region"`
}

type indexSpec struct {
	Serverless serverlessSpec `json:"serverless"`
}

type createIndexRequest struct {
	Name      string    `json:"name"`
	Dimension int       `json:"dimension"`
	Metric    string    `json:"metric"`
	Spec      indexSpec `json:"spec"`
}

type indexStatsResponse struct {
	TotalVectorCount int `json:"totalVectorCount"`
	Dimension        int `json:"dimension"`
}

type pineconeVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata vectorMetadata `json:"metadata"`
}

type vectorMetadata struct {
	Text string `json:"text"`
}

type upsertRequest struct {
	Vectors   []pineconeVector `json:"vectors"`
	Namespace string           `json:"namespace,omitempty"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
	Namespace       string    `json:"namespace,omitempty"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata vectorMetadata `json:"metadata"`
	} `json:"matches"`
}

// EnsureIndex creates the index when it does not exist yet and waits until
// it reports ready, caching the data plane host along the way.
func (s *PineconeStore) EnsureIndex(ctx context.Context) error {
	desc, found, err := s.describeIndex(ctx)
	if err != nil {
		return err
	}
	if found && desc.Status.Ready {
		s.setHost(desc.Host)
		return nil
	}
	if !found {
		if err := s.createIndex(ctx); err != nil {
			return err
		}
	}
	return s.waitUntilReady(ctx)
}

// ResetIndex deletes the index so the next EnsureIndex recreates it from
// scratch. A missing index is not an error.
func (s *PineconeStore) ResetIndex(ctx context.Context) error {
	url := fmt.Sprintf("%s/indexes/%s", s.cfg.ControlPlaneURL, s.cfg.Index)
	status, _, err := s.do(ctx, http.MethodDelete, url, nil, nil)
	if err != nil && status != http.StatusNotFound {
		return err
	}
	s.mu.Lock()
	s.host = ""
	s.mu.Unlock()
	return nil
}

// Count reports the total vector count across the index.
func (s *PineconeStore) Count(ctx context.Context) (int, error) {
	host, err := s.dataHost(ctx)
	if err != nil {
		return 0, err
	}
	var stats indexStatsResponse
	if _, _, err := s.do(ctx, http.MethodPost, host+"/describe_index_stats", struct{}{}, &stats); err != nil {
		return 0, err
	}
	return stats.TotalVectorCount, nil
}

// Upsert writes vectors into the configured namespace.
func (s *PineconeStore) Upsert(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	host, err := s.dataHost(ctx)
	if err != nil {
		return err
	}
	req := upsertRequest{
		Vectors:   make([]pineconeVector, len(vectors)),
		Namespace: s.cfg.Namespace,
	}
	for i, v := range vectors {
		req.Vectors[i] = pineconeVector{
			ID:       v.ID,
			Values:   v.Values,
			Metadata: vectorMetadata{Text: v.Text},
		}
	}
	_, _, err = s.do(ctx, http.MethodPost, host+"/vectors/upsert", req, nil)
	return err
}

// Query returns the topK nearest chunks, best match first. Chunk IDs are
// table names, so the ID doubles as the chunk's table.
func (s *PineconeStore) Query(ctx context.Context, vector []float32, topK int) ([]nl2sql.ScoredChunk, error) {
	host, err := s.dataHost(ctx)
	if err != nil {
		return nil, err
	}
	req := queryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
		Namespace:       s.cfg.Namespace,
	}
	var resp queryResponse
	if _, _, err := s.do(ctx, http.MethodPost, host+"/query", req, &resp); err != nil {
		return nil, err
	}
	chunks := make([]nl2sql.ScoredChunk, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		chunks = append(chunks, nl2sql.ScoredChunk{
			SchemaChunk: nl2sql.SchemaChunk{
				ID:    m.ID,
				Table: m.ID,
				Text:  m.Metadata.Text,
			},
			Score: m.Score,
		})
	}
	return chunks, nil
}

func (s *PineconeStore) describeIndex(ctx context.Context) (*indexDescription, bool, error) {
	url := fmt.Sprintf("%s/indexes/%s", s.cfg.ControlPlaneURL, s.cfg.Index)
	var desc indexDescription
	status, _, err := s.do(ctx, http.MethodGet, url, nil, &desc)
	if status == http.StatusNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &desc, true, nil
}

func (s *PineconeStore) createIndex(ctx context.Context) error {
	req := createIndexRequest{
		Name:      s.cfg.Index,
		Dimension: s.cfg.Dimension,
		Metric:    s.cfg.Metric,
		Spec: indexSpec{
			Serverless: serverlessSpec{Cloud: s.cfg.Cloud, Region: s.cfg.Region},
		},
	}
	status, _, err := s.do(ctx, http.MethodPost, s.cfg.ControlPlaneURL+"/indexes", req, nil)
	// 409 means a concurrent or still-deleting index with the same name;
	// waitUntilReady sorts that out.
	if err != nil && status != http.StatusConflict {
		return err
	}
	return nil
}

func (s *PineconeStore) waitUntilReady(ctx context.Context) error {
	deadline := time.Now().Add(s.readyTimeout)
	for {
		desc, found, err := s.describeIndex(ctx)
		if err != nil {
			return err
		}
		if found && desc.Status.Ready {
			s.setHost(desc.Host)
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", ErrIndexNotReady, s.cfg.Index)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

// dataHost returns the base URL for data plane calls, resolving and
// caching it via the control plane on first use.
func (s *PineconeStore) dataHost(ctx context.Context) (string, error) {
	if s.cfg.Host != "" {
		return normalizeHost(s.cfg.Host), nil
	}
	s.mu.Lock()
	host := s.host
	s.mu.Unlock()
	if host != "" {
		return host, nil
	}
	if err := s.EnsureIndex(ctx); err != nil {
		return "", err
	}
	s.mu.Lock()
	host = s.host
	s.mu.Unlock()
	if host == "" {
		return "", fmt.Errorf("%w: %s reported no host", ErrIndexNotReady, s.cfg.Index)
	}
	return host, nil
}

func (s *PineconeStore) setHost(host string) {
	if host == "" {
		return
	}
	s.mu.Lock()
	s.host = normalizeHost(host)
	s.mu.Unlock()
}

// normalizeHost accepts the scheme-less hosts the control plane returns as
// well as full URLs.
func normalizeHost(host string) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return strings.TrimSuffix(host, "/")
	}
	return "https://" + strings.TrimSuffix(host, "/")
}

// do sends one JSON request and decodes the response into out when given.
// Non-2xx responses come back as ErrRequestFailed with the response body,
// alongside the status code so callers can special-case it.
func (s *PineconeStore) do(ctx context.Context, method, url string, body, out any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("vectorstore: encode %s %s: %w", method, url, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("vectorstore: build %s %s: %w", method, url, err)
	}
	req.Header.Set("Api-Key", s.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("vectorstore: %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("vectorstore: read %s %s response: %w", method, url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, data, fmt.Errorf("%w: %s %s: status %d: %s",
			ErrRequestFailed, method, url, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, data, fmt.Errorf("vectorstore: decode %s %s response: %w", method, url, err)
		}
	}
	return resp.StatusCode, data, nil
}
