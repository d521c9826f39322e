package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/caresuite/nl2sql"
	"github.com/caresuite/nl2sql/sqlgen"
)

const (
	defaultTopK   = 8
	maxSearchTopK = 100
)

// Searcher retrieves the schema chunks most relevant to a question.
type Searcher interface {
	Search(ctx context.Context, question string, topK int) ([]nl2sql.ScoredChunk, error)
}

// Generator turns a question plus retrieved schema context into SQL.
type Generator interface {
	Generate(ctx context.Context, req sqlgen.Request) (string, error)
}

// Guard validates generated SQL before it is returned to the caller.
type Guard interface {
	Check(ctx context.Context, sqlText string) error
}

// API exposes the question-to-SQL pipeline over HTTP.
type API struct {
	searcher  Searcher
	generator Generator
	guard     Guard
	topK      int
	chunks    []nl2sql.SchemaChunk
	byTable   map[string]nl2sql.SchemaChunk
}

// New returns a new API instance. A nil guard disables SQL validation,
// and a topK of zero or less falls back to the default.
func New(searcher Searcher, generator Generator, guard Guard, chunks []nl2sql.SchemaChunk, topK int) *API {
	if topK <= 0 {
		topK = defaultTopK
	}

	byTable := make(map[string]nl2sql.SchemaChunk, len(chunks))
	for _, chunk := range chunks {
		byTable[strings.ToLower(chunk.Table)] = chunk
	}

	return &API{
		searcher:  searcher,
		generator: generator,
		guard:     guard,
		topK:      topK,
		chunks:    chunks,
		byTable:   byTable,
	}
}

// Register binds handlers to the provided mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("POST /nl2sql", a.handleNL2SQL)
	mux.HandleFunc("GET /schema/tables", a.handleSchemaTables)
	mux.HandleFunc("GET /schema/tables/{name}", a.handleSchemaTable)
	mux.HandleFunc("POST /search", a.handleSearch)
}

// -----------------------------------------------------------------------------
// Request / response payloads

type nl2sqlRequest struct {
	Question string `json:"question"`
	RosterID *int   `json:"roster_id"`
	ClientID *int   `json:"client_id"`
}

type nl2sqlResponse struct {
	Question string `json:"question"`
	RosterID *int   `json:"roster_id"`
	ClientID *int   `json:"client_id"`
	SQL      string `json:"sql"`
}

type schemaTablesResponse struct {
	Tables []string `json:"tables"`
	Count  int      `json:"count"`
}

type schemaTableResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type searchRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

type searchResult struct {
	Table string  `json:"table"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// -----------------------------------------------------------------------------
// Handlers

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleNL2SQL(w http.ResponseWriter, r *http.Request) {
	var req nl2sqlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "question is required"})
		return
	}

	ctx := r.Context()

	chunks, err := a.searcher.Search(ctx, req.Question, a.topK)
	if err != nil {
		log.Printf("schema search failed: %v", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "schema search failed"})

		return
	}

	sqlText, err := a.generator.Generate(ctx, sqlgen.Request{
		Question: req.Question,
		RosterID: req.RosterID,
		ClientID: req.ClientID,
		Chunks:   chunks,
	})
	if err != nil {
		log.Printf("sql generation failed: %v", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "sql generation failed"})

		return
	}

	if a.guard != nil {
		if err := a.guard.Check(ctx, sqlText); err != nil {
			log.Printf("generated sql rejected: %v", err)
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})

			return
		}
	}

	writeJSON(w, http.StatusOK, nl2sqlResponse{
		Question: req.Question,
		RosterID: req.RosterID,
		ClientID: req.ClientID,
		SQL:      sqlText,
	})
}

func (a *API) handleSchemaTables(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(a.chunks))
	for _, chunk := range a.chunks {
		names = append(names, chunk.Table)
	}

	sort.Strings(names)

	writeJSON(w, http.StatusOK, schemaTablesResponse{Tables: names, Count: len(names)})
}

func (a *API) handleSchemaTable(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	chunk, ok := a.byTable[strings.ToLower(name)]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("table %q not found", name)})
		return
	}

	writeJSON(w, http.StatusOK, schemaTableResponse{ID: chunk.ID, Text: chunk.Text})
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "question is required"})
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = a.topK
	}

	if topK > maxSearchTopK {
		topK = maxSearchTopK
	}

	chunks, err := a.searcher.Search(r.Context(), req.Question, topK)
	if err != nil {
		log.Printf("schema search failed: %v", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "schema search failed"})

		return
	}

	results := make([]searchResult, 0, len(chunks))
	for _, chunk := range chunks {
		results = append(results, searchResult{Table: chunk.Table, Score: chunk.Score, Text: chunk.Text})
	}

	writeJSON(w, http.StatusOK, results)
}

// -----------------------------------------------------------------------------
// Helpers

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}

		return err
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("write response failed: %v", err)
		}
	}
}
