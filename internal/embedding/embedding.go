// Package embedding provides a pluggable interface for text embedding providers.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// Vector is a float32 embedding vector.
type Vector = []float32

// Embedder generates embedding vectors from text.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
	Dims() int
}

// Config selects and configures a provider.
type Config struct {
	Provider   string `yaml:"provider"`
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Dims       int    `yaml:"dims"`
	CacheSize  int    `yaml:"cache_size"`
	RedisAddr  string `yaml:"redis_addr"`
	AllowLocal bool   `yaml:"allow_local"`
}

// IsConfigured reports whether cfg names both an endpoint and a credential.
// Anything less counts as unconfigured.
func IsConfigured(cfg Config) bool {
	return strings.TrimSpace(cfg.Endpoint) != "" && strings.TrimSpace(cfg.APIKey) != ""
}

// Ready reports whether cfg carries the fields its provider uses. Ollama
// needs only its name (the endpoint defaults to localhost), genai needs a
// key, openai needs an endpoint and a key. The local embedder is ready only
// when AllowLocal is set.
func Ready(cfg Config) bool {
	switch strings.ToLower(cfg.Provider) {
	case "local":
		return cfg.AllowLocal
	case "ollama":
		return true
	case "genai", "gemini":
		return strings.TrimSpace(cfg.APIKey) != ""
	case "openai", "":
		return IsConfigured(cfg)
	default:
		return false
	}
}

// CosineSimilarity computes cosine similarity between two vectors, floored
// at 0. Mismatched, empty or zero-magnitude vectors yield 0.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(0, math.Min(1, sim))
}

// --- Ollama Provider ---

// OllamaEmbedder uses an Ollama instance for embeddings.
type OllamaEmbedder struct {
	baseURL string
	model   string
	dims    int
	client  *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewOllamaEmbedder creates an embedder using Ollama's API.
// Default model: nomic-embed-text (768 dims), all-minilm (384 dims).
func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	dims := 768
	if model == "all-minilm" {
		dims = 384
	}
	return &OllamaEmbedder{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		dims:    dims,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	body, _ := json.Marshal(ollamaRequest{Model: e.model, Prompt: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama error %d: %s", resp.StatusCode, string(b))
	}

	var result ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Embedding, nil
}

func (e *OllamaEmbedder) Dims() int { return e.dims }

// --- OpenAI-compatible Provider ---

// OpenAIEmbedder uses any OpenAI-compatible embedding API.
type OpenAIEmbedder struct {
	baseURL string
	apiKey  string
	model   string
	dims    int
	client  *http.Client
}

type openaiEmbedRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type openaiEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// NewOpenAIEmbedder creates an embedder using an OpenAI-compatible API.
func NewOpenAIEmbedder(baseURL, apiKey, model string, dims int) *OpenAIEmbedder {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if dims == 0 {
		dims = 1536
	}
	return &OpenAIEmbedder{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		dims:    dims,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	body, _ := json.Marshal(openaiEmbedRequest{Input: text, Model: e.model})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai error %d: %s", resp.StatusCode, string(b))
	}

	var result openaiEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return result.Data[0].Embedding, nil
}

func (e *OpenAIEmbedder) Dims() int { return e.dims }

// --- Factory ---

// New creates the embedder named by cfg.Provider:
// "openai" | "ollama" | "genai" | "local". A provider that is not Ready
// returns nil so callers fall back to neutral semantic scores.
func New(ctx context.Context, cfg Config) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "local", "ollama", "genai", "gemini", "openai", "":
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if !Ready(cfg) {
		return nil, nil
	}
	switch strings.ToLower(cfg.Provider) {
	case "local":
		return NewLocalEmbedder(cfg.Dims), nil
	case "ollama":
		return NewOllamaEmbedder(cfg.Endpoint, cfg.Model), nil
	case "genai", "gemini":
		e, err := NewGenAIEmbedder(ctx, cfg.APIKey, cfg.Model, cfg.Dims)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return NewOpenAIEmbedder(cfg.Endpoint, cfg.APIKey, cfg.Model, cfg.Dims), nil
	}
}
