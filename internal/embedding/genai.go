package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIEmbedder generates embeddings with the Gemini API.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
	dims   int
}

// NewGenAIEmbedder creates a Gemini embedder. Default model:
// gemini-embedding-001 (768 dims).
func NewGenAIEmbedder(ctx context.Context, apiKey, model string, dims int) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai api key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	if dims == 0 {
		dims = 768
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIEmbedder{client: client, model: model, dims: dims}, nil
}

func (e *GenAIEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	res, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType: "SEMANTIC_SIMILARITY",
	})
	if err != nil {
		return nil, fmt.Errorf("genai embed failed: %w", err)
	}
	if len(res.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return res.Embeddings[0].Values, nil
}

func (e *GenAIEmbedder) Dims() int { return e.dims }
