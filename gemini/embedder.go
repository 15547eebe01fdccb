package gemini

import (
	"context"

	"github.com/fwojciec/locsearch"
	"google.golang.org/genai"
)

const (
	embedModel = "gemini-embedding-001"

	// embedDim is the requested output dimensionality, divisible by the
	// index's sub-quantizer count.
	embedDim = 768
)

// Ensure Embedder implements locsearch.Vectorizer at compile time.
var _ locsearch.Vectorizer = (*Embedder)(nil)

// Embedder implements locsearch.Vectorizer using the Gemini embedding
// API.
type Embedder struct {
	client *genai.Client
}

// NewEmbedder creates a new Embedder.
func NewEmbedder(client *genai.Client) *Embedder {
	return &Embedder{client: client}
}

// Embed returns the embedding vector for the text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, locsearch.Errorf(locsearch.EINVALID, "text required")
	}

	dim := int32(embedDim)
	result, err := e.client.Models.EmbedContent(ctx, embedModel,
		[]*genai.Content{
			genai.NewContentFromText(text, "user"),
		},
		&genai.EmbedContentConfig{OutputDimensionality: &dim},
	)
	if err != nil {
		return nil, err
	}
	if result == nil || len(result.Embeddings) == 0 {
		return nil, locsearch.Errorf(locsearch.EINTERNAL, "gemini returned no embedding")
	}

	return result.Embeddings[0].Values, nil
}

// Dimension returns the fixed output dimension.
func (e *Embedder) Dimension() int {
	return embedDim
}
