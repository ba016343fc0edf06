// Package memory supplies short-term conversation history and long-term
// similarity-retrieved context to the agentic loop controller. The backing
// store is an external collaborator; the engine only consumes this interface.
package memory

import (
	"context"
	"math"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// Entry is one similarity search hit.
type Entry struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Gateway is the dual-layer memory boundary. The store serializes writes for
// a session; the engine never shares a gateway call across runs.
type Gateway interface {
	// RecentHistory returns the bounded recency window for a session,
	// most-recent-last
	RecentHistory(ctx context.Context, workflowID, sessionID string, limit int) ([]models.Message, error)

	// SearchSimilar returns up to topK stored texts ranked by descending
	// cosine similarity to the query embedding
	SearchSimilar(ctx context.Context, workflowID string, queryEmbedding []float64, topK int) ([]Entry, error)

	// Append records a message after a turn; embedding may be nil when the
	// message should not be retrievable by similarity
	Append(ctx context.Context, workflowID, sessionID string, msg models.Message, embedding []float64) error
}

// CosineSimilarity scores two vectors; mismatched or zero vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64

	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
