package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fluxionhq/fluxion/pkg/models"
)

type inmemRecord struct {
	msg       models.Message
	embedding []float64
}

// InMemoryGateway keeps everything in process. It backs tests and
// single-binary runs without a redis instance.
type InMemoryGateway struct {
	mu       sync.RWMutex
	sessions map[string][]inmemRecord
	longterm map[string][]inmemRecord
	window   int
}

// NewInMemoryGateway creates an empty gateway with the given history window.
func NewInMemoryGateway(window int) *InMemoryGateway {
	if window <= 0 {
		window = DefaultHistoryWindow
	}

	return &InMemoryGateway{
		sessions: make(map[string][]inmemRecord),
		longterm: make(map[string][]inmemRecord),
		window:   window,
	}
}

func sessionKey(workflowID, sessionID string) string {
	return workflowID + ":" + sessionID
}

// RecentHistory implements Gateway.
func (g *InMemoryGateway) RecentHistory(_ context.Context, workflowID, sessionID string, limit int) ([]models.Message, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	records := g.sessions[sessionKey(workflowID, sessionID)]

	if limit <= 0 {
		limit = g.window
	}

	if len(records) > limit {
		records = records[len(records)-limit:]
	}

	messages := make([]models.Message, len(records))
	for i, record := range records {
		messages[i] = record.msg
	}

	return messages, nil
}

// SearchSimilar implements Gateway.
func (g *InMemoryGateway) SearchSimilar(_ context.Context, workflowID string, queryEmbedding []float64, topK int) ([]Entry, error) {
	if topK <= 0 {
		return nil, nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	entries := make([]Entry, 0, len(g.longterm[workflowID]))

	for _, record := range g.longterm[workflowID] {
		if len(record.embedding) == 0 {
			continue
		}

		entries = append(entries, Entry{
			Text:  record.msg.Content,
			Score: CosineSimilarity(queryEmbedding, record.embedding),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	if len(entries) > topK {
		entries = entries[:topK]
	}

	return entries, nil
}

// Append implements Gateway.
func (g *InMemoryGateway) Append(_ context.Context, workflowID, sessionID string, msg models.Message, embedding []float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := sessionKey(workflowID, sessionID)
	record := inmemRecord{msg: msg, embedding: embedding}

	g.sessions[key] = append(g.sessions[key], record)
	if len(g.sessions[key]) > g.window {
		g.sessions[key] = g.sessions[key][len(g.sessions[key])-g.window:]
	}

	if len(embedding) > 0 && msg.Content != "" {
		g.longterm[workflowID] = append(g.longterm[workflowID], record)
	}

	return nil
}
