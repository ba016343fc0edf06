package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// Defaults for the redis-backed store.
const (
	DefaultTTL           = 40 * time.Minute
	DefaultHistoryWindow = 200
)

// Config holds the redis gateway settings.
type Config struct {
	Addr     string
	Password string
	DB       int

	// TTL evicts idle session history.
	TTL time.Duration

	// HistoryWindow bounds how many messages a session list retains.
	HistoryWindow int
}

// RedisGateway stores session history in capped, TTL'd lists and long-term
// entries with their embeddings for cosine-ranked retrieval.
type RedisGateway struct {
	client *redis.Client
	config Config
}

// NewRedisGateway connects to redis and verifies the connection.
func NewRedisGateway(ctx context.Context, config Config) (*RedisGateway, error) {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}

	if config.HistoryWindow <= 0 {
		config.HistoryWindow = DefaultHistoryWindow
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Addr, err)
	}

	return &RedisGateway{client: client, config: config}, nil
}

func historyKey(workflowID, sessionID string) string {
	return fmt.Sprintf("fluxion:history:%s:%s", workflowID, sessionID)
}

func longtermKey(workflowID string) string {
	return fmt.Sprintf("fluxion:memory:%s", workflowID)
}

// RecentHistory implements Gateway.
func (g *RedisGateway) RecentHistory(ctx context.Context, workflowID, sessionID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = g.config.HistoryWindow
	}

	raw, err := g.client.LRange(ctx, historyKey(workflowID, sessionID), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session history: %w", err)
	}

	messages := make([]models.Message, 0, len(raw))

	for _, item := range raw {
		var msg models.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}

		messages = append(messages, msg)
	}

	return messages, nil
}

type longtermRecord struct {
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding,omitempty"`
}

// SearchSimilar implements Gateway.
func (g *RedisGateway) SearchSimilar(ctx context.Context, workflowID string, queryEmbedding []float64, topK int) ([]Entry, error) {
	if topK <= 0 {
		return nil, nil
	}

	raw, err := g.client.LRange(ctx, longtermKey(workflowID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read long-term memory: %w", err)
	}

	entries := make([]Entry, 0, len(raw))

	for _, item := range raw {
		var record longtermRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			continue
		}

		if len(record.Embedding) == 0 {
			continue
		}

		entries = append(entries, Entry{
			Text:  record.Text,
			Score: CosineSimilarity(queryEmbedding, record.Embedding),
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
func (g *RedisGateway) Append(ctx context.Context, workflowID, sessionID string, msg models.Message, embedding []float64) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := historyKey(workflowID, sessionID)

	pipe := g.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-g.config.HistoryWindow), -1)
	pipe.Expire(ctx, key, g.config.TTL)

	if len(embedding) > 0 && msg.Content != "" {
		record, err := json.Marshal(longtermRecord{Text: msg.Content, Embedding: embedding})
		if err != nil {
			return fmt.Errorf("failed to marshal long-term record: %w", err)
		}

		pipe.RPush(ctx, longtermKey(workflowID), record)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to session %s: %w", sessionID, err)
	}

	return nil
}

// Close releases the redis connection.
func (g *RedisGateway) Close() error {
	return g.client.Close()
}
