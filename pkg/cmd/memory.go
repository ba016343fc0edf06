package cmd

import (
	"context"
	"fmt"

	"github.com/fluxionhq/fluxion/pkg/memory"
)

// NewMemoryGateway builds the session memory backend. An empty redis address
// selects the in-process gateway.
func NewMemoryGateway(ctx context.Context, redisAddr string) (memory.Gateway, error) {
	if redisAddr == "" {
		return memory.NewInMemoryGateway(0), nil
	}

	gateway, err := memory.NewRedisGateway(ctx, memory.Config{Addr: redisAddr})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis memory gateway: %w", err)
	}

	return gateway, nil
}
