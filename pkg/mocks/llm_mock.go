package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fluxionhq/fluxion/pkg/llm"
)

// MockLLMClient is a mock implementation of the llm.Client interface.
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	args := m.Called(ctx, req)

	resp, _ := args.Get(0).(*llm.ChatResponse)

	return resp, args.Error(1)
}

func (m *MockLLMClient) Embed(ctx context.Context, text string) ([]float64, error) {
	args := m.Called(ctx, text)

	embedding, _ := args.Get(0).([]float64)

	return embedding, args.Error(1)
}
