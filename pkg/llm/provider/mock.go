package provider

import (
	"context"
	"sync"
)

// MockProvider is a scripted provider for testing. Responses and
// errors are consumed in FIFO order; every request is recorded.
type MockProvider struct {
	name string

	// Responses to return for each call, in order.
	Responses []*MessageResponse

	// Errors to return; a non-nil entry at the current index is
	// returned instead of a response.
	Errors []error

	// Calls records every request received.
	Calls []MessageRequest

	mu           sync.Mutex
	currentIndex int
}

// NewMockProvider creates a new mock provider
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{name: name}
}

// Name returns the provider name
func (m *MockProvider) Name() string {
	return m.name
}

// CreateMessage implements Provider
func (m *MockProvider) CreateMessage(ctx context.Context, request MessageRequest) (*MessageResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, request)

	idx := m.currentIndex
	m.currentIndex++

	if idx < len(m.Errors) && m.Errors[idx] != nil {
		return nil, m.Errors[idx]
	}

	if idx < len(m.Responses) {
		return m.Responses[idx], nil
	}

	// Default response
	return &MessageResponse{
		StopReason: StopEndTurn,
		Content:    []ContentBlock{{Type: BlockText, Text: "Mock response"}},
		Usage:      Usage{InputTokens: 10, OutputTokens: 5},
	}, nil
}

// CallCount returns the number of calls received.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
