// Package providertest provides a testify mock of provider.Provider.
package providertest

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/tsanders/estimate-ai/pkg/provider"
)

// MockProvider is a mock.Mock backed provider. Expectations match on the
// request Label via ForLabel, or on the whole request.
type MockProvider struct {
	mock.Mock

	mu       sync.Mutex
	requests []provider.CompletionRequest
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Complete(ctx context.Context, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	args := m.Called(ctx, req)
	var resp *provider.CompletionResponse
	if r := args.Get(0); r != nil {
		resp = r.(*provider.CompletionResponse)
	}
	return resp, args.Error(1)
}

// Requests returns every request received so far.
func (m *MockProvider) Requests() []provider.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]provider.CompletionRequest(nil), m.requests...)
}

// Reply expects one call with the given label and answers it with text.
func (m *MockProvider) Reply(label, text string) *mock.Call {
	return m.On("Complete", mock.Anything, ForLabel(label)).
		Return(&provider.CompletionResponse{Text: text, TokensUsed: 10}, nil)
}

// Fail expects one call with the given label and fails it.
func (m *MockProvider) Fail(label string, err error) *mock.Call {
	return m.On("Complete", mock.Anything, ForLabel(label)).Return(nil, err)
}

// ForLabel matches a CompletionRequest by Label.
func ForLabel(label string) interface{} {
	return mock.MatchedBy(func(req provider.CompletionRequest) bool {
		return req.Label == label
	})
}
