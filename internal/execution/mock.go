package execution

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

// DefaultMockResponse is returned by a MockEngine with no configured reply.
const DefaultMockResponse = `### 1. AT-A-GLANCE DASHBOARD
| Area | Status | Key Metric | Trend |
|---|---|---|---|
| Platform | 🟢 On Track | — | — |

> Mock engine response: no model was called.`

// MockEngine returns canned replies without calling a model.
type MockEngine struct {
	modelID      string
	response     string
	responseFile string
	failure      string

	mu       sync.Mutex
	requests []CompletionRequest
}

// MockOption configures a MockEngine.
type MockOption func(*MockEngine)

// WithMockResponse sets the reply text.
func WithMockResponse(text string) MockOption {
	return func(m *MockEngine) { m.response = text }
}

// WithMockResponseFile reads the reply from path on every call.
func WithMockResponseFile(path string) MockOption {
	return func(m *MockEngine) { m.responseFile = path }
}

// WithMockFailure makes every call fail with reason.
func WithMockFailure(reason string) MockOption {
	return func(m *MockEngine) { m.failure = reason }
}

// NewMockEngine creates a new mock engine
func NewMockEngine(modelID string, opts ...MockOption) *MockEngine {
	m := &MockEngine{modelID: modelID}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *MockEngine) Initialize(ctx context.Context) error {
	return nil
}

func (m *MockEngine) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil req was passed to MockEngine.Complete")
	}
	start := time.Now()

	m.mu.Lock()
	m.requests = append(m.requests, *req)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	modelID := m.modelID
	if req.ModelID != "" {
		modelID = req.ModelID
	}

	resp := &CompletionResponse{ModelID: modelID}
	switch {
	case m.failure != "":
		resp.ErrorMsg = m.failure
	case m.responseFile != "":
		data, err := os.ReadFile(m.responseFile)
		if err != nil {
			return nil, fmt.Errorf("reading mock response: %w", err)
		}
		resp.Text = string(data)
		resp.Success = true
	case m.response != "":
		resp.Text = m.response
		resp.Success = true
	default:
		resp.Text = DefaultMockResponse
		resp.Success = true
	}
	resp.DurationMs = time.Since(start).Milliseconds()
	return resp, nil
}

// Requests returns a copy of every request the engine received.
func (m *MockEngine) Requests() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockEngine) Shutdown(ctx context.Context) error {
	return nil
}
