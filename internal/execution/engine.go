package execution

import (
	"context"
	"time"

	copilot "github.com/github/copilot-sdk/go"
	"github.com/spboyer/pulse/internal/models"
)

// CompletionEngine is the boundary to the language model. Complete may block
// for the whole request timeout.
type CompletionEngine interface {
	// Initialize sets up the engine
	Initialize(ctx context.Context) error

	// Complete sends one prompt and waits for the model's reply
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Shutdown cleans up resources
	Shutdown(ctx context.Context) error
}

// CompletionRequest is a single prompt submission.
type CompletionRequest struct {
	SystemPrompt string
	Prompt       string
	ModelID      string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
}

// Params are the model parameters taken from configuration.
type Params struct {
	ModelID     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewRequest builds the request for an assembled payload.
func NewRequest(payload *models.PromptPayload, params Params) *CompletionRequest {
	return &CompletionRequest{
		SystemPrompt: payload.SystemInstructions,
		Prompt:       payload.Prompt,
		ModelID:      params.ModelID,
		Temperature:  params.Temperature,
		MaxTokens:    params.MaxTokens,
		Timeout:      params.Timeout,
	}
}

// CompletionResponse represents the result of a completion call
type CompletionResponse struct {
	Text       string
	Events     []copilot.SessionEvent
	ModelID    string
	DurationMs int64
	ErrorMsg   string
	Success    bool
}
