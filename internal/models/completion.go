package models

// CompletionStatus is the outcome of the completion call.
type CompletionStatus string

const (
	CompletionSuccess CompletionStatus = "success"
	CompletionFailure CompletionStatus = "failure"
)

// CompletionResult is what the completion boundary hands to the renderer.
type CompletionResult struct {
	RawText       string           `json:"raw_text,omitempty"`
	Status        CompletionStatus `json:"status"`
	FailureReason string           `json:"failure_reason,omitempty"`
	ModelID       string           `json:"model_id,omitempty"`
	DurationMs    int64            `json:"duration_ms"`
	Cached        bool             `json:"cached,omitempty"`
}

// Succeeded reports whether the result carries usable text.
func (r CompletionResult) Succeeded() bool {
	return r.Status == CompletionSuccess
}
