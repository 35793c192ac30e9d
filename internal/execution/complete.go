package execution

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spboyer/pulse/internal/models"
)

// Complete runs req through engine and folds every failure mode (returned
// errors, unsuccessful responses, blank replies) into a failed
// CompletionResult. It never returns an error.
func Complete(ctx context.Context, engine CompletionEngine, req *CompletionRequest) models.CompletionResult {
	start := time.Now()
	resp, err := engine.Complete(ctx, req)

	result := models.CompletionResult{ModelID: req.ModelID}
	if resp != nil && resp.ModelID != "" {
		result.ModelID = resp.ModelID
	}

	var cerr *models.CompletionError
	switch {
	case err != nil:
		if errors.As(err, &cerr) {
			break
		}
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "completion timed out after " + req.Timeout.String()
		}
		cerr = &models.CompletionError{Reason: reason, Err: err}
	case resp == nil:
		cerr = &models.CompletionError{Reason: "engine returned no response"}
	case !resp.Success:
		reason := resp.ErrorMsg
		if reason == "" {
			reason = sessionFailedUnknown
		}
		cerr = &models.CompletionError{Reason: reason}
	case strings.TrimSpace(resp.Text) == "":
		cerr = &models.CompletionError{Reason: "model returned an empty response"}
	}

	if resp != nil && resp.DurationMs > 0 {
		result.DurationMs = resp.DurationMs
	} else {
		result.DurationMs = time.Since(start).Milliseconds()
	}

	if cerr != nil {
		result.Status = models.CompletionFailure
		result.FailureReason = cerr.Reason
		slog.Warn("completion failed", "model", result.ModelID, "duration_ms", result.DurationMs, "error", cerr)
		return result
	}

	result.Status = models.CompletionSuccess
	result.RawText = strings.TrimSpace(resp.Text)
	slog.Info("completion received", "model", result.ModelID, "duration_ms", result.DurationMs, "chars", len(result.RawText))
	return result
}
