// Package prompt assembles the single completion request for a run from the
// normalized source blocks and the report's output contract.
package prompt

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spboyer/pulse/internal/models"
	"github.com/spboyer/pulse/internal/template"
	"github.com/spboyer/pulse/internal/tokens"
)

// SystemInstructions is the system message sent with every request.
const SystemInstructions = "You are an expert Technical Program Manager who creates crisp, actionable executive summaries."

const blockSeparator = "\n\n"

//go:embed prompt.tmpl
var promptTemplate string

// ReportConfig is the immutable report configuration handed to the assembler.
type ReportConfig struct {
	Title         string
	Sections      []string
	Stakeholders  []string
	MaxHighlights int
	MaxPriorities int

	// TokenBudget caps the aggregated context. Zero disables the cap.
	TokenBudget int

	Vocabulary models.Vocabulary
}

// Assembler builds prompt payloads. It holds no per-run state.
type Assembler struct {
	counter tokens.Counter
}

// NewAssembler returns an assembler that measures the context with counter.
func NewAssembler(counter tokens.Counter) *Assembler {
	return &Assembler{counter: counter}
}

// AttributionHeader is the separator line placed above each source's text.
func AttributionHeader(sourceName string) string {
	return "=== " + sourceName + " ==="
}

// Assemble merges the usable blocks, in the order given, into one payload.
// It returns a *models.ConfigurationError when no sections are configured or
// no block has usable text.
func (a *Assembler) Assemble(blocks []models.NormalizedBlock, cfg ReportConfig) (*models.PromptPayload, error) {
	contract, err := BuildContract(cfg)
	if err != nil {
		return nil, err
	}

	var usable []models.NormalizedBlock
	for _, b := range blocks {
		if b.Usable() {
			usable = append(usable, b)
			continue
		}
		slog.Info("source omitted from context", "source", b.SourceName, "status", string(b.Status), "error", b.ErrorDetail)
	}
	if len(usable) == 0 {
		return nil, models.NewConfigurationError("sources", "no usable source data: every source is disabled, empty or failed")
	}

	context, included, dropped := a.fitBudget(usable, cfg.TokenBudget)
	if len(included) == 0 {
		return nil, models.NewConfigurationError("output.token_budget",
			"budget of %d tokens cannot fit the first source %q", cfg.TokenBudget, usable[0].SourceName)
	}

	data := struct {
		Title    string
		Context  string
		Sections []models.Section
	}{
		Title:    cfg.Title,
		Context:  context,
		Sections: contract.Sections,
	}
	body, err := template.Render(promptTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	payload := &models.PromptPayload{
		SystemInstructions: SystemInstructions,
		AggregatedContext:  context,
		OutputContract:     contract,
		Constraints: models.Constraints{
			MaxHighlights: cfg.MaxHighlights,
			MaxPriorities: cfg.MaxPriorities,
			TokenBudget:   cfg.TokenBudget,
		},
		Prompt:        body,
		ContextTokens: a.counter.Count(context),
	}
	var kept []models.NormalizedBlock
	for _, b := range usable[:len(included)] {
		payload.IncludedSources = append(payload.IncludedSources, b.SourceName)
		kept = append(kept, b)
	}
	payload.DroppedSources = dropped
	payload.DataAsOf = models.FreshestModification(kept)

	slog.Info("prompt assembled",
		"included", len(payload.IncludedSources),
		"dropped", len(dropped),
		"context_tokens", payload.ContextTokens,
		"budget", cfg.TokenBudget)
	return payload, nil
}

// fitBudget concatenates blocks until the next one would exceed budget. The
// block that does not fit and every block after it are dropped whole.
func (a *Assembler) fitBudget(blocks []models.NormalizedBlock, budget int) (string, []string, []string) {
	var (
		sb       strings.Builder
		included []string
		dropped  []string
	)
	for i, b := range blocks {
		chunk := AttributionHeader(b.SourceName) + "\n" + b.Text
		candidate := chunk
		if sb.Len() > 0 {
			candidate = sb.String() + blockSeparator + chunk
		}
		if budget > 0 && a.counter.Count(candidate) > budget {
			for _, rest := range blocks[i:] {
				dropped = append(dropped, rest.SourceName)
			}
			slog.Warn("context truncated at block boundary",
				"budget", budget,
				"first_dropped", b.SourceName,
				"dropped", len(dropped))
			break
		}
		sb.Reset()
		sb.WriteString(candidate)
		included = append(included, b.SourceName)
	}
	return sb.String(), included, dropped
}
