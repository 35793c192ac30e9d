// Package report turns one completion result into persisted report artifacts,
// falling back to the last good report or a setup placeholder when the model
// call fails.
package report

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spboyer/pulse/internal/models"
)

// State is the renderer's position in its lifecycle.
type State string

const (
	StateAwaitingResult State = "awaiting_result"
	StateRendered       State = "rendered"
	StateDegraded       State = "degraded"
	StateFailed         State = "failed"
)

// Metadata describes the run an artifact belongs to.
type Metadata struct {
	Title       string
	RunID       string
	RunDate     time.Time
	GeneratedAt time.Time
	DataAsOf    time.Time
	Sources     []string
	ModelID     string

	// CredentialEnv names the credential variable shown in placeholder setup steps.
	CredentialEnv string
}

// Outcome is the result of a Render call.
type Outcome struct {
	State     State
	Artifacts []models.ReportArtifact

	// Reason explains a degraded render.
	Reason string

	// FormatErrors holds per-format failures that did not stop the run.
	FormatErrors []error
}

// Renderer renders one completion result for one run. It is single use.
type Renderer struct {
	store    *Store
	formats  []models.Format
	contract models.OutputContract
	meta     Metadata
	state    State
}

// NewRenderer returns a renderer in the awaiting-result state.
func NewRenderer(store *Store, formats []models.Format, contract models.OutputContract, meta Metadata) *Renderer {
	return &Renderer{
		store:    store,
		formats:  formats,
		contract: contract,
		meta:     meta,
		state:    StateAwaitingResult,
	}
}

// State returns the current state.
func (r *Renderer) State() State {
	return r.state
}

func (r *Renderer) transition(to State, attrs ...any) {
	slog.Info("renderer state", append([]any{"from", string(r.state), "to", string(to)}, attrs...)...)
	r.state = to
}

// Render persists one artifact per configured format. The returned error is
// non-nil only when the renderer ends in StateFailed: a degraded placeholder
// could not be written, or no fresh format could be written at all.
func (r *Renderer) Render(result models.CompletionResult) (*Outcome, error) {
	if r.state != StateAwaitingResult {
		return nil, fmt.Errorf("renderer already used (state %s)", r.state)
	}
	if result.ModelID != "" {
		r.meta.ModelID = result.ModelID
	}

	if !result.Succeeded() {
		reason := result.FailureReason
		if reason == "" {
			reason = "completion failed"
		}
		return r.degrade(reason)
	}

	parsed := Parse(result.RawText, r.contract)
	if missing := parsed.MissingRequired(r.contract); len(missing) > 0 {
		return r.degrade("response missing required section(s): " + strings.Join(missing, ", "))
	}
	return r.renderFresh(parsed)
}

func (r *Renderer) renderFresh(parsed ParsedReport) (*Outcome, error) {
	outcome := &Outcome{}
	for _, f := range r.formats {
		var (
			content string
			err     error
		)
		switch f {
		case models.FormatMarkdown:
			content, err = renderMarkdown(parsed, r.meta)
		case models.FormatHTML:
			content, err = renderHTML(parsed, r.contract, r.meta)
		default:
			err = fmt.Errorf("unsupported format")
		}
		if err == nil {
			var art models.ReportArtifact
			art, err = r.persist(f, content, models.OriginRendered, "")
			if err == nil {
				outcome.Artifacts = append(outcome.Artifacts, art)
				continue
			}
		}
		rerr := &models.RenderError{Format: f, Err: err}
		slog.Error("format failed", "format", string(f), "error", err)
		outcome.FormatErrors = append(outcome.FormatErrors, rerr)
	}

	if len(outcome.Artifacts) == 0 {
		r.transition(StateFailed, "reason", "no format could be written")
		outcome.State = r.state
		return outcome, errors.Join(outcome.FormatErrors...)
	}
	r.transition(StateRendered, "artifacts", len(outcome.Artifacts))
	outcome.State = r.state
	return outcome, nil
}

// degrade copies the newest prior artifact forward per format, or writes a
// placeholder when there is none.
func (r *Renderer) degrade(reason string) (*Outcome, error) {
	r.transition(StateDegraded, "reason", reason)
	outcome := &Outcome{State: StateDegraded, Reason: reason}

	for _, f := range r.formats {
		art, err := r.copyForward(f)
		if err != nil {
			slog.Warn("copy-forward failed, writing placeholder", "format", string(f), "error", err)
			outcome.FormatErrors = append(outcome.FormatErrors, &models.RenderError{Format: f, Err: err})
		}
		if art == nil {
			art, err = r.placeholder(f, reason)
			if err != nil {
				rerr := &models.RenderError{Format: f, Err: err}
				outcome.FormatErrors = append(outcome.FormatErrors, rerr)
				r.transition(StateFailed, "format", string(f), "error", err)
				outcome.State = r.state
				return outcome, rerr
			}
		}
		outcome.Artifacts = append(outcome.Artifacts, *art)
	}
	return outcome, nil
}

func (r *Renderer) copyForward(f models.Format) (*models.ReportArtifact, error) {
	prior, err := r.store.Latest(f, r.meta.RunDate)
	if err != nil || prior == nil {
		return nil, err
	}

	dest := r.store.Path(f, r.meta.RunDate)
	if prior.DestinationPath == dest {
		// This run date already has a good artifact; keep it.
		prior.Origin = models.OriginCopyForward
		prior.CopiedFrom = dest
		return prior, nil
	}

	art, err := r.persist(f, prior.Content, models.OriginCopyForward, prior.DestinationPath)
	if err != nil {
		return nil, err
	}
	slog.Info("copied prior artifact forward", "format", string(f), "from", prior.DestinationPath, "to", art.DestinationPath)
	return &art, nil
}

func (r *Renderer) placeholder(f models.Format, reason string) (*models.ReportArtifact, error) {
	var (
		content string
		err     error
	)
	switch f {
	case models.FormatMarkdown:
		content, err = renderMarkdownPlaceholder(r.meta, reason)
	case models.FormatHTML:
		content, err = renderHTMLPlaceholder(r.meta, reason)
	default:
		err = fmt.Errorf("unsupported format")
	}
	if err != nil {
		return nil, err
	}
	art, err := r.persist(f, content, models.OriginPlaceholder, "")
	if err != nil {
		return nil, err
	}
	return &art, nil
}

func (r *Renderer) persist(f models.Format, content string, origin models.ArtifactOrigin, copiedFrom string) (models.ReportArtifact, error) {
	path, err := r.store.Write(f, r.meta.RunDate, content)
	if err != nil {
		return models.ReportArtifact{}, err
	}
	slog.Info("artifact written", "format", string(f), "path", path, "origin", string(origin))
	return models.ReportArtifact{
		Format:          f,
		Content:         content,
		DestinationPath: path,
		GeneratedAt:     r.meta.GeneratedAt,
		Origin:          origin,
		CopiedFrom:      copiedFrom,
	}, nil
}
