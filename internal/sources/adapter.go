// Package sources turns pre-exported project-status files into normalized,
// attributed prompt text. One Adapter handles every kind; the descriptor's
// kind selects the normalizer.
package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spboyer/pulse/internal/models"
)

// Adapter ingests a single source described by a SourceDescriptor.
type Adapter struct {
	desc models.SourceDescriptor
}

// New returns the adapter for desc.
func New(desc models.SourceDescriptor) *Adapter {
	return &Adapter{desc: desc}
}

// Descriptor returns the descriptor the adapter was built from.
func (a *Adapter) Descriptor() models.SourceDescriptor {
	return a.desc
}

// Ingest reads the export and normalizes it into a block.
//
// Missing files, malformed exports and empty content come back as a block with
// status failed or empty and a nil error. A non-nil error is reserved for
// conditions the adapter cannot classify, such as a permission failure while
// inspecting the file; the orchestrator converts those into failed blocks too.
func (a *Adapter) Ingest(ctx context.Context) (models.NormalizedBlock, error) {
	block := models.NormalizedBlock{
		SourceName: a.desc.Name,
		Kind:       a.desc.Kind,
	}

	if err := ctx.Err(); err != nil {
		return block, err
	}

	if a.desc.Location == "" {
		return a.failed(block, "no path configured"), nil
	}

	info, err := os.Stat(a.desc.Location)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return a.failed(block, fmt.Sprintf("file not found: %s", a.desc.Location)), nil
	case err != nil:
		return block, &models.SourceError{Source: a.desc.Name, Err: err}
	case info.IsDir():
		return a.failed(block, fmt.Sprintf("%s is a directory, expected an exported file", a.desc.Location)), nil
	}

	raw, err := os.ReadFile(a.desc.Location)
	if err != nil {
		return block, &models.SourceError{Source: a.desc.Name, Err: err}
	}

	block.ModifiedAt = info.ModTime().UTC()

	if len(bytes.TrimSpace(raw)) == 0 {
		block.Status = models.BlockStatusEmpty
		block.ErrorDetail = "no content"
		return block, nil
	}

	text, records, err := a.normalize(raw)
	if err != nil {
		return a.failed(block, err.Error()), nil
	}

	block.Records = records
	if text == "" {
		block.Status = models.BlockStatusEmpty
		block.ErrorDetail = "no records"
		return block, nil
	}

	block.Text = text
	block.Status = models.BlockStatusOK
	return block, nil
}

// FormatForPrompt normalizes a raw export into prompt text. The output depends
// only on raw and the descriptor's kind and options.
func (a *Adapter) FormatForPrompt(raw []byte) (string, error) {
	text, _, err := a.normalize(raw)
	return text, err
}

func (a *Adapter) normalize(raw []byte) (string, int, error) {
	switch a.desc.Kind {
	case models.SourceKindNotes:
		text, lines := formatNotes(raw)
		return text, lines, nil
	case models.SourceKindTracker:
		var opts TrackerOptions
		if err := decodeOptions(a.desc.Options, &opts); err != nil {
			return "", 0, err
		}
		return formatTracker(raw, opts.withDefaults())
	case models.SourceKindChat:
		var opts ChatOptions
		if err := decodeOptions(a.desc.Options, &opts); err != nil {
			return "", 0, err
		}
		return formatChat(raw, opts)
	case models.SourceKindCSV:
		var opts TableOptions
		if err := decodeOptions(a.desc.Options, &opts); err != nil {
			return "", 0, err
		}
		return formatTable(raw, a.desc.Location, opts)
	default:
		return "", 0, fmt.Errorf("unsupported source kind %q", a.desc.Kind)
	}
}

func (a *Adapter) failed(block models.NormalizedBlock, detail string) models.NormalizedBlock {
	slog.Debug("Source ingestion failed", "source", a.desc.Name, "kind", a.desc.Kind, "error", detail)
	block.Status = models.BlockStatusFailed
	block.ErrorDetail = detail
	block.Text = ""
	return block
}
