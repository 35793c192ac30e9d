package models

import (
	"fmt"
	"strings"
	"time"
)

// Format is an output format for a rendered report.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Extension returns the file extension used for the format, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatHTML:
		return ".html"
	}
	return "." + string(f)
}

// ParseFormat parses a configured format name. "md" is accepted for markdown.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown output format %q (supported: markdown, html)", name)
}

// ArtifactOrigin records how an artifact's content was produced.
type ArtifactOrigin string

const (
	OriginRendered    ArtifactOrigin = "rendered"
	OriginCopyForward ArtifactOrigin = "copy-forward"
	OriginPlaceholder ArtifactOrigin = "placeholder"
)

// ReportArtifact is one persisted report file. It is written once and never
// modified afterwards.
type ReportArtifact struct {
	Format          Format         `json:"format"`
	Content         string         `json:"-"`
	DestinationPath string         `json:"destination_path"`
	GeneratedAt     time.Time      `json:"generated_at"`
	Origin          ArtifactOrigin `json:"origin"`

	// CopiedFrom is the prior artifact path for copy-forward artifacts.
	CopiedFrom string `json:"copied_from,omitempty"`
}
