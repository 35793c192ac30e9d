package models

import (
	"path/filepath"
	"strings"
	"time"
)

// SourceKind identifies which adapter variant handles a source.
type SourceKind string

const (
	SourceKindNotes   SourceKind = "notes"
	SourceKindTracker SourceKind = "tracker"
	SourceKindChat    SourceKind = "chat"
	SourceKindCSV     SourceKind = "csv"
)

// Valid reports whether k is one of the known source kinds.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceKindNotes, SourceKindTracker, SourceKindChat, SourceKindCSV:
		return true
	}
	return false
}

// InferSourceKind guesses a kind from a file extension. JSON exports are
// ambiguous between tracker and chat, so they return false.
func InferSourceKind(location string) (SourceKind, bool) {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".txt", ".md", ".markdown":
		return SourceKindNotes, true
	case ".csv":
		return SourceKindCSV, true
	}
	return "", false
}

// SourceDescriptor describes one configured data source. It is created from
// configuration and not modified during a run.
type SourceDescriptor struct {
	Name     string         `json:"name"`
	Enabled  bool           `json:"enabled"`
	Location string         `json:"location"`
	Kind     SourceKind     `json:"kind"`
	Options  map[string]any `json:"options,omitempty"`
}

// BlockStatus is the ingestion outcome for a single source.
type BlockStatus string

const (
	BlockStatusOK     BlockStatus = "ok"
	BlockStatusEmpty  BlockStatus = "empty"
	BlockStatusFailed BlockStatus = "failed"
)

// NormalizedBlock is the per-source unit of ingested, attributed text. Every
// enabled source produces exactly one, including sources that failed.
type NormalizedBlock struct {
	SourceName  string      `json:"source_name"`
	Kind        SourceKind  `json:"kind"`
	Text        string      `json:"text"`
	Status      BlockStatus `json:"status"`
	ErrorDetail string      `json:"error_detail,omitempty"`

	// Records is the number of tickets, threads, rows or lines the adapter saw.
	Records int `json:"records"`

	// ModifiedAt is the modification time of the underlying export, zero when unknown.
	ModifiedAt time.Time `json:"modified_at,omitzero"`
}

// Usable reports whether the block contributes text to the prompt.
func (b NormalizedBlock) Usable() bool {
	return b.Status == BlockStatusOK && b.Text != ""
}

// FailedBlock builds the block recorded for a source whose ingestion failed.
func FailedBlock(desc SourceDescriptor, detail string) NormalizedBlock {
	return NormalizedBlock{
		SourceName:  desc.Name,
		Kind:        desc.Kind,
		Status:      BlockStatusFailed,
		ErrorDetail: detail,
	}
}

// FreshestModification returns the newest ModifiedAt across usable blocks.
func FreshestModification(blocks []NormalizedBlock) time.Time {
	var newest time.Time
	for _, b := range blocks {
		if b.Usable() && b.ModifiedAt.After(newest) {
			newest = b.ModifiedAt
		}
	}
	return newest
}
