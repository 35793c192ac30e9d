package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spboyer/pulse/internal/models"
	"github.com/spboyer/pulse/internal/sources"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// Ingester produces the normalized block for one source.
type Ingester interface {
	Ingest(ctx context.Context) (models.NormalizedBlock, error)
}

// AdapterFactory builds the ingester for a descriptor.
type AdapterFactory func(desc models.SourceDescriptor) Ingester

func defaultFactory(desc models.SourceDescriptor) Ingester {
	return sources.New(desc)
}

// Orchestrator drives the enabled source adapters and collects one block per
// enabled source, in configuration order.
type Orchestrator struct {
	newAdapter AdapterFactory
	parallel   bool
	workers    int

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventIngestStart    EventType = "ingest_start"
	EventIngestComplete EventType = "ingest_complete"
	EventSourceStart    EventType = "source_start"
	EventSourceComplete EventType = "source_complete"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType   EventType
	SourceName  string
	SourceNum   int
	Total       int
	Status      models.BlockStatus
	Records     int
	ErrorDetail string
	DurationMs  int64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithParallel ingests up to workers sources at a time. workers <= 0 uses the default.
func WithParallel(workers int) Option {
	return func(o *Orchestrator) {
		o.parallel = true
		if workers > 0 {
			o.workers = workers
		}
	}
}

// WithAdapterFactory replaces the adapter constructor, mostly for tests.
func WithAdapterFactory(f AdapterFactory) Option {
	return func(o *Orchestrator) {
		o.newAdapter = f
	}
}

// New creates an orchestrator that ingests sequentially unless WithParallel is given.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		newAdapter: defaultFactory,
		workers:    defaultWorkers,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OnProgress registers a progress listener
func (o *Orchestrator) OnProgress(listener ProgressListener) {
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	o.listeners = append(o.listeners, listener)
}

func (o *Orchestrator) notifyProgress(event ProgressEvent) {
	o.progressMu.Lock()
	listeners := make([]ProgressListener, len(o.listeners))
	copy(listeners, o.listeners)
	o.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Run ingests every enabled descriptor and returns exactly one block per
// enabled descriptor in the order given. Disabled descriptors produce nothing.
// A failing adapter yields a failed block; Run itself never fails.
func (o *Orchestrator) Run(ctx context.Context, descs []models.SourceDescriptor) []models.NormalizedBlock {
	enabled := make([]models.SourceDescriptor, 0, len(descs))
	for _, d := range descs {
		if d.Enabled {
			enabled = append(enabled, d)
		} else {
			slog.Debug("source disabled", "source", d.Name)
		}
	}

	start := time.Now()
	o.notifyProgress(ProgressEvent{EventType: EventIngestStart, Total: len(enabled)})

	var blocks []models.NormalizedBlock
	if o.parallel && len(enabled) > 1 {
		blocks = o.runConcurrent(ctx, enabled)
	} else {
		blocks = o.runSequential(ctx, enabled)
	}

	o.notifyProgress(ProgressEvent{
		EventType:  EventIngestComplete,
		Total:      len(enabled),
		DurationMs: time.Since(start).Milliseconds(),
	})
	return blocks
}

func (o *Orchestrator) runSequential(ctx context.Context, descs []models.SourceDescriptor) []models.NormalizedBlock {
	blocks := make([]models.NormalizedBlock, 0, len(descs))
	for i, d := range descs {
		blocks = append(blocks, o.runSource(ctx, d, i+1, len(descs)))
	}
	return blocks
}

// runConcurrent writes each result into its descriptor's slot so the output
// keeps configuration order regardless of completion order.
func (o *Orchestrator) runConcurrent(ctx context.Context, descs []models.SourceDescriptor) []models.NormalizedBlock {
	blocks := make([]models.NormalizedBlock, len(descs))

	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, d := range descs {
		g.Go(func() error {
			blocks[i] = o.runSource(ctx, d, i+1, len(descs))
			return nil
		})
	}
	_ = g.Wait()
	return blocks
}

func (o *Orchestrator) runSource(ctx context.Context, desc models.SourceDescriptor, num, total int) models.NormalizedBlock {
	o.notifyProgress(ProgressEvent{
		EventType:  EventSourceStart,
		SourceName: desc.Name,
		SourceNum:  num,
		Total:      total,
	})

	start := time.Now()
	block := o.ingest(ctx, desc)
	duration := time.Since(start)

	attrs := []any{"source", block.SourceName, "kind", string(desc.Kind), "status", string(block.Status), "records", block.Records}
	if block.Status == models.BlockStatusFailed {
		slog.Warn("source ingested", append(attrs, "error", block.ErrorDetail)...)
	} else {
		slog.Info("source ingested", attrs...)
	}

	o.notifyProgress(ProgressEvent{
		EventType:   EventSourceComplete,
		SourceName:  block.SourceName,
		SourceNum:   num,
		Total:       total,
		Status:      block.Status,
		Records:     block.Records,
		ErrorDetail: block.ErrorDetail,
		DurationMs:  duration.Milliseconds(),
	})
	return block
}

// ingest runs one adapter, converting errors and panics into a failed block.
func (o *Orchestrator) ingest(ctx context.Context, desc models.SourceDescriptor) (block models.NormalizedBlock) {
	defer func() {
		if r := recover(); r != nil {
			block = models.FailedBlock(desc, fmt.Sprintf("adapter panic: %v", r))
		}
	}()

	b, err := o.newAdapter(desc).Ingest(ctx)
	if err != nil {
		return models.FailedBlock(desc, err.Error())
	}
	b.SourceName = desc.Name
	if b.Kind == "" {
		b.Kind = desc.Kind
	}
	return b
}

// Summary counts blocks by status.
type Summary struct {
	OK     int
	Empty  int
	Failed int
}

// Summarize counts blocks by status.
func Summarize(blocks []models.NormalizedBlock) Summary {
	var s Summary
	for _, b := range blocks {
		switch b.Status {
		case models.BlockStatusOK:
			s.OK++
		case models.BlockStatusEmpty:
			s.Empty++
		case models.BlockStatusFailed:
			s.Failed++
		}
	}
	return s
}
