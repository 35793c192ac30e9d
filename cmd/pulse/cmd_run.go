package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spboyer/pulse/internal/models"
	"github.com/spboyer/pulse/internal/orchestration"
	"github.com/spboyer/pulse/internal/pipeline"
	"github.com/spboyer/pulse/internal/projectconfig"
	"github.com/spboyer/pulse/internal/report"
	"github.com/spboyer/pulse/internal/spinner"
	"github.com/spf13/cobra"
)

// runOptions are the command-line overrides for a run.
type runOptions struct {
	parallel  bool
	workers   int
	engine    string
	model     string
	useCache  bool
	date      string
	outputDir string
}

func (o *runOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.parallel, "parallel", false, "Ingest sources concurrently")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "Number of concurrent ingestion workers (default: 4, requires --parallel)")
	cmd.Flags().StringVar(&o.engine, "engine", "", "Completion engine: copilot-sdk or mock (overrides ai.engine)")
	cmd.Flags().StringVar(&o.model, "model", "", "Model to use (overrides ai.model)")
	cmd.Flags().BoolVar(&o.useCache, "cache", false, "Reuse a cached completion for an identical prompt")
	cmd.Flags().StringVar(&o.date, "date", "", "Run date used in artifact names, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVarP(&o.outputDir, "output-dir", "o", "", "Directory for rendered reports (overrides output.dir)")
}

func newRunCommand(configPath *string) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate this week's report",
		Long: `Ingest every enabled source, ask the model for the executive summary, and
render one artifact per configured output format.

A failed model call still produces a report: the most recent earlier report
is copied forward, or a placeholder with setup steps is written. The command
exits non-zero only for configuration errors or when nothing can be written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.execute(cmd, *configPath)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

// apply overlays the flags onto cfg.
func (o *runOptions) apply(cfg *projectconfig.ProjectConfig) error {
	if o.parallel {
		parallel := true
		cfg.Ingestion.Parallel = &parallel
	}
	if o.workers > 0 {
		cfg.Ingestion.Workers = o.workers
	}
	if o.engine != "" {
		cfg.AI.Engine = o.engine
	}
	if o.model != "" {
		cfg.AI.Model = o.model
	}
	if o.outputDir != "" {
		abs, err := filepath.Abs(o.outputDir)
		if err != nil {
			return fmt.Errorf("resolving output directory: %w", err)
		}
		cfg.Output.Dir = abs
	}
	return nil
}

func (o *runOptions) pipelineOptions(cmd *cobra.Command) ([]pipeline.Option, error) {
	out := cmd.OutOrStdout()
	opts := []pipeline.Option{
		pipeline.WithCache(o.useCache),
		pipeline.WithProgress(progressListener(out)),
	}
	if o.date != "" {
		date, err := time.Parse(report.DateLayout, o.date)
		if err != nil {
			return nil, models.NewConfigurationError("--date", "%q is not a YYYY-MM-DD date", o.date)
		}
		opts = append(opts, pipeline.WithRunDate(date))
	}
	if errOut := cmd.ErrOrStderr(); spinner.Enabled(errOut) {
		opts = append(opts, pipeline.WithStatusWriter(errOut))
	}
	return opts, nil
}

func (o *runOptions) execute(cmd *cobra.Command, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := o.apply(cfg); err != nil {
		return err
	}
	opts, err := o.pipelineOptions(cmd)
	if err != nil {
		return err
	}

	result, err := pipeline.New(cfg, opts...).Run(cmd.Context())
	if result != nil && result.Outcome != nil {
		printOutcome(cmd.OutOrStdout(), result)
	}
	return err
}

func progressListener(w io.Writer) orchestration.ProgressListener {
	return func(event orchestration.ProgressEvent) {
		switch event.EventType {
		case orchestration.EventIngestStart:
			fmt.Fprintf(w, "Ingesting %d source(s)...\n", event.Total) //nolint:errcheck
		case orchestration.EventSourceComplete:
			switch event.Status {
			case models.BlockStatusOK:
				fmt.Fprintf(w, "✓ [%d/%d] %s (%d records)\n", event.SourceNum, event.Total, event.SourceName, event.Records) //nolint:errcheck
			case models.BlockStatusEmpty:
				fmt.Fprintf(w, "- [%d/%d] %s: empty\n", event.SourceNum, event.Total, event.SourceName) //nolint:errcheck
			default:
				fmt.Fprintf(w, "✗ [%d/%d] %s: %s\n", event.SourceNum, event.Total, event.SourceName, event.ErrorDetail) //nolint:errcheck
			}
		}
	}
}

func printOutcome(w io.Writer, result *pipeline.Result) {
	outcome := result.Outcome
	date := result.RunDate.Format(report.DateLayout)

	switch outcome.State {
	case report.StateRendered:
		source := "model"
		if result.Completion.Cached {
			source = "cache"
		}
		fmt.Fprintf(w, "\nReport rendered for %s (from %s):\n", date, source) //nolint:errcheck
	case report.StateDegraded:
		fmt.Fprintf(w, "\nReport degraded for %s: %s\n", date, outcome.Reason) //nolint:errcheck
	case report.StateFailed:
		fmt.Fprintf(w, "\nReport failed for %s\n", date) //nolint:errcheck
	}
	for _, art := range outcome.Artifacts {
		fmt.Fprintf(w, "  %s [%s]\n", art.DestinationPath, art.Origin) //nolint:errcheck
	}
	for _, ferr := range outcome.FormatErrors {
		fmt.Fprintf(w, "  ✗ %v\n", ferr) //nolint:errcheck
	}
}
