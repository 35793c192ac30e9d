package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spboyer/pulse/internal/models"
	"github.com/spboyer/pulse/internal/pipeline"
	"github.com/spf13/cobra"
)

func newCheckCommand(configPath *string) *cobra.Command {
	var showPrompt bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and dry-run ingestion",
		Long: `Validate pulse.yaml, ingest every enabled source and assemble the prompt
without calling the model.

Prints one row per source with its ingestion status, the context size against
the token budget, and whether the credential for the configured engine is set.
Use --prompt to print the assembled prompt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkCommandE(cmd, *configPath, showPrompt)
		},
	}

	cmd.Flags().BoolVar(&showPrompt, "prompt", false, "Print the assembled prompt")

	return cmd
}

func checkCommandE(cmd *cobra.Command, configPath string, showPrompt bool) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Path != "" {
		fmt.Fprintf(out, "Config: %s\n\n", cfg.Path) //nolint:errcheck
	} else {
		fmt.Fprintf(out, "Config: no pulse.yaml found, using defaults\n\n") //nolint:errcheck
	}

	p := pipeline.New(cfg)
	prepared, err := p.Prepare(cmd.Context())
	if prepared != nil {
		printSourceTable(out, prepared.Blocks)
	}
	if err != nil {
		return err
	}

	payload := prepared.Payload
	fmt.Fprintf(out, "\nContext: %d of %d tokens (%s counter)\n", payload.ContextTokens, cfg.Output.TokenBudget, cfg.Output.TokenCounter) //nolint:errcheck
	if len(payload.DroppedSources) > 0 {
		fmt.Fprintf(out, "⚠️  Dropped by the token budget: %s\n", strings.Join(payload.DroppedSources, ", ")) //nolint:errcheck
	}
	sectionIDs := make([]string, len(payload.OutputContract.Sections))
	for i, s := range payload.OutputContract.Sections {
		sectionIDs[i] = s.ID
	}
	fmt.Fprintf(out, "Sections: %s\n", strings.Join(sectionIDs, ", ")) //nolint:errcheck

	if err := p.CheckCredentials(); err != nil {
		fmt.Fprintf(out, "⚠️  %v\n", err) //nolint:errcheck
	} else {
		fmt.Fprintf(out, "Engine: %s (%s)\n", cfg.AI.Engine, cfg.AI.Model) //nolint:errcheck
	}

	if showPrompt {
		fmt.Fprintf(out, "\n%s\n\n%s\n", payload.SystemInstructions, payload.Prompt) //nolint:errcheck
	}
	return nil
}

func printSourceTable(w io.Writer, blocks []models.NormalizedBlock) {
	rows := [][]string{{"SOURCE", "KIND", "STATUS", "RECORDS", "DETAIL"}}
	for _, b := range blocks {
		icon := "✓"
		switch b.Status {
		case models.BlockStatusEmpty:
			icon = "-"
		case models.BlockStatusFailed:
			icon = "✗"
		}
		rows = append(rows, []string{b.SourceName, string(b.Kind), icon + " " + string(b.Status), strconv.Itoa(b.Records), b.ErrorDetail})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		var sb strings.Builder
		for i, cell := range row {
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]+2))
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " ")) //nolint:errcheck
	}
}
