package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/spboyer/pulse/internal/projectconfig"
	"github.com/spboyer/pulse/internal/wizard"
	"github.com/spf13/cobra"
)

func newInitCommand() *cobra.Command {
	var (
		interactive bool
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a starter pulse.yaml with sample data",
		Long: `Create a pulse.yaml and sample exports under data/ so "pulse run" works
straight away.

Use --interactive to choose the report title, sample sources, sections and
engine in a guided form. Existing sample files are left alone; an existing
pulse.yaml is only replaced with --force.

If no directory is specified, the current directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initCommandE(cmd, args, interactive, force)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Run the guided setup form")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing pulse.yaml")

	return cmd
}

func initCommandE(cmd *cobra.Command, args []string, interactive, force bool) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	out := cmd.OutOrStdout()

	configPath := filepath.Join(dir, projectconfig.FileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	answers := wizard.DefaultAnswers()
	if interactive {
		got, err := wizard.Run(cmd.InOrStdin(), out, answers)
		if err != nil {
			return err
		}
		answers = *got
	}

	// Create the root directory if it doesn't exist
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := answers.Config().Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", projectconfig.FileName, err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	fmt.Fprintf(out, "Created:\n  %s\n", configPath) //nolint:errcheck

	files := answers.SampleFiles()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(out, "  %s (exists, kept)\n", path) //nolint:errcheck
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		if err := os.WriteFile(path, []byte(files[name]), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(out, "  %s\n", path) //nolint:errcheck
	}

	fmt.Fprintf(out, "\nNext: run \"pulse check\" to preview ingestion, then \"pulse run\".\n") //nolint:errcheck
	return nil
}
