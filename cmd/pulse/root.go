package main

import (
	"log/slog"

	"github.com/spboyer/pulse/internal/projectconfig"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	var configPath string
	run := &runOptions{}

	cmd := &cobra.Command{
		Use:   "pulse",
		Short: "Pulse - weekly executive status reports from exported project data",
		Long: `Pulse turns exported meeting notes, issue-tracker and chat snapshots into a
weekly executive status report.

Sources listed in pulse.yaml are ingested and combined into one prompt, a
language model writes the summary, and the result is rendered as Markdown and
HTML under the output directory. When the model is unavailable the last good
report is carried forward, or a placeholder explains how to finish setup.

Running pulse with no subcommand is the same as "pulse run".`,
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run.execute(cmd, configPath)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to pulse.yaml (default: search the current directory and its parents)")
	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}
	run.addFlags(cmd)

	// Add subcommands
	cmd.AddCommand(newRunCommand(&configPath))
	cmd.AddCommand(newCheckCommand(&configPath))
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newCacheCommand(&configPath))

	return cmd
}

// loadConfig loads an explicit config file, or searches upward from the
// working directory when path is empty.
func loadConfig(path string) (*projectconfig.ProjectConfig, error) {
	if path != "" {
		return projectconfig.LoadFile(path)
	}
	return projectconfig.Load(".")
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
