package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spboyer/pulse/internal/models"
)

// Exit codes for different failure modes
const (
	ExitSuccess     = 0 // Fresh, degraded or placeholder report written
	ExitError       = 1 // Unexpected runtime error
	ExitConfigError = 2 // Invalid configuration or missing credential
	ExitRenderError = 3 // No report artifact could be written
)

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cfgErr *models.ConfigurationError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}
	var renderErr *models.RenderError
	if errors.As(err, &renderErr) {
		return ExitRenderError
	}
	return ExitError
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
