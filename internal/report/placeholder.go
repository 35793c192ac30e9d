package report

import (
	"fmt"
	"strings"

	"github.com/spboyer/pulse/internal/models"
)

// SetupGuidance is the literal message every placeholder artifact carries.
const SetupGuidance = "Report unavailable: the AI completion service could not produce a summary. Check that AI credentials are configured and run pulse again."

const (
	statusRendered    = "rendered"
	statusPlaceholder = "placeholder"

	htmlStatusMeta = `<meta name="pulse-status" content="`
)

func setupSteps(meta Metadata) []string {
	env := meta.CredentialEnv
	if env == "" {
		env = "GITHUB_TOKEN"
	}
	return []string{
		fmt.Sprintf("Set the %s environment variable, or sign in with `gh auth login` so the Copilot CLI can authenticate.", env),
		"Confirm `ai.engine` and `ai.model` in pulse.yaml name an engine and model you have access to.",
		"Run `pulse check` to validate the configuration and sources without calling the model.",
		"Run `pulse run` to regenerate this report.",
	}
}

// isPlaceholder reports whether a persisted artifact is a placeholder, so it
// is never copied forward.
func isPlaceholder(format models.Format, content string) bool {
	switch format {
	case models.FormatMarkdown:
		fm, ok := readFrontMatter(content)
		return ok && fm.Status == statusPlaceholder
	case models.FormatHTML:
		return strings.Contains(content, htmlStatusMeta+statusPlaceholder+`"`)
	}
	return false
}
