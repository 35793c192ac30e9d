// Package wizard collects the answers for pulse init and turns them into a
// starter pulse.yaml plus sample exports.
package wizard

import (
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spboyer/pulse/internal/models"
	"github.com/spboyer/pulse/internal/projectconfig"
	"github.com/spboyer/pulse/internal/prompt"
	"golang.org/x/term"
)

// DataDir is where sample exports are written, relative to the project.
const DataDir = "data"

// Answers holds all fields collected during the interactive wizard.
type Answers struct {
	Title    string
	Kinds    []models.SourceKind
	Sections []string
	Engine   string
	Model    string
}

// DefaultAnswers are used when init runs without the wizard.
func DefaultAnswers() Answers {
	return Answers{
		Title:    projectconfig.DefaultTitle,
		Kinds:    []models.SourceKind{models.SourceKindNotes, models.SourceKindTracker, models.SourceKindChat},
		Sections: prompt.DefaultSections(),
		Engine:   projectconfig.DefaultEngine,
		Model:    projectconfig.DefaultModel,
	}
}

type sample struct {
	name    string
	file    string
	content string
}

var samples = map[models.SourceKind]sample{
	models.SourceKindNotes: {
		name: "meeting_notes",
		file: "meeting_notes.txt",
		content: `Weekly sync
- Gateway migration is 60% done; cutover planned for Thursday.
- Key rotation is blocked on the security review.
- Beta feedback from design partners is positive.
`,
	},
	models.SourceKindTracker: {
		name: "jira",
		file: "jira_export.json",
		content: `{
  "metadata": {"sprint": "Sprint 14", "sprintVelocity": 42, "completedStoryPoints": 30, "totalStoryPoints": 50},
  "issues": [
    {"key": "PLAT-1", "summary": "Migrate gateway", "status": "In Progress", "priority": "High",
     "assignee": "Dana", "dueDate": "2024-06-13", "progress": 60,
     "comments": [{"author": "Dana", "body": "Cutover scheduled for Thursday"}]},
    {"key": "PLAT-2", "summary": "Rotate signing keys", "status": "Blocked", "priority": "Critical",
     "assignee": "Lee", "comments": [{"author": "Lee", "body": "Waiting on security review"}]},
    {"key": "PLAT-3", "summary": "Publish runbook", "status": "Done", "priority": "Low", "assignee": "Sam"}
  ]
}
`,
	},
	models.SourceKindChat: {
		name: "slack",
		file: "slack_export.json",
		content: `{
  "channels": [
    {"channel_name": "eng-platform", "threads": [
      {"author": "alice", "text": "Gateway cutover moved to Thursday",
       "reactions": [{"emoji": "eyes", "count": 3}],
       "replies": [{"author": "bob", "text": "Ops is ready"}, {"author": "dana", "text": "Rollback plan is in the runbook"}]}
    ]},
    {"channel_name": "product", "threads": [
      {"author": "erin", "text": "Design partners like the new dashboard"}
    ]}
  ]
}
`,
	},
	models.SourceKindCSV: {
		name: "metrics",
		file: "metrics.csv",
		content: `metric,value,trend
Availability,99.95%,flat
P95 latency,210ms,down
Open incidents,2,down
`,
	},
}

// kindOrder is the order sources are listed in the generated config.
var kindOrder = []models.SourceKind{models.SourceKindNotes, models.SourceKindTracker, models.SourceKindChat, models.SourceKindCSV}

// Run runs an interactive huh form seeded with defaults.
func Run(in io.Reader, out io.Writer, defaults Answers) (*Answers, error) {
	var (
		title    = defaults.Title
		kinds    = kindStrings(defaults.Kinds)
		sections = append([]string(nil), defaults.Sections...)
		engine   = defaults.Engine
		model    = defaults.Model
	)

	kindOptions := make([]huh.Option[string], 0, len(kindOrder))
	for _, k := range kindOrder {
		kindOptions = append(kindOptions, huh.NewOption(fmt.Sprintf("%s (%s)", k, samples[k].file), string(k)))
	}
	sectionOptions := make([]huh.Option[string], 0, len(prompt.DefaultSections()))
	for _, s := range prompt.DefaultSections() {
		sectionOptions = append(sectionOptions, huh.NewOption(s, s))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Report title").
				Value(&title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("report title is required")
					}
					return nil
				}),
			huh.NewMultiSelect[string]().
				Title("Sample sources").
				Description("Each selected kind gets a sample export under data/").
				Options(kindOptions...).
				Value(&kinds).
				Validate(func(v []string) error {
					if len(v) == 0 {
						return fmt.Errorf("select at least one source")
					}
					return nil
				}),
			huh.NewMultiSelect[string]().
				Title("Report sections").
				Options(sectionOptions...).
				Value(&sections).
				Validate(func(v []string) error {
					if len(v) == 0 {
						return fmt.Errorf("select at least one section")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Completion engine").
				Options(
					huh.NewOption("GitHub Copilot", projectconfig.EngineCopilot),
					huh.NewOption("mock (no model call)", projectconfig.EngineMock),
				).
				Value(&engine),
			huh.NewInput().
				Title("Model").
				Value(&model),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	answers := &Answers{
		Title:  strings.TrimSpace(title),
		Engine: engine,
		Model:  strings.TrimSpace(model),
	}
	for _, k := range kinds {
		answers.Kinds = append(answers.Kinds, models.SourceKind(k))
	}
	// Keep the catalog order regardless of selection order.
	for _, s := range prompt.DefaultSections() {
		if slices.Contains(sections, s) {
			answers.Sections = append(answers.Sections, s)
		}
	}
	return answers, nil
}

// Config builds the starter configuration for a.
func (a Answers) Config() *projectconfig.ProjectConfig {
	cfg := projectconfig.New()
	cfg.Report.Title = a.Title
	if len(a.Sections) > 0 {
		cfg.Report.Sections = a.Sections
	}
	if a.Engine != "" {
		cfg.AI.Engine = a.Engine
	}
	if a.Model != "" {
		cfg.AI.Model = a.Model
	}
	for _, k := range kindOrder {
		if !slices.Contains(a.Kinds, k) {
			continue
		}
		s := samples[k]
		cfg.Sources = append(cfg.Sources, projectconfig.SourceConfig{
			Name: s.name,
			Kind: string(k),
			Path: path.Join(DataDir, s.file),
		})
	}
	return cfg
}

// SampleFiles returns the sample exports for a, keyed by slash-separated
// path relative to the project.
func (a Answers) SampleFiles() map[string]string {
	files := make(map[string]string, len(a.Kinds))
	for _, k := range a.Kinds {
		if s, ok := samples[k]; ok {
			files[path.Join(DataDir, s.file)] = s.content
		}
	}
	return files
}

func kindStrings(kinds []models.SourceKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
