package projectconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spboyer/pulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ReturnsAllDefaults(t *testing.T) {
	cfg := New()

	// Report
	assertEqual(t, "Report.Title", "Weekly Program Status", cfg.Report.Title)
	assertEqualInt(t, "len(Report.Sections)", 8, len(cfg.Report.Sections))
	assertEqual(t, "Report.Sections[0]", "dashboard", cfg.Report.Sections[0])
	assertEqualInt(t, "Report.MaxHighlights", 3, cfg.Report.MaxHighlights)
	assertEqualInt(t, "Report.MaxPriorities", 3, cfg.Report.MaxPriorities)

	// AI
	assertEqual(t, "AI.Engine", "copilot-sdk", cfg.AI.Engine)
	assertEqual(t, "AI.Model", "gpt-4o", cfg.AI.Model)
	assertEqualInt(t, "AI.MaxTokens", 2000, cfg.AI.MaxTokens)
	assertEqualInt(t, "AI.Timeout", 120, cfg.AI.Timeout)
	assertEqual(t, "AI.APIKeyEnv", "GITHUB_TOKEN", cfg.AI.APIKeyEnv)
	if cfg.AI.Temperature == nil || *cfg.AI.Temperature != 0.3 {
		t.Errorf("AI.Temperature = %v, want 0.3", cfg.AI.Temperature)
	}

	// Output
	assertEqual(t, "Output.Dir", "output", cfg.Output.Dir)
	assertEqual(t, "Output.FilenamePattern", "weekly_summary_{date}", cfg.Output.FilenamePattern)
	assertEqualInt(t, "Output.TokenBudget", 12000, cfg.Output.TokenBudget)
	assertEqual(t, "Output.TokenCounter", "estimate", cfg.Output.TokenCounter)

	// Ingestion
	assertBoolPtr(t, "Ingestion.Parallel", false, cfg.Ingestion.Parallel)
	assertEqualInt(t, "Ingestion.Workers", 4, cfg.Ingestion.Workers)

	// Cache
	assertBoolPtr(t, "Cache.Enabled", false, cfg.Cache.Enabled)
	assertEqual(t, "Cache.Dir", ".pulse-cache", cfg.Cache.Dir)

	if cfg.Sources != nil {
		t.Error("Sources should be empty by default")
	}
}

func TestNew_DefaultsAreIndependent(t *testing.T) {
	a := New()
	a.Report.Sections[0] = "changed"
	a.Output.Formats[0] = "changed"

	b := New()
	assertEqual(t, "Report.Sections[0]", "dashboard", b.Report.Sections[0])
	assertEqual(t, "Output.Formats[0]", "markdown", b.Output.Formats[0])
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
sources:
  - name: meeting_notes
    path: data/meeting_notes.txt
  - name: jira
    kind: tracker
    enabled: false
    path: /abs/jira_export.json
    options:
      max_comments: 1
report:
  title: Platform Weekly
  sections: [dashboard, risks]
  stakeholders: [Engineering]
  max_highlights: 2
  max_priorities: 4
ai:
  engine: mock
  model: gpt-4o-mini
  temperature: 0
  max_tokens: 1000
  timeout: 30
  api_key_env: PULSE_TOKEN
  mock_response: fixtures/response.md
output:
  dir: site
  formats: [html]
  filename_pattern: "status_{date}"
  token_budget: 500
  token_counter: chars
ingestion:
  parallel: true
  workers: 8
cache:
  enabled: true
  dir: .my-cache
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Path", filepath.Join(dir, FileName), cfg.Path)
	assertEqual(t, "BaseDir", dir, cfg.BaseDir)
	assertEqualInt(t, "len(Sources)", 2, len(cfg.Sources))
	assertEqual(t, "Sources[1].Kind", "tracker", cfg.Sources[1].Kind)
	assertEqual(t, "Report.Title", "Platform Weekly", cfg.Report.Title)
	assertEqualInt(t, "len(Report.Sections)", 2, len(cfg.Report.Sections))
	assertEqualInt(t, "Report.MaxHighlights", 2, cfg.Report.MaxHighlights)
	assertEqualInt(t, "Report.MaxPriorities", 4, cfg.Report.MaxPriorities)
	assertEqual(t, "AI.Engine", "mock", cfg.AI.Engine)
	assertEqual(t, "AI.Model", "gpt-4o-mini", cfg.AI.Model)
	if cfg.AI.Temperature == nil || *cfg.AI.Temperature != 0 {
		t.Errorf("AI.Temperature = %v, want explicit 0", cfg.AI.Temperature)
	}
	assertEqualInt(t, "AI.MaxTokens", 1000, cfg.AI.MaxTokens)
	assertEqualInt(t, "AI.Timeout", 30, cfg.AI.Timeout)
	assertEqual(t, "AI.APIKeyEnv", "PULSE_TOKEN", cfg.AI.APIKeyEnv)
	assertEqual(t, "AI.MockResponse", "fixtures/response.md", cfg.AI.MockResponse)
	assertEqual(t, "Output.Dir", "site", cfg.Output.Dir)
	assertEqual(t, "Output.FilenamePattern", "status_{date}", cfg.Output.FilenamePattern)
	assertEqualInt(t, "Output.TokenBudget", 500, cfg.Output.TokenBudget)
	assertEqual(t, "Output.TokenCounter", "chars", cfg.Output.TokenCounter)
	assertBoolPtr(t, "Ingestion.Parallel", true, cfg.Ingestion.Parallel)
	assertEqualInt(t, "Ingestion.Workers", 8, cfg.Ingestion.Workers)
	assertBoolPtr(t, "Cache.Enabled", true, cfg.Cache.Enabled)
	assertEqual(t, "Cache.Dir", ".my-cache", cfg.Cache.Dir)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Second, cfg.Timeout())

	formats, err := cfg.Formats()
	require.NoError(t, err)
	assert.Equal(t, []models.Format{models.FormatHTML}, formats)
}

func TestLoad_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
sources:
  - name: notes
    path: notes.txt
ai:
  engine: mock
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Overridden
	assertEqual(t, "AI.Engine", "mock", cfg.AI.Engine)

	// Defaults preserved
	assertEqual(t, "AI.Model", "gpt-4o", cfg.AI.Model)
	assertEqualInt(t, "AI.Timeout", 120, cfg.AI.Timeout)
	assertEqual(t, "Output.Dir", "output", cfg.Output.Dir)
	assertEqualInt(t, "len(Output.Formats)", 2, len(cfg.Output.Formats))
	assertBoolPtr(t, "Ingestion.Parallel", false, cfg.Ingestion.Parallel)
}

func TestLoad_MissingFile_ReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	defaults := New()
	assertEqual(t, "AI.Engine", defaults.AI.Engine, cfg.AI.Engine)
	assertEqual(t, "AI.Model", defaults.AI.Model, cfg.AI.Model)
	assertEqual(t, "BaseDir", dir, cfg.BaseDir)
	assertEqual(t, "Path", "", cfg.Path)

	// Defaults alone have no sources.
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.Equal(t, "sources", cfgErr.Field)
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
ai:
  engine: [not valid yaml
    this is broken
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("Load() should return error for invalid YAML")
	}
}

func TestLoad_SchemaViolation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
ai:
  engine: openai
`)

	_, err := Load(dir)
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "config", cfgErr.Field)
	assert.Contains(t, cfgErr.Message, "/ai/engine")
}

func TestLoad_WalksUpDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, FileName, `
ai:
  model: found-it
`)

	child := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(child)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "AI.Model", "found-it", cfg.AI.Model)
	assertEqual(t, "BaseDir", root, cfg.BaseDir)
	// Other defaults still populated
	assertEqual(t, "AI.Engine", "copilot-sdk", cfg.AI.Engine)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "custom.yaml", "ai:\n  engine: mock\n")

	cfg, err := LoadFile(filepath.Join(dir, "custom.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.AI.Engine)
	assert.Equal(t, dir, cfg.BaseDir)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "config", cfgErr.Field)
}

func TestDescriptors(t *testing.T) {
	cfg := New()
	cfg.BaseDir = "/work"
	cfg.Sources = []SourceConfig{
		{Name: "notes", Path: "data/notes.md"},
		{Name: "jira", Kind: "tracker", Path: "data/jira.json", Enabled: boolPtr(false)},
		{Name: "metrics", Path: "/abs/metrics.csv", Options: map[string]any{"display_name": "Metrics"}},
	}

	descs, err := cfg.Descriptors()
	require.NoError(t, err)
	assert.Equal(t, []models.SourceDescriptor{
		{Name: "notes", Enabled: true, Location: filepath.Join("/work", "data/notes.md"), Kind: models.SourceKindNotes},
		{Name: "jira", Enabled: false, Location: filepath.Join("/work", "data/jira.json"), Kind: models.SourceKindTracker},
		{Name: "metrics", Enabled: true, Location: "/abs/metrics.csv", Kind: models.SourceKindCSV, Options: map[string]any{"display_name": "Metrics"}},
	}, descs)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *ProjectConfig)
		field  string
	}{
		{
			name:   "no sources",
			mutate: func(c *ProjectConfig) { c.Sources = nil },
			field:  "sources",
		},
		{
			name: "duplicate source name",
			mutate: func(c *ProjectConfig) {
				c.Sources = append(c.Sources, SourceConfig{Name: "notes", Path: "other.txt"})
			},
			field: "sources[1].name",
		},
		{
			name: "json source without kind",
			mutate: func(c *ProjectConfig) {
				c.Sources = append(c.Sources, SourceConfig{Name: "chat", Path: "chat.json"})
			},
			field: "sources[1].kind",
		},
		{
			name: "unknown kind",
			mutate: func(c *ProjectConfig) {
				c.Sources[0].Kind = "email"
			},
			field: "sources[0].kind",
		},
		{
			name: "bad tracker options",
			mutate: func(c *ProjectConfig) {
				c.Sources = append(c.Sources, SourceConfig{Name: "jira", Kind: "tracker", Path: "jira.json", Options: map[string]any{"bogus": 1}})
			},
			field: "sources[1].options",
		},
		{
			name:   "empty sections",
			mutate: func(c *ProjectConfig) { c.Report.Sections = []string{} },
			field:  "report.sections",
		},
		{
			name:   "unknown section",
			mutate: func(c *ProjectConfig) { c.Report.Sections = []string{"dashboard", "gossip"} },
			field:  "report.sections",
		},
		{
			name:   "highlights above the fixed cap",
			mutate: func(c *ProjectConfig) { c.Report.MaxHighlights = 10 },
			field:  "report.max_highlights",
		},
		{
			name:   "unknown engine",
			mutate: func(c *ProjectConfig) { c.AI.Engine = "openai" },
			field:  "ai.engine",
		},
		{
			name:   "blank model",
			mutate: func(c *ProjectConfig) { c.AI.Model = " " },
			field:  "ai.model",
		},
		{
			name:   "unknown format",
			mutate: func(c *ProjectConfig) { c.Output.Formats = []string{"pdf"} },
			field:  "output.formats",
		},
		{
			name:   "unknown token counter",
			mutate: func(c *ProjectConfig) { c.Output.TokenCounter = "bpe" },
			field:  "output.token_counter",
		},
		{
			name:   "zero workers",
			mutate: func(c *ProjectConfig) { c.Ingestion.Workers = 0 },
			field:  "ingestion.workers",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := New()
			cfg.Sources = []SourceConfig{{Name: "notes", Path: "notes.txt"}}
			require.NoError(t, cfg.Validate())

			tc.mutate(cfg)
			err := cfg.Validate()

			var cfgErr *models.ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestFormats_DropsRepeats(t *testing.T) {
	cfg := New()
	cfg.Output.Formats = []string{"md", "html", "markdown"}

	formats, err := cfg.Formats()
	require.NoError(t, err)
	assert.Equal(t, []models.Format{models.FormatMarkdown, models.FormatHTML}, formats)
}

func TestPromptConfig(t *testing.T) {
	cfg := New()
	cfg.Output.TokenBudget = 900

	pc := cfg.PromptConfig(nil)
	assert.Equal(t, "Weekly Program Status", pc.Title)
	assert.Equal(t, 900, pc.TokenBudget)
	assert.NotEmpty(t, pc.Vocabulary.Status)
}

func TestMarshal_RoundTrips(t *testing.T) {
	cfg := New()
	cfg.AI.Engine = EngineMock
	cfg.Sources = []SourceConfig{{Name: "notes", Path: "data/notes.txt"}}

	data, err := cfg.Marshal()
	require.NoError(t, err)

	dir := t.TempDir()
	writeFile(t, dir, FileName, string(data))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.Sources, loaded.Sources)
	assert.Equal(t, cfg.Report, loaded.Report)
	assert.Equal(t, cfg.AI, loaded.AI)
	assert.Equal(t, cfg.Output, loaded.Output)
}

// --- test helpers ---

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func assertEqual(t *testing.T, field, want, got string) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %q, want %q", field, got, want)
	}
}

func assertEqualInt(t *testing.T, field string, want, got int) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %d, want %d", field, got, want)
	}
}

func assertBoolPtr(t *testing.T, field string, want bool, got *bool) {
	t.Helper()
	if got == nil {
		t.Errorf("%s is nil, want %v", field, want)
		return
	}
	if *got != want {
		t.Errorf("%s = %v, want %v", field, *got, want)
	}
}
