// Package projectconfig provides the ProjectConfig struct and loader for
// pulse.yaml configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spboyer/pulse/internal/models"
	"github.com/spboyer/pulse/internal/prompt"
	"github.com/spboyer/pulse/internal/sources"
	"github.com/spboyer/pulse/internal/tokens"
	"github.com/spboyer/pulse/internal/validation"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up by Load.
const FileName = "pulse.yaml"

// Engine names accepted by ai.engine.
const (
	EngineCopilot = "copilot-sdk"
	EngineMock    = "mock"
)

// Default values for project configuration. These are the single source of
// truth: New() references them and no other code should duplicate them.
const (
	DefaultTitle         = "Weekly Program Status"
	DefaultMaxHighlights = prompt.MaxHighlightsLimit
	DefaultMaxPriorities = 3

	DefaultEngine      = EngineCopilot
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 2000
	DefaultTimeout     = 120
	DefaultAPIKeyEnv   = "GITHUB_TOKEN"

	DefaultOutputDir       = "output"
	DefaultFilenamePattern = "weekly_summary_{date}"
	DefaultTokenBudget     = 12000
	DefaultTokenCounter    = string(tokens.TokenizerEstimate)

	DefaultWorkers = 4

	DefaultCacheDir = ".pulse-cache"
)

// DefaultStakeholders are the functions covered by the stakeholder pulse.
var DefaultStakeholders = []string{"Engineering", "Product", "Operations"}

// DefaultFormats are the output formats rendered when none are configured.
var DefaultFormats = []string{string(models.FormatMarkdown), string(models.FormatHTML)}

// SourceConfig is one entry of the sources list.
type SourceConfig struct {
	Name    string         `yaml:"name"`
	Kind    string         `yaml:"kind,omitempty"`
	Enabled *bool          `yaml:"enabled,omitempty"`
	Path    string         `yaml:"path"`
	Options map[string]any `yaml:"options,omitempty"`
}

// IsEnabled reports whether the source is enabled. Sources are enabled unless
// they say otherwise.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// ReportConfig holds the report's section list and limits.
type ReportConfig struct {
	Title         string   `yaml:"title,omitempty"`
	Sections      []string `yaml:"sections,omitempty"`
	Stakeholders  []string `yaml:"stakeholders,omitempty"`
	MaxHighlights int      `yaml:"max_highlights,omitempty"`
	MaxPriorities int      `yaml:"max_priorities,omitempty"`
}

// AIConfig holds the completion engine and model parameters.
type AIConfig struct {
	Engine       string   `yaml:"engine,omitempty"`
	Model        string   `yaml:"model,omitempty"`
	Temperature  *float64 `yaml:"temperature,omitempty"`
	MaxTokens    int      `yaml:"max_tokens,omitempty"`
	Timeout      int      `yaml:"timeout,omitempty"`
	APIKeyEnv    string   `yaml:"api_key_env,omitempty"`
	MockResponse string   `yaml:"mock_response,omitempty"`
}

// OutputConfig holds artifact destinations and the context budget.
type OutputConfig struct {
	Dir             string   `yaml:"dir,omitempty"`
	Formats         []string `yaml:"formats,omitempty"`
	FilenamePattern string   `yaml:"filename_pattern,omitempty"`
	TokenBudget     int      `yaml:"token_budget,omitempty"`
	TokenCounter    string   `yaml:"token_counter,omitempty"`
}

// IngestionConfig holds source ingestion settings.
type IngestionConfig struct {
	Parallel *bool `yaml:"parallel,omitempty"`
	Workers  int   `yaml:"workers,omitempty"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from pulse.yaml.
type ProjectConfig struct {
	Sources   []SourceConfig  `yaml:"sources,omitempty"`
	Report    ReportConfig    `yaml:"report,omitempty"`
	AI        AIConfig        `yaml:"ai,omitempty"`
	Output    OutputConfig    `yaml:"output,omitempty"`
	Ingestion IngestionConfig `yaml:"ingestion,omitempty"`
	Cache     CacheConfig     `yaml:"cache,omitempty"`

	// BaseDir is the directory relative paths are resolved against: the
	// directory holding the loaded file, or the search start when none was found.
	BaseDir string `yaml:"-"`

	// Path is the file the configuration was loaded from, empty for defaults.
	Path string `yaml:"-"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Report: ReportConfig{
			Title:         DefaultTitle,
			Sections:      prompt.DefaultSections(),
			Stakeholders:  append([]string(nil), DefaultStakeholders...),
			MaxHighlights: DefaultMaxHighlights,
			MaxPriorities: DefaultMaxPriorities,
		},
		AI: AIConfig{
			Engine:      DefaultEngine,
			Model:       DefaultModel,
			Temperature: float64Ptr(DefaultTemperature),
			MaxTokens:   DefaultMaxTokens,
			Timeout:     DefaultTimeout,
			APIKeyEnv:   DefaultAPIKeyEnv,
		},
		Output: OutputConfig{
			Dir:             DefaultOutputDir,
			Formats:         append([]string(nil), DefaultFormats...),
			FilenamePattern: DefaultFilenamePattern,
			TokenBudget:     DefaultTokenBudget,
			TokenCounter:    DefaultTokenCounter,
		},
		Ingestion: IngestionConfig{
			Parallel: boolPtr(false),
			Workers:  DefaultWorkers,
		},
		Cache: CacheConfig{
			Enabled: boolPtr(false),
			Dir:     DefaultCacheDir,
		},
	}
}

// Load finds pulse.yaml by walking up from startDir (max 10 levels),
// validates and unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	path, data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := New()
			cfg.BaseDir, _ = filepath.Abs(startDir)
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}
	return parse(path, data)
}

// LoadFile loads the configuration at an explicit path. A missing file is a
// configuration error.
func LoadFile(path string) (*ProjectConfig, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, os.ErrNotExist) {
		return nil, models.NewConfigurationError("config", "config file %s not found", path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return parse(abs, data)
}

func parse(path string, data []byte) (*ProjectConfig, error) {
	if errs := validation.ValidateConfigBytes(data); len(errs) > 0 {
		return nil, models.NewConfigurationError("config", "%s does not match the schema:\n  %s", path, strings.Join(errs, "\n  "))
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg := New()
	mergeConfig(cfg, &fileCfg)
	cfg.Path = path
	cfg.BaseDir = filepath.Dir(path)
	return cfg, nil
}

// findConfigFile walks up from dir looking for pulse.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) (string, []byte, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return p, data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return "", nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst. Lists replace the
// defaults wholesale.
func mergeConfig(dst, src *ProjectConfig) {
	// Sources have no defaults.
	dst.Sources = src.Sources

	// Report
	if src.Report.Title != "" {
		dst.Report.Title = src.Report.Title
	}
	if src.Report.Sections != nil {
		dst.Report.Sections = src.Report.Sections
	}
	if src.Report.Stakeholders != nil {
		dst.Report.Stakeholders = src.Report.Stakeholders
	}
	if src.Report.MaxHighlights != 0 {
		dst.Report.MaxHighlights = src.Report.MaxHighlights
	}
	if src.Report.MaxPriorities != 0 {
		dst.Report.MaxPriorities = src.Report.MaxPriorities
	}

	// AI
	if src.AI.Engine != "" {
		dst.AI.Engine = src.AI.Engine
	}
	if src.AI.Model != "" {
		dst.AI.Model = src.AI.Model
	}
	if src.AI.Temperature != nil {
		dst.AI.Temperature = src.AI.Temperature
	}
	if src.AI.MaxTokens != 0 {
		dst.AI.MaxTokens = src.AI.MaxTokens
	}
	if src.AI.Timeout != 0 {
		dst.AI.Timeout = src.AI.Timeout
	}
	if src.AI.APIKeyEnv != "" {
		dst.AI.APIKeyEnv = src.AI.APIKeyEnv
	}
	if src.AI.MockResponse != "" {
		dst.AI.MockResponse = src.AI.MockResponse
	}

	// Output
	if src.Output.Dir != "" {
		dst.Output.Dir = src.Output.Dir
	}
	if src.Output.Formats != nil {
		dst.Output.Formats = src.Output.Formats
	}
	if src.Output.FilenamePattern != "" {
		dst.Output.FilenamePattern = src.Output.FilenamePattern
	}
	if src.Output.TokenBudget != 0 {
		dst.Output.TokenBudget = src.Output.TokenBudget
	}
	if src.Output.TokenCounter != "" {
		dst.Output.TokenCounter = src.Output.TokenCounter
	}

	// Ingestion
	if src.Ingestion.Parallel != nil {
		dst.Ingestion.Parallel = src.Ingestion.Parallel
	}
	if src.Ingestion.Workers != 0 {
		dst.Ingestion.Workers = src.Ingestion.Workers
	}

	// Cache
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
}

// Validate checks the merged configuration and returns the first problem as
// a *models.ConfigurationError.
func (c *ProjectConfig) Validate() error {
	if _, err := c.Descriptors(); err != nil {
		return err
	}
	if _, err := prompt.BuildContract(c.PromptConfig(nil)); err != nil {
		return err
	}

	switch c.AI.Engine {
	case EngineCopilot, EngineMock:
	default:
		return models.NewConfigurationError("ai.engine", "unknown engine %q (supported: %s, %s)", c.AI.Engine, EngineCopilot, EngineMock)
	}
	if strings.TrimSpace(c.AI.Model) == "" {
		return models.NewConfigurationError("ai.model", "a model name is required")
	}
	if c.AI.Timeout <= 0 {
		return models.NewConfigurationError("ai.timeout", "timeout must be a positive number of seconds")
	}
	if c.AI.Engine == EngineCopilot && c.AI.APIKeyEnv == "" {
		return models.NewConfigurationError("ai.api_key_env", "the credential variable name is required for %s", EngineCopilot)
	}

	if _, err := c.Formats(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return models.NewConfigurationError("output.dir", "an output directory is required")
	}
	if c.Output.TokenBudget <= 0 {
		return models.NewConfigurationError("output.token_budget", "token budget must be positive")
	}
	if _, err := tokens.NewCounter(tokens.Tokenizer(c.Output.TokenCounter)); err != nil {
		return models.NewConfigurationError("output.token_counter", "%v", err)
	}
	if c.Ingestion.Workers < 1 {
		return models.NewConfigurationError("ingestion.workers", "workers must be at least 1")
	}
	return nil
}

// Descriptors converts the sources list into descriptors in configuration
// order, inferring kinds from file extensions and resolving paths against
// BaseDir.
func (c *ProjectConfig) Descriptors() ([]models.SourceDescriptor, error) {
	if len(c.Sources) == 0 {
		return nil, models.NewConfigurationError("sources", "at least one source must be configured")
	}

	seen := make(map[string]bool, len(c.Sources))
	descs := make([]models.SourceDescriptor, 0, len(c.Sources))
	for i, s := range c.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, models.NewConfigurationError(field+".name", "source name is required")
		}
		if seen[name] {
			return nil, models.NewConfigurationError(field+".name", "duplicate source name %q", name)
		}
		seen[name] = true

		if strings.TrimSpace(s.Path) == "" {
			return nil, models.NewConfigurationError(field+".path", "source %q has no path", name)
		}

		kind := models.SourceKind(s.Kind)
		if kind == "" {
			inferred, ok := models.InferSourceKind(s.Path)
			if !ok {
				return nil, models.NewConfigurationError(field+".kind", "cannot infer the kind of %q from its extension; set kind to notes, tracker, chat or csv", s.Path)
			}
			kind = inferred
		}
		if !kind.Valid() {
			return nil, models.NewConfigurationError(field+".kind", "unknown source kind %q", s.Kind)
		}

		desc := models.SourceDescriptor{
			Name:     name,
			Enabled:  s.IsEnabled(),
			Location: c.Resolve(s.Path),
			Kind:     kind,
			Options:  s.Options,
		}
		if err := sources.ValidateOptions(desc); err != nil {
			return nil, models.NewConfigurationError(field+".options", "%v", err)
		}
		descs = append(descs, desc)
	}
	return descs, nil
}

// PromptConfig returns the assembler's report configuration. A nil vocabulary
// uses the default one.
func (c *ProjectConfig) PromptConfig(vocabulary *models.Vocabulary) prompt.ReportConfig {
	vocab := prompt.DefaultVocabulary()
	if vocabulary != nil {
		vocab = *vocabulary
	}
	return prompt.ReportConfig{
		Title:         c.Report.Title,
		Sections:      c.Report.Sections,
		Stakeholders:  c.Report.Stakeholders,
		MaxHighlights: c.Report.MaxHighlights,
		MaxPriorities: c.Report.MaxPriorities,
		TokenBudget:   c.Output.TokenBudget,
		Vocabulary:    vocab,
	}
}

// Formats parses output.formats, dropping repeats such as md and markdown.
func (c *ProjectConfig) Formats() ([]models.Format, error) {
	if len(c.Output.Formats) == 0 {
		return nil, models.NewConfigurationError("output.formats", "at least one output format is required")
	}
	var formats []models.Format
	for _, name := range c.Output.Formats {
		f, err := models.ParseFormat(name)
		if err != nil {
			return nil, models.NewConfigurationError("output.formats", "%v", err)
		}
		if !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// Timeout returns ai.timeout as a duration.
func (c *ProjectConfig) Timeout() time.Duration {
	return time.Duration(c.AI.Timeout) * time.Second
}

// Resolve makes a relative path absolute against BaseDir.
func (c *ProjectConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// Marshal renders the configuration as YAML, as written by pulse init.
func (c *ProjectConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func boolPtr(b bool) *bool {
	return &b
}

func float64Ptr(f float64) *float64 {
	return &f
}
