package prompt

import (
	"fmt"
	"strings"

	"github.com/spboyer/pulse/internal/models"
)

// Section IDs accepted in report.sections.
const (
	SectionDashboard   = "dashboard"
	SectionHighlights  = "highlights"
	SectionRisks       = "risks"
	SectionWins        = "wins"
	SectionStakeholder = "stakeholder-pulse"
	SectionNextWeek    = "next-week"
	SectionDecisions   = "decisions"
	SectionMetrics     = "metrics"
)

// MaxHighlightsLimit is the most highlight bullets a report may ask for.
const MaxHighlightsLimit = 3

// DefaultSections returns the section order used when a config does not
// choose one. Each call returns a fresh slice.
func DefaultSections() []string {
	return []string{
		SectionDashboard,
		SectionHighlights,
		SectionRisks,
		SectionWins,
		SectionStakeholder,
		SectionNextWeek,
		SectionDecisions,
		SectionMetrics,
	}
}

// KnownSection reports whether id names a section in the catalog.
func KnownSection(id string) bool {
	for _, s := range DefaultSections() {
		if s == id {
			return true
		}
	}
	return false
}

// DefaultVocabulary returns the standard status, trend, severity and sentiment
// symbols. Each call returns a fresh copy.
func DefaultVocabulary() models.Vocabulary {
	return models.Vocabulary{
		Status: []models.Symbol{
			{Glyph: "🟢", Label: "On Track", Badge: "ok"},
			{Glyph: "🟠", Label: "At Risk", Badge: "warn"},
			{Glyph: "🔴", Label: "Critical", Badge: "danger"},
		},
		Trend: []models.Symbol{
			{Glyph: "▲", Label: "Up"},
			{Glyph: "▼", Label: "Down"},
			{Glyph: "↑", Label: "Rising"},
			{Glyph: "↓", Label: "Falling"},
			{Glyph: "✅", Label: "Complete", Badge: "ok"},
		},
		Severity: []models.Symbol{
			{Glyph: "🔴", Label: "Critical", Badge: "danger"},
			{Glyph: "🟠", Label: "High", Badge: "warn"},
			{Glyph: "🟡", Label: "Medium", Badge: "warn"},
		},
		Sentiment: []models.Symbol{
			{Glyph: "✅", Label: "Positive", Badge: "ok"},
			{Glyph: "⚙️", Label: "Neutral"},
			{Glyph: "⚠️", Label: "Concern", Badge: "warn"},
			{Glyph: "🔥", Label: "Urgent", Badge: "danger"},
		},
		Wins: []models.Symbol{
			{Glyph: "🚀", Label: "Launch"},
			{Glyph: "🔒", Label: "Security"},
			{Glyph: "📉", Label: "Reduction"},
			{Glyph: "⚙️", Label: "Performance"},
		},
	}
}

func symbolList(symbols []models.Symbol) string {
	parts := make([]string, 0, len(symbols))
	for _, s := range symbols {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, ", ")
}

// buildSection returns the contract entry for a section ID.
func buildSection(id string, cfg ReportConfig) (models.Section, error) {
	v := cfg.Vocabulary
	switch id {
	case SectionDashboard:
		return models.Section{
			ID:       id,
			Title:    "At-a-Glance Dashboard",
			Required: true,
			Tabular:  true,
			Columns:  []string{"Area", "Status", "Key Metric", "Trend"},
			Aliases:  []string{"dashboard", "at-a-glance", "at a glance"},
			Guidance: []string{
				"Use status symbols: " + symbolList(v.Status),
				"Use trend symbols: " + symbolList(v.Trend),
				"Cover 5-6 key areas (Platform, Features, Costs, People, Customer)",
				`After the table, add a one-line summary: "> Overall status summary here"`,
			},
		}, nil
	case SectionHighlights:
		return models.Section{
			ID:      id,
			Title:   "Executive Highlights",
			Aliases: []string{"highlight"},
			Guidance: []string{
				fmt.Sprintf("At most %d bullets", cfg.MaxHighlights),
				"Focus on business outcomes, not technical details",
				"Include customer impact, ROI, or business metrics",
				"Format: **Bold achievement** → tangible result (numbers/percentages)",
			},
		}, nil
	case SectionRisks:
		return models.Section{
			ID:      id,
			Title:   "Top Risks & Mitigations",
			Tabular: true,
			Columns: []string{"Risk", "Severity", "Owner", "Mitigation / ETA"},
			Aliases: []string{"risk"},
			Guidance: []string{
				"Severity: " + symbolList(v.Severity),
				"List 3-5 top risks only",
				"Mitigations must be action-oriented with dates",
				`Add "⚠️ Decision Needed" if exec approval required`,
			},
		}, nil
	case SectionWins:
		return models.Section{
			ID:      id,
			Title:   "Key Wins",
			Aliases: []string{"win"},
			Guidance: []string{
				"2-4 items, one line each",
				"Use emoji indicators: " + symbolList(v.Wins),
				`Format: "🚀 **Achievement** → impact (metric)"`,
			},
		}, nil
	case SectionStakeholder:
		guidance := []string{"Sentiment: " + symbolList(v.Sentiment)}
		if len(cfg.Stakeholders) > 0 {
			guidance = append(guidance, "Cover: "+strings.Join(cfg.Stakeholders, ", "))
		}
		guidance = append(guidance, "One-line focus per stakeholder")
		return models.Section{
			ID:       id,
			Title:    "Stakeholder Pulse",
			Tabular:  true,
			Columns:  []string{"Function", "Sentiment", "Focus / Ask"},
			Aliases:  []string{"stakeholder"},
			Guidance: guidance,
		}, nil
	case SectionNextWeek:
		return models.Section{
			ID:      id,
			Title:   "Next Week / Executive Actions",
			Aliases: []string{"next week", "executive action", "priorities"},
			Guidance: []string{
				fmt.Sprintf("Top %d priorities as a numbered list, each with a date", cfg.MaxPriorities),
			},
		}, nil
	case SectionDecisions:
		return models.Section{
			ID:      id,
			Title:   "Decisions Needed",
			Aliases: []string{"decision"},
			Guidance: []string{
				"Decision points with business impact",
				"Write \"None this week\" when no decision is pending",
			},
		}, nil
	case SectionMetrics:
		return models.Section{
			ID:      id,
			Title:   "Metrics Snapshot",
			Aliases: []string{"metric"},
			Guidance: []string{
				"Brief table or bullets with trending indicators (▲▼)",
				"Omit the section body if no metrics are available",
			},
		}, nil
	}
	return models.Section{}, models.NewConfigurationError("report.sections", "unknown section %q (supported: %s)", id, strings.Join(DefaultSections(), ", "))
}

// BuildContract resolves the configured section IDs into an output contract.
func BuildContract(cfg ReportConfig) (models.OutputContract, error) {
	if len(cfg.Sections) == 0 {
		return models.OutputContract{}, models.NewConfigurationError("report.sections", "at least one section is required")
	}
	if cfg.MaxHighlights < 1 || cfg.MaxHighlights > MaxHighlightsLimit {
		return models.OutputContract{}, models.NewConfigurationError("report.max_highlights", "must be between 1 and %d, got %d", MaxHighlightsLimit, cfg.MaxHighlights)
	}

	seen := make(map[string]bool, len(cfg.Sections))
	sections := make([]models.Section, 0, len(cfg.Sections))
	for _, id := range cfg.Sections {
		id = strings.ToLower(strings.TrimSpace(id))
		if seen[id] {
			return models.OutputContract{}, models.NewConfigurationError("report.sections", "section %q listed more than once", id)
		}
		seen[id] = true

		s, err := buildSection(id, cfg)
		if err != nil {
			return models.OutputContract{}, err
		}
		sections = append(sections, s)
	}
	return models.OutputContract{Sections: sections, Vocabulary: cfg.Vocabulary}, nil
}
