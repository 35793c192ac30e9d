package models

import (
	"strings"
	"time"
)

// Section is one named part of the output contract.
type Section struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Required bool   `json:"required"`

	// Tabular sections must be laid out as a markdown table.
	Tabular bool `json:"tabular"`

	// Columns lists the table header for tabular sections.
	Columns []string `json:"columns,omitempty"`

	// Aliases are lower-case fragments that identify the section heading in a response.
	Aliases []string `json:"aliases,omitempty"`

	Guidance []string `json:"guidance,omitempty"`
}

// Symbol is one entry of the status/trend vocabulary.
type Symbol struct {
	Glyph string `json:"glyph"`
	Label string `json:"label"`

	// Badge is the HTML badge class: ok, warn or danger. Empty means no badge.
	Badge string `json:"badge,omitempty"`
}

// String renders the symbol the way the prompt presents it, e.g. "🟢 On Track".
func (s Symbol) String() string {
	return s.Glyph + " " + s.Label
}

// Vocabulary is the fixed set of formatting symbols the model may use.
type Vocabulary struct {
	Status    []Symbol `json:"status"`
	Trend     []Symbol `json:"trend"`
	Severity  []Symbol `json:"severity"`
	Sentiment []Symbol `json:"sentiment"`
	Wins      []Symbol `json:"wins"`
}

// All returns every symbol in a stable order.
func (v Vocabulary) All() []Symbol {
	all := make([]Symbol, 0, len(v.Status)+len(v.Trend)+len(v.Severity)+len(v.Sentiment)+len(v.Wins))
	all = append(all, v.Status...)
	all = append(all, v.Severity...)
	all = append(all, v.Sentiment...)
	all = append(all, v.Trend...)
	all = append(all, v.Wins...)
	return all
}

// BadgeClass returns the HTML badge class for text containing a status,
// severity, sentiment or trend symbol, e.g. "badge ok". Symbols without a
// badge still mark the text with the bare "badge" class.
func (v Vocabulary) BadgeClass(text string) (string, bool) {
	found := false
	for _, group := range [][]Symbol{v.Status, v.Severity, v.Sentiment, v.Trend} {
		for _, sym := range group {
			if sym.Glyph == "" || !strings.Contains(text, sym.Glyph) {
				continue
			}
			if sym.Badge != "" {
				return "badge " + sym.Badge, true
			}
			found = true
		}
	}
	if found {
		return "badge", true
	}
	return "", false
}

// OutputContract is the structure the model response must satisfy.
type OutputContract struct {
	Sections   []Section  `json:"sections"`
	Vocabulary Vocabulary `json:"vocabulary"`
}

// RequiredSections returns the IDs of sections that must be present.
func (c OutputContract) RequiredSections() []string {
	var ids []string
	for _, s := range c.Sections {
		if s.Required {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// Section returns the contract section with the given ID.
func (c OutputContract) Section(id string) (Section, bool) {
	for _, s := range c.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// Constraints bound the size of the prompt and of the generated report.
type Constraints struct {
	MaxHighlights int `json:"max_highlights"`
	MaxPriorities int `json:"max_priorities"`
	TokenBudget   int `json:"token_budget"`
}

// PromptPayload is the single request built for the completion boundary.
type PromptPayload struct {
	SystemInstructions string         `json:"system_instructions"`
	AggregatedContext  string         `json:"aggregated_context"`
	OutputContract     OutputContract `json:"output_contract"`
	Constraints        Constraints    `json:"constraints"`

	// Prompt is the full user message: contract instructions followed by the context.
	Prompt string `json:"prompt"`

	// IncludedSources lists, in order, the sources whose text made it into the context.
	IncludedSources []string `json:"included_sources"`

	// DroppedSources lists usable sources cut by the token budget.
	DroppedSources []string `json:"dropped_sources,omitempty"`

	ContextTokens int `json:"context_tokens"`

	// DataAsOf is the freshest modification time among included sources.
	DataAsOf time.Time `json:"data_as_of,omitzero"`
}
