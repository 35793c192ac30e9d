package report

import (
	"testing"

	"github.com/spboyer/pulse/internal/models"
	"github.com/spboyer/pulse/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContract(t *testing.T, sections ...string) models.OutputContract {
	t.Helper()
	if len(sections) == 0 {
		sections = prompt.DefaultSections()
	}
	contract, err := prompt.BuildContract(prompt.ReportConfig{
		Sections:      sections,
		MaxHighlights: 3,
		MaxPriorities: 3,
		Vocabulary:    prompt.DefaultVocabulary(),
	})
	require.NoError(t, err)
	return contract
}

const fullResponse = `Overall: steady week.

### 1. AT-A-GLANCE DASHBOARD
| Area | Status | Key Metric | Trend |
|---|---|---|---|
| Platform | 🟢 On Track | 99.9% uptime | ▲ |

> Overall status summary here

### 2. EXECUTIVE HIGHLIGHTS
- **API v2.0 migration** → +40% performance

### 3. TOP RISKS & MITIGATIONS
| Risk | Severity | Owner | Mitigation / ETA |
|---|---|---|---|
| Vendor delay | 🟠 High | Ops | Escalate by Fri |

#### Detail
Vendor says two weeks.

### 6. NEXT WEEK / EXECUTIVE ACTIONS
1. Ship beta (Jun 12)

### 7. Decisions Needed
- Approve budget
`

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "\n### A\nbody\n", want: "### A\nbody"},
		{name: "fenced", in: "```\n### A\nbody\n```", want: "### A\nbody"},
		{name: "fenced with language", in: "```markdown\n### A\nbody\n```\n", want: "### A\nbody"},
		{name: "crlf", in: "```md\r\n### A\r\n```", want: "### A"},
		{name: "unterminated fence left alone", in: "```\n### A", want: "```\n### A"},
		{name: "inline code left alone", in: "```x``` text", want: "```x``` text"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripCodeFences(tc.in))
		})
	}
}

func TestParse(t *testing.T) {
	parsed := Parse(fullResponse, testContract(t))

	assert.Equal(t, "Overall: steady week.", parsed.Preamble)

	var ids []string
	for _, s := range parsed.Sections {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{
		prompt.SectionDashboard,
		prompt.SectionHighlights,
		prompt.SectionRisks,
		prompt.SectionNextWeek,
		prompt.SectionDecisions,
	}, ids)

	dash, ok := parsed.Section(prompt.SectionDashboard)
	require.True(t, ok)
	assert.Equal(t, "1. AT-A-GLANCE DASHBOARD", dash.Heading)
	assert.Contains(t, dash.Body, "🟢 On Track")
	assert.NotContains(t, dash.Body, "HIGHLIGHTS")

	risks, ok := parsed.Section(prompt.SectionRisks)
	require.True(t, ok)
	assert.Contains(t, risks.Body, "#### Detail", "unrecognized headings stay in the current section")

	_, ok = parsed.Section(prompt.SectionMetrics)
	assert.False(t, ok)
	assert.Empty(t, parsed.MissingRequired(testContract(t)))
}

func TestParse_FencedResponse(t *testing.T) {
	parsed := Parse("```markdown\n"+fullResponse+"```", testContract(t))
	_, ok := parsed.Section(prompt.SectionDashboard)
	assert.True(t, ok)
	assert.NotContains(t, parsed.Body, "```")
}

func TestParse_SectionClaimedOnce(t *testing.T) {
	raw := "## Dashboard\n| a |\n## Dashboard (continued)\n| b |"
	parsed := Parse(raw, testContract(t, prompt.SectionDashboard))
	require.Len(t, parsed.Sections, 1)
	assert.Contains(t, parsed.Sections[0].Body, "| b |")
}

func TestParse_HeadingsInsideCodeBlocksIgnored(t *testing.T) {
	raw := "### Dashboard\nrow\n```\n### Key Wins\n```\n"
	parsed := Parse(raw, testContract(t, prompt.SectionDashboard, prompt.SectionWins))
	require.Len(t, parsed.Sections, 1)
	assert.Equal(t, prompt.SectionDashboard, parsed.Sections[0].ID)
}

func TestParse_AliasesMatchWholeWords(t *testing.T) {
	tests := []struct {
		heading string
		want    string
	}{
		{heading: "### 4. KEY WINS 🏆", want: prompt.SectionWins},
		{heading: "### Metrics Snapshot", want: prompt.SectionMetrics},
		{heading: "### Top Risks & Mitigations", want: prompt.SectionRisks},
		{heading: "### Next Week's Priorities", want: prompt.SectionNextWeek},
		{heading: "### Window Migration", want: ""},
		{heading: "### Biometrics Rollout", want: ""},
		{heading: "### Asterisk Notes", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.heading, func(t *testing.T) {
			contract := testContract(t, prompt.SectionWins, prompt.SectionMetrics, prompt.SectionRisks, prompt.SectionNextWeek)
			parsed := Parse(tc.heading+"\nbody", contract)
			if tc.want == "" {
				assert.Empty(t, parsed.Sections)
				assert.Contains(t, parsed.Preamble, "body")
				return
			}
			require.Len(t, parsed.Sections, 1)
			assert.Equal(t, tc.want, parsed.Sections[0].ID)
		})
	}
}

func TestMissingRequired(t *testing.T) {
	contract := testContract(t)
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "no headings", raw: "just some prose", want: []string{prompt.SectionDashboard}},
		{name: "empty dashboard", raw: "### Dashboard\n\n### Key Wins\n- 🚀 shipped", want: []string{prompt.SectionDashboard}},
		{name: "only optional missing", raw: "### Dashboard\n| x |", want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Parse(tc.raw, contract).MissingRequired(contract))
		})
	}
}
