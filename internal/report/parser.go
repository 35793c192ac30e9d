package report

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/spboyer/pulse/internal/models"
)

var (
	headingRe       = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	headingNumberRe = regexp.MustCompile(`^\d+[.)]\s*`)
)

// ParsedSection is one contract section found in a response.
type ParsedSection struct {
	ID      string
	Heading string
	Body    string
}

// ParsedReport is a model response split into contract sections.
type ParsedReport struct {
	// Body is the full response with any wrapping code fence removed.
	Body string

	// Preamble is any text before the first recognized section.
	Preamble string

	Sections []ParsedSection
}

// Section returns the parsed section with the given ID.
func (p ParsedReport) Section(id string) (ParsedSection, bool) {
	for _, s := range p.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return ParsedSection{}, false
}

// MissingRequired lists required contract sections that are absent or empty.
func (p ParsedReport) MissingRequired(contract models.OutputContract) []string {
	var missing []string
	for _, id := range contract.RequiredSections() {
		s, ok := p.Section(id)
		if !ok || strings.TrimSpace(s.Body) == "" {
			missing = append(missing, id)
		}
	}
	return missing
}

// StripCodeFences unwraps a response that was wrapped in a ``` block despite
// instructions.
func StripCodeFences(raw string) string {
	text := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	if !strings.HasPrefix(text, "```") {
		return text
	}
	first, rest, found := strings.Cut(text, "\n")
	if !found || strings.Contains(strings.TrimPrefix(first, "```"), "`") {
		return text
	}
	rest = strings.TrimRight(rest, " \t\n")
	if !strings.HasSuffix(rest, "```") {
		return text
	}
	return strings.TrimSpace(strings.TrimSuffix(rest, "```"))
}

// Parse splits raw into the contract's sections. A heading starts a section
// when its words contain one of the section's aliases; each section is
// claimed at most once. Unrecognized headings stay in the current section.
func Parse(raw string, contract models.OutputContract) ParsedReport {
	body := StripCodeFences(raw)
	report := ParsedReport{Body: body}

	claimed := make(map[string]bool, len(contract.Sections))
	var (
		current  *ParsedSection
		buf      []string
		preamble []string
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.TrimSpace(strings.Join(buf, "\n"))
		report.Sections = append(report.Sections, *current)
		current, buf = nil, nil
	}

	inFence := false
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if !inFence {
			if m := headingRe.FindStringSubmatch(line); m != nil {
				if id, ok := matchSection(m[2], contract, claimed); ok {
					flush()
					claimed[id] = true
					current = &ParsedSection{ID: id, Heading: m[2]}
					continue
				}
			}
		}
		if current == nil {
			preamble = append(preamble, line)
		} else {
			buf = append(buf, line)
		}
	}
	flush()

	report.Preamble = strings.TrimSpace(strings.Join(preamble, "\n"))
	return report
}

func matchSection(heading string, contract models.OutputContract, claimed map[string]bool) (string, bool) {
	text := strings.ToLower(strings.TrimSpace(heading))
	text = strings.Trim(text, "*_ ")
	text = headingNumberRe.ReplaceAllString(text, "")
	for _, s := range contract.Sections {
		if claimed[s.ID] {
			continue
		}
		for _, alias := range s.Aliases {
			if containsWords(words(text), words(alias)) {
				return s.ID, true
			}
		}
	}
	return "", false
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsWords reports whether want appears as consecutive whole words in
// have. The last word may carry a plural "s" or "es".
func containsWords(have, want []string) bool {
	if len(want) == 0 {
		return false
	}
	for i := 0; i+len(want) <= len(have); i++ {
		match := true
		for j, w := range want {
			got := have[i+j]
			if got == w {
				continue
			}
			if j == len(want)-1 && (got == w+"s" || got == w+"es") {
				continue
			}
			match = false
			break
		}
		if match {
			return true
		}
	}
	return false
}
