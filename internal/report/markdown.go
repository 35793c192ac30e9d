package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---"

// frontMatter is the YAML header of a Markdown artifact.
type frontMatter struct {
	Title       string   `yaml:"title"`
	Date        string   `yaml:"date"`
	RunID       string   `yaml:"run_id,omitempty"`
	GeneratedAt string   `yaml:"generated_at"`
	Model       string   `yaml:"model,omitempty"`
	Status      string   `yaml:"status"`
	Sources     []string `yaml:"sources,omitempty"`
	DataAsOf    string   `yaml:"data_as_of,omitempty"`
	Reason      string   `yaml:"reason,omitempty"`
}

func newFrontMatter(meta Metadata, status string) frontMatter {
	fm := frontMatter{
		Title:       meta.Title,
		Date:        meta.RunDate.Format(DateLayout),
		RunID:       meta.RunID,
		GeneratedAt: meta.GeneratedAt.UTC().Format(time.RFC3339),
		Model:       meta.ModelID,
		Status:      status,
		Sources:     meta.Sources,
	}
	if !meta.DataAsOf.IsZero() {
		fm.DataAsOf = meta.DataAsOf.UTC().Format(time.RFC3339)
	}
	return fm
}

func writeFrontMatter(buf *bytes.Buffer, fm frontMatter) error {
	data, err := yaml.Marshal(fm)
	if err != nil {
		return fmt.Errorf("encoding front matter: %w", err)
	}
	buf.WriteString(frontMatterDelim + "\n")
	buf.Write(data)
	buf.WriteString(frontMatterDelim + "\n\n")
	return nil
}

// readFrontMatter decodes the YAML header of a Markdown artifact.
func readFrontMatter(content string) (frontMatter, bool) {
	var fm frontMatter
	rest, ok := strings.CutPrefix(content, frontMatterDelim+"\n")
	if !ok {
		return fm, false
	}
	header, _, ok := strings.Cut(rest, "\n"+frontMatterDelim+"\n")
	if !ok {
		return fm, false
	}
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return fm, false
	}
	return fm, true
}

func heading(meta Metadata) string {
	return fmt.Sprintf("# %s (%s)", meta.Title, meta.RunDate.Format(DateLayout))
}

func footer(meta Metadata) string {
	sources := "none"
	if len(meta.Sources) > 0 {
		sources = strings.Join(meta.Sources, ", ")
	}
	return fmt.Sprintf("---\n*Generated automatically by pulse | %s*\n*Sources: %s*\n",
		meta.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"), sources)
}

// renderMarkdown passes the response body through under front matter, a title
// heading and a footer.
func renderMarkdown(parsed ParsedReport, meta Metadata) (string, error) {
	var buf bytes.Buffer
	if err := writeFrontMatter(&buf, newFrontMatter(meta, statusRendered)); err != nil {
		return "", err
	}
	buf.WriteString(heading(meta) + "\n\n")
	buf.WriteString(parsed.Body)
	buf.WriteString("\n\n" + footer(meta))
	return buf.String(), nil
}

func renderMarkdownPlaceholder(meta Metadata, reason string) (string, error) {
	fm := newFrontMatter(meta, statusPlaceholder)
	fm.Reason = reason

	var buf bytes.Buffer
	if err := writeFrontMatter(&buf, fm); err != nil {
		return "", err
	}
	buf.WriteString(heading(meta) + "\n\n")
	buf.WriteString("> ⚠️ " + SetupGuidance + "\n\n")
	if reason != "" {
		buf.WriteString("**Reason:** " + reason + "\n\n")
	}
	buf.WriteString("## Setup\n\n")
	for i, step := range setupSteps(meta) {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, step)
	}
	buf.WriteString("\n" + footer(meta))
	return buf.String(), nil
}
