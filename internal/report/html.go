package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/spboyer/pulse/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

//go:embed report.html.tmpl
var htmlTemplateText string

var htmlTemplate = template.Must(template.New("report").Parse(htmlTemplateText))

type htmlSection struct {
	ID      string
	Title   string
	Content template.HTML
}

type htmlPage struct {
	Title       string
	Date        string
	Status      string
	RunID       string
	Model       string
	GeneratedAt string
	DataAsOf    string
	Sources     string

	Summary  template.HTML
	Sections []htmlSection

	Placeholder bool
	Guidance    string
	Reason      string
	Steps       []string
}

// badgeTransformer tags table cells that contain a vocabulary symbol with a
// badge class.
type badgeTransformer struct {
	vocabulary models.Vocabulary
}

func (b *badgeTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		cell, ok := n.(*extast.TableCell)
		if !ok {
			return ast.WalkContinue, nil
		}
		if class, ok := b.vocabulary.BadgeClass(nodeText(cell, source)); ok {
			cell.SetAttributeString("class", []byte(class))
		}
		return ast.WalkSkipChildren, nil
	})
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func newMarkdownConverter(vocabulary models.Vocabulary) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(&badgeTransformer{vocabulary: vocabulary}, 100)),
		),
	)
}

func toHTML(md goldmark.Markdown, source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	// goldmark escapes raw HTML in its default (unsafe off) mode.
	return template.HTML(buf.String()), nil //nolint:gosec
}

func newHTMLPage(meta Metadata, status string) htmlPage {
	page := htmlPage{
		Title:       meta.Title,
		Date:        meta.RunDate.Format(DateLayout),
		Status:      status,
		RunID:       meta.RunID,
		Model:       meta.ModelID,
		GeneratedAt: meta.GeneratedAt.UTC().Format(time.RFC3339),
		DataAsOf:    "unknown",
		Sources:     strings.Join(meta.Sources, ", "),
	}
	if !meta.DataAsOf.IsZero() {
		page.DataAsOf = meta.DataAsOf.UTC().Format(time.RFC3339)
	}
	return page
}

// renderHTML substitutes the parsed sections, in contract order, into the
// page template. Absent sections are omitted.
func renderHTML(parsed ParsedReport, contract models.OutputContract, meta Metadata) (string, error) {
	md := newMarkdownConverter(contract.Vocabulary)
	page := newHTMLPage(meta, statusRendered)

	if parsed.Preamble != "" {
		summary, err := toHTML(md, parsed.Preamble)
		if err != nil {
			return "", fmt.Errorf("converting summary: %w", err)
		}
		page.Summary = summary
	}

	for _, s := range contract.Sections {
		ps, ok := parsed.Section(s.ID)
		if !ok || strings.TrimSpace(ps.Body) == "" {
			continue
		}
		content, err := toHTML(md, ps.Body)
		if err != nil {
			return "", fmt.Errorf("converting section %s: %w", s.ID, err)
		}
		page.Sections = append(page.Sections, htmlSection{ID: s.ID, Title: s.Title, Content: content})
	}

	return executeHTML(page)
}

func renderHTMLPlaceholder(meta Metadata, reason string) (string, error) {
	page := newHTMLPage(meta, statusPlaceholder)
	page.Placeholder = true
	page.Guidance = SetupGuidance
	page.Reason = reason
	page.Steps = setupSteps(meta)
	return executeHTML(page)
}

func executeHTML(page htmlPage) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("executing html template: %w", err)
	}
	return buf.String(), nil
}
