// Package article assembles written sections into a markdown article and
// splits articles back into sections and paragraphs for validation
// location matching.
package article

import (
	"strings"

	"briefcraft/internal/brief"
	"briefcraft/internal/writer"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Assemble joins section bodies under their outline headings into one
// markdown document. Hero sections render as the untitled introduction
// directly under the H1.
func Assemble(b *brief.Brief, sections []writer.SectionResult) string {
	var sb strings.Builder

	title := b.Keyword
	if b.OnPageSeo != nil && b.OnPageSeo.H1.Value != "" {
		title = b.OnPageSeo.H1.Value
	}
	sb.WriteString("# " + title + "\n\n")

	for _, s := range sections {
		if prefix := headingPrefix(s.Node.Level); prefix != "" {
			sb.WriteString(prefix + " " + s.Node.Heading + "\n\n")
		}
		sb.WriteString(strings.TrimSpace(s.Body))
		sb.WriteString("\n\n")
	}

	if len(b.FAQs) > 0 {
		sb.WriteString("## Frequently Asked Questions\n\n")
		for _, faq := range b.FAQs {
			sb.WriteString("### " + faq.Question + "\n\n")
			sb.WriteString(strings.TrimSpace(faq.Answer))
			sb.WriteString("\n\n")
		}
	}

	return strings.TrimSpace(sb.String()) + "\n"
}

func headingPrefix(level string) string {
	switch level {
	case "hero":
		return ""
	case "h3":
		return "###"
	case "h4":
		return "####"
	default: // h2, conclusion
		return "##"
	}
}

// Section is a parsed article section: a heading and its paragraphs.
type Section struct {
	Heading    string
	Level      int
	Paragraphs []string
}

// Split parses a markdown article into sections. Text before the first
// heading belongs to an untitled leading section.
func Split(markdown string) []Section {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	sections := []Section{{}}
	cur := func() *Section { return &sections[len(sections)-1] }

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			sections = append(sections, Section{
				Heading: string(node.Text(source)),
				Level:   node.Level,
			})
		case *ast.Paragraph:
			cur().Paragraphs = append(cur().Paragraphs, paragraphText(node, source))
		}
	}

	// Drop the leading section if nothing preceded the first heading.
	if len(sections) > 1 && sections[0].Heading == "" && len(sections[0].Paragraphs) == 0 {
		sections = sections[1:]
	}
	return sections
}

// Paragraphs returns every paragraph of the article in document order.
// Paragraph indices in proposed-change locations refer to this ordering.
func Paragraphs(markdown string) []string {
	var out []string
	for _, s := range Split(markdown) {
		out = append(out, s.Paragraphs...)
	}
	return out
}

func paragraphText(node *ast.Paragraph, source []byte) string {
	var sb strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return strings.TrimSpace(sb.String())
}
