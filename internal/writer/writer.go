package writer

import (
	"context"
	"fmt"
	"strings"

	"briefcraft/internal/brief"
	"briefcraft/internal/generation"

	"go.uber.org/zap"
)

// Options tunes the section writer.
type Options struct {
	// GlobalWordTarget is the article-wide word budget; zero disables
	// budget constraints for sections without explicit targets.
	GlobalWordTarget int

	// Strict narrows the per-section band to +-10% and enables the
	// condense pass for sections over 120% of target.
	Strict bool

	// ContextWindowWords bounds the trailing excerpt of already-written
	// content carried into each section prompt.
	ContextWindowWords int

	// LookaheadHeadings is how many upcoming headings each prompt sees.
	LookaheadHeadings int
}

// DefaultOptions returns the stock writer tuning.
func DefaultOptions() Options {
	return Options{
		ContextWindowWords: 600,
		LookaheadHeadings:  3,
	}
}

// SectionResult is one written section.
type SectionResult struct {
	Node    *brief.OutlineItem
	Body    string
	Words   int
	Trimmed bool
}

// StreamFunc receives incremental body text as it is generated. Chunks for
// consecutive sections arrive in outline order; section N+1 never starts
// before section N is finalized.
type StreamFunc func(sectionIndex int, chunk string)

// Writer generates article sections sequentially.
type Writer struct {
	client *generation.Client
	opts   Options
	logger *zap.Logger
}

// New creates a section writer.
func New(client *generation.Client, opts Options, logger *zap.Logger) *Writer {
	if opts.ContextWindowWords <= 0 {
		opts.ContextWindowWords = DefaultOptions().ContextWindowWords
	}
	if opts.LookaheadHeadings <= 0 {
		opts.LookaheadHeadings = DefaultOptions().LookaheadHeadings
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{client: client, opts: opts, logger: logger}
}

// WriteArticle writes every outline section in order. onChunk may be nil,
// in which case each section is generated with a single retried
// non-streaming call.
func (w *Writer) WriteArticle(ctx context.Context, b *brief.Brief, onChunk StreamFunc) ([]SectionResult, error) {
	if b.ArticleStructure == nil || len(b.ArticleStructure.Items) == 0 {
		return nil, fmt.Errorf("brief has no article structure")
	}

	sections := brief.FlattenSections(b.ArticleStructure.Items)
	globalTarget := w.opts.GlobalWordTarget
	if globalTarget == 0 {
		globalTarget = b.ArticleStructure.TotalTargetWordCount
	}

	results := make([]SectionResult, 0, len(sections))
	var contentSoFar strings.Builder
	wordsWritten := 0

	for i, node := range sections {
		budget := Allocate(BudgetInput{
			GlobalTarget:  globalTarget,
			Strict:        w.opts.Strict,
			TotalSections: len(sections),
			WordsWritten:  wordsWritten,
			SectionIndex:  i,
			SectionTarget: node.TargetWordCount,
		})

		prompt := sectionPrompt(b, node, budget,
			trailingWindow(contentSoFar.String(), w.opts.ContextWindowWords),
			upcomingHeadings(sections, i, w.opts.LookaheadHeadings),
			gapNotesFor(b, node, i))

		body, err := w.writeSection(ctx, i, node, prompt, onChunk)
		if err != nil {
			return results, fmt.Errorf("section %d (%s): %w", i, node.Heading, err)
		}
		body = stripEchoedHeading(body, node.Heading)

		trimmed := false
		if w.opts.Strict && budget.Target > 0 && WordCount(body) > int(float64(budget.Target)*trimThreshold) {
			if condensed, err := w.condense(ctx, body, budget.Target); err == nil {
				body = condensed
				trimmed = true
			} else {
				// A failed trim keeps the untrimmed section rather than
				// losing content.
				w.logger.Warn("condense pass failed, keeping untrimmed section",
					zap.String("heading", node.Heading), zap.Error(err))
			}
		}

		words := WordCount(body)
		wordsWritten += words
		contentSoFar.WriteString(body)
		contentSoFar.WriteString("\n\n")

		w.logger.Info("section written",
			zap.Int("index", i),
			zap.String("heading", node.Heading),
			zap.Int("words", words),
			zap.Int("target", budget.Target),
			zap.Bool("trimmed", trimmed))

		results = append(results, SectionResult{Node: node, Body: body, Words: words, Trimmed: trimmed})
	}

	return results, nil
}

// writeSection generates one section body, streaming when a callback is
// supplied and falling back to a retried non-streaming call when streaming
// fails before any text arrived.
func (w *Writer) writeSection(ctx context.Context, index int, node *brief.OutlineItem, prompt string, onChunk StreamFunc) (string, error) {
	req := generation.GenRequest{
		Op:           fmt.Sprintf("section-%d", index),
		Tier:         generation.TierMain,
		SystemPrompt: sectionSystemPrompt,
		UserPrompt:   prompt,
		Effort:       generation.EffortMedium,
	}

	if onChunk == nil {
		return w.client.Generate(ctx, req)
	}

	contentChan, errorChan := w.client.GenerateStream(ctx, req)
	var body strings.Builder
	for chunk := range contentChan {
		body.WriteString(chunk)
		onChunk(index, chunk)
	}
	if err := <-errorChan; err != nil {
		if body.Len() == 0 {
			// Nothing streamed; a full retried non-streaming call can
			// still save the section.
			w.logger.Warn("stream failed before first chunk, falling back",
				zap.String("heading", node.Heading), zap.Error(err))
			return w.client.Generate(ctx, req)
		}
		return "", err
	}
	if strings.TrimSpace(body.String()) == "" {
		return "", generation.ErrEmptyCompletion
	}
	return strings.TrimSpace(body.String()), nil
}

// condense issues the "condense to N words" call on the fast tier.
func (w *Writer) condense(ctx context.Context, body string, target int) (string, error) {
	return w.client.Generate(ctx, generation.GenRequest{
		Op:           "condense",
		Tier:         generation.TierFast,
		SystemPrompt: condenseSystemPrompt,
		UserPrompt:   fmt.Sprintf("Condense the following section to about %d words:\n\n%s", target, body),
		Effort:       generation.EffortMinimal,
	})
}

// trailingWindow returns the last n words of text.
func trailingWindow(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.TrimSpace(text)
	}
	return strings.Join(words[len(words)-n:], " ")
}

// upcomingHeadings lists the next n section headings after index i.
func upcomingHeadings(sections []*brief.OutlineItem, i, n int) []string {
	var out []string
	for j := i + 1; j < len(sections) && len(out) < n; j++ {
		out = append(out, sections[j].Heading)
	}
	return out
}

// stripEchoedHeading drops a leading markdown heading that repeats the
// section heading. Headings must never appear in body text.
func stripEchoedHeading(body, heading string) string {
	trimmed := strings.TrimSpace(body)
	lines := strings.SplitN(trimmed, "\n", 2)
	first := strings.TrimSpace(lines[0])
	bare := strings.TrimSpace(strings.TrimLeft(first, "# "))
	if strings.HasPrefix(first, "#") && strings.EqualFold(bare, strings.TrimSpace(heading)) {
		if len(lines) == 2 {
			return strings.TrimSpace(lines[1])
		}
		return ""
	}
	return trimmed
}
