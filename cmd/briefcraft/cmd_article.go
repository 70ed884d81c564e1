// Package main implements article writing, validation, and diff
// application commands.
package main

import (
	"fmt"
	"os"
	"strings"

	"briefcraft/internal/article"
	"briefcraft/internal/brief"
	"briefcraft/internal/validation"
	"briefcraft/internal/writer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	articleOut        string
	articleTarget     int
	articleStrict     bool
	articleQuiet      bool
	validateNotes     string
	validateFollowUp  bool
	applySelectedIDs  []string
	applyInPlaceWrite bool
)

var articleCmd = &cobra.Command{
	Use:   "article",
	Short: "Write and validate articles from a brief",
}

var articleWriteCmd = &cobra.Command{
	Use:   "write <brief-id>",
	Short: "Write the full article section by section",
	Long: `Write the article described by the brief's outline. Sections are
generated sequentially against a shared word budget and streamed to the
terminal as they arrive.`,
	Args: cobra.ExactArgs(1),
	RunE: runArticleWrite,
}

var articleValidateCmd = &cobra.Command{
	Use:   "validate <brief-id> <article.md>",
	Short: "Validate an article against its brief",
	Args:  cobra.ExactArgs(2),
	RunE:  runArticleValidate,
}

var articleApplyCmd = &cobra.Command{
	Use:   "apply <brief-id> <article.md>",
	Short: "Apply proposed validation changes to an article",
	Args:  cobra.ExactArgs(2),
	RunE:  runArticleApply,
}

func init() {
	articleWriteCmd.Flags().StringVarP(&articleOut, "out", "o", "", "write the article to a file")
	articleWriteCmd.Flags().IntVar(&articleTarget, "words", 0, "global word target (overrides config)")
	articleWriteCmd.Flags().BoolVar(&articleStrict, "strict", false, "enforce tight per-section word bands")
	articleWriteCmd.Flags().BoolVarP(&articleQuiet, "quiet", "q", false, "suppress streaming output")

	articleValidateCmd.Flags().StringVar(&validateNotes, "instructions", "", "extra validation instructions")
	articleValidateCmd.Flags().BoolVar(&validateFollowUp, "follow-up", false, "re-validate carrying forward prior unresolved changes")

	articleApplyCmd.Flags().StringSliceVar(&applySelectedIDs, "changes", nil, "change ids to apply (default: all applicable)")
	articleApplyCmd.Flags().BoolVarP(&applyInPlaceWrite, "write", "w", false, "rewrite the article file in place")
}

func runArticleWrite(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	b, err := st.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if b.ArticleStructure == nil {
		return fmt.Errorf("brief has no outline yet; run the outline stage first")
	}

	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	opts := writer.Options{
		GlobalWordTarget:   cfg.Writer.GlobalWordTarget,
		Strict:             cfg.Writer.Strict || articleStrict,
		ContextWindowWords: cfg.Writer.ContextWindowWords,
		LookaheadHeadings:  cfg.Writer.LookaheadHeadings,
	}
	if articleTarget > 0 {
		opts.GlobalWordTarget = articleTarget
	}

	var onChunk writer.StreamFunc
	lastSection := -1
	if !articleQuiet {
		onChunk = func(sectionIndex int, chunk string) {
			if sectionIndex != lastSection {
				if lastSection >= 0 {
					fmt.Print("\n\n")
				}
				lastSection = sectionIndex
			}
			fmt.Print(chunk)
		}
	}

	w := writer.New(client, opts, logger)
	results, err := w.WriteArticle(ctx, b, onChunk)
	if err != nil {
		return err
	}
	if !articleQuiet {
		fmt.Print("\n\n")
	}

	text := article.Assemble(b, results)
	total := 0
	for _, r := range results {
		total += r.Words
	}
	logger.Info("article written",
		zap.String("brief", b.ID),
		zap.Int("sections", len(results)),
		zap.Int("words", total))

	if articleOut != "" {
		if err := os.WriteFile(articleOut, []byte(text), 0o644); err != nil {
			return fmt.Errorf("write article: %w", err)
		}
		fmt.Printf("Wrote %d sections (%d words) to %s\n", len(results), total, articleOut)
	} else if articleQuiet {
		fmt.Print(text)
	}
	return nil
}

func runArticleValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	b, err := st.Get(ctx, args[0])
	if err != nil {
		return err
	}
	articleText, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read article: %w", err)
	}

	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	req := validation.Request{
		Brief:        b,
		Article:      string(articleText),
		Instructions: validateNotes,
	}
	if cfg.Writer.GlobalWordTarget > 0 {
		mode := "flexible"
		if cfg.Writer.Strict {
			mode = "strict"
		}
		req.LengthConstraints = fmt.Sprintf("global target %d words, %s mode", cfg.Writer.GlobalWordTarget, mode)
	}
	if validateFollowUp {
		req.Prior = b.Validation
	}

	engine := validation.NewEngine(client, logger)
	result, err := engine.Validate(ctx, req)
	if err != nil {
		return err
	}

	b.Validation = result
	if err := st.Put(ctx, b); err != nil {
		return fmt.Errorf("save brief: %w", err)
	}

	printValidation(result)
	return nil
}

func printValidation(result *brief.ValidationResult) {
	fmt.Printf("Overall score: %.1f/100\n\n", result.OverallScore)
	fmt.Printf("  Brief alignment: %d\n", result.Scores.Alignment)
	fmt.Printf("  Structure:       %d\n", result.Scores.Structure)
	fmt.Printf("  Keywords:        %d\n", result.Scores.Keywords)
	fmt.Printf("  Paragraphs:      %d\n", result.Scores.Paragraphs)
	fmt.Printf("  Word count:      %d\n", result.Scores.WordCount)
	fmt.Printf("\n%s\n", result.Summary)

	if len(result.Changes) == 0 {
		fmt.Println("\nNo changes proposed.")
		return
	}
	fmt.Printf("\nProposed changes (%d):\n", len(result.Changes))
	for _, ch := range result.Changes {
		marker := " "
		if !ch.Applicable() {
			marker = "!"
		}
		fmt.Printf("  [%s] %s  (%s)  %s\n", marker, ch.ID, ch.Severity, ch.Description)
	}
}

func runArticleApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	b, err := st.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if b.Validation == nil || len(b.Validation.Changes) == 0 {
		return fmt.Errorf("brief has no proposed changes; run validate first")
	}
	articleText, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read article: %w", err)
	}

	edited, report := validation.Apply(string(articleText), b.Validation.Changes, applySelectedIDs)
	fmt.Printf("Applied %d changes, skipped %d\n", report.Applied, report.Skipped)

	if applyInPlaceWrite {
		if err := os.WriteFile(args[1], []byte(edited), 0o644); err != nil {
			return fmt.Errorf("rewrite article: %w", err)
		}
		fmt.Printf("Updated %s\n", args[1])
		return nil
	}
	if !strings.HasSuffix(edited, "\n") {
		edited += "\n"
	}
	fmt.Print(edited)
	return nil
}
