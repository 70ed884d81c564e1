// Package main implements competitor fetching and management commands.
package main

import (
	"fmt"
	"os"
	"strings"

	"briefcraft/internal/serp"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	competitorURLFile string
	competitorReplace bool
)

var competitorsCmd = &cobra.Command{
	Use:   "competitors",
	Short: "Fetch and manage competitor pages for a brief",
}

var competitorsFetchCmd = &cobra.Command{
	Use:   "fetch <brief-id> [url...]",
	Short: "Fetch competitor pages and attach them to a brief",
	Long: `Fetch the given competitor URLs, extract headings and body text,
and store the results on the brief. Pages that cannot be parsed are kept
as PARSE_FAILED records so the stage prompts can account for them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompetitorsFetch,
}

var competitorsListCmd = &cobra.Command{
	Use:   "list <brief-id>",
	Short: "List a brief's competitor pages",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompetitorsList,
}

var competitorsStarCmd = &cobra.Command{
	Use:   "star <brief-id> <url>",
	Short: "Toggle a competitor page's ground-truth star",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompetitorsStar,
}

func init() {
	competitorsFetchCmd.Flags().StringVarP(&competitorURLFile, "file", "f", "", "file with one URL per line")
	competitorsFetchCmd.Flags().BoolVar(&competitorReplace, "replace", false, "replace existing competitors instead of appending")

	competitorsCmd.AddCommand(competitorsFetchCmd)
	competitorsCmd.AddCommand(competitorsListCmd)
	competitorsCmd.AddCommand(competitorsStarCmd)
}

func runCompetitorsFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	urls := args[1:]
	if competitorURLFile != "" {
		fileURLs, err := readURLFile(competitorURLFile)
		if err != nil {
			return err
		}
		urls = append(urls, fileURLs...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given (pass URLs as arguments or use --file)")
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	b, err := st.Get(ctx, args[0])
	if err != nil {
		return err
	}

	fetcher, closeFetcher := newFetcher()
	defer closeFetcher()

	source := &serp.URLListSource{
		URLs:        urls,
		Fetcher:     fetcher,
		Concurrency: cfg.Serp.Concurrency,
		Logger:      logger,
	}

	fmt.Printf("Fetching %d competitor pages...\n", len(urls))
	pages, err := source.Competitors(ctx, b.Keyword, b.Country, b.Language)
	if err != nil {
		return err
	}

	failed := 0
	for i := range pages {
		if pages[i].ParseFailed() {
			failed++
		}
	}
	logger.Info("competitor fetch complete",
		zap.String("brief", b.ID),
		zap.Int("fetched", len(pages)),
		zap.Int("failed", failed))

	if competitorReplace {
		b.Competitors = pages
	} else {
		b.Competitors = append(b.Competitors, pages...)
	}
	if err := st.Put(ctx, b); err != nil {
		return fmt.Errorf("save brief: %w", err)
	}
	fmt.Printf("Fetched %d pages (%d parse failures)\n", len(pages), failed)
	return nil
}

func runCompetitorsList(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	b, err := st.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(b.Competitors) == 0 {
		fmt.Println("No competitors fetched.")
		return nil
	}
	for _, p := range b.Competitors {
		star := " "
		if p.IsStarred {
			star = "*"
		}
		state := fmt.Sprintf("%d words", p.WordCount)
		if p.ParseFailed() {
			state = "parse failed"
		}
		fmt.Printf("  %s %-60s %s\n", star, p.URL, state)
	}
	return nil
}

func runCompetitorsStar(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	b, err := st.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	for i := range b.Competitors {
		if b.Competitors[i].URL != args[1] {
			continue
		}
		b.Competitors[i].IsStarred = !b.Competitors[i].IsStarred
		if err := st.Put(cmd.Context(), b); err != nil {
			return fmt.Errorf("save brief: %w", err)
		}
		if b.Competitors[i].IsStarred {
			fmt.Printf("Starred %s\n", args[1])
		} else {
			fmt.Printf("Unstarred %s\n", args[1])
		}
		return nil
	}
	return fmt.Errorf("no competitor with URL %q", args[1])
}

func readURLFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read URL file: %w", err)
	}
	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, nil
}
