// Package serp consumes the competitor-data service: SERP competitor
// records for a keyword, plus on-page content fetches for individual URLs.
package serp

import (
	"context"

	"briefcraft/internal/brief"
)

// OnPageContent is the fetched on-page structure of one URL. Parse
// failures are reported in-band with the PARSE_FAILED sentinel rather than
// as errors, matching the competitor-data service contract.
type OnPageContent struct {
	H1s       []string `json:"H1s"`
	H2s       []string `json:"H2s"`
	H3s       []string `json:"H3s"`
	WordCount int      `json:"Word_Count"`
	FullText  string   `json:"Full_Text"`
}

// ParseFailed returns the sentinel record for an unparseable page.
func ParseFailed() OnPageContent {
	return OnPageContent{H1s: []string{brief.ParseFailedSentinel}, WordCount: 0}
}

// Source returns the competitor records for a keyword. Implementations
// wrap whatever SERP provider is configured.
type Source interface {
	Competitors(ctx context.Context, keyword, country, language string) ([]brief.CompetitorPage, error)
}

// OnPageFetcher fetches the on-page structure of a single URL.
type OnPageFetcher interface {
	FetchPage(ctx context.Context, url string) (OnPageContent, error)
}
