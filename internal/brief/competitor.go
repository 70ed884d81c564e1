package brief

// ParseFailedSentinel is the H1 value the on-page fetcher reports when a
// competitor page could not be parsed. Such records also carry Word_Count 0.
const ParseFailedSentinel = "PARSE_FAILED"

// KeywordRanking is one SERP position a competitor page holds.
type KeywordRanking struct {
	Keyword  string `json:"keyword"`
	Position int    `json:"position"`
	Volume   int    `json:"volume,omitempty"`
}

// CompetitorPage is an externally fetched competitor record. It is
// immutable once fetched and treated as read-only context by every stage.
// Field names follow the competitor-data service wire schema.
type CompetitorPage struct {
	URL           string           `json:"URL"`
	WeightedScore float64          `json:"Weighted_Score"`
	Rankings      []KeywordRanking `json:"rankings,omitempty"`
	H1s           []string         `json:"H1s"`
	H2s           []string         `json:"H2s"`
	H3s           []string         `json:"H3s"`
	WordCount     int              `json:"Word_Count"`
	FullText      string           `json:"Full_Text"`
	IsStarred     bool             `json:"is_starred,omitempty"`
}

// ParseFailed reports whether the page carries the parse-failure sentinel.
func (p *CompetitorPage) ParseFailed() bool {
	return p.WordCount == 0 && len(p.H1s) == 1 && p.H1s[0] == ParseFailedSentinel
}

// StarredCompetitors returns the competitors the user flagged as ground
// truth. Starred pages receive materially higher weight in every stage
// prompt that consumes competitor data.
func StarredCompetitors(pages []CompetitorPage) []CompetitorPage {
	var out []CompetitorPage
	for _, p := range pages {
		if p.IsStarred {
			out = append(out, p)
		}
	}
	return out
}
