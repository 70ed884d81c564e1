package serp

import (
	"context"

	"briefcraft/internal/brief"

	"go.uber.org/zap"
)

// URLListSource is a Source backed by an explicit ranked URL list, for
// runs where the SERP ranking was gathered out of band. Position in the
// list is the ranking: earlier URLs get higher weighted scores.
type URLListSource struct {
	URLs        []string
	Fetcher     OnPageFetcher
	Concurrency int
	Logger      *zap.Logger
}

// Competitors fetches the on-page content for every URL and scores the
// results by rank. The keyword, country and language arguments are
// ignored; the list already encodes the query.
func (s *URLListSource) Competitors(ctx context.Context, _, _, _ string) ([]brief.CompetitorPage, error) {
	pages, err := FetchAll(ctx, s.Fetcher, s.URLs, s.Concurrency, s.Logger)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		pages[i].WeightedScore = rankScore(i, len(pages))
	}
	return pages, nil
}

// rankScore maps a zero-based rank to a score in (0, 100], decaying
// linearly so the last result still carries some weight.
func rankScore(rank, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(total-rank) / float64(total)
}
