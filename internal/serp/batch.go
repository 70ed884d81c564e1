package serp

import (
	"context"

	"briefcraft/internal/brief"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// defaultFetchConcurrency bounds the parallel on-page fetch fan-out.
const defaultFetchConcurrency = 4

// FetchAll fetches the on-page content for each URL in parallel with
// bounded concurrency and returns one CompetitorPage per URL, in input
// order. Individual fetch failures become PARSE_FAILED records; only a
// cancelled context fails the whole batch.
func FetchAll(ctx context.Context, fetcher OnPageFetcher, urls []string, concurrency int, logger *zap.Logger) ([]brief.CompetitorPage, error) {
	if concurrency <= 0 {
		concurrency = defaultFetchConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pages := make([]brief.CompetitorPage, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, url := range urls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := fetcher.FetchPage(gctx, url)
			if err != nil {
				logger.Warn("on-page fetch failed", zap.String("url", url), zap.Error(err))
				content = ParseFailed()
			}
			pages[i] = brief.CompetitorPage{
				URL:       url,
				H1s:       content.H1s,
				H2s:       content.H2s,
				H3s:       content.H3s,
				WordCount: content.WordCount,
				FullText:  content.FullText,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}
