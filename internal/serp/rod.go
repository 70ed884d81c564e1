package serp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// RodFetcher renders competitor pages in a headless browser before
// extraction, for sites whose content only exists after script execution.
// The browser launches lazily on first use and is shared across fetches.
type RodFetcher struct {
	headless bool
	timeout  time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewRodFetcher creates a browser-backed on-page fetcher.
func NewRodFetcher(headless bool, timeout time.Duration, logger *zap.Logger) *RodFetcher {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RodFetcher{headless: headless, timeout: timeout, logger: logger}
}

func (f *RodFetcher) ensureBrowser() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser != nil {
		return f.browser, nil
	}

	l := launcher.New().Headless(f.headless)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	f.launcher = l
	f.browser = browser
	f.logger.Info("headless browser launched", zap.Bool("headless", f.headless))
	return browser, nil
}

// FetchPage renders the URL and extracts on-page structure from the final
// DOM. Render failures return the PARSE_FAILED sentinel; launch and
// navigation failures are errors.
func (f *RodFetcher) FetchPage(ctx context.Context, url string) (OnPageContent, error) {
	browser, err := f.ensureBrowser()
	if err != nil {
		return OnPageContent{}, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return OnPageContent{}, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(f.timeout)
	if err := page.WaitLoad(); err != nil {
		f.logger.Warn("page load timed out", zap.String("url", url), zap.Error(err))
		return ParseFailed(), nil
	}

	rendered, err := page.HTML()
	if err != nil {
		return ParseFailed(), nil
	}

	content, ok := ExtractContent(rendered)
	if !ok {
		return ParseFailed(), nil
	}
	return content, nil
}

// Close shuts the shared browser down.
func (f *RodFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.launcher.Cleanup()
	f.browser = nil
	f.launcher = nil
	return err
}
