package serp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	defaultUserAgent = "Mozilla/5.0 (compatible; briefcraft/1.0)"

	// maxBodyBytes bounds how much of a competitor page is read.
	maxBodyBytes = 4 << 20
)

// HTTPFetcher fetches and parses competitor pages over plain HTTP. Pages
// that render their content with scripts need the rod-based fetcher
// instead.
type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
}

// NewHTTPFetcher creates an HTTP on-page fetcher.
func NewHTTPFetcher(timeout time.Duration, logger *zap.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPFetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  defaultUserAgent,
		logger:     logger,
	}
}

// FetchPage downloads the URL and extracts headings, word count, and full
// body text. Unparseable responses return the PARSE_FAILED sentinel, not
// an error; only transport failures are errors.
func (f *HTTPFetcher) FetchPage(ctx context.Context, url string) (OnPageContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return OnPageContent{}, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return OnPageContent{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return OnPageContent{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return OnPageContent{}, err
	}

	content, ok := ExtractContent(string(body))
	if !ok {
		f.logger.Warn("page parse failed", zap.String("url", url))
		return ParseFailed(), nil
	}
	return content, nil
}

// ExtractContent parses an HTML document into on-page structure. ok is
// false when the document yields no usable content.
func ExtractContent(rawHTML string) (OnPageContent, bool) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return OnPageContent{}, false
	}

	var content OnPageContent
	var textParts []string

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1":
				content.H1s = append(content.H1s, nodeText(n))
			case "h2":
				content.H2s = append(content.H2s, nodeText(n))
			case "h3":
				content.H3s = append(content.H3s, nodeText(n))
			case "script", "style", "noscript", "nav", "footer":
				return
			case "p", "li", "td", "blockquote":
				if t := nodeText(n); t != "" {
					textParts = append(textParts, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	content.FullText = strings.Join(textParts, "\n")
	content.WordCount = len(strings.Fields(content.FullText))

	if content.WordCount == 0 && len(content.H1s) == 0 {
		return OnPageContent{}, false
	}
	return content, true
}

// nodeText extracts the trimmed text of a node's subtree.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
