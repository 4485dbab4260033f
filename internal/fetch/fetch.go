// Package fetch provides the shared HTTP client used for scraping and the
// article body extractor. The client identifies itself consistently and
// retries transient upstream failures at the transport level.
package fetch

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"hrdigest/internal/logger"
)

// UserAgent identifies the scraper to upstream sites.
const UserAgent = "Mozilla/5.0 (HRNewsAgent/3.2; +https://example.org)"

const (
	maxTransportRetries = 3
	transportBackoff    = 600 * time.Millisecond
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// retryTransport re-issues requests that fail with connection errors or
// retryable status codes, with linearly growing backoff.
type retryTransport struct {
	next http.RoundTripper
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error
	for attempt := 0; attempt <= maxTransportRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(transportBackoff * time.Duration(attempt)):
			}
		}
		resp, err = t.next.RoundTrip(req)
		if err != nil {
			continue
		}
		if !retryableStatus(resp.StatusCode) || attempt == maxTransportRetries {
			return resp, nil
		}
		// Drain so the connection can be reused for the retry.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// headerTransport applies the shared identification headers to every request.
type headerTransport struct {
	next http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept-Language", "en-IN,en;q=0.9")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return t.next.RoundTrip(req)
}

// NewHTTPClient builds the shared scraping client: common headers plus
// transport-level retries on 429 and 5xx responses.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &headerTransport{
			next: &retryTransport{next: http.DefaultTransport},
		},
	}
}

// FetchHTML retrieves a page and returns its body as a string. Non-2xx
// responses after retries are errors.
func FetchHTML(client *http.Client, url string) (string, error) {
	resp, err := client.Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to fetch URL %s: status code %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body from %s: %w", url, err)
	}
	return string(body), nil
}

// ArticleText fetches an article page and extracts its readable text with
// whitespace collapsed to single spaces. Failures yield an empty string;
// a thin or missing body downgrades the article rather than aborting the run.
func ArticleText(client *http.Client, url string) string {
	html, err := FetchHTML(client, url)
	if err != nil {
		logger.Debug("Article fetch failed", "url", url, "error", err)
		return ""
	}
	return ExtractText(html)
}

// mainContentSelectors are tried in order; the first selector yielding text
// wins.
var mainContentSelectors = []string{
	"article", "main", ".main-content", ".entry-content", ".post-content",
	".post-body", ".article-body", "[role='main']", ".content", "#content",
}

// ExtractText pulls the main textual content out of an HTML document,
// dropping navigation, scripts, and other boilerplate.
func ExtractText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer, header, aside, form, iframe, noscript, .sidebar, #sidebar, .ad, .advertisement, .popup, .modal, .cookie-banner").Remove()

	var b strings.Builder
	collect := func(s *goquery.Selection) {
		s.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote").Each(func(_ int, item *goquery.Selection) {
			text := strings.TrimSpace(item.Text())
			if text != "" {
				b.WriteString(text)
				b.WriteString(" ")
			}
		})
	}

	for _, selector := range mainContentSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			collect(s)
		})
		if b.Len() > 0 {
			break
		}
	}
	if b.Len() == 0 {
		doc.Find("body").Each(func(_ int, s *goquery.Selection) {
			collect(s)
		})
	}

	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(b.String(), " "))
}
