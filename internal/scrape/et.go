package scrape

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"hrdigest/internal/core"
	"hrdigest/internal/fetch"
	"hrdigest/internal/logger"
)

// ETDomain hosts ET HRWorld, the one source whose section pages carry a
// usable category heading.
const ETDomain = "hr.economictimes.indiatimes.com"

// DefaultETCategory labels ET pages whose heading could not be read.
const DefaultETCategory = "ET HRWorld"

const (
	etMaxCategories    = 8
	etPerCategoryLimit = 20
	etHubPageLimit     = 25
)

// etArticlePath matches ET article slugs: a long numeric id, optionally
// with a .cms suffix.
var etArticlePath = regexp.MustCompile(`(?i)/\d{6,}(?:\.cms)?(?:[/?#].*)?$`)

// isETCategory reports whether a URL is an ET news section page rather than
// an article.
func isETCategory(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !strings.Contains(parsed.Host, ETDomain) {
		return false
	}
	return strings.Contains(parsed.Path, "/news") && !etArticlePath.MatchString(parsed.Path)
}

// extractETArticles scans every anchor on an ET page for article-shaped
// URLs. ET's CSS class names churn too often for selector-based scraping.
func extractETArticles(baseURL string, doc *goquery.Document, limit int) []core.Candidate {
	var items []core.Candidate
	seen := make(map[string]struct{})

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		u := normalizeLink(baseURL, href)
		if u == "" || !strings.HasPrefix(u, "http") {
			return true
		}
		if _, dup := seen[u]; dup {
			return true
		}
		parsed, err := url.Parse(u)
		if err != nil || !etArticlePath.MatchString(parsed.Path) {
			return true
		}

		title := strings.TrimSpace(a.Text())
		if title == "" {
			title, _ = a.Attr("title")
			title = strings.TrimSpace(title)
		}
		if title == "" {
			title = "Article"
		}

		seen[u] = struct{}{}
		items = append(items, core.Candidate{Source: baseURL, Title: title, URL: u})
		return len(items) < limit
	})

	return items
}

// crawlETCategoryPage extracts the page's articles and stamps them with the
// section heading as their site category.
func crawlETCategoryPage(baseURL string, doc *goquery.Document, limit int) (string, []core.Candidate) {
	items := extractETArticles(baseURL, doc, limit)

	category := DefaultETCategory
	if h := doc.Find("h1, .sectionHeading, .heading, .title").First(); h.Length() > 0 {
		if text := strings.TrimSpace(h.Text()); text != "" {
			category = text
		}
	}
	for i := range items {
		items[i].SiteCategory = category
	}
	return category, items
}

// expandETNewsLanding follows category links from the ET news landing page
// and harvests articles from each section, bounded by etMaxCategories.
func (s *Scraper) expandETNewsLanding(baseURL string, doc *goquery.Document) []core.Candidate {
	var categoryLinks []string
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		u := normalizeLink(baseURL, href)
		if u == "" {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		if isETCategory(u) {
			seen[u] = struct{}{}
			categoryLinks = append(categoryLinks, u)
		}
	})

	if len(categoryLinks) > etMaxCategories {
		categoryLinks = categoryLinks[:etMaxCategories]
	}

	var items []core.Candidate
	for _, link := range categoryLinks {
		html, err := fetch.FetchHTML(s.client, link)
		if err != nil {
			logger.Warn("ET category fetch failed", "url", link, "error", err)
			continue
		}
		catDoc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			logger.Warn("ET category parse failed", "url", link, "error", err)
			continue
		}
		category, sectionItems := crawlETCategoryPage(link, catDoc, etPerCategoryLimit)
		logger.Info("Harvested ET section", "category", category, "items", len(sectionItems), "url", link)
		items = append(items, sectionItems...)
	}
	return items
}
