// Package scrape collects article candidates from the configured HR news
// sources: selector-driven scraping for ordinary sites, broad anchor
// crawling with section expansion for ET HRWorld, and an API handler for
// SHRM.
package scrape

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"hrdigest/internal/config"
	"hrdigest/internal/core"
	"hrdigest/internal/fetch"
	"hrdigest/internal/logger"
	"hrdigest/internal/sources"
)

// CoveoFetcher pulls articles from the SHRM Coveo search API.
type CoveoFetcher interface {
	FetchNews(count int) ([]core.Candidate, error)
}

// Scraper walks the source catalog and returns deduplicated article
// candidates.
type Scraper struct {
	client        *http.Client
	perSiteLimit  int
	maxTotalItems int
	coveo         CoveoFetcher
	coveoCount    int
}

// New builds a Scraper. coveo may be nil when the SHRM handler is disabled.
func New(client *http.Client, cfg config.Scrape, coveo CoveoFetcher, coveoCount int) *Scraper {
	return &Scraper{
		client:        client,
		perSiteLimit:  cfg.PerSiteLimit,
		maxTotalItems: cfg.MaxTotalItems,
		coveo:         coveo,
		coveoCount:    coveoCount,
	}
}

// Collect visits every source and returns candidates with duplicate URLs
// removed, capped at the configured total. Per-source failures are logged
// and skipped so one dead site cannot sink the run.
func (s *Scraper) Collect(catalog []sources.Source) []core.Candidate {
	var all []core.Candidate
	for _, src := range catalog {
		if src.IsCoveo() {
			if s.coveo == nil {
				continue
			}
			items, err := s.coveo.FetchNews(s.coveoCount)
			if err != nil {
				logger.Warn("SHRM Coveo fetch failed", "error", err)
				continue
			}
			all = append(all, items...)
			continue
		}
		all = append(all, s.scrapeSource(src)...)
	}

	seen := make(map[string]struct{}, len(all))
	unique := make([]core.Candidate, 0, len(all))
	for _, c := range all {
		if _, dup := seen[c.URL]; dup {
			continue
		}
		seen[c.URL] = struct{}{}
		unique = append(unique, c)
		if len(unique) >= s.maxTotalItems {
			break
		}
	}

	logger.Info("Collected article candidates", "total", len(unique))
	return unique
}

// scrapeSource harvests article links from one listing page.
func (s *Scraper) scrapeSource(src sources.Source) []core.Candidate {
	html, err := fetch.FetchHTML(s.client, src.URL)
	if err != nil {
		logger.Warn("Source fetch failed", "url", src.URL, "error", err)
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Warn("Source parse failed", "url", src.URL, "error", err)
		return nil
	}

	domain := domainOf(src.URL)

	// ET section pages keep their site-derived category; everything else
	// leaves categorization to the model.
	if strings.Contains(domain, ETDomain) {
		parsed, _ := url.Parse(src.URL)
		if parsed != nil && (strings.TrimRight(parsed.Path, "/") == "/news" || isETCategory(src.URL)) {
			if hub := s.expandETNewsLanding(src.URL, doc); len(hub) > 0 {
				return hub
			}
			category, items := crawlETCategoryPage(src.URL, doc, etHubPageLimit)
			logger.Info("Harvested ET section", "category", category, "items", len(items), "url", src.URL)
			return items
		}
	}

	var anchors []*goquery.Selection
	if src.Selector != "" {
		doc.Find(src.Selector).Each(func(_ int, a *goquery.Selection) {
			anchors = append(anchors, a)
		})
	}
	if rule, ok := domainRules[domain]; ok {
		for _, sel := range rule.extraSelectors {
			doc.Find(sel).Each(func(_ int, a *goquery.Selection) {
				anchors = append(anchors, a)
			})
		}
	}
	for _, sel := range genericFallbackSelectors {
		doc.Find(sel).Each(func(_ int, a *goquery.Selection) {
			anchors = append(anchors, a)
		})
	}

	var out []core.Candidate
	seen := make(map[string]struct{})
	for _, a := range anchors {
		href, _ := a.Attr("href")
		title := strings.TrimSpace(a.Text())
		if href == "" || title == "" {
			continue
		}
		u := normalizeLink(src.URL, href)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		if !looksLikeArticle(u, domain) {
			continue
		}
		out = append(out, core.Candidate{Source: src.URL, Title: title, URL: u})
		if len(out) >= s.perSiteLimit {
			break
		}
	}

	logger.Info("Scraped source", "domain", domain, "kept", len(out))
	return out
}
