package scrape

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"hrdigest/internal/config"
	"hrdigest/internal/core"
	"hrdigest/internal/fetch"
	"hrdigest/internal/sources"
)

func testScraper(t *testing.T, perSite, maxTotal int, coveo CoveoFetcher) *Scraper {
	t.Helper()
	cfg := config.Scrape{PerSiteLimit: perSite, MaxTotalItems: maxTotal}
	return New(fetch.NewHTTPClient(5*time.Second), cfg, coveo, 25)
}

func TestLooksLikeArticle(t *testing.T) {
	tests := []struct {
		url    string
		domain string
		want   bool
	}{
		{"https://www.hrdive.com/news/some-story/123456/", "hrdive.com", true},
		{"https://www.hrdive.com/topic/talent/", "hrdive.com", false},
		{"https://hrexecutive.com/2025/06/12/story-slug/", "hrexecutive.com", true},
		{"https://hrexecutive.com/about/", "hrexecutive.com", false},
		{"https://www.aihr.com/blog/hr-trends/", "aihr.com", true},
		{"https://www.hrmorning.com/articles/fmla-update/", "hrmorning.com", true},
		{"https://indianexpress.com/article/business/jobs-report/", "indianexpress.com", true},
		// Generic heuristic: depth and listing sections.
		{"https://example.com/2025/big-story", "example.com", true},
		{"https://example.com/about", "example.com", false},
		{"https://example.com/tag/hr/policy", "example.com", false},
		{"https://example.com/category/news/item", "example.com", false},
		{"ftp://example.com/a/b", "example.com", false},
		{"", "example.com", false},
	}

	for _, tt := range tests {
		if got := looksLikeArticle(tt.url, tt.domain); got != tt.want {
			t.Errorf("looksLikeArticle(%q, %q) = %v, want %v", tt.url, tt.domain, got, tt.want)
		}
	}
}

func TestNormalizeLink(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"https://example.com/blog/", "/blog/post-1", "https://example.com/blog/post-1"},
		{"https://example.com/blog/", "post-2", "https://example.com/blog/post-2"},
		{"https://example.com/", "https://other.com/x", "https://other.com/x"},
		{"https://example.com/", "", ""},
	}
	for _, tt := range tests {
		if got := normalizeLink(tt.base, tt.href); got != tt.want {
			t.Errorf("normalizeLink(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}

func TestDomainOf(t *testing.T) {
	if got := domainOf("https://www.HRDive.com/news/x/1/"); got != "hrdive.com" {
		t.Errorf("domainOf = %q", got)
	}
}

func TestIsETCategory(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://hr.economictimes.indiatimes.com/news/talent-acquisition", true},
		{"https://hr.economictimes.indiatimes.com/news", true},
		{"https://hr.economictimes.indiatimes.com/news/story/110012345.cms", false},
		{"https://hr.economictimes.indiatimes.com/about", false},
		{"https://example.com/news/section", false},
	}
	for _, tt := range tests {
		if got := isETCategory(tt.url); got != tt.want {
			t.Errorf("isETCategory(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestCrawlETCategoryPage(t *testing.T) {
	html := `<html><body>
		<h1>Talent Acquisition</h1>
		<a href="/news/talent-acquisition/big-hiring-story/110012345.cms">Big hiring story</a>
		<a href="/news/talent-acquisition/big-hiring-story/110012345.cms">Big hiring story again</a>
		<a href="/news/talent-acquisition">Section link</a>
		<a href="https://hr.economictimes.indiatimes.com/news/workplace/another/110099887">Another story</a>
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}

	base := "https://hr.economictimes.indiatimes.com/news/talent-acquisition"
	category, items := crawlETCategoryPage(base, doc, 20)
	if category != "Talent Acquisition" {
		t.Errorf("category = %q", category)
	}
	if len(items) != 2 {
		t.Fatalf("extracted %d items, want 2 (article URLs only, deduplicated)", len(items))
	}
	for _, item := range items {
		if item.SiteCategory != "Talent Acquisition" {
			t.Errorf("item %q missing site category", item.URL)
		}
	}
	if items[0].Title != "Big hiring story" {
		t.Errorf("first title = %q", items[0].Title)
	}
}

func TestCrawlETCategoryPageDefaultHeading(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
	if err != nil {
		t.Fatal(err)
	}
	category, _ := crawlETCategoryPage("https://hr.economictimes.indiatimes.com/news", doc, 20)
	if category != DefaultETCategory {
		t.Errorf("category = %q, want %q", category, DefaultETCategory)
	}
}

func TestExtractETArticlesLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 30; i++ {
		b.WriteString(`<a href="/news/story/1100123` + string(rune('0'+i%10)) + `0.cms">Story</a>`)
	}
	b.WriteString("</body></html>")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.String()))
	if err != nil {
		t.Fatal(err)
	}

	items := extractETArticles("https://hr.economictimes.indiatimes.com/news", doc, 5)
	if len(items) > 5 {
		t.Errorf("extracted %d items, want at most 5", len(items))
	}
}

func TestScrapeSourceSelectorDriven(t *testing.T) {
	page := `<html><body>
		<a href="/news/first-story/1/">First story</a>
		<a href="/news/second-story/2/">Second story</a>
		<a href="/news/first-story/1/">First story duplicate</a>
		<a href="/tag/hr/x">Tag page</a>
		<a href="/news/no-title/3/"></a>
	</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	s := testScraper(t, 25, 160, nil)
	got := s.scrapeSource(sources.Source{URL: server.URL, Selector: "a[href*='/news/']"})
	if len(got) != 2 {
		t.Fatalf("scraped %d candidates, want 2: %+v", len(got), got)
	}
	if got[0].Title != "First story" || got[1].Title != "Second story" {
		t.Errorf("titles = %q, %q", got[0].Title, got[1].Title)
	}
	for _, c := range got {
		if c.Source != server.URL {
			t.Errorf("candidate source = %q", c.Source)
		}
		if c.SiteCategory != "" {
			t.Errorf("non-ET candidate should not have a site category")
		}
	}
}

func TestScrapeSourcePerSiteLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 20; i++ {
		b.WriteString(`<a href="/news/story-` + string(rune('a'+i)) + `/9/">Story</a>`)
	}
	b.WriteString("</body></html>")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(b.String()))
	}))
	defer server.Close()

	s := testScraper(t, 5, 160, nil)
	got := s.scrapeSource(sources.Source{URL: server.URL, Selector: "a[href*='/news/']"})
	if len(got) != 5 {
		t.Errorf("scraped %d candidates, want per-site cap of 5", len(got))
	}
}

func TestScrapeSourceFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := testScraper(t, 25, 160, nil)
	if got := s.scrapeSource(sources.Source{URL: server.URL, Selector: "a"}); got != nil {
		t.Errorf("expected nil on fetch failure, got %d candidates", len(got))
	}
}

type stubCoveo struct {
	items []core.Candidate
	err   error
}

func (s *stubCoveo) FetchNews(count int) ([]core.Candidate, error) {
	return s.items, s.err
}

func TestCollectMergesAndCaps(t *testing.T) {
	page := `<html><body>
		<a href="/news/shared-story/1/">Shared story</a>
		<a href="/news/own-story/2/">Own story</a>
	</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	coveo := &stubCoveo{items: []core.Candidate{
		{Source: "shrm", Title: "SHRM story", URL: "https://www.shrm.org/news/1"},
		{Source: "shrm", Title: "Duplicate of scraped", URL: server.URL + "/news/shared-story/1/"},
	}}

	s := testScraper(t, 25, 3, coveo)
	catalog := []sources.Source{
		{URL: server.URL, Selector: "a[href*='/news/']"},
		{URL: sources.CoveoNewsID},
	}

	got := s.Collect(catalog)
	if len(got) != 3 {
		t.Fatalf("collected %d candidates, want 3 (URL-deduplicated, capped)", len(got))
	}
	seen := make(map[string]int)
	for _, c := range got {
		seen[c.URL]++
	}
	for url, n := range seen {
		if n > 1 {
			t.Errorf("URL %s appears %d times", url, n)
		}
	}
}

func TestCollectSkipsCoveoWhenDisabled(t *testing.T) {
	s := testScraper(t, 25, 160, nil)
	got := s.Collect([]sources.Source{{URL: sources.CoveoNewsID}})
	if len(got) != 0 {
		t.Errorf("collected %d candidates with no Coveo fetcher, want 0", len(got))
	}
}
