package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"hrdigest/internal/categorization"
	"hrdigest/internal/config"
	"hrdigest/internal/core"
	"hrdigest/internal/sources"
)

type stubCollector struct {
	items []core.Candidate
}

func (s *stubCollector) Collect(catalog []sources.Source) []core.Candidate {
	return s.items
}

type stubEnricher struct {
	enrichments core.EnrichmentMap
	got         []core.Candidate
}

func (s *stubEnricher) Summarize(ctx context.Context, items []core.Candidate) core.EnrichmentMap {
	s.got = items
	return s.enrichments
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Scrape: config.Scrape{
			PerSiteLimit:   25,
			MaxTotalItems:  160,
			TrustedDomains: []string{"hr.economictimes.indiatimes.com"},
		},
		Dedup: config.Dedup{
			SimThreshold:    0.82,
			MinSignificance: 3,
			MaxPerCompany:   2,
		},
		Summarize: config.Summarize{BatchSize: 3},
		Output:    config.Output{Directory: t.TempDir(), LogsDir: t.TempDir()},
	}
}

func testPipeline(t *testing.T, cfg *config.Config, collector Collector, enricher Enricher) *Pipeline {
	t.Helper()
	return &Pipeline{
		cfg:       cfg,
		collector: collector,
		enricher:  enricher,
		resolver:  categorization.NewResolver(cfg.Scrape.TrustedDomains),
		fetchBody: func(url string) string { return "body for " + url },
		now: func() time.Time {
			return time.Date(2025, 8, 27, 10, 30, 0, 0, IST)
		},
	}
}

func TestRunEndToEnd(t *testing.T) {
	etURL := "https://hr.economictimes.indiatimes.com/news/talent-acquisition/story/110012345.cms"
	collector := &stubCollector{items: []core.Candidate{
		{Source: "et", Title: "ET hiring story", URL: etURL, SiteCategory: "Talent Acquisition"},
		{Source: "aihr", Title: "AI reshapes HR software", URL: "https://www.aihr.com/blog/ai-hr/"},
		{Source: "aihr", Title: "Minor update", URL: "https://www.aihr.com/blog/minor/"},
		{Source: "aihr", Title: "No enrichment", URL: "https://www.aihr.com/blog/none/"},
	}}
	enricher := &stubEnricher{enrichments: core.EnrichmentMap{
		etURL: {
			Bullets: []string{"ET point"}, Companies: []string{"Infosys"},
			Significance: 4, Category: "HR Tech & AI",
		},
		"https://www.aihr.com/blog/ai-hr/": {
			Bullets: []string{"AI point"}, Companies: []string{"Workday"},
			Significance: 5, Category: "HR Tech & AI",
		},
		"https://www.aihr.com/blog/minor/": {
			Bullets: []string{"small"}, Companies: nil,
			Significance: 2, Category: "HR Tech & AI",
		},
	}}

	cfg := testConfig(t)
	p := testPipeline(t, cfg, collector, enricher)

	digest, weekPath, dayPath, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if digest.Week != "2025-W35" || digest.Year != 2025 {
		t.Errorf("week = %q year = %d", digest.Week, digest.Year)
	}
	if !strings.Contains(digest.GeneratedAt, "+05:30") {
		t.Errorf("generated_at should carry the IST offset: %q", digest.GeneratedAt)
	}

	// Low-significance and unenriched items are dropped.
	if len(digest.Items) != 2 {
		t.Fatalf("digest has %d items, want 2: %+v", len(digest.Items), digest.Items)
	}

	et := digest.Items[0]
	if et.URL != etURL {
		t.Errorf("first item = %q", et.URL)
	}
	// Trusted domain: the site-derived category beats the model's.
	if et.Category != "Talent Acquisition" {
		t.Errorf("trusted category = %q, want site-derived Talent Acquisition", et.Category)
	}
	if et.Tags == nil || len(et.Tags) != 0 {
		t.Errorf("tags = %v, want empty non-nil", et.Tags)
	}

	aihr := digest.Items[1]
	if aihr.Category != "HR Tech & AI" {
		t.Errorf("untrusted category = %q, want model's HR Tech & AI", aihr.Category)
	}

	// Bodies were fetched before enrichment.
	if len(enricher.got) == 0 || enricher.got[0].Body == "" {
		t.Error("enricher should see candidates with bodies")
	}

	weekData, err := os.ReadFile(weekPath)
	if err != nil {
		t.Fatal(err)
	}
	dayData, err := os.ReadFile(dayPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(weekData) != string(dayData) {
		t.Error("week and day outputs differ")
	}
	var decoded core.Digest
	if err := json.Unmarshal(weekData, &decoded); err != nil {
		t.Fatalf("output not parseable: %v", err)
	}
	if len(decoded.Items) != 2 {
		t.Errorf("persisted %d items, want 2", len(decoded.Items))
	}
}

func TestRunEmptyWithoutEnrichments(t *testing.T) {
	collector := &stubCollector{items: []core.Candidate{
		{Title: "Story", URL: "https://www.aihr.com/blog/x/"},
	}}
	enricher := &stubEnricher{enrichments: core.EnrichmentMap{}}

	cfg := testConfig(t)
	p := testPipeline(t, cfg, collector, enricher)

	digest, weekPath, _, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(digest.Items) != 0 {
		t.Errorf("digest has %d items, want 0", len(digest.Items))
	}
	// The file is still written so downstream consumers see the week ran.
	data, err := os.ReadFile(weekPath)
	if err != nil {
		t.Fatalf("empty digest should still be written: %v", err)
	}
	if !strings.Contains(string(data), `"items": []`) {
		t.Errorf("empty digest items should serialize as []: %s", data)
	}
}

func TestRunAppliesCompanyDiversityCap(t *testing.T) {
	var items []core.Candidate
	enrichments := make(core.EnrichmentMap)
	urls := []string{
		"https://www.aihr.com/blog/acme-one/",
		"https://www.aihr.com/blog/acme-two/",
		"https://www.aihr.com/blog/acme-three/",
	}
	for i, u := range urls {
		items = append(items, core.Candidate{Title: "Acme story " + string(rune('a'+i)), URL: u})
		enrichments[u] = core.Enrichment{
			Bullets: []string{"b"}, Companies: []string{"Acme"},
			Significance: 4, Category: "HR Tech & AI",
		}
	}

	cfg := testConfig(t)
	p := testPipeline(t, cfg, &stubCollector{items: items}, &stubEnricher{enrichments: enrichments})

	digest, _, _, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(digest.Items) != 2 {
		t.Errorf("digest has %d items, want company cap of 2", len(digest.Items))
	}
}

func TestRunTrustedRuleCategoryFallback(t *testing.T) {
	// A trusted-domain item arriving without a site category gets a
	// rule-based one derived from its text before enrichment.
	etURL := "https://hr.economictimes.indiatimes.com/news/story/110099887.cms"
	collector := &stubCollector{items: []core.Candidate{
		{Title: "Campus hiring surges at IT firms", URL: etURL},
	}}
	enricher := &stubEnricher{enrichments: core.EnrichmentMap{
		etURL: {Bullets: []string{"b"}, Significance: 4, Category: "People Analytics"},
	}}

	cfg := testConfig(t)
	p := testPipeline(t, cfg, collector, enricher)
	p.fetchBody = func(url string) string { return "Recruitment drives expand." }

	digest, _, _, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(digest.Items) != 1 {
		t.Fatalf("digest has %d items, want 1", len(digest.Items))
	}
	if got := digest.Items[0].Category; got != "Talent Acquisition" {
		t.Errorf("category = %q, want rule-derived Talent Acquisition", got)
	}
}

func TestRunCanceledContext(t *testing.T) {
	collector := &stubCollector{items: []core.Candidate{{Title: "x", URL: "https://a.example/1"}}}
	cfg := testConfig(t)
	p := testPipeline(t, cfg, collector, &stubEnricher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, _, err := p.Run(ctx); err == nil {
		t.Error("expected context cancellation error")
	}
}
