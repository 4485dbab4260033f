// Package pipeline runs the weekly digest end to end: collect candidates,
// pull article bodies, dedup, summarize, categorize, apply selection policy,
// and write the output files.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hrdigest/internal/categorization"
	"hrdigest/internal/config"
	"hrdigest/internal/core"
	"hrdigest/internal/dedup"
	"hrdigest/internal/export"
	"hrdigest/internal/fetch"
	"hrdigest/internal/llm"
	"hrdigest/internal/logger"
	"hrdigest/internal/scrape"
	"hrdigest/internal/shrm"
	"hrdigest/internal/sources"
	"hrdigest/internal/summarize"
)

// httpTimeout bounds every upstream page and API request.
const httpTimeout = 20 * time.Second

// IST is the timezone the digest's week and timestamps are computed in.
var IST = time.FixedZone("IST", 5*3600+30*60)

// Collector yields article candidates from the source catalog.
type Collector interface {
	Collect(catalog []sources.Source) []core.Candidate
}

// Enricher produces model enrichments for a set of candidates.
type Enricher interface {
	Summarize(ctx context.Context, items []core.Candidate) core.EnrichmentMap
}

// Pipeline wires the weekly digest stages together.
type Pipeline struct {
	cfg       *config.Config
	catalog   []sources.Source
	collector Collector
	enricher  Enricher
	resolver  *categorization.Resolver

	fetchBody func(url string) string
	now       func() time.Time
}

// New assembles a production Pipeline from configuration. A missing Gemini
// credential is not fatal: the run proceeds and produces an empty digest.
func New(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	catalog, err := sources.Load(cfg.Scrape.SourcesFile)
	if err != nil {
		return nil, err
	}

	httpClient := fetch.NewHTTPClient(httpTimeout)
	coveo := shrm.NewClient(httpClient, cfg.SHRM.Token)
	collector := scrape.New(httpClient, cfg.Scrape, coveo, cfg.SHRM.Count)

	var gen summarize.Generator
	model, err := llm.NewClient(ctx, cfg.Gemini)
	switch {
	case err == nil:
		gen = model
	case errors.Is(err, llm.ErrMissingAPIKey):
		logger.Warn("GEMINI_API_KEY missing, model summaries disabled")
	default:
		return nil, err
	}

	return &Pipeline{
		cfg:       cfg,
		catalog:   catalog,
		collector: collector,
		enricher:  summarize.New(gen, cfg.Summarize, cfg.Output.LogsDir),
		resolver:  categorization.NewResolver(cfg.Scrape.TrustedDomains),
		fetchBody: func(url string) string { return fetch.ArticleText(httpClient, url) },
		now:       func() time.Time { return time.Now().In(IST) },
	}, nil
}

// Collect runs only the scraping stage, without bodies or enrichment.
func (p *Pipeline) Collect() []core.Candidate {
	return p.collector.Collect(p.catalog)
}

// Run executes the full pipeline and returns the digest along with the two
// paths it was written to.
func (p *Pipeline) Run(ctx context.Context) (core.Digest, string, string, error) {
	now := p.now()
	year, week := now.ISOWeek()
	weekStr := fmt.Sprintf("%d-W%02d", year, week)
	logger.Info("Starting digest run", "week", weekStr)

	candidates := p.collector.Collect(p.catalog)

	// Article bodies feed dedup and the model excerpts. Trusted-domain
	// items that arrived without a site category get a rule-based one now,
	// while title, body and URL are all at hand.
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return core.Digest{}, "", "", err
		}
		candidates[i].Body = p.fetchBody(candidates[i].URL)
		if p.resolver.IsTrusted(candidates[i].URL) && candidates[i].SiteCategory == "" {
			candidates[i].SiteCategory = categorization.InferRuleBased(
				candidates[i].Title, candidates[i].Body, candidates[i].URL)
		}
	}

	unique := dedup.Dedup(candidates, p.cfg.Dedup.SimThreshold)
	logger.Info("Deduplicated candidates", "before", len(candidates), "after", len(unique))

	enrichments := p.enricher.Summarize(ctx, unique)

	enriched := make([]core.EnrichedItem, 0, len(unique))
	for _, c := range unique {
		e, ok := enrichments[c.URL]
		if !ok {
			continue
		}
		if e.Significance < p.cfg.Dedup.MinSignificance {
			logger.Debug("Dropping low-significance item", "title", c.Title, "significance", e.Significance)
			continue
		}
		enriched = append(enriched, core.EnrichedItem{
			Source:         c.Source,
			Title:          c.Title,
			URL:            c.URL,
			Published:      c.Published,
			SummaryBullets: e.Bullets,
			Companies:      e.Companies,
			Significance:   e.Significance,
			Category:       p.resolver.Resolve(c, e),
			Tags:           []string{},
		})
	}

	final := dedup.EnforceCompanyDiversity(enriched, p.cfg.Dedup.MaxPerCompany)
	logger.Info("Selected digest items", "enriched", len(enriched), "final", len(final))

	digest := core.Digest{
		Week:        weekStr,
		Year:        year,
		GeneratedAt: now.Format(time.RFC3339),
		Items:       final,
	}

	weekPath, dayPath, err := export.WriteDigest(digest, p.cfg.Output.Directory, now)
	if err != nil {
		return core.Digest{}, "", "", err
	}
	return digest, weekPath, dayPath, nil
}
