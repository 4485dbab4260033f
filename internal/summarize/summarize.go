// Package summarize turns scraped articles into structured enrichments
// (bullets, companies, significance, category) by batching them through the
// language model and normalizing whatever comes back.
package summarize

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"hrdigest/internal/categorization"
	"hrdigest/internal/config"
	"hrdigest/internal/core"
	"hrdigest/internal/logger"
	"hrdigest/internal/parser"
)

const (
	// maxExcerptLength bounds how much article body goes into the prompt.
	maxExcerptLength = 1600
	// maxBullets caps the bullets kept per article.
	maxBullets = 4
	// maxCompanies caps the companies kept per article.
	maxCompanies = 8
	// defaultSignificance is assumed when the model's score is unusable.
	defaultSignificance = 3
)

// bulletBoilerplate strips lead-ins like "This URL ...:" that slip past the
// prompt instructions.
var bulletBoilerplate = regexp.MustCompile(`(?i)^(this url|the url|the link)\b.*?:\s*`)

// bulletGlyph strips a leading dash or bullet glyph.
var bulletGlyph = regexp.MustCompile(`^\s*[-•]\s*`)

// Generator is the model call the summarizer depends on.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Summarizer batches articles through a Generator.
type Summarizer struct {
	gen       Generator
	batchSize int
	logsDir   string
}

// New builds a Summarizer. Raw model output that fails to parse is dumped
// under logsDir for inspection.
func New(gen Generator, cfg config.Summarize, logsDir string) *Summarizer {
	batch := cfg.BatchSize
	if batch < 1 {
		batch = 1
	}
	return &Summarizer{gen: gen, batchSize: batch, logsDir: logsDir}
}

// Summarize enriches the given articles. Batches that fail after the
// reformat attempt are skipped; their articles simply get no enrichment.
// A nil Generator disables summarization entirely.
func (s *Summarizer) Summarize(ctx context.Context, items []core.Candidate) core.EnrichmentMap {
	out := make(core.EnrichmentMap)
	if s.gen == nil {
		logger.Warn("No model available, skipping summaries")
		return out
	}

	for start := 0; start < len(items); start += s.batchSize {
		end := start + s.batchSize
		if end > len(items) {
			end = len(items)
		}
		s.summarizeBatch(ctx, items[start:end], out)
	}
	return out
}

func (s *Summarizer) summarizeBatch(ctx context.Context, batch []core.Candidate, out core.EnrichmentMap) {
	prompt := buildPrompt(batch)

	raw, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("Summarization batch failed", "error", err)
		return
	}

	records := parser.ParseLenient(raw)
	if records == nil {
		firstDump := s.dumpModelText("summarize_raw", raw)

		// One strict reformat attempt before giving up on the batch.
		retryRaw, err := s.gen.Generate(ctx, reformatPrompt+raw)
		if err != nil {
			logger.Warn("Summarization reformat failed", "error", err, "dump", firstDump)
			return
		}
		records = parser.ParseLenient(retryRaw)
		if records == nil {
			secondDump := s.dumpModelText("summarize_retry_raw", retryRaw)
			logger.Warn("Summarization batch unparseable", "dumps", firstDump+", "+secondDump)
			return
		}
	}

	for _, rec := range records {
		url, _ := rec["url"].(string)
		if url == "" {
			continue
		}
		out[url] = normalizeRecord(rec)
	}
}

const reformatPrompt = "Reformat STRICTLY as a JSON array. Each object must have keys: " +
	"url, bullets, companies, significance, category. No extra keys, no commentary.\n\n"

// truncateExcerpt caps the article body fed into the prompt, backing the
// cut off to a rune boundary so a multi-byte character is never split.
func truncateExcerpt(body string) string {
	if len(body) <= maxExcerptLength {
		return body
	}
	cut := maxExcerptLength
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "..."
}

func buildPrompt(batch []core.Candidate) string {
	var listing strings.Builder
	for _, it := range batch {
		excerpt := truncateExcerpt(it.Body)
		fmt.Fprintf(&listing, "- URL: %s\n  Title: %s\n  Excerpt: %s\n", it.URL, it.Title, excerpt)
	}

	return "You are an expert HR analyst. For each item below, return ONLY a JSON array; " +
		"no markdown, no commentary. For EVERY item include EXACTLY these keys:\n" +
		"  url (string), bullets (array of 3-4 short strings), companies (array of strings), " +
		"significance (integer 1..5), category (one of: " +
		strings.Join(categorization.Taxonomy, ", ") + ").\n" +
		"- Bullets must be concise and factual; do not start with boilerplate like 'This URL...' or 'This article...'.\n" +
		"- significance MUST be a pure integer (1,2,3,4,5) — do not write words.\n" +
		"- category MUST be exactly one value from the taxonomy list.\n" +
		"Items:\n" + listing.String()
}

// normalizeRecord coerces one model record into a well-formed Enrichment.
func normalizeRecord(rec map[string]any) core.Enrichment {
	e := core.Enrichment{
		Bullets:      normalizeBullets(rec["bullets"]),
		Companies:    normalizeCompanies(rec["companies"]),
		Significance: coerceSignificance(rec["significance"]),
	}

	name, _ := rec["category"].(string)
	e.Category = categorization.SnapToTaxonomy(name)
	if e.Category == "" {
		e.Category = categorization.DefaultCategory
	}
	return e
}

func normalizeBullets(val any) []string {
	var raw []any
	switch v := val.(type) {
	case string:
		raw = []any{v}
	case []any:
		raw = v
	}

	var bullets []string
	for _, item := range raw {
		text, ok := item.(string)
		if !ok {
			continue
		}
		text = CleanBullet(text)
		if text == "" {
			continue
		}
		bullets = append(bullets, text)
		if len(bullets) == maxBullets {
			break
		}
	}
	return bullets
}

func normalizeCompanies(val any) []string {
	var raw []any
	switch v := val.(type) {
	case string:
		raw = []any{v}
	case []any:
		raw = v
	}

	var companies []string
	seen := make(map[string]struct{})
	for _, item := range raw {
		name, ok := item.(string)
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		lower := strings.ToLower(name)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		companies = append(companies, name)
		if len(companies) == maxCompanies {
			break
		}
	}
	return companies
}

// coerceSignificance forces the model's significance to an integer in 1..5.
func coerceSignificance(val any) int {
	var s int
	switch v := val.(type) {
	case bool:
		s = defaultSignificance
	case float64:
		s = int(math.Round(v))
	case int:
		s = v
	case string:
		s = defaultSignificance
		for _, ch := range v {
			if ch >= '1' && ch <= '5' {
				s = int(ch - '0')
				break
			}
		}
	default:
		s = defaultSignificance
	}

	if s < 1 {
		s = 1
	}
	if s > 5 {
		s = 5
	}
	return s
}

// CleanBullet strips boilerplate lead-ins and list glyphs from one bullet.
func CleanBullet(s string) string {
	s = bulletBoilerplate.ReplaceAllString(strings.TrimSpace(s), "")
	s = bulletGlyph.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// dumpModelText saves raw model output for post-mortem and returns the file
// path. Failures to write are ignored; the dump is best effort.
func (s *Summarizer) dumpModelText(prefix, text string) string {
	dir := s.logsDir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	name := fmt.Sprintf("%s-%s.txt", prefix, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return ""
	}
	return path
}
