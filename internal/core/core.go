package core

// Candidate represents a scraped article reference prior to enrichment.
type Candidate struct {
	Source       string `json:"source"`        // Listing page or source identifier the link came from
	Title        string `json:"title"`         // Anchor or result title
	URL          string `json:"url"`           // Canonical article URL; unique key across the pipeline
	Body         string `json:"body"`          // Extracted article text, empty when extraction failed
	Published    string `json:"published"`     // Publication date when the source provides one
	SiteCategory string `json:"site_category"` // Site-derived category; set only for trusted domains
}

// Enrichment is the model-derived summary and classification for one URL.
type Enrichment struct {
	Bullets      []string `json:"bullets"`      // At most 4 short factual bullets
	Companies    []string `json:"companies"`    // At most 8, case-insensitively deduplicated, first-seen order
	Significance int      `json:"significance"` // 1 (low) to 5 (high)
	Category     string   `json:"category"`     // Always a taxonomy member
}

// EnrichmentMap keys enrichments by candidate URL. A URL absent from the map
// drops the candidate from further processing.
type EnrichmentMap map[string]Enrichment

// EnrichedItem is the join of a Candidate with its Enrichment and resolved
// category, the unit persisted in the digest output.
type EnrichedItem struct {
	Source         string   `json:"source"`
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	Published      string   `json:"published"`
	SummaryBullets []string `json:"summary_bullets"`
	Companies      []string `json:"companies"`
	Significance   int      `json:"significance"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
}

// Digest is the final per-run output document, keyed by ISO week.
type Digest struct {
	Week        string         `json:"week"` // e.g. "2026-W35"
	Year        int            `json:"year"`
	GeneratedAt string         `json:"generated_at"` // ISO-8601
	Items       []EnrichedItem `json:"items"`
}
