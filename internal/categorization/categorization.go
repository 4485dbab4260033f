// Package categorization resolves the category for each enriched item by
// merging the site-derived, rule-based, and model-assigned signals with
// source-dependent precedence.
package categorization

import (
	"net/url"
	"strings"

	"hrdigest/internal/core"
)

// SnapToTaxonomy maps a free-form category name onto the nearest taxonomy
// entry: exact, substring, or superstring match, case-insensitive. Returns
// "" when nothing matches; callers apply their own fallback chain.
func SnapToTaxonomy(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return ""
	}
	for _, t := range Taxonomy {
		tl := strings.ToLower(t)
		if n == tl || strings.Contains(tl, n) || strings.Contains(n, tl) {
			return t
		}
	}
	return ""
}

// InferRuleBased returns the first category whose keyword pattern matches
// the concatenation of title, body, and URL, or "" when none match.
func InferRuleBased(title, body, articleURL string) string {
	hay := strings.ToLower(title + " " + body + " " + articleURL)
	for _, rule := range KeywordRules {
		if rule.Pattern.MatchString(hay) {
			return rule.Category
		}
	}
	return ""
}

// Resolver applies the source-trust precedence policy.
type Resolver struct {
	trustedDomains []string
}

// NewResolver creates a resolver for the given trusted domains. Articles
// from a trusted domain prefer their site-derived category over the model's.
func NewResolver(trustedDomains []string) *Resolver {
	return &Resolver{trustedDomains: trustedDomains}
}

// IsTrusted reports whether the URL belongs to a trusted domain.
func (r *Resolver) IsTrusted(articleURL string) bool {
	u, err := url.Parse(articleURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Host)
	for _, d := range r.trustedDomains {
		if strings.Contains(host, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

// Resolve picks the category for one item.
//
// Trusted domain: site/rule category, then model, then default.
// Everything else: model category, then a fresh rule-based pass, then default.
// The winner is snapped to the taxonomy; an unsnappable winner falls back to
// the default label.
func (r *Resolver) Resolve(candidate core.Candidate, enrichment core.Enrichment) string {
	var cat string
	if r.IsTrusted(candidate.URL) {
		cat = candidate.SiteCategory
		if cat == "" {
			cat = enrichment.Category
		}
	} else {
		cat = enrichment.Category
		if cat == "" {
			cat = InferRuleBased(candidate.Title, candidate.Body, candidate.URL)
		}
	}
	if cat == "" {
		cat = DefaultCategory
	}
	if snapped := SnapToTaxonomy(cat); snapped != "" {
		return snapped
	}
	return DefaultCategory
}
