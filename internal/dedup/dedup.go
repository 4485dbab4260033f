// Package dedup removes near-duplicate articles by TF-IDF cosine similarity
// and enforces per-company diversity in the final selection.
package dedup

import (
	"sort"
	"strings"

	"hrdigest/internal/core"
	"hrdigest/internal/logger"
)

// minBodyLength is the cutoff below which an article's body alone is too
// thin to compare; shorter bodies are prefixed with the title.
const minBodyLength = 400

// comparisonText yields the text a candidate is vectorized from.
func comparisonText(c core.Candidate) string {
	if len(c.Body) >= minBodyLength {
		return c.Body
	}
	return strings.TrimSpace(c.Title + " " + c.Body)
}

// Dedup drops candidates whose comparison text is closer than threshold to
// an earlier-seen candidate. Order is preserved and the first occurrence of
// each near-duplicate cluster wins. Fewer than two candidates pass through
// unchanged.
func Dedup(candidates []core.Candidate, threshold float64) []core.Candidate {
	if len(candidates) < 2 {
		return candidates
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = comparisonText(c)
	}
	vectors := tfidfVectors(docs)

	kept := make([]core.Candidate, 0, len(candidates))
	keptVectors := make([]map[string]float64, 0, len(candidates))
	dropped := 0

	for i, c := range candidates {
		duplicate := false
		for j, kv := range keptVectors {
			if cosine(vectors[i], kv) >= threshold {
				logger.Debug("Dropping near-duplicate article",
					"title", c.Title, "duplicate_of", kept[j].Title)
				duplicate = true
				break
			}
		}
		if duplicate {
			dropped++
			continue
		}
		kept = append(kept, c)
		keptVectors = append(keptVectors, vectors[i])
	}

	if dropped > 0 {
		logger.Info("Removed near-duplicate articles", "dropped", dropped, "kept", len(kept))
	}
	return kept
}

// companyKey identifies the company cluster an item counts against: the
// lexicographically smallest lowercased company name. Items naming no
// company are never capped.
func companyKey(item core.EnrichedItem) string {
	key := ""
	for _, name := range item.Companies {
		lower := strings.ToLower(strings.TrimSpace(name))
		if lower == "" {
			continue
		}
		if key == "" || lower < key {
			key = lower
		}
	}
	return key
}

// EnforceCompanyDiversity keeps at most maxPerCompany items per company
// cluster, preserving input order so higher-ranked items survive. A
// non-positive limit disables the cap.
func EnforceCompanyDiversity(items []core.EnrichedItem, maxPerCompany int) []core.EnrichedItem {
	if maxPerCompany <= 0 {
		return items
	}

	counts := make(map[string]int)
	kept := make([]core.EnrichedItem, 0, len(items))
	for _, item := range items {
		key := companyKey(item)
		if key == "" {
			kept = append(kept, item)
			continue
		}
		if counts[key] >= maxPerCompany {
			logger.Debug("Dropping item over company cap", "company", key, "title", item.Title)
			continue
		}
		counts[key]++
		kept = append(kept, item)
	}

	if over := overrepresented(counts, maxPerCompany); len(over) > 0 {
		logger.Debug("Companies at diversity cap", "companies", over)
	}
	return kept
}

func overrepresented(counts map[string]int, limit int) []string {
	var names []string
	for name, n := range counts {
		if n >= limit {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
