package scrape

import (
	"net/url"
	"regexp"
	"strings"
)

// domainRule captures what an article URL looks like on a specific site and
// which extra selectors find article links on its listing pages.
type domainRule struct {
	articleRe      *regexp.Regexp
	extraSelectors []string
}

// domainRules holds per-site heuristics for the sites whose listing markup
// is known. Sites absent from this map fall back to generic URL shape
// checks.
var domainRules = map[string]domainRule{
	"indianexpress.com": {
		articleRe: regexp.MustCompile(`/article/`),
		extraSelectors: []string{
			"a[href*='/article/']",
			"h3 a[href*='/article/']",
			"article a[href*='/article/']",
		},
	},
	"aihr.com": {
		articleRe: regexp.MustCompile(`/blog/`),
		extraSelectors: []string{
			"a.blog-card__link",
			"a[href*='/blog/']",
			"h2 a[href*='/blog/']",
		},
	},
	"hrdive.com": {
		articleRe: regexp.MustCompile(`/news/.+/\d+/?$`),
		extraSelectors: []string{
			"a.article-title",
			"a.card__title-link",
			"a[href*='/news/']",
		},
	},
	"hrexecutive.com": {
		articleRe: regexp.MustCompile(`/\d{4}/\d{2}/\d{2}/`),
		extraSelectors: []string{
			"a.post-title-link",
			"h2.entry-title a",
			"a[href*='hrexecutive.com/20']",
		},
	},
	"hrmorning.com": {
		articleRe: regexp.MustCompile(`/articles/`),
		extraSelectors: []string{
			"h3 a[href*='/articles/']",
			"a[href*='/articles/']",
			"h2.entry-title a",
		},
	},
}

// genericFallbackSelectors are tried on every site after the configured and
// per-domain selectors.
var genericFallbackSelectors = []string{
	"a[href*='/article/']",
	"h2 a[href*='/article/']",
	"h3 a[href*='/article/']",
	"a[href*='/news/']",
	"article a[href]",
}

// listingSections are URL path segments that mark index pages, not articles.
var listingSections = []string{"/tag/", "/topic/", "/topics/", "/category/", "/categories/"}

// looksLikeArticle reports whether a URL plausibly points at an article on
// the given domain. Known domains get their URL-pattern rule; others get a
// generic depth-and-section heuristic.
func looksLikeArticle(rawURL, domain string) bool {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if rule, ok := domainRules[domain]; ok && rule.articleRe != nil {
		return rule.articleRe.MatchString(parsed.Path)
	}

	var parts int
	for _, p := range strings.Split(parsed.Path, "/") {
		if p != "" {
			parts++
		}
	}
	if parts < 2 {
		return false
	}
	lower := strings.ToLower(parsed.Path)
	for _, seg := range listingSections {
		if strings.Contains(lower, seg) {
			return false
		}
	}
	return true
}

// normalizeLink resolves a possibly relative href against its page URL.
func normalizeLink(base, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}

// domainOf extracts the lowercased host of a URL without a www prefix.
func domainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(parsed.Host, "www."))
}
