// Package sources defines the catalog of HR news sources the collector
// visits. The built-in catalog can be replaced by a YAML file so sources can
// be added or retired without a rebuild.
package sources

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"hrdigest/internal/logger"
)

// CoveoNewsID is the pseudo-URL that routes a source to the SHRM Coveo
// search API instead of the HTML scraper.
const CoveoNewsID = "shrm:coveo-news"

// Source is one collection target: a listing page URL plus the CSS selector
// that finds its article links. Selector is empty for API-backed sources.
type Source struct {
	URL      string `yaml:"url"`
	Selector string `yaml:"selector"`
}

// IsCoveo reports whether the source is served by the SHRM Coveo API.
func (s Source) IsCoveo() bool {
	return s.URL == CoveoNewsID
}

// Defaults returns the built-in source catalog.
func Defaults() []Source {
	return []Source{
		{
			URL:      "https://hr.economictimes.indiatimes.com/news",
			Selector: "a[href*='/news']",
		},
		{
			URL: CoveoNewsID,
		},
		{
			URL:      "https://www.aihr.com/blog/",
			Selector: "a[href^='https://www.aihr.com/blog/'], a[href^='/blog/']",
		},
		{
			URL:      "https://www.aihr.com/blog/hr-trends/",
			Selector: "a[href^='https://www.aihr.com/blog/'], a[href^='/blog/']",
		},
	}
}

type catalogFile struct {
	Sources []Source `yaml:"sources"`
}

// Load reads the source catalog. An empty path or a missing file falls back
// to the defaults; a present but malformed file is an error so typos do not
// silently shrink coverage.
func Load(path string) ([]Source, error) {
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("Source catalog file not found, using defaults", "path", path)
			return Defaults(), nil
		}
		return nil, fmt.Errorf("failed to read source catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse source catalog %s: %w", path, err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("source catalog %s defines no sources", path)
	}

	for i, s := range file.Sources {
		if s.URL == "" {
			return nil, fmt.Errorf("source catalog %s: entry %d has no url", path, i)
		}
	}

	logger.Info("Loaded source catalog", "path", path, "sources", len(file.Sources))
	return file.Sources, nil
}
