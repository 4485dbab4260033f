// Package shrm pulls SHRM news through the Coveo search API. SHRM's listing
// pages are client-rendered, so the search backend is the only stable way to
// enumerate recent articles.
package shrm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"hrdigest/internal/core"
	"hrdigest/internal/logger"
)

const (
	// DefaultEndpoint is SHRM's production Coveo search endpoint.
	DefaultEndpoint = "https://societyforhumanresourcemanagementproductionay6r644u.org.coveo.com/rest/search/v2"
	// OrganizationID identifies SHRM's Coveo tenant.
	OrganizationID = "societyforhumanresourcemanagementproductionay6r644u"
	// sourceLabel is recorded as the provenance of every SHRM item.
	sourceLabel = "https://www.shrm.org/in/topics-tools/news#article_results"
)

// Client queries the Coveo API with a bearer token. A zero-value token
// disables the client.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

// NewClient builds a Coveo client using the shared scraping HTTP client.
func NewClient(httpClient *http.Client, token string) *Client {
	return &Client{
		httpClient: httpClient,
		endpoint:   DefaultEndpoint,
		token:      token,
	}
}

type searchRequest struct {
	Locale          string  `json:"locale"`
	NumberOfResults int     `json:"numberOfResults"`
	FirstResult     int     `json:"firstResult"`
	SearchHub       string  `json:"searchHub"`
	Facets          []facet `json:"facets"`
	SortCriteria    string  `json:"sortCriteria"`
}

type facet struct {
	FacetID             string       `json:"facetId"`
	Field               string       `json:"field"`
	CurrentValues       []facetValue `json:"currentValues"`
	FreezeCurrentValues bool         `json:"freezeCurrentValues"`
	PreventAutoSelect   bool         `json:"preventAutoSelect"`
	Type                string       `json:"type"`
}

type facetValue struct {
	Value string `json:"value"`
	State string `json:"state"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title     string `json:"title"`
	ClickURI  string `json:"clickUri"`
	ClickURI2 string `json:"clickuri"`
}

// FetchNews returns up to count recent SHRM news articles, newest first.
// A missing token or an auth failure yields an empty slice, not an error;
// SHRM coverage is optional.
func (c *Client) FetchNews(count int) ([]core.Candidate, error) {
	if c.token == "" {
		logger.Info("SHRM Coveo token not set, skipping SHRM")
		return nil, nil
	}

	payload := searchRequest{
		Locale:          "en",
		NumberOfResults: count,
		FirstResult:     0,
		SearchHub:       "ProdShrmUsSearchPage",
		Facets: []facet{{
			FacetID:             "contenttypefiltertag",
			Field:               "contenttypefiltertag",
			CurrentValues:       []facetValue{{Value: "News", State: "selected"}},
			FreezeCurrentValues: true,
			PreventAutoSelect:   true,
			Type:                "specific",
		}},
		SortCriteria: "date descending",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode Coveo request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint+"?organizationId="+OrganizationID, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build Coveo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://www.shrm.org")
	req.Header.Set("Referer", "https://www.shrm.org/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Coveo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		logger.Warn("SHRM Coveo auth failed, refresh the token", "status", resp.StatusCode)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Coveo request failed: status code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Coveo response: %w", err)
	}
	var parsed searchResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode Coveo response: %w", err)
	}

	var items []core.Candidate
	for _, res := range parsed.Results {
		url := res.ClickURI
		if url == "" {
			url = res.ClickURI2
		}
		if res.Title == "" || url == "" {
			continue
		}
		items = append(items, core.Candidate{
			Source: sourceLabel,
			Title:  strings.TrimSpace(res.Title),
			URL:    strings.TrimSpace(url),
		})
	}

	logger.Info("Captured SHRM items via Coveo", "items", len(items))
	return items, nil
}
