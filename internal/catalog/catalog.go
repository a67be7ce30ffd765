// Package catalog is the read-only client for the external book catalog
// (Open Library). The core never writes to it; search and details are
// proxied to clients as-is.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://openlibrary.org"

// SearchResult is one hit from the catalog's search endpoint.
type SearchResult struct {
	Key              string `json:"key"`
	Title            string `json:"title"`
	Author           string `json:"author"`
	CoverID          int    `json:"cover_id,omitempty"`
	FirstPublishYear int    `json:"first_publish_year,omitempty"`
}

// BookDetails is the full record for one catalog key.
type BookDetails struct {
	Key           string   `json:"key"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Description   string   `json:"description,omitempty"`
	NumberOfPages int      `json:"number_of_pages,omitempty"`
	Subjects      []string `json:"subjects,omitempty"`
	CoverURL      string   `json:"cover_url,omitempty"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds a catalog client with a request timeout so a slow
// upstream cannot stall handlers.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type searchResponse struct {
	Docs []struct {
		Key              string   `json:"key"`
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		CoverI           int      `json:"cover_i"`
		FirstPublishYear int      `json:"first_publish_year"`
	} `json:"docs"`
}

// Search queries the catalog by free text.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	endpoint := fmt.Sprintf("%s/search.json?q=%s&limit=%s",
		c.baseURL, url.QueryEscape(query), strconv.Itoa(limit))

	var resp searchResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("catalog search failed: %v", err)
	}

	results := make([]SearchResult, 0, len(resp.Docs))
	for _, doc := range resp.Docs {
		author := ""
		if len(doc.AuthorName) > 0 {
			author = doc.AuthorName[0]
		}
		results = append(results, SearchResult{
			Key:              doc.Key,
			Title:            doc.Title,
			Author:           author,
			CoverID:          doc.CoverI,
			FirstPublishYear: doc.FirstPublishYear,
		})
	}
	return results, nil
}

type workResponse struct {
	Title       string      `json:"title"`
	Description interface{} `json:"description"`
	Subjects    []string    `json:"subjects"`
	Covers      []int       `json:"covers"`
}

// GetDetails fetches the record behind one catalog key, e.g. "/works/OL1W".
func (c *Client) GetDetails(ctx context.Context, key string) (*BookDetails, error) {
	endpoint := fmt.Sprintf("%s%s.json", c.baseURL, key)

	var resp workResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("catalog details failed: %v", err)
	}

	details := &BookDetails{
		Key:      key,
		Title:    resp.Title,
		Subjects: resp.Subjects,
	}
	// The catalog serves descriptions either as a string or as an object.
	switch d := resp.Description.(type) {
	case string:
		details.Description = d
	case map[string]interface{}:
		if v, ok := d["value"].(string); ok {
			details.Description = v
		}
	}
	if len(resp.Covers) > 0 {
		details.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", resp.Covers[0])
	}
	return details, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
