package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// Search looks up volumes matching query. A blank query returns no results
// without calling the API.
func (c *Client) Search(ctx context.Context, query string) ([]Volume, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(c.maxResults))
	searchURL := c.baseURL + "/volumes?" + params.Encode()

	c.logger.Debug("searching catalog", zap.String("query", query), zap.String("url", searchURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed: status %d", resp.StatusCode)
	}

	var body volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := make([]Volume, 0, len(body.Items))
	for _, it := range body.Items {
		if it.ID == "" {
			continue
		}
		results = append(results, it.toVolume())
	}
	c.logger.Debug("catalog search results", zap.String("query", query), zap.Int("count", len(results)))
	return results, nil
}

// Volume fetches one volume by its catalog ID. Returns types.ErrNotFound
// when the catalog does not know it.
func (c *Client) Volume(ctx context.Context, id string) (*Volume, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, types.ErrInvalidID
	}
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	volumeURL := c.baseURL + "/volumes/" + url.PathEscape(id)
	c.logger.Debug("fetching volume", zap.String("id", id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, volumeURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("volume request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("volume %s: %w", id, types.ErrNotFound)
	default:
		return nil, fmt.Errorf("volume request failed: status %d", resp.StatusCode)
	}

	var item volumeItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if item.ID == "" {
		item.ID = id
	}
	v := item.toVolume()
	return &v, nil
}
