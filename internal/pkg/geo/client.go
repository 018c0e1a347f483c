package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// LocationInfo is the resolved location for a free-text query.
type LocationInfo struct {
	DisplayName string `json:"display_name"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
	CountryCode string `json:"country_code"`
}

// Lookup is the read-only geolocation contract.
type Lookup interface {
	LookupLocation(ctx context.Context, text string) (*LocationInfo, error)
}

// Client is an HTTP geocoding client.
type Client struct {
	baseURL string
	ua      string
	http    *http.Client
}

// NewClient creates a geocoding client.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		ua:      userAgent,
		http:    &http.Client{Timeout: timeout},
	}
}

// LookupLocation resolves a free-text location query to its best match.
func (c *Client) LookupLocation(ctx context.Context, text string) (*LocationInfo, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("geo lookup error: query is empty")
	}
	if c == nil || c.http == nil {
		return nil, fmt.Errorf("geo client is not initialized")
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", c.baseURL, url.QueryEscape(text))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("geo request error: %w", err)
	}
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo lookup failed: status=%d", resp.StatusCode)
	}

	var results []struct {
		DisplayName string `json:"display_name"`
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		Address     struct {
			CountryCode string `json:"country_code"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("geo decode error: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	return &LocationInfo{
		DisplayName: results[0].DisplayName,
		Latitude:    results[0].Lat,
		Longitude:   results[0].Lon,
		CountryCode: results[0].Address.CountryCode,
	}, nil
}
