package cardinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// Card represents card metadata returned by the lookup service.
type Card struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Number     string   `json:"number"`
	Rarity     string   `json:"rarity"`
	Types      []string `json:"types"`
	SetID      string   `json:"set_id"`
	SetName    string   `json:"set_name"`
	Series     string   `json:"series"`
	ImageSmall string   `json:"image_small"`
	ImageLarge string   `json:"image_large"`
}

// Lookup is the read-only card metadata contract. It never touches engine
// state and is fully mockable.
type Lookup interface {
	LookupCardByID(ctx context.Context, id string) (*Card, error)
}

// Client is an HTTP card metadata client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a card metadata client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// LookupCardByID fetches metadata for a single card.
func (c *Client) LookupCardByID(ctx context.Context, id string) (*Card, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("cardinfo lookup error: id is empty")
	}
	if c == nil || c.http == nil {
		return nil, fmt.Errorf("cardinfo client is not initialized")
	}

	url := fmt.Sprintf("%s/cards/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("cardinfo request error: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cardinfo request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("cardinfo lookup failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	// Response shape follows the pokemontcg.io v2 convention: {"data": {...}}
	var payload struct {
		Data struct {
			ID     string   `json:"id"`
			Name   string   `json:"name"`
			Number string   `json:"number"`
			Rarity string   `json:"rarity"`
			Types  []string `json:"types"`
			Set    struct {
				ID     string `json:"id"`
				Name   string `json:"name"`
				Series string `json:"series"`
			} `json:"set"`
			Images struct {
				Small string `json:"small"`
				Large string `json:"large"`
			} `json:"images"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("cardinfo decode error: %w", err)
	}

	return &Card{
		ID:         payload.Data.ID,
		Name:       payload.Data.Name,
		Number:     payload.Data.Number,
		Rarity:     payload.Data.Rarity,
		Types:      payload.Data.Types,
		SetID:      payload.Data.Set.ID,
		SetName:    payload.Data.Set.Name,
		Series:     payload.Data.Set.Series,
		ImageSmall: payload.Data.Images.Small,
		ImageLarge: payload.Data.Images.Large,
	}, nil
}
