// Package client provides the HTTP client for the reference data backend.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"travel_portal_backend/internal/refdata/transport"
	"travel_portal_backend/platform/logger"
)

// Client is the REST client for destination, country, policy-type and add-on lists.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
}

// New creates a reference data client rooted at baseURL.
func New(baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		log:        log,
	}
}

// DestinationCategories fetches GET destination-categories.
func (c *Client) DestinationCategories(ctx context.Context) ([]transport.DestinationCategory, error) {
	var raw []apiCategory
	if err := c.getJSON(ctx, c.baseURL+"/destination-categories", &raw); err != nil {
		return nil, err
	}
	out := make([]transport.DestinationCategory, 0, len(raw))
	for _, r := range raw {
		out = append(out, transport.DestinationCategory{ID: r.ID.String(), Name: r.Name})
	}
	return out, nil
}

// CountriesForCategory fetches GET destination-categories/{category}/countries.
func (c *Client) CountriesForCategory(ctx context.Context, category string) ([]transport.Country, error) {
	var out []transport.Country
	reqURL := fmt.Sprintf("%s/destination-categories/%s/countries", c.baseURL, url.PathEscape(category))
	if err := c.getJSON(ctx, reqURL, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Countries fetches GET countries (countries of residence).
func (c *Client) Countries(ctx context.Context) ([]transport.Country, error) {
	var out []transport.Country
	if err := c.getJSON(ctx, c.baseURL+"/countries", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PolicyTypes fetches GET policy-types.
func (c *Client) PolicyTypes(ctx context.Context) ([]transport.PolicyType, error) {
	var raw []apiPolicyType
	if err := c.getJSON(ctx, c.baseURL+"/policy-types", &raw); err != nil {
		return nil, err
	}
	out := make([]transport.PolicyType, 0, len(raw))
	for _, r := range raw {
		out = append(out, transport.PolicyType{ID: r.ID.String(), Name: r.Name, Description: r.Description})
	}
	return out, nil
}

// Addons fetches GET addons?policyType= for a canonical policy-type name.
func (c *Client) Addons(ctx context.Context, policyType string) ([]transport.Addon, error) {
	var raw []apiAddon
	reqURL := c.baseURL + "/addons?" + url.Values{"policyType": {policyType}}.Encode()
	if err := c.getJSON(ctx, reqURL, &raw); err != nil {
		return nil, err
	}
	out := make([]transport.Addon, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toTransport())
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("reference data request failed", "error", err, "url", reqURL)
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.log.Debug("reference data not found", "url", reqURL)
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.log.Error("reference data upstream error", "status", resp.StatusCode, "url", reqURL)
		return fmt.Errorf("upstream error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		c.log.Error("reference data decode failed", "error", err, "url", reqURL)
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// flexibleID accepts numeric and string identifiers.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

func (f flexibleID) String() string { return string(f) }

type apiCategory struct {
	ID   flexibleID `json:"id"`
	Name string     `json:"name"`
}

type apiPolicyType struct {
	ID          flexibleID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
}

type apiAddon struct {
	ID           flexibleID `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Price        *float64   `json:"price"`
	Currency     string     `json:"currency"`
	Icon         string     `json:"icon"`
	Category     string     `json:"category"`
	AlterationID flexibleID `json:"alterationId"`
}

func (a apiAddon) toTransport() transport.Addon {
	addon := transport.Addon{
		ID:           a.ID.String(),
		Name:         a.Name,
		Description:  a.Description,
		Currency:     a.Currency,
		Icon:         a.Icon,
		Category:     a.Category,
		AlterationID: a.AlterationID.String(),
	}
	if a.Price != nil {
		addon.PriceCents = int64(math.Round(*a.Price * 100))
	}
	if addon.Currency == "" {
		addon.Currency = "EUR"
	}
	if addon.AlterationID == "" {
		addon.AlterationID = addon.ID
	}
	if addon.ID == "" {
		addon.ID = "alt-" + addon.AlterationID
	}
	return addon
}
