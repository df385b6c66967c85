// Package catalog is the read client for the commerce platform API that
// serves products, taxonomy terms, pages, menus and site settings. List
// endpoints share a paginated envelope; malformed entries inside a page are
// skipped and logged rather than failing the page.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/storesync/typesync/internal/domain"
)

// ErrNotFound is returned when the platform reports 404 for a record.
var ErrNotFound = errors.New("catalog: record not found")

// Doer abstracts the HTTP client so tests can use a plain client and
// production can use the circuit-breaking one.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// envelope is the paginated response shape shared by all list endpoints.
type envelope struct {
	Data       []json.RawMessage `json:"data"`
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
}

// Client fetches catalog records over HTTP.
type Client struct {
	http    Doer
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewClient creates a catalog client. baseURL points at the platform API
// root, e.g. "https://shop.example.com/wp-json/store/v1".
func NewClient(httpClient Doer, baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) listPage(ctx context.Context, path string, page, perPage int) (*envelope, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	var env envelope
	if err := c.get(ctx, path, query, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// decodeEntries unmarshals each raw entry into T, skipping entries that do
// not decode.
func decodeEntries[T any](c *Client, path string, raw []json.RawMessage) []T {
	out := make([]T, 0, len(raw))
	for i, entry := range raw {
		var v T
		if err := json.Unmarshal(entry, &v); err != nil {
			c.logger.Warn("skipping malformed catalog entry",
				slog.String("path", path),
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, v)
	}
	return out
}

// ListProducts fetches one page of published products. It returns the page
// entries and the total page count reported by the platform.
func (c *Client) ListProducts(ctx context.Context, page, perPage int) ([]domain.Product, int, error) {
	env, err := c.listPage(ctx, "/products", page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch products page %d: %w", page, err)
	}
	return decodeEntries[domain.Product](c, "/products", env.Data), env.TotalPages, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	path := "/products/" + strconv.FormatInt(id, 10)
	if err := c.get(ctx, path, nil, &p); err != nil {
		return nil, fmt.Errorf("fetch product %d: %w", id, err)
	}
	return &p, nil
}

// GetVariation fetches one variation of a variable product.
func (c *Client) GetVariation(ctx context.Context, parentID, id int64) (*domain.Product, error) {
	var v domain.Product
	path := "/products/" + strconv.FormatInt(parentID, 10) + "/variations/" + strconv.FormatInt(id, 10)
	if err := c.get(ctx, path, nil, &v); err != nil {
		return nil, fmt.Errorf("fetch variation %d of product %d: %w", id, parentID, err)
	}
	return &v, nil
}

// ListTerms fetches one page of taxonomy terms across all public taxonomies.
func (c *Client) ListTerms(ctx context.Context, page, perPage int) ([]domain.Term, int, error) {
	env, err := c.listPage(ctx, "/terms", page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch terms page %d: %w", page, err)
	}
	return decodeEntries[domain.Term](c, "/terms", env.Data), env.TotalPages, nil
}

// GetTerm fetches a single taxonomy term by id.
func (c *Client) GetTerm(ctx context.Context, id int64) (*domain.Term, error) {
	var t domain.Term
	path := "/terms/" + strconv.FormatInt(id, 10)
	if err := c.get(ctx, path, nil, &t); err != nil {
		return nil, fmt.Errorf("fetch term %d: %w", id, err)
	}
	return &t, nil
}

// ListPages fetches one page of published pages and posts.
func (c *Client) ListPages(ctx context.Context, page, perPage int) ([]domain.Page, int, error) {
	env, err := c.listPage(ctx, "/pages", page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch pages page %d: %w", page, err)
	}
	return decodeEntries[domain.Page](c, "/pages", env.Data), env.TotalPages, nil
}

// ListMenus fetches one page of navigation menus. Stores rarely have more
// than a handful, but the endpoint shares the paginated envelope.
func (c *Client) ListMenus(ctx context.Context, page, perPage int) ([]domain.Menu, int, error) {
	env, err := c.listPage(ctx, "/menus", page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch menus page %d: %w", page, err)
	}
	return decodeEntries[domain.Menu](c, "/menus", env.Data), env.TotalPages, nil
}

// GetMenu fetches a single navigation menu by id.
func (c *Client) GetMenu(ctx context.Context, id int64) (*domain.Menu, error) {
	var m domain.Menu
	path := "/menus/" + strconv.FormatInt(id, 10)
	if err := c.get(ctx, path, nil, &m); err != nil {
		return nil, fmt.Errorf("fetch menu %d: %w", id, err)
	}
	return &m, nil
}

// GetSiteSettings fetches the storefront-visible site settings.
func (c *Client) GetSiteSettings(ctx context.Context) ([]domain.SiteSetting, error) {
	var env envelope
	if err := c.get(ctx, "/settings", nil, &env); err != nil {
		return nil, fmt.Errorf("fetch site settings: %w", err)
	}
	return decodeEntries[domain.SiteSetting](c, "/settings", env.Data), nil
}

// GetOrder fetches the order slice the updater needs after a status change.
func (c *Client) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	path := "/orders/" + strconv.FormatInt(id, 10)
	if err := c.get(ctx, path, nil, &o); err != nil {
		return nil, fmt.Errorf("fetch order %d: %w", id, err)
	}
	return &o, nil
}
