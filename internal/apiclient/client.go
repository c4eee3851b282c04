// Package apiclient talks to the shopguide JSON API. The CLI and the admin reorder
// session use it.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shopguide/internal/models"
)

// ErrNetwork wraps transport failures: the request never produced an HTTP response.
var ErrNetwork = errors.New("network error")

// APIError is a non-2xx response carrying the server's {"error": ...} message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsLimitExceeded reports whether err is the server rejecting a seventh top pick.
func IsLimitExceeded(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		apiErr.Status == http.StatusBadRequest &&
		strings.HasPrefix(apiErr.Message, "maximum of")
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// OrderEntry is one element of a reorder request body.
type OrderEntry struct {
	ProductID string `json:"productId"`
	Rank      int    `json:"rank"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string { return c.token }

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (models.User, error) {
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID       string `json:"id"`
			Username string `json:"username"`
			Email    string `json:"email"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return models.User{}, err
	}
	c.token = resp.Token
	return models.User{Username: resp.User.Username, Email: resp.User.Email, Role: resp.User.Role}, nil
}

// TopPicks is the public featured list: active only, at most six, sorted by rank.
func (c *Client) TopPicks(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.do(ctx, http.MethodGet, "/api/products/top-picks", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// AdminTopPicks is the full featured set including inactive products.
func (c *Client) AdminTopPicks(ctx context.Context) ([]models.Product, error) {
	var resp struct {
		TopPicks []models.Product `json:"topPicks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/admin/top-picks", nil, &resp); err != nil {
		return nil, err
	}
	return resp.TopPicks, nil
}

func (c *Client) ReorderTopPicks(ctx context.Context, order []OrderEntry) ([]models.Product, error) {
	var products []models.Product
	body := map[string][]OrderEntry{"order": order}
	if err := c.do(ctx, http.MethodPut, "/api/products/top-picks/reorder", body, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) ToggleTopPick(ctx context.Context, productID string) (models.Product, error) {
	var product models.Product
	path := "/api/products/" + url.PathEscape(productID) + "/toggle-top-pick"
	if err := c.do(ctx, http.MethodPatch, path, nil, &product); err != nil {
		return models.Product{}, err
	}
	return product, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading %s %s: %v", ErrNetwork, method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		message := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			message = payload.Error
		}
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
