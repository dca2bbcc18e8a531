package voiceordering

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

	"github.com/shopspring/decimal"

	pkgerrors "github.com/plateops/ops-backend/pkg/errors"
)

const (
	defaultTimeout              = 15 * time.Second
	defaultProvider             = "voice-ordering"
	responseBodyReadLimit int64 = 1024
)

var (
	errBaseURLRequired = errors.New("voice ordering base url is required")
	errAPIKeyRequired  = errors.New("voice ordering api key is required")
)

// Client pushes menu snapshots to the voice-ordering provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, errBaseURLRequired
	}
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}
	client := &Client{
		baseURL:    trimmedURL,
		apiKey:     trimmedKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// MenuEntry is one item as the provider expects it.
type MenuEntry struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
}

type MenuSnapshot struct {
	RestaurantID string      `json:"restaurantId"`
	GeneratedAt  time.Time   `json:"generatedAt"`
	Items        []MenuEntry `json:"items"`
}

// PublishResult reports how many entries the provider accepted.
type PublishResult struct {
	Provider string `json:"provider"`
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
}

// PublishMenu replaces the provider's copy of a restaurant menu.
func (c *Client) PublishMenu(ctx context.Context, snapshot MenuSnapshot) (*PublishResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "voice ordering client not configured")
	}
	restaurantID := strings.TrimSpace(snapshot.RestaurantID)
	if restaurantID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id is required")
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal menu snapshot")
	}
	endpoint := fmt.Sprintf("%s/restaurants/%s/menu", c.baseURL, url.PathEscape(restaurantID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build menu publish request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute menu publish request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "menu publish failed")
	}

	var result PublishResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode menu publish response")
	}
	if result.Provider == "" {
		result.Provider = defaultProvider
	}
	return &result, nil
}
