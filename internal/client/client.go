// Package client talks to a running stockchat API server.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/seenimoa/stockchat/internal/config"
	"github.com/seenimoa/stockchat/pkg/models"
)

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New("client: not found")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Is makes a 404 APIError match ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// envelope mirrors the server's {success, data, error} response.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// Client is a thin resty wrapper over the HTTP API.
type Client struct {
	http *resty.Client
}

// New creates a client for the server at cfg.BaseURL.
func New(cfg config.ClientConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := resty.New()
	c.SetBaseURL(cfg.BaseURL)
	c.SetTimeout(timeout)
	c.SetHeader("Accept", "application/json")
	return &Client{http: c}
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	return get[map[string]string](ctx, c, "/health", nil, nil)
}

// Chat calls POST /chat. A ChatAnswer with Success=false is returned
// without error; only transport faults and rejected requests fail.
func (c *Client) Chat(ctx context.Context, q models.ChatQuery) (*models.ChatAnswer, error) {
	var (
		ans    models.ChatAnswer
		errEnv envelope[any]
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(q).
		SetResult(&ans).
		SetError(&errEnv).
		Post("/chat")
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Message: errEnv.Error}
	}
	return &ans, nil
}

// Ask calls POST /query-gemini with caller-supplied context.
func (c *Client) Ask(ctx context.Context, q models.ChatQuery) (string, error) {
	var env envelope[struct {
		Response string `json:"response"`
	}]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(q).
		SetResult(&env).
		SetError(&env).
		Post("/query-gemini")
	if err != nil {
		return "", fmt.Errorf("query request failed: %w", err)
	}
	if resp.IsError() {
		return "", &APIError{Status: resp.StatusCode(), Message: env.Error}
	}
	return env.Data.Response, nil
}

// Summary calls GET /data/summary.
func (c *Client) Summary(ctx context.Context) (models.DataSummary, error) {
	return get[models.DataSummary](ctx, c, "/data/summary", nil, nil)
}

// Indices calls GET /indices.
func (c *Client) Indices(ctx context.Context) ([]models.IndexRecord, error) {
	return get[[]models.IndexRecord](ctx, c, "/indices", nil, nil)
}

// IndicesByRegion calls GET /indices/region/{region}.
func (c *Client) IndicesByRegion(ctx context.Context, region string) ([]models.IndexRecord, error) {
	return get[[]models.IndexRecord](ctx, c, "/indices/region/{region}",
		map[string]string{"region": region}, nil)
}

// StockData calls GET /stock-data/{symbol}. A limit of 0 uses the server
// default.
func (c *Client) StockData(ctx context.Context, symbol string, limit int) ([]models.Bar, error) {
	var query map[string]string
	if limit > 0 {
		query = map[string]string{"limit": strconv.Itoa(limit)}
	}
	return get[[]models.Bar](ctx, c, "/stock-data/{symbol}",
		map[string]string{"symbol": symbol}, query)
}

// RawData calls GET /raw-data.
func (c *Client) RawData(ctx context.Context) (models.RawSample, error) {
	return get[models.RawSample](ctx, c, "/raw-data", nil, nil)
}

// get performs a GET and unwraps the response envelope.
func get[T any](ctx context.Context, c *Client, path string, params, query map[string]string) (T, error) {
	var env envelope[T]
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(params).
		SetQueryParams(query).
		SetResult(&env).
		SetError(&env).
		Get(path)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("GET %s failed: %w", path, err)
	}
	if resp.IsError() {
		var zero T
		return zero, &APIError{Status: resp.StatusCode(), Message: env.Error}
	}
	return env.Data, nil
}
