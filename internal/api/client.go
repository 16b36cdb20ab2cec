package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"cep-admin/config"
	"cep-admin/internal/logger"
	"cep-admin/internal/metrics"
)

// Client talks to the CEP backend REST API. All operations report
// failures as *Error values; transport errors never escape raw.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a new API client. The metrics collector is optional.
func NewClient(cfg *config.Config, log *logger.Logger, m *metrics.Metrics) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.API.BaseURL, "/"),
		apiKey:     cfg.API.APIKey,
		httpClient: &http.Client{Timeout: cfg.APITimeout()},
		logger:     log,
		metrics:    m,
	}
}

// BaseURL returns the configured backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// VersionInfo is the version probe response
type VersionInfo struct {
	Version string `json:"version"`
}

// Version probes the backend version endpoint. A 401 means the backend
// requires an API key that the client is missing or got wrong.
func (c *Client) Version(ctx context.Context) (*VersionInfo, *Error) {
	var info VersionInfo
	if apiErr := c.do(ctx, http.MethodGet, "version", nil, &info); apiErr != nil {
		return nil, apiErr
	}
	return &info, nil
}

// RequiresAPIKey reports whether the backend rejects unauthenticated
// probes. Transport failures are reported as-is.
func (c *Client) RequiresAPIKey(ctx context.Context) (bool, *Error) {
	bare := &Client{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		logger:     c.logger,
		metrics:    c.metrics,
	}
	_, apiErr := bare.Version(ctx)
	if apiErr == nil {
		return false, nil
	}
	if apiErr.ErrorCode == http.StatusUnauthorized {
		return true, nil
	}
	return false, apiErr
}

// List fetches one page of an entity collection
func List[E any](ctx context.Context, c *Client, entityPath string, page, pageSize int, search string) (*Page[E], *Error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))
	if search != "" {
		query.Set("search", search)
	}

	var result Page[E]
	if apiErr := c.do(ctx, http.MethodGet, entityPath+"/?"+query.Encode(), nil, &result); apiErr != nil {
		return nil, apiErr
	}
	return &result, nil
}

// Create posts a new entity and decodes the created representation
func Create[E any](ctx context.Context, c *Client, entityPath string, body interface{}) (*E, *Error) {
	var result E
	if apiErr := c.do(ctx, http.MethodPost, entityPath, body, &result); apiErr != nil {
		return nil, apiErr
	}
	return &result, nil
}

// Delete removes a single entity by id, expecting 204 on success
func (c *Client) Delete(ctx context.Context, entityPath, id string) *Error {
	return c.do(ctx, http.MethodDelete, entityPath+"/"+url.PathEscape(id), nil, nil)
}

// do performs one request and normalizes every failure mode into *Error
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) *Error {
	requestURL := c.baseURL + "/" + path
	entity := entityOf(path)
	start := time.Now()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return c.queryError(entity, method, requestURL, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return c.queryError(entity, method, requestURL, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "apiKey "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.queryError(entity, method, requestURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.queryError(entity, method, requestURL, err)
	}

	if c.metrics != nil {
		c.metrics.ObserveAPIRequestDuration(entity, method, time.Since(start).Seconds())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{
			ErrorCode:    resp.StatusCode,
			ErrorMessage: fmt.Sprintf("Error from %s", requestURL),
		}
		var errBody ErrorBody
		if err := json.Unmarshal(data, &errBody); err == nil && errBody.StatusCode != 0 {
			apiErr.Details = &errBody
		}
		c.observe(entity, method, "error")
		c.logger.Debug("api request failed",
			"method", method,
			"url", requestURL,
			"status", resp.StatusCode)
		return apiErr
	}

	if out != nil && len(data) > 0 && resp.StatusCode != http.StatusNoContent {
		if err := json.Unmarshal(data, out); err != nil {
			return c.queryError(entity, method, requestURL, err)
		}
	}

	c.observe(entity, method, "success")
	c.logger.Debug("api request completed",
		"method", method,
		"url", requestURL,
		"status", resp.StatusCode)
	return nil
}

// queryError normalizes a transport-level failure
func (c *Client) queryError(entity, method, requestURL string, err error) *Error {
	c.observe(entity, method, "error")
	if c.metrics != nil {
		c.metrics.IncAPIError(entity)
	}
	c.logger.Debug("api query failed",
		"method", method,
		"url", requestURL,
		"error", err)
	return &Error{
		ErrorCode:    500,
		ErrorMessage: fmt.Sprintf("Error in query %s: %s", err.Error(), requestURL),
	}
}

func (c *Client) observe(entity, method, outcome string) {
	if c.metrics != nil {
		c.metrics.IncAPIRequest(entity, method, outcome)
	}
}

func entityOf(path string) string {
	if idx := strings.IndexAny(path, "/?"); idx >= 0 {
		return path[:idx]
	}
	return path
}
