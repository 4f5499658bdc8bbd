package catalog

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
	"go.uber.org/zap"

	"github.com/goliatone/go-catalog-admin/errs"
)

// DefaultBaseURL is the public catalog service.
const DefaultBaseURL = "https://dummyjson.com"

// Client is the remote catalog gateway. Every failure is returned as an errs failure.
type Client interface {
	List(ctx context.Context, params ListParams) (ListResult, error)
	Get(ctx context.Context, id int) (Product, error)
	Create(ctx context.Context, in ProductInput) (Product, error)
	Update(ctx context.Context, id int, in ProductInput) (Product, error)
	Delete(ctx context.Context, id int) (DeleteResult, error)
}

// TokenSource supplies the bearer token attached to catalog requests.
type TokenSource interface {
	Token() (string, bool)
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) {
		if c != nil {
			h.http = c
		}
	}
}

// WithTokenSource attaches the session token as a bearer token.
func WithTokenSource(ts TokenSource) Option {
	return func(h *HTTPClient) { h.tokens = ts }
}

// WithLogger sets the logger used for request outcomes.
func WithLogger(l *zap.Logger) Option {
	return func(h *HTTPClient) {
		if l != nil {
			h.logger = l
		}
	}
}

// HTTPClient talks to the catalog REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a catalog gateway for baseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List routes to the search endpoint when the trimmed search term is non-empty and to the
// plain listing otherwise. Both take limit/skip pagination.
func (c *HTTPClient) List(ctx context.Context, params ListParams) (ListResult, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(params.Limit))
	q.Set("skip", strconv.Itoa(params.Skip))

	path := "/products"
	if term := strings.TrimSpace(params.Search); term != "" {
		path = "/products/search"
		q.Set("q", term)
	}

	var out ListResult
	if err := c.do(ctx, http.MethodGet, path+"?"+q.Encode(), nil, &out); err != nil {
		return ListResult{}, err
	}
	return out, nil
}

// Get fetches one product. A missing id is a NOT_FOUND failure.
func (c *HTTPClient) Get(ctx context.Context, id int) (Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodGet, productPath(id), nil, &out); err != nil {
		return Product{}, err
	}
	return out, nil
}

// Create validates the payload locally and posts it. The returned product is authoritative.
func (c *HTTPClient) Create(ctx context.Context, in ProductInput) (Product, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return Product{}, err
	}
	var out Product
	if err := c.do(ctx, http.MethodPost, "/products/add", in.wire(), &out); err != nil {
		return Product{}, err
	}
	return out, nil
}

// Update replaces the editable fields of product id.
func (c *HTTPClient) Update(ctx context.Context, id int, in ProductInput) (Product, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return Product{}, err
	}
	var out Product
	if err := c.do(ctx, http.MethodPut, productPath(id), in.wire(), &out); err != nil {
		return Product{}, err
	}
	return out, nil
}

// Delete removes product id.
func (c *HTTPClient) Delete(ctx context.Context, id int) (DeleteResult, error) {
	var out DeleteResult
	if err := c.do(ctx, http.MethodDelete, productPath(id), nil, &out); err != nil {
		return DeleteResult{}, err
	}
	return out, nil
}

func productPath(id int) string {
	return "/products/" + strconv.Itoa(id)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errs.Wrap(err, errs.KindUnknown, "could not encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errs.Wrap(err, errs.KindUnknown, "could not build request")
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("catalog request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Error(err),
		)
		return errs.FromTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.FromTransport(err)
	}

	c.logger.Debug("catalog request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", reqID),
		zap.Duration("dur", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errs.FromResponse(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errs.Wrap(err, errs.KindUnknown, fmt.Sprintf("unexpected response from %s %s", method, path))
	}
	return nil
}
