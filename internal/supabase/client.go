// Package supabase is a thin PostgREST query client. It covers the
// predicate surface the stores need: equality and null filters, range
// filters on timestamps, descending order, limits, and the single-row
// expectation that fails distinctly on zero rows.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds client configuration.
type Config struct {
	// URL is the project base URL, e.g. https://xyz.supabase.co.
	URL string
	// APIKey is the anon or service-role key sent with every request.
	APIKey string
	// HTTPClient overrides the default 30s-timeout client. Wrap it with
	// NewResilientDoer to add retries and a circuit breaker.
	HTTPClient Doer
}

// Doer abstracts http.Client so resilience wrappers can be layered in.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a Supabase REST API client.
type Client struct {
	restURL    string
	apiKey     string
	httpClient Doer
}

// New creates a Supabase client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("APIKey is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		restURL:    strings.TrimSuffix(cfg.URL, "/") + "/rest/v1",
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

// From starts a query builder for a table.
func (c *Client) From(table string) *QueryBuilder {
	return &QueryBuilder{
		client:  c,
		table:   table,
		method:  http.MethodGet,
		columns: "*",
		headers: make(map[string]string),
	}
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) ([]byte, int, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

const maxResponseBytes = 8 << 20 // 8 MiB

// QueryBuilder builds and executes PostgREST queries.
type QueryBuilder struct {
	client    *Client
	table     string
	method    string
	columns   string
	filters   []string
	orders    []string
	limitVal  *int
	offsetVal *int
	body      []byte
	headers   map[string]string
	single    bool
}

// Select specifies columns to select.
func (q *QueryBuilder) Select(columns string) *QueryBuilder {
	q.method = http.MethodGet
	q.columns = columns
	return q
}

// Insert inserts a record, returning the representation.
func (q *QueryBuilder) Insert(data interface{}) *QueryBuilder {
	q.method = http.MethodPost
	q.body, _ = json.Marshal(data)
	q.headers["Prefer"] = "return=representation"
	return q
}

// Update patches matching records, returning the representation.
func (q *QueryBuilder) Update(data interface{}) *QueryBuilder {
	q.method = http.MethodPatch
	q.body, _ = json.Marshal(data)
	q.headers["Prefer"] = "return=representation"
	return q
}

// Upsert inserts with merge-duplicates resolution.
func (q *QueryBuilder) Upsert(data interface{}, onConflict string) *QueryBuilder {
	q.method = http.MethodPost
	q.body, _ = json.Marshal(data)
	q.headers["Prefer"] = "return=representation,resolution=merge-duplicates"
	if onConflict != "" {
		q.headers["on-conflict"] = onConflict
	}
	return q
}

// Delete deletes matching records, returning the representation.
func (q *QueryBuilder) Delete() *QueryBuilder {
	q.method = http.MethodDelete
	q.headers["Prefer"] = "return=representation"
	return q
}

// Eq adds an equality filter.
func (q *QueryBuilder) Eq(column string, value interface{}) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s=eq.%v", column, value))
	return q
}

// Neq adds a not-equal filter.
func (q *QueryBuilder) Neq(column string, value interface{}) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s=neq.%v", column, value))
	return q
}

// Gt adds a greater-than filter.
func (q *QueryBuilder) Gt(column string, value interface{}) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s=gt.%v", column, value))
	return q
}

// Lt adds a less-than filter.
func (q *QueryBuilder) Lt(column string, value interface{}) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s=lt.%v", column, value))
	return q
}

// Gte adds a greater-than-or-equal filter.
func (q *QueryBuilder) Gte(column string, value interface{}) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s=gte.%v", column, value))
	return q
}

// Lte adds a less-than-or-equal filter.
func (q *QueryBuilder) Lte(column string, value interface{}) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s=lte.%v", column, value))
	return q
}

// Is adds an IS filter, used for null checks: Is("end_time", "null").
func (q *QueryBuilder) Is(column string, value interface{}) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s=is.%v", column, value))
	return q
}

// In adds an IN filter.
func (q *QueryBuilder) In(column string, values []string) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s=in.(%s)", column, strings.Join(values, ",")))
	return q
}

// Order adds an order clause; descending when desc is true.
func (q *QueryBuilder) Order(column string, desc bool) *QueryBuilder {
	dir := "asc"
	if desc {
		dir = "desc"
	}
	q.orders = append(q.orders, fmt.Sprintf("%s.%s", column, dir))
	return q
}

// Limit caps the number of returned rows.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limitVal = &n
	return q
}

// Offset skips rows.
func (q *QueryBuilder) Offset(n int) *QueryBuilder {
	q.offsetVal = &n
	return q
}

// Single expects exactly one row. Zero rows surface as a not-found
// error (PGRST116), more than one as a distinct failure.
func (q *QueryBuilder) Single() *QueryBuilder {
	q.single = true
	q.headers["Accept"] = "application/vnd.pgrst.object+json"
	return q
}

// Execute runs the query and returns the raw response body.
func (q *QueryBuilder) Execute(ctx context.Context) ([]byte, error) {
	body, status, err := q.client.do(ctx, q.method, q.buildURL(), q.body, q.headers)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, parseError(body, status)
	}
	return body, nil
}

// ExecuteInto runs the query and unmarshals the response into dest.
func (q *QueryBuilder) ExecuteInto(ctx context.Context, dest interface{}) error {
	data, err := q.Execute(ctx)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (q *QueryBuilder) buildURL() string {
	rawURL := q.client.restURL + "/" + url.PathEscape(q.table)

	params := make([]string, 0, len(q.filters)+4)
	if q.method == http.MethodGet && q.columns != "" {
		params = append(params, "select="+url.QueryEscape(q.columns))
	}
	params = append(params, q.filters...)
	if len(q.orders) > 0 {
		params = append(params, "order="+strings.Join(q.orders, ","))
	}
	if q.limitVal != nil {
		params = append(params, fmt.Sprintf("limit=%d", *q.limitVal))
	}
	if q.offsetVal != nil {
		params = append(params, fmt.Sprintf("offset=%d", *q.offsetVal))
	}

	if len(params) > 0 {
		rawURL += "?" + strings.Join(params, "&")
	}
	return rawURL
}
