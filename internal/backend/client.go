// Package backend is the HTTP client for the merchant REST backend: analytics,
// products, dashboard reports, payouts and the store profile.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/simp-lee/pagination"
	"golang.org/x/time/rate"

	"github.com/simp-lee/merchantdash/internal/daterange"
	"github.com/simp-lee/merchantdash/internal/domain"
)

const (
	defaultTimeout      = 10 * time.Second
	allProductsPageSize = 100
	maxProductPages     = 50
	maxErrorBody        = 4 << 10
)

// Config configures the backend client.
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64 // requests per second; <= 0 disables limiting
	Burst     int
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRecorder records every call, e.g. into Prometheus.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// Client talks to the merchant backend. Calls are never retried; a failure is
// reported to the caller, which decides how to surface it.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
	recorder Recorder
	now      func() time.Time
}

// NewClient builds a client for cfg.BaseURL.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("backend: base url is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("backend: invalid base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		if burst <= 0 {
			burst = 1
		}
	}

	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(limit, burst),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchAnalytics returns the analytics aggregates for r.
func (c *Client) FetchAnalytics(ctx context.Context, r daterange.Range) (Analytics, error) {
	iso := r.ISO()
	q := url.Values{"startDate": {iso.StartDate}, "endDate": {iso.EndDate}}
	var out Analytics
	err := c.getJSON(ctx, "analytics", "/api/analytics", q, &out)
	return out, err
}

// ListProducts returns one page of products.
func (c *Client) ListProducts(ctx context.Context, pq ProductQuery) (ProductPage, error) {
	q := url.Values{}
	setInt(q, "page", pq.Page)
	setInt(q, "pageSize", pq.PageSize)
	setString(q, "search", pq.Search)
	if pq.Status != "" && pq.Status != "all" {
		q.Set("status", pq.Status)
	}
	setString(q, "sort", pq.Sort)
	setString(q, "dir", pq.Dir)
	setFloat(q, "minPrice", pq.MinPrice)
	setFloat(q, "maxPrice", pq.MaxPrice)

	var out ProductPage
	err := c.getJSON(ctx, "products.list", "/api/products", q, &out)
	return out, err
}

// ListAllProducts walks every product page and returns the full catalogue.
func (c *Client) ListAllProducts(ctx context.Context) ([]domain.Product, error) {
	var all []domain.Product
	for page := 1; page <= maxProductPages; page++ {
		res, err := c.ListProducts(ctx, ProductQuery{Page: page, PageSize: allProductsPageSize})
		if err != nil {
			return nil, err
		}
		for _, p := range res.Items {
			all = append(all, p.ToDomain())
		}
		if len(res.Items) == 0 || page >= res.TotalPages.Int() {
			break
		}
	}
	return all, nil
}

// UpdateProduct submits the product edit form with the fields set in u.
func (c *Client) UpdateProduct(ctx context.Context, id string, u domain.ProductUpdate) (domain.Product, error) {
	form := u.Form()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, key := range domain.ProductFormFields {
		if v, ok := form[key]; ok {
			if err := w.WriteField(key, v); err != nil {
				return domain.Product{}, fmt.Errorf("backend: encode form: %w", err)
			}
		}
	}
	if err := w.Close(); err != nil {
		return domain.Product{}, fmt.Errorf("backend: encode form: %w", err)
	}

	var out Product
	err := c.do(ctx, "products.update", http.MethodPatch, "/api/products/"+url.PathEscape(id), nil,
		&body, w.FormDataContentType(), &out)
	if err != nil {
		return domain.Product{}, err
	}
	if out.ID == "" && out.SKU == "" {
		out.ID = id
	}
	return out.ToDomain(), nil
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, "products.delete", http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, nil, "", nil)
}

// FetchChart returns the revenue chart series for a range key.
func (c *Client) FetchChart(ctx context.Context, key daterange.Key) ([]ChartPoint, error) {
	var out []ChartPoint
	err := c.getJSON(ctx, "dashboard.chart", "/api/dashboard/chart", url.Values{"range": {string(key)}}, &out)
	return out, err
}

// FetchBestSelling returns a page of the best-selling products report.
func (c *Client) FetchBestSelling(ctx context.Context, bq BestSellingQuery) (*pagination.Pagination[BestSeller], error) {
	q := url.Values{}
	setInt(q, "page", bq.Page)
	setInt(q, "pageSize", bq.PageSize)
	if !bq.Start.IsZero() && !bq.End.IsZero() {
		iso := daterange.Range{Start: bq.Start, End: bq.End}.ISO()
		q.Set("start", iso.StartDate)
		q.Set("end", iso.EndDate)
	}
	var out BestSellingPage
	if err := c.getJSON(ctx, "dashboard.best_selling", "/api/dashboard/best-selling", q, &out); err != nil {
		return nil, err
	}
	return out.paginate(ctx, bq.Page, bq.PageSize)
}

// ListBanks returns the banks available for payouts.
func (c *Client) ListBanks(ctx context.Context) ([]Bank, error) {
	var out []Bank
	err := c.getJSON(ctx, "payments.banks", "/api/payments/banks", nil, &out)
	return out, err
}

// ResolveAccount looks up the holder of a bank account.
func (c *Client) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (AccountResolution, error) {
	q := url.Values{"account_number": {accountNumber}, "bank_code": {bankCode}}
	var out AccountResolution
	err := c.getJSON(ctx, "payments.resolve_account", "/api/payments/resolve-account", q, &out)
	if err == nil && out.AccountNumber == "" {
		out.AccountNumber = accountNumber
	}
	return out, err
}

// CreateSubaccount registers the payout subaccount.
func (c *Client) CreateSubaccount(ctx context.Context, req SubaccountRequest) (Subaccount, error) {
	var out Subaccount
	err := c.sendJSON(ctx, "payments.subaccount", http.MethodPost, "/api/payments/subaccount", req, &out)
	return out, err
}

// GetStore returns the store profile.
func (c *Client) GetStore(ctx context.Context) (Store, error) {
	var out Store
	err := c.getJSON(ctx, "store.get", "/api/store", nil, &out)
	return out, err
}

// UpdateStore patches the store profile.
func (c *Client) UpdateStore(ctx context.Context, req StoreUpdate) (Store, error) {
	var out Store
	err := c.sendJSON(ctx, "store.update", http.MethodPatch, "/api/store", req, &out)
	return out, err
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, q url.Values, target any) error {
	return c.do(ctx, endpoint, http.MethodGet, path, q, nil, "", target)
}

func (c *Client) sendJSON(ctx context.Context, endpoint, method, path string, payload, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("backend: encode payload: %w", err)
	}
	return c.do(ctx, endpoint, method, path, nil, bytes.NewReader(body), "application/json", target)
}

// do performs one request and decodes the {status, data} envelope's data into
// target. Transport failures and 5xx responses become upstream errors; 404 and
// 4xx validation responses keep their meaning.
func (c *Client) do(ctx context.Context, endpoint, method, path string, q url.Values, body io.Reader, contentType string, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return upstream(endpoint, fmt.Errorf("rate limit wait: %w", err))
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	started := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.recorder.RecordRequest(endpoint, 0, c.now().Sub(started))
		return upstream(endpoint, fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()
	c.recorder.RecordRequest(endpoint, resp.StatusCode, c.now().Sub(started))

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError(endpoint, resp.StatusCode, raw)
	}
	if target == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return upstream(endpoint, fmt.Errorf("read response: %w", err))
	}
	return decodeEnvelope(endpoint, raw, target)
}

type envelope struct {
	Status  json.RawMessage `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// decodeEnvelope unwraps {status, data}. A body without the envelope is
// decoded as the data itself; missing data leaves target at its zero value.
func decodeEnvelope(endpoint string, raw []byte, target any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	var env envelope
	if raw[0] == '{' && json.Unmarshal(raw, &env) == nil && (env.Status != nil || env.Data != nil) {
		if failedStatus(env.Status) {
			msg := env.Message
			if msg == "" {
				msg = "request failed"
			}
			return upstream(endpoint, errors.New(msg))
		}
		raw = env.Data
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return upstream(endpoint, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func failedStatus(raw json.RawMessage) bool {
	if raw == nil {
		return false
	}
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return !b
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return slices.Contains([]string{"error", "fail", "failed", "failure"}, strings.ToLower(s))
	}
	return false
}

func statusError(endpoint string, status int, body []byte) error {
	var env envelope
	_ = json.Unmarshal(body, &env)
	cause := fmt.Errorf("%s: remote error %d: %s", endpoint, status, strings.TrimSpace(string(body)))

	switch {
	case status == http.StatusNotFound:
		return domain.NewAppError(domain.CodeNotFound, "not found", cause)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		msg := env.Message
		if msg == "" {
			msg = "request rejected by backend"
		}
		return domain.NewAppError(domain.CodeValidation, msg, cause)
	default:
		return domain.NewAppError(domain.CodeUpstream, "backend request failed", cause)
	}
}

func upstream(endpoint string, err error) error {
	return domain.NewAppError(domain.CodeUpstream, "backend request failed", fmt.Errorf("%s: %w", endpoint, err))
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}

func setInt(q url.Values, key string, v int) {
	if v > 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

func setFloat(q url.Values, key string, v *float64) {
	if v != nil {
		q.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
	}
}
