package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simp-lee/merchantdash/internal/daterange"
	"github.com/simp-lee/merchantdash/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"}, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)

	_, err = NewClient(Config{BaseURL: "not a url"})
	require.Error(t, err)
}

func TestFetchAnalytics(t *testing.T) {
	now := time.Date(2024, 8, 30, 15, 42, 7, 0, time.UTC)
	r := daterange.Resolve(daterange.LastWeek, now)

	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/api/analytics", req.URL.Path)
		assert.Equal(t, "2024-08-23T15:42:07.000Z", req.URL.Query().Get("startDate"))
		assert.Equal(t, "2024-08-30T15:42:07.000Z", req.URL.Query().Get("endDate"))
		assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"data": map[string]any{
				"totalRevenue":          "12345",
				"processedOrders":       42,
				"avgOrderValue":         "1,250.50",
				"totalViews":            nil,
				"processedOrdersChange": -3.25,
				"changes":               map[string]any{"totalRevenue": "12.34"},
				"ordersOverview":        map[string]any{"pending": 3},
				"customerAnalytics":     map[string]any{"returning": "7"},
			},
		})
	})

	a, err := c.FetchAnalytics(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, 12345.0, a.Value("totalRevenue"))
	assert.Equal(t, 42.0, a.Value("processedOrders"))
	assert.Equal(t, 1250.5, a.Value("avgOrderValue"))
	assert.Zero(t, a.Value("totalViews"))
	assert.Zero(t, a.Value("outForDelivery"))
	assert.Equal(t, 12.34, a.Change("totalRevenue"))
	assert.Equal(t, -3.25, a.Change("processedOrders"))
	assert.Zero(t, a.Change("totalViews"))
	assert.Equal(t, 3.0, a.OrdersOverview["pending"].Float())
	assert.Equal(t, 7.0, a.CustomerAnalytics["returning"].Float())
}

func TestFetchAnalytics_FailedEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "error", "message": "range too large"})
	})

	_, err := c.FetchAnalytics(context.Background(), daterange.ResolveNow(daterange.Today))
	require.Error(t, err)
	assert.True(t, domain.IsUpstream(err))
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"not found", http.StatusNotFound, `{"message":"no such product"}`, domain.IsNotFound},
		{"validation", http.StatusUnprocessableEntity, `{"message":"price must be positive"}`, domain.IsValidation},
		{"server error", http.StatusInternalServerError, `oops`, domain.IsUpstream},
		{"bad gateway", http.StatusBadGateway, ``, domain.IsUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			err := c.DeleteProduct(context.Background(), "p1")
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error class: %v", err)
		})
	}
}

func TestValidationMessageFromBackend(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": "error", "message": "invalid account"})
	})

	_, err := c.ResolveAccount(context.Background(), "0123456789", "058")
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "invalid account", appErr.Message)
}

func TestTransportFailureIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.ListBanks(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsUpstream(err))
}

func TestListProducts_QueryAndDecode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "25", q.Get("pageSize"))
		assert.Equal(t, "dress", q.Get("search"))
		assert.Empty(t, q.Get("status"), "status=all must not be forwarded")
		assert.Equal(t, "5000", q.Get("minPrice"))
		assert.False(t, q.Has("maxPrice"))
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"data": map[string]any{
				"items": []map[string]any{
					{"id": "p1", "sku": "SKU-1", "name": "Ankara Dress", "price": "15000", "quantity": 4, "createdAt": "2024-05-01T10:00:00Z"},
					{"sku": "SKU-2", "name": "Aso Oke", "status": "archived"},
				},
				"total":      "27",
				"totalPages": 2,
			},
		})
	})

	minPrice := 5000.0
	page, err := c.ListProducts(context.Background(), ProductQuery{Page: 2, PageSize: 25, Search: "dress", Status: "all", MinPrice: &minPrice})
	require.NoError(t, err)
	assert.Equal(t, 27, page.Total.Int())
	require.Len(t, page.Items, 2)

	p1 := page.Items[0].ToDomain()
	assert.Equal(t, "p1", p1.ID)
	assert.Equal(t, 15000.0, p1.Price)
	assert.Equal(t, domain.ProductActive, p1.Status)
	assert.Equal(t, 2024, p1.ListedAt.Year())

	p2 := page.Items[1].ToDomain()
	assert.Equal(t, "SKU-2", p2.ID, "sku doubles as id when the backend omits one")
	assert.Equal(t, domain.ProductArchived, p2.Status)
}

func TestListAllProducts_WalksPages(t *testing.T) {
	var mu sync.Mutex
	var pages []string
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		mu.Lock()
		pages = append(pages, req.URL.Query().Get("page"))
		mu.Unlock()
		id := "p" + req.URL.Query().Get("page")
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"data":   map[string]any{"items": []map[string]any{{"id": id}}, "totalPages": 3},
		})
	})

	all, err := c.ListAllProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, []string{"1", "2", "3"}, pages)
}

func TestFetchBestSelling_Pages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/api/dashboard/best-selling", req.URL.Path)
		assert.Equal(t, "2", req.URL.Query().Get("page"))
		assert.Equal(t, "2", req.URL.Query().Get("pageSize"))
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"data": map[string]any{
				"items":      []map[string]any{{"productId": "p3", "name": "Adire Scarf", "unitsSold": "4"}},
				"total":      5,
				"totalPages": 3,
			},
		})
	})

	page, err := c.FetchBestSelling(context.Background(), BestSellingQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Adire Scarf", page.Items[0].Name)
	assert.Equal(t, int64(5), page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.True(t, page.HasPreviousPage())
	assert.True(t, page.HasNextPage())
}

func TestFetchBestSelling_EmptyReport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{"items": nil, "total": 0}})
	})

	page, err := c.FetchBestSelling(context.Background(), BestSellingQuery{})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
}

func TestUpdateProduct_SendsMultipartForm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPatch, req.Method)
		assert.Equal(t, "/api/products/p%201", req.URL.EscapedPath())
		assert.NoError(t, req.ParseMultipartForm(1<<20))
		assert.Equal(t, "archived", req.FormValue("status"))
		assert.Equal(t, "18000", req.FormValue("price"))
		assert.Empty(t, req.MultipartForm.Value["name"])
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{"id": "p 1", "status": "archived", "price": 18000}})
	})

	status, price := domain.ProductArchived, 18000.0
	p, err := c.UpdateProduct(context.Background(), "p 1", domain.ProductUpdate{Status: &status, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, domain.ProductArchived, p.Status)
	assert.Equal(t, 18000.0, p.Price)
}

func TestCreateSubaccountAndStore(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/api/payments/subaccount":
			var body SubaccountRequest
			assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "0123456789", body.AccountNumber)
			writeJSON(w, http.StatusOK, map[string]any{"status": true, "data": map[string]any{"subaccount_code": "ACCT_x", "business_name": body.BusinessName}})
		case "/api/store":
			assert.Equal(t, http.MethodPatch, req.Method)
			assert.True(t, strings.HasPrefix(req.Header.Get("Content-Type"), "application/json"))
			writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{"name": "Ada Stores"}})
		default:
			http.NotFound(w, req)
		}
	})

	sub, err := c.CreateSubaccount(context.Background(), SubaccountRequest{BusinessName: "Ada Stores", BankCode: "058", AccountNumber: "0123456789"})
	require.NoError(t, err)
	assert.Equal(t, "ACCT_x", sub.Code)

	name := "Ada Stores"
	store, err := c.UpdateStore(context.Background(), StoreUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ada Stores", store.Name)
}

func TestDecodeEnvelope_BareAndMissingData(t *testing.T) {
	var banks []Bank
	require.NoError(t, decodeEnvelope("x", []byte(`[{"name":"GTBank","code":"058"}]`), &banks))
	assert.Equal(t, []Bank{{Name: "GTBank", Code: "058"}}, banks)

	var store Store
	require.NoError(t, decodeEnvelope("x", []byte(`{"status":"success"}`), &store))
	assert.Equal(t, Store{}, store)

	require.Error(t, decodeEnvelope("x", []byte(`{"status":false,"message":"nope"}`), &store))
}

func TestNumber_UnmarshalJSON(t *testing.T) {
	tests := map[string]float64{
		`12`:         12,
		`"12345"`:    12345,
		`"1,250.75"`: 1250.75,
		`""`:         0,
		`"abc"`:      0,
		`null`:       0,
		`true`:       0,
		`{"a":1}`:    0,
		`-4.5`:       -4.5,
	}
	for in, want := range tests {
		var n Number
		require.NoError(t, json.Unmarshal([]byte(in), &n), in)
		assert.Equal(t, want, n.Float(), in)
	}
}

func TestCollector_RecordsCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	col := NewCollector(reg)
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": []any{}})
	}, WithRecorder(col))

	_, err := c.ListBanks(context.Background())
	require.NoError(t, err)
	_, err = c.ListBanks(context.Background())
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	var requests, observations float64
	for _, mf := range families {
		switch mf.GetName() {
		case "merchantdash_backend_requests_total":
			for _, m := range mf.GetMetric() {
				requests += m.GetCounter().GetValue()
			}
		case "merchantdash_backend_request_seconds":
			for _, m := range mf.GetMetric() {
				observations += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	assert.Equal(t, 2.0, requests)
	assert.Equal(t, 2.0, observations)
}

func TestRateLimiter_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, RateLimit: 0.001, Burst: 1})
	require.NoError(t, err)

	_, err = c.ListBanks(context.Background())
	require.NoError(t, err, "first call uses the burst token")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.ListBanks(ctx)
	require.Error(t, err)
	assert.True(t, domain.IsUpstream(err))
}
