package metric

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/pagination"

	"github.com/simp-lee/merchantdash/internal/backend"
	"github.com/simp-lee/merchantdash/internal/daterange"
	"github.com/simp-lee/merchantdash/internal/domain"
	"github.com/simp-lee/merchantdash/internal/middleware"
	"github.com/simp-lee/merchantdash/internal/pkg"
)

// Reports supplies the dashboard's sales chart and best-selling table.
type Reports interface {
	FetchChart(ctx context.Context, key daterange.Key) ([]backend.ChartPoint, error)
	FetchBestSelling(ctx context.Context, q backend.BestSellingQuery) (*pagination.Pagination[backend.BestSeller], error)
}

// Handler serves the dashboard page, card partials and their JSON forms.
type Handler struct {
	board      *Board
	reports    Reports
	defaultKey daterange.Key
}

// NewHandler creates a Handler. reports may be nil, in which case the chart
// and best-selling endpoints return empty results.
func NewHandler(board *Board, reports Reports) *Handler {
	return &Handler{board: board, reports: reports, defaultKey: daterange.Default}
}

// WithDefaultRange sets the range used when a request names none.
func (h *Handler) WithDefaultRange(k daterange.Key) *Handler {
	if daterange.Known(k) {
		h.defaultKey = k
	}
	return h
}

func (h *Handler) rangeKey(c *gin.Context) daterange.Key {
	raw := c.Query("range")
	if raw == "" {
		return h.defaultKey
	}
	return daterange.ParseKey(raw)
}

// Dashboard renders every card for the requested range.
// GET /dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	key := h.rangeKey(c)
	cards := h.board.Refresh(c.Request.Context(), key)

	c.HTML(http.StatusOK, "dashboard/index.html", gin.H{
		"Cards":     cards,
		"Range":     string(key),
		"Ranges":    daterange.Keys(),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// CardPartial renders a single card; htmx swaps it in when the range changes.
// GET /dashboard/cards/:metric
func (h *Handler) CardPartial(c *gin.Context) {
	key := h.rangeKey(c)
	st, ok := h.board.RefreshOne(c.Request.Context(), c.Param("metric"), key)
	if !ok {
		c.HTML(http.StatusNotFound, "errors/404.html", gin.H{})
		return
	}
	c.HTML(http.StatusOK, "dashboard/card.html", gin.H{"Card": st})
}

// List handles GET /api/v1/metrics.
func (h *Handler) List(c *gin.Context) {
	key := h.rangeKey(c)
	pkg.Success(c, h.board.Refresh(c.Request.Context(), key))
}

// Get handles GET /api/v1/metrics/:metric.
func (h *Handler) Get(c *gin.Context) {
	key := h.rangeKey(c)
	st, ok := h.board.RefreshOne(c.Request.Context(), c.Param("metric"), key)
	if !ok {
		pkg.Error(c, domain.NewAppError(domain.CodeNotFound, "metric not found", nil))
		return
	}
	pkg.Success(c, st)
}

// Chart handles GET /api/v1/reports/chart.
func (h *Handler) Chart(c *gin.Context) {
	if h.reports == nil {
		pkg.Success(c, []backend.ChartPoint{})
		return
	}
	points, err := h.reports.FetchChart(c.Request.Context(), h.rangeKey(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, points)
}

// BestSelling handles GET /api/v1/reports/best-selling.
func (h *Handler) BestSelling(c *gin.Context) {
	if h.reports == nil {
		page, _ := pkg.Paginate[backend.BestSeller](c.Request.Context(), nil, 1, 10)
		pkg.Success(c, page)
		return
	}
	r := daterange.ResolveNow(h.rangeKey(c))
	q := backend.BestSellingQuery{
		Page:     atoiDefault(c.Query("page"), 1),
		PageSize: atoiDefault(c.Query("page_size"), 10),
		Start:    r.Start,
		End:      r.End,
	}
	page, err := h.reports.FetchBestSelling(c.Request.Context(), q)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, page)
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return min(n, 100)
}
