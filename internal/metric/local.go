package metric

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/simp-lee/pagination"

	"github.com/simp-lee/merchantdash/internal/backend"
	"github.com/simp-lee/merchantdash/internal/daterange"
	"github.com/simp-lee/merchantdash/internal/domain"
	"github.com/simp-lee/merchantdash/internal/pkg"
)

// OrderReader loads orders placed within a window.
type OrderReader interface {
	Between(ctx context.Context, from, to time.Time) ([]domain.Order, error)
}

// ProductReader loads the catalogue.
type ProductReader interface {
	List(ctx context.Context) ([]domain.Product, error)
}

// SaleReader loads sales made within a window.
type SaleReader interface {
	Between(ctx context.Context, from, to time.Time) ([]domain.Sale, error)
}

// LocalSource computes analytics from the local database instead of the
// merchant backend. Percent changes compare the window with the immediately
// preceding window of the same length.
type LocalSource struct {
	orders   OrderReader
	products ProductReader
	sales    SaleReader
	now      func() time.Time
}

// NewLocalSource creates a LocalSource. products and sales may be nil.
func NewLocalSource(orders OrderReader, products ProductReader, sales SaleReader) *LocalSource {
	return &LocalSource{orders: orders, products: products, sales: sales, now: time.Now}
}

type orderTotals struct {
	revenue        float64
	paid           int
	processed      int
	outForDelivery int
	byStatus       map[string]int
	customers      map[string]struct{}
}

func summarize(orders []domain.Order) orderTotals {
	t := orderTotals{byStatus: make(map[string]int), customers: make(map[string]struct{})}
	for _, o := range orders {
		t.byStatus[o.Status]++
		t.customers[o.CustomerName] = struct{}{}
		if o.Status == domain.OrderCancelled {
			continue
		}
		if o.PaymentStatus == domain.PaymentPaid {
			t.revenue += o.Amount
			t.paid++
		}
		switch o.Status {
		case domain.OrderProcessing, domain.OrderOutForDelivery, domain.OrderDelivered:
			t.processed++
		}
		if o.Status == domain.OrderOutForDelivery {
			t.outForDelivery++
		}
	}
	return t
}

func (t orderTotals) avgOrderValue() float64 {
	if t.paid == 0 {
		return 0
	}
	return t.revenue / float64(t.paid)
}

// FetchAnalytics implements Source.
func (s *LocalSource) FetchAnalytics(ctx context.Context, r daterange.Range) (backend.Analytics, error) {
	current, err := s.orders.Between(ctx, r.Start, r.End)
	if err != nil {
		return backend.Analytics{}, err
	}
	prevRange := r.Previous()
	previous, err := s.orders.Between(ctx, prevRange.Start, prevRange.End)
	if err != nil {
		return backend.Analytics{}, err
	}

	var views float64
	if s.products != nil {
		products, err := s.products.List(ctx)
		if err != nil {
			return backend.Analytics{}, err
		}
		for _, p := range products {
			views += float64(p.Views)
		}
	}

	cur, prev := summarize(current), summarize(previous)
	a := backend.Analytics{
		Values: map[string]backend.Number{
			"totalRevenue":    backend.Number(cur.revenue),
			"processedOrders": backend.Number(cur.processed),
			"outForDelivery":  backend.Number(cur.outForDelivery),
			"totalViews":      backend.Number(views),
			"avgOrderValue":   backend.Number(cur.avgOrderValue()),
		},
		Changes: map[string]backend.Number{
			"totalRevenue":    backend.Number(percentChange(cur.revenue, prev.revenue)),
			"processedOrders": backend.Number(percentChange(float64(cur.processed), float64(prev.processed))),
			"outForDelivery":  backend.Number(percentChange(float64(cur.outForDelivery), float64(prev.outForDelivery))),
			"avgOrderValue":   backend.Number(percentChange(cur.avgOrderValue(), prev.avgOrderValue())),
		},
		OrdersOverview:    make(map[string]backend.Number, len(domain.OrderStatuses)),
		CustomerAnalytics: make(map[string]backend.Number, 3),
	}
	for _, st := range domain.OrderStatuses {
		a.OrdersOverview[st] = backend.Number(cur.byStatus[st])
	}

	returning := 0
	for name := range cur.customers {
		if _, ok := prev.customers[name]; ok {
			returning++
		}
	}
	a.CustomerAnalytics["total"] = backend.Number(len(cur.customers))
	a.CustomerAnalytics["returning"] = backend.Number(returning)
	a.CustomerAnalytics["new"] = backend.Number(len(cur.customers) - returning)
	return a, nil
}

// percentChange returns the signed change from prev to cur in percent.
// Growth from zero counts as 100%.
func percentChange(cur, prev float64) float64 {
	if prev == 0 {
		if cur == 0 {
			return 0
		}
		return 100
	}
	return (cur - prev) / prev * 100
}

// FetchChart buckets paid order revenue over the resolved range: hourly for
// one-day windows, monthly for windows of six months or more, daily otherwise.
func (s *LocalSource) FetchChart(ctx context.Context, key daterange.Key) ([]backend.ChartPoint, error) {
	r := daterange.Resolve(key, s.now())
	orders, err := s.orders.Between(ctx, r.Start, r.End)
	if err != nil {
		return nil, err
	}

	bucket, layout := chartBucket(r)
	points := []backend.ChartPoint{}
	index := make(map[int64]int)
	for t := bucket(r.Start); !t.After(r.End); t = nextBucket(t, r) {
		index[t.Unix()] = len(points)
		points = append(points, backend.ChartPoint{Label: t.Format(layout)})
	}
	for _, o := range orders {
		i, ok := index[bucket(o.PlacedAt.In(r.End.Location())).Unix()]
		if !ok {
			continue
		}
		points[i].Orders++
		if o.Status != domain.OrderCancelled && o.PaymentStatus == domain.PaymentPaid {
			points[i].Revenue += backend.Number(o.Amount)
		}
	}
	return points, nil
}

func chartBucket(r daterange.Range) (func(time.Time) time.Time, string) {
	d := r.Duration()
	switch {
	case d <= 24*time.Hour:
		return func(t time.Time) time.Time { return t.Truncate(time.Hour) }, "15:04"
	case d >= 180*24*time.Hour:
		return func(t time.Time) time.Time {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		}, "Jan 2006"
	default:
		return func(t time.Time) time.Time {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		}, "02 Jan"
	}
}

func nextBucket(t time.Time, r daterange.Range) time.Time {
	d := r.Duration()
	switch {
	case d <= 24*time.Hour:
		return t.Add(time.Hour)
	case d >= 180*24*time.Hour:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// FetchBestSelling ranks products by units sold in the query window.
func (s *LocalSource) FetchBestSelling(ctx context.Context, q backend.BestSellingQuery) (*pagination.Pagination[backend.BestSeller], error) {
	if s.sales == nil {
		return pkg.Paginate[backend.BestSeller](ctx, nil, q.Page, q.PageSize)
	}
	start, end := q.Start, q.End
	if start.IsZero() || end.IsZero() {
		r := daterange.Resolve(daterange.Default, s.now())
		start, end = r.Start, r.End
	}
	sales, err := s.sales.Between(ctx, start, end)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[string]*backend.BestSeller)
	for _, sale := range sales {
		if sale.Status == domain.SaleRefunded {
			continue
		}
		b, ok := byProduct[sale.ProductName]
		if !ok {
			b = &backend.BestSeller{ProductID: sale.ProductName, Name: sale.ProductName}
			byProduct[sale.ProductName] = b
		}
		b.UnitsSold += backend.Number(sale.Quantity)
		b.Revenue += backend.Number(sale.Amount)
	}
	ranked := make([]backend.BestSeller, 0, len(byProduct))
	for _, b := range byProduct {
		ranked = append(ranked, *b)
	}
	slices.SortFunc(ranked, func(a, b backend.BestSeller) int {
		if c := cmp.Compare(b.UnitsSold, a.UnitsSold); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	return pkg.Paginate(ctx, ranked, q.Page, q.PageSize)
}
