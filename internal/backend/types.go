package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/simp-lee/pagination"

	"github.com/simp-lee/merchantdash/internal/domain"
)

// Number is a numeric field the backend sends either as a JSON number or as
// a string ("12345", "1,250.50"). Anything unparseable decodes to 0.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*n = 0
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*n = Number(v)
		}
	case 'n', 't', 'f', '{', '[':
		// null, booleans and nested values fall back to zero
	default:
		if v, err := strconv.ParseFloat(string(b), 64); err == nil {
			*n = Number(v)
		}
	}
	return nil
}

// Float returns n as a float64.
func (n Number) Float() float64 { return float64(n) }

// Int returns n truncated to an int.
func (n Number) Int() int { return int(n) }

// Analytics is the payload of GET /api/analytics. Scalar fields are kept by
// their backend name (totalRevenue, processedOrders, ...).
type Analytics struct {
	Values            map[string]Number
	Changes           map[string]Number
	OrdersOverview    map[string]Number
	CustomerAnalytics map[string]Number
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Analytics) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	a.Values = make(map[string]Number, len(raw))
	for key, value := range raw {
		switch key {
		case "changes":
			_ = json.Unmarshal(value, &a.Changes)
		case "ordersOverview":
			_ = json.Unmarshal(value, &a.OrdersOverview)
		case "customerAnalytics":
			_ = json.Unmarshal(value, &a.CustomerAnalytics)
		default:
			var n Number
			_ = n.UnmarshalJSON(value)
			a.Values[key] = n
		}
	}
	return nil
}

// Value returns the named field, 0 when absent.
func (a Analytics) Value(field string) float64 {
	return a.Values[field].Float()
}

// Change returns the signed percent change for field, read from the
// "changes" object or a sibling "<field>Change" value. Absent means 0.
func (a Analytics) Change(field string) float64 {
	if v, ok := a.Changes[field]; ok {
		return v.Float()
	}
	return a.Values[field+"Change"].Float()
}

// Product is a catalogue item as served by /api/products.
type Product struct {
	ID              string `json:"id"`
	SKU             string `json:"sku"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	Status          string `json:"status"`
	Price           Number `json:"price"`
	Quantity        Number `json:"quantity"`
	Description     string `json:"description"`
	EstProdDaysFrom Number `json:"est_prod_days_from"`
	EstProdDaysTo   Number `json:"est_prod_days_to"`
	Weight          Number `json:"weight"`
	Views           Number `json:"views"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

// ToDomain converts the wire product, defaulting missing fields.
func (p Product) ToDomain() domain.Product {
	id := p.ID
	if id == "" {
		id = p.SKU
	}
	sku := p.SKU
	if sku == "" {
		sku = id
	}
	status := p.Status
	if status == "" {
		status = domain.ProductActive
	}
	created := parseTime(p.CreatedAt)
	return domain.Product{
		BaseModel: domain.BaseModel{
			ID:        id,
			CreatedAt: created,
			UpdatedAt: parseTime(p.UpdatedAt),
		},
		SKU:             sku,
		Name:            p.Name,
		Category:        p.Category,
		Status:          status,
		Price:           p.Price.Float(),
		Quantity:        p.Quantity.Int(),
		Description:     p.Description,
		EstProdDaysFrom: p.EstProdDaysFrom.Int(),
		EstProdDaysTo:   p.EstProdDaysTo.Int(),
		Weight:          p.Weight.Float(),
		Views:           p.Views.Int(),
		ListedAt:        created,
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Time{}
}

// ProductQuery holds the query parameters of GET /api/products.
type ProductQuery struct {
	Page     int
	PageSize int
	Search   string
	Status   string
	Sort     string
	Dir      string
	MinPrice *float64
	MaxPrice *float64
}

// ProductPage is one page of products.
type ProductPage struct {
	Items      []Product `json:"items"`
	Total      Number    `json:"total"`
	TotalPages Number    `json:"totalPages"`
}

// ChartPoint is one bucket of the dashboard revenue chart.
type ChartPoint struct {
	Label   string `json:"label"`
	Revenue Number `json:"revenue"`
	Orders  Number `json:"orders"`
}

// BestSellingQuery holds the query parameters of GET /api/dashboard/best-selling.
type BestSellingQuery struct {
	Page     int
	PageSize int
	Start    time.Time
	End      time.Time
}

// BestSeller is one row of the best-selling products report.
type BestSeller struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitsSold Number `json:"unitsSold"`
	Revenue   Number `json:"revenue"`
}

// BestSellingPage is one page of the best-selling report.
type BestSellingPage struct {
	Items      []BestSeller `json:"items"`
	Total      Number       `json:"total"`
	TotalPages Number       `json:"totalPages"`
}

// paginate wraps one fetched page in the shared page container. The backend
// already sliced Items, so the paginator only supplies the navigation.
func (p BestSellingPage) paginate(ctx context.Context, page, size int) (*pagination.Pagination[BestSeller], error) {
	if size <= 0 {
		size = max(len(p.Items), 1)
	}
	total := max(p.Total.Int(), 0)
	return pagination.NewPaginator(
		pagination.WithItemsPerPage[BestSeller](size),
		pagination.WithKnownTotal[BestSeller](int64(total)),
		pagination.WithSliceCallback(func(context.Context, int, int) ([]BestSeller, error) {
			return p.Items, nil
		}),
	).Paginate(ctx, max(page, 1))
}

// Bank is a payout bank.
type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// AccountResolution is the account holder returned for a bank account lookup.
type AccountResolution struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	BankCode      string `json:"bank_code,omitempty"`
}

// SubaccountRequest creates the merchant's payout subaccount.
type SubaccountRequest struct {
	BusinessName  string `json:"business_name" binding:"required,min=2,max=120"`
	BankCode      string `json:"bank_code" binding:"required,numeric"`
	AccountNumber string `json:"account_number" binding:"required,len=10,numeric"`
}

// Subaccount is the created payout subaccount.
type Subaccount struct {
	Code          string `json:"subaccount_code"`
	BusinessName  string `json:"business_name"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"settlement_bank"`
}

// Store is the merchant's store profile.
type Store struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	LogoURL     string `json:"logo"`
}

// StoreUpdate is a partial store profile update; nil fields are left unchanged.
type StoreUpdate struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,min=2,max=120"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
	Email       *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone       *string `json:"phone,omitempty" binding:"omitempty,min=7,max=20"`
	Address     *string `json:"address,omitempty" binding:"omitempty,max=300"`
}
