// Package product serves the products table, backed either by the merchant
// backend or by the local database.
package product

import (
	"strconv"
	"time"

	"github.com/simp-lee/merchantdash/internal/domain"
	"github.com/simp-lee/merchantdash/internal/module/tableview"
	"github.com/simp-lee/merchantdash/internal/pkg"
	"github.com/simp-lee/merchantdash/internal/table"
)

// Schema is the table engine configuration for products.
var Schema = table.Schema[domain.Product]{
	Key: func(p domain.Product) string { return p.ID },
	Search: []func(domain.Product) string{
		func(p domain.Product) string { return p.Name },
		func(p domain.Product) string { return p.SKU },
	},
	Status: func(p domain.Product) string { return p.Status },
	Date:   func(p domain.Product) time.Time { return p.ListedAt },
	Amount: func(p domain.Product) float64 { return p.Price },
	Facets: map[string]func(domain.Product) string{
		"category": func(p domain.Product) string { return p.Category },
	},
	Sorts: map[string]func(a, b domain.Product) int{
		"name":     table.ByString(func(p domain.Product) string { return p.Name }),
		"price":    table.ByFloat(func(p domain.Product) float64 { return p.Price }),
		"quantity": table.ByFloat(func(p domain.Product) float64 { return float64(p.Quantity) }),
		"views":    table.ByFloat(func(p domain.Product) float64 { return float64(p.Views) }),
		"date":     table.ByTime(func(p domain.Product) time.Time { return p.ListedAt }),
	},
}

// Definition describes the products table.
func Definition(catalog Catalog, opts tableview.Options) tableview.Definition[domain.Product] {
	itoa := func(f func(domain.Product) int) func(domain.Product) string {
		return func(p domain.Product) string { return strconv.Itoa(f(p)) }
	}
	num := func(f func(domain.Product) float64) func(domain.Product) string {
		return func(p domain.Product) string { return strconv.FormatFloat(f(p), 'f', -1, 64) }
	}

	return tableview.Definition[domain.Product]{
		Name:     "products",
		Title:    "Products",
		Noun:     "products",
		Singular: "product",
		Schema:   Schema,
		Columns: []tableview.Column[domain.Product]{
			{Header: "Product", Value: func(p domain.Product) string { return p.Name }, Sort: "name"},
			{Header: "SKU", Value: func(p domain.Product) string { return p.SKU }},
			{Header: "Category", Value: func(p domain.Product) string { return p.Category }},
			{Header: "Price", Value: func(p domain.Product) string { return opts.Money(p.Price) }, Sort: "price", Align: "right"},
			{Header: "Stock", Value: itoa(func(p domain.Product) int { return p.Quantity }), Sort: "quantity", Align: "right"},
			{Header: "Views", Value: itoa(func(p domain.Product) int { return p.Views }), Sort: "views", Align: "right"},
			{Header: "Status", Value: func(p domain.Product) string { return p.Status }, Badge: true},
		},
		Filters: []tableview.FilterControl{
			{Param: "status", Label: "Status", Options: domain.ProductStatuses},
			{Param: "category", Label: "Category", Options: domain.ProductCategories},
		},
		DateFilter:   true,
		AmountFilter: true,
		AmountLabel:  "Price",
		Detail: []tableview.Field[domain.Product]{
			{Label: "Name", Value: func(p domain.Product) string { return p.Name }},
			{Label: "SKU", Value: func(p domain.Product) string { return p.SKU }},
			{Label: "Category", Value: func(p domain.Product) string { return p.Category }},
			{Label: "Price", Value: func(p domain.Product) string { return opts.Money(p.Price) }},
			{Label: "Stock", Value: itoa(func(p domain.Product) int { return p.Quantity })},
			{Label: "Production days", Value: productionDays},
			{Label: "Weight (kg)", Value: num(func(p domain.Product) float64 { return p.Weight })},
			{Label: "Views", Value: itoa(func(p domain.Product) int { return p.Views })},
			{Label: "Listed", Value: func(p domain.Product) string { return pkg.FormatDay(opts.Local(p.ListedAt)) }},
			{Label: "Status", Value: func(p domain.Product) string { return p.Status }},
			{Label: "Description", Value: func(p domain.Product) string { return p.Description }},
		},
		EditFields: []tableview.Field[domain.Product]{
			{Name: "name", Label: "Name", Value: func(p domain.Product) string { return p.Name }},
			{Name: "price", Label: "Price", Value: num(func(p domain.Product) float64 { return p.Price })},
			{Name: "quantity", Label: "Stock", Value: itoa(func(p domain.Product) int { return p.Quantity })},
			{Name: "status", Label: "Status", Value: func(p domain.Product) string { return p.Status }, Options: domain.ProductStatuses},
			{Name: "est_prod_days_from", Label: "Production days from", Value: itoa(func(p domain.Product) int { return p.EstProdDaysFrom })},
			{Name: "est_prod_days_to", Label: "Production days to", Value: itoa(func(p domain.Product) int { return p.EstProdDaysTo })},
			{Name: "weight", Label: "Weight (kg)", Value: num(func(p domain.Product) float64 { return p.Weight })},
			{Name: "description", Label: "Description", Value: func(p domain.Product) string { return p.Description }},
		},
		ArchiveStatus: domain.ProductArchived,
		Source:        catalog,
		Updater:       tableview.Edits[domain.Product, domain.ProductUpdate](catalog.Update),
		Deleter:       catalog,
		PageSize:      opts.PageSize,
		Location:      opts.Location,
	}
}

// NewModule creates the products table module.
func NewModule(catalog Catalog, opts tableview.Options) *tableview.Module[domain.Product] {
	if catalog == nil {
		panic("product.NewModule: catalog must not be nil")
	}
	return tableview.NewModule(Definition(catalog, opts))
}

func productionDays(p domain.Product) string {
	switch {
	case p.EstProdDaysFrom == 0 && p.EstProdDaysTo == 0:
		return "-"
	case p.EstProdDaysTo == 0 || p.EstProdDaysTo == p.EstProdDaysFrom:
		return strconv.Itoa(p.EstProdDaysFrom) + " days"
	default:
		return strconv.Itoa(p.EstProdDaysFrom) + "-" + strconv.Itoa(p.EstProdDaysTo) + " days"
	}
}
