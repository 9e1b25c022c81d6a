// Package sale serves the read-only sales table.
package sale

import (
	"strconv"
	"time"

	"github.com/simp-lee/merchantdash/internal/domain"
	"github.com/simp-lee/merchantdash/internal/module/tableview"
	"github.com/simp-lee/merchantdash/internal/pkg"
	"github.com/simp-lee/merchantdash/internal/table"
)

// Schema is the table engine configuration for sales.
var Schema = table.Schema[domain.Sale]{
	Key: func(s domain.Sale) string { return s.ID },
	Search: []func(domain.Sale) string{
		func(s domain.Sale) string { return s.OrderNumber },
		func(s domain.Sale) string { return s.ProductName },
		func(s domain.Sale) string { return s.CustomerName },
	},
	Status: func(s domain.Sale) string { return s.Status },
	Date:   func(s domain.Sale) time.Time { return s.SoldAt },
	Amount: func(s domain.Sale) float64 { return s.Amount },
	Facets: map[string]func(domain.Sale) string{
		"channel": func(s domain.Sale) string { return s.Channel },
	},
	Sorts: map[string]func(a, b domain.Sale) int{
		"product":  table.ByString(func(s domain.Sale) string { return s.ProductName }),
		"quantity": table.ByFloat(func(s domain.Sale) float64 { return float64(s.Quantity) }),
		"amount":   table.ByFloat(func(s domain.Sale) float64 { return s.Amount }),
		"date":     table.ByTime(func(s domain.Sale) time.Time { return s.SoldAt }),
	},
}

// Definition describes the sales table.
func Definition(src tableview.Source[domain.Sale], opts tableview.Options) tableview.Definition[domain.Sale] {
	qty := func(s domain.Sale) string { return strconv.Itoa(s.Quantity) }
	return tableview.Definition[domain.Sale]{
		Name:     "sales",
		Title:    "Sales",
		Noun:     "sales",
		Singular: "sale",
		Schema:   Schema,
		Columns: []tableview.Column[domain.Sale]{
			{Header: "Order", Value: func(s domain.Sale) string { return s.OrderNumber }},
			{Header: "Product", Value: func(s domain.Sale) string { return s.ProductName }, Sort: "product"},
			{Header: "Customer", Value: func(s domain.Sale) string { return s.CustomerName }},
			{Header: "Channel", Value: func(s domain.Sale) string { return s.Channel }},
			{Header: "Qty", Value: qty, Sort: "quantity", Align: "right"},
			{Header: "Amount", Value: func(s domain.Sale) string { return opts.Money(s.Amount) }, Sort: "amount", Align: "right"},
			{Header: "Date", Value: func(s domain.Sale) string { return pkg.FormatDay(opts.Local(s.SoldAt)) }, Sort: "date"},
			{Header: "Status", Value: func(s domain.Sale) string { return s.Status }, Badge: true},
		},
		Filters: []tableview.FilterControl{
			{Param: "status", Label: "Status", Options: domain.SaleStatuses},
			{Param: "channel", Label: "Channel", Options: domain.SaleChannels},
		},
		DateFilter:   true,
		AmountFilter: true,
		Detail: []tableview.Field[domain.Sale]{
			{Label: "Order", Value: func(s domain.Sale) string { return s.OrderNumber }},
			{Label: "Product", Value: func(s domain.Sale) string { return s.ProductName }},
			{Label: "Customer", Value: func(s domain.Sale) string { return s.CustomerName }},
			{Label: "Channel", Value: func(s domain.Sale) string { return s.Channel }},
			{Label: "Quantity", Value: qty},
			{Label: "Amount", Value: func(s domain.Sale) string { return opts.Money(s.Amount) }},
			{Label: "Sold", Value: func(s domain.Sale) string { return pkg.FormatDateTime(opts.Local(s.SoldAt)) }},
			{Label: "Status", Value: func(s domain.Sale) string { return s.Status }},
		},
		Source:   src,
		PageSize: opts.PageSize,
		Location: opts.Location,
	}
}

// NewModule creates the sales table module.
func NewModule(src tableview.Source[domain.Sale], opts tableview.Options) *tableview.Module[domain.Sale] {
	return tableview.NewModule(Definition(src, opts))
}
