// Package order serves the orders table.
package order

import (
	"strconv"
	"strings"
	"time"

	"github.com/simp-lee/merchantdash/internal/domain"
	"github.com/simp-lee/merchantdash/internal/module/tableview"
	"github.com/simp-lee/merchantdash/internal/pkg"
	"github.com/simp-lee/merchantdash/internal/table"
)

// Schema is the table engine configuration for orders.
var Schema = table.Schema[domain.Order]{
	Key: func(o domain.Order) string { return o.ID },
	Search: []func(domain.Order) string{
		func(o domain.Order) string { return o.Number },
		func(o domain.Order) string { return o.CustomerName },
	},
	Status: func(o domain.Order) string { return o.Status },
	Date:   func(o domain.Order) time.Time { return o.PlacedAt },
	Amount: func(o domain.Order) float64 { return o.Amount },
	Facets: map[string]func(domain.Order) string{
		"payment": func(o domain.Order) string { return o.PaymentStatus },
		"partner": func(o domain.Order) string { return o.DeliveryPartner },
	},
	Sorts: map[string]func(a, b domain.Order) int{
		"number":   table.ByString(func(o domain.Order) string { return o.Number }),
		"customer": table.ByString(func(o domain.Order) string { return o.CustomerName }),
		"amount":   table.ByFloat(func(o domain.Order) float64 { return o.Amount }),
		"date":     table.ByTime(func(o domain.Order) time.Time { return o.PlacedAt }),
	},
}

// Definition describes the orders table.
func Definition(svc *Service, opts tableview.Options) tableview.Definition[domain.Order] {
	return tableview.Definition[domain.Order]{
		Name:     "orders",
		Title:    "Orders",
		Noun:     "orders",
		Singular: "order",
		Schema:   Schema,
		Columns: []tableview.Column[domain.Order]{
			{Header: "Order ID", Value: func(o domain.Order) string { return o.Number }, Sort: "number"},
			{Header: "Customer", Value: func(o domain.Order) string { return o.CustomerName }, Sort: "customer"},
			{Header: "Date", Value: func(o domain.Order) string { return pkg.FormatDay(opts.Local(o.PlacedAt)) }, Sort: "date"},
			{Header: "Items", Value: func(o domain.Order) string { return strconv.Itoa(o.Items) }, Align: "right"},
			{Header: "Amount", Value: func(o domain.Order) string { return opts.Money(o.Amount) }, Sort: "amount", Align: "right"},
			{Header: "Payment", Value: func(o domain.Order) string { return o.PaymentStatus }, Badge: true},
			{Header: "Status", Value: func(o domain.Order) string { return o.Status }, Badge: true},
		},
		Filters: []tableview.FilterControl{
			{Param: "status", Label: "Status", Options: domain.OrderStatuses},
			{Param: "payment", Label: "Payment", Options: domain.PaymentStatuses},
			{Param: "partner", Label: "Delivery partner", Options: domain.DeliveryPartners},
		},
		DateFilter:   true,
		AmountFilter: true,
		Detail: []tableview.Field[domain.Order]{
			{Label: "Order ID", Value: func(o domain.Order) string { return o.Number }},
			{Label: "Customer", Value: func(o domain.Order) string { return o.CustomerName }},
			{Label: "Email", Value: func(o domain.Order) string { return o.CustomerEmail }},
			{Label: "Placed", Value: func(o domain.Order) string { return pkg.FormatDateTime(opts.Local(o.PlacedAt)) }},
			{Label: "Items", Value: func(o domain.Order) string { return strconv.Itoa(o.Items) }},
			{Label: "Amount", Value: func(o domain.Order) string { return opts.Money(o.Amount) }},
			{Label: "Payment", Value: func(o domain.Order) string { return o.PaymentStatus }},
			{Label: "Delivery partner", Value: func(o domain.Order) string { return orDash(o.DeliveryPartner) }},
			{Label: "Status", Value: func(o domain.Order) string { return o.Status }},
		},
		EditFields: []tableview.Field[domain.Order]{
			{Name: "status", Label: "Status", Value: func(o domain.Order) string { return o.Status }, Options: domain.OrderStatuses},
			{Name: "delivery_partner", Label: "Delivery partner", Value: func(o domain.Order) string { return o.DeliveryPartner }, Options: domain.DeliveryPartners},
		},
		Source:   svc,
		Updater:  tableview.Edits[domain.Order, domain.OrderUpdate](svc.Update),
		Deleter:  svc,
		PageSize: opts.PageSize,
		Location: opts.Location,
	}
}

// NewModule creates the orders table module.
func NewModule(svc *Service, opts tableview.Options) *tableview.Module[domain.Order] {
	if svc == nil {
		panic("order.NewModule: service must not be nil")
	}
	return tableview.NewModule(Definition(svc, opts))
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
