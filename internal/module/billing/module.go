// Package billing serves the subscription billing history.
package billing

import (
	"time"

	"github.com/simp-lee/merchantdash/internal/domain"
	"github.com/simp-lee/merchantdash/internal/module/tableview"
	"github.com/simp-lee/merchantdash/internal/pkg"
	"github.com/simp-lee/merchantdash/internal/table"
)

// Schema is the table engine configuration for invoices.
var Schema = table.Schema[domain.BillingInvoice]{
	Key: func(b domain.BillingInvoice) string { return b.ID },
	Search: []func(domain.BillingInvoice) string{
		func(b domain.BillingInvoice) string { return b.Number },
		func(b domain.BillingInvoice) string { return b.Plan },
	},
	Status: func(b domain.BillingInvoice) string { return b.Status },
	Date:   func(b domain.BillingInvoice) time.Time { return b.IssuedAt },
	Amount: func(b domain.BillingInvoice) float64 { return b.Amount },
	Sorts: map[string]func(a, b domain.BillingInvoice) int{
		"amount": table.ByFloat(func(b domain.BillingInvoice) float64 { return b.Amount }),
		"date":   table.ByTime(func(b domain.BillingInvoice) time.Time { return b.IssuedAt }),
	},
}

// Definition describes the billing table.
func Definition(src tableview.Source[domain.BillingInvoice], opts tableview.Options) tableview.Definition[domain.BillingInvoice] {
	period := func(b domain.BillingInvoice) string {
		return pkg.FormatDay(opts.Local(b.PeriodStart)) + " - " + pkg.FormatDay(opts.Local(b.PeriodEnd))
	}
	return tableview.Definition[domain.BillingInvoice]{
		Name:     "billing",
		Title:    "Subscription Billing",
		Noun:     "invoices",
		Singular: "invoice",
		Schema:   Schema,
		Columns: []tableview.Column[domain.BillingInvoice]{
			{Header: "Invoice", Value: func(b domain.BillingInvoice) string { return b.Number }},
			{Header: "Plan", Value: func(b domain.BillingInvoice) string { return b.Plan }},
			{Header: "Period", Value: period},
			{Header: "Amount", Value: func(b domain.BillingInvoice) string { return opts.Money(b.Amount) }, Sort: "amount", Align: "right"},
			{Header: "Issued", Value: func(b domain.BillingInvoice) string { return pkg.FormatDay(opts.Local(b.IssuedAt)) }, Sort: "date"},
			{Header: "Status", Value: func(b domain.BillingInvoice) string { return b.Status }, Badge: true},
		},
		Filters: []tableview.FilterControl{
			{Param: "status", Label: "Status", Options: domain.InvoiceStatuses},
		},
		DateFilter: true,
		Detail: []tableview.Field[domain.BillingInvoice]{
			{Label: "Invoice", Value: func(b domain.BillingInvoice) string { return b.Number }},
			{Label: "Plan", Value: func(b domain.BillingInvoice) string { return b.Plan }},
			{Label: "Period", Value: period},
			{Label: "Amount", Value: func(b domain.BillingInvoice) string { return opts.Money(b.Amount) }},
			{Label: "Issued", Value: func(b domain.BillingInvoice) string { return pkg.FormatDateTime(opts.Local(b.IssuedAt)) }},
			{Label: "Status", Value: func(b domain.BillingInvoice) string { return b.Status }},
		},
		Source:   src,
		PageSize: opts.PageSize,
		Location: opts.Location,
	}
}

// NewModule creates the billing table module.
func NewModule(src tableview.Source[domain.BillingInvoice], opts tableview.Options) *tableview.Module[domain.BillingInvoice] {
	return tableview.NewModule(Definition(src, opts))
}
