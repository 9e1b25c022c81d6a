// Package escrow serves the read-only escrow transactions table.
package escrow

import (
	"time"

	"github.com/simp-lee/merchantdash/internal/domain"
	"github.com/simp-lee/merchantdash/internal/module/tableview"
	"github.com/simp-lee/merchantdash/internal/pkg"
	"github.com/simp-lee/merchantdash/internal/table"
)

// Schema is the table engine configuration for escrow transactions.
var Schema = table.Schema[domain.EscrowTransaction]{
	Key: func(e domain.EscrowTransaction) string { return e.ID },
	Search: []func(domain.EscrowTransaction) string{
		func(e domain.EscrowTransaction) string { return e.OrderNumber },
		func(e domain.EscrowTransaction) string { return e.CustomerName },
	},
	Status: func(e domain.EscrowTransaction) string { return e.State },
	Date:   func(e domain.EscrowTransaction) time.Time { return e.HeldAt },
	Amount: func(e domain.EscrowTransaction) float64 { return e.Amount },
	Sorts: map[string]func(a, b domain.EscrowTransaction) int{
		"amount": table.ByFloat(func(e domain.EscrowTransaction) float64 { return e.Amount }),
		"date":   table.ByTime(func(e domain.EscrowTransaction) time.Time { return e.HeldAt }),
	},
}

// Definition describes the escrow table.
func Definition(src tableview.Source[domain.EscrowTransaction], opts tableview.Options) tableview.Definition[domain.EscrowTransaction] {
	released := func(e domain.EscrowTransaction) string {
		if e.ReleasedAt == nil {
			return "-"
		}
		return pkg.FormatDateTime(opts.Local(*e.ReleasedAt))
	}
	return tableview.Definition[domain.EscrowTransaction]{
		Name:     "escrow",
		Title:    "Escrow",
		Noun:     "escrow transactions",
		Singular: "escrow transaction",
		Schema:   Schema,
		Columns: []tableview.Column[domain.EscrowTransaction]{
			{Header: "Order", Value: func(e domain.EscrowTransaction) string { return e.OrderNumber }},
			{Header: "Customer", Value: func(e domain.EscrowTransaction) string { return e.CustomerName }},
			{Header: "Amount", Value: func(e domain.EscrowTransaction) string { return opts.Money(e.Amount) }, Sort: "amount", Align: "right"},
			{Header: "Held", Value: func(e domain.EscrowTransaction) string { return pkg.FormatDay(opts.Local(e.HeldAt)) }, Sort: "date"},
			{Header: "State", Value: func(e domain.EscrowTransaction) string { return e.State }, Badge: true},
		},
		Filters: []tableview.FilterControl{
			{Param: "status", Label: "State", Options: domain.EscrowStates},
		},
		DateFilter:   true,
		AmountFilter: true,
		Detail: []tableview.Field[domain.EscrowTransaction]{
			{Label: "Order", Value: func(e domain.EscrowTransaction) string { return e.OrderNumber }},
			{Label: "Customer", Value: func(e domain.EscrowTransaction) string { return e.CustomerName }},
			{Label: "Amount", Value: func(e domain.EscrowTransaction) string { return opts.Money(e.Amount) }},
			{Label: "Held", Value: func(e domain.EscrowTransaction) string { return pkg.FormatDateTime(opts.Local(e.HeldAt)) }},
			{Label: "Released", Value: released},
			{Label: "State", Value: func(e domain.EscrowTransaction) string { return e.State }},
		},
		Source:   src,
		PageSize: opts.PageSize,
		Location: opts.Location,
	}
}

// NewModule creates the escrow table module.
func NewModule(src tableview.Source[domain.EscrowTransaction], opts tableview.Options) *tableview.Module[domain.EscrowTransaction] {
	return tableview.NewModule(Definition(src, opts))
}
