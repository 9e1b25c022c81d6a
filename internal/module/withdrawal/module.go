// Package withdrawal serves the payout requests table. Deleting a withdrawal
// cancels it.
package withdrawal

import (
	"context"
	"log/slog"
	"time"

	"github.com/simp-lee/merchantdash/internal/domain"
	"github.com/simp-lee/merchantdash/internal/module/tableview"
	"github.com/simp-lee/merchantdash/internal/pkg"
	"github.com/simp-lee/merchantdash/internal/store"
	"github.com/simp-lee/merchantdash/internal/table"
)

// Service lists and cancels withdrawals.
type Service struct {
	repo *store.Repository[domain.Withdrawal]
}

// NewService creates a withdrawal Service backed by repo.
func NewService(repo *store.Repository[domain.Withdrawal]) *Service {
	return &Service{repo: repo}
}

// List returns every withdrawal, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Withdrawal, error) {
	return s.repo.List(ctx)
}

// Get returns one withdrawal.
func (s *Service) Get(ctx context.Context, id string) (*domain.Withdrawal, error) {
	return s.repo.Get(ctx, id)
}

// Delete cancels a pending withdrawal. The record is kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	w, err := s.repo.Modify(ctx, id, func(w *domain.Withdrawal) error {
		return w.Cancel()
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "withdrawal cancelled", "id", id, "reference", w.Reference)
	return nil
}

// Schema is the table engine configuration for withdrawals.
var Schema = table.Schema[domain.Withdrawal]{
	Key: func(w domain.Withdrawal) string { return w.ID },
	Search: []func(domain.Withdrawal) string{
		func(w domain.Withdrawal) string { return w.Reference },
		func(w domain.Withdrawal) string { return w.BankName },
	},
	Status: func(w domain.Withdrawal) string { return w.Status },
	Date:   func(w domain.Withdrawal) time.Time { return w.RequestedAt },
	Amount: func(w domain.Withdrawal) float64 { return w.Amount },
	Sorts: map[string]func(a, b domain.Withdrawal) int{
		"amount": table.ByFloat(func(w domain.Withdrawal) float64 { return w.Amount }),
		"date":   table.ByTime(func(w domain.Withdrawal) time.Time { return w.RequestedAt }),
	},
}

// Definition describes the withdrawals table.
func Definition(svc *Service, opts tableview.Options) tableview.Definition[domain.Withdrawal] {
	return tableview.Definition[domain.Withdrawal]{
		Name:     "withdrawals",
		Title:    "Withdrawals",
		Noun:     "withdrawals",
		Singular: "withdrawal",
		Schema:   Schema,
		Columns: []tableview.Column[domain.Withdrawal]{
			{Header: "Reference", Value: func(w domain.Withdrawal) string { return w.Reference }},
			{Header: "Bank", Value: func(w domain.Withdrawal) string { return w.BankName }},
			{Header: "Account", Value: domain.Withdrawal.MaskedAccount},
			{Header: "Amount", Value: func(w domain.Withdrawal) string { return opts.Money(w.Amount) }, Sort: "amount", Align: "right"},
			{Header: "Requested", Value: func(w domain.Withdrawal) string { return pkg.FormatDay(opts.Local(w.RequestedAt)) }, Sort: "date"},
			{Header: "Status", Value: func(w domain.Withdrawal) string { return w.Status }, Badge: true},
		},
		Filters: []tableview.FilterControl{
			{Param: "status", Label: "Status", Options: domain.WithdrawalStatuses},
		},
		DateFilter:   true,
		AmountFilter: true,
		Detail: []tableview.Field[domain.Withdrawal]{
			{Label: "Reference", Value: func(w domain.Withdrawal) string { return w.Reference }},
			{Label: "Bank", Value: func(w domain.Withdrawal) string { return w.BankName }},
			{Label: "Account", Value: domain.Withdrawal.MaskedAccount},
			{Label: "Amount", Value: func(w domain.Withdrawal) string { return opts.Money(w.Amount) }},
			{Label: "Requested", Value: func(w domain.Withdrawal) string { return pkg.FormatDateTime(opts.Local(w.RequestedAt)) }},
			{Label: "Status", Value: func(w domain.Withdrawal) string { return w.Status }},
		},
		DeleteVerb: "Cancel",
		Source:     svc,
		Deleter:    svc,
		PageSize:   opts.PageSize,
		Location:   opts.Location,
	}
}

// NewModule creates the withdrawals table module.
func NewModule(svc *Service, opts tableview.Options) *tableview.Module[domain.Withdrawal] {
	if svc == nil {
		panic("withdrawal.NewModule: service must not be nil")
	}
	return tableview.NewModule(Definition(svc, opts))
}
