package app

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/simp-lee/merchantdash/internal/backend"
	"github.com/simp-lee/merchantdash/internal/config"
	"github.com/simp-lee/merchantdash/internal/daterange"
	"github.com/simp-lee/merchantdash/internal/domain"
	"github.com/simp-lee/merchantdash/internal/metric"
	"github.com/simp-lee/merchantdash/internal/module/billing"
	"github.com/simp-lee/merchantdash/internal/module/escrow"
	"github.com/simp-lee/merchantdash/internal/module/order"
	"github.com/simp-lee/merchantdash/internal/module/product"
	"github.com/simp-lee/merchantdash/internal/module/sale"
	"github.com/simp-lee/merchantdash/internal/module/settings"
	"github.com/simp-lee/merchantdash/internal/module/tableview"
	"github.com/simp-lee/merchantdash/internal/module/withdrawal"
	"github.com/simp-lee/merchantdash/internal/store"
)

// repositories holds one store per persisted record type.
type repositories struct {
	orders      *store.Repository[domain.Order]
	products    *store.Repository[domain.Product]
	sales       *store.Repository[domain.Sale]
	withdrawals *store.Repository[domain.Withdrawal]
	escrow      *store.Repository[domain.EscrowTransaction]
	invoices    *store.Repository[domain.BillingInvoice]
}

func newRepositories(db *gorm.DB) repositories {
	return repositories{
		orders:      store.New[domain.Order](db, "placed_at"),
		products:    store.New[domain.Product](db, "listed_at"),
		sales:       store.New[domain.Sale](db, "sold_at"),
		withdrawals: store.New[domain.Withdrawal](db, "requested_at"),
		escrow:      store.New[domain.EscrowTransaction](db, "held_at"),
		invoices:    store.New[domain.BillingInvoice](db, "issued_at"),
	}
}

// buildModules assembles every dashboard module.
//
// With a backend configured, metric cards, reports and the product catalogue
// come from it and the settings screen is enabled. Without one, cards and
// reports are computed from the local database and products are edited
// locally. Orders, sales and the ledgers are always local.
func buildModules(cfg *config.Config, db *gorm.DB, reg prometheus.Registerer, log *slog.Logger) ([]Module, error) {
	repos := newRepositories(db)
	opts := tableview.Options{
		CurrencySymbol: cfg.Dashboard.CurrencySymbol,
		PageSize:       cfg.Dashboard.PageSize,
		Location:       cfg.Dashboard.Location(),
	}

	var (
		source  metric.Source
		reports metric.Reports
		catalog product.Catalog
		extra   []Module
	)
	if cfg.Backend.Enabled() {
		client, err := backend.NewClient(backend.Config{
			BaseURL:   cfg.Backend.BaseURL,
			APIKey:    cfg.Backend.APIKey,
			Timeout:   cfg.Backend.TimeoutDuration(),
			RateLimit: cfg.Backend.RateLimit,
			Burst:     cfg.Backend.Burst,
		}, backend.WithRecorder(backend.NewCollector(reg)))
		if err != nil {
			return nil, err
		}
		source, reports = client, client
		catalog = product.NewRemote(client)
		extra = append(extra, settings.NewModule(settings.NewHandler(client)))
		log.Info("merchant backend enabled", slog.String("base_url", cfg.Backend.BaseURL))
	} else {
		local := metric.NewLocalSource(repos.orders, repos.products, repos.sales)
		source, reports = local, local
		catalog = product.NewService(repos.products)
		log.Info("merchant backend not configured, serving analytics from the local database")
	}

	board := metric.NewBoard(source, cfg.Dashboard.CurrencySymbol)
	handler := metric.NewHandler(board, reports).
		WithDefaultRange(daterange.Key(cfg.Dashboard.DefaultRange))

	modules := []Module{
		metric.NewModule(handler),
		order.NewModule(order.NewService(repos.orders), opts),
		product.NewModule(catalog, opts),
		sale.NewModule(repos.sales, opts),
		withdrawal.NewModule(withdrawal.NewService(repos.withdrawals), opts),
		escrow.NewModule(repos.escrow, opts),
		billing.NewModule(repos.invoices, opts),
	}
	return append(modules, extra...), nil
}
