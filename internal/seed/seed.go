// Package seed fills an empty database with a deterministic demo merchant.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/simp-lee/merchantdash/internal/domain"
	"github.com/simp-lee/merchantdash/internal/pkg"
)

// namespace derives stable record IDs so reseeding yields the same URLs.
var namespace = uuid.MustParse("6f1c2d0e-8a43-4a57-9b1e-2f6d3c9a7e10")

var (
	customers = []string{
		"Ada Obi", "Tunde Bello", "Ngozi Eze", "Chinedu Okafor", "Aisha Musa",
		"Femi Adeyemi", "Zainab Lawal", "Emeka Nwosu", "Funke Ajayi", "Ibrahim Sani",
	}
	products = []struct {
		name, category string
		price          float64
	}{
		{"Ankara Wrap Dress", "Fashion", 18500},
		{"Adire Silk Scarf", "Fashion", 7500},
		{"Leather Sandals", "Fashion", 12000},
		{"Shea Butter 250g", "Beauty", 3500},
		{"Black Soap Bar", "Beauty", 1500},
		{"Hair Growth Oil", "Beauty", 5200},
		{"Bluetooth Speaker", "Electronics", 24000},
		{"Power Bank 20000mAh", "Electronics", 16500},
		{"Phone Case", "Electronics", 3000},
		{"Woven Basket", "Home", 9000},
		{"Scented Candle", "Home", 4500},
		{"Ofada Rice 5kg", "Groceries", 11000},
		{"Palm Oil 2L", "Groceries", 6800},
		{"Zobo Mix", "Groceries", 2200},
	}
	banks = []string{"GTBank", "Access Bank", "Zenith Bank", "First Bank", "UBA"}
	plans = []struct {
		name  string
		price float64
	}{{"Starter", 5000}, {"Growth", 15000}}
)

// Options controls the size and timing of the demo data.
type Options struct {
	Now    time.Time
	Orders int
	Days   int
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Orders <= 0 {
		o.Orders = 120
	}
	if o.Days <= 0 {
		o.Days = 120
	}
	return o
}

// Demo seeds every table in one transaction. It does nothing and returns
// false when orders already exist.
func Demo(ctx context.Context, db *gorm.DB, opts Options) (bool, error) {
	opts = opts.withDefaults()

	var n int64
	if err := db.WithContext(ctx).Model(&domain.Order{}).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count orders: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	data := generate(opts)
	err := pkg.WithTx(ctx, db, func(tx *gorm.DB) error {
		steps := []func() error{
			func() error { return create(tx, data.products) },
			func() error { return create(tx, data.orders) },
			func() error { return create(tx, data.sales) },
			func() error { return create(tx, data.withdrawals) },
			func() error { return create(tx, data.escrow) },
			func() error { return create(tx, data.invoices) },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seed demo data: %w", err)
	}

	slog.InfoContext(ctx, "demo data seeded",
		"products", len(data.products),
		"orders", len(data.orders),
		"sales", len(data.sales),
		"withdrawals", len(data.withdrawals),
		"escrow", len(data.escrow),
		"invoices", len(data.invoices),
	)
	return true, nil
}

type dataset struct {
	products    []domain.Product
	orders      []domain.Order
	sales       []domain.Sale
	withdrawals []domain.Withdrawal
	escrow      []domain.EscrowTransaction
	invoices    []domain.BillingInvoice
}

func id(kind, key string) string {
	return uuid.NewSHA1(namespace, []byte(kind+":"+key)).String()
}

// generate builds the demo records. The same options always produce the same data.
func generate(opts Options) dataset {
	rng := rand.New(rand.NewPCG(20240501, 7))
	now := opts.Now
	span := time.Duration(opts.Days) * 24 * time.Hour
	var d dataset

	for i, p := range products {
		sku := fmt.Sprintf("SKU-%04d", i+1)
		status := domain.ProductActive
		switch i % 7 {
		case 3:
			status = domain.ProductOutOfStock
		case 5:
			status = domain.ProductDraft
		}
		qty := rng.IntN(40) + 1
		if status == domain.ProductOutOfStock {
			qty = 0
		}
		from := rng.IntN(3) + 1
		d.products = append(d.products, domain.Product{
			BaseModel:       domain.BaseModel{ID: id("product", sku)},
			SKU:             sku,
			Name:            p.name,
			Category:        p.category,
			Status:          status,
			Price:           p.price,
			Quantity:        qty,
			Description:     p.name + " from our " + p.category + " collection.",
			EstProdDaysFrom: from,
			EstProdDaysTo:   from + rng.IntN(4),
			Weight:          float64(rng.IntN(20)+1) / 10,
			Views:           rng.IntN(900) + 20,
			ListedAt:        now.Add(-span - time.Duration(rng.IntN(60*24))*time.Hour),
		})
	}

	for i := range opts.Orders {
		number := fmt.Sprintf("ORD-%05d", 10001+i)
		placed := now.Add(-time.Duration(rng.Int64N(int64(span))))
		customer := customers[rng.IntN(len(customers))]
		status := domain.OrderStatuses[rng.IntN(len(domain.OrderStatuses))]
		payment := domain.PaymentPaid
		switch {
		case status == domain.OrderCancelled:
			payment = domain.PaymentRefunded
		case status == domain.OrderPending && rng.IntN(2) == 0:
			payment = domain.PaymentUnpaid
		}
		partner := ""
		if status == domain.OrderOutForDelivery || status == domain.OrderDelivered {
			partner = domain.DeliveryPartners[rng.IntN(len(domain.DeliveryPartners))]
		}

		lines := rng.IntN(3) + 1
		var items int
		var amount float64
		for l := range lines {
			p := products[rng.IntN(len(products))]
			qty := rng.IntN(3) + 1
			lineAmount := p.price * float64(qty)
			items += qty
			amount += lineAmount

			saleStatus := domain.SaleCompleted
			switch payment {
			case domain.PaymentUnpaid:
				saleStatus = domain.SalePending
			case domain.PaymentRefunded:
				saleStatus = domain.SaleRefunded
			}
			d.sales = append(d.sales, domain.Sale{
				BaseModel:    domain.BaseModel{ID: id("sale", fmt.Sprintf("%s-%d", number, l))},
				OrderNumber:  number,
				ProductName:  p.name,
				CustomerName: customer,
				Channel:      domain.SaleChannels[rng.IntN(len(domain.SaleChannels))],
				Status:       saleStatus,
				Quantity:     qty,
				Amount:       lineAmount,
				SoldAt:       placed,
			})
		}

		d.orders = append(d.orders, domain.Order{
			BaseModel:       domain.BaseModel{ID: id("order", number)},
			Number:          number,
			CustomerName:    customer,
			CustomerEmail:   emailFor(customer),
			Status:          status,
			PaymentStatus:   payment,
			DeliveryPartner: partner,
			Items:           items,
			Amount:          amount,
			PlacedAt:        placed,
		})

		if payment != domain.PaymentUnpaid {
			d.escrow = append(d.escrow, escrowFor(number, customer, amount, status, placed))
		}
	}

	for i := range 18 {
		ref := fmt.Sprintf("WD-%06d", 500001+i)
		status := domain.WithdrawalCompleted
		switch {
		case i < 3:
			status = domain.WithdrawalPending
		case i < 5:
			status = domain.WithdrawalProcessing
		case i%6 == 0:
			status = domain.WithdrawalFailed
		}
		d.withdrawals = append(d.withdrawals, domain.Withdrawal{
			BaseModel:     domain.BaseModel{ID: id("withdrawal", ref)},
			Reference:     ref,
			BankName:      banks[rng.IntN(len(banks))],
			AccountNumber: fmt.Sprintf("%010d", rng.Int64N(1e10)),
			Amount:        float64((rng.IntN(40) + 5) * 5000),
			Status:        status,
			RequestedAt:   now.Add(-time.Duration(i*6+rng.IntN(5)) * 24 * time.Hour),
		})
	}

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := range 12 {
		periodStart := start.AddDate(0, -i, 0)
		plan := plans[0]
		if i < 5 {
			plan = plans[1]
		}
		status := domain.InvoicePaid
		switch i {
		case 0:
			status = domain.InvoiceDue
		case 7:
			status = domain.InvoiceFailed
		}
		number := fmt.Sprintf("INV-%s", periodStart.Format("200601"))
		d.invoices = append(d.invoices, domain.BillingInvoice{
			BaseModel:   domain.BaseModel{ID: id("invoice", number)},
			Number:      number,
			Plan:        plan.name,
			Amount:      plan.price,
			Status:      status,
			PeriodStart: periodStart,
			PeriodEnd:   periodStart.AddDate(0, 1, -1),
			IssuedAt:    periodStart,
		})
	}
	return d
}

func escrowFor(number, customer string, amount float64, status string, placed time.Time) domain.EscrowTransaction {
	e := domain.EscrowTransaction{
		BaseModel:    domain.BaseModel{ID: id("escrow", number)},
		OrderNumber:  number,
		CustomerName: customer,
		Amount:       amount,
		State:        domain.EscrowHeld,
		HeldAt:       placed,
	}
	switch status {
	case domain.OrderDelivered:
		released := placed.Add(72 * time.Hour)
		e.State = domain.EscrowReleased
		e.ReleasedAt = &released
	case domain.OrderCancelled:
		e.State = domain.EscrowRefunded
	}
	return e
}

func emailFor(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", ".") + "@example.com"
}

func create[T any](tx *gorm.DB, records []T) error {
	if len(records) == 0 {
		return nil
	}
	return tx.CreateInBatches(records, 100).Error
}
