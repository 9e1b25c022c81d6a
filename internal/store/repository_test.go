package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/simp-lee/merchantdash/internal/domain"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database with every record table.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newOrder(number string, placed time.Time) *domain.Order {
	return &domain.Order{
		Number:        number,
		CustomerName:  "Ada Obi",
		Status:        domain.OrderPending,
		PaymentStatus: domain.PaymentPaid,
		Amount:        1000,
		PlacedAt:      placed,
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := New[domain.Order](setupTestDB(t), "placed_at")
	ctx := context.Background()

	o := newOrder("ORD-1", time.Now())
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.ID == "" {
		t.Fatal("expected ID to be assigned on Create")
	}

	got, err := repo.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Number != "ORD-1" {
		t.Errorf("Number = %q, want ORD-1", got.Number)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := New[domain.Order](setupTestDB(t), "placed_at")

	_, err := repo.Get(context.Background(), "missing")
	if !domain.IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreate_DuplicateNumber(t *testing.T) {
	repo := New[domain.Order](setupTestDB(t), "placed_at")
	ctx := context.Background()

	if err := repo.Create(ctx, newOrder("ORD-1", time.Now())); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	err := repo.Create(ctx, newOrder("ORD-1", time.Now()))
	if !domain.IsAlreadyExists(err) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestList_NewestFirst(t *testing.T) {
	repo := New[domain.Order](setupTestDB(t), "placed_at")
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	if err := repo.Create(ctx,
		newOrder("ORD-1", base),
		newOrder("ORD-2", base.Add(48*time.Hour)),
		newOrder("ORD-3", base.Add(24*time.Hour)),
	); err != nil {
		t.Fatalf("Create: %v", err)
	}

	orders, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var got []string
	for _, o := range orders {
		got = append(got, o.Number)
	}
	want := []string{"ORD-2", "ORD-3", "ORD-1"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestBetween_Inclusive(t *testing.T) {
	repo := New[domain.Order](setupTestDB(t), "placed_at")
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, n := range []string{"ORD-1", "ORD-2", "ORD-3", "ORD-4"} {
		if err := repo.Create(ctx, newOrder(n, base.AddDate(0, 0, i))); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	orders, err := repo.Between(ctx, base.AddDate(0, 0, 1), base.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("Between: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("got %d orders, want 2", len(orders))
	}
}

func TestSaveAndDelete(t *testing.T) {
	repo := New[domain.Order](setupTestDB(t), "placed_at")
	ctx := context.Background()

	o := newOrder("ORD-1", time.Now())
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("Create: %v", err)
	}
	o.Status = domain.OrderDelivered
	if err := repo.Save(ctx, o); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := repo.Get(ctx, o.ID)
	if got.Status != domain.OrderDelivered {
		t.Errorf("Status = %q, want delivered", got.Status)
	}

	if err := repo.Delete(ctx, o.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, o.ID); !domain.IsNotFound(err) {
		t.Errorf("second Delete: expected ErrNotFound, got %v", err)
	}
	n, err := repo.Count(ctx)
	if err != nil || n != 0 {
		t.Errorf("Count = %d, %v; want 0", n, err)
	}
}

func TestMapError(t *testing.T) {
	if mapError(nil) != nil {
		t.Error("mapError(nil) should be nil")
	}
	if !domain.IsNotFound(mapError(gorm.ErrRecordNotFound)) {
		t.Error("record not found should map to ErrNotFound")
	}
	if !domain.IsAlreadyExists(mapError(errors.New("UNIQUE constraint failed: orders.number"))) {
		t.Error("unique violation should map to ErrAlreadyExists")
	}
	if !domain.IsInternal(mapError(errors.New("disk I/O error"))) {
		t.Error("other errors should map to ErrInternal")
	}
}

func TestModify(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	repo := New[domain.Order](db, "placed_at")
	ctx := context.Background()

	o := newOrder("ORD-900", time.Now())
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("create: %v", err)
	}

	status := domain.OrderProcessing
	updated, err := repo.Modify(ctx, o.ID, func(rec *domain.Order) error {
		rec.Apply(domain.OrderUpdate{Status: &status})
		return nil
	})
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if updated.Status != domain.OrderProcessing {
		t.Errorf("expected returned status processing, got %q", updated.Status)
	}
	got, _ := repo.Get(ctx, o.ID)
	if got.Status != domain.OrderProcessing {
		t.Errorf("expected stored status processing, got %q", got.Status)
	}
}

func TestModify_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	repo := New[domain.Order](db, "placed_at")
	ctx := context.Background()

	o := newOrder("ORD-901", time.Now())
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := repo.Modify(ctx, o.ID, func(rec *domain.Order) error {
		rec.CustomerName = "changed"
		return domain.Invalid("order is locked")
	})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, _ := repo.Get(ctx, o.ID)
	if got.CustomerName != "Ada Obi" || got.Status != domain.OrderPending {
		t.Errorf("expected record unchanged, got %+v", got)
	}

	if _, err := repo.Modify(ctx, "missing", func(*domain.Order) error { return nil }); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
