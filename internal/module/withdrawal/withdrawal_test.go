package withdrawal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/simp-lee/merchantdash/internal/domain"
	"github.com/simp-lee/merchantdash/internal/module/tableview"
	"github.com/simp-lee/merchantdash/internal/store"
)

func setup(t *testing.T) (*gin.Engine, *store.Repository[domain.Withdrawal], []*domain.Withdrawal) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&domain.Withdrawal{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := store.New[domain.Withdrawal](db, "requested_at")
	at := time.Date(2024, time.July, 3, 12, 0, 0, 0, time.UTC)
	records := []*domain.Withdrawal{
		{Reference: "WD-1", BankName: "GTBank", AccountNumber: "0123456789", Amount: 50000, Status: domain.WithdrawalPending, RequestedAt: at},
		{Reference: "WD-2", BankName: "Access Bank", AccountNumber: "9876543210", Amount: 20000, Status: domain.WithdrawalCompleted, RequestedAt: at.Add(-time.Hour)},
	}
	if err := repo.Create(context.Background(), records...); err != nil {
		t.Fatalf("seed: %v", err)
	}

	r := gin.New()
	NewModule(NewService(repo), tableview.Options{}).RegisterRoutes(r.Group("/api/v1"), r.Group(""))
	return r, repo, records
}

func htmxDelete(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDelete_CancelsPendingWithdrawal(t *testing.T) {
	r, repo, records := setup(t)

	w := htmxDelete(r, "/withdrawals/"+records[0].ID)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("HX-Trigger"), "Withdrawal cancelled") {
		t.Errorf("HX-Trigger = %q", w.Header().Get("HX-Trigger"))
	}

	stored, err := repo.Get(context.Background(), records[0].ID)
	if err != nil {
		t.Fatalf("cancelled withdrawal should be kept: %v", err)
	}
	if stored.Status != domain.WithdrawalCancelled {
		t.Errorf("status = %q", stored.Status)
	}
}

func TestDelete_RejectsFinalWithdrawal(t *testing.T) {
	r, repo, records := setup(t)

	w := htmxDelete(r, "/withdrawals/"+records[1].ID)
	if w.Header().Get("HX-Reswap") != "none" {
		t.Errorf("HX-Reswap = %q", w.Header().Get("HX-Reswap"))
	}
	if !strings.Contains(w.Header().Get("HX-Trigger"), "only pending withdrawals can be cancelled") {
		t.Errorf("HX-Trigger = %q", w.Header().Get("HX-Trigger"))
	}
	stored, _ := repo.Get(context.Background(), records[1].ID)
	if stored.Status != domain.WithdrawalCompleted {
		t.Errorf("status = %q", stored.Status)
	}
}

func TestNoEditRoutes(t *testing.T) {
	r, _, records := setup(t)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/withdrawals/"+records[0].ID, strings.NewReader(`{"status":"completed"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code == http.StatusOK {
		t.Error("withdrawals must not be editable")
	}
}

func TestColumns_MaskAccount(t *testing.T) {
	def := Definition(NewService(nil), tableview.Options{})
	w := domain.Withdrawal{AccountNumber: "0123456789"}
	if got := def.Columns[2].Value(w); got != "******6789" {
		t.Errorf("account cell = %q", got)
	}
}
