package domain

import "time"

// Sale statuses.
const (
	SaleCompleted = "completed"
	SalePending   = "pending"
	SaleRefunded  = "refunded"
)

// SaleStatuses lists sale statuses.
var SaleStatuses = []string{SaleCompleted, SalePending, SaleRefunded}

// SaleChannels lists the storefront channels a sale can come from.
var SaleChannels = []string{"web", "instagram", "whatsapp", "pos"}

// Sale is one product line sold through an order.
type Sale struct {
	BaseModel
	OrderNumber  string    `gorm:"size:32;index" json:"order_number"`
	ProductName  string    `gorm:"size:200" json:"product_name"`
	CustomerName string    `gorm:"size:120" json:"customer_name"`
	Channel      string    `gorm:"size:32" json:"channel"`
	Status       string    `gorm:"size:32;index" json:"status"`
	Quantity     int       `json:"quantity"`
	Amount       float64   `json:"amount"`
	SoldAt       time.Time `gorm:"index" json:"sold_at"`
}

// Withdrawal statuses.
const (
	WithdrawalPending    = "pending"
	WithdrawalProcessing = "processing"
	WithdrawalCompleted  = "completed"
	WithdrawalFailed     = "failed"
	WithdrawalCancelled  = "cancelled"
)

// WithdrawalStatuses lists withdrawal statuses.
var WithdrawalStatuses = []string{WithdrawalPending, WithdrawalProcessing, WithdrawalCompleted, WithdrawalFailed, WithdrawalCancelled}

// Withdrawal is a payout request from the merchant wallet to a bank account.
type Withdrawal struct {
	BaseModel
	Reference     string    `gorm:"size:40;uniqueIndex;not null" json:"reference"`
	BankName      string    `gorm:"size:120" json:"bank_name"`
	AccountNumber string    `gorm:"size:10" json:"account_number"`
	Amount        float64   `json:"amount"`
	Status        string    `gorm:"size:32;index" json:"status"`
	RequestedAt   time.Time `gorm:"index" json:"requested_at"`
}

// MaskedAccount hides all but the last four digits of the account number.
func (w Withdrawal) MaskedAccount() string {
	n := len(w.AccountNumber)
	if n <= 4 {
		return w.AccountNumber
	}
	masked := make([]byte, n)
	for i := range masked {
		if i < n-4 {
			masked[i] = '*'
		} else {
			masked[i] = w.AccountNumber[i]
		}
	}
	return string(masked)
}

// Cancel marks a pending withdrawal as cancelled. Any other status is final.
func (w *Withdrawal) Cancel() error {
	if w.Status != WithdrawalPending {
		return NewAppError(CodeValidation, "only pending withdrawals can be cancelled", nil)
	}
	w.Status = WithdrawalCancelled
	return nil
}

// Escrow states.
const (
	EscrowHeld     = "held"
	EscrowReleased = "released"
	EscrowDisputed = "disputed"
	EscrowRefunded = "refunded"
)

// EscrowStates lists escrow states.
var EscrowStates = []string{EscrowHeld, EscrowReleased, EscrowDisputed, EscrowRefunded}

// EscrowTransaction is money held against an order until fulfilment.
type EscrowTransaction struct {
	BaseModel
	OrderNumber  string     `gorm:"size:32;index" json:"order_number"`
	CustomerName string     `gorm:"size:120" json:"customer_name"`
	Amount       float64    `json:"amount"`
	State        string     `gorm:"size:32;index" json:"state"`
	HeldAt       time.Time  `gorm:"index" json:"held_at"`
	ReleasedAt   *time.Time `json:"released_at,omitempty"`
}

// Invoice statuses.
const (
	InvoicePaid    = "paid"
	InvoiceDue     = "due"
	InvoiceOverdue = "overdue"
	InvoiceFailed  = "failed"
)

// InvoiceStatuses lists subscription invoice statuses.
var InvoiceStatuses = []string{InvoicePaid, InvoiceDue, InvoiceOverdue, InvoiceFailed}

// BillingInvoice is one subscription billing period charged to the merchant.
type BillingInvoice struct {
	BaseModel
	Number      string    `gorm:"size:32;uniqueIndex;not null" json:"number"`
	Plan        string    `gorm:"size:32" json:"plan"`
	Amount      float64   `json:"amount"`
	Status      string    `gorm:"size:32;index" json:"status"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	IssuedAt    time.Time `gorm:"index" json:"issued_at"`
}

// Models returns every persisted record type, for AutoMigrate.
func Models() []any {
	return []any{
		&Order{}, &Product{}, &Sale{}, &Withdrawal{}, &EscrowTransaction{}, &BillingInvoice{},
	}
}
