package domain

import "time"

// Order statuses.
const (
	OrderPending        = "pending"
	OrderProcessing     = "processing"
	OrderOutForDelivery = "out_for_delivery"
	OrderDelivered      = "delivered"
	OrderCancelled      = "cancelled"
)

// Payment statuses.
const (
	PaymentPaid     = "paid"
	PaymentUnpaid   = "unpaid"
	PaymentRefunded = "refunded"
)

// OrderStatuses lists order statuses in workflow order.
var OrderStatuses = []string{OrderPending, OrderProcessing, OrderOutForDelivery, OrderDelivered, OrderCancelled}

// PaymentStatuses lists payment statuses.
var PaymentStatuses = []string{PaymentPaid, PaymentUnpaid, PaymentRefunded}

// DeliveryPartners lists the logistics partners orders can be assigned to.
var DeliveryPartners = []string{"GIG Logistics", "DHL", "Kwik", "Sendbox"}

// Order is a customer order placed against the merchant's store.
type Order struct {
	BaseModel
	Number          string    `gorm:"size:32;uniqueIndex;not null" json:"number"`
	CustomerName    string    `gorm:"size:120;not null" json:"customer_name"`
	CustomerEmail   string    `gorm:"size:255" json:"customer_email"`
	Status          string    `gorm:"size:32;index;not null" json:"status"`
	PaymentStatus   string    `gorm:"size:32;not null" json:"payment_status"`
	DeliveryPartner string    `gorm:"size:64" json:"delivery_partner"`
	Items           int       `json:"items"`
	Amount          float64   `json:"amount"`
	PlacedAt        time.Time `gorm:"index" json:"placed_at"`
}

// OrderUpdate is an edit of an order. Only the status and the delivery
// partner may change.
type OrderUpdate struct {
	Status          *string `json:"status" form:"status" binding:"omitnil,oneof=pending processing out_for_delivery delivered cancelled"`
	DeliveryPartner *string `json:"delivery_partner" form:"delivery_partner" binding:"omitnil,oneof='GIG Logistics' DHL Kwik Sendbox"`
}

// IsEmpty reports whether u changes nothing.
func (u OrderUpdate) IsEmpty() bool { return u.Status == nil && u.DeliveryPartner == nil }

// Apply copies the set fields of u onto o.
func (o *Order) Apply(u OrderUpdate) {
	if u.Status != nil {
		o.Status = *u.Status
	}
	if u.DeliveryPartner != nil {
		o.DeliveryPartner = *u.DeliveryPartner
	}
}
