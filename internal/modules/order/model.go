package order

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wyna/storefront/internal/modules/inventory"
)

var (
	ErrNotFound                  = errors.New("order not found")
	ErrInvalidInput              = errors.New("invalid order")
	ErrInvalidStateTransition    = errors.New("invalid state transition")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

type PaymentMethod string

const (
	MethodOnline     PaymentMethod = "online"
	MethodCard       PaymentMethod = "card"
	MethodUPI        PaymentMethod = "upi"
	MethodNetbanking PaymentMethod = "netbanking"
	MethodCOD        PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodOnline, MethodCard, MethodUPI, MethodNetbanking, MethodCOD:
		return true
	}
	return false
}

// Offline reports whether the order is paid outside the gateway.
func (m PaymentMethod) Offline() bool { return m == MethodCOD }

// LineItem is a snapshot of a product taken when the order was placed.
type LineItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type Address struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Order is a placed customer order. Items and prices never change after
// placement.
type Order struct {
	ID                  uuid.UUID       `json:"id"`
	OrderNumber         string          `json:"order_number"`
	CustomerName        string          `json:"customer_name"`
	CustomerEmail       string          `json:"customer_email"`
	CustomerPhone       string          `json:"customer_phone,omitempty"`
	Items               []LineItem      `json:"items"`
	ShippingAddress     Address         `json:"shipping_address"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	Tax                 decimal.Decimal `json:"tax"`
	ShippingCost        decimal.Decimal `json:"shipping_cost"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	Currency            string          `json:"currency"`
	PaymentMethod       PaymentMethod   `json:"payment_method"`
	PaymentProvider     string          `json:"payment_provider,omitempty"`
	PaymentStatus       PaymentStatus   `json:"payment_status"`
	Status              Status          `json:"order_status"`
	GatewayOrderID      string          `json:"gateway_order_id,omitempty"`
	GatewayPaymentID    string          `json:"gateway_payment_id,omitempty"`
	GatewaySignature    string          `json:"-"`
	InventoryAdjustedAt *time.Time      `json:"inventory_adjusted_at,omitempty"`
	TrackingNumber      string          `json:"tracking_number,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	CancellationReason  string          `json:"cancellation_reason,omitempty"`
	PaidAt              *time.Time      `json:"paid_at,omitempty"`
	ConfirmedAt         *time.Time      `json:"confirmed_at,omitempty"`
	CancelledAt         *time.Time      `json:"cancelled_at,omitempty"`
	DeliveredAt         *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func (o *Order) InventoryLines() []inventory.Line {
	lines := make([]inventory.Line, len(o.Items))
	for i, it := range o.Items {
		lines[i] = inventory.Line{ProductID: it.ProductID, Name: it.Name, Quantity: it.Quantity}
	}
	return lines
}

func (o *Order) InventoryAdjusted() bool { return o.InventoryAdjustedAt != nil }

func (o *Order) MarkInventoryAdjusted(at time.Time) { o.InventoryAdjustedAt = &at }

// Paid reports whether the payment has been confirmed.
func (o *Order) Paid() bool { return o.PaymentStatus == PaymentCompleted }

// AmountMinor is the total in the currency's minor unit.
func (o *Order) AmountMinor() int64 {
	return o.TotalAmount.Shift(2).Round(0).IntPart()
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]LineItem(nil), o.Items...)
	c.InventoryAdjustedAt = cloneTime(o.InventoryAdjustedAt)
	c.PaidAt = cloneTime(o.PaidAt)
	c.ConfirmedAt = cloneTime(o.ConfirmedAt)
	c.CancelledAt = cloneTime(o.CancelledAt)
	c.DeliveredAt = cloneTime(o.DeliveredAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// PaymentProof is what the client hands back after paying at the gateway.
type PaymentProof struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// CustomerInfo is the checkout form.
type CustomerInfo struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// ItemRequest references a product in a cart. Price is the price the
// shopper saw, when the client sends one.
type ItemRequest struct {
	ProductID string              `json:"product_id"`
	Name      string              `json:"name,omitempty"`
	Quantity  int                 `json:"quantity"`
	Price     decimal.NullDecimal `json:"price"`
}

type PlaceOrderRequest struct {
	Customer      CustomerInfo  `json:"customer"`
	Items         []ItemRequest `json:"items"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Notes         string        `json:"notes,omitempty"`
}

type UpdateStatusRequest struct {
	Status         Status `json:"status"`
	TrackingNumber string `json:"tracking_number,omitempty"`
}

type CancelRequest struct {
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason"`
}

// ListFilter narrows the admin order listing.
type ListFilter struct {
	Status        Status
	PaymentStatus PaymentStatus
	Search        string
	Page          int
	Limit         int
}

func (f ListFilter) offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

type Stats struct {
	Total        int             `json:"total_orders"`
	ByStatus     map[Status]int  `json:"by_status"`
	Revenue      decimal.Decimal `json:"total_revenue"`
	RecentOrders int             `json:"recent_orders"`
}
