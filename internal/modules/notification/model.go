package notification

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wyna/storefront/internal/modules/order"
)

var ErrQueueFull = errors.New("notification queue full")

type Kind string

const KindOrderConfirmed Kind = "order_confirmed"

// Message is a queued customer email. It carries everything the template
// needs so the worker never reads the order store.
type Message struct {
	Kind          Kind          `json:"kind"`
	OrderID       uuid.UUID     `json:"order_id"`
	OrderNumber   string        `json:"order_number"`
	To            string        `json:"to"`
	Name          string        `json:"name"`
	PaymentMethod string        `json:"payment_method"`
	Currency      string        `json:"currency"`
	Subtotal      string        `json:"subtotal"`
	Shipping      string        `json:"shipping"`
	Tax           string        `json:"tax"`
	Total         string        `json:"total"`
	Items         []Item        `json:"items"`
	Address       order.Address `json:"address"`
	PlacedAt      time.Time     `json:"placed_at"`
}

type Item struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

// NewOrderConfirmed snapshots o into a confirmation message.
func NewOrderConfirmed(o *order.Order) Message {
	items := make([]Item, len(o.Items))
	for i, it := range o.Items {
		items[i] = Item{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
			LineTotal: it.Total().StringFixed(2),
		}
	}
	return Message{
		Kind:          KindOrderConfirmed,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		To:            o.CustomerEmail,
		Name:          o.CustomerName,
		PaymentMethod: string(o.PaymentMethod),
		Currency:      o.Currency,
		Subtotal:      o.Subtotal.StringFixed(2),
		Shipping:      o.ShippingCost.StringFixed(2),
		Tax:           o.Tax.StringFixed(2),
		Total:         o.TotalAmount.StringFixed(2),
		Items:         items,
		Address:       o.ShippingAddress,
		PlacedAt:      o.CreatedAt,
	}
}
