package order

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wyna/storefront/internal/modules/catalog"
	"github.com/wyna/storefront/internal/modules/inventory"
	"github.com/wyna/storefront/internal/platform/logging"
	"github.com/wyna/storefront/internal/platform/metrics"
	"github.com/wyna/storefront/internal/platform/validate"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	tracerName    = "github.com/wyna/storefront/internal/modules/order"
	notifyTimeout = 300 * time.Millisecond
	recentWindow  = 30 * 24 * time.Hour
)

var (
	taxRate          = decimal.RequireFromString("0.18")
	freeShippingFrom = decimal.NewFromInt(2000)
	flatShipping     = decimal.NewFromInt(150)

	phonePattern  = regexp.MustCompile(`^(\+91[\-\s]?)?[6-9]\d{9}$`)
	postalPattern = regexp.MustCompile(`^\d{6}$`)
)

// Catalog resolves cart lines to orderable products.
type Catalog interface {
	Purchasable(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error)
}

// Verifier checks a client-side payment proof. A non-nil error means the
// check could not be run at all.
type Verifier interface {
	Verify(gatewayOrderID, gatewayPaymentID, signature string) (bool, error)
}

// Notifier tells the customer an order went through.
type Notifier interface {
	NotifyOrderConfirmed(ctx context.Context, o *Order) error
}

// Service drives orders from placement to confirmation or cancellation. It
// is the only writer of order and payment status once an order exists.
type Service interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error)

	// ConfirmPayment confirms a pending order with a client-supplied proof.
	// Orders already paid are returned unchanged.
	ConfirmPayment(ctx context.Context, id string, proof PaymentProof) (*Order, error)

	// ConfirmFromWebhook is the gateway-initiated path into the same
	// confirmation; the caller has already authenticated the notification.
	ConfirmFromWebhook(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*Order, error)

	// AttachGatewayOrder stores the gateway's order id on a pending order.
	AttachGatewayOrder(ctx context.Context, id uuid.UUID, gatewayOrderID string) error

	CancelOrder(ctx context.Context, id string, reason string) (*Order, error)
	// CancelByCustomer cancels on behalf of a guest who proves ownership with
	// the order's email address.
	CancelByCustomer(ctx context.Context, number string, req CancelRequest) (*Order, error)
	UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Order, error)

	GetOrder(ctx context.Context, id string) (*Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*Order, error)
	ListOrders(ctx context.Context, f ListFilter) ([]*Order, int, error)
	Stats(ctx context.Context) (*Stats, error)
}

// Options carries the tunables of the service.
type Options struct {
	Currency string
	// Provider is recorded on orders that are paid through the gateway.
	Provider string
	// PriceTolerance is how far a cart price may drift from the catalog
	// before it is logged.
	PriceTolerance decimal.Decimal
	Metrics        *metrics.Metrics
	Now            func() time.Time
}

type service struct {
	repo     Repository
	products Catalog
	verifier Verifier
	notifier Notifier
	opts     Options
	tracer   trace.Tracer
}

// NewService creates a new order service. notifier may be nil.
func NewService(repo Repository, products Catalog, verifier Verifier, notifier Notifier, opts Options) Service {
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &service{
		repo:     repo,
		products: products,
		verifier: verifier,
		notifier: notifier,
		opts:     opts,
		tracer:   otel.Tracer(tracerName),
	}
}

// validTransitions is the fulfilment progression an admin may drive.
// Confirmation and cancellation have their own entry points.
var validTransitions = map[Status][]Status{
	StatusConfirmed:  {StatusProcessing},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
}

func (s *service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (_ *Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder",
		trace.WithAttributes(attribute.String("order.payment_method", string(req.PaymentMethod))))
	defer func() { endSpan(span, err) }()
	logger := logging.FromContext(ctx)

	if err := validateCustomer(req.Customer); err != nil {
		return nil, err
	}
	if !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, req.PaymentMethod)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrInvalidInput)
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	wanted := make(map[uuid.UUID]int, len(req.Items))
	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid product_id %q", ErrInvalidInput, it.ProductID)
		}
		if it.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
		}
		if _, seen := wanted[pid]; !seen {
			ids = append(ids, pid)
		}
		wanted[pid] += quantityOf(it)
	}

	products, err := s.products.Purchasable(ctx, ids)
	if err != nil {
		return nil, err
	}
	for pid, qty := range wanted {
		if p := products[pid]; p.Stock < qty {
			return nil, fmt.Errorf("%w: %s has %d left, %d requested",
				inventory.ErrInsufficientStock, p.Name, p.Stock, qty)
		}
	}

	items := make([]LineItem, 0, len(req.Items))
	subtotal := decimal.Zero
	for _, it := range req.Items {
		pid := uuid.MustParse(it.ProductID)
		p := products[pid]
		price := p.EffectivePrice()
		if it.Price.Valid {
			if it.Price.Decimal.IsNegative() {
				return nil, fmt.Errorf("%w: price must be >= 0", ErrInvalidInput)
			}
			if it.Price.Decimal.Sub(price).Abs().GreaterThan(s.opts.PriceTolerance) {
				logger.Warn("price_mismatch",
					zap.String("product_id", pid.String()),
					zap.String("cart_price", it.Price.Decimal.String()),
					zap.String("catalog_price", price.String()),
				)
			}
			price = it.Price.Decimal
		}
		li := LineItem{
			ProductID: pid,
			Name:      p.Name,
			UnitPrice: price.Round(2),
			Quantity:  quantityOf(it),
			Image:     p.PrimaryImage(),
		}
		subtotal = subtotal.Add(li.Total())
		items = append(items, li)
	}

	c := req.Customer
	o := &Order{
		ID:            uuid.New(),
		OrderNumber:   generateOrderNumber(s.opts.Now()),
		CustomerName:  strings.TrimSpace(c.Name),
		CustomerEmail: strings.ToLower(strings.TrimSpace(c.Email)),
		CustomerPhone: strings.TrimSpace(c.Phone),
		Items:         items,
		ShippingAddress: Address{
			FullName:   strings.TrimSpace(c.Name),
			Phone:      strings.TrimSpace(c.Phone),
			Street:     strings.TrimSpace(c.Address),
			City:       strings.TrimSpace(c.City),
			State:      strings.TrimSpace(c.State),
			PostalCode: strings.TrimSpace(c.PostalCode),
			Country:    defaultString(strings.TrimSpace(c.Country), "India"),
		},
		Currency:      s.opts.Currency,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: PaymentPending,
		Status:        StatusPending,
		Notes:         strings.TrimSpace(req.Notes),
	}
	if !req.PaymentMethod.Offline() {
		o.PaymentProvider = s.opts.Provider
	}
	applyTotals(o, subtotal)

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	s.opts.Metrics.OrdersPlaced.WithLabelValues(string(o.PaymentMethod)).Inc()
	span.SetAttributes(attribute.String("order.number", o.OrderNumber))
	logger.Info("order_placed",
		zap.String("order_number", o.OrderNumber),
		zap.String("payment_method", string(o.PaymentMethod)),
		zap.String("total", o.TotalAmount.String()),
	)

	if o.PaymentMethod.Offline() {
		return s.confirmOffline(ctx, o)
	}
	return o, nil
}

// confirmOffline runs the stock adjustment for an order that is paid on
// delivery. If stock is gone by now the order is cancelled and the
// adjustment error returned.
func (s *service) confirmOffline(ctx context.Context, o *Order) (*Order, error) {
	logger := logging.FromContext(ctx)

	confirmed, err := s.repo.Mutate(ctx, o.ID, func(ctx context.Context, cur *Order, st inventory.Stock) error {
		if cur.Status != StatusPending {
			return nil
		}
		now := s.opts.Now()
		if err := inventory.AdjustOnce(ctx, st, cur, now); err != nil {
			return err
		}
		cur.Status = StatusConfirmed
		cur.ConfirmedAt = &now
		return nil
	})
	if err != nil {
		s.opts.Metrics.InventoryAdjustments.WithLabelValues("failed").Inc()
		_, cerr := s.repo.Mutate(ctx, o.ID, func(_ context.Context, cur *Order, _ inventory.Stock) error {
			now := s.opts.Now()
			cur.Status = StatusCancelled
			cur.CancellationReason = "stock no longer available"
			cur.CancelledAt = &now
			return nil
		})
		if cerr != nil {
			logger.Error("cancel_unfulfillable_order_failed",
				zap.String("order_number", o.OrderNumber), zap.Error(cerr))
		}
		return nil, err
	}
	s.opts.Metrics.InventoryAdjustments.WithLabelValues("applied").Inc()
	s.notify(ctx, confirmed)
	return confirmed, nil
}

func (s *service) ConfirmPayment(ctx context.Context, id string, proof PaymentProof) (_ *Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.ConfirmPayment",
		trace.WithAttributes(attribute.String("order.id", id)))
	defer func() { endSpan(span, err) }()

	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	if proof.GatewayOrderID == "" || proof.GatewayPaymentID == "" || proof.Signature == "" {
		return nil, fmt.Errorf("%w: gateway order id, payment id and signature are required", ErrInvalidInput)
	}

	o, err := s.repo.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if o.Paid() {
		s.opts.Metrics.PaymentConfirmations.WithLabelValues("verify", "duplicate").Inc()
		return o, nil
	}

	// A proof is only good for the gateway order this order was checked out
	// with; an order that never reached the gateway has nothing to verify.
	ok := o.GatewayOrderID != "" && o.GatewayOrderID == proof.GatewayOrderID
	if ok {
		if ok, err = s.verifier.Verify(proof.GatewayOrderID, proof.GatewayPaymentID, proof.Signature); err != nil {
			return nil, err
		}
	}
	if !ok {
		s.opts.Metrics.PaymentConfirmations.WithLabelValues("verify", "rejected").Inc()
		if err := s.repo.MarkPaymentFailed(ctx, uid); err != nil {
			logging.FromContext(ctx).Error("mark_payment_failed",
				zap.String("order_number", o.OrderNumber), zap.Error(err))
		}
		return nil, ErrPaymentVerificationFailed
	}

	return s.confirm(ctx, uid, "verify", func(cur *Order) {
		cur.GatewayPaymentID = proof.GatewayPaymentID
		cur.GatewaySignature = proof.Signature
	})
}

func (s *service) ConfirmFromWebhook(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (_ *Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.ConfirmFromWebhook",
		trace.WithAttributes(attribute.String("gateway.order_id", gatewayOrderID)))
	defer func() { endSpan(span, err) }()

	o, err := s.repo.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	if o.Paid() {
		s.opts.Metrics.PaymentConfirmations.WithLabelValues("webhook", "duplicate").Inc()
		return o, nil
	}
	return s.confirm(ctx, o.ID, "webhook", func(cur *Order) {
		if cur.GatewayPaymentID == "" {
			cur.GatewayPaymentID = gatewayPaymentID
		}
	})
}

// confirm is the single guarded transition pending -> confirmed. The order
// row stays locked from the paid check through the status write, so of two
// racing callers only the first adjusts stock and the second finds the
// order paid.
func (s *service) confirm(ctx context.Context, id uuid.UUID, source string, record func(*Order)) (*Order, error) {
	logger := logging.FromContext(ctx)
	adjusted := false

	o, err := s.repo.Mutate(ctx, id, func(ctx context.Context, cur *Order, st inventory.Stock) error {
		if cur.Paid() {
			return nil
		}
		if cur.Status != StatusPending {
			return fmt.Errorf("%w: order %s is %s", ErrInvalidStateTransition, cur.OrderNumber, cur.Status)
		}
		now := s.opts.Now()
		if err := inventory.AdjustOnce(ctx, st, cur, now); err != nil {
			return err
		}
		record(cur)
		cur.PaymentStatus = PaymentCompleted
		cur.Status = StatusConfirmed
		if cur.PaidAt == nil {
			cur.PaidAt = &now
		}
		cur.ConfirmedAt = &now
		adjusted = true
		return nil
	})
	if err != nil {
		s.opts.Metrics.PaymentConfirmations.WithLabelValues(source, "error").Inc()
		if errors.Is(err, inventory.ErrInsufficientStock) || errors.Is(err, catalog.ErrProductUnavailable) {
			s.opts.Metrics.InventoryAdjustments.WithLabelValues("failed").Inc()
			logger.Error("paid_order_not_fulfillable",
				zap.String("order_id", id.String()),
				zap.String("source", source),
				zap.Error(err),
			)
		}
		return nil, err
	}
	if !adjusted {
		s.opts.Metrics.PaymentConfirmations.WithLabelValues(source, "duplicate").Inc()
		return o, nil
	}

	s.opts.Metrics.PaymentConfirmations.WithLabelValues(source, "confirmed").Inc()
	s.opts.Metrics.InventoryAdjustments.WithLabelValues("applied").Inc()
	logger.Info("order_confirmed",
		zap.String("order_number", o.OrderNumber),
		zap.String("source", source),
		zap.String("gateway_payment_id", o.GatewayPaymentID),
	)
	s.notify(ctx, o)
	return o, nil
}

func (s *service) AttachGatewayOrder(ctx context.Context, id uuid.UUID, gatewayOrderID string) error {
	return s.repo.SetGatewayOrderID(ctx, id, gatewayOrderID)
}

func (s *service) CancelOrder(ctx context.Context, id string, reason string) (_ *Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.CancelOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer func() { endSpan(span, err) }()

	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.cancel(ctx, uid, defaultString(reason, "Cancelled by store"))
}

func (s *service) CancelByCustomer(ctx context.Context, number string, req CancelRequest) (_ *Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.CancelByCustomer", trace.WithAttributes(attribute.String("order.number", number)))
	defer func() { endSpan(span, err) }()

	o, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(req.Email), o.CustomerEmail) {
		return nil, ErrNotFound
	}
	return s.cancel(ctx, o.ID, defaultString(req.Reason, "Cancelled by customer"))
}

// cancel restocks only orders whose stock was actually taken.
func (s *service) cancel(ctx context.Context, id uuid.UUID, reason string) (*Order, error) {
	restocked := false
	o, err := s.repo.Mutate(ctx, id, func(ctx context.Context, cur *Order, st inventory.Stock) error {
		if cur.Status != StatusPending && cur.Status != StatusConfirmed {
			return fmt.Errorf("%w: only pending or confirmed orders can be cancelled (current: %s)",
				ErrInvalidStateTransition, cur.Status)
		}
		if cur.InventoryAdjusted() {
			if err := inventory.Restock(ctx, st, cur.InventoryLines()); err != nil {
				return err
			}
			restocked = true
		}
		now := s.opts.Now()
		cur.Status = StatusCancelled
		cur.CancellationReason = reason
		cur.CancelledAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields := []zap.Field{
		zap.String("order_number", o.OrderNumber),
		zap.Bool("restocked", restocked),
	}
	if o.Paid() {
		// Money was taken; refunds are handled at the gateway dashboard.
		fields = append(fields, zap.Bool("refund_due", true))
	}
	logging.FromContext(ctx).Info("order_cancelled", fields...)
	return o, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	next := Status(strings.ToLower(string(req.Status)))
	if next == StatusCancelled {
		return s.cancel(ctx, uid, "Cancelled by store")
	}

	return s.repo.Mutate(ctx, uid, func(_ context.Context, cur *Order, _ inventory.Stock) error {
		valid := false
		for _, st := range validTransitions[cur.Status] {
			if st == next {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("%w: cannot transition order from %s to %s", ErrInvalidStateTransition, cur.Status, next)
		}
		now := s.opts.Now()
		cur.Status = next
		if req.TrackingNumber != "" {
			cur.TrackingNumber = strings.TrimSpace(req.TrackingNumber)
		}
		if next == StatusDelivered {
			cur.DeliveredAt = &now
			if cur.PaymentMethod.Offline() && !cur.Paid() {
				cur.PaymentStatus = PaymentCompleted
				cur.PaidAt = &now
			}
		}
		return nil
	})
}

func (s *service) GetOrder(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, uid)
}

func (s *service) GetOrderByNumber(ctx context.Context, number string) (*Order, error) {
	return s.repo.GetByNumber(ctx, number)
}

func (s *service) ListOrders(ctx context.Context, f ListFilter) ([]*Order, int, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page < 1 {
		f.Page = 1
	}
	return s.repo.List(ctx, f)
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx, s.opts.Now().Add(-recentWindow))
}

// notify is best effort: it never fails the caller.
func (s *service) notify(ctx context.Context, o *Order) {
	if s.notifier == nil || o.CustomerEmail == "" {
		return
	}
	nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := s.notifier.NotifyOrderConfirmed(nctx, o); err != nil {
		logging.FromContext(ctx).Warn("order_notification_failed",
			zap.String("order_number", o.OrderNumber), zap.Error(err))
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

// applyTotals fills in tax and shipping for the record. The amount charged is
// the subtotal; tax and shipping are informational.
func applyTotals(o *Order, subtotal decimal.Decimal) {
	o.Subtotal = subtotal.Round(2)
	o.Tax = subtotal.Mul(taxRate).Round(2)
	o.ShippingCost = flatShipping
	if subtotal.GreaterThanOrEqual(freeShippingFrom) {
		o.ShippingCost = decimal.Zero
	}
	o.TotalAmount = o.Subtotal
}

func validateCustomer(c CustomerInfo) error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("%w: full name is required", ErrInvalidInput)
	case !validate.Email(c.Email):
		return fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	case !phonePattern.MatchString(strings.TrimSpace(c.Phone)):
		return fmt.Errorf("%w: valid phone number required", ErrInvalidInput)
	case strings.TrimSpace(c.Address) == "":
		return fmt.Errorf("%w: address is required", ErrInvalidInput)
	case strings.TrimSpace(c.City) == "":
		return fmt.Errorf("%w: city is required", ErrInvalidInput)
	case !postalPattern.MatchString(strings.TrimSpace(c.PostalCode)):
		return fmt.Errorf("%w: valid 6-digit PIN code required", ErrInvalidInput)
	}
	return nil
}

// quantityOf treats a missing quantity as one.
func quantityOf(it ItemRequest) int {
	if it.Quantity == 0 {
		return 1
	}
	return it.Quantity
}

// generateOrderNumber creates a human-readable order number: ORD-YYYYMMDD-XXXXXXXX
func generateOrderNumber(now time.Time) string {
	date := now.UTC().Format("20060102")
	suffix := strings.ToUpper(uuid.New().String()[:8])
	return fmt.Sprintf("ORD-%s-%s", date, suffix)
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
