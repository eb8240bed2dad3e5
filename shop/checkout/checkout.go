// Package checkout issues invoices and carries a payment from the
// pre-checkout query to the order submitted to the shop API.
//
// Steps run in the order Telegram drives them: Invoice, ShippingOptions,
// PreCheckout, ConfirmPayment. Nothing here retries; every payment outcome is
// appended to the order journal when one is configured.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/shoebot/core/logger"
	"github.com/m3rciful/shoebot/shop/catalog"
	"github.com/m3rciful/shoebot/shop/filters"
	"github.com/m3rciful/shoebot/shop/orders"
	"github.com/m3rciful/shoebot/shop/session"
)

const component = "shop.checkout"

// ErrSizeUnavailable is returned when the chosen size has no stock left.
var ErrSizeUnavailable error = &codedError{msg: "checkout: size is out of stock", code: "size_unavailable"}

// Status is the outcome of a confirmed payment.
type Status string

const (
	StatusApprovedSubmitted Status = "approved_submitted"
	StatusRejected          Status = "rejected"
	StatusNetworkFailed     Status = "network_failed"

	statusPreCheckoutRejected = "precheckout_rejected"
)

// Localizer renders invoice texts in the buyer's language.
type Localizer interface {
	T(id string, data map[string]any) string
}

// ProductResolver finds a product by its position in a listing.
type ProductResolver interface {
	Product(ctx context.Context, s session.Session, index int, fs filters.Set) (catalog.Product, session.Session, error)
}

// OrderSubmitter creates orders in the shop API.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, order catalog.Order) (*catalog.Receipt, error)
}

// Notifier tells the shop managers about an order being paid.
type Notifier interface {
	NotifyOrder(ctx context.Context, n Notice) error
}

// Journal appends checkout outcomes.
type Journal interface {
	Record(ctx context.Context, e orders.Entry) (orders.Entry, error)
}

// PriceLine is one labelled amount in minor units.
type PriceLine struct {
	Label  string `yaml:"label"`
	Amount int64  `yaml:"amount"`
}

// ShippingOption is offered to the buyer after the address is entered.
type ShippingOption struct {
	ID     string      `yaml:"id"`
	Title  string      `yaml:"title"`
	Prices []PriceLine `yaml:"prices"`
}

// Invoice is everything needed to send an invoice for one product size.
type Invoice struct {
	Title       string
	Description string
	// Payload comes back in the pre-checkout query and the payment.
	Payload  string
	Currency string
	Prices   []PriceLine
	PhotoURL string
	// NeedShipping is set when shipping options are configured.
	NeedShipping bool

	Purchase Purchase
}

// Purchase is a resolved payload.
type Purchase struct {
	Payload Payload
	Product catalog.Product
	Size    catalog.Size
}

// Address is the shipping address entered in Telegram.
type Address struct {
	CountryCode string
	State       string
	City        string
	StreetLine1 string
	StreetLine2 string
	PostCode    string
}

// Line joins the non-empty address parts.
func (a Address) Line() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.PostCode, a.CountryCode, a.State, a.City, a.StreetLine1, a.StreetLine2} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// OrderInfo is what the buyer entered in the payment form.
type OrderInfo struct {
	Name    string
	Phone   string
	Email   string
	Address Address
}

// Buyer identifies the paying Telegram user.
type Buyer struct {
	ID       int64
	Username string
}

// PreCheckoutQuery is the last confirmation Telegram asks before charging.
type PreCheckoutQuery struct {
	Buyer            Buyer
	Payload          string
	Currency         string
	Total            int64
	ShippingOptionID string
	Order            OrderInfo
}

// Payment is a successful charge.
type Payment struct {
	Buyer            Buyer
	Payload          string
	Currency         string
	Total            int64
	ShippingOptionID string
	Order            OrderInfo
	ChargeID         string
}

// Notice is sent to the managers when a buyer confirms the payment form.
type Notice struct {
	At       time.Time
	Buyer    Buyer
	Purchase Purchase
	Order    OrderInfo
	Shipping string
	Amount   decimal.Decimal
	Currency string
}

// Decision answers a pre-checkout query.
type Decision struct {
	Approved bool
	Err      error
	Purchase Purchase
}

// Outcome is the result of submitting a paid order.
type Outcome struct {
	Status   Status
	Receipt  *catalog.Receipt
	Order    catalog.Order
	Purchase Purchase
	Err      error
}

// Options wire a Service.
type Options struct {
	Products ProductResolver
	Orders   OrderSubmitter
	Notifier Notifier
	// Journal may be nil.
	Journal  Journal
	Shipping []ShippingOption
	// Debug marks every order as a test order; orders of Admins always are.
	Debug  bool
	Admins []int64
	Now    func() time.Time
}

// Service runs the checkout steps.
type Service struct {
	products ProductResolver
	orders   OrderSubmitter
	notifier Notifier
	journal  Journal
	shipping []ShippingOption
	debug    bool
	admins   []int64
	now      func() time.Time
}

// NewService returns a service over opts.
func NewService(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		products: opts.Products,
		orders:   opts.Orders,
		notifier: opts.Notifier,
		journal:  opts.Journal,
		shipping: slices.Clone(opts.Shipping),
		debug:    opts.Debug,
		admins:   slices.Clone(opts.Admins),
		now:      now,
	}
}

// Invoice resolves the product of p and prepares its invoice.
func (svc *Service) Invoice(ctx context.Context, l Localizer, s session.Session, p Payload) (Invoice, session.Session, error) {
	purchase, s, err := svc.resolve(ctx, s, p)
	if err != nil {
		return Invoice{}, s, err
	}
	payload, err := p.Encode()
	if err != nil {
		return Invoice{}, s, err
	}
	prod := purchase.Product
	photo := prod.MainPicture.Thumbnail
	if photo == "" {
		photo = prod.MainPicture.Pic
	}
	inv := Invoice{
		Title: strings.TrimSpace(prod.Name + " " + prod.Code),
		Description: l.T("invoice.description", map[string]any{
			"Brand": prod.Brand,
			"Name":  prod.Name,
			"Size":  purchase.Size.Size,
		}),
		Payload:  payload,
		Currency: prod.PriceCurrency,
		Prices: []PriceLine{{
			Label:  l.T("invoice.price", map[string]any{"Name": prod.Name}),
			Amount: prod.MinorUnits(),
		}},
		PhotoURL:     photo,
		NeedShipping: len(svc.shipping) > 0,
		Purchase:     purchase,
	}
	logger.Info(ctx, component, "checkout.invoice",
		slog.Int("product_id", prod.ID),
		slog.Int("size_id", p.SizeID),
		slog.String("filters", p.Filters.Encode()),
		slog.Int64("amount", prod.MinorUnits()),
		slog.String("currency", prod.PriceCurrency),
	)
	return inv, s, nil
}

// ShippingOptions returns the configured options.
func (svc *Service) ShippingOptions() []ShippingOption {
	return slices.Clone(svc.shipping)
}

// PreCheckout re-resolves the purchase from the payload and notifies the
// managers. Any failure rejects the query.
func (svc *Service) PreCheckout(ctx context.Context, s session.Session, q PreCheckoutQuery) (Decision, session.Session) {
	p, err := DecodePayload(q.Payload)
	if err != nil {
		return svc.reject(ctx, q, Purchase{}, err), s
	}
	purchase, s, err := svc.resolve(ctx, s, p)
	if err != nil {
		return svc.reject(ctx, q, Purchase{Payload: p}, err), s
	}
	notice := Notice{
		At:       svc.now(),
		Buyer:    q.Buyer,
		Purchase: purchase,
		Order:    q.Order,
		Shipping: svc.shippingTitle(q.ShippingOptionID),
		Amount:   catalog.FromMinor(q.Total, q.Currency),
		Currency: q.Currency,
	}
	if err := svc.notifier.NotifyOrder(ctx, notice); err != nil {
		return svc.reject(ctx, q, purchase, err), s
	}
	logger.Info(ctx, component, "checkout.precheckout",
		slog.String("status", "ok"),
		slog.Int("product_id", purchase.Product.ID),
		slog.Int("size_id", p.SizeID),
		slog.Int64("total", q.Total),
	)
	return Decision{Approved: true, Purchase: purchase}, s
}

func (svc *Service) reject(ctx context.Context, q PreCheckoutQuery, purchase Purchase, err error) Decision {
	logger.Error(ctx, component, "checkout.precheckout",
		slog.String("status", "fail"),
		slog.Int64("user_id", q.Buyer.ID),
		slog.String("payload", logger.Sanitize(q.Payload)),
		slog.String("err", err.Error()),
	)
	svc.record(ctx, orders.Entry{
		UserID:    q.Buyer.ID,
		Status:    statusPreCheckoutRejected,
		ProductID: purchase.Product.ID,
		SizeID:    purchase.Payload.SizeID,
		Filters:   purchase.Payload.Filters.Encode(),
		Amount:    q.Total,
		Currency:  q.Currency,
		Error:     err.Error(),
	})
	return Decision{Err: err, Purchase: purchase}
}

// ConfirmPayment submits the paid order. The buyer is already charged, so
// stock is not checked again and the order API decides. The shop refusing it
// and the shop being unreachable are told apart so the handler can answer
// accordingly.
func (svc *Service) ConfirmPayment(ctx context.Context, s session.Session, pay Payment) (Outcome, session.Session) {
	var out Outcome
	p, err := DecodePayload(pay.Payload)
	if err != nil {
		out = Outcome{Status: StatusRejected, Err: err}
		svc.finish(ctx, pay, out)
		return out, s
	}
	purchase, s, err := svc.lookup(ctx, s, p)
	out.Purchase = purchase
	if err != nil {
		out.Status, out.Err = classify(err), err
		svc.finish(ctx, pay, out)
		return out, s
	}

	out.Order = svc.order(pay, purchase)
	start := time.Now()
	receipt, err := svc.orders.SubmitOrder(ctx, out.Order)
	if err != nil {
		out.Status, out.Err = classify(err), err
	} else {
		out.Status, out.Receipt = StatusApprovedSubmitted, receipt
	}
	logger.Debug(ctx, component, "checkout.submit",
		slog.String("order_status", string(out.Status)),
		slog.Duration("duration", logger.Took(start)),
	)
	svc.finish(ctx, pay, out)
	return out, s
}

func (svc *Service) order(pay Payment, purchase Purchase) catalog.Order {
	addr := pay.Order.Address
	return catalog.Order{
		Items: []catalog.OrderItem{{
			Product:  purchase.Product.ID,
			Quantity: 1,
			Size:     purchase.Payload.SizeID,
		}},
		FullName:     pay.Order.Name,
		Phone:        pay.Order.Phone,
		Email:        pay.Order.Email,
		ShippingType: pay.ShippingOptionID,
		City:         addr.City,
		Department:   strings.TrimSpace(addr.StreetLine1 + " " + addr.StreetLine2),
		PayType:      catalog.PayTypeOnline,
		Status:       catalog.StatusAwaitingFulfillment,
		Debug:        svc.debug || slices.Contains(svc.admins, pay.Buyer.ID),
	}
}

func (svc *Service) finish(ctx context.Context, pay Payment, out Outcome) {
	attrs := []slog.Attr{
		slog.String("order_status", string(out.Status)),
		slog.Int64("user_id", pay.Buyer.ID),
		slog.Int("product_id", out.Purchase.Product.ID),
		slog.Int("size_id", out.Purchase.Payload.SizeID),
		slog.String("filters", out.Purchase.Payload.Filters.Encode()),
		slog.String("charge_id", pay.ChargeID),
	}
	entry := orders.Entry{
		UserID:    pay.Buyer.ID,
		Status:    string(out.Status),
		ProductID: out.Purchase.Product.ID,
		SizeID:    out.Purchase.Payload.SizeID,
		Filters:   out.Purchase.Payload.Filters.Encode(),
		Amount:    pay.Total,
		Currency:  pay.Currency,
	}
	if out.Receipt != nil {
		entry.ReceiptID.Int64, entry.ReceiptID.Valid = int64(out.Receipt.ID), true
		attrs = append(attrs, slog.Int("receipt_id", out.Receipt.ID))
	}
	if out.Err != nil {
		entry.Error = out.Err.Error()
		logger.Error(ctx, component, "checkout.payment", append(attrs, slog.String("err", out.Err.Error()))...)
	} else {
		logger.Info(ctx, component, "checkout.payment", attrs...)
	}
	svc.record(ctx, entry)
}

func (svc *Service) record(ctx context.Context, e orders.Entry) {
	if svc.journal == nil {
		return
	}
	// A journal failure is logged by the journal and never changes the outcome.
	_, _ = svc.journal.Record(ctx, e)
}

// resolve looks up the purchase of p and requires its size to be in stock.
func (svc *Service) resolve(ctx context.Context, s session.Session, p Payload) (Purchase, session.Session, error) {
	purchase, s, err := svc.lookup(ctx, s, p)
	if err != nil {
		return purchase, s, err
	}
	for _, item := range purchase.Product.AvailableStockItems() {
		if item.Size.ID == p.SizeID {
			return purchase, s, nil
		}
	}
	return purchase, s, ErrSizeUnavailable
}

// lookup finds the product of p without looking at stock. A size the product
// no longer lists keeps the id from the payload.
func (svc *Service) lookup(ctx context.Context, s session.Session, p Payload) (Purchase, session.Session, error) {
	prod, s, err := svc.products.Product(ctx, s, p.Index, p.Filters)
	if err != nil {
		return Purchase{Payload: p}, s, err
	}
	size, ok := prod.SizeByID(p.SizeID)
	if !ok {
		size = catalog.Size{ID: p.SizeID}
	}
	return Purchase{Payload: p, Product: prod, Size: size}, s, nil
}

func (svc *Service) shippingTitle(id string) string {
	for _, opt := range svc.shipping {
		if opt.ID == id {
			return opt.Title
		}
	}
	return id
}

func classify(err error) Status {
	var rejected *catalog.OrderRejectedError
	if errors.As(err, &rejected) {
		return StatusRejected
	}
	var fetch *catalog.FetchError
	if errors.As(err, &fetch) {
		return StatusNetworkFailed
	}
	return StatusRejected
}
