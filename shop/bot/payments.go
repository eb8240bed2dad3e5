package bot

import (
	"errors"
	"log/slog"

	"github.com/m3rciful/shoebot/core/logger"
	tghelpers "github.com/m3rciful/shoebot/core/telegram/helpers"
	"github.com/m3rciful/shoebot/core/telegram/state"
	"github.com/m3rciful/shoebot/shop/callback"
	"github.com/m3rciful/shoebot/shop/checkout"
	"github.com/m3rciful/shoebot/shop/session"

	tele "gopkg.in/telebot.v4"
)

const (
	invoicePhotoWidth  = 200
	invoicePhotoHeight = 150
)

func (a *App) handleBuy(c tele.Context) error {
	t := a.begin(c)
	act, err := action(c)
	if err != nil {
		return a.fail(c, t, err)
	}
	buy, ok := act.(callback.Buy)
	if !ok {
		return a.fail(c, t, callback.ErrMalformed)
	}

	if err := c.Delete(); err != nil {
		logger.Debug(t.ctx, component, "sizes.delete",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	s, err := a.sendInvoice(c, t, t.sess, checkout.Payload{Index: buy.Index, Filters: buy.Filters, SizeID: buy.SizeID})
	if err != nil {
		return a.fail(c, t, err)
	}
	state.Save(c, s)
	return nil
}

// sendInvoice issues the invoice for p. Its start parameter reopens the same
// invoice when the form is forwarded to another chat; filters too long for a
// start parameter leave it out.
func (a *App) sendInvoice(c tele.Context, t turn, s session.Session, p checkout.Payload) (session.Session, error) {
	inv, s, err := a.checkout.Invoice(t.ctx, t.l, s, p)
	if err != nil {
		return s, err
	}
	start, err := callback.DeepLink(p.Link())
	switch {
	case errors.Is(err, callback.ErrTooLong):
		logger.Debug(t.ctx, component, "invoice.start_param",
			slog.String("status", "skip"),
			slog.String("filters", p.Filters.Encode()),
		)
	case err != nil:
		return s, err
	}
	return s, c.Send(telegramInvoice(inv, a.cfg.Payments.ProviderToken, start))
}

func telegramInvoice(inv checkout.Invoice, token, start string) *tele.Invoice {
	out := &tele.Invoice{
		Title:               inv.Title,
		Description:         inv.Description,
		Payload:             inv.Payload,
		Currency:            inv.Currency,
		Token:               token,
		Start:               start,
		NeedName:            true,
		NeedPhoneNumber:     true,
		NeedShippingAddress: inv.NeedShipping,
		Flexible:            inv.NeedShipping,
	}
	for _, p := range inv.Prices {
		out.Prices = append(out.Prices, tele.Price{Label: p.Label, Amount: int(p.Amount)})
	}
	if inv.PhotoURL != "" {
		out.Photo = &tele.Photo{
			File:   tele.FromURL(inv.PhotoURL),
			Width:  invoicePhotoWidth,
			Height: invoicePhotoHeight,
		}
	}
	return out
}

func shippingOptions(opts []checkout.ShippingOption) []any {
	out := make([]any, 0, len(opts))
	for _, o := range opts {
		prices := make([]tele.Price, 0, len(o.Prices))
		for _, p := range o.Prices {
			prices = append(prices, tele.Price{Label: p.Label, Amount: int(p.Amount)})
		}
		out = append(out, tele.ShippingOption{ID: o.ID, Title: o.Title, Prices: prices})
	}
	return out
}

func (a *App) handleShipping(c tele.Context) error {
	t := a.begin(c)
	opts := shippingOptions(a.checkout.ShippingOptions())
	if len(opts) == 0 {
		return c.Ship(t.l.T("checkout.rejected", nil))
	}
	return c.Ship(opts...)
}

func buyer(u *tele.User) checkout.Buyer {
	if u == nil {
		return checkout.Buyer{}
	}
	return checkout.Buyer{ID: u.ID, Username: u.Username}
}

func orderInfo(o tele.Order) checkout.OrderInfo {
	return checkout.OrderInfo{
		Name:  o.Name,
		Phone: o.PhoneNumber,
		Email: o.Email,
		Address: checkout.Address{
			CountryCode: o.Address.CountryCode,
			State:       o.Address.State,
			City:        o.Address.City,
			StreetLine1: o.Address.StreetLine1,
			StreetLine2: o.Address.StreetLine2,
			PostCode:    o.Address.PostCode,
		},
	}
}

func (a *App) handlePreCheckout(c tele.Context) error {
	t := a.begin(c)
	q := c.PreCheckoutQuery()
	if q == nil {
		return nil
	}
	d, s := a.checkout.PreCheckout(t.ctx, t.sess, checkout.PreCheckoutQuery{
		Buyer:            buyer(q.Sender),
		Payload:          q.Payload,
		Currency:         q.Currency,
		Total:            int64(q.Total),
		ShippingOptionID: q.OptionID,
		Order:            orderInfo(q.Order),
	})
	state.Save(c, s)
	if !d.Approved {
		return c.Accept(t.l.T("checkout.rejected", nil))
	}
	return c.Accept()
}

func (a *App) handlePayment(c tele.Context) error {
	t := a.begin(c)
	msg := c.Message()
	if msg == nil || msg.Payment == nil {
		return nil
	}
	pay := msg.Payment
	out, s := a.checkout.ConfirmPayment(t.ctx, t.sess, checkout.Payment{
		Buyer:            buyer(c.Sender()),
		Payload:          pay.Payload,
		Currency:         pay.Currency,
		Total:            int64(pay.Total),
		ShippingOptionID: pay.OptionID,
		Order:            orderInfo(pay.Order),
		ChargeID:         pay.TelegramChargeID,
	})
	state.Save(c, s)

	if id := a.cfg.Payments.StickerID; id != "" && out.Status == checkout.StatusApprovedSubmitted {
		if err := c.Send(&tele.Sticker{File: tele.File{FileID: id}}); err != nil {
			logger.Debug(t.ctx, component, "payment.sticker",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}
	return tghelpers.SendText(c, paymentReply(t.l, out))
}

// paymentReply picks the buyer's message for a confirmed payment. The money
// is already taken, so every branch tells the buyer a manager will follow up.
func paymentReply(l localizer, out checkout.Outcome) string {
	switch out.Status {
	case checkout.StatusApprovedSubmitted:
		id := 0
		if out.Receipt != nil {
			id = out.Receipt.ID
		}
		return l.T("payment.accepted", map[string]any{"Order": id})
	case checkout.StatusNetworkFailed:
		return l.T("payment.accepted_offline", nil)
	}
	return l.T("error.order_rejected", nil)
}

type localizer interface {
	T(id string, data map[string]any) string
}
