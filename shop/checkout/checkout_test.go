package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/shoebot/shop/catalog"
	"github.com/m3rciful/shoebot/shop/filters"
	"github.com/m3rciful/shoebot/shop/orders"
	"github.com/m3rciful/shoebot/shop/session"
)

type texts struct{}

func (texts) T(id string, _ map[string]any) string { return id }

// shelf serves product 7 at any index and records the filters it was asked for.
type shelf struct {
	asked []filters.Set
	err   error
}

func (sh *shelf) Product(_ context.Context, s session.Session, index int, fs filters.Set) (catalog.Product, session.Session, error) {
	sh.asked = append(sh.asked, fs)
	if sh.err != nil {
		return catalog.Product{}, s, sh.err
	}
	return catalog.Product{
		ID:            7,
		URL:           "https://shop.example/shoes/7/",
		Code:          "EC-1",
		Name:          "Soft 7",
		Brand:         "Ecco",
		Price:         decimal.RequireFromString("1299.5"),
		PriceCurrency: "UAH",
		MainPicture:   catalog.Picture{Pic: "https://shop.example/7.jpg", Thumbnail: "https://shop.example/7s.jpg"},
		StockItems: []catalog.StockItem{
			{ID: 1, Size: catalog.Size{ID: 41, Size: 41}, Stock: 2},
			{ID: 2, Size: catalog.Size{ID: 42, Size: 42}, Stock: 0},
		},
	}, s, nil
}

type submitter struct {
	got     []catalog.Order
	receipt *catalog.Receipt
	err     error
}

func (sb *submitter) SubmitOrder(_ context.Context, o catalog.Order) (*catalog.Receipt, error) {
	sb.got = append(sb.got, o)
	return sb.receipt, sb.err
}

type notifier struct {
	notices []Notice
	err     error
}

func (n *notifier) NotifyOrder(_ context.Context, notice Notice) error {
	n.notices = append(n.notices, notice)
	return n.err
}

type journal struct{ entries []orders.Entry }

func (j *journal) Record(_ context.Context, e orders.Entry) (orders.Entry, error) {
	j.entries = append(j.entries, e)
	return e, nil
}

func TestPayloadDoesNotNeedTheSession(t *testing.T) {
	p := Payload{Index: 2, Filters: filters.MustParse("brand=5"), SizeID: 41}
	raw, err := p.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if raw != `[2,"brand=5",41]` {
		t.Fatalf("payload = %s", raw)
	}

	sh := &shelf{}
	n := &notifier{}
	svc := NewService(Options{Products: sh, Notifier: n})
	// A fresh session with different filters must not matter.
	other := session.Session{Filters: filters.MustParse("season=winter")}
	d, _ := svc.PreCheckout(context.Background(), other, PreCheckoutQuery{Payload: raw, Total: 129950, Currency: "UAH"})
	if !d.Approved {
		t.Fatalf("decision = %+v", d)
	}
	if len(sh.asked) != 1 || sh.asked[0].Encode() != "brand=5" {
		t.Fatalf("resolved with %v", sh.asked)
	}
	if d.Purchase.Size.Size != 41 || len(n.notices) != 1 || !n.notices[0].Amount.Equal(decimal.RequireFromString("1299.5")) {
		t.Fatalf("purchase = %+v, notices = %+v", d.Purchase, n.notices)
	}
}

func TestDecodePayloadRejectsForeignData(t *testing.T) {
	for _, raw := range []string{``, `{}`, `[1,"brand=5"]`, `[-1,"",41]`, `["a","",41]`, `[1,"%zz",41]`, `[1,"",0]`} {
		if _, err := DecodePayload(raw); !errors.Is(err, ErrBadPayload) {
			t.Fatalf("%q: err = %v", raw, err)
		}
	}
}

func TestNotifyFailureRejects(t *testing.T) {
	j := &journal{}
	svc := NewService(Options{Products: &shelf{}, Notifier: &notifier{err: errors.New("telegram down")}, Journal: j})
	d, _ := svc.PreCheckout(context.Background(), session.Session{}, PreCheckoutQuery{Payload: `[0,"",41]`, Buyer: Buyer{ID: 5}})
	if d.Approved || d.Err == nil {
		t.Fatalf("decision = %+v", d)
	}
	if len(j.entries) != 1 || j.entries[0].Status != statusPreCheckoutRejected || j.entries[0].UserID != 5 {
		t.Fatalf("journal = %+v", j.entries)
	}
}

func TestPreCheckoutRejectsSoldOutSize(t *testing.T) {
	n := &notifier{}
	svc := NewService(Options{Products: &shelf{}, Notifier: n})
	d, _ := svc.PreCheckout(context.Background(), session.Session{}, PreCheckoutQuery{Payload: `[0,"",42]`})
	if d.Approved || !errors.Is(d.Err, ErrSizeUnavailable) || len(n.notices) != 0 {
		t.Fatalf("decision = %+v", d)
	}
}

func TestConfirmPaymentOutcomes(t *testing.T) {
	pay := Payment{
		Buyer:            Buyer{ID: 9},
		Payload:          `[0,"brand=5",41]`,
		Currency:         "UAH",
		Total:            129950,
		ShippingOptionID: "nova_poshta",
		Order: OrderInfo{
			Name:    "Ann Smith",
			Phone:   "+380000000000",
			Address: Address{City: "Kyiv", StreetLine1: "Branch 12", StreetLine2: "box 3"},
		},
	}

	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"accepted", nil, StatusApprovedSubmitted},
		{"refused", &catalog.OrderRejectedError{Status: 400, Body: "bad size"}, StatusRejected},
		{"unreachable", &catalog.FetchError{Endpoint: "/order/", Err: errors.New("timeout")}, StatusNetworkFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sb := &submitter{err: tt.err}
			if tt.err == nil {
				sb.receipt = &catalog.Receipt{ID: 77, Status: catalog.StatusAwaitingFulfillment}
			}
			j := &journal{}
			svc := NewService(Options{Products: &shelf{}, Orders: sb, Journal: j, Admins: []int64{9}})
			out, _ := svc.ConfirmPayment(context.Background(), session.Session{}, pay)
			if out.Status != tt.want {
				t.Fatalf("status = %s, want %s (err %v)", out.Status, tt.want, out.Err)
			}
			if len(sb.got) != 1 {
				t.Fatalf("orders = %+v", sb.got)
			}
			o := sb.got[0]
			if o.Items[0] != (catalog.OrderItem{Product: 7, Quantity: 1, Size: 41}) || o.City != "Kyiv" || o.Department != "Branch 12 box 3" {
				t.Fatalf("order = %+v", o)
			}
			if o.PayType != catalog.PayTypeOnline || o.Status != catalog.StatusAwaitingFulfillment || !o.Debug || o.ShippingType != "nova_poshta" {
				t.Fatalf("order = %+v", o)
			}
			if len(j.entries) != 1 || j.entries[0].Status != string(tt.want) {
				t.Fatalf("journal = %+v", j.entries)
			}
			if tt.want == StatusApprovedSubmitted && j.entries[0].ReceiptID.Int64 != 77 {
				t.Fatalf("receipt not journaled: %+v", j.entries[0])
			}
		})
	}
}

func TestConfirmPaymentSubmitsSoldOutSize(t *testing.T) {
	sb := &submitter{receipt: &catalog.Receipt{ID: 78}}
	svc := NewService(Options{Products: &shelf{}, Orders: sb})
	out, _ := svc.ConfirmPayment(context.Background(), session.Session{}, Payment{Payload: `[0,"brand=5",42]`, Currency: "UAH", Total: 129950})
	if out.Status != StatusApprovedSubmitted || out.Err != nil {
		t.Fatalf("outcome = %+v", out)
	}
	if len(sb.got) != 1 || sb.got[0].Items[0].Size != 42 || out.Purchase.Size.Size != 42 {
		t.Fatalf("orders = %+v", sb.got)
	}

	sb = &submitter{err: &catalog.OrderRejectedError{Status: 400, Body: "size 42 is sold out"}}
	svc = NewService(Options{Products: &shelf{}, Orders: sb})
	out, _ = svc.ConfirmPayment(context.Background(), session.Session{}, Payment{Payload: `[0,"brand=5",42]`})
	if out.Status != StatusRejected || len(sb.got) != 1 {
		t.Fatalf("outcome = %+v, orders = %d", out, len(sb.got))
	}
}

func TestConfirmPaymentWhenProductLookupFails(t *testing.T) {
	sb := &submitter{}
	svc := NewService(Options{Products: &shelf{err: &catalog.FetchError{Endpoint: "/shoes/", Status: 502}}, Orders: sb})
	out, _ := svc.ConfirmPayment(context.Background(), session.Session{}, Payment{Payload: `[0,"",41]`})
	if out.Status != StatusNetworkFailed || len(sb.got) != 0 {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestInvoice(t *testing.T) {
	svc := NewService(Options{Products: &shelf{}, Shipping: []ShippingOption{{ID: "pickup", Title: "Pickup"}}})
	inv, _, err := svc.Invoice(context.Background(), texts{}, session.Session{}, Payload{Index: 1, Filters: filters.MustParse("brand=5"), SizeID: 41})
	if err != nil {
		t.Fatalf("invoice: %v", err)
	}
	if inv.Title != "Soft 7 EC-1" || inv.Payload != `[1,"brand=5",41]` || inv.Currency != "UAH" {
		t.Fatalf("invoice = %+v", inv)
	}
	if len(inv.Prices) != 1 || inv.Prices[0].Amount != 129950 || inv.PhotoURL != "https://shop.example/7s.jpg" || !inv.NeedShipping {
		t.Fatalf("invoice = %+v", inv)
	}

	if _, _, err := svc.Invoice(context.Background(), texts{}, session.Session{}, Payload{SizeID: 42}); !errors.Is(err, ErrSizeUnavailable) {
		t.Fatalf("sold out size: %v", err)
	}
}

func TestNoticeAmountFollowsCurrency(t *testing.T) {
	n := &notifier{}
	svc := NewService(Options{Products: &shelf{}, Notifier: n})
	d, _ := svc.PreCheckout(context.Background(), session.Session{}, PreCheckoutQuery{Payload: `[0,"",41]`, Currency: "JPY", Total: 4999})
	if !d.Approved || len(n.notices) != 1 {
		t.Fatalf("decision = %+v", d)
	}
	if got := n.notices[0].Amount; !got.Equal(decimal.NewFromInt(4999)) {
		t.Fatalf("amount = %s", got)
	}
}
