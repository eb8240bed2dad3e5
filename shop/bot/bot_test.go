package bot

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	tg "github.com/m3rciful/shoebot/core/telegram"
	"github.com/m3rciful/shoebot/core/throttle"
	"github.com/m3rciful/shoebot/shop/answers"
	"github.com/m3rciful/shoebot/shop/browse"
	"github.com/m3rciful/shoebot/shop/callback"
	"github.com/m3rciful/shoebot/shop/catalog"
	"github.com/m3rciful/shoebot/shop/checkout"
	"github.com/m3rciful/shoebot/shop/config"
	"github.com/m3rciful/shoebot/shop/i18n"
	"github.com/m3rciful/shoebot/shop/orders"
	"github.com/m3rciful/shoebot/shop/wizard"

	tele "gopkg.in/telebot.v4"
)

func english(t *testing.T) *i18n.Localizer {
	t.Helper()
	b, err := i18n.New("en")
	if err != nil {
		t.Fatalf("i18n: %v", err)
	}
	return b.Localizer("en")
}

func TestReplyMapsErrors(t *testing.T) {
	_, malformed := callback.ParseAction("controls:sideways:1:")
	tests := []struct {
		err      error
		want     string
		expected bool
	}{
		{malformed, "error.invalid_link", true},
		{fmt.Errorf("invoice: %w", checkout.ErrBadPayload), "error.invalid_link", true},
		{wizard.ErrStaleStep, "error.stale", true},
		{browse.ErrIndexOutOfRange, "error.stale", true},
		{browse.ErrNoResults, "error.no_results", true},
		{throttle.ErrThrottled, "error.throttled", true},
		{checkout.ErrSizeUnavailable, "error.size_unavailable", true},
		{&catalog.OrderRejectedError{Status: 400}, "error.order_rejected", false},
		{&wizard.MissingDependencyError{Filter: "category", DependsOn: "gender"}, "error.generic", false},
		{&catalog.FetchError{Endpoint: "/shoes/", Err: errors.New("timeout")}, "error.generic", false},
	}
	for _, tt := range tests {
		if got := reply(tt.err); got != tt.want {
			t.Fatalf("reply(%v) = %s, want %s", tt.err, got, tt.want)
		}
		if got := expected(tt.err); got != tt.expected {
			t.Fatalf("expected(%v) = %v", tt.err, got)
		}
	}
}

func TestMarkupKeepsRowsAndURLs(t *testing.T) {
	if markup(nil) != nil {
		t.Fatalf("empty rows must give no markup")
	}
	m := markup([][]answers.Button{
		{{Text: "⬅️", Data: "controls:previous:0:"}, {Text: "1 / 3", URL: "https://shop.example/1/"}},
		{{Text: "Buy", Data: "list_sizes:0:"}},
	})
	if len(m.InlineKeyboard) != 2 || len(m.InlineKeyboard[0]) != 2 {
		t.Fatalf("keyboard = %+v", m.InlineKeyboard)
	}
	if m.InlineKeyboard[0][1].URL != "https://shop.example/1/" || m.InlineKeyboard[0][1].Data != "" {
		t.Fatalf("url button = %+v", m.InlineKeyboard[0][1])
	}
	if m.InlineKeyboard[1][0].Data != "list_sizes:0:" {
		t.Fatalf("data button = %+v", m.InlineKeyboard[1][0])
	}
}

func TestNoticeTextEscapesBuyerInput(t *testing.T) {
	l := english(t)
	kyiv, err := time.LoadLocation("Europe/Kyiv")
	if err != nil {
		t.Skipf("no tzdata: %v", err)
	}
	n := checkout.Notice{
		At:    time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		Buyer: checkout.Buyer{ID: 42, Username: "ann_s"},
		Purchase: checkout.Purchase{
			Product: catalog.Product{Name: "Soft_7", Brand: "Ecco", Code: "EC-1", URL: "https://shop.example/7/"},
			Size:    catalog.Size{ID: 41, Size: 41},
		},
		Order:    checkout.OrderInfo{Name: "Ann *Smith*", Phone: "+380000000000", Address: checkout.Address{City: "Kyiv", StreetLine1: "Branch 12"}},
		Shipping: "Nova Poshta",
		Amount:   decimal.RequireFromString("1299.5"),
		Currency: "UAH",
	}
	text := noticeText(l, n, kyiv)
	for _, want := range []string{
		"New order (01.03.2024 12:30)",
		`Ecco Soft\_7 (EC-1), size 41`,
		`Buyer: @ann\_s (42)`,
		`Name: Ann \*Smith\*`,
		"Address: Kyiv, Branch 12",
		"Shipping: Nova Poshta",
		"1,299.50 UAH",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("notice lacks %q:\n%s", want, text)
		}
	}
}

func TestNotifyWithoutManagersIsNoop(t *testing.T) {
	n := &managerNotifier{}
	if err := n.NotifyOrder(t.Context(), checkout.Notice{}); err != nil {
		t.Fatalf("notify: %v", err)
	}
}

func TestPaymentReply(t *testing.T) {
	l := english(t)
	ok := paymentReply(l, checkout.Outcome{Status: checkout.StatusApprovedSubmitted, Receipt: &catalog.Receipt{ID: 77}})
	if !strings.Contains(ok, "#77") {
		t.Fatalf("accepted = %q", ok)
	}
	if got := paymentReply(l, checkout.Outcome{Status: checkout.StatusNetworkFailed}); got != l.T("payment.accepted_offline", nil) {
		t.Fatalf("network failed = %q", got)
	}
	if got := paymentReply(l, checkout.Outcome{Status: checkout.StatusRejected}); got != l.T("error.order_rejected", nil) {
		t.Fatalf("rejected = %q", got)
	}
}

func TestTelegramInvoice(t *testing.T) {
	inv := checkout.Invoice{
		Title:        "Soft 7 EC-1",
		Payload:      `[1,"brand=5",41]`,
		Currency:     "UAH",
		Prices:       []checkout.PriceLine{{Label: "Soft 7", Amount: 129950}},
		PhotoURL:     "https://shop.example/7s.jpg",
		NeedShipping: true,
	}
	out := telegramInvoice(inv, "provider", "start")
	if out.Token != "provider" || out.Start != "start" || !out.NeedName || !out.NeedPhoneNumber {
		t.Fatalf("invoice = %+v", out)
	}
	if !out.NeedShippingAddress || !out.Flexible {
		t.Fatalf("shipping flags = %+v", out)
	}
	if len(out.Prices) != 1 || out.Prices[0].Amount != 129950 {
		t.Fatalf("prices = %+v", out.Prices)
	}
	if out.Photo == nil || out.Photo.Width != invoicePhotoWidth || out.Photo.FileURL != inv.PhotoURL {
		t.Fatalf("photo = %+v", out.Photo)
	}

	inv.PhotoURL, inv.NeedShipping = "", false
	out = telegramInvoice(inv, "provider", "start")
	if out.Photo != nil || out.Flexible {
		t.Fatalf("invoice = %+v", out)
	}
}

func TestShippingOptions(t *testing.T) {
	opts := shippingOptions([]checkout.ShippingOption{
		{ID: "pickup", Title: "Pickup"},
		{ID: "nova_poshta", Title: "Nova Poshta", Prices: []checkout.PriceLine{{Label: "Delivery", Amount: 7000}}},
	})
	if len(opts) != 2 {
		t.Fatalf("options = %+v", opts)
	}
}

func TestAlbumsSplitsPictures(t *testing.T) {
	p := catalog.Product{MainPicture: catalog.Picture{Pic: "https://shop.example/0.jpg"}}
	for i := 1; i <= 11; i++ {
		p.SecondaryPictures = append(p.SecondaryPictures, catalog.Picture{Pic: fmt.Sprintf("https://shop.example/%d.jpg", i)})
	}
	got := albums(p)
	if len(got) != 2 || len(got[0]) != albumLimit || len(got[1]) != 2 {
		t.Fatalf("albums = %d", len(got))
	}
}

func TestContactsText(t *testing.T) {
	l := english(t)
	if got := contactsText(l, nil, nil); got != "Contacts are not configured yet." {
		t.Fatalf("empty = %q", got)
	}
	got := contactsText(l, []string{"+380441234567"}, []string{"shop@example.com"})
	if !strings.HasPrefix(got, "Our contacts:") || !strings.Contains(got, "+380441234567") || !strings.Contains(got, "shop@example.com") {
		t.Fatalf("contacts = %q", got)
	}
}

func TestOrdersText(t *testing.T) {
	l := english(t)
	if got := ordersText(l, nil, time.UTC); got != "No orders yet." {
		t.Fatalf("empty = %q", got)
	}
	got := ordersText(l, []orders.Entry{{
		UserID:    9,
		Status:    "approved_submitted",
		ProductID: 7,
		SizeID:    41,
		Amount:    129950,
		Currency:  "UAH",
		CreatedAt: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
	}}, time.UTC)
	for _, want := range []string{"01.03 10:30", `approved\_submitted`, "product 7 size 41", "1,299.50 UAH", "user 9"} {
		if !strings.Contains(got, want) {
			t.Fatalf("orders lack %q: %q", want, got)
		}
	}
}

func TestMenuLabelsCoverEveryLanguage(t *testing.T) {
	texts, err := i18n.New("en")
	if err != nil {
		t.Fatalf("i18n: %v", err)
	}
	a := &App{cfg: &config.Config{}, texts: texts}
	labels := a.menuLabels("menu.browse")
	if !contains(labels, "🛍 Browse") || !contains(labels, "🛍 Каталог") {
		t.Fatalf("labels = %v", labels)
	}
}

func TestCommandMenusAreTranslated(t *testing.T) {
	texts, err := i18n.New("en")
	if err != nil {
		t.Fatalf("i18n: %v", err)
	}
	a := &App{cfg: &config.Config{I18n: config.I18nConfig{Default: "en"}}, texts: texts, registry: tg.NewRegistry()}
	if err := a.registerCommands(); err != nil {
		t.Fatalf("register: %v", err)
	}
	uk := a.registry.Menu("uk", false)
	if len(uk) != 4 {
		t.Fatalf("menu = %+v", uk)
	}
	for _, c := range uk {
		if c.Text == "browse" && c.Description != "Обрати взуття" {
			t.Fatalf("browse = %q", c.Description)
		}
	}
	if admin := a.registry.Menu("en", true); len(admin) != 5 {
		t.Fatalf("admin menu = %+v", admin)
	}
	if key, _, ok := a.registry.LookupCommand("🛍 Каталог"); !ok || key != "/browse" {
		t.Fatalf("menu label lookup = %q, %v", key, ok)
	}
}

func tap(t *testing.T, userID int64, data string) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	return b.NewContext(tele.Update{ID: 1, Callback: &tele.Callback{
		ID:     "cb",
		Sender: &tele.User{ID: userID},
		Data:   data,
	}})
}

func TestThrottleKeyIsTheToken(t *testing.T) {
	first, second := tap(t, 1, "all_pics:3:brand=5"), tap(t, 2, "all_pics:3:brand=5")
	if k := throttleKey(first); k != "all_pics:3:brand=5" || k != throttleKey(second) {
		t.Fatalf("keys = %q, %q", k, throttleKey(second))
	}

	reg := throttle.New()
	if err := reg.Check(throttleKey(first), time.Minute); err != nil {
		t.Fatalf("first tap: %v", err)
	}
	if err := reg.Check(throttleKey(second), time.Minute); !errors.Is(err, throttle.ErrThrottled) {
		t.Fatalf("same token from another user: %v", err)
	}
	if err := reg.Check(throttleKey(tap(t, 1, "all_pics:4:brand=5")), time.Minute); err != nil {
		t.Fatalf("other token: %v", err)
	}
}
