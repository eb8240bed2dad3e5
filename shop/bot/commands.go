package bot

import (
	"strings"
	"time"

	"github.com/m3rciful/shoebot/core/telegram/commands"
	"github.com/m3rciful/shoebot/core/telegram/format"
	tghelpers "github.com/m3rciful/shoebot/core/telegram/helpers"
	"github.com/m3rciful/shoebot/core/telegram/keyboard"
	"github.com/m3rciful/shoebot/core/telegram/state"
	"github.com/m3rciful/shoebot/shop/callback"
	"github.com/m3rciful/shoebot/shop/catalog"
	"github.com/m3rciful/shoebot/shop/checkout"
	"github.com/m3rciful/shoebot/shop/i18n"
	"github.com/m3rciful/shoebot/shop/orders"

	tele "gopkg.in/telebot.v4"
)

const ordersTimeLayout = "02.01 15:04"

func (a *App) registerCommands() error {
	cmds := []struct {
		name string
		cmd  commands.Command
		text string
	}{
		{"/start", commands.Command{Handler: a.handleStart}, "cmd.start"},
		{"/help", commands.Command{Handler: a.handleHelp, Aliases: a.menuLabels("menu.help")}, "cmd.help"},
		{"/contacts", commands.Command{Handler: a.handleContacts, Aliases: a.menuLabels("menu.contacts")}, "cmd.contacts"},
		{"/browse", commands.Command{Handler: a.handleBrowse, Aliases: append([]string{"b"}, a.menuLabels("menu.browse")...)}, "cmd.browse"},
		{"/orders", commands.Command{Handler: a.handleOrders, AdminOnly: true}, "cmd.orders"},
	}
	for _, c := range cmds {
		c.cmd.Description, c.cmd.Descriptions = a.descriptions(c.text)
		if err := a.registry.RegisterCommand(c.name, c.cmd); err != nil {
			return err
		}
	}
	return nil
}

// descriptions returns the menu text of id in the default language and in
// every other loaded one.
func (a *App) descriptions(id string) (string, map[string]string) {
	def := a.texts.Localizer(a.cfg.I18n.Default).T(id, nil)
	byLang := make(map[string]string)
	for _, tag := range a.texts.Languages() {
		if d := a.texts.Localizer(tag.String()).T(id, nil); d != id && d != def {
			byLang[tag.String()] = d
		}
	}
	return def, byLang
}

// menuLabels returns the reply keyboard label of id in every loaded language,
// so a tap is routed whatever language the keyboard was built in.
func (a *App) menuLabels(id string) []string {
	var out []string
	for _, tag := range a.texts.Languages() {
		label := a.texts.Localizer(tag.String()).T(id, nil)
		if label != id && !contains(out, label) {
			out = append(out, label)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func mainMenu(l *i18n.Localizer) *tele.ReplyMarkup {
	return keyboard.Reply(
		[]string{l.T("menu.browse", nil)},
		[]string{l.T("menu.help", nil), l.T("menu.contacts", nil)},
	)
}

func (a *App) handleStart(c tele.Context) error {
	t := a.begin(c)
	if param := strings.TrimSpace(c.Message().Payload); param != "" {
		link, err := callback.ParseDeepLink(param)
		if err != nil {
			return a.fail(c, t, err)
		}
		s, err := a.sendInvoice(c, t, t.sess, checkout.FromLink(link))
		if err != nil {
			return a.fail(c, t, err)
		}
		state.Save(c, s)
		return nil
	}

	name := ""
	if u := c.Sender(); u != nil {
		name = u.FirstName
	}
	text := t.l.T("start.welcome", map[string]any{"Name": name})
	return tghelpers.SendText(c, text, &tele.SendOptions{ReplyMarkup: mainMenu(t.l)})
}

func (a *App) handleHelp(c tele.Context) error {
	t := a.begin(c)
	return tghelpers.SendText(c, t.l.T("help.text", nil), &tele.SendOptions{ReplyMarkup: mainMenu(t.l)})
}

func (a *App) handleContacts(c tele.Context) error {
	t := a.begin(c)
	return tghelpers.SendText(c, contactsText(t.l, a.cfg.Shop.Contacts.Phones, a.cfg.Shop.Contacts.Emails))
}

func contactsText(l *i18n.Localizer, phones, emails []string) string {
	if len(phones) == 0 && len(emails) == 0 {
		return l.T("contacts.empty", nil)
	}
	lines := []string{l.T("contacts.title", nil)}
	for _, p := range phones {
		lines = append(lines, "📞 "+p)
	}
	for _, e := range emails {
		lines = append(lines, "✉️ "+e)
	}
	return strings.Join(lines, "\n")
}

// handleBrowse starts a new browse session on the first wizard step.
func (a *App) handleBrowse(c tele.Context) error {
	t := a.begin(c)
	s, err := a.machine.Start(t.sess)
	if err != nil {
		return a.fail(c, t, err)
	}
	s, err = a.present(c, t, s, false)
	if err != nil {
		return a.fail(c, t, err)
	}
	state.Save(c, s)
	return nil
}

func (a *App) handleOrders(c tele.Context) error {
	t := a.begin(c)
	if a.journal == nil {
		return tghelpers.SendText(c, t.l.T("orders.disabled", nil))
	}
	entries, err := a.journal.Recent(t.ctx, a.cfg.Shop.JournalLimit)
	if err != nil {
		return a.fail(c, t, err)
	}
	return tghelpers.SendMD(c, ordersText(t.l, entries, a.cfg.Location()))
}

func ordersText(l *i18n.Localizer, entries []orders.Entry, loc *time.Location) string {
	if len(entries) == 0 {
		return format.MD(l.T("orders.empty", nil))
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, format.MD(l.T("orders.line", map[string]any{
			"Time":    e.CreatedAt.In(loc).Format(ordersTimeLayout),
			"Status":  e.Status,
			"Product": e.ProductID,
			"Size":    e.SizeID,
			"Amount":  l.Price(catalog.FromMinor(e.Amount, e.Currency), e.Currency),
			"User":    e.UserID,
		})))
	}
	return strings.Join(lines, "\n")
}

// UnknownText implements router.FallbackProvider.
func (a *App) UnknownText(c tele.Context) error {
	t := a.begin(c)
	return tghelpers.SendText(c, t.l.T("unknown.text", nil), &tele.SendOptions{ReplyMarkup: mainMenu(t.l)})
}

// UnknownCallback implements router.FallbackProvider. Buttons of a former
// deployment land here, so the buyer is told to start over.
func (a *App) UnknownCallback(c tele.Context) error {
	t := a.begin(c)
	return tghelpers.Respond(c, &tele.CallbackResponse{Text: t.l.T("error.stale", nil), ShowAlert: true})
}

func (a *App) onRateLimited(c tele.Context) error {
	t := a.begin(c)
	text := t.l.T("error.throttled", nil)
	if c.Callback() != nil {
		return tghelpers.Respond(c, &tele.CallbackResponse{Text: text})
	}
	return tghelpers.SendText(c, text)
}

func (a *App) onAdminReject(c tele.Context) error {
	t := a.begin(c)
	return tghelpers.SendText(c, t.l.T("admin.only", nil))
}
