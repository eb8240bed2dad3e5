package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/m3rciful/shoebot/core/logger"
	"github.com/m3rciful/shoebot/core/telegram/format"
	"github.com/m3rciful/shoebot/core/telegram/sender"
	"github.com/m3rciful/shoebot/shop/checkout"
	"github.com/m3rciful/shoebot/shop/i18n"

	tele "gopkg.in/telebot.v4"
)

const (
	noticeTimeLayout = "02.01.2006 15:04"
	// notifyTimeout keeps the pre-checkout answer inside Telegram's 10s window.
	notifyTimeout = 6 * time.Second
)

// managerNotifier posts order notices to the shop managers. It waits for the
// delivery so a failure can reject the pre-checkout query.
type managerNotifier struct {
	bot      *atomic.Pointer[tele.Bot]
	sender   *atomic.Pointer[sender.Dispatcher]
	managers []int64
	loc      *time.Location
	texts    *i18n.Localizer
}

// NotifyOrder implements checkout.Notifier.
func (n *managerNotifier) NotifyOrder(ctx context.Context, notice checkout.Notice) error {
	if len(n.managers) == 0 {
		return nil
	}
	b := n.bot.Load()
	if b == nil {
		return errors.New("bot: notify managers before start")
	}

	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	text := noticeText(n.texts, notice, n.loc)
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, DisableWebPagePreview: true}
	var errs []error
	for _, id := range n.managers {
		job := sender.Job{
			Action:   "notify.manager",
			Endpoint: "sendMessage",
			Run: func(context.Context) error {
				_, err := b.Send(&tele.User{ID: id}, text, opts)
				return err
			},
		}
		var err error
		if d := n.dispatcher(); d != nil {
			err = d.Do(ctx, job)
		} else {
			err = job.Run(ctx)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("manager %d: %w", id, err))
			continue
		}
		logger.Debug(ctx, component, "notify.manager",
			slog.String("status", "ok"),
			slog.Int64("manager_id", id),
		)
	}
	return errors.Join(errs...)
}

func (n *managerNotifier) dispatcher() *sender.Dispatcher {
	if n.sender == nil {
		return nil
	}
	return n.sender.Load()
}

func noticeText(l *i18n.Localizer, n checkout.Notice, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	p := n.Purchase.Product
	buyer := fmt.Sprintf("%d", n.Buyer.ID)
	if n.Buyer.Username != "" {
		buyer = "@" + n.Buyer.Username + " (" + buyer + ")"
	}
	return l.T("manager.order", map[string]any{
		"Time":     n.At.In(loc).Format(noticeTimeLayout),
		"Brand":    format.MD(p.Brand),
		"Name":     format.MD(p.Name),
		"Code":     format.MD(p.Code),
		"Size":     n.Purchase.Size.Size,
		"Price":    format.MD(l.Price(n.Amount, n.Currency)),
		"Buyer":    format.MD(buyer),
		"FullName": format.MD(n.Order.Name),
		"Phone":    format.MD(n.Order.Phone),
		"Email":    format.MD(n.Order.Email),
		"Shipping": format.MD(n.Shipping),
		"Address":  format.MD(n.Order.Address.Line()),
		"URL":      format.MD(p.URL),
	})
}
