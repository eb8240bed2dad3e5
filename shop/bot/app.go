// Package bot wires the shop engine into Telegram: commands, inline
// callbacks and payment updates.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/shoebot/core/bootstrap"
	"github.com/m3rciful/shoebot/core/buildinfo"
	"github.com/m3rciful/shoebot/core/logger"
	tg "github.com/m3rciful/shoebot/core/telegram"
	"github.com/m3rciful/shoebot/core/telegram/router"
	"github.com/m3rciful/shoebot/core/telegram/sender"
	"github.com/m3rciful/shoebot/core/telegram/state"
	"github.com/m3rciful/shoebot/core/throttle"
	"github.com/m3rciful/shoebot/shop/browse"
	"github.com/m3rciful/shoebot/shop/catalog"
	"github.com/m3rciful/shoebot/shop/checkout"
	"github.com/m3rciful/shoebot/shop/config"
	"github.com/m3rciful/shoebot/shop/filters"
	"github.com/m3rciful/shoebot/shop/i18n"
	"github.com/m3rciful/shoebot/shop/orders"
	"github.com/m3rciful/shoebot/shop/session"
	"github.com/m3rciful/shoebot/shop/wizard"

	tele "gopkg.in/telebot.v4"
)

const component = "shop.bot"

// App owns every long-lived object of the bot. They are built once here and
// passed explicitly to the handlers.
type App struct {
	cfg      *config.Config
	infra    *bootstrap.Result
	registry *tg.Registry
	sessions session.Store
	throttle *throttle.Registry

	api      *catalog.Client
	resolver *browse.Resolver
	machine  *wizard.Machine
	choices  *wizard.ChoiceProvider
	checkout *checkout.Service
	journal  *orders.Journal
	texts    *i18n.Bundle
	managers *managerNotifier

	bot    atomic.Pointer[tele.Bot]
	sender atomic.Pointer[sender.Dispatcher]
}

// NewApp builds the application over the backends opened by bootstrap.
func NewApp(cfg *config.Config, infra *bootstrap.Result) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config")
	}
	if infra == nil {
		infra = &bootstrap.Result{}
	}

	texts, err := i18n.New(cfg.I18n.Default)
	if err != nil {
		return nil, err
	}
	api, err := catalog.New(catalog.Options{
		BaseURL:    cfg.API.BaseURL,
		Token:      cfg.API.Token,
		PageSize:   cfg.API.PageSize,
		ChoicesTTL: cfg.API.ChoicesTTL,
	})
	if err != nil {
		return nil, err
	}

	var sessions session.Store
	switch cfg.Session.Backend {
	case config.SessionRedis:
		if infra.Redis == nil {
			return nil, fmt.Errorf("bot: redis session backend without a redis connection")
		}
		sessions = session.NewRedisStore(infra.Redis, cfg.Session.Prefix, cfg.Session.TTL)
	default:
		sessions = session.NewMemoryStore(cfg.Session.TTL)
	}

	a := &App{
		cfg:      cfg,
		infra:    infra,
		registry: tg.NewRegistry(),
		sessions: sessions,
		throttle: throttle.New(),
		api:      api,
		resolver: browse.NewResolver(browse.NewCache(api), api.PageSize()),
		machine:  wizard.NewMachine(filters.DefaultCatalog()),
		choices:  wizard.NewChoiceProvider(api),
		texts:    texts,
	}
	a.managers = &managerNotifier{
		bot:      &a.bot,
		sender:   &a.sender,
		managers: cfg.Shop.Managers,
		loc:      cfg.Location(),
		texts:    texts.Localizer(cfg.I18n.Default),
	}

	opts := checkout.Options{
		Products: a.resolver,
		Orders:   api,
		Notifier: a.managers,
		Shipping: cfg.Shop.Shipping,
		Debug:    cfg.Shop.Debug,
		Admins:   cfg.Telegram.Admins,
	}
	if infra.DB != nil {
		a.journal = orders.NewJournal(infra.DB)
		opts.Journal = a.journal
	}
	a.checkout = checkout.NewService(opts)

	if err := a.registerCommands(); err != nil {
		return nil, err
	}
	if err := a.registerCallbacks(); err != nil {
		return nil, err
	}
	return a, nil
}

// TelegramRunOptions assembles middlewares, routes and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()

	mws := tg.DefaultMiddlewares(core, a.throttle, a.onRateLimited)
	mws = append(mws, tg.Middleware{Name: "session", Use: state.WithSession[session.Session](a.sessions)})

	routes := router.Routes(a.registry, router.CommandRouteOptions{
		Admins:        core.Telegram.Admins,
		OnAdminReject: a.onAdminReject,
	}, a)
	routes = append(routes,
		router.EventRoute(tele.OnShipping, "shipping", a.handleShipping),
		router.EventRoute(tele.OnCheckout, "pre_checkout", a.handlePreCheckout),
		router.EventRoute(tele.OnPayment, "payment", a.handlePayment),
	)

	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: mws,
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	a.bot.Store(rt.Bot)
	a.sender.Store(rt.Dispatcher)
	l := a.texts.Localizer(a.cfg.I18n.Default)
	a.notifyAdmins(ctx, rt, l.T("admin.started", map[string]any{"Version": buildinfo.String()}))
	logger.Info(ctx, component, "app.start",
		slog.String("version", buildinfo.String()),
		slog.String("session_backend", a.cfg.Session.Backend),
		slog.Bool("journal", a.journal != nil),
		slog.Int("managers", len(a.cfg.Shop.Managers)),
	)
	return nil
}

func (a *App) onStop(ctx context.Context, rt tg.Runtime) error {
	l := a.texts.Localizer(a.cfg.I18n.Default)
	a.notifyAdmins(context.WithoutCancel(ctx), rt, l.T("admin.stopped", nil))
	return nil
}

// notifyAdmins queues a notice per admin on the outbound dispatcher.
func (a *App) notifyAdmins(ctx context.Context, rt tg.Runtime, text string) {
	if rt.Bot == nil || rt.Dispatcher == nil {
		return
	}
	for _, id := range a.cfg.Telegram.Admins {
		to := &tele.User{ID: id}
		err := rt.Dispatcher.Enqueue(ctx, sender.Job{
			Action:   "notify.admin",
			Endpoint: "sendMessage",
			Run: func(context.Context) error {
				_, err := rt.Bot.Send(to, text)
				return err
			},
		})
		if err != nil {
			logger.Warn(ctx, component, "notify.admin",
				slog.String("status", "fail"),
				slog.Int64("user_id", id),
				slog.String("err", err.Error()),
			)
		}
	}
}

// Close releases the backends opened by bootstrap.
func (a *App) Close() error {
	return a.infra.Close()
}
