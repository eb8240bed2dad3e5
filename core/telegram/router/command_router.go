package router

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/m3rciful/shoebot/core/logger"
	tg "github.com/m3rciful/shoebot/core/telegram"
	"github.com/m3rciful/shoebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configure the admin check of admin-only commands.
type CommandRouteOptions struct {
	Admins        []int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns a route per registered slash command.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	adminOnly := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		Admins:   opts.Admins,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	var admin int
	for _, key := range slices.Sorted(maps.Keys(cmds)) {
		cmd := cmds[key]
		name := normalizeHandlerName(key)
		h := func(c tele.Context) error {
			return handleWithSummary(c, name, time.Now(), "", "", func() error {
				return cmd.Handler(c)
			})
		}
		if cmd.AdminOnly {
			admin++
			h = adminOnly(h)
		}
		routes = append(routes, wrap(key, h))
	}

	logger.LogEvent(context.Background(), logger.TWire, slog.LevelInfo, "wire.commands",
		slog.Int("commands", len(routes)),
		slog.Int("admin_only", admin),
		slog.Int("callbacks", len(reg.Callbacks())),
	)
	return routes
}
