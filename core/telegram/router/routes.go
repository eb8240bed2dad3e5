// Package router turns a telegram.Registry into telebot routes with shared
// recovery and per-handler summary logging.
package router

import (
	tg "github.com/m3rciful/shoebot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// FallbackProvider handles updates no command or callback namespace claims.
type FallbackProvider interface {
	UnknownText(c tele.Context) error
	UnknownCallback(c tele.Context) error
}

// Routes assembles the command, text and callback routes of reg.
func Routes(reg *tg.Registry, cmdOpts CommandRouteOptions, fb FallbackProvider) []tg.Route {
	var (
		textOpts TextOptions
		cbOpts   CallbackOptions
	)
	if fb != nil {
		textOpts.UnknownText = fb.UnknownText
		cbOpts.NotFound = fb.UnknownCallback
	}
	routes := CommandRoutes(reg, cmdOpts)
	routes = append(routes, TextRoutes(reg, textOpts)...)
	return append(routes, CallbackRoute(reg, cbOpts))
}
