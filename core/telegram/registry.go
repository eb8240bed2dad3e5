package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/m3rciful/shoebot/core/logger"
	"github.com/m3rciful/shoebot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds the commands and callback namespaces of a bot.
type Registry struct {
	mu        sync.RWMutex
	commands  map[string]commands.Command
	callbacks map[string]tele.HandlerFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		callbacks: make(map[string]tele.HandlerFunc),
	}
}

// RegisterCommand adds cmd under name, which must start with a slash.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	switch {
	case !strings.HasPrefix(name, "/") || len(name) < 2:
		return fmt.Errorf("telegram: command %q must start with /", name)
	case cmd.Handler == nil:
		return fmt.Errorf("telegram: command %s has no handler", name)
	case cmd.Description == "":
		return fmt.Errorf("telegram: command %s has no description", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.commands[name]; ok {
		return fmt.Errorf("telegram: command %s already registered", name)
	}
	r.commands[name] = cmd
	return nil
}

// LookupCommand resolves text to a command by name or alias.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	name := text
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		if cmd.Matches(text) {
			return key, cmd, true
		}
	}
	return "", commands.Command{}, false
}

// Commands returns a copy of the registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.commands)
}

// Menu lists the visible commands in lang, sorted. Admin menus include the
// admin-only commands.
func (r *Registry) Menu(lang string, admin bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []tele.Command
	for _, name := range slices.Sorted(maps.Keys(r.commands)) {
		cmd := r.commands[name]
		if cmd.Hidden || (cmd.AdminOnly && !admin) {
			continue
		}
		out = append(out, tele.Command{
			Text:        strings.TrimPrefix(name, "/"),
			Description: cmd.DescriptionFor(lang),
		})
	}
	return out
}

// Languages returns the language codes that have translated descriptions.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]struct{}{}
	for _, cmd := range r.commands {
		for lang := range cmd.Descriptions {
			seen[lang] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// RegisterCallback binds handler to the callback namespace key.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		return errors.New("telegram: callback needs a key and a handler")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.callbacks[key]; ok {
		return fmt.Errorf("telegram: callback %s already registered", key)
	}
	r.callbacks[key] = handler
	return nil
}

// Callback returns the handler of the namespace key.
func (r *Registry) Callback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// Callbacks returns the registered namespaces, sorted.
func (r *Registry) Callbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.callbacks))
}

// PublishCommands sets the command menus of bot: the default one, one per
// translated language and, for every admin chat, menus with the admin-only
// commands. Failures are logged; the bot works without menus.
func PublishCommands(ctx context.Context, bot *tele.Bot, reg *Registry, admins []int64) {
	langs := append([]string{""}, reg.Languages()...)
	var failed int
	set := func(cmds []tele.Command, opts ...any) {
		if len(cmds) == 0 {
			return
		}
		if err := bot.SetCommands(append([]any{cmds}, opts...)...); err != nil {
			failed++
			logger.LogEvent(ctx, logger.TWire, slog.LevelWarn, "wire.menu",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}
	for _, lang := range langs {
		var opts []any
		if lang != "" {
			opts = append(opts, lang)
		}
		set(reg.Menu(lang, false), opts...)
		for _, id := range admins {
			scope := tele.CommandScope{Type: tele.CommandScopeChat, ChatID: id}
			set(reg.Menu(lang, true), append(slices.Clip(opts), scope)...)
		}
	}
	status := "ok"
	if failed > 0 {
		status = "fail"
	}
	logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "wire.menu",
		slog.String("status", status),
		slog.Int("languages", len(langs)),
		slog.Int("admins", len(admins)),
	)
}
