package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/shoebot/core/buildinfo"
	coreconfig "github.com/m3rciful/shoebot/core/config"
)

var (
	initOnce sync.Once
	stopOnce sync.Once

	writer  *asyncWriter
	closers []io.Closer

	level       slog.LevelVar
	debugSample = &sampler{}
	trace       bool

	// L is the root logger. It discards everything until InitLogger runs.
	L = slog.New(slog.DiscardHandler)

	// DB logs database events.
	DB = L
	// TG logs Telegram transport events.
	TG = L
	// MIG logs migrations.
	MIG = L
	// TWire logs how the bot is wired at startup.
	TWire = L
	// Session logs session store events.
	Session = L
)

// InitLogger configures the global logger from cfg. Only the first call has
// an effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() {
		if cfg == nil {
			cfg = &coreconfig.Config{}
		}
		lc := cfg.Logging
		level.Set(parseLevel(lc.Level))
		n, d := debugRatio(lc.DebugSample)
		debugSample.set(n, d)
		trace = truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE"))

		var sinks []sink
		sinks, closers, err = openSinks(lc)
		if err != nil {
			return
		}
		writer = newAsyncWriter(sinks)

		L = slog.New(newStructuredHandler(handlerConfig{
			level:  &level,
			writer: writer,
			format: parseFormat(lc),
			order:  parseOrder(lc.KeysOrder),
			stacks: truthy(lc.Stacks),
		}))
		slog.SetDefault(L)

		DB = Component("db")
		TG = Component("tg")
		MIG = Component("db.migrate")
		TWire = Component("tg.wire")
		Session = Component("session")

		Info(context.Background(), "app", "startup",
			slog.String("go_version", runtime.Version()),
			slog.String("version", buildinfo.String()),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", profile(lc)),
		)
	})
	return err
}

// Shutdown flushes pending lines and closes the log files.
func Shutdown() error {
	var errs []error
	stopOnce.Do(func() {
		if writer != nil {
			errs = append(errs, writer.Flush(), writer.Close())
		}
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
	})
	return errors.Join(errs...)
}

// openSinks always writes to stdout. bot_file gets the same lines and
// errors_file only warnings and errors.
func openSinks(lc coreconfig.LoggingConfig) ([]sink, []io.Closer, error) {
	sinks := []sink{newSink(os.Stdout, slog.LevelDebug)}
	var files []io.Closer
	dir := strings.TrimSpace(lc.Dir)
	if dir == "" {
		return sinks, nil, nil
	}
	targets := []struct {
		name string
		min  slog.Level
	}{
		{strings.TrimSpace(lc.BotFile), slog.LevelDebug},
		{strings.TrimSpace(lc.ErrorsFile), slog.LevelWarn},
	}
	for _, t := range targets {
		if t.name == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("logger: create %s: %w", dir, err)
		}
		f, err := os.OpenFile(filepath.Join(dir, t.name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			for _, c := range files {
				_ = c.Close()
			}
			return nil, nil, fmt.Errorf("logger: open %s: %w", t.name, err)
		}
		sinks = append(sinks, newSink(f, t.min))
		files = append(files, f)
	}
	return sinks, files, nil
}

func parseFormat(lc coreconfig.LoggingConfig) logFormat {
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	switch strings.ToLower(lc.Profile) {
	case "debug", "dev":
		return formatKV
	}
	return formatJSON
}

func parseOrder(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return keyOrder
	}
	var order []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			order = append(order, k)
		}
	}
	if len(order) == 0 {
		return keyOrder
	}
	return order
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// debugRatio defaults to one sampled debug event out of 50; "0" disables
// sampling so every event passes.
func debugRatio(raw string) (int, int) {
	if strings.TrimSpace(raw) == "" {
		return 1, 50
	}
	n, d, ok := parseRatio(raw)
	switch {
	case !ok || n < 0 || d < 0:
		return 1, 50
	case n == 0 || d == 0:
		return 0, 0
	}
	return n, d
}

func profile(lc coreconfig.LoggingConfig) string {
	if p := strings.TrimSpace(lc.Profile); p != "" {
		return strings.ToLower(p)
	}
	return "prod"
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ShouldSampleDebug reports whether a high volume debug event should be
// logged. TRACE=1 lets every event through.
func ShouldSampleDebug() bool {
	return trace || debugSample.allow()
}

// Component returns the root logger scoped to a component.
func Component(name string) *slog.Logger {
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// LogEvent logs event on logg, or on the context logger when logg is nil.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logg == nil {
		logg = FromContext(ctx)
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

func event(ctx context.Context, component string, level slog.Level, name string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), level, name, attrs...)
}

// Debug logs a debug event of component.
func Debug(ctx context.Context, component, name string, attrs ...slog.Attr) {
	event(ctx, component, slog.LevelDebug, name, attrs...)
}

// Info logs an info event of component.
func Info(ctx context.Context, component, name string, attrs ...slog.Attr) {
	event(ctx, component, slog.LevelInfo, name, attrs...)
}

// Warn logs a warning event of component.
func Warn(ctx context.Context, component, name string, attrs ...slog.Attr) {
	event(ctx, component, slog.LevelWarn, name, attrs...)
}

// Error logs an error event of component.
func Error(ctx context.Context, component, name string, attrs ...slog.Attr) {
	event(ctx, component, slog.LevelError, name, attrs...)
}
