package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	coreconfig "github.com/m3rciful/shoebot/core/config"
	coretelegram "github.com/m3rciful/shoebot/core/telegram"
)

type carrier struct{ core *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.core }

type app struct {
	closed bool
	hooks  []string
}

func (a *app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error {
			a.hooks = append(a.hooks, "start")
			return nil
		},
		OnStop: func(context.Context, coretelegram.Runtime) error {
			a.hooks = append(a.hooks, "stop")
			return nil
		},
	}, nil
}

func (a *app) Close() error {
	a.closed = true
	return nil
}

func TestRunWiresHooksAndClosesApp(t *testing.T) {
	t.Setenv("SHOP_TEST_CONFIG", "custom.yaml")
	a := &app{}
	var loaded string
	err := Run(Options{
		ConfigEnvVar: "SHOP_TEST_CONFIG",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loaded = path
			return carrier{core: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return a, nil },
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if loaded != "custom.yaml" {
		t.Fatalf("loaded %q", loaded)
	}
	if strings.Join(a.hooks, ",") != "start,stop" || !a.closed {
		t.Fatalf("hooks = %v, closed = %v", a.hooks, a.closed)
	}
}

func TestRunReportsBootstrapFailure(t *testing.T) {
	boom := errors.New("db down")
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(string) (ConfigCarrier, error) {
			return carrier{core: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) { return nil, boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestConfigPathRequired(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	_, err := configPath(Options{})
	if err == nil || !strings.Contains(err.Error(), "CONFIG_PATH") {
		t.Fatalf("err = %v", err)
	}
}
