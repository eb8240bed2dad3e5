// Command shoebot runs the shoe shop Telegram bot.
package main

import (
	"log"
	_ "time/tzdata"

	"github.com/m3rciful/shoebot/core/bootstrap"
	corecmd "github.com/m3rciful/shoebot/core/cmd"
	"github.com/m3rciful/shoebot/shop/bot"
	"github.com/m3rciful/shoebot/shop/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "SHOEBOT_CONFIG",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := config.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg := carrier.(*config.Config)
			opts := bootstrap.Options{
				Config:   cfg.CoreConfig(),
				Database: cfg.Database,
			}
			if cfg.Session.Backend == config.SessionRedis {
				opts.RedisURL = cfg.Redis.URL
			}
			infra, err := bootstrap.Run(opts)
			if err != nil {
				return nil, err
			}
			app, err := bot.NewApp(cfg, infra)
			if err != nil {
				_ = infra.Close()
				return nil, err
			}
			return app, nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
