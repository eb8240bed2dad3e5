package telegram

import (
	"fmt"
	"net/http"
	"time"

	coreconfig "github.com/m3rciful/shoebot/core/config"
	"github.com/m3rciful/shoebot/core/httpclient"

	tele "gopkg.in/telebot.v4"
)

const defaultPollTimeout = 10 * time.Second

// allowedUpdates are the update kinds the bots handle. Payments need the
// shipping and pre-checkout queries besides messages and buttons.
var allowedUpdates = []string{"message", "callback_query", "shipping_query", "pre_checkout_query"}

func pollTimeout(cfg *coreconfig.Config) time.Duration {
	if s := cfg.Telegram.LongPollTimeoutSeconds; s > 0 {
		return time.Duration(s) * time.Second
	}
	return defaultPollTimeout
}

// BuildPoller returns the webhook or long poller selected by cfg.
func BuildPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:         fmt.Sprintf("%s:%d", cfg.Webhook.Listen, cfg.Webhook.Port),
			SecretToken:    cfg.Webhook.Secret,
			AllowedUpdates: allowedUpdates,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	return &tele.LongPoller{
		Timeout:        pollTimeout(cfg),
		AllowedUpdates: allowedUpdates,
	}
}

// BuildHTTPClient returns the Bot API client. Its timeouts leave room for a
// full long poll.
func BuildHTTPClient(cfg *coreconfig.Config) *http.Client {
	wait := pollTimeout(cfg)
	return httpclient.New(httpclient.Options{
		Timeout:         wait + 20*time.Second,
		ResponseTimeout: wait + 5*time.Second,
	})
}
