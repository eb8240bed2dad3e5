// Package config holds the shop bot configuration on top of the core one.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/shoebot/core/config"
	coredatabase "github.com/m3rciful/shoebot/core/database"
	"github.com/m3rciful/shoebot/shop/checkout"
)

// Session backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

const (
	defaultPageSize     = 10
	defaultChoicesTTL   = 10 * time.Minute
	defaultSessionTTL   = 24 * time.Hour
	defaultSessionKey   = "shoebot:session:"
	defaultTimezone     = "Europe/Kyiv"
	defaultLanguage     = "en"
	defaultPicsWindow   = time.Minute
	defaultMarkWindow   = 30 * time.Second
	defaultJournalLimit = 10
)

// APIConfig points at the shop's product and order API.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url" envconfig:"API_BASE_URL"`
	Token      string        `yaml:"token" envconfig:"API_TOKEN"`
	PageSize   int           `yaml:"page_size" envconfig:"API_PAGE_SIZE"`
	ChoicesTTL time.Duration `yaml:"choices_ttl" envconfig:"API_CHOICES_TTL"`
}

// PaymentsConfig configures Telegram payments.
type PaymentsConfig struct {
	ProviderToken string `yaml:"provider_token" envconfig:"PAYMENTS_PROVIDER_TOKEN"`
	// StickerID is sent after a successful payment when set.
	StickerID string `yaml:"sticker_id" envconfig:"PAYMENTS_STICKER_ID"`
}

// ContactsConfig is shown by /contacts.
type ContactsConfig struct {
	Phones []string `yaml:"phones" envconfig:"SHOP_PHONES"`
	Emails []string `yaml:"emails" envconfig:"SHOP_EMAILS"`
}

// ThrottleConfig sets the repeat windows of expensive buttons.
type ThrottleConfig struct {
	AllPictures time.Duration `yaml:"all_pictures"`
	Bookmark    time.Duration `yaml:"bookmark"`
}

// ShopConfig is the business side of the bot.
type ShopConfig struct {
	// Managers receive new order notices.
	Managers []int64                  `yaml:"managers" envconfig:"SHOP_MANAGERS"`
	Timezone string                   `yaml:"timezone" envconfig:"SHOP_TIMEZONE"`
	Contacts ContactsConfig           `yaml:"contacts"`
	Shipping []checkout.ShippingOption `yaml:"shipping"`
	Throttle ThrottleConfig           `yaml:"throttle"`
	// Debug marks every submitted order as a test order.
	Debug        bool `yaml:"debug" envconfig:"SHOP_DEBUG"`
	JournalLimit int  `yaml:"journal_limit"`
}

// SessionConfig selects where sessions live.
type SessionConfig struct {
	Backend string        `yaml:"backend" envconfig:"SESSION_BACKEND"`
	TTL     time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
	Prefix  string        `yaml:"prefix" envconfig:"SESSION_PREFIX"`
}

// RedisConfig is used by the redis session backend.
type RedisConfig struct {
	URL string `yaml:"url" envconfig:"REDIS_URL"`
}

// I18nConfig sets the fallback language.
type I18nConfig struct {
	Default string `yaml:"default" envconfig:"I18N_DEFAULT"`
}

// Config is the complete shop bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	API      APIConfig           `yaml:"api"`
	Payments PaymentsConfig      `yaml:"payments"`
	Shop     ShopConfig          `yaml:"shop"`
	Session  SessionConfig       `yaml:"session"`
	Redis    RedisConfig         `yaml:"redis"`
	Database coredatabase.Config `yaml:"database"`
	I18n     I18nConfig          `yaml:"i18n"`

	location *time.Location
}

// Load reads path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// Location is the shop's timezone.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Normalize validates the configuration and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	base, err := url.Parse(strings.TrimSpace(c.API.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute url, got %q", c.API.BaseURL)
	}
	if c.API.PageSize < 0 {
		return fmt.Errorf("api.page_size must be >= 0")
	}
	if c.API.PageSize == 0 {
		c.API.PageSize = defaultPageSize
	}
	if c.API.ChoicesTTL <= 0 {
		c.API.ChoicesTTL = defaultChoicesTTL
	}

	if c.Shop.Timezone == "" {
		c.Shop.Timezone = defaultTimezone
	}
	loc, err := time.LoadLocation(c.Shop.Timezone)
	if err != nil {
		return fmt.Errorf("shop.timezone: %w", err)
	}
	c.location = loc
	if c.Shop.Throttle.AllPictures == 0 {
		c.Shop.Throttle.AllPictures = defaultPicsWindow
	}
	if c.Shop.Throttle.Bookmark == 0 {
		c.Shop.Throttle.Bookmark = defaultMarkWindow
	}
	if c.Shop.JournalLimit <= 0 {
		c.Shop.JournalLimit = defaultJournalLimit
	}
	seen := make(map[string]struct{}, len(c.Shop.Shipping))
	for i, opt := range c.Shop.Shipping {
		if strings.TrimSpace(opt.ID) == "" {
			return fmt.Errorf("shop.shipping[%d]: id is required", i)
		}
		if _, dup := seen[opt.ID]; dup {
			return fmt.Errorf("shop.shipping: duplicate id %q", opt.ID)
		}
		seen[opt.ID] = struct{}{}
		for _, p := range opt.Prices {
			if p.Amount < 0 {
				return fmt.Errorf("shop.shipping %q: negative price %q", opt.ID, p.Label)
			}
		}
	}
	if len(c.Shop.Shipping) > 0 && strings.TrimSpace(c.Payments.ProviderToken) == "" {
		return fmt.Errorf("payments.provider_token is required when shipping options are configured")
	}

	c.Session.Backend = strings.ToLower(strings.TrimSpace(c.Session.Backend))
	switch c.Session.Backend {
	case "":
		c.Session.Backend = SessionMemory
	case SessionMemory:
	case SessionRedis:
		if strings.TrimSpace(c.Redis.URL) == "" {
			return fmt.Errorf("redis.url is required when session.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, redis", c.Session.Backend)
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = defaultSessionTTL
	}
	if c.Session.Prefix == "" {
		c.Session.Prefix = defaultSessionKey
	}

	if c.I18n.Default == "" {
		c.I18n.Default = defaultLanguage
	}
	return nil
}
