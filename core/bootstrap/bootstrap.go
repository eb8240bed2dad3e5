package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	coreconfig "github.com/m3rciful/shoebot/core/config"
	coredatabase "github.com/m3rciful/shoebot/core/database"
	"github.com/m3rciful/shoebot/core/logger"
	"github.com/m3rciful/shoebot/core/telegram/state"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config *coreconfig.Config
	// Database is skipped when Host is empty.
	Database coredatabase.Config
	// RedisURL is skipped when empty.
	RedisURL string

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
	DialRedis  func(ctx context.Context, url string) (*redis.Client, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// Fields are nil for skipped backends.
type Result struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

// Close releases the opened backends.
func (r *Result) Close() error {
	var firstErr error
	if r.Redis != nil {
		firstErr = r.Redis.Close()
	}
	if r.DB != nil {
		if err := r.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Run initializes the logger, connects to the configured backends, and
// applies database migrations.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{}
	if opts.Database.Enabled() {
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(opts.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}

		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(opts.Database); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
		res.DB = db
	}

	if strings.TrimSpace(opts.RedisURL) != "" {
		dial := opts.DialRedis
		if dial == nil {
			dial = state.DialRedis
		}
		client, err := dial(context.Background(), opts.RedisURL)
		if err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: redis initialization failed: %w", err)
		}
		res.Redis = client
	}

	return res, nil
}
