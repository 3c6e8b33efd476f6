package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jask/ideacrowd/internal/config"
	"github.com/jask/ideacrowd/internal/database"
	"github.com/jask/ideacrowd/internal/database/repository"
	"github.com/jask/ideacrowd/internal/identity/local"
	"github.com/jask/ideacrowd/internal/identity/memory"
	"github.com/jask/ideacrowd/internal/identity/redis"
	"github.com/jask/ideacrowd/internal/identity/token"
	"github.com/jask/ideacrowd/internal/secrets"
	"github.com/jask/ideacrowd/internal/session"
	"github.com/jask/ideacrowd/internal/tui/views"
)

// identityProvider is what the shell needs from a provider: the session
// contract plus a way to start sessions.
type identityProvider interface {
	session.Provider
	views.Authenticator
}

type openedProvider struct {
	name     string
	provider session.Provider
	auth     views.Authenticator
	closers  []func()
}

func (o *openedProvider) close() {
	for i := len(o.closers) - 1; i >= 0; i-- {
		o.closers[i]()
	}
}

func (o *openedProvider) use(name string, p identityProvider) {
	o.name = name
	o.provider = p
	o.auth = p
}

// openProvider builds the configured identity provider.
func openProvider(ctx context.Context, cfg *config.Config, demo bool, log zerolog.Logger) (*openedProvider, error) {
	o := &openedProvider{}
	if demo {
		p := memory.New().WithTTL(cfg.Identity.SessionTTL)
		o.closers = append(o.closers, func() { _ = p.Close() })
		o.use("demo", p)
		return o, nil
	}

	db, err := openDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	o.closers = append(o.closers, func() { _ = db.Close() })
	accountsCfg := local.AccountsConfig{AttemptsPerMinute: cfg.Identity.SignInRate}

	switch cfg.Identity.Provider {
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		o.closers = append(o.closers, func() { _ = rdb.Close() })
		creds := local.NewAccounts(repository.NewUserRepo(db), accountsCfg)
		p, err := redis.New(ctx, rdb, creds, redis.Config{
			Key:     cfg.Redis.Key,
			Channel: cfg.Redis.Channel,
			TTL:     cfg.Identity.SessionTTL,
			Logger:  log.With().Str("component", "redis").Logger(),
		})
		if err != nil {
			o.close()
			return nil, err
		}
		o.closers = append(o.closers, func() { _ = p.Close() })
		o.use("redis "+cfg.Redis.Addr, p)
	default:
		secret, err := ensureSecret(cfg)
		if err != nil {
			o.close()
			return nil, err
		}
		tokens, err := token.NewManager(token.Config{Secret: secret, TTL: cfg.Identity.SessionTTL})
		if err != nil {
			o.close()
			return nil, err
		}
		p := local.New(db, tokens, local.Config{
			Accounts: accountsCfg,
			Logger:   log.With().Str("component", "local").Logger(),
		})
		if err := p.Restore(ctx); err != nil {
			log.Warn().Err(err).Msg("could not restore the last session")
		}
		o.closers = append(o.closers, p.Close)
		o.use("local", p)
	}
	return o, nil
}

func openDatabase(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// ensureSecret returns the token signing secret. A secret set in the
// config wins; otherwise one is generated on first run and kept in the
// secrets file next to the config.
func ensureSecret(cfg *config.Config) ([]byte, error) {
	if cfg.Identity.TokenSecret != "" {
		return []byte(cfg.Identity.TokenSecret), nil
	}
	v, err := secrets.Open(filepath.Dir(config.Path())).Ensure("token_secret", 32)
	if err != nil {
		return nil, fmt.Errorf("token secret: %w", err)
	}
	return []byte(v), nil
}
