package service

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/okian/clout/internal/adapters/cache/redis"
	"github.com/okian/clout/internal/adapters/notify"
	"github.com/okian/clout/internal/adapters/postgres"
	"github.com/okian/clout/internal/adapters/repository"
	"github.com/okian/clout/internal/auth"
	"github.com/okian/clout/internal/config"
	"github.com/okian/clout/internal/domain/scoring"
	"github.com/okian/clout/internal/domain/verification"
	"github.com/okian/clout/pkg/logger"
)

// Dependencies bundles the stores and engines built from configuration.
type Dependencies struct {
	Store  repository.Store
	Engine *verification.Engine
	Tokens *auth.Manager
}

// Wire constructs the configured backends and returns them together with a
// cleanup function that releases them in reverse order.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	log := logger.Get().Named("wire")
	clock := clockwork.NewRealClock()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	switch cfg.Store {
	case config.StorePostgres:
		pg, err := postgres.New(ctx, postgres.ClientConfig{DSN: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pg.Close)
		if err := pg.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
		deps.Store = postgres.NewStore(pg, postgres.WithClock(clock))
	default:
		deps.Store = repository.NewMemory(repository.WithClock(clock))
	}
	log.Info(ctx, "store ready", logger.String("store", cfg.Store))

	var tokens auth.TokenStore
	if cfg.RedisAddr != "" {
		rc, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = rc.Close() })
		tokens = redis.NewTokenStore(rc)
		log.Info(ctx, "token store ready", logger.String("backend", "redis"))
	} else {
		tokens = auth.NewMemoryTokenStore(clock)
		log.Warn(ctx, "redis_addr not set; sessions are kept in memory")
	}
	deps.Tokens = auth.NewManager(tokens,
		auth.WithSessionTTL(cfg.SessionTTL),
		auth.WithCSRFTTL(cfg.CSRFTTL),
	)

	engineOpts := []verification.Option{
		verification.WithClock(clock),
		verification.WithEventTimeout(cfg.EventTimeout),
		verification.WithCalculator(scoring.NewCalculator(
			scoring.WithAccuracyWeight(cfg.AccuracyWeight),
			scoring.WithFollowersPerPoint(cfg.FollowersPerPoint),
			scoring.WithSocialCap(cfg.SocialCap),
			scoring.WithPrecision(cfg.ScorePrecision),
		)),
	}
	if cfg.NATSURL != "" {
		ncfg := notify.DefaultConfig()
		ncfg.URL = cfg.NATSURL
		pub, err := notify.NewNATSPublisher(ncfg)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: nats: %w", err)
		}
		closers = append(closers, func() { _ = pub.Close() })
		engineOpts = append(engineOpts, verification.WithPublisher(pub))
		log.Info(ctx, "verified-pick notifications enabled", logger.String("subject", ncfg.Subject))
	}
	deps.Engine = verification.New(deps.Store, deps.Store, deps.Store, engineOpts...)

	return deps, cleanup, nil
}
