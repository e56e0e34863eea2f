package netmatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbPostgres "github.com/kailas-cloud/netmatch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/netmatch/internal/db/redis"
	"github.com/kailas-cloud/netmatch/internal/domain"
	directoryrepo "github.com/kailas-cloud/netmatch/internal/repository/directory"
	explanationrepo "github.com/kailas-cloud/netmatch/internal/repository/explanation"
	completionuc "github.com/kailas-cloud/netmatch/internal/usecase/completion"
	healthuc "github.com/kailas-cloud/netmatch/internal/usecase/health"
	interpretuc "github.com/kailas-cloud/netmatch/internal/usecase/interpret"
	matchuc "github.com/kailas-cloud/netmatch/internal/usecase/match"
	searchuc "github.com/kailas-cloud/netmatch/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Call parameters shared with the server defaults.
var (
	extractionCall  = interpretuc.Config{Temperature: 0.1, MaxTokens: 300}
	explanationCall = matchuc.Config{Temperature: 0.7, MaxTokens: 800}
)

// Internal interfaces, swapped for fakes in tests.
type searchUseCase interface {
	Search(ctx context.Context, query, requestingUserID string) searchuc.Response
}

type matchUseCase interface {
	Explain(ctx context.Context, userID, targetID string) (matchuc.Result, error)
	Regenerate(ctx context.Context, userID, targetID string) (matchuc.Result, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the netmatch SDK entry point.
type Client struct {
	pg        *dbPostgres.Client
	store     *dbRedis.Store
	searchSvc searchUseCase
	matchSvc  matchUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to Postgres and Redis.
// The provided context is used for the initial readiness checks.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	pg, err := dbPostgres.NewClient(dbPostgres.Config{DSN: cfg.dsn})
	if err != nil {
		return nil, fmt.Errorf("netmatch: create postgres client: %w", err)
	}
	if err := pg.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		pg.Close()
		return nil, fmt.Errorf("netmatch: database not ready: %w", err)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.redisAddrs,
		Password: cfg.redisPassword,
	})
	if err != nil {
		pg.Close()
		return nil, fmt.Errorf("netmatch: create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		pg.Close()
		return nil, fmt.Errorf("netmatch: cache not ready: %w", err)
	}

	return wireClient(pg, store, cfg, obs), nil
}

func (c *clientConfig) validate() error {
	if c.dsn == "" {
		return errors.New("netmatch: database dsn required (use WithPostgres)")
	}
	if len(c.redisAddrs) == 0 {
		return errors.New("netmatch: cache address required (use WithRedis)")
	}
	if c.resultLimit <= 0 {
		return fmt.Errorf("netmatch: result limit must be positive, got %d", c.resultLimit)
	}
	return nil
}

func wireClient(pg *dbPostgres.Client, store *dbRedis.Store, cfg *clientConfig, obs *observer) *Client {
	// Internal services log through zap, bridged to the caller's slog logger.
	log := serviceLogger(cfg.logger)

	var base domain.Completer = noopCompleter{}
	var checker healthuc.CompletionChecker
	if cfg.completer != nil {
		base = &completerAdapter{inner: cfg.completer}
		if hc, ok := cfg.completer.(HealthChecker); ok {
			checker = hc
		}
	}
	completer := completionuc.NewGuarded(base, cfg.provider, cfg.completionTimeout, nil, log)

	directory := directoryrepo.New(pg.DB(), cfg.resultLimit)
	explanations := explanationrepo.New(store, cfg.keyPrefix)

	interpreter := interpretuc.New(completer, extractionCall, log)

	return &Client{
		pg:        pg,
		store:     store,
		searchSvc: searchuc.New(interpreter, directory, cfg.resultLimit, log),
		matchSvc:  matchuc.New(directory, explanations, completer, explanationCall, log),
		healthSvc: healthuc.New(pg, store, checker),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
	if c.pg != nil {
		c.pg.Close()
	}
}
