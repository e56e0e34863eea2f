package netmatch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	dsn string

	redisAddrs    []string
	redisPassword string
	keyPrefix     string

	completer         Completer
	provider          string
	completionTimeout time.Duration

	resultLimit int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		keyPrefix:         "netmatch:",
		provider:          "custom",
		completionTimeout: 15 * time.Second,
		resultLimit:       50,
	}
}

// WithPostgres sets the profile directory connection string.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dsn = dsn
	})
}

// WithRedis configures the explanation store.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithKeyPrefix sets the prefix of explanation keys. Default: "netmatch:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithCompleter sets the text completion provider.
// Without one every search takes the keyword path and explanations are unavailable.
func WithCompleter(comp Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = comp
	})
}

// WithProviderName labels completion metrics and logs. Default: "custom".
func WithProviderName(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = name
	})
}

// WithCompletionTimeout bounds each completion call. Default: 15s.
func WithCompletionTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.completionTimeout = d
	})
}

// WithResultLimit caps the number of structured search results. Default: 50.
// Fallback results are not capped.
func WithResultLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.resultLimit = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
