package authgate

import (
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/casterhq/authgate/password"
	"github.com/casterhq/authgate/token"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens until the engine's methods are called.
type Builder struct {
	config   Config
	accounts AccountStore
	redis    redis.UniversalClient
	logger   *slog.Logger
	reg      prometheus.Registerer

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithAccountStore sets the persistence-layer integration. Required.
func (b *Builder) WithAccountStore(store AccountStore) *Builder {
	b.accounts = store
	return b
}

// WithRedis sets the shared store backing the password-reset flow. Required
// when [PasswordResetConfig.Enabled] is true.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the structured logger for server-side detail on internal
// failures. Defaults to slog.Default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetrics registers engine counters with the given Prometheus
// registerer. Without it the engine runs uninstrumented.
func (b *Builder) WithMetrics(reg prometheus.Registerer) *Builder {
	b.reg = reg
	return b
}

// Build validates the configuration and returns a ready Engine. A Builder is
// single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.accounts == nil {
		return nil, errors.New("account store required")
	}
	if cfg.PasswordReset.Enabled && b.redis == nil {
		return nil, errors.New("password reset requires a redis client")
	}

	access, err := token.NewCodec(cfg.JWT.AccessSecret, cfg.JWT.AccessTTL, token.WithIssuer(cfg.JWT.Issuer))
	if err != nil {
		return nil, err
	}
	refresh, err := token.NewCodec(cfg.JWT.RefreshSecret, cfg.JWT.RefreshTTL, token.WithIssuer(cfg.JWT.Issuer))
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(cfg.Password)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:   cfg,
		access:   access,
		refresh:  refresh,
		accounts: b.accounts,
		hasher:   hasher,
		logger:   b.logger,
	}
	if engine.logger == nil {
		engine.logger = slog.Default()
	}
	if cfg.PasswordReset.Enabled {
		engine.resets = newResetStore(b.redis)
	}
	if b.reg != nil {
		engine.metrics = NewMetrics(b.reg)
	}

	return engine, nil
}
