package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Class is a rate-limiting category. Each class carries its own window and
// quota.
type Class string

const (
	// ClassSensitiveAuth covers login, registration, and password-reset style
	// endpoints.
	ClassSensitiveAuth Class = "sensitive_auth"
	// ClassGeneralAuth covers authenticated API routes.
	ClassGeneralAuth Class = "general_auth"
	// ClassPublicAPI covers unauthenticated public routes.
	ClassPublicAPI Class = "public_api"
)

// Policy is the window and quota applied to one class.
type Policy struct {
	Window time.Duration
	Limit  int64
}

// DefaultPolicies returns the stock per-class quotas: 10/hour for sensitive
// auth routes, 100/15min for general authenticated routes, 1000/hour for
// public routes.
func DefaultPolicies() map[Class]Policy {
	return map[Class]Policy{
		ClassSensitiveAuth: {Window: time.Hour, Limit: 10},
		ClassGeneralAuth:   {Window: 15 * time.Minute, Limit: 100},
		ClassPublicAPI:     {Window: time.Hour, Limit: 1000},
	}
}

// Result reports the outcome of one admission check. Counter internals stay
// inside the store; callers only see limit, remaining, and reset.
type Result struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// Store is the counter backend. Incr atomically increments the counter for
// key, starting a new window with the given TTL when the key is absent, and
// returns the post-increment count plus the wall-clock time the window ends.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Limiter evaluates requests against per-class policies. Safe for concurrent
// use.
type Limiter struct {
	store      Store
	policies   map[Class]Policy
	rejections *prometheus.CounterVec
}

// Option adjusts Limiter construction.
type Option func(*Limiter)

// WithRegisterer registers a rejection counter (labelled by class) with the
// given Prometheus registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(l *Limiter) {
		l.rejections = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authgate",
			Subsystem: "ratelimit",
			Name:      "rejections_total",
			Help:      "Requests rejected by the rate limiter, by route class.",
		}, []string{"class"})
		reg.MustRegister(l.rejections)
	}
}

// New builds a Limiter. The store is required: there is no implicit
// in-process fallback, so a deployment must state whether counting is shared
// or single-instance. Nil policies default to [DefaultPolicies].
func New(store Store, policies map[Class]Policy, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, errors.New("counter store required: pass NewRedisStore or NewMemoryStore explicitly")
	}
	if policies == nil {
		policies = DefaultPolicies()
	}
	for class, p := range policies {
		if p.Window <= 0 || p.Limit <= 0 {
			return nil, fmt.Errorf("invalid policy for class %q", class)
		}
	}

	l := &Limiter{store: store, policies: policies}
	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Policy returns the policy for a class.
func (l *Limiter) Policy(class Class) (Policy, bool) {
	p, ok := l.policies[class]
	return p, ok
}

// Allow counts one request for (class, clientKey) and reports whether it is
// within quota. A store failure is returned as an error; the caller decides
// whether to fail open or closed.
func (l *Limiter) Allow(ctx context.Context, class Class, clientKey string) (Result, error) {
	policy, ok := l.policies[class]
	if !ok {
		return Result{}, fmt.Errorf("no policy for class %q", class)
	}

	count, resetAt, err := l.store.Incr(ctx, counterKey(class, clientKey), policy.Window)
	if err != nil {
		return Result{}, err
	}

	remaining := policy.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		Allowed:   count <= policy.Limit,
		Limit:     policy.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !res.Allowed && l.rejections != nil {
		l.rejections.WithLabelValues(string(class)).Inc()
	}

	return res, nil
}

func counterKey(class Class, clientKey string) string {
	return "rl:" + string(class) + ":" + clientKey
}
