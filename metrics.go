package authgate

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the engine's Prometheus counters. A nil *Metrics disables
// instrumentation entirely.
type Metrics struct {
	logins          *prometheus.CounterVec
	authenticates   *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	resetsRequested prometheus.Counter
	resetsConfirmed prometheus.Counter
}

// NewMetrics builds and registers the engine counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		authenticates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "authenticate_total",
			Help:      "Access-token authentications by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "refreshes_total",
			Help:      "Refresh-token exchanges by outcome.",
		}, []string{"outcome"}),
		resetsRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "password_resets_requested_total",
			Help:      "Password reset tokens issued.",
		}),
		resetsConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "password_resets_confirmed_total",
			Help:      "Password resets completed.",
		}),
	}

	reg.MustRegister(m.logins, m.authenticates, m.refreshes, m.resetsRequested, m.resetsConfirmed)

	return m
}

func (m *Metrics) observe(vec *prometheus.CounterVec, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	vec.WithLabelValues(outcome).Inc()
}

func (m *Metrics) loginObserved(err error) {
	if m != nil {
		m.observe(m.logins, err)
	}
}

func (m *Metrics) authenticateObserved(err error) {
	if m != nil {
		m.observe(m.authenticates, err)
	}
}

func (m *Metrics) refreshObserved(err error) {
	if m != nil {
		m.observe(m.refreshes, err)
	}
}

func (m *Metrics) resetRequested() {
	if m != nil {
		m.resetsRequested.Inc()
	}
}

func (m *Metrics) resetConfirmed() {
	if m != nil {
		m.resetsConfirmed.Inc()
	}
}
