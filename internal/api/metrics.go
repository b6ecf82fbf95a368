package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records request activity. A nil *Metrics records nothing.
type Metrics struct {
	requests         *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	rateLimitRetries prometheus.Counter
	redirects        prometheus.Counter
}

// NewMetrics creates the client metrics and registers them with reg.
// Collectors already registered by another client are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bigcommerce",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP exchanges by method and status code.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bigcommerce",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP exchanges.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		rateLimitRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bigcommerce",
			Subsystem: "http",
			Name:      "rate_limit_retries_total",
			Help:      "Requests replayed after an X-Retry-After response.",
		}),
		redirects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bigcommerce",
			Subsystem: "http",
			Name:      "redirects_total",
			Help:      "Redirects followed.",
		}),
	}

	var err error
	if m.requests, err = register(reg, m.requests); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.rateLimitRetries, err = register(reg, m.rateLimitRetries); err != nil {
		return nil, err
	}
	if m.redirects, err = register(reg, m.redirects); err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// observe records one exchange. A code of 0 marks a network failure.
func (m *Metrics) observe(method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.requests.WithLabelValues(method, label).Inc()
	m.duration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) rateLimitRetry() {
	if m == nil {
		return
	}
	m.rateLimitRetries.Inc()
}

func (m *Metrics) redirect() {
	if m == nil {
		return
	}
	m.redirects.Inc()
}
