// Package metrics exposes prometheus counters for sign-in and provider traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the identity service reports to.
type Recorder interface {
	RecordCreate(origin, outcome string)
	RecordSignIn(origin, outcome string)
	RecordProviderCall(provider string, d time.Duration, err error)
}

// Collector is the prometheus Recorder.
type Collector struct {
	creates       *prometheus.CounterVec
	signIns       *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
	providerTime  *prometheus.HistogramVec
}

// NewCollector registers the identity metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		creates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_create_total",
			Help: "Account creation attempts by origin and outcome.",
		}, []string{"origin", "outcome"}),
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_signin_total",
			Help: "Sign-in attempts by origin and outcome.",
		}, []string{"origin", "outcome"}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_provider_calls_total",
			Help: "Social provider user-info calls by provider and result.",
		}, []string{"provider", "result"}),
		providerTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "identity_provider_latency_seconds",
			Help:    "Social provider user-info latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
	}
	reg.MustRegister(c.creates, c.signIns, c.providerCalls, c.providerTime)
	return c
}

func (c *Collector) RecordCreate(origin, outcome string) {
	c.creates.WithLabelValues(origin, outcome).Inc()
}

func (c *Collector) RecordSignIn(origin, outcome string) {
	c.signIns.WithLabelValues(origin, outcome).Inc()
}

func (c *Collector) RecordProviderCall(provider string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.providerCalls.WithLabelValues(provider, result).Inc()
	c.providerTime.WithLabelValues(provider).Observe(d.Seconds())
}

// Handler serves the gathered metrics for scraping.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordCreate(string, string) {}
func (Nop) RecordSignIn(string, string) {}
func (Nop) RecordProviderCall(string, time.Duration, error) {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
