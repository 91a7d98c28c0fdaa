// Package metrics Prometheus метрики попыток синхронизации.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shiwa/ntpsync/internal/engine"
	"github.com/shiwa/ntpsync/internal/scheduler"
)

const namespace = "ntpsync"

// Collection метрики одного экземпляра сервиса.
type Collection struct {
	gatherer prometheus.Gatherer

	Attempts      *prometheus.CounterVec
	LastOffset    prometheus.Gauge
	LastSuccess   prometheus.Gauge
	QueryDuration prometheus.Histogram
	PollInterval  prometheus.Gauge
}

// New регистрирует метрики в собственном реестре, чтобы несколько
// экземпляров (и тесты) не конфликтовали в глобальном.
func New() *Collection {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collection{
		gatherer: reg,
		Attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Synchronization attempts by trigger and result.",
		}, []string{"trigger", "result", "failure"}),
		LastOffset: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_offset_seconds",
			Help:      "Server time minus local time measured by the last successful query.",
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful synchronization.",
		}),
		QueryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of the NTP request/response exchange.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		PollInterval: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poll_interval_seconds",
			Help:      "Configured poll interval.",
		}),
	}
}

// Observe учитывает итог попытки. Подходит как scheduler.Observer.
func (c *Collection) Observe(trigger scheduler.Trigger, out engine.Outcome) {
	c.Attempts.WithLabelValues(string(trigger), out.Result(), out.Failure.String()).Inc()
	if out.Stage == engine.StageIdle {
		return
	}
	c.QueryDuration.Observe(out.QueryDuration.Seconds())
	if out.Received.IsZero() {
		return
	}
	c.LastOffset.Set(out.Offset.Seconds())
	if out.Succeeded() {
		c.LastSuccess.Set(float64(out.Applied.UnixNano()) / 1e9)
	}
}

// Handler отдаёт метрики в текстовом формате Prometheus.
func (c *Collection) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Gatherer реестр метрик.
func (c *Collection) Gatherer() prometheus.Gatherer {
	return c.gatherer
}
