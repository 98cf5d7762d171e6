// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlinePlayers  prometheus.Gauge
	ActiveRooms    prometheus.Gauge
	EventsReceived prometheus.Counter
	RoomsReaped    prometheus.Counter
	GamesStarted   *prometheus.CounterVec
	EventLatency   prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics builds the collector set on a private registry, so every
// Metrics value is independently registerable.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of connected clients",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of live rooms",
		}),
		EventsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Total number of client events received",
		}),
		RoomsReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_reaped_total",
			Help:      "Total number of rooms closed by the TTL sweep",
		}),
		GamesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Total number of games dealt, by variant",
		}, []string{"variant"}),
		EventLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_latency_seconds",
			Help:      "Client event handling latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}

	m.registry.MustRegister(
		m.OnlinePlayers,
		m.ActiveRooms,
		m.EventsReceived,
		m.RoomsReaped,
		m.GamesStarted,
		m.EventLatency,
	)

	return m
}

type Monitor struct {
	metrics    *Metrics
	startTime  time.Time
	eventCount int64
	mutex      sync.Mutex
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("events", expvar.Func(func() interface{} {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.eventCount
	}))

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/debug/vars", expvar.Handler())

	go http.ListenAndServe(addr, mux)
}

// Handler serves this monitor's metrics in Prometheus exposition format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.metrics.registry, promhttp.HandlerOpts{})
}

func (m *Monitor) IncOnlinePlayers() {
	m.metrics.OnlinePlayers.Inc()
}

func (m *Monitor) DecOnlinePlayers() {
	m.metrics.OnlinePlayers.Dec()
}

func (m *Monitor) SetActiveRooms(count int) {
	m.metrics.ActiveRooms.Set(float64(count))
}

func (m *Monitor) IncEventsReceived() {
	m.metrics.EventsReceived.Inc()
	m.mutex.Lock()
	m.eventCount++
	m.mutex.Unlock()
}

func (m *Monitor) IncRoomsReaped() {
	m.metrics.RoomsReaped.Inc()
}

func (m *Monitor) IncGamesStarted(variant string) {
	m.metrics.GamesStarted.WithLabelValues(variant).Inc()
}

func (m *Monitor) ObserveEventLatency(duration time.Duration) {
	m.metrics.EventLatency.Observe(duration.Seconds())
}
