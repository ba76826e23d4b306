// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlinePlayers    prometheus.Gauge
	OpenRooms        prometheus.Gauge
	RunningMatches   prometheus.Gauge
	GoalsScored      prometheus.Counter
	MessagesReceived prometheus.Counter
	TickDuration     prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of connected sessions",
		}),
		OpenRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_rooms",
			Help:      "Number of open rooms",
		}),
		RunningMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "running_matches",
			Help:      "Number of matches currently being simulated",
		}),
		GoalsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "goals_scored_total",
			Help:      "Total goals across all matches",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of messages received",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Simulation tick duration",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 12),
		}),
	}

	prometheus.MustRegister(
		m.OnlinePlayers,
		m.OpenRooms,
		m.RunningMatches,
		m.GoalsScored,
		m.MessagesReceived,
		m.TickDuration,
	)

	return m
}

type Monitor struct {
	metrics   *Metrics
	startTime time.Time
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())

	// 添加expvar指标
	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	go http.ListenAndServe(addr, nil)
}

func (m *Monitor) IncOnlinePlayers() {
	m.metrics.OnlinePlayers.Inc()
}

func (m *Monitor) DecOnlinePlayers() {
	m.metrics.OnlinePlayers.Dec()
}

func (m *Monitor) SetOpenRooms(count int) {
	m.metrics.OpenRooms.Set(float64(count))
}

func (m *Monitor) IncMessagesReceived() {
	m.metrics.MessagesReceived.Inc()
}

// --- room.Metrics 接口 ---

func (m *Monitor) MatchStarted() {
	m.metrics.RunningMatches.Inc()
}

func (m *Monitor) MatchEnded() {
	m.metrics.RunningMatches.Dec()
}

func (m *Monitor) GoalScored() {
	m.metrics.GoalsScored.Inc()
}

func (m *Monitor) ObserveTick(d time.Duration) {
	m.metrics.TickDuration.Observe(d.Seconds())
}
