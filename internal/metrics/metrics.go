package metrics

import (
	"net/http"
	"strconv"
	"time"

	"classroom-game-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "classroom"

// Metrics holds the Prometheus collectors of the game service. It satisfies app.Metrics.
type Metrics struct {
	registry *prometheus.Registry

	RoomsActive     prometheus.Gauge
	RoomsOpened     *prometheus.CounterVec
	RoomsClosed     *prometheus.CounterVec
	Answers         *prometheus.CounterVec
	Rejections      *prometheus.CounterVec
	DiceRolls       prometheus.Counter
	Connections     prometheus.Gauge
	RequestDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RoomsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Number of live rooms",
		}),
		RoomsOpened: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_opened_total",
			Help:      "Rooms created, by mode",
		}, []string{"mode"}),
		RoomsClosed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_closed_total",
			Help:      "Rooms torn down, by reason",
		}, []string{"reason"}),
		Answers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Scored answers, by outcome",
		}, []string{"correct"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_rejected_total",
			Help:      "Rejected client actions, by reason code",
		}, []string{"reason"}),
		DiceRolls: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dice_rolls_total",
			Help:      "Server-side dice rolls",
		}),
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections",
			Help:      "Open websocket connections",
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) RoomOpened(mode domain.Mode) {
	m.RoomsActive.Inc()
	m.RoomsOpened.WithLabelValues(string(mode)).Inc()
}

func (m *Metrics) RoomClosed(reason string) {
	m.RoomsActive.Dec()
	m.RoomsClosed.WithLabelValues(reason).Inc()
}

func (m *Metrics) AnswerScored(correct bool) {
	m.Answers.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) ActionRejected(reason string) {
	m.Rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) DiceRolled() {
	m.DiceRolls.Inc()
}

func (m *Metrics) ConnectionOpened() {
	m.Connections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	m.Connections.Dec()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one HTTP request against its route template.
func (m *Metrics) ObserveRequest(route string, status int, started time.Time) {
	m.RequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(time.Since(started).Seconds())
}
