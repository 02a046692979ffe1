package monitoring

import (
	"time"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements the observer hooks of the session store,
// the presence simulator, the board renderer and the websocket hub.
type PrometheusCollector struct {
	actionsTotal     *prometheus.CounterVec
	actionDuration   *prometheus.HistogramVec
	simulatedStrokes *prometheus.CounterVec
	renderDuration   *prometheus.HistogramVec

	strokes     prometheus.Gauge
	activeUsers prometheus.Gauge
	layerLocked prometheus.Gauge

	wsClients  prometheus.Gauge
	wsMessages *prometheus.CounterVec
}

// NewPrometheusCollector registers the metrics with reg. Pass
// prometheus.DefaultRegisterer in production.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)
	return &PrometheusCollector{
		actionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "drawboard_actions_total",
			Help: "Session actions dispatched, by type and result",
		}, []string{"type", "result"}),

		actionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "drawboard_action_duration_seconds",
			Help:    "Time spent reducing and fanning out an action",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		}, []string{"type"}),

		simulatedStrokes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "drawboard_simulated_strokes_total",
			Help: "Strokes drawn by simulated collaborators",
		}, []string{"user_id"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "drawboard_render_duration_seconds",
			Help:    "Duration of canvas replays",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"format"}),

		strokes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "drawboard_strokes",
			Help: "Strokes currently on the canvas",
		}),

		activeUsers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "drawboard_active_users",
			Help: "Users currently marked active",
		}),

		layerLocked: factory.NewGauge(prometheus.GaugeOpts{
			Name: "drawboard_layer_locked",
			Help: "1 while the drawing layer is locked",
		}),

		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "drawboard_websocket_clients",
			Help: "Connected websocket clients",
		}),

		wsMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "drawboard_websocket_messages_total",
			Help: "Websocket messages, by direction",
		}, []string{"direction"}),
	}
}

func (p *PrometheusCollector) ObserveDispatch(t session.ActionType, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	p.actionsTotal.WithLabelValues(string(t), result).Inc()
	p.actionDuration.WithLabelValues(string(t)).Observe(d.Seconds())
}

func (p *PrometheusCollector) ObserveSimulatedStroke(userID domain.UserID) {
	p.simulatedStrokes.WithLabelValues(string(userID)).Inc()
}

func (p *PrometheusCollector) ObserveRender(format string, d time.Duration) {
	p.renderDuration.WithLabelValues(format).Observe(d.Seconds())
}

// ObserveEvent is a session.Listener that tracks the board gauges.
func (p *PrometheusCollector) ObserveEvent(ev session.Event) {
	p.strokes.Set(float64(ev.Status.Strokes))
	p.activeUsers.Set(float64(ev.Status.ActiveUsers))
	if ev.Status.IsLayerLocked {
		p.layerLocked.Set(1)
	} else {
		p.layerLocked.Set(0)
	}
}

func (p *PrometheusCollector) ClientConnected() {
	p.wsClients.Inc()
}

func (p *PrometheusCollector) ClientDisconnected() {
	p.wsClients.Dec()
}

func (p *PrometheusCollector) MessageReceived() {
	p.wsMessages.WithLabelValues("in").Inc()
}

func (p *PrometheusCollector) MessageSent() {
	p.wsMessages.WithLabelValues("out").Inc()
}
