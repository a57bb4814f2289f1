package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "santa3d"

// Metrics holds the Prometheus collectors of the contest server. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry             *prometheus.Registry
	requestCounter       *prometheus.CounterVec
	requestDuration      *prometheus.HistogramVec
	evaluationsSubmitted prometheus.Counter
	likeSyncs            *prometheus.CounterVec
	videosAutoValidated  prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		evaluationsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_submitted_total",
			Help:      "Evaluations created or resubmitted by judges",
		}),
		likeSyncs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "instagram_syncs_total",
				Help:      "Instagram like synchronisation runs by outcome",
			},
			[]string{"status"},
		),
		videosAutoValidated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "videos_auto_validated_total",
			Help:      "Videos validated because a tagged Instagram post was found",
		}),
	}
}

func (m *Metrics) EvaluationSubmitted() {
	if m == nil {
		return
	}
	m.evaluationsSubmitted.Inc()
}

func (m *Metrics) LikeSync(status string) {
	if m == nil {
		return
	}
	m.likeSyncs.WithLabelValues(status).Inc()
}

func (m *Metrics) VideosAutoValidated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.videosAutoValidated.Add(float64(n))
}

// Middleware records request count and latency labelled by the matched route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		m.requestCounter.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
