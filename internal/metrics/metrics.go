package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counters is the read side of the statistics tracker exported as gauges.
type Counters interface {
	Total() uint64
	Today() uint64
}

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	predictions       *prometheus.CounterVec
	predictionErrors  prometheus.Counter
	inferenceDuration prometheus.Histogram
	modelLoaded       prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tumor_http_requests_total",
				Help: "Total number of HTTP requests",
			}, []string{"route", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tumor_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			}, []string{"route"},
		),
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tumor_predictions_total",
				Help: "Successful predictions by class and inference mode",
			}, []string{"class", "mode"},
		),
		predictionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tumor_prediction_errors_total",
			Help: "Predictions that failed during preprocessing or inference",
		}),
		inferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tumor_inference_duration_seconds",
			Help:    "Time spent preprocessing and running the classifier",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		modelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tumor_model_loaded",
			Help: "Model loaded (0=placeholder predictions, 1=model)",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.predictions,
		m.predictionErrors,
		m.inferenceDuration,
		m.modelLoaded,
	)
	return m
}

// RegisterCounters exports the tracker's totals as gauge funcs.
func (m *Metrics) RegisterCounters(c Counters) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "tumor_tracker_predictions_total",
			Help: "Predictions recorded since process start",
		},
		func() float64 { return float64(c.Total()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "tumor_tracker_predictions_today",
			Help: "Predictions recorded on the current calendar day",
		},
		func() float64 { return float64(c.Today()) },
	))
}

func (m *Metrics) SetModelLoaded(loaded bool) {
	if loaded {
		m.modelLoaded.Set(1)
		return
	}
	m.modelLoaded.Set(0)
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObservePrediction records a successful prediction.
func (m *Metrics) ObservePrediction(class, mode string, d time.Duration) {
	m.predictions.WithLabelValues(class, mode).Inc()
	m.inferenceDuration.Observe(d.Seconds())
}

func (m *Metrics) ObservePredictionError() {
	m.predictionErrors.Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
