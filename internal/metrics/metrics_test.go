package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCounters struct{ total, today uint64 }

func (s staticCounters) Total() uint64 { return s.total }
func (s staticCounters) Today() uint64 { return s.today }

func TestObservePrediction(t *testing.T) {
	m := New()
	m.ObservePrediction("glioma", "model", 20*time.Millisecond)
	m.ObservePrediction("glioma", "model", 30*time.Millisecond)
	m.ObservePrediction("notumor", "placeholder", time.Millisecond)
	m.ObservePredictionError()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.predictions.WithLabelValues("glioma", "model")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues("notumor", "placeholder")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictionErrors))
}

func TestModelLoadedGauge(t *testing.T) {
	m := New()
	m.SetModelLoaded(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelLoaded))
	m.SetModelLoaded(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.modelLoaded))
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.RegisterCounters(staticCounters{total: 12, today: 3})
	m.ObserveRequest("/predict", http.MethodPost, http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tumor_tracker_predictions_total 12")
	assert.Contains(t, string(body), "tumor_tracker_predictions_today 3")
	assert.Contains(t, string(body), `tumor_http_requests_total{method="POST",route="/predict",status="200"} 1`)
}

func TestRegistryGathersSeries(t *testing.T) {
	m := New()
	m.RegisterCounters(staticCounters{total: 1, today: 1})
	m.ObservePrediction("glioma", "model", time.Millisecond)
	m.ObservePrediction("pituitary", "model", time.Millisecond)
	m.ObservePrediction("glioma", "model", time.Millisecond)

	n, err := testutil.GatherAndCount(m.Registry(), "tumor_predictions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = testutil.GatherAndCount(m.Registry(), "tumor_tracker_predictions_total", "tumor_tracker_predictions_today")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
