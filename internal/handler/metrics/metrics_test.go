package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/alph-swap-backend/internal/model"
	"github.com/dwarvesf/alph-swap-backend/internal/monitoring"
)

type staticCounter map[model.SwapRequestStatus]int64

func (c staticCounter) CountByStatus(context.Context) (map[model.SwapRequestStatus]int64, error) {
	return c, nil
}

func scrape(t *testing.T, gatherer prometheus.Gatherer) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/metrics", NewMetricsHandler(gatherer).Handler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMetricsHandler_SwapMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	swapMetrics := monitoring.NewSwapMetrics()
	swapMetrics.MustRegister(registry)
	require.NoError(t, swapMetrics.Refresh(context.Background(), staticCounter{
		model.SwapRequestStatusPendingDeposit: 3,
		model.SwapRequestStatusCompleted:      1,
	}))

	w := scrape(t, registry)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "# TYPE alph_swap_requests gauge")
	assert.Contains(t, body, `alph_swap_requests{status="PENDING_DEPOSIT"} 3`)
	assert.Contains(t, body, `alph_swap_requests{status="COMPLETED"} 1`)
	assert.Contains(t, body, `alph_swap_requests{status="FAILED"} 0`)
}

func TestMetricsHandler_HTTPAndJobMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	httpMetrics := monitoring.NewHTTPMetrics()
	httpMetrics.MustRegister(registry)
	jobMetrics := monitoring.NewBackgroundJobMetrics()
	jobMetrics.MustRegister(registry)

	monitoring.NewBusinessMetricsRecorder(httpMetrics).RecordSwapRequest("initiate", "success", 0.01)

	w := scrape(t, registry)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "initiate")
}

func TestMetricsHandler_EmptyRegistry(t *testing.T) {
	w := scrape(t, prometheus.NewRegistry())

	assert.Equal(t, http.StatusOK, w.Code)
	contentType := w.Header().Get("Content-Type")
	assert.True(t,
		strings.Contains(contentType, "text/plain") ||
			strings.Contains(contentType, "application/openmetrics-text"),
		"Expected Prometheus metrics content type, got: %s", contentType)
}

func TestMetricsHandler_FailingCollectorDoesNotHideOthers(t *testing.T) {
	registry := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "alph_swap_up", Help: "Always one"})
	gauge.Set(1)
	registry.MustRegister(gauge)

	gatherers := prometheus.Gatherers{registry, prometheus.GathererFunc(func() ([]*dto.MetricFamily, error) {
		return nil, assert.AnError
	})}

	w := scrape(t, gatherers)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alph_swap_up 1")
}
