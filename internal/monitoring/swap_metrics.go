package monitoring

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dwarvesf/alph-swap-backend/internal/model"
)

// SwapStatusCounter is implemented by the swap request store.
type SwapStatusCounter interface {
	CountByStatus(ctx context.Context) (map[model.SwapRequestStatus]int64, error)
}

// SwapMetrics exposes the number of swap requests in each lifecycle status.
type SwapMetrics struct {
	requestsByStatus *prometheus.GaugeVec
}

func NewSwapMetrics() *SwapMetrics {
	return &SwapMetrics{
		requestsByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "alph_swap_requests",
				Help: "Number of swap requests by status",
			},
			[]string{"status"},
		),
	}
}

func (m *SwapMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(m.requestsByStatus)
}

// Refresh reloads the gauges from the store. Statuses without records are set
// to zero so stale values do not linger.
func (m *SwapMetrics) Refresh(ctx context.Context, counter SwapStatusCounter) error {
	counts, err := counter.CountByStatus(ctx)
	if err != nil {
		return err
	}
	for _, status := range model.AllSwapRequestStatuses() {
		m.requestsByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
	return nil
}
