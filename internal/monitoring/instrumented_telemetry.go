package monitoring

import (
	"context"
	"errors"
	"time"

	"github.com/dwarvesf/alph-swap-backend/internal/telemetry"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/config"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/logger"
)

const (
	DepositWatchingJob     = "swap_deposit_watching"
	FulfillmentJob         = "swap_fulfillment_processing"
	SwapMetricsRefreshJob  = "swap_metrics_refresh"
	depositWatchingTimeout = 10 * time.Minute
	fulfillmentTimeout     = 15 * time.Minute
	metricsRefreshTimeout  = time.Minute
)

// InstrumentedTelemetry runs the swap worker batches as monitored jobs
type InstrumentedTelemetry struct {
	depositJob     *InstrumentedJob
	fulfillmentJob *InstrumentedJob
	metricsJob     *InstrumentedJob
}

// NewInstrumentedTelemetry registers one job per worker loop with statusManager
func NewInstrumentedTelemetry(
	baseTelemetry telemetry.ITelemetry,
	statusManager *JobStatusManager,
	swapMetrics *SwapMetrics,
	counter SwapStatusCounter,
	logger *logger.Logger,
	config *config.AppConfig,
	pinger UptimePinger,
) *InstrumentedTelemetry {
	return &InstrumentedTelemetry{
		depositJob: NewInstrumentedJobWithWebhook(
			DepositWatchingJob,
			func(ctx context.Context) error {
				return errors.Join(
					baseTelemetry.ConfirmDeposits(ctx),
					baseTelemetry.ExpirePendingDeposits(ctx),
				)
			},
			statusManager,
			logger,
			depositWatchingTimeout,
			pinger,
			config.UptimeWebhooks.WatchDepositsURL,
		),
		fulfillmentJob: NewInstrumentedJobWithWebhook(
			FulfillmentJob,
			func(ctx context.Context) error {
				return errors.Join(
					baseTelemetry.FulfillSwapRequests(ctx),
					baseTelemetry.ConfirmFulfillments(ctx),
				)
			},
			statusManager,
			logger,
			fulfillmentTimeout,
			pinger,
			config.UptimeWebhooks.ProcessFulfillmentsURL,
		),
		metricsJob: NewInstrumentedJob(
			SwapMetricsRefreshJob,
			func(ctx context.Context) error {
				return swapMetrics.Refresh(ctx, counter)
			},
			statusManager,
			logger,
			metricsRefreshTimeout,
		),
	}
}

// WatchDeposits confirms and expires pending deposits
func (it *InstrumentedTelemetry) WatchDeposits() error {
	return it.depositJob.Execute()
}

// ProcessFulfillments sends target tokens and confirms the faucet transactions
func (it *InstrumentedTelemetry) ProcessFulfillments() error {
	return it.fulfillmentJob.Execute()
}

// RefreshSwapMetrics updates the per-status swap request gauges
func (it *InstrumentedTelemetry) RefreshSwapMetrics() error {
	return it.metricsJob.Execute()
}
