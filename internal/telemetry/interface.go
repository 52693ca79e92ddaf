package telemetry

import "context"

// ITelemetry is the background side of the swap flow. Every method processes
// one batch and is safe to run from several instances at once.
type ITelemetry interface {
	// ConfirmDeposits checks the deposit tx of PENDING_DEPOSIT requests
	ConfirmDeposits(ctx context.Context) error
	// ExpirePendingDeposits fails PENDING_DEPOSIT requests past the deposit timeout
	ExpirePendingDeposits(ctx context.Context) error
	// FulfillSwapRequests sends target tokens for DEPOSIT_CONFIRMED requests
	FulfillSwapRequests(ctx context.Context) error
	// ConfirmFulfillments completes FULFILLING requests once the faucet tx confirms
	ConfirmFulfillments(ctx context.Context) error
}

// MetricsRecorder is the part of the business metrics the worker reports to.
type MetricsRecorder interface {
	RecordSwapOperation(operationType, status string, duration float64)
	RecordCacheOperation(cacheType, operation string)
}

type nopMetrics struct{}

func (nopMetrics) RecordSwapOperation(string, string, float64) {}
func (nopMetrics) RecordCacheOperation(string, string) {}
