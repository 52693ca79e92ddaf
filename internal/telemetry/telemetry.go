package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/dwarvesf/alph-swap-backend/internal/alphrpc"
	"github.com/dwarvesf/alph-swap-backend/internal/controller"
	"github.com/dwarvesf/alph-swap-backend/internal/model"
	"github.com/dwarvesf/alph-swap-backend/internal/store/swaprequest"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/config"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/logger"
)

const (
	reasonDepositTimeout         = "deposit timeout"
	reasonDepositBelowPromised   = "deposit amount below promised amount"
	reasonDepositFailed          = "deposit transaction failed"
	reasonUnsupportedToken       = "unsupported target token"
	reasonInsufficientBalance    = "insufficient faucet balance"
	reasonTransferRejected       = "transfer rejected by node"
	reasonFulfillmentInterrupted = "fulfillment interrupted, manual review required"
	reasonFulfillmentDropped     = "fulfillment transaction dropped"
)

type Telemetry struct {
	controller controller.IController
	appConfig  *config.AppConfig
	logger     *logger.Logger
	alphRpc    alphrpc.IAlphRPC
	metrics    MetricsRecorder
	balances   *cache.Cache
	workerID   string
	now        func() time.Time
}

type Option func(*Telemetry)

func WithMetrics(m MetricsRecorder) Option {
	return func(t *Telemetry) {
		t.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Telemetry) {
		t.now = now
	}
}

func WithWorkerID(id string) Option {
	return func(t *Telemetry) {
		t.workerID = id
	}
}

func New(ctrl controller.IController, appConfig *config.AppConfig, logger *logger.Logger, alphRpc alphrpc.IAlphRPC, opts ...Option) *Telemetry {
	t := &Telemetry{
		controller: ctrl,
		appConfig:  appConfig,
		logger:     logger,
		alphRpc:    alphRpc,
		metrics:    nopMetrics{},
		balances:   cache.New(appConfig.Swap.BalanceCacheTTL, 2*appConfig.Swap.BalanceCacheTTL),
		workerID:   newWorkerID(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func newWorkerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}

func (t *Telemetry) batch(ctx context.Context, status model.SwapRequestStatus, mutate func(f *swaprequest.ListFilter)) ([]*model.SwapRequest, error) {
	filter := swaprequest.ListFilter{
		Status:      status,
		OldestFirst: true,
		Limit:       t.appConfig.Swap.JobBatchSize,
	}
	if mutate != nil {
		mutate(&filter)
	}
	records, _, err := t.controller.ListSwapRequests(ctx, filter)
	return records, err
}

// fail moves a request to FAILED, as long as it is still in from.
func (t *Telemetry) fail(ctx context.Context, req *model.SwapRequest, from model.SwapRequestStatus, reason string) error {
	return t.advance(ctx, req, from, model.SwapRequestStatusFailed, controller.AdvanceFields{
		FailureReason: &reason,
		Reason:        reason,
	})
}

// failClaimed fails a DEPOSIT_CONFIRMED request on behalf of the worker
// holding its claim. It loses to any other claimant.
func (t *Telemetry) failClaimed(ctx context.Context, req *model.SwapRequest, claimant, reason string) error {
	return t.advance(ctx, req, model.SwapRequestStatusDepositConfirmed, model.SwapRequestStatusFailed, controller.AdvanceFields{
		FailureReason: &reason,
		Claimant:      claimant,
		Reason:        reason,
	})
}

// checked moves req to the back of the next scan. Errors are logged only.
func (t *Telemetry) checked(ctx context.Context, req *model.SwapRequest) {
	if err := t.controller.MarkSwapRequestChecked(ctx, req.ID); err != nil {
		t.logger.Warn("[checked][MarkSwapRequestChecked]", map[string]string{
			"swapId": req.ID,
			"error":  err.Error(),
		})
	}
}

func (t *Telemetry) advance(ctx context.Context, req *model.SwapRequest, from, next model.SwapRequestStatus, fields controller.AdvanceFields) error {
	err := t.controller.AdvanceSwapRequestFrom(ctx, req.ID, from, next, fields)
	if errors.Is(err, controller.ErrTransitionConflict) {
		t.logger.Info("[advance] swap request moved on concurrently, skipping", map[string]string{
			"swapId": req.ID,
			"from":   string(from),
			"to":     string(next),
		})
		return nil
	}
	return err
}

func (t *Telemetry) record(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	t.metrics.RecordSwapOperation(operation, status, time.Since(start).Seconds())
}
