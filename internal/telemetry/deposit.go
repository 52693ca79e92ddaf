package telemetry

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/dwarvesf/alph-swap-backend/internal/alphrpc"
	"github.com/dwarvesf/alph-swap-backend/internal/controller"
	"github.com/dwarvesf/alph-swap-backend/internal/model"
	"github.com/dwarvesf/alph-swap-backend/internal/store/swaprequest"
)

func (t *Telemetry) ConfirmDeposits(ctx context.Context) error {
	t.logger.Info("[ConfirmDeposits] Start checking pending deposits...")

	records, err := t.batch(ctx, model.SwapRequestStatusPendingDeposit, func(f *swaprequest.ListFilter) {
		f.HasDepositTx = true
		f.LeastRecentlyChecked = true
	})
	if err != nil {
		t.logger.Error("[ConfirmDeposits][ListSwapRequests]", map[string]string{
			"error": err.Error(),
		})
		return err
	}

	var errs []error
	for _, req := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		err := t.confirmDeposit(ctx, req)
		t.record("confirm_deposit", start, err)
		t.checked(ctx, req)
		if err != nil {
			t.logger.Error("[ConfirmDeposits][confirmDeposit]", map[string]string{
				"swapId":      req.ID,
				"depositTxId": *req.DepositTxID,
				"error":       err.Error(),
			})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Telemetry) confirmDeposit(ctx context.Context, req *model.SwapRequest) error {
	status, err := t.alphRpc.TransactionStatus(ctx, *req.DepositTxID)
	if err != nil {
		return err
	}
	if status.Type != alphrpc.TxStatusConfirmed || status.Confirmations() < t.appConfig.Swap.DepositMinConfirmations {
		t.logger.Debug("[confirmDeposit] deposit not confirmed yet", map[string]string{
			"swapId": req.ID,
			"status": string(status.Type),
		})
		return nil
	}

	details, err := t.alphRpc.TransactionDetails(ctx, *req.DepositTxID)
	if err != nil {
		return err
	}
	if !details.ScriptExecutionOk {
		return t.fail(ctx, req, model.SwapRequestStatusPendingDeposit, reasonDepositFailed)
	}

	promised, ok := new(big.Int).SetString(model.ToBaseUnits(req.AmountAlph, model.AlphDecimals), 10)
	if !ok {
		return fmt.Errorf("invalid promised amount %s", req.AmountAlph)
	}
	paid := details.AttoAlphPaidTo(t.appConfig.Swap.DepositAddress)
	if paid.Cmp(promised) < 0 {
		t.logger.Warn("[confirmDeposit] deposit below promised amount", map[string]string{
			"swapId":   req.ID,
			"paid":     paid.String(),
			"promised": promised.String(),
		})
		return t.fail(ctx, req, model.SwapRequestStatusPendingDeposit, reasonDepositBelowPromised)
	}

	return t.advance(ctx, req, model.SwapRequestStatusPendingDeposit, model.SwapRequestStatusDepositConfirmed, controller.AdvanceFields{
		Reason: fmt.Sprintf("deposit confirmed with %d confirmations", status.Confirmations()),
	})
}

func (t *Telemetry) ExpirePendingDeposits(ctx context.Context) error {
	cutoff := t.now().Add(-t.appConfig.Swap.DepositTimeout)
	records, err := t.batch(ctx, model.SwapRequestStatusPendingDeposit, func(f *swaprequest.ListFilter) {
		f.CreatedBefore = &cutoff
	})
	if err != nil {
		t.logger.Error("[ExpirePendingDeposits][ListSwapRequests]", map[string]string{
			"error": err.Error(),
		})
		return err
	}

	var errs []error
	for _, req := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		err := t.fail(ctx, req, model.SwapRequestStatusPendingDeposit, reasonDepositTimeout)
		t.record("expire_deposit", start, err)
		if err != nil {
			t.logger.Error("[ExpirePendingDeposits][fail]", map[string]string{
				"swapId": req.ID,
				"error":  err.Error(),
			})
			errs = append(errs, err)
			continue
		}
		t.logger.Info("[ExpirePendingDeposits] swap request expired", map[string]string{
			"swapId": req.ID,
		})
	}
	return errors.Join(errs...)
}
