package telemetry

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/dwarvesf/alph-swap-backend/internal/alphrpc"
	"github.com/dwarvesf/alph-swap-backend/internal/controller"
	"github.com/dwarvesf/alph-swap-backend/internal/model"
	"github.com/dwarvesf/alph-swap-backend/internal/store/swaprequest"
)

const reasonAmountTooSmall = "target token amount rounds to zero"

func (t *Telemetry) FulfillSwapRequests(ctx context.Context) error {
	t.logger.Info("[FulfillSwapRequests] Start fulfilling confirmed deposits...")

	var errs []error
	if err := t.failStaleClaims(ctx); err != nil {
		errs = append(errs, err)
	}

	records, err := t.batch(ctx, model.SwapRequestStatusDepositConfirmed, func(f *swaprequest.ListFilter) {
		f.Unclaimed = true
	})
	if err != nil {
		t.logger.Error("[FulfillSwapRequests][ListSwapRequests]", map[string]string{
			"error": err.Error(),
		})
		return errors.Join(append(errs, err)...)
	}

	for _, req := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		err := t.fulfill(ctx, req)
		t.record("fulfill", start, err)
		if err != nil {
			t.logger.Error("[FulfillSwapRequests][fulfill]", map[string]string{
				"swapId": req.ID,
				"error":  err.Error(),
			})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// failStaleClaims fails requests whose fulfiller stopped before recording a
// result. The transfer may or may not have been sent, so they are never retried.
func (t *Telemetry) failStaleClaims(ctx context.Context) error {
	cutoff := t.now().Add(-t.appConfig.Swap.ClaimTimeout)
	records, err := t.batch(ctx, model.SwapRequestStatusDepositConfirmed, func(f *swaprequest.ListFilter) {
		f.ClaimedBefore = &cutoff
	})
	if err != nil {
		t.logger.Error("[failStaleClaims][ListSwapRequests]", map[string]string{
			"error": err.Error(),
		})
		return err
	}

	var errs []error
	for _, req := range records {
		claimedBy := ""
		if req.ClaimedBy != nil {
			claimedBy = *req.ClaimedBy
		}
		t.logger.Warn("[failStaleClaims] fulfillment interrupted", map[string]string{
			"swapId":    req.ID,
			"claimedBy": claimedBy,
		})
		if err := t.failClaimed(ctx, req, claimedBy, reasonFulfillmentInterrupted); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fulfill claims req before anything else, so no other worker can fail or
// pay it while this one decides.
func (t *Telemetry) fulfill(ctx context.Context, req *model.SwapRequest) error {
	claimed, err := t.controller.ClaimSwapRequest(ctx, req.ID, t.workerID)
	if err != nil {
		return err
	}
	if !claimed {
		t.logger.Info("[fulfill] swap request claimed by another worker, skipping", map[string]string{
			"swapId": req.ID,
		})
		return nil
	}

	token, ok := t.controller.Token(req.TargetToken)
	if !ok {
		return t.failClaimed(ctx, req, t.workerID, reasonUnsupportedToken)
	}

	amount := model.TargetAmount(req.AmountAlph, token.Rate, token.Decimals)
	if !amount.IsPositive() {
		return t.failClaimed(ctx, req, t.workerID, reasonAmountTooSmall)
	}
	baseUnits := model.ToBaseUnits(amount, token.Decimals)
	needed, ok := new(big.Int).SetString(baseUnits, 10)
	if !ok {
		return t.release(ctx, req, fmt.Errorf("invalid token amount %s", baseUnits))
	}

	balance, err := t.faucetBalance(ctx, token.TokenID)
	if err != nil {
		return t.release(ctx, req, err)
	}
	if balance.Cmp(needed) < 0 {
		t.logger.Warn("[fulfill] faucet balance too low", map[string]string{
			"swapId":  req.ID,
			"tokenId": token.TokenID,
			"balance": balance.String(),
			"needed":  needed.String(),
		})
		return t.failClaimed(ctx, req, t.workerID, reasonInsufficientBalance)
	}

	txID, err := t.alphRpc.TransferToken(ctx, alphrpc.Transfer{
		ToAddress:      req.UserAddress,
		TokenID:        token.TokenID,
		TokenAmount:    baseUnits,
		AttoAlphAmount: t.appConfig.Swap.DustAmountAtto,
	})
	if err != nil {
		return t.handleTransferError(ctx, req, err)
	}

	t.spendBalance(token.TokenID, balance, needed)

	err = t.controller.AdvanceSwapRequestFrom(ctx, req.ID, model.SwapRequestStatusDepositConfirmed, model.SwapRequestStatusFulfilling, controller.AdvanceFields{
		AmountTargetToken: &amount,
		FaucetTxID:        &txID,
		Claimant:          t.workerID,
		Reason:            "target tokens sent",
	})
	if err != nil {
		// tokens are on their way; whoever reviews this needs the tx id
		t.logger.Error("[fulfill][AdvanceSwapRequestFrom] transfer sent but status not recorded", map[string]string{
			"swapId":     req.ID,
			"faucetTxId": txID,
			"amount":     amount.String(),
			"error":      err.Error(),
		})
		return err
	}

	t.logger.Info("[fulfill] target tokens sent", map[string]string{
		"swapId":      req.ID,
		"faucetTxId":  txID,
		"targetToken": string(req.TargetToken),
		"amount":      amount.String(),
	})
	return nil
}

func (t *Telemetry) handleTransferError(ctx context.Context, req *model.SwapRequest, err error) error {
	switch {
	case errors.Is(err, alphrpc.ErrRequestRejected):
		t.logger.Error("[fulfill][TransferToken] transfer rejected", map[string]string{
			"swapId": req.ID,
			"error":  err.Error(),
		})
		return t.failClaimed(ctx, req, t.workerID, reasonTransferRejected)
	case errors.Is(err, alphrpc.ErrWalletUnavailable):
		t.logger.Error("[fulfill][TransferToken] faucet wallet unavailable, operator action required", map[string]string{
			"swapId": req.ID,
			"error":  err.Error(),
		})
		return t.release(ctx, req, err)
	case alphrpc.IsCircuitOpen(err):
		return t.release(ctx, req, err)
	default:
		t.logger.Error("[fulfill][TransferToken] transfer outcome unknown, keeping claim", map[string]string{
			"swapId": req.ID,
			"error":  err.Error(),
		})
		return err
	}
}

// release gives up the claim after a failure that happened before anything
// was sent, so a later run can retry. It returns cause.
func (t *Telemetry) release(ctx context.Context, req *model.SwapRequest, cause error) error {
	if _, err := t.controller.ReleaseSwapRequestClaim(ctx, req.ID, t.workerID); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (t *Telemetry) faucetBalance(ctx context.Context, tokenID string) (*big.Int, error) {
	if cached, ok := t.balances.Get(tokenID); ok {
		t.metrics.RecordCacheOperation("faucet_balance", "hit")
		return new(big.Int).Set(cached.(*big.Int)), nil
	}
	t.metrics.RecordCacheOperation("faucet_balance", "miss")

	if t.appConfig.Alephium.FaucetAddress == "" {
		return nil, fmt.Errorf("%w: ALEPHIUM_FAUCET_ADDRESS", controller.ErrMissingConfig)
	}
	balance, err := t.alphRpc.AddressBalance(ctx, t.appConfig.Alephium.FaucetAddress)
	if err != nil {
		return nil, err
	}

	amount := balance.TokenAmount(tokenID)
	t.balances.Set(tokenID, new(big.Int).Set(amount), cache.DefaultExpiration)
	return amount, nil
}

func (t *Telemetry) spendBalance(tokenID string, balance, spent *big.Int) {
	t.balances.Set(tokenID, new(big.Int).Sub(balance, spent), cache.DefaultExpiration)
}

func (t *Telemetry) ConfirmFulfillments(ctx context.Context) error {
	t.logger.Info("[ConfirmFulfillments] Start checking faucet transactions...")

	records, err := t.batch(ctx, model.SwapRequestStatusFulfilling, func(f *swaprequest.ListFilter) {
		f.LeastRecentlyChecked = true
	})
	if err != nil {
		t.logger.Error("[ConfirmFulfillments][ListSwapRequests]", map[string]string{
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
		err := t.confirmFulfillment(ctx, req)
		t.record("confirm_fulfillment", start, err)
		t.checked(ctx, req)
		if err != nil {
			t.logger.Error("[ConfirmFulfillments][confirmFulfillment]", map[string]string{
				"swapId": req.ID,
				"error":  err.Error(),
			})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Telemetry) confirmFulfillment(ctx context.Context, req *model.SwapRequest) error {
	if req.FaucetTxID == nil {
		return fmt.Errorf("swap request %s is FULFILLING without a faucet tx id", req.ID)
	}

	status, err := t.alphRpc.TransactionStatus(ctx, *req.FaucetTxID)
	if err != nil {
		return err
	}

	switch status.Type {
	case alphrpc.TxStatusConfirmed:
		if status.Confirmations() < t.appConfig.Swap.FulfillmentMinConfirmations {
			return nil
		}
		return t.advance(ctx, req, model.SwapRequestStatusFulfilling, model.SwapRequestStatusCompleted, controller.AdvanceFields{
			Reason: fmt.Sprintf("faucet tx confirmed with %d confirmations", status.Confirmations()),
		})
	case alphrpc.TxStatusTxNotFound:
		if req.UpdatedAt.After(t.now().Add(-t.appConfig.Swap.FulfillmentTimeout)) {
			return nil
		}
		t.logger.Warn("[confirmFulfillment] faucet tx not found", map[string]string{
			"swapId":     req.ID,
			"faucetTxId": *req.FaucetTxID,
		})
		return t.fail(ctx, req, model.SwapRequestStatusFulfilling, reasonFulfillmentDropped)
	default:
		return nil
	}
}

