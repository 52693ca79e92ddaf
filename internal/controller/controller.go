package controller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/dwarvesf/alph-swap-backend/internal/model"
	"github.com/dwarvesf/alph-swap-backend/internal/store"
	"github.com/dwarvesf/alph-swap-backend/internal/store/swaprequest"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/config"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/logger"
)

type CreateSwapRequestInput struct {
	UserAddress string          `json:"userAddress" validate:"required,max=128"`
	TargetToken string          `json:"targetToken" validate:"required"`
	AmountAlph  decimal.Decimal `json:"amountAlph"`
	DepositTxID *string         `json:"depositTxId" validate:"omitempty,txid"`
}

type depositTxInput struct {
	DepositTxID string `json:"depositTxId" validate:"required,txid"`
}

// AdvanceFields are the optional values written together with a status change.
type AdvanceFields struct {
	AmountTargetToken *decimal.Decimal
	FaucetTxID        *string
	FailureReason     *string
	// Claimant must hold the claim, if any, on a DEPOSIT_CONFIRMED request.
	Claimant string
	// Reason is recorded in the transition audit trail only.
	Reason string
}

type Option func(*Controller)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

type Controller struct {
	store    *store.Store
	config   *config.AppConfig
	logger   *logger.Logger
	validate *validator.Validate
	tokens   map[model.TargetToken]config.TokenConfig
	now      func() time.Time
}

func New(s *store.Store, appConfig *config.AppConfig, logger *logger.Logger, opts ...Option) IController {
	c := &Controller{
		store:    s,
		config:   appConfig,
		logger:   logger,
		validate: newValidator(),
		tokens:   map[model.TargetToken]config.TokenConfig{},
		now:      time.Now,
	}
	for _, t := range appConfig.Swap.Tokens {
		c.tokens[model.TargetToken(t.Symbol)] = t
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) CreateSwapRequest(ctx context.Context, input CreateSwapRequestInput) (*model.SwapRequest, error) {
	input.UserAddress = strings.TrimSpace(input.UserAddress)
	input.TargetToken = strings.TrimSpace(input.TargetToken)
	if input.DepositTxID != nil {
		txID := strings.TrimSpace(*input.DepositTxID)
		input.DepositTxID = &txID
		if txID == "" {
			input.DepositTxID = nil
		}
	}

	if err := c.validateCreateInput(input); err != nil {
		return nil, err
	}

	if c.config.Swap.DepositAddress == "" {
		c.logger.Error("[CreateSwapRequest] deposit address is not configured")
		return nil, pkgerrors.Wrap(ErrMissingConfig, "SWAP_DEPOSIT_ADDRESS")
	}

	swapRequest := &model.SwapRequest{
		ID:          uuid.NewString(),
		UserAddress: input.UserAddress,
		TargetToken: model.TargetToken(input.TargetToken),
		AmountAlph:  input.AmountAlph,
		DepositTxID: input.DepositTxID,
		Status:      model.SwapRequestStatusPendingDeposit,
		CreatedAt:   c.now(),
	}

	if err := c.store.SwapRequest.Create(ctx, swapRequest); err != nil {
		if errors.Is(err, swaprequest.ErrDuplicateDepositTx) {
			return nil, newValidationError("depositTxId", "already used by another swap request")
		}
		c.logger.Error("[CreateSwapRequest][Create]", map[string]string{
			"error": err.Error(),
		})
		return nil, pkgerrors.Wrap(err, "failed to store swap request")
	}

	c.logger.Info("[CreateSwapRequest] swap request created", map[string]string{
		"swapId":      swapRequest.ID,
		"targetToken": input.TargetToken,
		"amountAlph":  input.AmountAlph.String(),
	})
	return swapRequest, nil
}

func (c *Controller) validateCreateInput(input CreateSwapRequestInput) error {
	verr := &ValidationError{}
	if err := c.validate.Struct(input); err != nil {
		converted, ok := toValidationError(err).(*ValidationError)
		if !ok {
			return err
		}
		verr = converted
	}

	if err := model.CheckAmountAlph(input.AmountAlph); err != nil {
		verr.Fields = append(verr.Fields, FieldError{
			Field:   "amountAlph",
			Message: err.Error(),
		})
	}

	if input.TargetToken != "" {
		if _, ok := c.tokens[model.TargetToken(input.TargetToken)]; !ok {
			verr.Fields = append(verr.Fields, FieldError{
				Field:   "targetToken",
				Message: fmt.Sprintf("unsupported target token, must be one of: %s", strings.Join(c.tokenSymbols(), ", ")),
			})
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (c *Controller) GetSwapRequest(ctx context.Context, id string) (*model.SwapRequest, error) {
	if strings.TrimSpace(id) == "" {
		return nil, newValidationError("swapId", "is required")
	}

	swapRequest, err := c.store.SwapRequest.GetByID(ctx, id)
	if errors.Is(err, swaprequest.ErrNotFound) {
		return nil, ErrSwapRequestNotFound
	}
	if err != nil {
		c.logger.Error("[GetSwapRequest][GetByID]", map[string]string{
			"swapId": id,
			"error":  err.Error(),
		})
		return nil, pkgerrors.Wrap(err, "failed to load swap request")
	}
	return swapRequest, nil
}

func (c *Controller) AdvanceSwapRequest(ctx context.Context, id string, next model.SwapRequestStatus, fields AdvanceFields) error {
	current, err := c.GetSwapRequest(ctx, id)
	if err != nil {
		return err
	}
	return c.advance(ctx, current, current.Status, next, fields)
}

func (c *Controller) AdvanceSwapRequestFrom(ctx context.Context, id string, from, next model.SwapRequestStatus, fields AdvanceFields) error {
	current, err := c.GetSwapRequest(ctx, id)
	if err != nil {
		return err
	}
	if current.Status != from {
		return pkgerrors.Wrapf(ErrTransitionConflict, "expected %s, found %s", from, current.Status)
	}
	if from == model.SwapRequestStatusDepositConfirmed && current.ClaimedBy != nil && *current.ClaimedBy != fields.Claimant {
		return pkgerrors.Wrapf(ErrTransitionConflict, "claimed by %s", *current.ClaimedBy)
	}
	return c.advance(ctx, current, from, next, fields)
}

func (c *Controller) advance(ctx context.Context, current *model.SwapRequest, from, next model.SwapRequestStatus, fields AdvanceFields) error {
	if !model.CanTransition(from, next) {
		return pkgerrors.Wrapf(ErrInvalidTransition, "%s -> %s", from, next)
	}
	if err := checkAdvanceFields(current, next, fields); err != nil {
		return err
	}

	applied, err := c.store.SwapRequest.CompareAndSetStatus(ctx, current.ID, from, swaprequest.StatusUpdate{
		To:                next,
		AmountTargetToken: fields.AmountTargetToken,
		FaucetTxID:        fields.FaucetTxID,
		FailureReason:     fields.FailureReason,
		Claimant:          fields.Claimant,
		Reason:            fields.Reason,
		At:                c.now(),
	})
	if err != nil {
		c.logger.Error("[AdvanceSwapRequest][CompareAndSetStatus]", map[string]string{
			"swapId": current.ID,
			"from":   string(from),
			"to":     string(next),
			"error":  err.Error(),
		})
		return pkgerrors.Wrap(err, "failed to update swap request status")
	}
	if !applied {
		return pkgerrors.Wrapf(ErrTransitionConflict, "%s -> %s", from, next)
	}

	c.logger.Info("[AdvanceSwapRequest] status changed", map[string]string{
		"swapId": current.ID,
		"from":   string(from),
		"to":     string(next),
		"reason": fields.Reason,
	})
	return nil
}

func (c *Controller) AttachDepositTx(ctx context.Context, id, depositTxID string) (*model.SwapRequest, error) {
	input := depositTxInput{DepositTxID: strings.TrimSpace(depositTxID)}
	if err := c.validate.Struct(input); err != nil {
		return nil, toValidationError(err)
	}

	current, err := c.GetSwapRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != model.SwapRequestStatusPendingDeposit || current.DepositTxID != nil {
		return nil, pkgerrors.Wrap(ErrTransitionConflict, "deposit transaction can no longer be attached")
	}

	applied, err := c.store.SwapRequest.SetDepositTx(ctx, id, input.DepositTxID, c.now())
	if errors.Is(err, swaprequest.ErrDuplicateDepositTx) {
		return nil, newValidationError("depositTxId", "already used by another swap request")
	}
	if err != nil {
		c.logger.Error("[AttachDepositTx][SetDepositTx]", map[string]string{
			"swapId": id,
			"error":  err.Error(),
		})
		return nil, pkgerrors.Wrap(err, "failed to attach deposit transaction")
	}
	if !applied {
		return nil, pkgerrors.Wrap(ErrTransitionConflict, "deposit transaction can no longer be attached")
	}

	c.logger.Info("[AttachDepositTx] deposit transaction attached", map[string]string{
		"swapId":      id,
		"depositTxId": input.DepositTxID,
	})
	return c.GetSwapRequest(ctx, id)
}

func (c *Controller) ClaimSwapRequest(ctx context.Context, id, claimant string) (bool, error) {
	claimed, err := c.store.SwapRequest.Claim(ctx, id, claimant, c.now())
	if err != nil {
		return false, pkgerrors.Wrap(err, "failed to claim swap request")
	}
	return claimed, nil
}

func (c *Controller) ReleaseSwapRequestClaim(ctx context.Context, id, claimant string) (bool, error) {
	released, err := c.store.SwapRequest.ReleaseClaim(ctx, id, claimant, c.now())
	if err != nil {
		return false, pkgerrors.Wrap(err, "failed to release swap request claim")
	}
	return released, nil
}

func (c *Controller) MarkSwapRequestChecked(ctx context.Context, id string) error {
	err := c.store.SwapRequest.MarkChecked(ctx, id, c.now())
	if errors.Is(err, swaprequest.ErrNotFound) {
		return ErrSwapRequestNotFound
	}
	if err != nil {
		return pkgerrors.Wrap(err, "failed to mark swap request checked")
	}
	return nil
}

func (c *Controller) ListSwapRequests(ctx context.Context, filter swaprequest.ListFilter) ([]*model.SwapRequest, int64, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, newValidationError("status", "unknown status")
	}

	records, total, err := c.store.SwapRequest.List(ctx, filter)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to list swap requests")
	}
	return records, total, nil
}

func (c *Controller) ListTransitions(ctx context.Context, id string) ([]*model.SwapRequestTransition, error) {
	if _, err := c.GetSwapRequest(ctx, id); err != nil {
		return nil, err
	}

	transitions, err := c.store.SwapRequest.ListTransitions(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list swap request transitions")
	}
	return transitions, nil
}

func (c *Controller) SupportedTokens() []config.TokenConfig {
	tokens := make([]config.TokenConfig, 0, len(c.tokens))
	for _, t := range c.tokens {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Symbol < tokens[j].Symbol })
	return tokens
}

func (c *Controller) Token(symbol model.TargetToken) (config.TokenConfig, bool) {
	t, ok := c.tokens[symbol]
	return t, ok
}

func (c *Controller) tokenSymbols() []string {
	symbols := []string{}
	for _, t := range c.SupportedTokens() {
		symbols = append(symbols, t.Symbol)
	}
	return symbols
}
