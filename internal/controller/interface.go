package controller

import (
	"context"

	"github.com/dwarvesf/alph-swap-backend/internal/model"
	"github.com/dwarvesf/alph-swap-backend/internal/store/swaprequest"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/config"
)

type IController interface {
	// CreateSwapRequest validates the input and stores a new PENDING_DEPOSIT request
	CreateSwapRequest(ctx context.Context, input CreateSwapRequestInput) (*model.SwapRequest, error)

	// GetSwapRequest returns ErrSwapRequestNotFound when the id is unknown
	GetSwapRequest(ctx context.Context, id string) (*model.SwapRequest, error)

	// AdvanceSwapRequest moves a request from its current status to next
	AdvanceSwapRequest(ctx context.Context, id string, next model.SwapRequestStatus, fields AdvanceFields) error

	// AdvanceSwapRequestFrom is AdvanceSwapRequest for callers acting on a
	// snapshot: it fails with ErrTransitionConflict unless the request is still in from
	AdvanceSwapRequestFrom(ctx context.Context, id string, from, next model.SwapRequestStatus, fields AdvanceFields) error

	// AttachDepositTx records the user's deposit transaction on a pending request
	AttachDepositTx(ctx context.Context, id, depositTxID string) (*model.SwapRequest, error)

	// ClaimSwapRequest reserves a DEPOSIT_CONFIRMED request for one fulfiller
	ClaimSwapRequest(ctx context.Context, id, claimant string) (bool, error)
	ReleaseSwapRequestClaim(ctx context.Context, id, claimant string) (bool, error)

	// MarkSwapRequestChecked records that a worker looked at the request, so the
	// next scan starts with requests checked less recently
	MarkSwapRequestChecked(ctx context.Context, id string) error

	ListSwapRequests(ctx context.Context, filter swaprequest.ListFilter) ([]*model.SwapRequest, int64, error)
	ListTransitions(ctx context.Context, id string) ([]*model.SwapRequestTransition, error)

	SupportedTokens() []config.TokenConfig
	Token(symbol model.TargetToken) (config.TokenConfig, bool)
}
