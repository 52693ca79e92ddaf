package swaprequest

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dwarvesf/alph-swap-backend/internal/model"
)

var (
	ErrNotFound           = errors.New("swap request not found")
	ErrAlreadyExists      = errors.New("swap request already exists")
	ErrDuplicateDepositTx = errors.New("deposit transaction already used by another swap request")
	ErrInvalidTransition  = errors.New("invalid swap request status transition")
)

// StatusUpdate describes a single status step. Nil pointer fields are left
// untouched on the stored record.
type StatusUpdate struct {
	To                model.SwapRequestStatus
	AmountTargetToken *decimal.Decimal
	FaucetTxID        *string
	FailureReason     *string
	// Claimant guards steps out of DEPOSIT_CONFIRMED: they only apply while the
	// request is unclaimed or claimed by Claimant.
	Claimant string
	Reason   string
	At       time.Time
}

type ListFilter struct {
	UserAddress   string
	Status        model.SwapRequestStatus
	CreatedBefore *time.Time
	ClaimedBefore *time.Time
	UpdatedBefore *time.Time
	Unclaimed     bool
	HasDepositTx  bool
	OldestFirst   bool
	// LeastRecentlyChecked orders never checked requests first, then by
	// last_checked_at, so a batch limit cannot starve the tail of a backlog.
	LeastRecentlyChecked bool
	Limit                int
	Offset               int
}

type IStore interface {
	Create(ctx context.Context, swapRequest *model.SwapRequest) error
	GetByID(ctx context.Context, id string) (*model.SwapRequest, error)

	// CompareAndSetStatus applies update only if the record is still in status
	// from. It reports false when another writer got there first.
	CompareAndSetStatus(ctx context.Context, id string, from model.SwapRequestStatus, update StatusUpdate) (bool, error)
	// SetDepositTx records the deposit transaction of a PENDING_DEPOSIT request
	// that has none yet.
	SetDepositTx(ctx context.Context, id, txID string, at time.Time) (bool, error)
	// Claim marks a DEPOSIT_CONFIRMED request as owned by claimant. A request
	// can be claimed once.
	Claim(ctx context.Context, id, claimant string, at time.Time) (bool, error)
	// ReleaseClaim drops a claim still held by claimant on a DEPOSIT_CONFIRMED
	// request. Only safe when no transfer was submitted under the claim.
	ReleaseClaim(ctx context.Context, id, claimant string, at time.Time) (bool, error)
	// MarkChecked stamps last_checked_at without touching updated_at.
	MarkChecked(ctx context.Context, id string, at time.Time) error

	List(ctx context.Context, filter ListFilter) ([]*model.SwapRequest, int64, error)
	ListTransitions(ctx context.Context, id string) ([]*model.SwapRequestTransition, error)
	CountByStatus(ctx context.Context) (map[model.SwapRequestStatus]int64, error)
}

func timestamp(at time.Time) time.Time {
	if at.IsZero() {
		at = time.Now()
	}
	return at.UTC().Truncate(time.Microsecond)
}
