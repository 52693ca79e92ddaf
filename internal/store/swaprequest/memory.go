package swaprequest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dwarvesf/alph-swap-backend/internal/model"
)

// MemoryStore keeps swap requests in process memory. It is used by the
// memory store driver and by tests.
type MemoryStore struct {
	mu          sync.RWMutex
	records     map[string]*model.SwapRequest
	byDepositTx map[string]string
	transitions map[string][]*model.SwapRequestTransition
	seq         uint
}

func NewMemory() IStore {
	return &MemoryStore{
		records:     map[string]*model.SwapRequest{},
		byDepositTx: map[string]string{},
		transitions: map[string][]*model.SwapRequestTransition{},
	}
}

func (s *MemoryStore) Create(_ context.Context, swapRequest *model.SwapRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[swapRequest.ID]; ok {
		return ErrAlreadyExists
	}
	if swapRequest.DepositTxID != nil {
		if _, ok := s.byDepositTx[*swapRequest.DepositTxID]; ok {
			return ErrDuplicateDepositTx
		}
		s.byDepositTx[*swapRequest.DepositTxID] = swapRequest.ID
	}

	now := timestamp(swapRequest.CreatedAt)
	swapRequest.CreatedAt = now
	swapRequest.UpdatedAt = now
	s.records[swapRequest.ID] = swapRequest.Clone()
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*model.SwapRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) CompareAndSetStatus(_ context.Context, id string, from model.SwapRequestStatus, update StatusUpdate) (bool, error) {
	if !model.CanTransition(from, update.To) {
		return false, ErrInvalidTransition
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || r.Status != from {
		return false, nil
	}
	if from == model.SwapRequestStatusDepositConfirmed && r.ClaimedBy != nil && *r.ClaimedBy != update.Claimant {
		return false, nil
	}

	now := timestamp(update.At)
	r.Status = update.To
	r.UpdatedAt = now
	if update.AmountTargetToken != nil {
		r.AmountTargetToken.Decimal = *update.AmountTargetToken
		r.AmountTargetToken.Valid = true
	}
	if update.FaucetTxID != nil {
		txID := *update.FaucetTxID
		r.FaucetTxID = &txID
	}
	if update.FailureReason != nil {
		reason := *update.FailureReason
		r.FailureReason = &reason
	}

	s.seq++
	s.transitions[id] = append(s.transitions[id], &model.SwapRequestTransition{
		ID:            s.seq,
		SwapRequestID: id,
		FromStatus:    from,
		ToStatus:      update.To,
		Reason:        update.Reason,
		CreatedAt:     now,
	})
	return true, nil
}

func (s *MemoryStore) SetDepositTx(_ context.Context, id, txID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || r.Status != model.SwapRequestStatusPendingDeposit || r.DepositTxID != nil {
		return false, nil
	}
	if _, used := s.byDepositTx[txID]; used {
		return false, ErrDuplicateDepositTx
	}

	s.byDepositTx[txID] = id
	r.DepositTxID = &txID
	r.UpdatedAt = timestamp(at)
	return true, nil
}

func (s *MemoryStore) Claim(_ context.Context, id, claimant string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || r.Status != model.SwapRequestStatusDepositConfirmed || r.ClaimedBy != nil {
		return false, nil
	}

	now := timestamp(at)
	r.ClaimedBy = &claimant
	r.ClaimedAt = &now
	r.UpdatedAt = now
	return true, nil
}

func (s *MemoryStore) ReleaseClaim(_ context.Context, id, claimant string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || r.Status != model.SwapRequestStatusDepositConfirmed || r.ClaimedBy == nil || *r.ClaimedBy != claimant {
		return false, nil
	}

	r.ClaimedBy = nil
	r.ClaimedAt = nil
	r.UpdatedAt = timestamp(at)
	return true, nil
}

func (s *MemoryStore) MarkChecked(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	checked := timestamp(at)
	r.LastCheckedAt = &checked
	return nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]*model.SwapRequest, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*model.SwapRequest{}
	for _, r := range s.records {
		if matches(r, filter) {
			matched = append(matched, r.Clone())
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if filter.LeastRecentlyChecked {
			if less, ok := checkedEarlier(a.LastCheckedAt, b.LastCheckedAt); ok {
				return less
			}
		}
		if filter.OldestFirst || filter.LeastRecentlyChecked {
			a, b = b, a
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	total := int64(len(matched))
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*model.SwapRequest{}, total, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (s *MemoryStore) ListTransitions(_ context.Context, id string) ([]*model.SwapRequestTransition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transitions := []*model.SwapRequestTransition{}
	for _, t := range s.transitions[id] {
		c := *t
		transitions = append(transitions, &c)
	}
	return transitions, nil
}

func (s *MemoryStore) CountByStatus(_ context.Context) (map[model.SwapRequestStatus]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[model.SwapRequestStatus]int64{}
	for _, r := range s.records {
		counts[r.Status]++
	}
	return counts, nil
}

// checkedEarlier puts never checked records first, then orders by check time.
// ok is false on a tie.
func checkedEarlier(a, b *time.Time) (less, ok bool) {
	switch {
	case a == nil && b == nil:
		return false, false
	case a == nil || b == nil:
		return a == nil, true
	case a.Equal(*b):
		return false, false
	default:
		return a.Before(*b), true
	}
}

func matches(r *model.SwapRequest, filter ListFilter) bool {
	if filter.UserAddress != "" && r.UserAddress != filter.UserAddress {
		return false
	}
	if filter.Status != "" && r.Status != filter.Status {
		return false
	}
	if filter.CreatedBefore != nil && !r.CreatedAt.Before(*filter.CreatedBefore) {
		return false
	}
	if filter.UpdatedBefore != nil && !r.UpdatedAt.Before(*filter.UpdatedBefore) {
		return false
	}
	if filter.ClaimedBefore != nil && (r.ClaimedAt == nil || !r.ClaimedAt.Before(*filter.ClaimedBefore)) {
		return false
	}
	if filter.Unclaimed && r.ClaimedBy != nil {
		return false
	}
	if filter.HasDepositTx && r.DepositTxID == nil {
		return false
	}
	return true
}
