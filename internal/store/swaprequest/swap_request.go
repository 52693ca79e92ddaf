package swaprequest

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dwarvesf/alph-swap-backend/internal/model"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) IStore {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, swapRequest *model.SwapRequest) error {
	now := timestamp(swapRequest.CreatedAt)
	swapRequest.CreatedAt = now
	swapRequest.UpdatedAt = now

	err := s.db.WithContext(ctx).Create(swapRequest).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if swapRequest.DepositTxID != nil {
			return ErrDuplicateDepositTx
		}
		return ErrAlreadyExists
	}
	return err
}

func (s *Store) GetByID(ctx context.Context, id string) (*model.SwapRequest, error) {
	var swapRequest model.SwapRequest
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&swapRequest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &swapRequest, nil
}

func (s *Store) CompareAndSetStatus(ctx context.Context, id string, from model.SwapRequestStatus, update StatusUpdate) (bool, error) {
	if !model.CanTransition(from, update.To) {
		return false, ErrInvalidTransition
	}

	now := timestamp(update.At)
	updates := map[string]interface{}{
		"status":     update.To,
		"updated_at": now,
	}
	if update.AmountTargetToken != nil {
		updates["amount_target_token"] = *update.AmountTargetToken
	}
	if update.FaucetTxID != nil {
		updates["faucet_tx_id"] = *update.FaucetTxID
	}
	if update.FailureReason != nil {
		updates["failure_reason"] = *update.FailureReason
	}

	applied := false
	err := doInTx(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		q := tx.Model(&model.SwapRequest{}).Where("id = ? AND status = ?", id, from)
		if from == model.SwapRequestStatusDepositConfirmed {
			q = q.Where("(claimed_by IS NULL OR claimed_by = ?)", update.Claimant)
		}
		res := q.Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		applied = true
		return tx.Create(&model.SwapRequestTransition{
			SwapRequestID: id,
			FromStatus:    from,
			ToStatus:      update.To,
			Reason:        update.Reason,
			CreatedAt:     now,
		}).Error
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *Store) SetDepositTx(ctx context.Context, id, txID string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.SwapRequest{}).
		Where("id = ? AND status = ? AND deposit_tx_id IS NULL", id, model.SwapRequestStatusPendingDeposit).
		Updates(map[string]interface{}{
			"deposit_tx_id": txID,
			"updated_at":    timestamp(at),
		})
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return false, ErrDuplicateDepositTx
	}
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) Claim(ctx context.Context, id, claimant string, at time.Time) (bool, error) {
	now := timestamp(at)
	res := s.db.WithContext(ctx).Model(&model.SwapRequest{}).
		Where("id = ? AND status = ? AND claimed_by IS NULL", id, model.SwapRequestStatusDepositConfirmed).
		Updates(map[string]interface{}{
			"claimed_by": claimant,
			"claimed_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) ReleaseClaim(ctx context.Context, id, claimant string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.SwapRequest{}).
		Where("id = ? AND status = ? AND claimed_by = ?", id, model.SwapRequestStatusDepositConfirmed, claimant).
		Updates(map[string]interface{}{
			"claimed_by": nil,
			"claimed_at": nil,
			"updated_at": timestamp(at),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) MarkChecked(ctx context.Context, id string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&model.SwapRequest{}).
		Where("id = ?", id).
		UpdateColumn("last_checked_at", timestamp(at))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]*model.SwapRequest, int64, error) {
	var total int64
	if err := applyFilter(s.db.WithContext(ctx).Model(&model.SwapRequest{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at DESC, id DESC"
	switch {
	case filter.LeastRecentlyChecked:
		order = "last_checked_at ASC NULLS FIRST, created_at ASC, id ASC"
	case filter.OldestFirst:
		order = "created_at ASC, id ASC"
	}
	q := applyFilter(s.db.WithContext(ctx), filter).Order(order)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	swapRequests := []*model.SwapRequest{}
	if err := q.Find(&swapRequests).Error; err != nil {
		return nil, 0, err
	}
	return swapRequests, total, nil
}

func (s *Store) ListTransitions(ctx context.Context, id string) ([]*model.SwapRequestTransition, error) {
	transitions := []*model.SwapRequestTransition{}
	err := s.db.WithContext(ctx).
		Where("swap_request_id = ?", id).
		Order("id ASC").
		Find(&transitions).Error
	if err != nil {
		return nil, err
	}
	return transitions, nil
}

func (s *Store) CountByStatus(ctx context.Context) (map[model.SwapRequestStatus]int64, error) {
	var rows []struct {
		Status model.SwapRequestStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&model.SwapRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[model.SwapRequestStatus]int64{}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func applyFilter(q *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.UserAddress != "" {
		q = q.Where("user_address = ?", filter.UserAddress)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CreatedBefore != nil {
		q = q.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.UpdatedBefore != nil {
		q = q.Where("updated_at < ?", *filter.UpdatedBefore)
	}
	if filter.ClaimedBefore != nil {
		q = q.Where("claimed_at < ?", *filter.ClaimedBefore)
	}
	if filter.Unclaimed {
		q = q.Where("claimed_by IS NULL")
	}
	if filter.HasDepositTx {
		q = q.Where("deposit_tx_id IS NOT NULL")
	}
	return q
}

func doInTx(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
