package store

import (
	"gorm.io/gorm"

	"github.com/dwarvesf/alph-swap-backend/internal/store/swaprequest"
)

type Store struct {
	SwapRequest swaprequest.IStore
}

func New(db *gorm.DB) *Store {
	return &Store{
		SwapRequest: swaprequest.New(db),
	}
}

// NewMemory builds a store backed by process memory. Nothing survives a restart.
func NewMemory() *Store {
	return &Store{
		SwapRequest: swaprequest.NewMemory(),
	}
}
