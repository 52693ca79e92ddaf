package model

import "time"

// SwapRequestTransition is one row of the append-only status audit trail.
type SwapRequestTransition struct {
	ID            uint              `gorm:"column:id;primaryKey;autoIncrement"`
	SwapRequestID string            `gorm:"column:swap_request_id;type:varchar(64);not null;index"`
	FromStatus    SwapRequestStatus `gorm:"column:from_status;type:varchar(32);not null"`
	ToStatus      SwapRequestStatus `gorm:"column:to_status;type:varchar(32);not null"`
	Reason        string            `gorm:"column:reason;type:text"`
	CreatedAt     time.Time         `gorm:"column:created_at;not null"`
}

func (SwapRequestTransition) TableName() string {
	return "swap_request_transitions"
}
