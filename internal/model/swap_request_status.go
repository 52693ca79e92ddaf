package model

type SwapRequestStatus string

const (
	SwapRequestStatusPendingDeposit   SwapRequestStatus = "PENDING_DEPOSIT"
	SwapRequestStatusDepositConfirmed SwapRequestStatus = "DEPOSIT_CONFIRMED"
	SwapRequestStatusFulfilling       SwapRequestStatus = "FULFILLING"
	SwapRequestStatusCompleted        SwapRequestStatus = "COMPLETED"
	SwapRequestStatusFailed           SwapRequestStatus = "FAILED"
)

// nextStatus is the forward edge of the happy path; FAILED is reachable from
// every non-terminal status on top of it.
var nextStatus = map[SwapRequestStatus]SwapRequestStatus{
	SwapRequestStatusPendingDeposit:   SwapRequestStatusDepositConfirmed,
	SwapRequestStatusDepositConfirmed: SwapRequestStatusFulfilling,
	SwapRequestStatusFulfilling:       SwapRequestStatusCompleted,
}

func AllSwapRequestStatuses() []SwapRequestStatus {
	return []SwapRequestStatus{
		SwapRequestStatusPendingDeposit,
		SwapRequestStatusDepositConfirmed,
		SwapRequestStatusFulfilling,
		SwapRequestStatusCompleted,
		SwapRequestStatusFailed,
	}
}

func (s SwapRequestStatus) IsValid() bool {
	switch s {
	case SwapRequestStatusPendingDeposit,
		SwapRequestStatusDepositConfirmed,
		SwapRequestStatusFulfilling,
		SwapRequestStatusCompleted,
		SwapRequestStatusFailed:
		return true
	}
	return false
}

func (s SwapRequestStatus) IsTerminal() bool {
	return s == SwapRequestStatusCompleted || s == SwapRequestStatusFailed
}

// HasReachedFulfilling reports whether a record in this status must carry the
// faucet transfer fields.
func (s SwapRequestStatus) HasReachedFulfilling() bool {
	return s == SwapRequestStatusFulfilling || s == SwapRequestStatusCompleted
}

// CanTransition reports whether from -> to is a legal single step.
func CanTransition(from, to SwapRequestStatus) bool {
	if !from.IsValid() || from.IsTerminal() {
		return false
	}
	if to == SwapRequestStatusFailed {
		return true
	}
	return nextStatus[from] == to
}
