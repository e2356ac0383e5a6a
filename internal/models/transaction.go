package models

import "time"

// Transaction kinds. The sign of a transaction is implied by its kind:
// purchase and topup credit the pass, fare_deduction debits it.
const (
	TxKindPurchase      = "purchase"
	TxKindTopUp         = "topup"
	TxKindFareDeduction = "fare_deduction"
)

// Transaction statuses
const (
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
)

// Transaction is an immutable ledger entry for one balance-affecting event.
// Rows are only ever appended; corrections are new compensating transactions.
type Transaction struct {
	ID          int       `json:"id" db:"id"`
	ReferenceID string    `json:"reference_id" db:"reference_id"`
	UserID      int       `json:"user_id" db:"user_id"`
	PassID      int       `json:"pass_id" db:"pass_id"`
	Amount      int64     `json:"amount" db:"amount"` // in cents, always positive
	Kind        string    `json:"kind" db:"kind"`
	RouteID     *int      `json:"route_id,omitempty" db:"route_id"`
	BusID       *int      `json:"bus_id,omitempty" db:"bus_id"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// SignedAmount returns the amount with the sign its kind implies.
func (t *Transaction) SignedAmount() int64 {
	if t.Kind == TxKindFareDeduction {
		return -t.Amount
	}
	return t.Amount
}
