package models

import "time"

// BusPass is a prepaid fare account bound to one user. Balance is held in
// minor units (cents) and must equal the signed sum of the pass's
// transactions at all times. At most one pass per user is active.
type BusPass struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Balance   int64     `json:"balance" db:"balance"` // in cents
	IsActive  bool      `json:"is_active" db:"is_active"`
	QRToken   string    `json:"qr_token" db:"qr_token"` // unique, immutable once minted
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the pass has passed its expiry instant.
// Expiry is evaluated lazily at read/validation time; there is no sweeper.
func (p *BusPass) Expired(now time.Time) bool {
	return p.ExpiresAt.Before(now)
}
