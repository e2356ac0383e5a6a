package services

import (
	"context"
	"crypto/hmac"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/transitpay/backend/internal/audit"
	"github.com/transitpay/backend/internal/config"
	"github.com/transitpay/backend/internal/models"
)

// ValidationResult is returned to the validating device after a successful
// fare deduction.
type ValidationResult struct {
	Success          bool   `json:"success"`
	PassID           int    `json:"pass_id"`
	UserID           int    `json:"user_id"`
	Fare             int64  `json:"fare"`
	RemainingBalance int64  `json:"remaining_balance"`
	TransactionRef   string `json:"transaction_ref"`
}

// FareService computes fares and performs the check-and-decrement at
// validation time. The balance decrement and its fare_deduction record are
// one database transaction: neither ever persists without the other.
type FareService struct {
	db       *sql.DB
	recorder *TransactionService
	tokens   *QRTokenService
	catalog  *CatalogService
	audit    *audit.Logger
	config   *config.FareConfig
}

func NewFareService(db *sql.DB, recorder *TransactionService, tokens *QRTokenService, catalog *CatalogService) *FareService {
	return &FareService{
		db:       db,
		recorder: recorder,
		tokens:   tokens,
		catalog:  catalog,
		audit:    audit.NewLogger(),
		config:   config.LoadFareConfig(),
	}
}

// ComputeFare resolves the fare for a route. Unknown or absent routes fall
// back to the configured default fare rather than rejecting the ride.
// TODO: charge-default-on-unknown-route lets a misconfigured scanner
// undercharge premium routes; revisit once route data is authoritative.
func (s *FareService) ComputeFare(ctx context.Context, routeID *int) (int64, error) {
	if routeID == nil {
		return s.config.DefaultFare, nil
	}

	fare, err := s.catalog.RouteFare(ctx, *routeID)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return s.config.DefaultFare, nil
		}
		return 0, err
	}
	return fare, nil
}

// Validate processes one validation event: decode the presented token,
// resolve the bound pass against its live stored state, check expiry,
// activity and balance, then atomically decrement and record. Concurrent
// validations against the same pass serialize on the row lock, so two
// deductions can never both spend the same balance.
func (s *FareService) Validate(ctx context.Context, token string, routeID, busID *int) (*ValidationResult, error) {
	claims, err := s.tokens.Decode(token)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, NewStorageError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var pass models.BusPass
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, balance, is_active, qr_token, expires_at
		FROM passes
		WHERE id = $1
		FOR UPDATE`,
		claims.PassID).Scan(&pass.ID, &pass.UserID, &pass.Balance,
		&pass.IsActive, &pass.QRToken, &pass.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewNotFoundError("pass %d not found", claims.PassID)
	}
	if err != nil {
		return nil, NewStorageError(err, "failed to lock pass")
	}

	// The token is an identity reference, not a capability: it must match
	// the token stored on the pass today, whatever state it embedded at
	// mint time.
	if !hmac.Equal([]byte(pass.QRToken), []byte(token)) {
		return nil, NewInvalidTokenError("token does not match pass %d", claims.PassID)
	}

	if pass.Expired(time.Now()) {
		s.audit.LogRejection(pass.ID, "pass expired")
		return nil, NewExpiredError("pass %d expired at %s", pass.ID, pass.ExpiresAt.Format(time.RFC3339))
	}

	if !pass.IsActive {
		s.audit.LogRejection(pass.ID, "pass inactive")
		return nil, NewInactiveError("pass %d is not active", pass.ID)
	}

	fare, err := s.ComputeFare(ctx, routeID)
	if err != nil {
		return nil, err
	}

	if pass.Balance < fare {
		s.audit.LogRejection(pass.ID, "insufficient balance")
		return nil, NewInsufficientBalanceError("pass %d balance %d below fare %d", pass.ID, pass.Balance, fare)
	}

	remaining := pass.Balance - fare
	if _, err := tx.ExecContext(ctx,
		`UPDATE passes SET balance = $1 WHERE id = $2`, remaining, pass.ID); err != nil {
		return nil, NewStorageError(err, "failed to deduct fare")
	}

	txn, err := s.recorder.RecordTx(ctx, tx, pass.UserID, pass.ID, fare, models.TxKindFareDeduction, routeID, busID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		s.audit.LogError("FARE_DEDUCTION", pass.ID, err)
		return nil, NewStorageError(err, "failed to commit fare deduction")
	}

	log.Printf("[FARE] Deducted %d from pass %d, remaining %d", fare, pass.ID, remaining)
	s.audit.LogFare(txn.ReferenceID, pass.ID, pass.UserID, fare, remaining)

	return &ValidationResult{
		Success:          true,
		PassID:           pass.ID,
		UserID:           pass.UserID,
		Fare:             fare,
		RemainingBalance: remaining,
		TransactionRef:   txn.ReferenceID,
	}, nil
}
