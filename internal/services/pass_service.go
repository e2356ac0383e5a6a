package services

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/transitpay/backend/internal/audit"
	"github.com/transitpay/backend/internal/config"
	"github.com/transitpay/backend/internal/models"
)

// PassService owns the pass lifecycle: creation, top-up, lookup and
// deactivation. It is the only component that writes pass rows, and every
// balance change it makes commits atomically with its ledger record.
type PassService struct {
	db       *sql.DB
	recorder *TransactionService
	tokens   *QRTokenService
	audit    *audit.Logger
	config   *config.FareConfig
}

func NewPassService(db *sql.DB, recorder *TransactionService, tokens *QRTokenService) *PassService {
	return &PassService{
		db:       db,
		recorder: recorder,
		tokens:   tokens,
		audit:    audit.NewLogger(),
		config:   config.LoadFareConfig(),
	}
}

// CreatePass issues a new active pass for the user. A user may hold at most
// one active pass: a concurrent-safe check runs inside the transaction and a
// partial unique index on (user_id) WHERE is_active backs it at the storage
// level. The QR token is minted once here and never re-minted. An initial
// balance > 0 is recorded as a purchase transaction in the same database
// transaction as the pass row.
func (s *PassService) CreatePass(ctx context.Context, userID int, initialBalance int64) (*models.BusPass, error) {
	if initialBalance < 0 {
		return nil, NewValidationError("initial balance must not be negative, got %d", initialBalance)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, NewStorageError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var existingID int
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM passes WHERE user_id = $1 AND is_active = true FOR UPDATE`,
		userID).Scan(&existingID)
	if err == nil {
		return nil, NewConflictError("user %d already has an active pass", userID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, NewStorageError(err, "failed to check for active pass")
	}

	pass := &models.BusPass{
		UserID:   userID,
		Balance:  initialBalance,
		IsActive: true,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO passes (user_id, balance, is_active, expires_at)
		VALUES ($1, $2, true, $3)
		RETURNING id, created_at, expires_at`,
		userID, initialBalance, time.Now().Add(s.config.PassValidity),
	).Scan(&pass.ID, &pass.CreatedAt, &pass.ExpiresAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, NewConflictError("user %d already has an active pass", userID)
		}
		return nil, NewStorageError(err, "failed to create pass")
	}

	token, err := s.tokens.Mint(pass.ID, userID)
	if err != nil {
		return nil, NewStorageError(err, "failed to mint pass token")
	}
	pass.QRToken = token

	if _, err := tx.ExecContext(ctx,
		`UPDATE passes SET qr_token = $1 WHERE id = $2`, token, pass.ID); err != nil {
		return nil, NewStorageError(err, "failed to store pass token")
	}

	var txn *models.Transaction
	if initialBalance > 0 {
		txn, err = s.recorder.RecordTx(ctx, tx, userID, pass.ID, initialBalance, models.TxKindPurchase, nil, nil)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, NewStorageError(err, "failed to commit pass creation")
	}

	log.Printf("[PASS] Created pass %d for user %d, initial balance %d", pass.ID, userID, initialBalance)
	if txn != nil {
		s.audit.LogCredit(txn.ReferenceID, models.TxKindPurchase, pass.ID, userID, initialBalance)
	}
	return pass, nil
}

// GetActivePass returns the user's active pass. An expired pass is still
// returned here; expiry only blocks fare deduction, not queries.
func (s *PassService) GetActivePass(ctx context.Context, userID int) (*models.BusPass, error) {
	var pass models.BusPass
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, balance, is_active, qr_token, created_at, expires_at
		FROM passes
		WHERE user_id = $1 AND is_active = true`,
		userID).Scan(&pass.ID, &pass.UserID, &pass.Balance, &pass.IsActive,
		&pass.QRToken, &pass.CreatedAt, &pass.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewNotFoundError("no active pass for user %d", userID)
	}
	if err != nil {
		return nil, NewStorageError(err, "failed to fetch active pass")
	}
	return &pass, nil
}

// TopUp credits the user's active pass. The row lock serializes concurrent
// balance mutations on the same pass; the increment and its topup record
// either both commit or neither does.
func (s *PassService) TopUp(ctx context.Context, userID int, amount int64) (*models.BusPass, error) {
	if amount <= 0 {
		return nil, NewValidationError("top-up amount must be positive, got %d", amount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, NewStorageError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var pass models.BusPass
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, balance, is_active, qr_token, created_at, expires_at
		FROM passes
		WHERE user_id = $1 AND is_active = true
		FOR UPDATE`,
		userID).Scan(&pass.ID, &pass.UserID, &pass.Balance, &pass.IsActive,
		&pass.QRToken, &pass.CreatedAt, &pass.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewNotFoundError("no active pass for user %d", userID)
	}
	if err != nil {
		return nil, NewStorageError(err, "failed to lock pass")
	}

	pass.Balance += amount
	if _, err := tx.ExecContext(ctx,
		`UPDATE passes SET balance = $1 WHERE id = $2`, pass.Balance, pass.ID); err != nil {
		return nil, NewStorageError(err, "failed to update balance")
	}

	txn, err := s.recorder.RecordTx(ctx, tx, userID, pass.ID, amount, models.TxKindTopUp, nil, nil)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, NewStorageError(err, "failed to commit top-up")
	}

	log.Printf("[PASS] Top-up of %d on pass %d for user %d, new balance %d", amount, pass.ID, userID, pass.Balance)
	s.audit.LogCredit(txn.ReferenceID, models.TxKindTopUp, pass.ID, userID, amount)
	return &pass, nil
}

// Deactivate explicitly retires the user's active pass. The pass and its
// transaction history stay queryable.
func (s *PassService) Deactivate(ctx context.Context, userID int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE passes SET is_active = false WHERE user_id = $1 AND is_active = true`, userID)
	if err != nil {
		return NewStorageError(err, "failed to deactivate pass")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return NewStorageError(err, "failed to deactivate pass")
	}
	if affected == 0 {
		return NewNotFoundError("no active pass for user %d", userID)
	}

	log.Printf("[PASS] Deactivated pass for user %d", userID)
	return nil
}

// ListPassesForUser returns every pass the user has held, newest first.
func (s *PassService) ListPassesForUser(ctx context.Context, userID int) ([]models.BusPass, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, balance, is_active, qr_token, created_at, expires_at
		FROM passes
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, NewStorageError(err, "failed to list passes")
	}
	defer rows.Close()

	var passes []models.BusPass
	for rows.Next() {
		var pass models.BusPass
		if err := rows.Scan(&pass.ID, &pass.UserID, &pass.Balance, &pass.IsActive,
			&pass.QRToken, &pass.CreatedAt, &pass.ExpiresAt); err != nil {
			return nil, NewStorageError(err, "failed to scan pass")
		}
		passes = append(passes, pass)
	}

	return passes, rows.Err()
}
