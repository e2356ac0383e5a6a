package services

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/transitpay/backend/internal/models"
)

// row is the subset of sql.DB/sql.Tx the recorder needs, so an append can
// run inside the caller's transaction and commit or roll back with it.
type row interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TransactionService is the single writer of ledger rows. Records are pure
// appends; a recorded row is never updated or deleted.
type TransactionService struct {
	db *sql.DB
}

func NewTransactionService(db *sql.DB) *TransactionService {
	return &TransactionService{db: db}
}

// RecordTx appends one ledger row inside the caller's database transaction.
// Amount is a positive magnitude; the sign is implied by kind. If the insert
// fails the caller's transaction must roll back, so the balance mutation it
// accompanies never persists without its record.
func (s *TransactionService) RecordTx(ctx context.Context, q row, userID, passID int, amount int64, kind string, routeID, busID *int) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, NewValidationError("transaction amount must be positive, got %d", amount)
	}

	txn := &models.Transaction{
		ReferenceID: uuid.NewString(),
		UserID:      userID,
		PassID:      passID,
		Amount:      amount,
		Kind:        kind,
		RouteID:     routeID,
		BusID:       busID,
		Status:      models.TxStatusCompleted,
	}

	err := q.QueryRowContext(ctx, `
		INSERT INTO transactions (reference_id, user_id, pass_id, amount, kind, route_id, bus_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		txn.ReferenceID, userID, passID, amount, kind, routeID, busID, txn.Status,
	).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return nil, NewStorageError(err, "failed to record %s transaction", kind)
	}

	return txn, nil
}

// ListForUser returns the user's transactions, newest first.
func (s *TransactionService) ListForUser(ctx context.Context, userID int) ([]models.Transaction, error) {
	return s.list(ctx, `
		SELECT id, reference_id, user_id, pass_id, amount, kind, route_id, bus_id, status, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
}

// ListForPass returns one pass's transactions, newest first.
func (s *TransactionService) ListForPass(ctx context.Context, passID int) ([]models.Transaction, error) {
	return s.list(ctx, `
		SELECT id, reference_id, user_id, pass_id, amount, kind, route_id, bus_id, status, created_at
		FROM transactions
		WHERE pass_id = $1
		ORDER BY created_at DESC, id DESC`, passID)
}

// SumForPass returns the signed sum of a pass's completed transactions.
// At every observation point this must equal the pass's stored balance.
func (s *TransactionService) SumForPass(ctx context.Context, passID int) (int64, error) {
	var sum int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN kind = 'fare_deduction' THEN -amount ELSE amount END), 0)
		FROM transactions
		WHERE pass_id = $1 AND status = 'completed'`, passID).Scan(&sum)
	if err != nil {
		return 0, NewStorageError(err, "failed to sum transactions for pass %d", passID)
	}
	return sum, nil
}

func (s *TransactionService) list(ctx context.Context, query string, arg any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, NewStorageError(err, "failed to list transactions")
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var txn models.Transaction
		if err := rows.Scan(&txn.ID, &txn.ReferenceID, &txn.UserID, &txn.PassID,
			&txn.Amount, &txn.Kind, &txn.RouteID, &txn.BusID, &txn.Status, &txn.CreatedAt); err != nil {
			return nil, NewStorageError(err, "failed to scan transaction")
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}
