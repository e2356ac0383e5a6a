package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/transitpay/backend/internal/models"
)

func newFareServiceForTest(t *testing.T) (*FareService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	viper.Set("qr.secret_key", "test-qr-secret")

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	tokens := NewQRTokenService()
	recorder := NewTransactionService(db)
	catalog := NewCatalogService(db, nil)
	return NewFareService(db, recorder, tokens, catalog), mock, db
}

func passRow(id, userID int, balance int64, active bool, token string, expires time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "balance", "is_active", "qr_token", "expires_at"}).
		AddRow(id, userID, balance, active, token, expires)
}

func TestFareService_ComputeFare(t *testing.T) {
	service, mock, db := newFareServiceForTest(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("known route uses its configured fare", func(t *testing.T) {
		routeID := 5
		mock.ExpectQuery("SELECT fare FROM routes").
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"fare"}).AddRow(15))

		fare, err := service.ComputeFare(ctx, &routeID)
		assert.NoError(t, err)
		assert.Equal(t, int64(15), fare)
	})

	t.Run("unknown route falls back to the default fare", func(t *testing.T) {
		routeID := 999
		mock.ExpectQuery("SELECT fare FROM routes").
			WithArgs(999).
			WillReturnError(sql.ErrNoRows)

		fare, err := service.ComputeFare(ctx, &routeID)
		assert.NoError(t, err)
		assert.Equal(t, service.config.DefaultFare, fare)
	})

	t.Run("absent route uses the default fare", func(t *testing.T) {
		fare, err := service.ComputeFare(ctx, nil)
		assert.NoError(t, err)
		assert.Equal(t, service.config.DefaultFare, fare)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFareService_Validate(t *testing.T) {
	service, mock, db := newFareServiceForTest(t)
	defer db.Close()
	ctx := context.Background()

	mintToken := func(passID, userID int) string {
		token, err := service.tokens.Mint(passID, userID)
		assert.NoError(t, err)
		return token
	}

	t.Run("deducts the route fare atomically with its record", func(t *testing.T) {
		token := mintToken(10, 3)
		routeID := 5
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, user_id, balance, is_active, qr_token, expires_at").
			WithArgs(10).
			WillReturnRows(passRow(10, 3, 100, true, token, now.Add(time.Hour)))
		mock.ExpectQuery("SELECT fare FROM routes").
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"fare"}).AddRow(15))
		mock.ExpectExec("UPDATE passes SET balance").
			WithArgs(int64(85), 10).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), 3, 10, int64(15), models.TxKindFareDeduction, &routeID, nil, models.TxStatusCompleted).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, now))
		mock.ExpectCommit()

		result, err := service.Validate(ctx, token, &routeID, nil)
		assert.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 10, result.PassID)
		assert.Equal(t, 3, result.UserID)
		assert.Equal(t, int64(15), result.Fare)
		assert.Equal(t, int64(85), result.RemainingBalance)
		assert.NotEmpty(t, result.TransactionRef)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown route charges the default fare", func(t *testing.T) {
		token := mintToken(10, 3)
		routeID := 999
		now := time.Now()
		defaultFare := service.config.DefaultFare

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, user_id, balance, is_active, qr_token, expires_at").
			WithArgs(10).
			WillReturnRows(passRow(10, 3, defaultFare+50, true, token, now.Add(time.Hour)))
		mock.ExpectQuery("SELECT fare FROM routes").
			WithArgs(999).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectExec("UPDATE passes SET balance").
			WithArgs(int64(50), 10).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), 3, 10, defaultFare, models.TxKindFareDeduction, &routeID, nil, models.TxStatusCompleted).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(2, now))
		mock.ExpectCommit()

		result, err := service.Validate(ctx, token, &routeID, nil)
		assert.NoError(t, err)
		assert.Equal(t, defaultFare, result.Fare)
		assert.Equal(t, int64(50), result.RemainingBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("validation sees the pass's current balance, not mint-time state", func(t *testing.T) {
		// Token minted when the balance was 50; a fare has since brought it
		// to 40, and that is what the next validation must observe.
		token := mintToken(10, 3)
		routeID := 5
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, user_id, balance, is_active, qr_token, expires_at").
			WithArgs(10).
			WillReturnRows(passRow(10, 3, 40, true, token, now.Add(time.Hour)))
		mock.ExpectQuery("SELECT fare FROM routes").
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"fare"}).AddRow(15))
		mock.ExpectExec("UPDATE passes SET balance").
			WithArgs(int64(25), 10).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), 3, 10, int64(15), models.TxKindFareDeduction, &routeID, nil, models.TxStatusCompleted).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(3, now))
		mock.ExpectCommit()

		result, err := service.Validate(ctx, token, &routeID, nil)
		assert.NoError(t, err)
		assert.Equal(t, int64(25), result.RemainingBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed token never reaches storage", func(t *testing.T) {
		_, err := service.Validate(ctx, "not-a-token", nil, nil)
		assert.Error(t, err)
		assert.Equal(t, KindInvalidToken, KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("token for a deleted pass", func(t *testing.T) {
		token := mintToken(77, 3)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, user_id, balance, is_active, qr_token, expires_at").
			WithArgs(77).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := service.Validate(ctx, token, nil, nil)
		assert.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("token not matching the stored token is rejected", func(t *testing.T) {
		token := mintToken(10, 3)
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, user_id, balance, is_active, qr_token, expires_at").
			WithArgs(10).
			WillReturnRows(passRow(10, 3, 100, true, "some-other-token", now.Add(time.Hour)))
		mock.ExpectRollback()

		_, err := service.Validate(ctx, token, nil, nil)
		assert.Error(t, err)
		assert.Equal(t, KindInvalidToken, KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired pass deducts nothing and records nothing", func(t *testing.T) {
		token := mintToken(10, 3)
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, user_id, balance, is_active, qr_token, expires_at").
			WithArgs(10).
			WillReturnRows(passRow(10, 3, 100, true, token, now.Add(-time.Minute)))
		mock.ExpectRollback()

		_, err := service.Validate(ctx, token, nil, nil)
		assert.Error(t, err)
		assert.Equal(t, KindExpired, KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inactive pass is rejected", func(t *testing.T) {
		token := mintToken(10, 3)
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, user_id, balance, is_active, qr_token, expires_at").
			WithArgs(10).
			WillReturnRows(passRow(10, 3, 100, false, token, now.Add(time.Hour)))
		mock.ExpectRollback()

		_, err := service.Validate(ctx, token, nil, nil)
		assert.Error(t, err)
		assert.Equal(t, KindInactive, KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient balance deducts nothing", func(t *testing.T) {
		token := mintToken(10, 3)
		routeID := 5
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, user_id, balance, is_active, qr_token, expires_at").
			WithArgs(10).
			WillReturnRows(passRow(10, 3, 10, true, token, now.Add(time.Hour)))
		mock.ExpectQuery("SELECT fare FROM routes").
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"fare"}).AddRow(15))
		mock.ExpectRollback()

		_, err := service.Validate(ctx, token, &routeID, nil)
		assert.Error(t, err)
		assert.Equal(t, KindInsufficientBalance, KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit failure surfaces as transient storage", func(t *testing.T) {
		token := mintToken(10, 3)
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id, user_id, balance, is_active, qr_token, expires_at").
			WithArgs(10).
			WillReturnRows(passRow(10, 3, 500, true, token, now.Add(time.Hour)))
		mock.ExpectExec("UPDATE passes SET balance").
			WithArgs(500-service.config.DefaultFare, 10).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), 3, 10, service.config.DefaultFare, models.TxKindFareDeduction, nil, nil, models.TxStatusCompleted).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(4, now))
		mock.ExpectCommit().WillReturnError(sql.ErrConnDone)

		_, err := service.Validate(ctx, token, nil, nil)
		assert.Error(t, err)
		assert.Equal(t, KindTransientStorage, KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
