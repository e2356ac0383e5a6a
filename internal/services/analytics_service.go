package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/transitpay/backend/internal/middleware"
	"github.com/transitpay/backend/internal/models"
)

// AnalyticsReport aggregates the ledger for operators. Everything here is
// derived from transactions and passes; nothing is stored separately.
type AnalyticsReport struct {
	TotalUsers      int            `json:"total_users"`
	ActivePasses    int            `json:"active_passes"`
	RevenueByKind   map[string]int64 `json:"revenue_by_kind"`
	FaresCollected  int64          `json:"fares_collected"`
	RidesByRoute    map[string]int `json:"rides_by_route"`
	TransactionCount int           `json:"transaction_count"`
}

type AnalyticsService struct {
	db   *sql.DB
	auth *AuthService
}

func NewAnalyticsService(db *sql.DB, auth *AuthService) *AnalyticsService {
	return &AnalyticsService{db: db, auth: auth}
}

// Report builds the aggregate view.
func (s *AnalyticsService) Report(ctx context.Context) (*AnalyticsReport, error) {
	report := &AnalyticsReport{
		RevenueByKind: make(map[string]int64),
		RidesByRoute:  make(map[string]int),
	}

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&report.TotalUsers)
	if err != nil {
		return nil, NewStorageError(err, "failed to count users")
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM passes WHERE is_active = true`).Scan(&report.ActivePasses)
	if err != nil {
		return nil, NewStorageError(err, "failed to count active passes")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*), COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE status = 'completed'
		GROUP BY kind`)
	if err != nil {
		return nil, NewStorageError(err, "failed to aggregate transactions")
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var count int
		var total int64
		if err := rows.Scan(&kind, &count, &total); err != nil {
			return nil, NewStorageError(err, "failed to scan aggregate")
		}
		report.TransactionCount += count
		report.RevenueByKind[kind] = total
		if kind == models.TxKindFareDeduction {
			report.FaresCollected = total
		}
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(err, "failed to aggregate transactions")
	}

	routeRows, err := s.db.QueryContext(ctx, `
		SELECT r.name, COUNT(*)
		FROM transactions t
		JOIN routes r ON r.id = t.route_id
		WHERE t.kind = 'fare_deduction' AND t.status = 'completed'
		GROUP BY r.name`)
	if err != nil {
		return nil, NewStorageError(err, "failed to aggregate rides by route")
	}
	defer routeRows.Close()

	for routeRows.Next() {
		var name string
		var count int
		if err := routeRows.Scan(&name, &count); err != nil {
			return nil, NewStorageError(err, "failed to scan route aggregate")
		}
		report.RidesByRoute[name] = count
	}

	return report, routeRows.Err()
}

// GetAnalytics handles the admin analytics endpoint. Unlike the system this
// replaces, the report requires an authenticated admin.
// @Summary Admin analytics
// @Description Aggregate ledger figures: users, active passes, revenue, rides per route
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AnalyticsReport
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/analytics [get]
func (s *AnalyticsService) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	role, err := s.auth.UserRole(r.Context(), userID)
	if err != nil {
		SendErrorResponse(w, "Failed to resolve user", HTTPStatus(err), nil)
		return
	}
	if role != models.RoleAdmin {
		log.Printf("[ADMIN] Analytics denied for non-admin user %d", userID)
		SendErrorResponse(w, "Admin access required", http.StatusForbidden, nil)
		return
	}

	report, err := s.Report(r.Context())
	if err != nil {
		log.Printf("[ADMIN] Analytics report failed: %v", err)
		SendErrorResponse(w, "Failed to build report", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
