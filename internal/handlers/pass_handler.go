package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/transitpay/backend/internal/middleware"
	"github.com/transitpay/backend/internal/models"
	"github.com/transitpay/backend/internal/services"
)

type PassHandler struct {
	passes       *services.PassService
	transactions *services.TransactionService
	validator    *services.ValidationHelper
}

func NewPassHandler(passes *services.PassService, transactions *services.TransactionService) *PassHandler {
	return &PassHandler{
		passes:       passes,
		transactions: transactions,
		validator:    services.NewValidationHelper(),
	}
}

// CreatePass issues a new pass for the authenticated user
// @Summary Create pass
// @Description Create a new active bus pass, optionally loaded with an initial balance
// @Tags passes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{initial_balance=int64} true "Pass creation request"
// @Success 201 {object} models.BusPass
// @Failure 400 {object} services.ErrorResponse "Negative balance or pass already active"
// @Failure 401 {object} services.ErrorResponse
// @Router /passes [post]
func (h *PassHandler) CreatePass(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		InitialBalance int64 `json:"initial_balance" validate:"min=0"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	pass, err := h.passes.CreatePass(r.Context(), userID, req.InitialBalance)
	if err != nil {
		log.Printf("[PASS] Create failed for user %d: %v", userID, err)
		services.SendDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(pass)
}

// TopUp credits the authenticated user's active pass
// @Summary Top up pass
// @Description Add funds to the active pass; the credit and its ledger record commit together
// @Tags passes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{amount=int64} true "Top-up request"
// @Success 200 {object} models.BusPass
// @Failure 400 {object} services.ErrorResponse "Non-positive amount"
// @Failure 404 {object} services.ErrorResponse "No active pass"
// @Router /passes/topup [post]
func (h *PassHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Amount int64 `json:"amount"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	pass, err := h.passes.TopUp(r.Context(), userID, req.Amount)
	if err != nil {
		log.Printf("[PASS] Top-up failed for user %d: %v", userID, err)
		services.SendDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pass)
}

// GetActivePass returns the authenticated user's active pass
// @Summary Get active pass
// @Description Fetch the user's active pass; expired passes are still returned for history
// @Tags passes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.BusPass
// @Failure 404 {object} services.ErrorResponse
// @Router /user/pass [get]
func (h *PassHandler) GetActivePass(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	pass, err := h.passes.GetActivePass(r.Context(), userID)
	if err != nil {
		services.SendDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pass)
}

// Deactivate retires the authenticated user's active pass
// @Summary Deactivate pass
// @Description Explicitly deactivate the active pass; history stays queryable
// @Tags passes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 404 {object} services.ErrorResponse
// @Router /passes/deactivate [post]
func (h *PassHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	if err := h.passes.Deactivate(r.Context(), userID); err != nil {
		services.SendDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Pass deactivated"})
}

// ListTransactions returns the authenticated user's transaction history
// @Summary List transactions
// @Description List the user's ledger entries, newest first
// @Tags passes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Transaction
// @Router /user/transactions [get]
func (h *PassHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	txns, err := h.transactions.ListForUser(r.Context(), userID)
	if err != nil {
		services.SendDomainError(w, err)
		return
	}
	if txns == nil {
		txns = []models.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(txns)
}
