package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/transitpay/backend/internal/services"
)

// ValidateHandler is the point-of-use endpoint for conductor scanners.
// It is unauthenticated by design: trust is at the device level, and the
// presented QR token never acts as more than an identity reference.
type ValidateHandler struct {
	fares     *services.FareService
	validator *services.ValidationHelper
}

func NewValidateHandler(fares *services.FareService) *ValidateHandler {
	return &ValidateHandler{
		fares:     fares,
		validator: services.NewValidationHelper(),
	}
}

// Validate processes a scanned pass token
// @Summary Validate pass
// @Description Decode a scanned QR token, check the bound pass and atomically deduct the fare
// @Tags validation
// @Accept json
// @Produce json
// @Param request body object{token=string,route_id=int,bus_id=int} true "Validation request"
// @Success 200 {object} services.ValidationResult
// @Failure 400 {object} services.ErrorResponse "Bad token, inactive pass or insufficient balance"
// @Failure 403 {object} services.ErrorResponse "Pass expired"
// @Failure 404 {object} services.ErrorResponse "Pass not found"
// @Router /validate [post]
func (h *ValidateHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token   string `json:"token" validate:"required"`
		RouteID *int   `json:"route_id"`
		BusID   *int   `json:"bus_id"`
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

	result, err := h.fares.Validate(r.Context(), req.Token, req.RouteID, req.BusID)
	if err != nil {
		log.Printf("[VALIDATE] Rejected: %v", err)
		services.SendDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
