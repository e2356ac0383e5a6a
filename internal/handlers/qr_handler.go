package handlers

import (
	"net/http"

	"github.com/transitpay/backend/internal/config"
	"github.com/transitpay/backend/internal/middleware"
	"github.com/transitpay/backend/internal/services"
)

type QRHandler struct {
	passes *services.PassService
	tokens *services.QRTokenService
	config *config.FareConfig
}

func NewQRHandler(passes *services.PassService, tokens *services.QRTokenService) *QRHandler {
	return &QRHandler{
		passes: passes,
		tokens: tokens,
		config: config.LoadFareConfig(),
	}
}

// GetQRCode renders the active pass's token as a QR image
// @Summary Pass QR code
// @Description Render the authenticated user's pass token as a PNG QR code
// @Tags passes
// @Produce png
// @Security BearerAuth
// @Success 200 {file} binary "PNG image"
// @Failure 404 {object} services.ErrorResponse "No active pass"
// @Router /qrcode [get]
func (h *QRHandler) GetQRCode(w http.ResponseWriter, r *http.Request) {
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

	image, err := h.tokens.Image(pass.QRToken, h.config.QRImageSize)
	if err != nil {
		services.SendErrorResponse(w, "Failed to render QR code", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(image)
}
