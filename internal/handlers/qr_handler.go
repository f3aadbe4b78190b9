package handlers

import (
	"net/http"

	"github.com/securebank/backend/internal/services"
)

type QRHandler struct {
	service   PaymentCodes
	validator *services.ValidationHelper
}

func NewQRHandler(service PaymentCodes) *QRHandler {
	return &QRHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// ResolveQRRequest carries a scanned code.
type ResolveQRRequest struct {
	QRData string `json:"qrData" validate:"required"`
}

// ResolveQR turns a scanned code back into its payment request
// @Summary Resolve QR Code
// @Description Resolve a scanned receive-payment code. Stored codes resolve once.
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ResolveQRRequest true "Scanned code"
// @Success 200 {object} services.PaymentRequest
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /qr/resolve [post]
func (h *QRHandler) ResolveQR(w http.ResponseWriter, r *http.Request) {
	var req ResolveQRRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	result, err := h.service.ResolveQR(r.Context(), req.QRData)
	if err != nil {
		services.SendAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
