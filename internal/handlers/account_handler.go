package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/securebank/backend/internal/apierror"
	"github.com/securebank/backend/internal/middleware"
	"github.com/securebank/backend/internal/services"
	"github.com/shopspring/decimal"
)

type AccountHandler struct {
	accounts AccountQueries
	qr       PaymentCodes
}

func NewAccountHandler(accounts AccountQueries, qr PaymentCodes) *AccountHandler {
	return &AccountHandler{accounts: accounts, qr: qr}
}

// ListAccounts returns the caller's accounts
// @Summary List accounts
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Account
// @Failure 401 {object} services.ErrorResponse
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.ListAccounts(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		services.SendAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accounts)
}

// GetAccount returns one of the caller's accounts
// @Summary Get account
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Success 200 {object} models.Account
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{accountId} [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.GetAccount(r.Context(), chi.URLParam(r, "accountId"), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		services.SendAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// History pages through an account's records, newest first
// @Summary Account history
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size (max 100)" default(20)
// @Success 200 {object} models.TransactionPage
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{accountId}/transactions [get]
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	page, err := intQuery(r, "page", 1)
	if err != nil {
		services.SendAPIError(w, err)
		return
	}
	limit, err := intQuery(r, "limit", services.DefaultPageLimit)
	if err != nil {
		services.SendAPIError(w, err)
		return
	}

	result, err := h.accounts.History(r.Context(), chi.URLParam(r, "accountId"), middleware.UserIDFromContext(r.Context()), page, limit)
	if err != nil {
		services.SendAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// QRCode issues a receive-payment code for one of the caller's accounts
// @Summary Account QR code
// @Tags QR
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Param amount query string false "Requested amount"
// @Success 200 {object} object{qrCode=string,qrImage=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{accountId}/qr [get]
func (h *AccountHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	var amount *decimal.Decimal
	if raw := r.URL.Query().Get("amount"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil || !d.IsPositive() {
			services.SendErrorResponse(w, "amount must be a positive decimal", http.StatusBadRequest, nil)
			return
		}
		amount = &d
	}

	code, image, err := h.qr.GenerateAccountQR(r.Context(), chi.URLParam(r, "accountId"), middleware.UserIDFromContext(r.Context()), amount)
	if err != nil {
		services.SendAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"qrCode":  code,
		"qrImage": image,
	})
}

func intQuery(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierror.Validation(key + " must be a positive integer")
	}
	return n, nil
}
