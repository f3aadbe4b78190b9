package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/securebank/backend/internal/middleware"
	"github.com/securebank/backend/internal/models"
	"github.com/securebank/backend/internal/services"
)

// TransactionResponse wraps a committed ledger record.
type TransactionResponse struct {
	Message     string              `json:"message" example:"Transfer completed successfully"`
	Transaction *models.Transaction `json:"transaction"`
}

type TransactionHandler struct {
	ledger    LedgerOperations
	accounts  AccountQueries
	iso       *services.ISO20022Service
	validator *services.ValidationHelper
}

func NewTransactionHandler(ledger LedgerOperations, accounts AccountQueries, iso *services.ISO20022Service) *TransactionHandler {
	return &TransactionHandler{
		ledger:    ledger,
		accounts:  accounts,
		iso:       iso,
		validator: services.NewValidationHelper(),
	}
}

// Deposit credits one of the caller's accounts
// @Summary Deposit funds
// @Description Credit an account owned by the caller and record a completed deposit
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.DepositInput true "Deposit request"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /transactions/deposit [post]
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req services.DepositInput
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	txn, err := h.ledger.Deposit(r.Context(), req, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		services.SendAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, TransactionResponse{Message: "Deposit completed successfully", Transaction: txn})
}

// Withdraw debits one of the caller's accounts
// @Summary Withdraw funds
// @Description Debit an account owned by the caller; the balance must cover the amount
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.WithdrawInput true "Withdrawal request"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /transactions/withdraw [post]
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req services.WithdrawInput
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	txn, err := h.ledger.Withdraw(r.Context(), req, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		services.SendAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, TransactionResponse{Message: "Withdrawal completed successfully", Transaction: txn})
}

// Transfer moves funds between two accounts
// @Summary Transfer funds
// @Description Move funds from an account owned by the caller to any active account
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.TransferInput true "Transfer request"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /transactions/transfer [post]
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req services.TransferInput
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	txn, err := h.ledger.Transfer(r.Context(), req, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		services.SendAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, TransactionResponse{Message: "Transfer completed successfully", Transaction: txn})
}

// GetTransaction looks up one record by reference
// @Summary Get transaction
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param reference path string true "Transaction reference"
// @Success 200 {object} models.Transaction
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /transactions/{reference} [get]
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.accounts.GetTransaction(r.Context(), chi.URLParam(r, "reference"), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		services.SendAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, txn)
}

// ExportISO20022 renders a record as an ISO 20022 message
// @Summary Export as ISO 20022
// @Description pacs.008 for transfers, pacs.002 status report for any record
// @Tags Transactions
// @Produce xml
// @Security BearerAuth
// @Param reference path string true "Transaction reference"
// @Param type query string false "pacs.008 (default) or pacs.002"
// @Success 200 {string} string "XML document"
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /transactions/{reference}/iso20022 [get]
func (h *TransactionHandler) ExportISO20022(w http.ResponseWriter, r *http.Request) {
	txn, err := h.accounts.GetTransaction(r.Context(), chi.URLParam(r, "reference"), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		services.SendAPIError(w, err)
		return
	}

	messageType := r.URL.Query().Get("type")
	switch messageType {
	case "pacs.008":
		messageType = services.MessagePacs008
	case "pacs.002":
		messageType = services.MessagePacs002
	}

	doc, err := h.iso.Export(txn, messageType)
	if err != nil {
		services.SendAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}
