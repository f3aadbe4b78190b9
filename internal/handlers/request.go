package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/securebank/backend/internal/models"
	"github.com/securebank/backend/internal/services"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1_048_576

// LedgerOperations is the write side of the ledger.
type LedgerOperations interface {
	Deposit(ctx context.Context, in services.DepositInput, callerID string) (*models.Transaction, error)
	Withdraw(ctx context.Context, in services.WithdrawInput, callerID string) (*models.Transaction, error)
	Transfer(ctx context.Context, in services.TransferInput, callerID string) (*models.Transaction, error)
}

// AccountQueries is the read side of accounts and their history.
type AccountQueries interface {
	ListAccounts(ctx context.Context, userID string) ([]models.Account, error)
	GetAccount(ctx context.Context, accountID, userID string) (*models.Account, error)
	History(ctx context.Context, accountID, userID string, page, limit int) (*models.TransactionPage, error)
	GetTransaction(ctx context.Context, reference, userID string) (*models.Transaction, error)
}

type PaymentCodes interface {
	GenerateAccountQR(ctx context.Context, accountID, userID string, amount *decimal.Decimal) (string, string, error)
	ResolveQR(ctx context.Context, qrData string) (*services.PaymentRequest, error)
}

type Authentication interface {
	Register(ctx context.Context, req services.RegisterRequest) (*services.AuthResponse, error)
	Login(ctx context.Context, req services.LoginRequest) (*services.AuthResponse, error)
	Logout(ctx context.Context, token string, expiresAt time.Time)
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
}

// decodeJSON reads exactly one JSON object into dst and validates it. It writes the 400 itself and
// reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, validator *services.ValidationHelper, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	if err := validator.ValidateStruct(dst); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
