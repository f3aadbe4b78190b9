package services

import (
	"context"
	"database/sql"

	"github.com/securebank/backend/internal/apierror"
	"github.com/securebank/backend/internal/database"
	"github.com/securebank/backend/internal/models"
	"go.opentelemetry.io/otel"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// AccountService is the read path over accounts and their history.
type AccountService struct {
	accounts *database.AccountStore
	records  *database.TransactionLog
}

func NewAccountService(db *sql.DB) *AccountService {
	return &AccountService{
		accounts: database.NewAccountStore(db),
		records:  database.NewTransactionLog(db),
	}
}

func (s *AccountService) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	return s.accounts.ListByOwner(ctx, userID)
}

func (s *AccountService) GetAccount(ctx context.Context, accountID, userID string) (*models.Account, error) {
	return s.accounts.GetForOwner(ctx, accountID, userID)
}

// History returns one page of the account's transactions. limit is clamped to MaxPageLimit.
func (s *AccountService) History(ctx context.Context, accountID, userID string, page, limit int) (*models.TransactionPage, error) {
	ctx, span := otel.Tracer("ledger").Start(ctx, "History")
	defer span.End()

	if page < 1 {
		return nil, apierror.Validation("page must be a positive integer")
	}
	if limit < 1 {
		return nil, apierror.Validation("limit must be a positive integer")
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	if _, err := s.accounts.GetForOwner(ctx, accountID, userID); err != nil {
		return nil, err
	}

	transactions, err := s.records.ListByAccount(ctx, accountID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	total, err := s.records.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &models.TransactionPage{
		Transactions: transactions,
		Pagination:   models.NewPagination(page, limit, total),
	}, nil
}

// GetTransaction is visible only when userID owns the source or the destination.
func (s *AccountService) GetTransaction(ctx context.Context, reference, userID string) (*models.Transaction, error) {
	txn, err := s.records.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	owned, err := s.accounts.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, a := range owned {
		if txn.Touches(a.ID) {
			return txn, nil
		}
	}
	return nil, apierror.NotFound("Transaction not found")
}
