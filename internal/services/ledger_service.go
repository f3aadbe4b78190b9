package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/securebank/backend/internal/apierror"
	"github.com/securebank/backend/internal/audit"
	"github.com/securebank/backend/internal/database"
	"github.com/securebank/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxDescriptionLength = 500

var (
	minAmount = decimal.RequireFromString("0.01")
	// balances are NUMERIC(19,2)
	maxAmount = decimal.RequireFromString("99999999999999999.99")
)

// DepositInput is the body of POST /api/transactions/deposit.
type DepositInput struct {
	AccountID   string          `json:"accountId" validate:"required,uuid" example:"5f0c1f2e-8a3c-4b53-9a53-3f1c2d7e9b10"`
	Amount      decimal.Decimal `json:"amount" validate:"required,gte=0.01,lte=99999999999999999.99" swaggertype:"string" example:"100.00"`
	Description string          `json:"description" validate:"required,max=500" example:"Cash deposit"`
	Metadata    models.Metadata `json:"metadata,omitempty"`
}

// WithdrawInput is the body of POST /api/transactions/withdraw.
type WithdrawInput struct {
	AccountID   string          `json:"accountId" validate:"required,uuid" example:"5f0c1f2e-8a3c-4b53-9a53-3f1c2d7e9b10"`
	Amount      decimal.Decimal `json:"amount" validate:"required,gte=0.01,lte=99999999999999999.99" swaggertype:"string" example:"40.00"`
	Description string          `json:"description" validate:"required,max=500" example:"ATM withdrawal"`
	Metadata    models.Metadata `json:"metadata,omitempty"`
}

// TransferInput is the body of POST /api/transactions/transfer.
type TransferInput struct {
	FromAccountID string          `json:"fromAccountId" validate:"required,uuid"`
	ToAccountID   string          `json:"toAccountId" validate:"required,uuid"`
	Amount        decimal.Decimal `json:"amount" validate:"required,gte=0.01,lte=99999999999999999.99" swaggertype:"string" example:"250.00"`
	Description   string          `json:"description" validate:"required,max=500" example:"Rent"`
	Metadata      models.Metadata `json:"metadata,omitempty"`
}

// LedgerService applies deposits, withdrawals and transfers. Each call is one SQL transaction:
// the balance change and its transaction record commit together or not at all.
type LedgerService struct {
	db       *sql.DB
	accounts *database.AccountStore
	records  *database.TransactionLog
	audit    *audit.Logger
	now      func() time.Time
}

func NewLedgerService(db *sql.DB, auditLogger *audit.Logger) *LedgerService {
	return &LedgerService{
		db:       db,
		accounts: database.NewAccountStore(db),
		records:  database.NewTransactionLog(db),
		audit:    auditLogger,
		now:      time.Now,
	}
}

// Deposit credits an account owned by callerID.
func (s *LedgerService) Deposit(ctx context.Context, in DepositInput, callerID string) (*models.Transaction, error) {
	ctx, span := otel.Tracer("ledger").Start(ctx, "Deposit")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", in.AccountID))

	description, err := checkRequest(in.Amount, in.Description, in.Metadata)
	if err != nil {
		return nil, s.fail(span, models.TransactionTypeDeposit, callerID, in.AccountID, in.Amount, err)
	}

	txn, err := s.inTx(ctx, func(tx *sql.Tx) (*models.Transaction, error) {
		account, err := s.accounts.LockForUpdate(ctx, tx, in.AccountID)
		if err != nil {
			return nil, err
		}
		if account.UserID != callerID {
			return nil, apierror.NotFound("Account not found")
		}
		if !account.IsActive() {
			return nil, apierror.New(apierror.ErrInactiveAccount, "Account is not active")
		}

		if err := s.accounts.Credit(ctx, tx, account.ID, in.Amount); err != nil {
			return nil, err
		}

		record := s.newRecord(models.TransactionTypeDeposit, in.Amount, account.Currency, description, in.Metadata)
		record.ToAccountID = &account.ID
		return record, s.records.Append(ctx, tx, record)
	})
	if err != nil {
		return nil, s.fail(span, models.TransactionTypeDeposit, callerID, in.AccountID, in.Amount, err)
	}

	s.audit.LogLedger(txn.Type, txn.Reference, callerID, "", in.AccountID, txn.Amount)
	return txn, nil
}

// Withdraw debits an account owned by callerID. The balance must cover the amount.
func (s *LedgerService) Withdraw(ctx context.Context, in WithdrawInput, callerID string) (*models.Transaction, error) {
	ctx, span := otel.Tracer("ledger").Start(ctx, "Withdraw")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", in.AccountID))

	description, err := checkRequest(in.Amount, in.Description, in.Metadata)
	if err != nil {
		return nil, s.fail(span, models.TransactionTypeWithdrawal, callerID, in.AccountID, in.Amount, err)
	}

	txn, err := s.inTx(ctx, func(tx *sql.Tx) (*models.Transaction, error) {
		account, err := s.accounts.LockForUpdate(ctx, tx, in.AccountID)
		if err != nil {
			return nil, err
		}
		if account.UserID != callerID {
			return nil, apierror.NotFound("Account not found")
		}
		if account.Balance.LessThan(in.Amount) {
			return nil, apierror.InsufficientFunds()
		}
		if !account.IsActive() {
			return nil, apierror.New(apierror.ErrInactiveAccount, "Account is not active")
		}

		if err := s.accounts.Debit(ctx, tx, account.ID, in.Amount); err != nil {
			return nil, err
		}

		record := s.newRecord(models.TransactionTypeWithdrawal, in.Amount, account.Currency, description, in.Metadata)
		record.FromAccountID = &account.ID
		return record, s.records.Append(ctx, tx, record)
	})
	if err != nil {
		return nil, s.fail(span, models.TransactionTypeWithdrawal, callerID, in.AccountID, in.Amount, err)
	}

	s.audit.LogLedger(txn.Type, txn.Reference, callerID, in.AccountID, "", txn.Amount)
	return txn, nil
}

// Transfer moves funds from an account owned by callerID to any active account.
func (s *LedgerService) Transfer(ctx context.Context, in TransferInput, callerID string) (*models.Transaction, error) {
	ctx, span := otel.Tracer("ledger").Start(ctx, "Transfer")
	defer span.End()
	span.SetAttributes(
		attribute.String("account.from", in.FromAccountID),
		attribute.String("account.to", in.ToAccountID),
	)

	description, err := checkRequest(in.Amount, in.Description, in.Metadata)
	if err != nil {
		return nil, s.fail(span, models.TransactionTypeTransfer, callerID, in.FromAccountID, in.Amount, err)
	}
	if in.FromAccountID == in.ToAccountID {
		err := apierror.Conflict("Cannot transfer to the same account")
		return nil, s.fail(span, models.TransactionTypeTransfer, callerID, in.FromAccountID, in.Amount, err)
	}

	txn, err := s.inTx(ctx, func(tx *sql.Tx) (*models.Transaction, error) {
		locked, err := s.lockInOrder(ctx, tx, in.FromAccountID, in.ToAccountID)
		if err != nil {
			return nil, err
		}

		from, to := locked[in.FromAccountID], locked[in.ToAccountID]
		if from == nil || from.UserID != callerID {
			return nil, apierror.NotFound("Source account not found or not owned by user")
		}
		if to == nil {
			return nil, apierror.NotFound("Destination account not found")
		}
		if from.Balance.LessThan(in.Amount) {
			return nil, apierror.InsufficientFunds()
		}
		if !from.IsActive() || !to.IsActive() {
			return nil, apierror.New(apierror.ErrInactiveAccount, "One or both accounts are not active")
		}
		if from.Currency != to.Currency {
			return nil, apierror.Validation("Accounts must share a currency")
		}

		if err := s.accounts.Debit(ctx, tx, from.ID, in.Amount); err != nil {
			return nil, err
		}
		if err := s.accounts.Credit(ctx, tx, to.ID, in.Amount); err != nil {
			return nil, err
		}

		record := s.newRecord(models.TransactionTypeTransfer, in.Amount, from.Currency, description, in.Metadata)
		record.FromAccountID = &from.ID
		record.ToAccountID = &to.ID
		return record, s.records.Append(ctx, tx, record)
	})
	if err != nil {
		return nil, s.fail(span, models.TransactionTypeTransfer, callerID, in.FromAccountID, in.Amount, err)
	}

	s.audit.LogLedger(txn.Type, txn.Reference, callerID, in.FromAccountID, in.ToAccountID, txn.Amount)
	return txn, nil
}

// inTx runs fn inside one SQL transaction and commits only if fn succeeds.
func (s *LedgerService) inTx(ctx context.Context, fn func(tx *sql.Tx) (*models.Transaction, error)) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.Storage("failed to begin transaction", err)
	}
	defer tx.Rollback()

	txn, err := fn(tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.Storage("failed to commit transaction", err)
	}
	return txn, nil
}

// lockInOrder takes row locks in ascending id order so concurrent opposite transfers cannot deadlock.
// A missing account maps to nil so the caller decides which one to report first.
func (s *LedgerService) lockInOrder(ctx context.Context, tx *sql.Tx, a, b string) (map[string]*models.Account, error) {
	first, second := a, b
	if first > second {
		first, second = second, first
	}

	locked := make(map[string]*models.Account, 2)
	for _, id := range []string{first, second} {
		account, err := s.accounts.LockForUpdate(ctx, tx, id)
		if err != nil && apierror.CodeOf(err) != apierror.ErrNotFound {
			return nil, err
		}
		locked[id] = account
	}
	return locked, nil
}

func (s *LedgerService) newRecord(txType string, amount decimal.Decimal, currency, description string, metadata models.Metadata) *models.Transaction {
	now := s.now().UTC()
	return &models.Transaction{
		ID:          uuid.NewString(),
		Reference:   newReference(now),
		Amount:      amount,
		Currency:    currency,
		Type:        txType,
		Description: description,
		Status:      models.TransactionStatusCompleted,
		Metadata:    metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *LedgerService) fail(span trace.Span, txType, callerID, accountID string, amount decimal.Decimal, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.audit.LogError(txType, callerID, accountID, amount, err)

	if apierror.CodeOf(err) == apierror.ErrStorage {
		logrus.WithError(err).WithFields(logrus.Fields{
			"type":    txType,
			"user_id": callerID,
		}).Error("Ledger operation rolled back")
	}
	return err
}

// checkRequest enforces amount and description rules and returns the trimmed description.
func checkRequest(amount decimal.Decimal, description string, metadata models.Metadata) (string, error) {
	if amount.LessThan(minAmount) {
		return "", apierror.Validation("Amount must be at least 0.01")
	}
	if amount.GreaterThan(maxAmount) {
		return "", apierror.Validation("Amount must be at most " + maxAmount.StringFixed(2))
	}
	if !amount.Equal(amount.Truncate(2)) {
		return "", apierror.Validation("Amount must have at most two decimal places")
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return "", apierror.Validation("Description is required")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return "", apierror.Validation(fmt.Sprintf("Description must be at most %d characters", maxDescriptionLength))
	}

	if err := metadata.Validate(); err != nil {
		return "", apierror.Validation(err.Error())
	}
	return description, nil
}

// newReference returns TXN<unix-ms><8 hex>.
func newReference(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("TXN%d%s", now.UnixMilli(), suffix)
}
