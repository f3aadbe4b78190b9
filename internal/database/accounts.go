package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/securebank/backend/internal/apierror"
	"github.com/securebank/backend/internal/models"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, user_id, account_number, account_type, balance, currency, status,
	overdraft_limit, interest_rate, created_at, updated_at`

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID, &a.UserID, &a.AccountNumber, &a.AccountType, &a.Balance, &a.Currency, &a.Status,
		&a.OverdraftLimit, &a.InterestRate, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new account. q is usually the registration transaction.
func (s *AccountStore) Create(ctx context.Context, q Querier, a *models.Account) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, account_number, account_type, balance, currency, status,
			overdraft_limit, interest_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.UserID, a.AccountNumber, a.AccountType, a.Balance, a.Currency, a.Status,
		a.OverdraftLimit, a.InterestRate, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return apierror.Storage("failed to create account", err)
	}
	return nil
}

// ListByOwner returns every account owned by userID, oldest first.
func (s *AccountStore) ListByOwner(ctx context.Context, userID string) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, apierror.Storage("failed to list accounts", err)
	}
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, apierror.Storage("failed to read account", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.Storage("failed to list accounts", err)
	}
	return accounts, nil
}

// GetForOwner returns NotFound both for a missing account and for one owned by someone else.
func (s *AccountStore) GetForOwner(ctx context.Context, id, userID string) (*models.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apierror.NotFound("Account not found")
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1 AND user_id = $2`, id, userID)

	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierror.NotFound("Account not found")
	}
	if err != nil {
		return nil, apierror.Storage("failed to get account", err)
	}
	return a, nil
}

// LockForUpdate reads an account and holds its row lock until tx ends.
func (s *AccountStore) LockForUpdate(ctx context.Context, tx *sql.Tx, id string) (*models.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apierror.NotFound("Account not found")
	}

	row := tx.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
		FOR UPDATE`, id)

	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierror.NotFound("Account not found")
	}
	if err != nil {
		return nil, apierror.Storage("failed to lock account", err)
	}
	return a, nil
}

// Debit subtracts amount only while the balance covers it. Zero affected rows means InsufficientFunds.
func (s *AccountStore) Debit(ctx context.Context, tx *sql.Tx, id string, amount decimal.Decimal) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2 AND balance >= $1`, amount, id)
	if err != nil {
		return apierror.Storage("failed to debit account", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.Storage("failed to debit account", err)
	}
	if rowsAffected == 0 {
		return apierror.InsufficientFunds()
	}
	return nil
}

func (s *AccountStore) Credit(ctx context.Context, tx *sql.Tx, id string, amount decimal.Decimal) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2`, amount, id)
	if err != nil {
		if isNumericOverflow(err) {
			return apierror.Validation("Resulting balance exceeds the maximum allowed")
		}
		return apierror.Storage("failed to credit account", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.Storage("failed to credit account", err)
	}
	if rowsAffected == 0 {
		return apierror.Storage("failed to credit account", fmt.Errorf("account %s vanished inside transaction", id))
	}
	return nil
}

func isNumericOverflow(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == numericOverflow
}
