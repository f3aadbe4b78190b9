package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/securebank/backend/internal/apierror"
	"github.com/securebank/backend/internal/models"
)

// Both endpoints are LEFT JOINed so history rows carry account summaries.
const transactionSelect = `
	SELECT t.id, t.reference, t.from_account_id, t.to_account_id, t.amount, t.currency, t.type,
		t.description, t.status, t.metadata, t.created_at, t.updated_at,
		fa.account_number, fa.account_type, ta.account_number, ta.account_type
	FROM transactions t
	LEFT JOIN accounts fa ON fa.id = t.from_account_id
	LEFT JOIN accounts ta ON ta.id = t.to_account_id`

// TransactionLog is append-only: there is no update or delete path.
type TransactionLog struct {
	db *sql.DB
}

func NewTransactionLog(db *sql.DB) *TransactionLog {
	return &TransactionLog{db: db}
}

// Append writes one record inside the caller's unit of work.
func (l *TransactionLog) Append(ctx context.Context, tx *sql.Tx, t *models.Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, reference, from_account_id, to_account_id, amount, currency, type,
			description, status, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.Reference, t.FromAccountID, t.ToAccountID, t.Amount, t.Currency, t.Type,
		t.Description, t.Status, t.Metadata, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isNumericOverflow(err) {
			return apierror.Validation("Amount exceeds the maximum allowed")
		}
		return apierror.Storage("failed to record transaction", err)
	}
	return nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		t                    models.Transaction
		fromID, toID         sql.NullString
		fromNumber, fromType sql.NullString
		toNumber, toType     sql.NullString
	)

	err := row.Scan(
		&t.ID, &t.Reference, &fromID, &toID, &t.Amount, &t.Currency, &t.Type,
		&t.Description, &t.Status, &t.Metadata, &t.CreatedAt, &t.UpdatedAt,
		&fromNumber, &fromType, &toNumber, &toType,
	)
	if err != nil {
		return nil, err
	}

	if fromID.Valid {
		t.FromAccountID = &fromID.String
		t.FromAccount = &models.AccountSummary{ID: fromID.String, AccountNumber: fromNumber.String, AccountType: fromType.String}
	}
	if toID.Valid {
		t.ToAccountID = &toID.String
		t.ToAccount = &models.AccountSummary{ID: toID.String, AccountNumber: toNumber.String, AccountType: toType.String}
	}
	return &t, nil
}

// ListByAccount returns records where accountID is source or destination, newest first.
// The id tiebreak keeps repeated reads identical when timestamps collide.
func (l *TransactionLog) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.Transaction, error) {
	rows, err := l.db.QueryContext(ctx, transactionSelect+`
		WHERE t.from_account_id = $1 OR t.to_account_id = $1
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, apierror.Storage("failed to list transactions", err)
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0, limit)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, apierror.Storage("failed to read transaction", err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.Storage("failed to list transactions", err)
	}
	return transactions, nil
}

func (l *TransactionLog) CountByAccount(ctx context.Context, accountID string) (int, error) {
	var total int
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE from_account_id = $1 OR to_account_id = $1`, accountID).Scan(&total)
	if err != nil {
		return 0, apierror.Storage("failed to count transactions", err)
	}
	return total, nil
}

func (l *TransactionLog) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	row := l.db.QueryRowContext(ctx, transactionSelect+`
		WHERE t.reference = $1`, reference)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierror.NotFound("Transaction not found")
	}
	if err != nil {
		return nil, apierror.Storage("failed to get transaction", err)
	}
	return t, nil
}
