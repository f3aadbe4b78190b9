package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/securebank/backend/internal/apierror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountRowColumns = []string{
	"id", "user_id", "account_number", "account_type", "balance", "currency", "status",
	"overdraft_limit", "interest_rate", "created_at", "updated_at",
}

func TestAccountStore_GetForOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewAccountStore(db)
	ctx := context.Background()
	accountID := uuid.NewString()
	userID := uuid.NewString()

	t.Run("owned account", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(accountID, userID).
			WillReturnRows(sqlmock.NewRows(accountRowColumns).
				AddRow(accountID, userID, "ACC1700000000000123", "checking", "1000.00", "USD", "active", "0", "0", now, now))

		account, err := store.GetForOwner(ctx, accountID, userID)
		require.NoError(t, err)
		assert.Equal(t, "ACC1700000000000123", account.AccountNumber)
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(1000)))
		assert.True(t, account.IsActive())
	})

	t.Run("not owned or missing", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(accountID, userID).
			WillReturnRows(sqlmock.NewRows(accountRowColumns))

		_, err := store.GetForOwner(ctx, accountID, userID)
		assert.True(t, errors.Is(err, apierror.ErrNotFound))
	})

	t.Run("malformed id never reaches the database", func(t *testing.T) {
		_, err := store.GetForOwner(ctx, "not-a-uuid", userID)
		assert.True(t, errors.Is(err, apierror.ErrNotFound))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountStore_ListByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewAccountStore(db)
	userID := uuid.NewString()
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE user_id = \\$1 ORDER BY created_at ASC").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(accountRowColumns).
			AddRow(uuid.NewString(), userID, "ACC1", "checking", "1000.00", "USD", "active", "0", "0", now, now).
			AddRow(uuid.NewString(), userID, "ACC2", "savings", "0.00", "USD", "active", "0", "0.02", now, now))

	accounts, err := store.ListByOwner(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "savings", accounts[1].AccountType)
	assert.True(t, accounts[1].InterestRate.Equal(decimal.RequireFromString("0.02")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountStore_Debit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewAccountStore(db)
	ctx := context.Background()
	accountID := uuid.NewString()
	amount := decimal.NewFromInt(100)

	t.Run("covered by balance", func(t *testing.T) {
		mock.ExpectBegin()
		tx, err := db.Begin()
		require.NoError(t, err)

		mock.ExpectExec("UPDATE accounts SET balance = balance - \\$1, updated_at = NOW\\(\\) WHERE id = \\$2 AND balance >= \\$1").
			WithArgs(amount, accountID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.Debit(ctx, tx, accountID, amount))
	})

	t.Run("guard rejects overdraw", func(t *testing.T) {
		mock.ExpectBegin()
		tx, err := db.Begin()
		require.NoError(t, err)

		mock.ExpectExec("UPDATE accounts SET balance = balance - \\$1").
			WithArgs(amount, accountID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = store.Debit(ctx, tx, accountID, amount)
		assert.True(t, errors.Is(err, apierror.ErrInsufficientFunds))
	})

	t.Run("driver error is a storage failure", func(t *testing.T) {
		mock.ExpectBegin()
		tx, err := db.Begin()
		require.NoError(t, err)

		mock.ExpectExec("UPDATE accounts SET balance = balance - \\$1").
			WithArgs(amount, accountID).
			WillReturnError(errors.New("connection reset"))

		err = store.Debit(ctx, tx, accountID, amount)
		assert.Equal(t, apierror.ErrStorage, apierror.CodeOf(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountStore_Credit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewAccountStore(db)
	ctx := context.Background()
	accountID := uuid.NewString()
	amount := decimal.RequireFromString("99999999999999999.99")

	t.Run("numeric overflow is a validation error", func(t *testing.T) {
		mock.ExpectBegin()
		tx, err := db.Begin()
		require.NoError(t, err)

		mock.ExpectExec("UPDATE accounts SET balance = balance \\+ \\$1, updated_at = NOW\\(\\) WHERE id = \\$2").
			WithArgs(amount, accountID).
			WillReturnError(&pq.Error{Code: "22003", Message: "numeric field overflow"})

		err = store.Credit(ctx, tx, accountID, amount)
		assert.True(t, errors.Is(err, apierror.ErrValidation))
	})

	t.Run("other driver errors stay storage failures", func(t *testing.T) {
		mock.ExpectBegin()
		tx, err := db.Begin()
		require.NoError(t, err)

		mock.ExpectExec("UPDATE accounts SET balance = balance \\+ \\$1").
			WithArgs(amount, accountID).
			WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access"})

		err = store.Credit(ctx, tx, accountID, amount)
		assert.Equal(t, apierror.ErrStorage, apierror.CodeOf(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountStore_LockForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewAccountStore(db)
	accountID := uuid.NewString()
	now := time.Now()

	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id = \\$1 FOR UPDATE").
		WithArgs(accountID).
		WillReturnRows(sqlmock.NewRows(accountRowColumns).
			AddRow(accountID, uuid.NewString(), "ACC1", "checking", "50.00", "USD", "frozen", "0", "0", now, now))

	account, err := store.LockForUpdate(context.Background(), tx, accountID)
	require.NoError(t, err)
	assert.False(t, account.IsActive())
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(50)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
