package services

import (
	"errors"
	"testing"

	"github.com/securebank/backend/internal/apierror"
	"github.com/securebank/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transferRecord() *models.Transaction {
	from, to := accountA, accountB
	return &models.Transaction{
		ID:            "7d1f6a2b-3c4d-4e5f-8a9b-0c1d2e3f4a5b",
		Reference:     "TXN1709294400000AB12CD34",
		FromAccountID: &from,
		ToAccountID:   &to,
		Amount:        decimal.RequireFromString("250.00"),
		Currency:      "USD",
		Type:          models.TransactionTypeTransfer,
		Description:   "Rent",
		Status:        models.TransactionStatusCompleted,
		CreatedAt:     fixedNow,
		UpdatedAt:     fixedNow,
		FromAccount:   &models.AccountSummary{ID: from, AccountNumber: "ACC1709294400000111", AccountType: "checking"},
		ToAccount:     &models.AccountSummary{ID: to, AccountNumber: "ACC1709294400000222", AccountType: "savings"},
	}
}

func TestISO20022Service_Export(t *testing.T) {
	service := NewISO20022Service()

	t.Run("pacs.008 for a transfer", func(t *testing.T) {
		doc, err := service.Export(transferRecord(), MessagePacs008)
		require.NoError(t, err)
		assert.Contains(t, doc, "<?xml")
		assert.Contains(t, doc, "TXN1709294400000AB12CD34")
		assert.Contains(t, doc, "ACC1709294400000111")
		assert.Contains(t, doc, "ACC1709294400000222")
		assert.Contains(t, doc, "SLEV")
	})

	t.Run("default message type is pacs.008", func(t *testing.T) {
		doc, err := service.Export(transferRecord(), "")
		require.NoError(t, err)
		assert.Contains(t, doc, "INDA")
	})

	t.Run("deposits cannot be exported as pacs.008", func(t *testing.T) {
		txn := transferRecord()
		txn.Type = models.TransactionTypeDeposit
		txn.FromAccountID, txn.FromAccount = nil, nil

		_, err := service.Export(txn, MessagePacs008)
		assert.True(t, errors.Is(err, apierror.ErrValidation))
	})

	t.Run("pacs.002 status report", func(t *testing.T) {
		doc, err := service.Export(transferRecord(), MessagePacs002)
		require.NoError(t, err)
		assert.Contains(t, doc, "ACSC")
	})

	t.Run("unknown message type", func(t *testing.T) {
		_, err := service.Export(transferRecord(), "camt.053")
		assert.True(t, errors.Is(err, apierror.ErrValidation))
	})
}
