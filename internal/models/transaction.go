package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeTransfer   = "transfer"
	TransactionTypePayment    = "payment"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Transaction is an immutable record of one monetary movement.
type Transaction struct {
	ID            string          `json:"id" db:"id"`
	Reference     string          `json:"reference" db:"reference"`
	FromAccountID *string         `json:"fromAccountId,omitempty" db:"from_account_id"`
	ToAccountID   *string         `json:"toAccountId,omitempty" db:"to_account_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      string          `json:"currency" db:"currency"`
	Type          string          `json:"type" db:"type"`
	Description   string          `json:"description" db:"description"`
	Status        string          `json:"status" db:"status"`
	Metadata      Metadata        `json:"metadata,omitempty" db:"metadata"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`

	// Populated on history reads only.
	FromAccount *AccountSummary `json:"fromAccount,omitempty" db:"-"`
	ToAccount   *AccountSummary `json:"toAccount,omitempty" db:"-"`
}

// Touches reports whether accountID is the source or destination of t.
func (t *Transaction) Touches(accountID string) bool {
	return (t.FromAccountID != nil && *t.FromAccountID == accountID) ||
		(t.ToAccountID != nil && *t.ToAccountID == accountID)
}

// Pagination describes one page of a history query.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination derives the page count as ceil(total / limit).
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Pagination   Pagination    `json:"pagination"`
}
