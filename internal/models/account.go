package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountTypeChecking = "checking"
	AccountTypeSavings  = "savings"
	AccountTypeCredit   = "credit"
)

const (
	AccountStatusActive   = "active"
	AccountStatusInactive = "inactive"
	AccountStatusFrozen   = "frozen"
)

const DefaultCurrency = "USD"

// Account is a customer account. OverdraftLimit and InterestRate are informational only.
type Account struct {
	ID             string          `json:"id" db:"id"`
	UserID         string          `json:"userId" db:"user_id"`
	AccountNumber  string          `json:"accountNumber" db:"account_number"`
	AccountType    string          `json:"accountType" db:"account_type"`
	Balance        decimal.Decimal `json:"balance" db:"balance"`
	Currency       string          `json:"currency" db:"currency"`
	Status         string          `json:"status" db:"status"`
	OverdraftLimit decimal.Decimal `json:"overdraftLimit" db:"overdraft_limit"`
	InterestRate   decimal.Decimal `json:"interestRate" db:"interest_rate"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// AccountSummary is the slice of an account shown next to a transaction in history views.
type AccountSummary struct {
	ID            string `json:"id"`
	AccountNumber string `json:"accountNumber"`
	AccountType   string `json:"accountType"`
}
