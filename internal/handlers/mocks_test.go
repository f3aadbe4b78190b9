package handlers

import (
	"context"
	"time"

	"github.com/securebank/backend/internal/models"
	"github.com/securebank/backend/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Deposit(ctx context.Context, in services.DepositInput, callerID string) (*models.Transaction, error) {
	args := m.Called(ctx, in, callerID)
	return txnArg(args)
}

func (m *MockLedger) Withdraw(ctx context.Context, in services.WithdrawInput, callerID string) (*models.Transaction, error) {
	args := m.Called(ctx, in, callerID)
	return txnArg(args)
}

func (m *MockLedger) Transfer(ctx context.Context, in services.TransferInput, callerID string) (*models.Transaction, error) {
	args := m.Called(ctx, in, callerID)
	return txnArg(args)
}

type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	args := m.Called(ctx, userID)
	accounts, _ := args.Get(0).([]models.Account)
	return accounts, args.Error(1)
}

func (m *MockAccounts) GetAccount(ctx context.Context, accountID, userID string) (*models.Account, error) {
	args := m.Called(ctx, accountID, userID)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) History(ctx context.Context, accountID, userID string, page, limit int) (*models.TransactionPage, error) {
	args := m.Called(ctx, accountID, userID, page, limit)
	result, _ := args.Get(0).(*models.TransactionPage)
	return result, args.Error(1)
}

func (m *MockAccounts) GetTransaction(ctx context.Context, reference, userID string) (*models.Transaction, error) {
	args := m.Called(ctx, reference, userID)
	return txnArg(args)
}

type MockPaymentCodes struct {
	mock.Mock
}

func (m *MockPaymentCodes) GenerateAccountQR(ctx context.Context, accountID, userID string, amount *decimal.Decimal) (string, string, error) {
	args := m.Called(ctx, accountID, userID, amount)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockPaymentCodes) ResolveQR(ctx context.Context, qrData string) (*services.PaymentRequest, error) {
	args := m.Called(ctx, qrData)
	req, _ := args.Get(0).(*services.PaymentRequest)
	return req, args.Error(1)
}

type MockAuth struct {
	mock.Mock
}

func (m *MockAuth) Register(ctx context.Context, req services.RegisterRequest) (*services.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*services.AuthResponse)
	return resp, args.Error(1)
}

func (m *MockAuth) Login(ctx context.Context, req services.LoginRequest) (*services.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*services.AuthResponse)
	return resp, args.Error(1)
}

func (m *MockAuth) Logout(ctx context.Context, token string, expiresAt time.Time) {
	m.Called(ctx, token, expiresAt)
}

func (m *MockAuth) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func txnArg(args mock.Arguments) (*models.Transaction, error) {
	txn, _ := args.Get(0).(*models.Transaction)
	return txn, args.Error(1)
}
