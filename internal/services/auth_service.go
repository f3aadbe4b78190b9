package services

import (
	"context"
	cryptorand "crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/securebank/backend/internal/apierror"
	"github.com/securebank/backend/internal/config"
	"github.com/securebank/backend/internal/database"
	"github.com/securebank/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"
)

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	Email       string         `json:"email" validate:"required,email" example:"user@example.com"`
	Password    string         `json:"password" validate:"required,min=8" example:"password123"`
	FirstName   string         `json:"firstName" validate:"required" example:"John"`
	LastName    string         `json:"lastName" validate:"required" example:"Doe"`
	PhoneNumber string         `json:"phoneNumber" validate:"required,min=7,max=20" example:"+15555550100"`
	DateOfBirth string         `json:"dateOfBirth" validate:"required" example:"1990-04-12"`
	Address     models.Address `json:"address"`
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required" example:"password123"`
}

// UserSummary is the user block returned with a token.
type UserSummary struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// AuthResponse represents the authentication response
// @Description Authentication response structure
type AuthResponse struct {
	Message string      `json:"message" example:"Login successful"`
	Token   string      `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	User    UserSummary `json:"user"`
}

type AuthService struct {
	db       *sql.DB
	redis    *redis.Client
	users    *database.UserStore
	accounts *database.AccountStore
	records  *database.TransactionLog
	jwt      config.JWTConfig
	argon    config.Argon2Config
	opening  config.AccountsConfig
	now      func() time.Time
}

func NewAuthService(db *sql.DB, redisClient *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{
		db:       db,
		redis:    redisClient,
		users:    database.NewUserStore(db),
		accounts: database.NewAccountStore(db),
		records:  database.NewTransactionLog(db),
		jwt:      cfg.JWT,
		argon:    cfg.Argon2,
		opening:  cfg.Accounts,
		now:      time.Now,
	}
}

// Register creates the user with a funded checking account and an empty savings account in one transaction.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	dob, err := parseDateOfBirth(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, apierror.Storage("failed to hash password", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
		DateOfBirth:  dob,
		Address:      req.Address,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if user.Address.Country == "" {
		user.Address.Country = "US"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.Storage("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := s.users.Create(ctx, tx, user); err != nil {
		return nil, err
	}

	checking := s.newAccount(user.ID, models.AccountTypeChecking, s.opening.OpeningBalance, decimal.Zero, now)
	savings := s.newAccount(user.ID, models.AccountTypeSavings, decimal.Zero, s.opening.SavingsInterestRate, now)
	for savings.AccountNumber == checking.AccountNumber {
		savings.AccountNumber = generateAccountNumber(now)
	}

	for _, account := range []*models.Account{checking, savings} {
		if err := s.accounts.Create(ctx, tx, account); err != nil {
			return nil, err
		}
	}

	if checking.Balance.IsPositive() {
		opening := &models.Transaction{
			ID:          uuid.NewString(),
			Reference:   newReference(now),
			ToAccountID: &checking.ID,
			Amount:      checking.Balance,
			Currency:    checking.Currency,
			Type:        models.TransactionTypeDeposit,
			Description: "Opening balance",
			Status:      models.TransactionStatusCompleted,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.records.Append(ctx, tx, opening); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.Storage("failed to commit registration", err)
	}

	token, err := s.generateJWT(user.ID)
	if err != nil {
		return nil, apierror.Storage("failed to generate token", err)
	}

	logrus.WithField("user_id", user.ID).Info("User registered")
	return &AuthResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    summarize(user),
	}, nil
}

// Login verifies credentials. Unknown email and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	invalid := apierror.New(apierror.ErrUnauthorized, "Invalid credentials")

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, apierror.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}

	if !s.verifyPassword(req.Password, user.PasswordHash) {
		logrus.WithField("user_id", user.ID).Warn("Invalid password")
		return nil, invalid
	}

	token, err := s.generateJWT(user.ID)
	if err != nil {
		return nil, apierror.Storage("failed to generate token", err)
	}

	return &AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    summarize(user),
	}, nil
}

// Logout blacklists token until it would have expired anyway. Without Redis it is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string, expiresAt time.Time) {
	if s.redis == nil || token == "" {
		return
	}

	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if err := s.redis.Set(ctx, database.BlacklistKey(token), "1", ttl).Err(); err != nil {
		logrus.WithError(err).Error("Failed to blacklist token")
	}
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) newAccount(userID, accountType string, balance, rate decimal.Decimal, now time.Time) *models.Account {
	return &models.Account{
		ID:             uuid.NewString(),
		UserID:         userID,
		AccountNumber:  generateAccountNumber(now),
		AccountType:    accountType,
		Balance:        balance,
		Currency:       s.opening.Currency,
		Status:         models.AccountStatusActive,
		OverdraftLimit: decimal.Zero,
		InterestRate:   rate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *AuthService) generateJWT(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"jti":     uuid.NewString(),
		"iat":     s.now().Unix(),
		"exp":     s.now().Add(s.jwt.Expiry()).Unix(),
	})

	return token.SignedString([]byte(s.jwt.SecretKey))
}

func (s *AuthService) hashPassword(password string) (string, error) {
	salt := make([]byte, s.argon.SaltLength)
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, s.argon.Time, s.argon.Memory, s.argon.Threads, s.argon.KeyLength)
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

func (s *AuthService) verifyPassword(password, hashedPassword string) bool {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, s.argon.Time, s.argon.Memory, s.argon.Threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, computedHash) == 1
}

func summarize(u *models.User) UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

// parseDateOfBirth accepts a calendar date or a full RFC 3339 timestamp.
func parseDateOfBirth(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apierror.Validation("dateOfBirth must be an ISO 8601 date")
}

// generateAccountNumber returns ACC<unix-ms><3 random digits>.
func generateAccountNumber(now time.Time) string {
	n, err := cryptorand.Int(cryptorand.Reader, big.NewInt(1000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 1000)
	}
	return fmt.Sprintf("ACC%d%03d", now.UnixMilli(), n.Int64())
}
