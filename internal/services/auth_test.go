package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-redis/redismock/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"github.com/securebank/backend/internal/apierror"
	"github.com/securebank/backend/internal/config"
	"github.com/securebank/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumnNames = []string{
	"id", "email", "password_hash", "first_name", "last_name", "phone_number", "date_of_birth",
	"street", "city", "state", "zip_code", "country", "created_at", "updated_at",
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{SecretKey: "test-secret", ExpiryHours: 24},
		Argon2: config.Argon2Config{
			Time:       1,
			Memory:     1024,
			Threads:    1,
			KeyLength:  32,
			SaltLength: 16,
		},
		Accounts: config.AccountsConfig{
			Currency:            "USD",
			OpeningBalance:      decimal.NewFromInt(1000),
			SavingsInterestRate: decimal.RequireFromString("0.02"),
		},
	}
}

func newAuthFixture(t *testing.T) (*AuthService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	service := NewAuthService(db, nil, testConfig())
	service.now = func() time.Time { return fixedNow }
	return service, mock
}

func registerRequest() RegisterRequest {
	return RegisterRequest{
		Email:       "  " + gofakeit.Email() + "  ",
		Password:    "password123",
		FirstName:   gofakeit.FirstName(),
		LastName:    gofakeit.LastName(),
		PhoneNumber: "+15555550100",
		DateOfBirth: "1990-04-12",
		Address: models.Address{
			Street:  gofakeit.Street(),
			City:    gofakeit.City(),
			State:   gofakeit.State(),
			ZipCode: gofakeit.Zip(),
		},
	}
}

func TestAuthService_PasswordHashing(t *testing.T) {
	service, _ := newAuthFixture(t)

	hash, err := service.hashPassword("testpassword")
	require.NoError(t, err)
	assert.NotEqual(t, "testpassword", hash)
	assert.Contains(t, hash, "$")

	assert.True(t, service.verifyPassword("testpassword", hash))
	assert.False(t, service.verifyPassword("wrongpassword", hash))
	assert.False(t, service.verifyPassword("testpassword", "not-a-hash"))
	assert.False(t, service.verifyPassword("testpassword", "###$###"))

	again, err := service.hashPassword("testpassword")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salts differ between hashes")
}

func TestAuthService_GenerateJWT(t *testing.T) {
	service, _ := newAuthFixture(t)
	service.now = time.Now

	token, err := service.generateJWT(ownerID)
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, ownerID, claims["user_id"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), exp.Time, time.Minute)

	other, err := service.generateJWT(ownerID)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestAuthService_Register(t *testing.T) {
	t.Run("creates user with checking and savings accounts", func(t *testing.T) {
		service, mock := newAuthFixture(t)
		req := registerRequest()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO accounts").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), models.AccountTypeChecking,
				decimal.NewFromInt(1000), "USD", models.AccountStatusActive,
				decimal.Zero, decimal.Zero, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO accounts").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), models.AccountTypeSavings,
				decimal.Zero, "USD", models.AccountStatusActive,
				decimal.Zero, decimal.RequireFromString("0.02"), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO transactions").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		resp, err := service.Register(context.Background(), req)
		require.NoError(t, err)

		assert.Equal(t, "User registered successfully", resp.Message)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, req.FirstName, resp.User.FirstName)
		assert.Equal(t, strings.ToLower(strings.TrimSpace(req.Email)), resp.User.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		service, mock := newAuthFixture(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		_, err := service.Register(context.Background(), registerRequest())
		assert.True(t, errors.Is(err, apierror.ErrConflict))
		assert.Equal(t, "User already exists", apierror.PublicMessage(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("account insert failure rolls back the user", func(t *testing.T) {
		service, mock := newAuthFixture(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO accounts").WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := service.Register(context.Background(), registerRequest())
		assert.True(t, errors.Is(err, apierror.ErrStorage))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed date of birth", func(t *testing.T) {
		service, mock := newAuthFixture(t)
		req := registerRequest()
		req.DateOfBirth = "12/04/1990"

		_, err := service.Register(context.Background(), req)
		assert.True(t, errors.Is(err, apierror.ErrValidation))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuthService_Login(t *testing.T) {
	service, mock := newAuthFixture(t)
	hash, err := service.hashPassword("password123")
	require.NoError(t, err)

	userRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(userColumnNames).AddRow(
			ownerID, "jane@example.com", hash, "Jane", "Doe", "+15555550100", fixedNow,
			"1 Main St", "Springfield", "IL", "62701", "US", fixedNow, fixedNow,
		)
	}

	t.Run("valid credentials", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE email = \\$1").
			WithArgs("jane@example.com").
			WillReturnRows(userRow())

		resp, err := service.Login(context.Background(), LoginRequest{Email: "Jane@Example.com", Password: "password123"})
		require.NoError(t, err)
		assert.Equal(t, "Login successful", resp.Message)
		assert.Equal(t, ownerID, resp.User.ID)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE email = \\$1").WillReturnRows(userRow())

		_, err := service.Login(context.Background(), LoginRequest{Email: "jane@example.com", Password: "nope"})
		assert.True(t, errors.Is(err, apierror.ErrUnauthorized))
		assert.Equal(t, "Invalid credentials", apierror.PublicMessage(err))
	})

	t.Run("unknown email looks the same", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE email = \\$1").
			WillReturnRows(sqlmock.NewRows(userColumnNames))

		_, err := service.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "password123"})
		assert.True(t, errors.Is(err, apierror.ErrUnauthorized))
		assert.Equal(t, "Invalid credentials", apierror.PublicMessage(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_Logout(t *testing.T) {
	t.Run("blacklists until expiry", func(t *testing.T) {
		service, _ := newAuthFixture(t)
		redisClient, redisMock := redismock.NewClientMock()
		service.redis = redisClient

		redisMock.ExpectSet("blacklist:token-1", "1", 2*time.Hour).SetVal("OK")

		service.Logout(context.Background(), "token-1", fixedNow.Add(2*time.Hour))
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("expired token is not stored", func(t *testing.T) {
		service, _ := newAuthFixture(t)
		redisClient, redisMock := redismock.NewClientMock()
		service.redis = redisClient

		service.Logout(context.Background(), "token-1", fixedNow.Add(-time.Minute))
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("redis failure is swallowed", func(t *testing.T) {
		service, _ := newAuthFixture(t)
		redisClient, redisMock := redismock.NewClientMock()
		service.redis = redisClient

		redisMock.ExpectSet("blacklist:token-1", "1", time.Hour).SetErr(errors.New("connection refused"))

		assert.NotPanics(t, func() {
			service.Logout(context.Background(), "token-1", fixedNow.Add(time.Hour))
		})
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("no redis", func(t *testing.T) {
		service, _ := newAuthFixture(t)
		assert.NotPanics(t, func() {
			service.Logout(context.Background(), "token-1", fixedNow.Add(time.Hour))
		})
	})
}
