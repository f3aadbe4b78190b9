package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/securebank/backend/internal/apierror"
	"github.com/securebank/backend/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, phone_number, date_of_birth,
	street, city, state, zip_code, country, created_at, updated_at`

const (
	uniqueViolation = "23505"
	numericOverflow = "22003"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.DateOfBirth,
		&u.Address.Street, &u.Address.City, &u.Address.State, &u.Address.ZipCode, &u.Address.Country,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts u. A duplicate email is reported as a Conflict.
func (s *UserStore) Create(ctx context.Context, q Querier, u *models.User) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.PhoneNumber, u.DateOfBirth,
		u.Address.Street, u.Address.City, u.Address.State, u.Address.ZipCode, u.Address.Country,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apierror.Conflict("User already exists")
		}
		return apierror.Storage("failed to create user", err)
	}
	return nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierror.NotFound("User not found")
	}
	if err != nil {
		return nil, apierror.Storage("failed to get user", err)
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apierror.NotFound("User not found")
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1`, id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierror.NotFound("User not found")
	}
	if err != nil {
		return nil, apierror.Storage("failed to get user", err)
	}
	return u, nil
}
