package apierror_test

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/securebank/backend/internal/apierror"
	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	err := apierror.NotFound("Account not found")
	assert.Equal(t, "NOT_FOUND: Account not found", err.Error())

	wrapped := apierror.Storage("failed to lock account", sql.ErrConnDone)
	assert.Contains(t, wrapped.Error(), "STORAGE_ERROR: failed to lock account")
	assert.True(t, errors.Is(wrapped, sql.ErrConnDone))
}

func TestAPIError_IsKind(t *testing.T) {
	err := fmt.Errorf("withdraw: %w", apierror.InsufficientFunds())

	assert.True(t, errors.Is(err, apierror.ErrInsufficientFunds))
	assert.False(t, errors.Is(err, apierror.ErrNotFound))
	assert.Equal(t, apierror.ErrInsufficientFunds, apierror.CodeOf(err))
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", apierror.Validation("bad amount"), http.StatusBadRequest},
		{"insufficient funds", apierror.InsufficientFunds(), http.StatusBadRequest},
		{"inactive account", apierror.New(apierror.ErrInactiveAccount, "Account is not active"), http.StatusBadRequest},
		{"same account", apierror.Conflict("Cannot transfer to the same account"), http.StatusBadRequest},
		{"not found", apierror.NotFound("Account not found"), http.StatusNotFound},
		{"unauthorized", apierror.New(apierror.ErrUnauthorized, "Invalid token"), http.StatusUnauthorized},
		{"storage", apierror.Storage("commit failed", errors.New("boom")), http.StatusInternalServerError},
		{"untagged", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, apierror.MapErrorToHTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Insufficient funds", apierror.PublicMessage(apierror.InsufficientFunds()))
	assert.Equal(t, apierror.StorageMessage, apierror.PublicMessage(apierror.Storage("pq: relation missing", errors.New("x"))))
	assert.Equal(t, apierror.StorageMessage, apierror.PublicMessage(errors.New("raw driver error")))
}
