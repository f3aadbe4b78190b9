package audit

import (
	"testing"

	"github.com/securebank/backend/internal/apierror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_LogLedger(t *testing.T) {
	base, hook := test.NewNullLogger()
	logger := NewLogger(base)

	logger.LogLedger("transfer", "TXN1", "user-1", "acc-a", "acc-b", decimal.NewFromInt(250))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "AUDIT", entry.Message)
	assert.Equal(t, "transfer", entry.Data["event_type"])
	assert.Equal(t, "250.00", entry.Data["amount"])
	assert.Equal(t, "acc-b", entry.Data["to_account"])
	assert.Equal(t, "COMPLETED", entry.Data["status"])
}

func TestLogger_LogError(t *testing.T) {
	base, hook := test.NewNullLogger()
	logger := NewLogger(base)

	logger.LogError("withdrawal", "user-1", "acc-a", decimal.NewFromInt(100), apierror.InsufficientFunds())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "FAILED", entry.Data["status"])
	assert.Equal(t, "INSUFFICIENT_FUNDS", entry.Data["code"])
	assert.NotContains(t, entry.Data, "reference")
}
