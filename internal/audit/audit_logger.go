package audit

import (
	"time"

	"github.com/securebank/backend/internal/apierror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Event struct {
	Timestamp   time.Time
	EventType   string
	Reference   string
	UserID      string
	FromAccount string
	ToAccount   string
	Amount      decimal.Decimal
	Status      string
	Details     map[string]string
}

// Logger writes one AUDIT entry per ledger outcome.
type Logger struct {
	out logrus.FieldLogger
}

func NewLogger(out logrus.FieldLogger) *Logger {
	if out == nil {
		out = logrus.StandardLogger()
	}
	return &Logger{out: out}
}

// LogLedger records a committed deposit, withdrawal or transfer.
func (a *Logger) LogLedger(txType, reference, userID, fromAccount, toAccount string, amount decimal.Decimal) {
	a.log(Event{
		Timestamp:   time.Now(),
		EventType:   txType,
		Reference:   reference,
		UserID:      userID,
		FromAccount: fromAccount,
		ToAccount:   toAccount,
		Amount:      amount,
		Status:      "COMPLETED",
	})
}

// LogError records a rejected or rolled back ledger operation. Nothing was persisted.
func (a *Logger) LogError(txType, userID, accountID string, amount decimal.Decimal, err error) {
	a.log(Event{
		Timestamp:   time.Now(),
		EventType:   txType,
		UserID:      userID,
		FromAccount: accountID,
		Amount:      amount,
		Status:      "FAILED",
		Details: map[string]string{
			"code":  string(apierror.CodeOf(err)),
			"error": err.Error(),
		},
	})
}

func (a *Logger) log(event Event) {
	fields := logrus.Fields{
		"audit":      true,
		"event_type": event.EventType,
		"status":     event.Status,
		"user_id":    event.UserID,
		"amount":     event.Amount.StringFixed(2),
		"at":         event.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if event.Reference != "" {
		fields["reference"] = event.Reference
	}
	if event.FromAccount != "" {
		fields["from_account"] = event.FromAccount
	}
	if event.ToAccount != "" {
		fields["to_account"] = event.ToAccount
	}
	for k, v := range event.Details {
		fields[k] = v
	}

	entry := a.out.WithFields(fields)
	if event.Status == "FAILED" {
		entry.Warn("AUDIT")
		return
	}
	entry.Info("AUDIT")
}
