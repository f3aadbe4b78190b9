package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/securebank/backend/internal/apierror"
	"github.com/securebank/backend/internal/database"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

const qrTTL = 15 * time.Minute

// PaymentRequest is what a receive-payment QR code resolves to.
type PaymentRequest struct {
	AccountID     string           `json:"accountId"`
	AccountNumber string           `json:"accountNumber"`
	Currency      string           `json:"currency"`
	Amount        *decimal.Decimal `json:"amount,omitempty" swaggertype:"string"`
	IssuedAt      int64            `json:"issuedAt"`
	Nonce         string           `json:"nonce"`
}

type QRService struct {
	accounts *database.AccountStore
	redis    *redis.Client
	now      func() time.Time
}

// NewQRService accepts a nil Redis client; codes then expire by their issue time only.
func NewQRService(db *sql.DB, redis *redis.Client) *QRService {
	return &QRService{
		accounts: database.NewAccountStore(db),
		redis:    redis,
		now:      time.Now,
	}
}

// GenerateAccountQR encodes a payment request for an account owned by userID and returns
// the code with a base64 PNG rendering of it.
func (s *QRService) GenerateAccountQR(ctx context.Context, accountID, userID string, amount *decimal.Decimal) (string, string, error) {
	account, err := s.accounts.GetForOwner(ctx, accountID, userID)
	if err != nil {
		return "", "", err
	}
	if amount != nil {
		if _, err := checkRequest(*amount, "qr", nil); err != nil {
			return "", "", err
		}
	}

	req := PaymentRequest{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		Currency:      account.Currency,
		Amount:        amount,
		IssuedAt:      s.now().Unix(),
		Nonce:         s.generateNonce(),
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", "", apierror.Storage("failed to encode QR payload", err)
	}

	qrCode := base64.URLEncoding.EncodeToString(jsonData)

	if s.redis != nil {
		key := fmt.Sprintf("qr:%s", qrCode)
		if err := s.redis.Set(ctx, key, jsonData, qrTTL).Err(); err != nil {
			return "", "", apierror.Storage("failed to store QR code", err)
		}
	}

	qr, err := qrcode.New(qrCode, qrcode.Medium)
	if err != nil {
		return "", "", apierror.Storage("failed to render QR code", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", apierror.Storage("failed to render QR code", err)
	}

	return qrCode, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ResolveQR turns a scanned code back into its payment request. With Redis a code resolves once.
func (s *QRService) ResolveQR(ctx context.Context, qrData string) (*PaymentRequest, error) {
	invalid := apierror.Validation("invalid or expired QR code")

	var data []byte
	if s.redis != nil {
		key := fmt.Sprintf("qr:%s", qrData)
		stored, err := s.redis.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, invalid
		}
		if err != nil {
			return nil, apierror.Storage("failed to read QR code", err)
		}
		s.redis.Del(ctx, key)
		data = stored
	} else {
		decoded, err := base64.URLEncoding.DecodeString(qrData)
		if err != nil {
			return nil, invalid
		}
		data = decoded
	}

	var req PaymentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, invalid
	}
	if s.now().Sub(time.Unix(req.IssuedAt, 0)) > qrTTL {
		return nil, invalid
	}
	return &req, nil
}

func (s *QRService) generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
