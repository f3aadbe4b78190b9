package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/securebank/backend/internal/services"
	"github.com/sirupsen/logrus"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
	pendingMarker     = "pending"
	maxIdempotencyKey = 128
	maxIdempotentBody = 1 << 20
	storeTimeout      = 5 * time.Second

	keyReusedMessage = "Idempotency-Key was already used with a different request body"
)

type storedResponse struct {
	Fingerprint string          `json:"fingerprint"`
	Status      int             `json:"status"`
	Body        json.RawMessage `json:"body"`
}

// pendingValue marks a claimed key with the fingerprint of the request holding it.
func pendingValue(fp string) string {
	return pendingMarker + ":" + fp
}

func fingerprint(body []byte) string {
	sum := sha256.Sum256(bytes.TrimSpace(body))
	return hex.EncodeToString(sum[:])
}

// Idempotency replays the stored response of a successful write when a client retries it with the
// same Idempotency-Key. Requests without the header, or without Redis, pass through.
func Idempotency(redisClient *redis.Client) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if redisClient == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKey {
				services.SendErrorResponse(w, "Idempotency-Key is too long", http.StatusBadRequest, nil)
				return
			}

			requestBody, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBody+1))
			if err != nil {
				services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
				return
			}
			r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(requestBody))
			fp := fingerprint(requestBody)

			ctx := r.Context()
			redisKey := "idem:" + UserIDFromContext(ctx) + ":" + r.URL.Path + ":" + key

			claimed, err := redisClient.SetNX(ctx, redisKey, pendingValue(fp), idempotencyTTL).Result()
			if err != nil {
				logrus.WithError(err).Warn("Idempotency store unavailable")
				next.ServeHTTP(w, r)
				return
			}

			if !claimed {
				replay(w, r, redisClient, redisKey, fp)
				return
			}

			var body bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&body)
			next.ServeHTTP(ww, r)

			// The outcome must be recorded even when the client has gone away or the
			// request deadline fired after the ledger committed.
			storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
			defer cancel()

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status < 200 || status >= 300 {
				if err := redisClient.Del(storeCtx, redisKey).Err(); err != nil {
					logrus.WithError(err).WithField("key", key).Warn("Failed to release idempotency key")
				}
				return
			}

			payload := bytes.TrimSpace(body.Bytes())
			if len(payload) == 0 {
				payload = []byte("null")
			}
			data, err := json.Marshal(storedResponse{Fingerprint: fp, Status: status, Body: payload})
			if err == nil {
				err = redisClient.Set(storeCtx, redisKey, data, idempotencyTTL).Err()
			}
			if err != nil {
				logrus.WithError(err).WithField("key", key).Warn("Failed to store idempotent response")
			}
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, redisClient *redis.Client, redisKey, fp string) {
	raw, err := redisClient.Get(r.Context(), redisKey).Result()
	if err != nil {
		services.SendErrorResponse(w, "A request with this Idempotency-Key is already in progress", http.StatusConflict, nil)
		return
	}

	if pending, ok := strings.CutPrefix(raw, pendingMarker+":"); ok || raw == pendingMarker {
		if ok && pending != fp {
			services.SendErrorResponse(w, keyReusedMessage, http.StatusUnprocessableEntity, nil)
			return
		}
		services.SendErrorResponse(w, "A request with this Idempotency-Key is already in progress", http.StatusConflict, nil)
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		services.SendErrorResponse(w, "A request with this Idempotency-Key is already in progress", http.StatusConflict, nil)
		return
	}
	if stored.Fingerprint != fp {
		services.SendErrorResponse(w, keyReusedMessage, http.StatusUnprocessableEntity, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(stored.Status)
	w.Write(stored.Body)
}
