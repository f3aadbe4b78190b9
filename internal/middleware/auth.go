package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/securebank/backend/internal/apierror"
	"github.com/securebank/backend/internal/database"
	"github.com/securebank/backend/internal/services"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	userIDKey   contextKey = "userID"
	tokenKey    contextKey = "token"
	tokenExpKey contextKey = "tokenExpiry"
)

// Authenticator gates routes behind a bearer JWT that has not been revoked.
type Authenticator struct {
	secret []byte
	redis  *redis.Client
}

func NewAuthenticator(secret string, redisClient *redis.Client) *Authenticator {
	return &Authenticator{secret: []byte(secret), redis: redisClient}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			services.SendAPIError(w, apierror.New(apierror.ErrUnauthorized, "Authorization header required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			services.SendAPIError(w, apierror.New(apierror.ErrUnauthorized, "Invalid authorization header format"))
			return
		}
		token := parts[1]

		userID, expiresAt, err := a.validateToken(token)
		if err != nil {
			logrus.WithError(err).Debug("Rejected bearer token")
			services.SendAPIError(w, apierror.New(apierror.ErrUnauthorized, "Invalid token"))
			return
		}

		if a.isRevoked(r.Context(), token) {
			services.SendAPIError(w, apierror.New(apierror.ErrUnauthorized, "Token has been revoked"))
			return
		}

		ctx := WithUserID(r.Context(), userID)
		ctx = context.WithValue(ctx, tokenKey, token)
		ctx = context.WithValue(ctx, tokenExpKey, expiresAt)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) validateToken(tokenString string) (string, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", time.Time{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", time.Time{}, errors.New("unexpected claims type")
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", time.Time{}, errors.New("token carries no user_id")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return "", time.Time{}, errors.New("token carries no expiry")
	}
	return userID, exp.Time, nil
}

// isRevoked fails open when Redis is unreachable.
func (a *Authenticator) isRevoked(ctx context.Context, token string) bool {
	if a.redis == nil {
		return false
	}

	n, err := a.redis.Exists(ctx, database.BlacklistKey(token)).Result()
	if err != nil {
		logrus.WithError(err).Warn("Token blacklist lookup failed")
		return false
	}
	return n > 0
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated caller, or "" outside the auth gate.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// TokenFromContext returns the raw bearer token and its expiry.
func TokenFromContext(ctx context.Context) (string, time.Time) {
	token, _ := ctx.Value(tokenKey).(string)
	exp, _ := ctx.Value(tokenExpKey).(time.Time)
	return token, exp
}
