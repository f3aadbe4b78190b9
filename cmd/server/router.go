package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	_ "github.com/securebank/backend/docs"
	"github.com/securebank/backend/internal/audit"
	"github.com/securebank/backend/internal/config"
	"github.com/securebank/backend/internal/handlers"
	mW "github.com/securebank/backend/internal/middleware"
	"github.com/securebank/backend/internal/services"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func newRouter(cfg *config.Config, db *sql.DB, redisClient *redis.Client) http.Handler {
	ledgerService := services.NewLedgerService(db, audit.NewLogger(logrus.StandardLogger()))
	accountService := services.NewAccountService(db)
	qrService := services.NewQRService(db, redisClient)
	authService := services.NewAuthService(db, redisClient, cfg)

	transactionHandler := handlers.NewTransactionHandler(ledgerService, accountService, services.NewISO20022Service())
	accountHandler := handlers.NewAccountHandler(accountService, qrService)
	qrHandler := handlers.NewQRHandler(qrService)
	authHandler := handlers.NewAuthHandler(authService)
	authenticator := mW.NewAuthenticator(cfg.JWT.SecretKey, redisClient)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mW.RequestLogger(logrus.StandardLogger()))
	r.Use(middleware.Recoverer)
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mW.IdempotencyHeader},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", healthHandler(db))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticator.Middleware)

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)

			r.Get("/accounts", accountHandler.ListAccounts)
			r.Get("/accounts/{accountId}", accountHandler.GetAccount)
			r.Get("/accounts/{accountId}/transactions", accountHandler.History)
			r.Get("/accounts/{accountId}/qr", accountHandler.QRCode)

			r.Group(func(r chi.Router) {
				r.Use(mW.RateLimit(cfg.RateLimit))
				r.Use(mW.Idempotency(redisClient))
				r.Post("/transactions/deposit", transactionHandler.Deposit)
				r.Post("/transactions/withdraw", transactionHandler.Withdraw)
				r.Post("/transactions/transfer", transactionHandler.Transfer)
			})
			r.Get("/transactions/{reference}", transactionHandler.GetTransaction)
			r.Get("/transactions/{reference}/iso20022", transactionHandler.ExportISO20022)

			r.Post("/qr/resolve", qrHandler.ResolveQR)
		})
	})

	if cfg.Server.StaticDir != "" {
		r.Handle("/*", mW.StaticFileServer(cfg.Server.StaticDir))
	}

	return otelhttp.NewHandler(r, "bankd")
}

// healthHandler reports whether the database answers a ping.
func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "healthy", http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			logrus.WithError(err).Warn("Health check: database unreachable")
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
