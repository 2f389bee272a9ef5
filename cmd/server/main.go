package main

import (
	"database/sql"
	"net/http"
	"time"

	"lokapasar-be/internal/cache"
	"lokapasar-be/internal/catalog"
	"lokapasar-be/internal/config"
	"lokapasar-be/internal/db"
	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/middleware"
	"lokapasar-be/internal/order"
	"lokapasar-be/internal/payment"
	"lokapasar-be/internal/payment/webhook"
	"lokapasar-be/internal/pricing"
	"lokapasar-be/internal/shipping"
	"lokapasar-be/internal/voucher"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Indirections for tests.
var (
	initDBFunc      = db.InitDB
	startServerFunc = http.ListenAndServe
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	store := cache.NewMemoryStore(time.Minute)
	defer store.Close()

	router := newServer(cfg, database, store)

	logger.L().Info("server listening", zap.String("port", cfg.AppPort))
	return startServerFunc(":"+cfg.AppPort, router)
}

// newServer wires repositories, services and handlers onto the router.
func newServer(cfg *config.Config, database *sql.DB, store cache.Store) chi.Router {
	catalogRepo := catalog.NewRepository(database, store)
	pricingSvc := pricing.NewService(catalogRepo)

	voucherRepo := voucher.NewRepository(database)
	voucherSvc := voucher.NewService(voucherRepo)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, catalogRepo, pricingSvc, voucherSvc)
	orderHandler := order.NewHandler(orderSvc)

	paymentHook := webhook.NewHandler(orderSvc, payment.NewVerifier(cfg.PaymentServerKey))

	shippingSvc := shipping.NewService(orderRepo)
	shipmentHook := shipping.NewHandler(shippingSvc, cfg.ShipmentAuthToken)

	webhookLimiter := middleware.NewRateLimiter(store, "webhook", middleware.LimitStrict, middleware.BurstStrict)
	apiLimiter := middleware.NewRateLimiter(store, "api", middleware.LimitGeneral, middleware.BurstGeneral)

	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(webhookLimiter.Middleware)
		r.Post("/webhook/payment", paymentHook.Handle)
		r.Get("/webhook/shipment", shipmentHook.Handle)
		r.Post("/webhook/shipment", shipmentHook.Handle)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware([]byte(cfg.JWTSecret)))
		r.Use(apiLimiter.Middleware)
		r.Post("/api/checkout", orderHandler.Checkout)
		r.Get("/api/orders/{orderID}", orderHandler.GetOrder)
	})

	return r
}
