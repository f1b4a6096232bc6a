package main

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/auth"
	"github.com/ariefcatur/go-retail-backend/internal/carts"
	"github.com/ariefcatur/go-retail-backend/internal/catalog"
	"github.com/ariefcatur/go-retail-backend/internal/config"
	"github.com/ariefcatur/go-retail-backend/internal/coupons"
	"github.com/ariefcatur/go-retail-backend/internal/events"
	"github.com/ariefcatur/go-retail-backend/internal/httpx"
	kafkax "github.com/ariefcatur/go-retail-backend/internal/kafka"
	"github.com/ariefcatur/go-retail-backend/internal/orders"
	"github.com/ariefcatur/go-retail-backend/internal/payments"
	"github.com/ariefcatur/go-retail-backend/internal/postgres"
	"github.com/ariefcatur/go-retail-backend/internal/purchases"
	"github.com/ariefcatur/go-retail-backend/internal/redisx"
	"github.com/ariefcatur/go-retail-backend/internal/shipments"
	"github.com/ariefcatur/go-retail-backend/internal/users"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	cache := redisx.NewCache(rdb)

	// Kafka producer, one writer for every event topic
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(ctx)
	emitter := events.NewEmitter(prod, cfg.ServiceName)

	// Services
	userRepo := &users.Repo{DB: db}
	orderSvc := &orders.Service{Store: &orders.Repo{DB: db}, Events: emitter, Cache: cache}
	paySvc := &payments.Service{Store: &payments.Repo{DB: db}, Events: emitter, Cache: cache}

	var gateway payments.Gateway = &payments.MockGateway{}
	if cfg.MercadoPagoKey != "" {
		gateway = payments.NewMercadoPago(cfg.MercadoPagoURL, cfg.MercadoPagoKey)
	} else {
		log.Println("MERCADO_PAGO_ACCESS_TOKEN not set, using the mock gateway")
	}
	checkout := &payments.Checkout{Orders: orderSvc, Gateway: gateway, Payments: paySvc, BackURL: cfg.PaymentBackURL}

	couponRepo := &coupons.Repo{DB: db}
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cache)
	guard := httpx.Guard{Authenticate: tokens.Authenticate, RequireAdmin: auth.RequireAdmin}

	// Handlers
	router := httpx.NewRouter()
	handlers := []interface{ Register(r *chi.Mux) }{
		&httpx.UsersHandler{Users: userRepo, Login: &auth.Service{Users: userRepo, Tokens: tokens}, Tokens: tokens, Guard: guard},
		&httpx.CatalogHandler{Store: &catalog.Repo{DB: db}, Guard: guard},
		&httpx.CartsHandler{Store: &carts.Repo{DB: db}, Guard: guard},
		&httpx.OrdersHandler{Orders: orderSvc, Payments: paySvc, Cache: cache, Guard: guard},
		&httpx.PaymentsHandler{Payments: paySvc, Checkout: checkout, Orders: orderSvc, Idem: cache, Guard: guard},
		&httpx.ShipmentsHandler{Store: &shipments.Repo{DB: db}, Orders: orderSvc, Guard: guard},
		&httpx.CouponsHandler{
			Store:     couponRepo,
			Validator: &coupons.Validator{Coupons: couponRepo, Location: cfg.Location()},
			Guard:     guard,
		},
		&httpx.PurchasesHandler{Purchases: &purchases.Service{Store: &purchases.Repo{DB: db}, Events: emitter}, Guard: guard},
	}
	for _, h := range handlers {
		h.Register(router)
	}

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // close inbox, flush and close writer
	cancel()          // stop producer loop
	prod.WaitClosed() // drain
}
