package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/wyna/storefront/internal/config"
	"github.com/wyna/storefront/internal/modules/admin"
	"github.com/wyna/storefront/internal/modules/auth"
	"github.com/wyna/storefront/internal/modules/catalog"
	"github.com/wyna/storefront/internal/modules/contact"
	"github.com/wyna/storefront/internal/modules/newsletter"
	"github.com/wyna/storefront/internal/modules/notification"
	"github.com/wyna/storefront/internal/modules/order"
	"github.com/wyna/storefront/internal/modules/payment"
	"github.com/wyna/storefront/internal/platform/database"
	"github.com/wyna/storefront/internal/platform/httpx"
	"github.com/wyna/storefront/internal/platform/memstore"
	"github.com/wyna/storefront/internal/platform/metrics"
	"go.uber.org/zap"
)

const memoryQueueSize = 256

// stores is the persistence chosen by STORE_DRIVER.
type stores struct {
	catalog     catalog.Repository
	orders      order.Repository
	events      payment.EventLog
	subscribers newsletter.Repository
	inquiries   contact.Repository
	admins      admin.Repository
	ping        func(ctx context.Context) error
}

func memoryStores() stores {
	s := memstore.New()
	return stores{
		catalog:     s,
		orders:      s,
		events:      memstore.NewEventLog(),
		subscribers: memstore.NewSubscribers(),
		inquiries:   memstore.NewInquiries(),
		admins:      memstore.NewAdmins(),
		ping:        func(context.Context) error { return nil },
	}
}

func postgresStores(db *sql.DB) stores {
	return stores{
		catalog:     catalog.NewPostgresRepository(db),
		orders:      order.NewPostgresRepository(db),
		events:      payment.NewPostgresEventLog(db),
		subscribers: newsletter.NewPostgresRepository(db),
		inquiries:   contact.NewPostgresRepository(db),
		admins:      admin.NewPostgresRepository(db),
		ping:        db.PingContext,
	}
}

// queue is where confirmed orders are announced and where the worker reads.
type queue interface {
	order.Notifier
	notification.Source
}

// app is a fully wired server: the HTTP handler plus the background worker.
type app struct {
	handler http.Handler
	worker  *notification.Worker
	close   func()
}

func openQueue(ctx context.Context, cfg *config.Config, logger *zap.Logger) (queue, func()) {
	if cfg.RedisURL == "" {
		logger.Info("notification_queue", zap.String("backend", "memory"))
		return notification.NewMemoryQueue(memoryQueueSize), func() {}
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("redis_url_invalid_using_memory_queue", zap.Error(err))
		return notification.NewMemoryQueue(memoryQueueSize), func() {}
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis_unavailable_using_memory_queue", zap.Error(err))
		client.Close()
		return notification.NewMemoryQueue(memoryQueueSize), func() {}
	}
	logger.Info("notification_queue", zap.String("backend", "redis"), zap.String("addr", opts.Addr))
	return notification.NewRedisQueue(client), func() { client.Close() }
}

func newMailer(cfg *config.Config, logger *zap.Logger) notification.Mailer {
	if cfg.SMTP.Host == "" {
		return notification.NewLogMailer(logger)
	}
	return notification.NewSMTPMailer(notification.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
}

func newApp(ctx context.Context, cfg *config.Config, st stores, logger *zap.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) *app {
	m := metrics.New(reg)
	q, closeQueue := openQueue(ctx, cfg, logger)

	creds := payment.Credentials{
		KeyID:         cfg.Gateway.KeyID,
		KeySecret:     cfg.Gateway.KeySecret,
		WebhookSecret: cfg.Gateway.WebhookSecret,
		BaseURL:       cfg.Gateway.BaseURL,
		Currency:      cfg.Gateway.Currency,
	}
	signer := payment.NewSigner(creds)

	catalogService := catalog.NewService(st.catalog)
	orderService := order.NewService(st.orders, catalogService, signer, q, order.Options{
		Currency:       cfg.Gateway.Currency,
		Provider:       "razorpay",
		PriceTolerance: cfg.PriceTolerance,
		Metrics:        m,
	})
	paymentService := payment.NewService(orderService, payment.NewRazorpayGateway(creds, nil), signer, st.events, creds, m)
	adminService := admin.NewService(st.admins)
	authService := auth.NewService(adminService, cfg.JWTSecret)

	catalogHandler := catalog.NewHandler(catalogService)
	orderHandler := order.NewHandler(orderService)
	paymentHandler := payment.NewHandler(paymentService)
	newsletterHandler := newsletter.NewHandler(newsletter.NewService(st.subscribers))
	contactHandler := contact.NewHandler(contact.NewService(st.inquiries))
	adminHandler := admin.NewHandler(adminService)
	authHandler := auth.NewHandler(authService)

	var limited []func(http.Handler) http.Handler
	if cfg.RateLimit > 0 {
		limiter := httpx.NewClientLimiter(cfg.RateLimit, time.Minute)
		limited = append(limited, httpx.RateLimit(limiter))
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(httpx.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(httpx.Instrument(m))
	router.Use(httpx.CORS(cfg.ClientURL))

	router.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := st.ping(r.Context()); err != nil {
			httpx.Error(w, r, http.StatusServiceUnavailable, fmt.Errorf("store unavailable: %w", err))
			return
		}
		httpx.Respond(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": cfg.ServiceName,
			"store":   cfg.StoreDriver,
		})
	})
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// ── Storefront ──────────────────────────────────────────
	catalogHandler.RegisterRoutes(router)
	orderHandler.RegisterRoutes(router, limited...)
	paymentHandler.RegisterRoutes(router, limited...)
	newsletterHandler.RegisterRoutes(router, limited...)
	contactHandler.RegisterRoutes(router, limited...)
	authHandler.RegisterRoutes(router, limited...)

	// ── Back office ─────────────────────────────────────────
	router.Route("/api/admin", func(r chi.Router) {
		r.Use(auth.RequireAdmin(authService))
		authHandler.RegisterAdminRoutes(r)
		adminHandler.RegisterAdminRoutes(r)
		catalogHandler.RegisterAdminRoutes(r)
		orderHandler.RegisterAdminRoutes(r)
		paymentHandler.RegisterAdminRoutes(r)
		newsletterHandler.RegisterAdminRoutes(r)
		contactHandler.RegisterAdminRoutes(r)
	})

	return &app{
		handler: router,
		worker:  notification.NewWorker(q, newMailer(cfg, logger), m, logger),
		close:   closeQueue,
	}
}

// openStores connects the configured backend. The returned func releases it.
func openStores(ctx context.Context, cfg *config.Config) (stores, func(), error) {
	if cfg.StoreDriver == "memory" {
		return memoryStores(), func() {}, nil
	}
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, nil, err
	}
	return postgresStores(db), func() { db.Close() }, nil
}
