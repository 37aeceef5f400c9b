package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAMahlangu/Sindiswa/internal/auth"
	"github.com/SAMahlangu/Sindiswa/internal/booking"
	"github.com/SAMahlangu/Sindiswa/internal/cache"
	"github.com/SAMahlangu/Sindiswa/internal/config"
	"github.com/SAMahlangu/Sindiswa/internal/db"
	"github.com/SAMahlangu/Sindiswa/internal/handlers"
	"github.com/SAMahlangu/Sindiswa/internal/middleware"
	"github.com/SAMahlangu/Sindiswa/internal/notifications"
	"github.com/SAMahlangu/Sindiswa/internal/payments"
	"github.com/SAMahlangu/Sindiswa/internal/reports"
	"github.com/SAMahlangu/Sindiswa/internal/schedule"
	"github.com/SAMahlangu/Sindiswa/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected")
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("redis connected")
		cacheStore = redisCache
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret:     []byte(cfg.JWTSecret),
			AccessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
			RefreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
			Issuer:     "sindiswa-backend",
		}
	}

	brevoClient := notifications.NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoSenderEmail, cfg.BrevoSenderName, cfg.BrevoSandbox)
	var bookingMailer booking.Mailer
	var receiptMailer payments.ReceiptMailer
	if recorder := notifications.NewRecorder(brevoClient, cols.EmailLogs, cfg.Timezone); recorder != nil {
		bookingMailer = recorder
		receiptMailer = recorder
		logger.Info("brevo mailer enabled", slog.String("sender", cfg.BrevoSenderEmail), slog.Bool("sandbox", cfg.BrevoSandbox))
	} else {
		logger.Info("brevo mailer disabled")
	}

	server := &handlers.Server{
		Cfg:   cfg,
		Cols:  cols,
		Val:   validation.New(),
		Log:   logger,
		Cache: cacheStore,
	}

	window := schedule.Window{OpenHour: cfg.WorkingHourStart, CloseHour: cfg.WorkingHourEnd}
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second

	bookingRepo := booking.NewRepository(cols.Appointments, cols.Services)
	bookingService := booking.NewService(bookingRepo, window, cfg.Timezone, time.Duration(cfg.PendingTimeoutMin)*time.Minute)
	bookingHandler := booking.NewHandler(bookingService, server.Val, logger, cacheStore, cacheTTL, bookingMailer)

	gateway := payments.Gateway{
		MerchantID:  cfg.PayfastMerchantID,
		MerchantKey: cfg.PayfastMerchantKey,
		Passphrase:  cfg.PayfastPassphrase,
		ProcessURL:  cfg.PayfastProcessURL,
		ReturnURL:   cfg.PayfastReturnURL,
		CancelURL:   cfg.PayfastCancelURL,
		NotifyURL:   cfg.PayfastNotifyURL,
	}
	paymentLogs := payments.NewLogRepository(cols.PaymentLogs)
	paymentService := payments.NewService(bookingService, paymentLogs, cfg.Timezone)
	paymentHandler := payments.NewHandler(paymentService, gateway, server.Val, logger, cacheStore, receiptMailer)

	reportService := reports.NewService(bookingRepo, cfg.Timezone)
	reportHandler := reports.NewHandler(reportService, server.Val, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigins))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	appointmentsLimiter := middleware.NewRateLimiter(cfg.RateLimitAppointments, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	paymentsLimiter := middleware.NewRateLimiter(cfg.RateLimitPayments, time.Duration(cfg.RateLimitWindowSec)*time.Second)

	r.Route("/api", func(api chi.Router) {
		api.Get("/services", server.GetServices)
		api.Get("/services/{id}/availability", bookingHandler.GetServiceAvailability)

		api.With(appointmentsLimiter.Middleware).Post("/appointments", bookingHandler.CreateAppointment)
		api.Get("/appointments/{id}", bookingHandler.GetAppointment)
		api.Post("/appointments/lookup", bookingHandler.LookupAppointments)

		api.With(paymentsLimiter.Middleware).Post("/payments/checkout", paymentHandler.Checkout)
		api.Post("/payments/payfast/webhook", paymentHandler.Webhook)

		api.Post("/jobs/cancel-unpaid", bookingHandler.SweepExpired)

		api.Route("/admin", func(admin chi.Router) {
			admin.Post("/register", server.AdminRegister)
			admin.Post("/login", server.AdminLogin)
			admin.Post("/refresh", server.AdminRefresh)
			admin.Post("/logout", server.AdminLogout)

			// Middlewares must be attached before routes are defined, so the
			// protected surface lives on a sub-router.
			admin.Group(func(protected chi.Router) {
				protected.Use(middleware.AdminAuth(cfg.AdminAPIKey, jwtManager))
				protected.Post("/services", server.AdminCreateService)
				protected.Put("/services/{id}", server.AdminUpdateService)
				protected.Delete("/services/{id}", server.AdminDeleteService)
				protected.Post("/users", server.AdminCreateUser)
				protected.Patch("/users/{id}/password", server.AdminUpdateUserPassword)
				protected.Get("/appointments", bookingHandler.AdminListAppointments)
				protected.Patch("/appointments/{id}/status", bookingHandler.AdminUpdateAppointmentStatus)
				protected.Post("/reports/revenue", reportHandler.Revenue)
			})
		})
	})

	if cfg.SweepIntervalSec > 0 {
		interval := time.Duration(cfg.SweepIntervalSec) * time.Second
		go runSweeper(context.Background(), bookingService, cacheStore, logger, interval)
		logger.Info("sweeper started", slog.Duration("interval", interval))
	}

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}

func runSweeper(ctx context.Context, svc *booking.Service, c cache.Cache, logger *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		count, err := svc.Sweep(sweepCtx)
		if err != nil {
			logger.Error("sweep failed", slog.String("error", err.Error()))
		} else if count > 0 {
			logger.Info("sweep cancelled unpaid bookings", slog.Int64("count", count))
			if c != nil {
				_ = c.DeletePrefix(sweepCtx, "availability:")
			}
		}
		cancel()
	}
}
