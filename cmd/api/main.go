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

	"loanpipe-backend/internal/auth"
	"loanpipe-backend/internal/booking"
	"loanpipe-backend/internal/cache"
	"loanpipe-backend/internal/config"
	"loanpipe-backend/internal/crm"
	"loanpipe-backend/internal/handlers"
	"loanpipe-backend/internal/middleware"
	"loanpipe-backend/internal/pipeline"
	"loanpipe-backend/internal/tz"
	"loanpipe-backend/internal/validation"

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

	var cacheStore cache.Cache = cache.NewMemory()
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
	} else {
		logger.Info("redis not configured, using in-memory cache")
	}

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	jwtManager := &auth.Manager{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
		Issuer:     "loanpipe-backend",
	}

	crmClient := crm.NewClient(crm.Options{
		BaseURL:               cfg.CRMBaseURL,
		APIKey:                cfg.CRMAPIKey,
		APIVersion:            cfg.CRMAPIVersion,
		LocationID:            cfg.CRMLocationID,
		CompanyID:             cfg.CRMCompanyID,
		Timeout:               time.Duration(cfg.CRMTimeoutSec) * time.Second,
		PageLimit:             cfg.CRMPageLimit,
		MaxPages:              cfg.CRMMaxPages,
		ForgiveWriteForbidden: cfg.CRMForgiveWriteForbidden,
	}, logger)
	if cfg.CRMForgiveWriteForbidden {
		logger.Warn("crm: forgiving 403 on writes is enabled")
	}

	resolver := tz.NewResolver(crmClient, cacheStore,
		time.Duration(cfg.TZCacheTTLSeconds)*time.Second,
		time.Duration(cfg.TZFallbackTTLSeconds)*time.Second,
		cfg.DefaultTimezone, logger)

	leads := pipeline.NewService(crmClient, cacheStore,
		time.Duration(cfg.BoardCacheTTLSeconds)*time.Second, logger)

	bookingService := booking.NewService(crmClient, resolver, logger)

	server := &handlers.Server{
		Cfg:     cfg,
		CRM:     crmClient,
		Val:     validation.New(),
		Log:     logger,
		Cache:   cacheStore,
		JWT:     jwtManager,
		Leads:   leads,
		TZ:      resolver,
		Booking: bookingService,
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	writeLimiter := middleware.NewRateLimiter(cfg.RateLimitWrites, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	authLimiter := middleware.NewRateLimiter(cfg.RateLimitAuth, time.Duration(cfg.RateLimitWindowSec)*time.Second)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(a chi.Router) {
			a.With(authLimiter.Middleware).Post("/login", server.Login)
			a.Post("/refresh", server.Refresh)
			a.Post("/logout", server.Logout)
			a.With(middleware.SessionAuth(jwtManager)).Get("/me", server.Me)
		})

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.SessionAuth(jwtManager))

			protected.Get("/pipeline/board", server.GetBoard)
			protected.Get("/pipeline/leads/{id}/stage", server.GetLeadStage)
			protected.With(writeLimiter.Middleware).Post("/pipeline/leads/{id}/stage", server.MoveLeadStage)

			protected.Get("/contacts", server.ListContacts)
			protected.Get("/contacts/{id}", server.GetContact)
			protected.With(writeLimiter.Middleware).Post("/contacts", server.CreateContact)
			protected.With(writeLimiter.Middleware).Put("/contacts/{id}", server.UpdateContact)
			protected.With(writeLimiter.Middleware).Delete("/contacts/{id}", server.DeleteContact)

			protected.Get("/tasks", server.ListTasks)
			protected.With(writeLimiter.Middleware).Post("/tasks", server.CreateTask)
			protected.With(writeLimiter.Middleware).Patch("/tasks/{id}/complete", server.CompleteTask)
			protected.With(writeLimiter.Middleware).Delete("/tasks/{id}", server.DeleteTask)

			protected.Get("/calendars", server.ListCalendars)
			protected.Get("/calendars/{id}/timezone", server.GetCalendarTimezone)
			protected.Get("/calendars/{id}/slots", server.GetCalendarSlots)
			protected.Delete("/calendars/{id}/timezone-cache", server.ClearCalendarTimezoneCache)
			protected.Delete("/timezone-cache", server.ClearTimezoneCache)

			protected.Get("/appointments", server.ListAppointments)
			protected.With(writeLimiter.Middleware).Post("/appointments", server.CreateAppointment)
			protected.With(writeLimiter.Middleware).Delete("/appointments/{id}", server.CancelAppointment)

			protected.Get("/users", server.ListUsers)
			protected.Get("/campaigns", server.ListCampaigns)
			protected.Get("/opportunities", server.ListOpportunities)
		})
	})

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
