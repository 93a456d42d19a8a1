package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"prepTrackAPI/handlers"
	"prepTrackAPI/internal/cache"
	"prepTrackAPI/internal/config"
	"prepTrackAPI/internal/db"
	"prepTrackAPI/internal/logger"
	"prepTrackAPI/internal/notification"
	"prepTrackAPI/middleware"
	"prepTrackAPI/services"

	_ "net/http/pprof"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.ClerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(cfg.ClerkSecretKey)
	log.Info("Clerk initialized successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer func() {
		log.Info("Closing database connection pool...")
		dbPool.Close()
	}()
	log.Info("Successfully connected to database")

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, dbPool); err != nil {
			log.Fatal("Failed to apply schema", "error", err)
		}
		log.Info("Schema applied")
	}

	var summaryCache cache.SummaryCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL)
		if err != nil {
			log.Warn("Redis unavailable, progress cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			summaryCache = rc
			log.Info("Redis progress cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL.String())
		}
	}
	defer summaryCache.Close()

	var push services.PushSender
	fcmService, err := notification.NewFCMService(ctx, cfg.FCMCredentialsFile, log)
	if err != nil {
		log.Warn("Could not initialize FCM, milestone pushes disabled", "error", err)
	} else {
		push = fcmService
		log.Info("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus(prometheus.DefaultRegisterer)
	services.RegisterSyncMetrics(prometheus.DefaultRegisterer)

	notificationService := services.NewNotificationService(dbPool, log, push)
	streakService := services.NewStreakService(dbPool, log, notificationService)
	progressService := services.NewProgressService(dbPool, log, summaryCache)
	languageService := services.NewLanguageService(dbPool, log)

	dispatcher := services.NewSyncDispatcher(
		services.NewPgJobStore(dbPool),
		services.NewSyncRunner(progressService, streakService, languageService),
		log,
		services.SyncOptions{
			Workers:      cfg.SyncWorkers,
			QueueSize:    cfg.SyncQueueSize,
			PollInterval: cfg.SyncPollInterval,
			MaxAttempts:  cfg.SyncMaxAttempts,
		},
	)
	dispatcher.Start()

	statusService := services.NewProblemStatusService(dbPool, log, streakService, dispatcher, summaryCache)
	submissionService := services.NewSubmissionService(dbPool, log, dispatcher)
	dashboardService := services.NewDashboardService(streakService, progressService, languageService, log)

	problemHandler := handlers.NewProblemHandler(statusService)
	progressHandler := handlers.NewProgressHandler(progressService)
	streakHandler := handlers.NewStreakHandler(streakService)
	submissionHandler := handlers.NewSubmissionHandler(submissionService, languageService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	syncHandler := handlers.NewSyncHandler(dispatcher)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	r := mux.NewRouter()

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Cleanup(rootCtx)

	r.Use(limiter.Middleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(cfg.PprofSecret)(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := dbPool.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "preptrack-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/problems/status", problemHandler.ListStatuses).Methods("GET")
	protected.HandleFunc("/problems/{problemID:[0-9]+}/status", problemHandler.GetStatus).Methods("GET")
	protected.HandleFunc("/problems/{problemID:[0-9]+}/status", problemHandler.UpdateStatus).Methods("PUT")
	protected.HandleFunc("/problems/{problemID:[0-9]+}/flags", problemHandler.SetFlags).Methods("PATCH")

	protected.HandleFunc("/progress", progressHandler.GetGlobalProgress).Methods("GET")
	protected.HandleFunc("/progress/topics", progressHandler.GetTopicStats).Methods("GET")

	protected.HandleFunc("/companies/progress", progressHandler.ListCompanyProgress).Methods("GET")
	protected.HandleFunc("/companies/{companyID}/progress", progressHandler.GetCompanyProgress).Methods("GET")
	protected.HandleFunc("/companies/{companyID}/progress/sync", progressHandler.SyncCompanyProgress).Methods("POST")

	protected.HandleFunc("/streak", streakHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/streak/recompute", streakHandler.RecomputeStreak).Methods("POST")

	protected.HandleFunc("/submissions", submissionHandler.CreateSubmission).Methods("POST")
	protected.HandleFunc("/languages/stats", submissionHandler.GetLanguageStats).Methods("GET")
	protected.HandleFunc("/languages/stats/sync", submissionHandler.SyncLanguageStats).Methods("POST")

	protected.HandleFunc("/dashboard", dashboardHandler.GetDashboard).Methods("GET")

	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	protected.HandleFunc("/sync/jobs", syncHandler.ListJobs).Methods("GET")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
	)

	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Error starting server", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("Got signal", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", "error", err)
	}

	dispatcher.Stop()
	log.Info("Server shutdown complete")
}
