package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/contractmind/backend/config"
	"github.com/contractmind/backend/handler"
	"github.com/contractmind/backend/middleware"
	"github.com/contractmind/backend/pkg/logger"
	"github.com/contractmind/backend/service"
	"github.com/contractmind/backend/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	storageSvc, err := service.NewStorageService(&cfg.Minio)
	if err != nil {
		slog.Error("failed to initialize object storage", "error", err)
		os.Exit(1)
	}
	if err := storageSvc.EnsureBucket(context.Background()); err != nil {
		slog.Error("failed to ensure storage bucket", "error", err)
		os.Exit(1)
	}

	var recordStore store.Store
	if cfg.Supabase.URL != "" {
		recordStore, err = store.NewSupabaseClient(&cfg.Supabase)
		if err != nil {
			slog.Error("failed to initialize record store", "error", err)
			os.Exit(1)
		}
		slog.Info("using hosted record store", "url", cfg.Supabase.URL)
	} else {
		recordStore = store.NewMemoryStore()
		slog.Warn("no record store configured, using in-memory store; data will not survive restarts")
	}

	llm, err := service.NewDeepSeekService(&cfg.DeepSeek)
	if err != nil {
		slog.Error("failed to initialize AI service", "error", err)
		os.Exit(1)
	}

	extractorSvc := service.NewExtractorService(&cfg.Extractor)
	textCache := service.NewTextCache(recordStore, &cfg.Analysis)
	analyzer := service.NewAnalysisService(recordStore, llm, extractorSvc, storageSvc, textCache, &cfg.Analysis)

	templateSvc, err := service.NewTemplateService(recordStore, llm, cfg.Analysis.TemplateCacheSize)
	if err != nil {
		slog.Error("failed to initialize template service", "error", err)
		os.Exit(1)
	}

	authHandler := handler.NewAuthHandler(cfg)
	contractHandler := handler.NewContractHandler(recordStore, storageSvc)
	analysisHandler := handler.NewAnalysisHandler(analyzer, recordStore)
	extractHandler := handler.NewExtractHandler(analyzer)
	dashboardHandler := handler.NewDashboardHandler(recordStore)
	templateHandler := handler.NewTemplateHandler(templateSvc)
	aiHandler := handler.NewAIHandler(analyzer, llm)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(100, time.Minute))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		protected.POST("/contracts/upload", contractHandler.Upload)
		protected.GET("/contracts", contractHandler.List)
		protected.GET("/contracts/:id", contractHandler.Get)
		protected.PUT("/contracts/:id", contractHandler.Update)
		protected.DELETE("/contracts/:id", contractHandler.Delete)

		protected.POST("/contracts/:id/analyze", analysisHandler.Analyze)
		protected.GET("/contracts/:id/analysis", analysisHandler.GetAnalysis)
		protected.GET("/contracts/:id/risk-report", analysisHandler.RiskReport)

		protected.POST("/contracts/:id/extract", extractHandler.Extract)
		protected.GET("/extract/supported-formats", extractHandler.SupportedFormats)

		protected.POST("/contracts/:id/qa", aiHandler.Ask)
		protected.POST("/contracts/:id/summary", aiHandler.Summarize)
		protected.POST("/contracts/:id/clauses", aiHandler.ExtractClauses)

		protected.GET("/dashboard/stats", dashboardHandler.Stats)

		protected.GET("/templates", templateHandler.List)
		protected.GET("/templates/:id", templateHandler.Get)
		protected.POST("/templates", templateHandler.Create)
		protected.DELETE("/templates/:id", templateHandler.Delete)
		protected.POST("/templates/generate", templateHandler.Generate)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second, // analysis requests block on the model
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
