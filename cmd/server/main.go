package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"curve-desk/internal/bot"
	"curve-desk/internal/cache"
	"curve-desk/internal/config"
	"curve-desk/internal/db"
	"curve-desk/internal/handler"
	"curve-desk/internal/job"
	"curve-desk/internal/logging"
	"curve-desk/internal/provider"
	"curve-desk/internal/repository"
	"curve-desk/internal/service"
	"curve-desk/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "curve-desk/docs"
)

var (
	loadEnvFunc         = godotenv.Load
	loadConfigFunc      = config.Load
	setupLoggingFunc    = logging.Setup
	initPostgresFunc    = db.InitPostgres
	initRedisFunc       = cache.InitRedis
	initTracerFunc      = tracing.InitTracer
	newSnapshotRepoFunc = repository.NewSnapshotRepository
	newFREDProviderFunc = func(tracer trace.Tracer, apiKey, baseURL string) service.TreasuryProvider {
		return provider.NewFREDProvider(tracer, apiKey, baseURL)
	}
	newCurveServiceFunc    = service.NewCurveService
	newCurvePollerFunc     = job.NewCurvePoller
	startPollerFunc        = func(p *job.CurvePoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = func(token string, curves bot.CurveAnalyzer) { bot.StartTelegramBot(token, curves) }
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Curve Desk API
// @version         1.0
// @description     Treasury yield curve fitting, credit spread synthesis and what-if scenarios.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()
	setupLoggingFunc(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initPostgresFunc(ctx, cfg.DatabaseURL)
	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		ServiceName: "curve-desk",
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Optional backends must reach the service as untyped nils.
	checks := make(map[string]handler.HealthCheck)
	var repo service.SnapshotRepository
	if db.Pool != nil {
		snapshots := newSnapshotRepoFunc(db.Pool, tracer)
		if err := snapshots.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		repo = snapshots
		checks["postgres"] = func(ctx context.Context) error { return db.Pool.Ping(ctx) }
	}
	var redisClient service.RedisClient
	if cache.Client != nil {
		redisClient = cache.Client
		checks["redis"] = func(ctx context.Context) error { return cache.Client.Ping(ctx).Err() }
	}

	fred := newFREDProviderFunc(tracer, cfg.FREDAPIKey, cfg.FREDBaseURL)
	curveService := newCurveServiceFunc(tracer, fred, repo, redisClient, cfg.CacheTTL())

	// Background refresh, stopped by ctx cancel
	poller := newCurvePollerFunc(tracer, curveService, cfg.CurvePollSecs)
	startPollerFunc(poller, ctx)

	startTelegramBotFunc(cfg.TelegramBotToken, curveService)

	h := newHandlerFunc(tracer, curveService, cfg.APIKey)
	h.SetHealthChecks(checks)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("curve-desk"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		log.Printf("HTTP server listening on %s", srv.Addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	db.Close()

	log.Println("Server exiting")
}
