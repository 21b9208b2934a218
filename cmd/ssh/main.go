package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"curve-desk/internal/cache"
	"curve-desk/internal/config"
	"curve-desk/internal/db"
	"curve-desk/internal/logging"
	"curve-desk/internal/provider"
	"curve-desk/internal/repository"
	"curve-desk/internal/service"
	"curve-desk/internal/tui"
	"curve-desk/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	wishlogging "github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
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
	newCurveServiceFunc = service.NewCurveService
	newWishServerFunc   = wish.NewServer
	setupSignalNotify   = ossignal.Notify
	waitForSignalFunc   = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()
	setupLoggingFunc(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initPostgresFunc(ctx, cfg.DatabaseURL)
	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		ServiceName: "curve-desk-ssh",
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
	var repo service.SnapshotRepository
	if db.Pool != nil {
		repo = newSnapshotRepoFunc(db.Pool, tracer)
	}
	var redisClient service.RedisClient
	if cache.Client != nil {
		redisClient = cache.Client
	}

	fred := newFREDProviderFunc(tracer, cfg.FREDAPIKey, cfg.FREDBaseURL)
	curveService := newCurveServiceFunc(tracer, fred, repo, redisClient, cfg.CacheTTL())

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(publicKeyHandler(cfg.SSHAllowedFingerprints)),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				model := tui.NewAppModel(tui.Services{
					Curves:   curveService,
					Username: s.User(),
					Step:     cfg.ScenarioStep(),
				})
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)

				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			wishlogging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create SSH server: %v", err)
	}

	if srv != nil {
		go func() {
			log.Printf("SSH server listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("SSH server stopped: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("SSH server shutdown error: %v", err)
		}
	}
	db.Close()

	log.Println("SSH server exited")
}

// publicKeyHandler admits keys whose SHA256 fingerprint is in allowed. An
// empty allow-list admits every key.
func publicKeyHandler(allowed []string) ssh.PublicKeyHandler {
	set := make(map[string]struct{}, len(allowed))
	for _, fp := range allowed {
		set[fp] = struct{}{}
	}
	if len(set) == 0 {
		log.Warn("SSH_ALLOWED_FINGERPRINTS empty, accepting any public key")
	}

	return func(ctx ssh.Context, key ssh.PublicKey) bool {
		fingerprint := gossh.FingerprintSHA256(key)
		if len(set) == 0 {
			return true
		}
		if _, ok := set[fingerprint]; !ok {
			log.WithField("fingerprint", fingerprint).Warn("SSH auth denied")
			return false
		}
		log.WithField("fingerprint", fingerprint).Info("SSH auth accepted")
		return true
	}
}
