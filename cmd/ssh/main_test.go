package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"testing"
	"time"

	"curve-desk/internal/config"
	"curve-desk/internal/domain"
	"curve-desk/internal/service"
	"curve-desk/pkg/tracing"

	"github.com/charmbracelet/ssh"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

func TestMainBootstrap(t *testing.T) {
	restore := stubSSHDeps(t)
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func TestPublicKeyHandler(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := gossh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("ssh key: %v", err)
	}
	fingerprint := gossh.FingerprintSHA256(key)

	if !publicKeyHandler(nil)(nil, key) {
		t.Fatal("empty allow-list should accept any key")
	}
	if !publicKeyHandler([]string{"SHA256:other", fingerprint})(nil, key) {
		t.Fatal("listed fingerprint should be accepted")
	}
	if publicKeyHandler([]string{"SHA256:other"})(nil, key) {
		t.Fatal("unlisted fingerprint should be denied")
	}
}

type nopProvider struct{}

func (nopProvider) FetchLatest(context.Context) (map[string]domain.Observation, error) {
	return nil, nil
}

func stubSSHDeps(t *testing.T) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origSetupLogging := setupLoggingFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewProvider := newFREDProviderFunc
	origNewWishServer := newWishServerFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			SSHPort:         2222,
			SSHHostKeyPath:  ".ssh/test_key",
			ScenarioStepBps: 5,
		}
	}
	setupLoggingFunc = func(string, string) {}
	initPostgresFunc = func(context.Context, string) {}
	initRedisFunc = func(context.Context, string) {}
	initTracerFunc = func(ctx context.Context, opts tracing.Options) (*sdktrace.TracerProvider, trace.Tracer, error) {
		if opts.Enabled {
			t.Errorf("tracing should follow config, got %+v", opts)
		}
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newFREDProviderFunc = func(trace.Tracer, string, string) service.TreasuryProvider { return nopProvider{} }
	newWishServerFunc = func(ops ...ssh.Option) (*ssh.Server, error) {
		if len(ops) != 4 {
			t.Errorf("expected 4 server options, got %d", len(ops))
		}
		return nil, nil
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		setupLoggingFunc = origSetupLogging
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newFREDProviderFunc = origNewProvider
		newWishServerFunc = origNewWishServer
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
	}
}
