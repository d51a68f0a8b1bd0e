// helixaskd is the HelixAsk server: Ask orchestration, tool-log SSE
// streaming, the adapter safety gate, and chat-session/training-trace
// storage, behind a single Echo v5 HTTP surface.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/helixask/helixaskd/pkg/api"
	"github.com/helixask/helixaskd/pkg/asklocal"
	"github.com/helixask/helixaskd/pkg/config"
	"github.com/helixask/helixaskd/pkg/events"
	"github.com/helixask/helixaskd/pkg/orchestrator"
	"github.com/helixask/helixaskd/pkg/ratelimit"
	"github.com/helixask/helixaskd/pkg/safety"
	"github.com/helixask/helixaskd/pkg/store"
	"github.com/helixask/helixaskd/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("could not load %s: %v (continuing with existing environment)", envPath, err)
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	httpAddr := ":" + getEnv("HTTP_PORT", "8080")
	askLocalEndpoint := getEnv("ASK_LOCAL_URL", "http://127.0.0.1:9400/generate")

	log.Printf("starting %s", version.Full())
	log.Printf("config directory: %s", *configDir)

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	bus := events.NewBus(cfg.Events.RingBufferSize, cfg.Events.SubscriberOutbox)
	sessions := store.NewSessionStore()
	traces := store.NewTraceStore()
	gate := safety.NewGate(nil)
	generator := asklocal.New(askLocalEndpoint, nil)

	orch := orchestrator.New(orchestrator.Deps{
		Bus:       bus,
		Generator: generator,
	}, cfg.Ask)
	defer orch.Close()

	var limiter *ratelimit.Limiter
	var guard *ratelimit.Guard
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewLimiter(msDuration(cfg.RateLimit.APIWindowMs), cfg.RateLimit.APIMax)
		defer limiter.Close()
		guard = ratelimit.NewGuard(cfg.RateLimit.ConcurrencyMax)
		defer guard.Close()
	}

	server := api.NewServer(cfg, orch, bus, gate, sessions, traces, limiter, guard)

	slog.Info("helixaskd listening", "addr", httpAddr)
	if err := server.Start(httpAddr); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
