// In file: cmd/gateway/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dileep-u-k/hn-gateway/internal/hackernews"
	"github.com/dileep-u-k/hn-gateway/internal/mcp"
	"github.com/dileep-u-k/hn-gateway/internal/stats"
	"github.com/dileep-u-k/hn-gateway/internal/tools"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// main is the Composition Root: it builds the logger, runs the gateway and
// exits non-zero if run fails. It is the only place the process exits.
func main() {
	// stdout belongs to the stdio transport, so logs always go to stderr.
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := run(logger); err != nil {
		logger.WithField("error", err).Error("❌ FATAL")
		os.Exit(1)
	}
}

// run loads configuration, initializes all services, injects dependencies and
// serves the selected transport until SIGINT/SIGTERM. Deferred cleanup always runs.
func run(logger *logrus.Logger) error {
	buildInfo := GetBuildInfo()

	// 1. LOAD CONFIGURATION
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	level, _ := logrus.ParseLevel(cfg.Server.LogLevel)
	logger.SetLevel(level)
	logger.WithFields(logrus.Fields{
		"version":   buildInfo.Version,
		"commit":    buildInfo.GitCommit,
		"transport": cfg.Server.Transport,
	}).Info("🚀 Starting Hacker News MCP Gateway")

	// 2. INITIALIZE SERVICES
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profiler, closeRedis := initializeProfiler(rootCtx, cfg.Server.RedisAddr, logger)
	defer closeRedis()

	gateway := hackernews.New(cfg.Upstream, hackernews.WithLogger(logger))

	toolManager := initializeToolManager(gateway, profiler, logger)
	mcpServer := mcp.NewServer(serverName, buildInfo.Version, toolManager, logger)
	logger.Info("✅ All services initialized.")

	// 3. START BACKGROUND PROCESSES
	health := newUpstreamHealth()
	if cfg.Server.HealthCheckInterval > 0 {
		go startHealthChecker(rootCtx, cfg.Server.HealthCheckInterval, gateway, profiler, health, logger)
	}

	// 4. RUN THE SELECTED TRANSPORT
	if cfg.Server.Transport == TransportStdio {
		if err := mcpServer.ServeStdio(rootCtx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio transport: %w", err)
		}
		logger.Info("👋 stdio transport closed.")
		return nil
	}

	var lister ProfileLister
	if profiler != nil {
		lister = profiler
	}
	gin.SetMode(os.Getenv("GIN_MODE"))
	handler := NewGatewayHandler(gateway, toolManager, mcpServer, lister, health, logger)
	engine := newRouter(handler, cfg.Server.CORSOrigins)

	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Server.Port), Handler: engine}
	return runServerWithGracefulShutdown(rootCtx, srv, logger)
}

// initializeProfiler connects to Redis when an address is configured. Without
// Redis the gateway runs with stats disabled.
func initializeProfiler(ctx context.Context, addr string, logger *logrus.Logger) (*stats.Profiler, func()) {
	if addr == "" {
		logger.Info("ℹ️ REDIS_ADDR not set, call stats disabled.")
		return nil, func() {}
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.WithFields(logrus.Fields{"addr": addr, "error": err}).Warn("⚠️ Could not connect to Redis, call stats disabled.")
		rdb.Close()
		return nil, func() {}
	}

	logger.WithField("addr", addr).Info("✅ Connected to Redis.")
	return stats.NewProfiler(rdb, logger), func() { rdb.Close() }
}

// initializeToolManager creates the registry and registers the story tools.
func initializeToolManager(src tools.StorySource, profiler *stats.Profiler, logger *logrus.Logger) *tools.ToolManager {
	var recorder tools.Recorder
	if profiler != nil {
		recorder = profiler
	}
	manager := tools.NewToolManager(recorder, logger)
	tools.RegisterStoryTools(manager, src)

	logger.WithField("tools", manager.ToolCount()).Info("✅ Tool Manager initialized.")
	return manager
}

// upstreamHealth holds the result of the latest health check.
type upstreamHealth struct {
	status atomic.Value
}

func newUpstreamHealth() *upstreamHealth {
	h := &upstreamHealth{}
	h.status.Store("unknown")
	return h
}

func (h *upstreamHealth) Status() string { return h.status.Load().(string) }

func (h *upstreamHealth) set(healthy bool) {
	if healthy {
		h.status.Store(stats.StatusOnline)
	} else {
		h.status.Store(stats.StatusOffline)
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// startHealthChecker probes the item store on every tick until ctx is done.
func startHealthChecker(ctx context.Context, interval time.Duration, upstream pinger, profiler *stats.Profiler, health *upstreamHealth, logger logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.WithField("interval", interval.String()).Info("🩺 Health checker started.")

	for {
		checkUpstream(ctx, upstream, profiler, health, logger)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func checkUpstream(ctx context.Context, upstream pinger, profiler *stats.Profiler, health *upstreamHealth, logger logrus.FieldLogger) {
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err := upstream.Ping(checkCtx)
	cancel()

	healthy := err == nil
	health.set(healthy)
	if profiler != nil {
		profiler.RecordHealthCheck(ctx, healthy)
	}

	entry := logger.WithField("healthy", healthy)
	if err != nil {
		entry.WithField("error", err).Warn("🩺 Upstream health check failed")
		return
	}
	entry.Debug("🩺 Upstream health check passed")
}

// runServerWithGracefulShutdown serves until ctx is done or the listener
// fails, then drains in-flight requests.
func runServerWithGracefulShutdown(ctx context.Context, srv *http.Server, logger logrus.FieldLogger) error {
	listenErr := make(chan error, 1)
	go func() {
		logger.Infof("👂 Gateway is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("👋 Server exited gracefully.")
	return nil
}
