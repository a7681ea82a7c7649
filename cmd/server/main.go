// Package main is the entry point for the prompt enhancement server.
//
// The server hosts the enhancement service behind the message channel:
// gateways POST enhance messages to /v1/messages and wait for the reply.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hpn/hpn-prompt-enhancer/internal/adapter"
	"github.com/hpn/hpn-prompt-enhancer/internal/channel"
	"github.com/hpn/hpn-prompt-enhancer/internal/config"
	"github.com/hpn/hpn-prompt-enhancer/internal/credstore"
	"github.com/hpn/hpn-prompt-enhancer/internal/handler"
	"github.com/hpn/hpn-prompt-enhancer/internal/logging"
	"github.com/hpn/hpn-prompt-enhancer/internal/metrics"
	"github.com/hpn/hpn-prompt-enhancer/internal/service"
	"github.com/hpn/hpn-prompt-enhancer/internal/ui"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// =========================================================================
	// 1. Environment and configuration
	// =========================================================================
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.GetConfigWithPath(os.Getenv("HPN_ENHANCER_CONFIG"))
	if err != nil {
		return err
	}

	// =========================================================================
	// 2. Structured logger
	// =========================================================================
	logger, closeLog, err := logging.Setup(cfg.Logging, os.Stdout)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("configuration loaded",
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("provider_base_url", cfg.Provider.BaseURL),
	)

	// =========================================================================
	// 3. Credential store
	// =========================================================================
	store, err := credstore.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	defer store.Close()

	// =========================================================================
	// 4. Service and HTTP router
	// =========================================================================
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router, providers := newRouter(cfg, store, metrics.New(), logger)

	// =========================================================================
	// 5. Serve until SIGINT/SIGTERM, then shut down gracefully
	// =========================================================================
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	ui.PrintBanner(os.Stdout)
	ui.PrintStartupInfo(os.Stdout, addr, cfg.Store.Driver, providers.Names())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", slog.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown initiated")
		ui.PrintShutdown(os.Stdout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped gracefully")
	ui.PrintGoodbye(os.Stdout)
	return nil
}

// newRouter wires the provider registry, enhancement service and message
// handler into a gin engine.
func newRouter(cfg *config.Configuration, store credstore.Store, m *metrics.Metrics, logger *slog.Logger) (*gin.Engine, *adapter.Registry) {
	providers := adapter.NewRegistry(
		adapter.NewOpenAIAdapter(
			adapter.WithBaseURL(cfg.Provider.BaseURL),
			adapter.WithTimeout(cfg.Provider.RequestTimeout()),
			adapter.WithLogger(logger),
		),
	)

	svc := service.New(store, providers,
		service.WithLogger(logger),
		service.WithMetrics(m),
	)

	mux := channel.NewMux(logger)
	svc.Register(mux)

	messages := handler.NewMessageHandler(mux,
		handler.WithLogger(logger),
		handler.WithCredentials(store),
		handler.WithProviders(providers.Names),
	)

	return handler.NewRouter(messages, m, cfg.Server.AllowedOrigins, logger), providers
}
