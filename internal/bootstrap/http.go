package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/mmk-interviews/config"
	"github.com/target/mmk-interviews/internal/domain/progress"
	httpx "github.com/target/mmk-interviews/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
	// ErrCh receives a listen failure; optional.
	ErrCh chan<- error
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	if appCfg.HTTP.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", appCfg.HTTP.CompressionLevel)
	}
	handler := httpx.NewRouter(routerServices(cfg.Services, appCfg.HTTP, logger))

	return startServer(serverOptions{
		logger:            logger,
		handler:           handler,
		addr:              appCfg.HTTP.Addr,
		readHeaderTimeout: appCfg.HTTP.ReadHeaderTimeout,
		errCh:             cfg.ErrCh,
	})
}

func routerServices(svc ServiceContainer, httpCfg config.HTTPConfig, logger *slog.Logger) httpx.RouterServices {
	return httpx.RouterServices{
		Sessions:           svc.Sessions,
		Pipeline:           svc.Pipeline,
		Progress:           svc.Progress,
		PromptAudio:        svc.PromptAudio,
		HealthChecks:       svc.HealthChecks,
		MaxUploadBytes:     httpCfg.MaxUploadBytes,
		CORSOrigins:        httpCfg.CORSOrigins,
		CompressionEnabled: httpCfg.CompressionEnabled,
		CompressionLevel:   httpCfg.CompressionLevel,
		Logger:             logger,
	}
}

type serverOptions struct {
	logger            *slog.Logger
	handler           http.Handler
	addr              string
	readHeaderTimeout time.Duration
	errCh             chan<- error
}

func startServer(opts serverOptions) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	addr := opts.addr
	if addr == "" {
		addr = ":8080"
	}
	readHeaderTimeout := opts.readHeaderTimeout
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 10 * time.Second
	}

	// No read/write deadline: an upload waits on transcription and scoring, and the status
	// stream stays open for the whole interview.
	server := &http.Server{
		Addr:              addr,
		Handler:           opts.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		opts.logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			opts.logger.Error("HTTP server failed", "error", err)
			if opts.errCh != nil {
				select {
				case opts.errCh <- err:
				default:
				}
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context  context.Context
	Server   *http.Server
	Progress *progress.Registry
	Timeout  time.Duration
	Logger   *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	// Release open status streams first; Shutdown waits for their handlers to return.
	if cfg.Progress != nil {
		cfg.Progress.StopAll()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(cfg.Context, timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
