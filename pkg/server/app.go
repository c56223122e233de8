package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LiveChart/internal/domain/models"
	"LiveChart/internal/domain/repository"
	"LiveChart/internal/handler/ws"
	"LiveChart/internal/service/ratelimit"
	"LiveChart/internal/usecase"
	"LiveChart/pkg/config"
	xhttp "LiveChart/pkg/http"
	applogger "LiveChart/pkg/logger"
)

const limiterIdle = 10 * time.Minute

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	controller *usecase.ChartLifecycleController
	poller     *usecase.LivePoller
	hub        *ws.Hub
	httpServer *xhttp.Server
	limiter    *ratelimit.Limiter
	sink       repository.EventSink
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	controller *usecase.ChartLifecycleController,
	poller *usecase.LivePoller,
	hub *ws.Hub,
	httpServer *xhttp.Server,
	limiter *ratelimit.Limiter,
	sink repository.EventSink,
) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		controller: controller,
		poller:     poller,
		hub:        hub,
		httpServer: httpServer,
		limiter:    limiter,
		sink:       sink,
	}
}

// DefaultIdentity is the identity mounted at startup.
func DefaultIdentity(cfg *config.Config) models.Identity {
	d := cfg.Chart.Default
	return (&models.SessionRequest{
		Symbol:   d.Symbol,
		Interval: d.Interval,
		Source:   d.Source,
		Strategy: d.Strategy,
		Period:   d.Period,
	}).Identity()
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Start mounts the default chart and starts serving. It returns once
// everything is running.
func (a *App) Start(ctx context.Context) error {
	id := DefaultIdentity(a.cfg)
	if err := a.controller.Mount(ctx, id); err != nil {
		return fmt.Errorf("mount chart: %w", err)
	}
	a.logger.Info("chart mounted",
		applogger.String("symbol", id.Symbol),
		applogger.String("interval", id.Interval),
		applogger.String("strategy", string(id.Strategy)),
	)

	go a.pruneLimiter(ctx)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	return nil
}

// Shutdown stops the HTTP server, disconnects viewers and tears the chart
// down. In-flight polls and queued chart events are awaited before the sink
// is closed.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	var firstErr error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}
	a.hub.Close()
	a.controller.Unmount()

	done := make(chan struct{})
	go func() {
		a.poller.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Warn("poller did not drain before shutdown deadline")
	}
	if err := a.controller.Close(ctx); err != nil {
		a.logger.Warn("chart events not fully published", applogger.Error(err))
	}

	if err := a.sink.Close(); err != nil {
		a.logger.Warn("event sink close error", applogger.Error(err))
	}
	a.logger.Info("shutdown complete")
	return firstErr
}

func (a *App) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.Prune(limiterIdle); n > 0 {
				a.logger.Debug("rate limiter pruned", applogger.Int("keys", n))
			}
		}
	}
}
