package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tracer/internal/backup/interfaces"
	"tracer/internal/controllers"
	"tracer/internal/providers"
	"tracer/internal/structures"
)

type App struct {
	WebServer *http.Server
	conf      *structures.Config
	logger    providers.Logger
	scheduler interfaces.SchedulerInterface
}

func NewApp(healthController *controllers.HealthController, scheduler interfaces.SchedulerInterface, conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) *App {
	// API routes are logged and instrumented; infrastructure routes are not.
	instrumentedAPI := providers.MetricsMiddleware(metrics, providers.AccessLogMiddleware(logger, router.Mux()))

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		conf:      conf,
		logger:    logger,
		scheduler: scheduler,
	}
}

// Run serves until ctx is done or SIGINT/SIGTERM arrives, then shuts the
// server down and writes a final backup.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof(providers.TypeApp, "Starting %s", a.conf.AppName)
	a.scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", a.WebServer.Addr)
		if err := a.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		a.logger.Infof(providers.TypeApp, "Shutdown signal received")
	case <-ctx.Done():
		a.logger.Infof(providers.TypeApp, "Shutdown requested")
	case err := <-serverErr:
		a.scheduler.Stop()
		return fmt.Errorf("server error: %w", err)
	}

	a.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.WebServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := a.scheduler.Persist(); err != nil {
		return err
	}
	a.logger.Infof(providers.TypeApp, "gracefully stopped")
	return nil
}
