package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"marketpulse/internal/api"
	"marketpulse/internal/app"
	"marketpulse/internal/config"
	"marketpulse/internal/logging"
	"marketpulse/internal/service"
)

func main() {
	var cfgPath string
	cmd := &cobra.Command{
		Use:          "marketpulse",
		Short:        "Serve Taiwan stock quotes over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath == "" {
				cfgPath = os.Getenv("CONFIG_FILE")
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config (defaults to $CONFIG_FILE, then ./config.yaml)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	if cfg.Auth.APIKey == "" {
		log.Warn("API_KEY not set; /protected runs in development mode")
	}

	p, err := app.NewProvider(cfg, log)
	if err != nil {
		return err
	}
	svc := service.New(p, log)
	svc.Start(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
		defer cancel()
		svc.Stop(stopCtx)
	}()

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(svc, api.Config{
		APIKey:         cfg.Auth.APIKey,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeoutSec) * time.Second,
		Logger:         log,
	})

	ln, err := net.Listen("tcp", ":"+cfg.Server.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return serve(ctx, ln, newHTTPServer(cfg, router), shutdownTimeout(cfg), log)
}

func newHTTPServer(cfg config.Config, h http.Handler) *http.Server {
	timeout := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second
	return &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.WithGzip(api.WithBodyLimit(h)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      timeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serve runs srv on ln until ctx is done, then drains in-flight requests.
func serve(ctx context.Context, ln net.Listener, srv *http.Server, grace time.Duration, log logrus.FieldLogger) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", ln.Addr().String()).Info("listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func shutdownTimeout(cfg config.Config) time.Duration {
	if cfg.Server.ShutdownTimeoutSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(cfg.Server.ShutdownTimeoutSec) * time.Second
}
