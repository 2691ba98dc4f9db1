package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"marketpulse/internal/app"
	"marketpulse/internal/config"
	"marketpulse/internal/logging"
	"marketpulse/internal/service"
)

func main() {
	var (
		cfgPath  string
		symbol   string
		mode     string
		timeout  time.Duration
		logLevel string
	)
	cmd := &cobra.Command{
		Use:          "fetch",
		Short:        "Fetch one quote and print it as JSON",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath == "" {
				cfgPath = os.Getenv("CONFIG_FILE")
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if mode != "" {
				cfg.Provider.Mode = strings.ToLower(mode)
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return fetch(ctx, cfg, symbol, cmd.OutOrStdout(), log)
		},
	}
	cmd.Flags().StringVarP(&symbol, "symbol", "s", "2330", "stock code to fetch")
	cmd.Flags().StringVarP(&mode, "provider", "p", "", "provider mode override: mock or live")
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config (defaults to $CONFIG_FILE, then ./config.yaml)")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "overall deadline")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func fetch(ctx context.Context, cfg config.Config, symbol string, w io.Writer, log logrus.FieldLogger) error {
	p, err := app.NewProvider(cfg, log)
	if err != nil {
		return err
	}
	svc := service.New(p, log)
	if !svc.Start(ctx) {
		return errors.New("provider initialization failed")
	}
	defer svc.Stop(context.Background())

	q, err := svc.GetQuote(ctx, symbol)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(q)
}
