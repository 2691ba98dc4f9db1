// Package app assembles providers from configuration for the binaries.
package app

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"marketpulse/internal/broker"
	"marketpulse/internal/broker/gateway"
	"marketpulse/internal/broker/yahoo"
	"marketpulse/internal/config"
	"marketpulse/internal/httpx"
	"marketpulse/internal/provider"
	"marketpulse/internal/provider/live"
	"marketpulse/internal/provider/mock"
	"marketpulse/internal/workerpool"
)

// NewProvider returns the provider selected by cfg.Provider.Mode. The
// provider is not initialized.
func NewProvider(cfg config.Config, log logrus.FieldLogger) (provider.Provider, error) {
	switch cfg.Provider.Mode {
	case config.ModeMock:
		return mock.New(mock.Config{
			Delay:  time.Duration(cfg.Mock.DelayMs) * time.Millisecond,
			Logger: log,
		}), nil
	case config.ModeLive:
		open, err := NewOpener(cfg.Live)
		if err != nil {
			return nil, err
		}
		return live.New(live.Config{
			Open:         open,
			APIKeyEnv:    cfg.Live.APIKeyEnv,
			SecretKeyEnv: cfg.Live.SecretKeyEnv,
			Pool:         workerpool.New(cfg.Live.MaxConcurrency),
			Logger:       log,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider mode %q", cfg.Provider.Mode)
	}
}

// NewOpener returns the upstream session factory for the live backend.
func NewOpener(cfg config.Live) (broker.Opener, error) {
	switch cfg.Backend {
	case config.BackendGateway:
		timeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client := gateway.New(
			gateway.WithBaseURL(cfg.GatewayURL),
			gateway.WithHTTPClient(httpx.New(timeout)),
		)
		return client.Open, nil
	case config.BackendYahoo:
		return yahoo.New(nil).Open, nil
	default:
		return nil, fmt.Errorf("unknown live backend %q", cfg.Backend)
	}
}
