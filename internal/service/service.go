// Package service holds the single quote provider a process serves from.
package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"marketpulse/internal/provider"
)

// QuoteService delegates to one provider chosen at startup. Provider errors
// are returned unchanged.
type QuoteService struct {
	p   provider.Provider
	log logrus.FieldLogger
}

func New(p provider.Provider, log logrus.FieldLogger) *QuoteService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &QuoteService{p: p, log: log.WithField("provider", p.Name())}
}

// Start initializes the provider. A failure leaves the service running but
// not ready.
func (s *QuoteService) Start(ctx context.Context) bool {
	s.log.Info("initializing quote provider")
	if !s.p.Initialize(ctx) {
		s.log.Error("quote provider initialization failed; serving as not ready")
		return false
	}
	s.log.Info("quote provider ready")
	return true
}

// Stop closes the provider.
func (s *QuoteService) Stop(ctx context.Context) {
	s.log.Info("closing quote provider")
	s.p.Close(ctx)
}

func (s *QuoteService) GetQuote(ctx context.Context, symbol string) (provider.Quote, error) {
	return s.p.GetQuote(ctx, symbol)
}

func (s *QuoteService) Ready() bool { return s.p.Ready() }

func (s *QuoteService) ProviderName() string { return s.p.Name() }
