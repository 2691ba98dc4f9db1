// Package live provides quotes from an authenticated upstream brokerage
// session.
package live

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"marketpulse/internal/broker"
	"marketpulse/internal/provider"
	"marketpulse/internal/workerpool"
)

const (
	DefaultAPIKeyEnv    = "SHIOAJI_API_KEY"
	DefaultSecretKeyEnv = "SHIOAJI_SECRET_KEY"
)

var (
	errMissingCredentials = errors.New("missing upstream credentials")
	errNoQuoteData        = errors.New("no quote data available")
)

type Config struct {
	// Open creates the upstream session. Required.
	Open broker.Opener
	// APIKeyEnv and SecretKeyEnv name the environment variables holding the
	// credentials. They default to SHIOAJI_API_KEY and SHIOAJI_SECRET_KEY.
	APIKeyEnv    string
	SecretKeyEnv string
	// Pool runs the blocking upstream calls. Defaults to a pool of 8.
	Pool   *workerpool.Pool
	Logger logrus.FieldLogger
	Now    func() time.Time
}

// Provider owns a single upstream session shared by all requests. The
// session handle is written by Initialize and Close only.
type Provider struct {
	cfg     Config
	session atomic.Pointer[sessionHandle]
	ready   atomic.Bool
}

type sessionHandle struct {
	broker.Session
}

var _ provider.Provider = (*Provider)(nil)

func New(cfg Config) *Provider {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.SecretKeyEnv == "" {
		cfg.SecretKeyEnv = DefaultSecretKeyEnv
	}
	if cfg.Pool == nil {
		cfg.Pool = workerpool.New(8)
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) Name() string { return "live" }

func (p *Provider) Ready() bool { return p.ready.Load() }

// Initialize logs in with credentials from the environment. It reports
// false on any failure and never panics.
func (p *Provider) Initialize(ctx context.Context) bool {
	log := p.cfg.Logger.WithField("provider", p.Name())
	if p.ready.Load() {
		return true
	}

	apiKey := os.Getenv(p.cfg.APIKeyEnv)
	secretKey := os.Getenv(p.cfg.SecretKeyEnv)
	if apiKey == "" || secretKey == "" {
		log.WithError(errMissingCredentials).Errorf("initialization failed: set %s and %s", p.cfg.APIKeyEnv, p.cfg.SecretKeyEnv)
		return false
	}
	if p.cfg.Open == nil {
		log.Error("initialization failed: no upstream configured")
		return false
	}

	s, err := workerpool.Call(ctx, p.cfg.Pool, func(ctx context.Context) (broker.Session, error) {
		s := p.cfg.Open()
		if s == nil {
			return nil, errors.New("upstream returned no session")
		}
		if err := s.Login(ctx, apiKey, secretKey); err != nil {
			return nil, err
		}
		return s, nil
	})
	if err != nil {
		log.WithError(err).Error("initialization failed: login")
		return false
	}

	p.session.Store(&sessionHandle{s})
	p.ready.Store(true)
	log.Info("upstream login succeeded")
	return true
}

func (p *Provider) GetQuote(ctx context.Context, symbol string) (provider.Quote, error) {
	if !p.ready.Load() {
		return provider.Quote{}, provider.Invalid(symbol, provider.ErrNotReady)
	}
	if symbol == "" {
		return provider.Quote{}, provider.Invalid(symbol, provider.ErrEmptySymbol)
	}
	h := p.session.Load()
	if h == nil {
		return provider.Quote{}, provider.Invalid(symbol, provider.ErrNoSession)
	}

	contract, err := workerpool.Call(ctx, p.cfg.Pool, func(ctx context.Context) (*broker.Contract, error) {
		return h.Contract(ctx, symbol)
	})
	if err != nil {
		return provider.Quote{}, p.upstream(symbol, "contract lookup", err)
	}
	if contract == nil {
		return provider.Quote{}, provider.NotFound(symbol)
	}

	snaps, err := workerpool.Call(ctx, p.cfg.Pool, func(ctx context.Context) ([]broker.Snapshot, error) {
		return h.Snapshots(ctx, []broker.Contract{*contract})
	})
	if err != nil {
		return provider.Quote{}, p.upstream(symbol, "snapshot", err)
	}
	if len(snaps) == 0 {
		return provider.Quote{}, p.upstream(symbol, "snapshot", errNoQuoteData)
	}
	at := p.cfg.Now()

	snap := snaps[0]
	name := contract.Name
	if name == "" {
		name = symbol
	}
	return provider.NewQuote(symbol, name, snap.Close, snap.Reference, snap.Volume, at), nil
}

func (p *Provider) upstream(symbol, step string, err error) error {
	p.cfg.Logger.WithFields(logrus.Fields{
		"provider": p.Name(),
		"symbol":   symbol,
		"step":     step,
	}).WithError(err).Warn("upstream quote failed")
	return provider.Upstream(symbol, err)
}

// Close logs out when a session is live. Logout failures are logged and the
// session is dropped regardless.
func (p *Provider) Close(ctx context.Context) {
	log := p.cfg.Logger.WithField("provider", p.Name())
	defer func() {
		p.session.Store(nil)
		p.ready.Store(false)
	}()

	h := p.session.Load()
	if h == nil || !p.ready.Load() {
		return
	}
	if err := p.cfg.Pool.Do(ctx, func(ctx context.Context) error { return h.Logout(ctx) }); err != nil {
		log.WithError(err).Warn("error during logout")
		return
	}
	log.Info("upstream logout succeeded")
}
