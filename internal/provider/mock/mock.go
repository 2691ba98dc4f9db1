// Package mock provides a synthetic quote provider that needs no upstream.
package mock

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"marketpulse/internal/provider"
)

const (
	defaultBase = 100.0
	maxChange   = 10.0
	minVolume   = 1000
	maxVolume   = 100000
	namePrefix  = "Mock Company "
)

var basePrices = map[string]float64{
	"2330": 500.0,
	"2317": 30.0,
	"2454": 45.0,
}

// BasePrice returns the reference price the mock draws around for symbol.
func BasePrice(symbol string) float64 {
	if p, ok := basePrices[symbol]; ok {
		return p
	}
	return defaultBase
}

// Rand is the subset of *rand.Rand the provider draws from.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type Config struct {
	// Delay simulates setup and request latency. Zero disables it.
	Delay time.Duration
	// Rand defaults to a time-seeded PCG source.
	Rand   Rand
	Logger logrus.FieldLogger
	// Now defaults to time.Now.
	Now func() time.Time
}

type Provider struct {
	cfg   Config
	ready atomic.Bool

	mu sync.Mutex // guards cfg.Rand
}

var _ provider.Provider = (*Provider)(nil)

func New(cfg Config) *Provider {
	if cfg.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		cfg.Rand = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) Name() string { return "mock" }

func (p *Provider) Ready() bool { return p.ready.Load() }

func (p *Provider) Initialize(ctx context.Context) bool {
	p.cfg.Logger.Info("using mock quote provider")
	_ = p.wait(ctx)
	p.ready.Store(true)
	return true
}

func (p *Provider) GetQuote(ctx context.Context, symbol string) (provider.Quote, error) {
	if !p.ready.Load() {
		return provider.Quote{}, provider.Invalid(symbol, provider.ErrNotReady)
	}
	if symbol == "" {
		return provider.Quote{}, provider.Invalid(symbol, provider.ErrEmptySymbol)
	}
	if err := p.wait(ctx); err != nil {
		return provider.Quote{}, provider.Upstream(symbol, err)
	}

	base := BasePrice(symbol)
	change, volume := p.draw()

	return provider.Quote{
		Symbol:        symbol,
		Name:          namePrefix + symbol,
		Price:         provider.Round2(base + change),
		Change:        provider.Round2(change),
		ChangePercent: provider.Round2(change / base * 100),
		Volume:        volume,
		Timestamp:     p.cfg.Now(),
	}, nil
}

func (p *Provider) Close(context.Context) {
	p.cfg.Logger.Info("mock quote provider closed")
	p.ready.Store(false)
}

// draw returns a change in [-maxChange, maxChange] and a volume in
// [minVolume, maxVolume].
func (p *Provider) draw() (float64, int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	change := -maxChange + p.cfg.Rand.Float64()*2*maxChange
	volume := minVolume + p.cfg.Rand.IntN(maxVolume-minVolume+1)
	return change, int64(volume)
}

// wait sleeps for the configured delay without holding any shared state.
func (p *Provider) wait(ctx context.Context) error {
	if p.cfg.Delay <= 0 {
		return nil
	}
	t := time.NewTimer(p.cfg.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
