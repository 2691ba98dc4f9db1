// Package yahoo adapts Yahoo Finance quotes to the broker session contract.
// Yahoo needs no login, so credentials are only checked for presence.
package yahoo

import (
	"context"
	"errors"
	"fmt"

	"github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"

	"marketpulse/internal/broker"
)

// Getter fetches one quote. It returns nil, nil for unknown symbols.
type Getter func(symbol string) (*finance.Quote, error)

type Backend struct {
	get Getter
}

// New returns a backend using get, or quote.Get when get is nil.
func New(get Getter) *Backend {
	if get == nil {
		get = quote.Get
	}
	return &Backend{get: get}
}

// Open satisfies broker.Opener.
func (b *Backend) Open() broker.Session {
	return &session{get: b.get}
}

type session struct {
	get Getter
}

func (s *session) Login(_ context.Context, apiKey, secretKey string) error {
	if apiKey == "" || secretKey == "" {
		return errors.New("yahoo: credentials required")
	}
	return nil
}

func (s *session) Contract(_ context.Context, code string) (*broker.Contract, error) {
	q, err := s.get(code)
	if err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", code, err)
	}
	if q == nil {
		return nil, nil
	}
	return &broker.Contract{Code: code, Name: q.ShortName, Exchange: q.FullExchangeName}, nil
}

func (s *session) Snapshots(_ context.Context, contracts []broker.Contract) ([]broker.Snapshot, error) {
	out := make([]broker.Snapshot, 0, len(contracts))
	for _, c := range contracts {
		q, err := s.get(c.Code)
		if err != nil {
			return nil, fmt.Errorf("yahoo quote %s: %w", c.Code, err)
		}
		if q == nil {
			continue
		}
		out = append(out, broker.Snapshot{
			Code:      c.Code,
			Close:     q.RegularMarketPrice,
			Reference: q.RegularMarketPreviousClose,
			Volume:    int64(q.RegularMarketVolume),
		})
	}
	return out, nil
}

func (s *session) Logout(context.Context) error { return nil }
