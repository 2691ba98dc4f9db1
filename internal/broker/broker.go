// Package broker defines the upstream brokerage session the live quote
// provider drives. Implementations may block; callers run them through a
// worker pool.
package broker

import "context"

// Contract describes a tradable instrument as the upstream knows it.
type Contract struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

// Snapshot is the latest trade for one instrument.
type Snapshot struct {
	Code string
	// Close is the last traded price.
	Close float64
	// Reference is the prior close the change is measured against.
	Reference float64
	Volume    int64
}

// Session is an upstream connection.
//
//go:generate mockgen -package=live_test -destination=../provider/live/mock_session_test.go -source=broker.go Session
type Session interface {
	Login(ctx context.Context, apiKey, secretKey string) error
	// Contract resolves a stock code. It returns nil, nil for unknown codes.
	Contract(ctx context.Context, code string) (*Contract, error)
	Snapshots(ctx context.Context, contracts []Contract) ([]Snapshot, error)
	Logout(ctx context.Context) error
}

// Opener creates a new, unauthenticated Session.
type Opener func() Session
