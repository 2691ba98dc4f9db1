package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"marketpulse/internal/broker"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotLoggedIn  = errors.New("not logged in")
)

type session struct {
	client *Client

	mu    sync.RWMutex
	token string
}

type loginRequest struct {
	APIKey    string `json:"api_key"`
	SecretKey string `json:"secret_key"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type snapshotsRequest struct {
	Contracts []broker.Contract `json:"contracts"`
}

type snapshotsResponse struct {
	Snapshots []snapshot `json:"snapshots"`
}

type snapshot struct {
	Code      string      `json:"code"`
	Close     json.Number `json:"close"`
	Reference json.Number `json:"reference"`
	Volume    json.Number `json:"volume"`
}

func (s *session) Login(ctx context.Context, apiKey, secretKey string) error {
	var out loginResponse
	if err := s.do(ctx, http.MethodPost, "/api/v1/auth/login", loginRequest{APIKey: apiKey, SecretKey: secretKey}, &out, false); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if out.Token == "" {
		return fmt.Errorf("login: empty token")
	}
	s.mu.Lock()
	s.token = out.Token
	s.mu.Unlock()
	return nil
}

func (s *session) Contract(ctx context.Context, code string) (*broker.Contract, error) {
	var out broker.Contract
	err := s.do(ctx, http.MethodGet, "/api/v1/contracts/stocks/"+url.PathEscape(code), nil, &out, true)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("contract %s: %w", code, err)
	}
	if out.Code == "" {
		out.Code = code
	}
	return &out, nil
}

func (s *session) Snapshots(ctx context.Context, contracts []broker.Contract) ([]broker.Snapshot, error) {
	var out snapshotsResponse
	if err := s.do(ctx, http.MethodPost, "/api/v1/data/snapshots", snapshotsRequest{Contracts: contracts}, &out, true); err != nil {
		return nil, fmt.Errorf("snapshots: %w", err)
	}
	snaps := make([]broker.Snapshot, 0, len(out.Snapshots))
	for _, raw := range out.Snapshots {
		snap, err := raw.decode()
		if err != nil {
			return nil, fmt.Errorf("snapshots: %s: %w", raw.Code, err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func (s *session) Logout(ctx context.Context) error {
	if err := s.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil, true); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

var errNotFound = errors.New("not found")

// do sends one JSON request. When authed is set the session token is sent as
// a bearer token.
func (s *session) do(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(s.client.baseURL, "/")+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header = s.client.header.Clone()
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		s.mu.RLock()
		token := s.token
		s.mu.RUnlock()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := s.client.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		break

	case http.StatusNotFound:
		return errNotFound

	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized

	default:
		b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<10))
		return fmt.Errorf("%s %s -> %d: %s", method, path, res.StatusCode, strings.TrimSpace(string(b)))
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (r snapshot) decode() (broker.Snapshot, error) {
	closePrice, err := numToFloat(r.Close)
	if err != nil {
		return broker.Snapshot{}, fmt.Errorf("close: %w", err)
	}
	reference, err := numToFloat(r.Reference)
	if err != nil {
		return broker.Snapshot{}, fmt.Errorf("reference: %w", err)
	}
	volume, err := numToFloat(r.Volume)
	if err != nil {
		return broker.Snapshot{}, fmt.Errorf("volume: %w", err)
	}
	return broker.Snapshot{
		Code:      r.Code,
		Close:     closePrice,
		Reference: reference,
		Volume:    int64(volume),
	}, nil
}

// numToFloat treats a missing number as zero.
func numToFloat(n json.Number) (float64, error) {
	if strings.TrimSpace(n.String()) == "" {
		return 0, nil
	}
	return n.Float64()
}
