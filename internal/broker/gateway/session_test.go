package gateway_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"marketpulse/internal/broker"
	"marketpulse/internal/broker/gateway"
)

func jsonResponse(t *testing.T, status int, v any) *http.Response {
	t.Helper()
	buffer := &bytes.Buffer{}
	if v != nil {
		require.NoError(t, json.NewEncoder(buffer).Encode(v))
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(buffer)}
}

func rawResponse(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

// loggedIn returns a session that has completed a login against httpClient.
func loggedIn(t *testing.T, httpClient *MockHTTPClient, options ...gateway.Option) broker.Session {
	t.Helper()
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "/api/v1/auth/login", req.URL.Path)
			return jsonResponse(t, http.StatusOK, map[string]string{"token": "tok-1"}), nil
		})
	options = append([]gateway.Option{gateway.WithHTTPClient(httpClient)}, options...)
	s := gateway.New(options...).Open()
	require.NoError(t, s.Login(t.Context(), "key", "secret"))
	return s
}

func TestLogin_SendsCredentials(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock http client
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: the credentials are posted as JSON
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodPost, req.Method)
			require.Equal(t, "http://gateway.local/api/v1/auth/login", req.URL.String())
			require.Equal(t, "application/json", req.Header.Get("Content-Type"))
			require.Empty(t, req.Header.Get("Authorization"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			require.Equal(t, map[string]string{"api_key": "key", "secret_key": "secret"}, body)

			return jsonResponse(t, http.StatusOK, map[string]string{"token": "tok-1"}), nil
		}).
		Times(1)

	// Act
	s := gateway.New(gateway.WithHTTPClient(httpClient), gateway.WithBaseURL("http://gateway.local/")).Open()
	err := s.Login(t.Context(), "key", "secret")

	// Assert
	require.NoError(t, err)
}

func TestLogin_Unauthorized(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Return(rawResponse(http.StatusUnauthorized, "bad key"), nil)

	s := gateway.New(gateway.WithHTTPClient(httpClient)).Open()
	err := s.Login(t.Context(), "key", "wrong")
	require.ErrorIs(t, err, gateway.ErrUnauthorized)
}

func TestLogin_EmptyToken(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Return(jsonResponse(t, http.StatusOK, map[string]string{}), nil)

	s := gateway.New(gateway.WithHTTPClient(httpClient)).Open()
	require.Error(t, s.Login(t.Context(), "key", "secret"))
}

func TestContract_RequiresLogin(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	s := gateway.New(gateway.WithHTTPClient(httpClient)).Open()
	_, err := s.Contract(t.Context(), "2330")
	require.ErrorIs(t, err, gateway.ErrNotLoggedIn)
}

func TestContract_Found(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	s := loggedIn(t, httpClient, gateway.WithHeader(http.Header{"X-Client": []string{"marketpulse"}}))

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Equal(t, "/api/v1/contracts/stocks/2330", req.URL.Path)
			require.Equal(t, "Bearer tok-1", req.Header.Get("Authorization"))
			require.Equal(t, "marketpulse", req.Header.Get("X-Client"))
			return jsonResponse(t, http.StatusOK, map[string]string{"code": "2330", "name": "台積電", "exchange": "TSE"}), nil
		})

	c, err := s.Contract(t.Context(), "2330")
	require.NoError(t, err)
	require.Equal(t, &broker.Contract{Code: "2330", Name: "台積電", Exchange: "TSE"}, c)
}

func TestContract_NotFound(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	s := loggedIn(t, httpClient)

	httpClient.EXPECT().Do(gomock.Any()).Return(rawResponse(http.StatusNotFound, `{"detail":"unknown"}`), nil)

	c, err := s.Contract(t.Context(), "9999")
	require.NoError(t, err)
	require.Nil(t, c)
}

func TestContract_ServerError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	s := loggedIn(t, httpClient)

	httpClient.EXPECT().Do(gomock.Any()).Return(rawResponse(http.StatusBadGateway, "upstream down"), nil)

	_, err := s.Contract(t.Context(), "2330")
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
	require.Contains(t, err.Error(), "upstream down")
}

func TestContract_TransportError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	s := loggedIn(t, httpClient)

	cause := errors.New("dial tcp: connection refused")
	httpClient.EXPECT().Do(gomock.Any()).Return(nil, cause)

	_, err := s.Contract(t.Context(), "2330")
	require.ErrorIs(t, err, cause)
}

func TestSnapshots_Decodes(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	s := loggedIn(t, httpClient)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "/api/v1/data/snapshots", req.URL.Path)
			var body struct {
				Contracts []broker.Contract `json:"contracts"`
			}
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			require.Equal(t, []broker.Contract{{Code: "2330", Exchange: "TSE"}}, body.Contracts)
			return rawResponse(http.StatusOK, `{"snapshots":[{"code":"2330","close":512.5,"reference":500,"volume":23456}]}`), nil
		})

	snaps, err := s.Snapshots(t.Context(), []broker.Contract{{Code: "2330", Exchange: "TSE"}})
	require.NoError(t, err)
	require.Equal(t, []broker.Snapshot{{Code: "2330", Close: 512.5, Reference: 500, Volume: 23456}}, snaps)
}

func TestSnapshots_MissingFieldsAreZero(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	s := loggedIn(t, httpClient)

	httpClient.EXPECT().Do(gomock.Any()).Return(rawResponse(http.StatusOK, `{"snapshots":[{"code":"2330","close":10}]}`), nil)

	snaps, err := s.Snapshots(t.Context(), []broker.Contract{{Code: "2330"}})
	require.NoError(t, err)
	require.Equal(t, []broker.Snapshot{{Code: "2330", Close: 10}}, snaps)
}

func TestSnapshots_Empty(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	s := loggedIn(t, httpClient)

	httpClient.EXPECT().Do(gomock.Any()).Return(rawResponse(http.StatusOK, `{"snapshots":[]}`), nil)

	snaps, err := s.Snapshots(t.Context(), []broker.Contract{{Code: "2330"}})
	require.NoError(t, err)
	require.Empty(t, snaps)
}

func TestSnapshots_BadJSON(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	s := loggedIn(t, httpClient)

	httpClient.EXPECT().Do(gomock.Any()).Return(rawResponse(http.StatusOK, `{"snapshots":`), nil)

	_, err := s.Snapshots(t.Context(), []broker.Contract{{Code: "2330"}})
	require.Error(t, err)
}

func TestLogout_ClearsToken(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	s := loggedIn(t, httpClient)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "/api/v1/auth/logout", req.URL.Path)
			return rawResponse(http.StatusNoContent, ""), nil
		})

	require.NoError(t, s.Logout(t.Context()))

	_, err := s.Contract(t.Context(), "2330")
	require.ErrorIs(t, err, gateway.ErrNotLoggedIn)
}
