package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/api/apitest"
	"github.com/mauv0809/pitchside/internal/feedback"
	"github.com/mauv0809/pitchside/internal/match"
	"github.com/mauv0809/pitchside/internal/metrics"
	"github.com/mauv0809/pitchside/internal/scoring"
	"github.com/mauv0809/pitchside/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestServer serves one watched match organized by user 1.
func setupTestServer(t *testing.T) (*Server, *session.Store) {
	t.Helper()
	fake := apitest.New()
	t.Cleanup(fake.Close)
	fake.AddUser(1, "Org", false)
	fake.AddUser(2, "Bea", false)
	ctx := context.Background()
	client := fake.ClientFor(1)
	matchID, err := client.CreateMatch(ctx, api.CreateMatchParams{Venue: "Arena"})
	require.NoError(t, err)
	require.NoError(t, fake.ClientFor(2).Join(ctx, matchID))

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	store := session.NewStore(matchID, client, session.WithMetrics(metricsSvc))
	t.Cleanup(store.Stop)
	require.NoError(t, store.Refresh(ctx))

	return NewServer([]Watcher{store}, metrics.NewMetricsHandler(reg), feedback.DefaultWindow), store
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheckHandler(t *testing.T) {
	server, store := setupTestServer(t)

	rr := do(t, server, http.MethodGet, "/health?verbose=true", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "OK! 1 session(s)"))

	store.Stop()
	rr = do(t, server, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestMatchHandler(t *testing.T) {
	server, store := setupTestServer(t)
	target := "/matches/" + match.IDString(store.MatchID())

	rr := do(t, server, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var view struct {
		Snapshot struct {
			Match struct {
				Venue string `json:"venue"`
			} `json:"match"`
		} `json:"snapshot"`
		Capabilities map[string]bool `json:"capabilities"`
		Blocking     bool            `json:"blocking"`
		Scoreboard   struct {
			Phase scoring.Phase `json:"phase"`
		} `json:"scoreboard"`
		Payer struct {
			ShowNegotiation bool `json:"show_negotiation"`
		} `json:"payer"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "Arena", view.Snapshot.Match.Venue)
	assert.False(t, view.Blocking)
	assert.Equal(t, scoring.PhaseForming, view.Scoreboard.Phase)
	assert.True(t, view.Payer.ShowNegotiation)
	assert.NotEmpty(t, view.Capabilities)
}

func TestMatchHandlerUnknownMatch(t *testing.T) {
	server, _ := setupTestServer(t)

	assert.Equal(t, http.StatusNotFound, do(t, server, http.MethodGet, "/matches/999", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, server, http.MethodGet, "/matches/abc", "").Code)
}

func TestListMatchesHandler(t *testing.T) {
	server, store := setupTestServer(t)

	rr := do(t, server, http.MethodGet, "/matches", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var out []sessionSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, store.MatchID(), out[0].MatchID)
	assert.Equal(t, string(match.StatusCreated), out[0].Status)
	assert.True(t, out[0].Alive)
}

func TestPresenceHandler(t *testing.T) {
	server, store := setupTestServer(t)
	target := "/matches/" + match.IDString(store.MatchID()) + "/presence"

	rr := do(t, server, http.MethodPut, target, `{"editing": true}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, store.Presence().Editing())
	assert.True(t, store.Presence().Visible(), "omitted fields are left alone")

	rr = do(t, server, http.MethodPut, target, `{"visible": false, "editing": false}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, store.Presence().Visible())
	assert.JSONEq(t, `{"visible": false, "editing": false}`, rr.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(t, server, http.MethodPut, target, `nope`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, server, http.MethodPost, target, `{}`).Code)
}

func TestRequestID(t *testing.T) {
	server, _ := setupTestServer(t)

	rr := do(t, server, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/matches", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr = httptest.NewRecorder()
	server.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	rr := do(t, server, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "pitchside_")
}
