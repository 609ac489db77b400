package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mauv0809/pitchside/internal/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMatch(t *testing.T) {
	mockJSONResponse := `{
		"ok": true,
		"match": {"id": 42, "venue": "Arena", "status": "created", "created_at": "2025-07-08T10:00:00"},
		"members": [{"tg_id": 1, "role": "organizer", "can_edit": true, "joined_at": "2025-07-08T10:00:00", "name": "Org"}],
		"segments": [],
		"events": [],
		"team_variants": [{"variant_no": 1, "is_recommended": true, "teams": {"team_a": [1], "team_b": [2]}, "why_text": null}],
		"team_current": null,
		"payments": {"payer": null, "requests": [], "statuses": []},
		"mvp": {"top_tg_id": null, "votes": {}},
		"me": {"tg_id": 1, "is_admin": false}
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/matches/42", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "signed", r.Header.Get("X-Telegram-InitData"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, mockJSONResponse)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", WithToken("secret"), WithInitData("signed"), WithHTTPClient(server.Client()))

	snap, err := client.GetMatch(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), snap.Match.ID)
	assert.Equal(t, match.StatusCreated, snap.Match.Status)
	require.Len(t, snap.Members, 1)
	assert.Equal(t, match.RoleOrganizer, snap.Members[0].Role)
	assert.Equal(t, match.IDList{"1"}, snap.TeamVariants[0].Teams.A)
	assert.Nil(t, snap.TeamCurrent)
}

func TestCommandSendsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/matches/3/teams/custom", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"base_variant_no": 2, "teams": {"A": ["1"], "B": ["2", "3"]}}`, string(body))
		fmt.Fprint(w, `{"ok": true, "why_text": "worse balance"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()))
	why, err := client.CustomTeams(context.Background(), 3, CustomTeamsParams{
		BaseVariantNo: 2,
		Teams:         TeamsPayload{A: []string{"1"}, B: []string{"2", "3"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "worse balance", why)
}

func TestEnvelopeFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
		wantCode string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"ok": false, "error": "hash_mismatch"}`, KindUnauthenticated, "hash_mismatch"},
		{"forbidden", http.StatusForbidden, `{"ok": false, "error": "feedback_closed"}`, KindForbidden, "feedback_closed"},
		{"not found", http.StatusNotFound, `{"ok": false, "error": "event_not_found"}`, KindNotFound, "event_not_found"},
		{"bad request", http.StatusBadRequest, `{"ok": false, "error": "segment_not_finished"}`, KindInvalid, "segment_not_finished"},
		{"server error without body", http.StatusBadGateway, ``, KindTransient, "Bad Gateway"},
		{"ok false with 200", http.StatusOK, `{"ok": false, "error": "no_offer"}`, KindInvalid, "no_offer"},
		{"ok false closed window", http.StatusOK, `{"ok": false, "error": "feedback_closed"}`, KindForbidden, "feedback_closed"},
		{"ok false missing match", http.StatusOK, `{"ok": false, "error": "match_not_found"}`, KindNotFound, "match_not_found"},
		{"ok false bad identity", http.StatusOK, `{"ok": false, "error": "hash_mismatch"}`, KindUnauthenticated, "hash_mismatch"},
		{"garbage body", http.StatusOK, `<html>`, KindTransient, "invalid_response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := NewClient(server.URL, WithHTTPClient(server.Client()))
			err := client.Start(context.Background(), 1)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantKind, KindOf(err))
		})
	}
}

func TestTransportFailureIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url)
	_, err := client.GetMatch(context.Background(), 1)

	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err))
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, "No connection to the server.", Message(err))
}

func TestEmptySuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()))
	assert.NoError(t, client.DeleteEvent(context.Background(), 1, 2))
}
