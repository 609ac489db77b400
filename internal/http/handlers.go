package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/feedback"
	"github.com/mauv0809/pitchside/internal/match"
	"github.com/mauv0809/pitchside/internal/payer"
	"github.com/mauv0809/pitchside/internal/scoring"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		for id, watcher := range s.Sessions {
			if !watcher.Alive() {
				log.Warn("Session stopped", "match_id", id)
				http.Error(w, fmt.Sprintf("session for match %d stopped", id), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK! %d session(s), up %s", len(s.Sessions), time.Since(s.startedAt).Round(time.Second))
	}
}

func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]sessionSummary, 0, len(s.Sessions))
		for id, watcher := range s.Sessions {
			view := watcher.View()
			summary := sessionSummary{MatchID: id, Alive: watcher.Alive(), Blocking: view.Blocking, Notice: view.Notice}
			if view.Snapshot != nil {
				summary.Status = string(view.Snapshot.Match.Status)
			}
			out = append(out, summary)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) watcher(w http.ResponseWriter, r *http.Request) (Watcher, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return nil, false
	}
	watcher, ok := s.Sessions[id]
	if !ok {
		http.Error(w, fmt.Sprintf("match %d is not watched", id), http.StatusNotFound)
		return nil, false
	}
	return watcher, true
}

// MatchHandler renders the current view of a watched match: the snapshot,
// the viewer's capabilities, the scoreboard and the payer state.
func (s *Server) MatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		watcher, ok := s.watcher(w, r)
		if !ok {
			return
		}
		view := watcher.View()
		out := MatchView{
			View:       view,
			Scoreboard: scoring.Board(view.Snapshot),
			Payer:      payer.Derive(view.Snapshot),
		}
		if view.Snapshot != nil && view.Snapshot.Match.Status == match.StatusFinished {
			out.FeedbackClosesAt = feedback.ClosesAt(view.Snapshot, s.FeedbackWindow)
		}
		if view.Err != nil {
			out.Error = api.Message(view.Err)
		}
		status := http.StatusOK
		if view.Blocking {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, out)
	}
}

// PresenceHandler updates the poll guards of a session.
func (s *Server) PresenceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		watcher, ok := s.watcher(w, r)
		if !ok {
			return
		}
		var req presenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid presence body", http.StatusBadRequest)
			return
		}
		p := watcher.Presence()
		if req.Visible != nil {
			p.SetVisible(*req.Visible)
		}
		if req.Editing != nil {
			p.SetEditing(*req.Editing)
		}
		log.Info("Presence updated", "match_id", watcher.MatchID(), "visible", p.Visible(), "editing", p.Editing())
		writeJSON(w, http.StatusOK, map[string]bool{"visible": p.Visible(), "editing": p.Editing()})
	}
}
