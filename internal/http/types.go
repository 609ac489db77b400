package http

import (
	"net/http"
	"time"

	"github.com/mauv0809/pitchside/internal/payer"
	"github.com/mauv0809/pitchside/internal/scoring"
	"github.com/mauv0809/pitchside/internal/session"
)

// Watcher is a watched match session.
type Watcher interface {
	MatchID() int64
	View() session.View
	Presence() *session.Presence
	Alive() bool
}

type Server struct {
	Sessions       map[int64]Watcher
	MetricsHandler http.Handler
	Router         *http.ServeMux
	FeedbackWindow time.Duration
	startedAt      time.Time
}

// MatchView is the JSON rendering of one watched match.
type MatchView struct {
	session.View
	Error      string             `json:"error,omitempty"`
	Scoreboard scoring.Scoreboard `json:"scoreboard"`
	Payer      payer.View         `json:"payer"`
	// FeedbackClosesAt is set once the match has finished.
	FeedbackClosesAt *time.Time `json:"feedback_closes_at,omitempty"`
}

type presenceRequest struct {
	Visible *bool `json:"visible"`
	Editing *bool `json:"editing"`
}

type sessionSummary struct {
	MatchID  int64  `json:"match_id"`
	Status   string `json:"status,omitempty"`
	Alive    bool   `json:"alive"`
	Blocking bool   `json:"blocking"`
	Notice   string `json:"notice,omitempty"`
}
