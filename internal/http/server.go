package http

import (
	"net/http"
	"time"
)

func NewServer(sessions []Watcher, metricsHandler http.Handler, feedbackWindow time.Duration) *Server {
	server := &Server{
		Sessions:       make(map[int64]Watcher, len(sessions)),
		MetricsHandler: metricsHandler,
		Router:         http.NewServeMux(),
		FeedbackWindow: feedbackWindow,
		startedAt:      time.Now(),
	}
	for _, w := range sessions {
		server.Sessions[w.MatchID()] = w
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	if s.MetricsHandler != nil {
		s.Router.Handle("GET /metrics", s.MetricsHandler)
	}
	s.Router.Handle("GET /health", Chain(s.HealthCheckHandler(), requestIDMiddleware, paramsMiddleware))
	s.Router.Handle("GET /matches", Chain(s.ListMatchesHandler(), requestIDMiddleware, paramsMiddleware))
	s.Router.Handle("GET /matches/{id}", Chain(s.MatchHandler(), requestIDMiddleware, paramsMiddleware))
	s.Router.Handle("PUT /matches/{id}/presence", Chain(s.PresenceHandler(), requestIDMiddleware, paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
