package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		Fetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pitchside_snapshot_fetches_total",
			Help: "The total number of match snapshot fetches.",
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pitchside_snapshot_fetch_failures_total",
			Help: "The total number of match snapshot fetches that failed.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pitchside_snapshot_fetch_duration_seconds",
			Help:    "The duration of match snapshot fetches.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		PollsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchside_polls_skipped_total",
			Help: "The total number of scheduled polls skipped by a guard.",
		}, []string{"reason"}),
		StaleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pitchside_stale_responses_total",
			Help: "The total number of fetch responses dropped as stale or late.",
		}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchside_commands_total",
			Help: "The total number of match commands issued.",
		}, []string{"command"}),
		CommandFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchside_command_failures_total",
			Help: "The total number of match commands that failed.",
		}, []string{"command"}),
		NotifSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchside_notifications_sent_total",
			Help: "The total number of match announcements successfully sent.",
		}, []string{"channel"}),
		NotifFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchside_notifications_failed_total",
			Help: "The total number of match announcements that failed to send.",
		}, []string{"channel"}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pitchside_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.Fetches,
		s.FetchFailures,
		s.FetchDuration,
		s.PollsSkipped,
		s.StaleResponses,
		s.Commands,
		s.CommandFailures,
		s.NotifSent,
		s.NotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncFetches() {
	s.Fetches.Inc()
}

func (s *Service) IncFetchFailures() {
	s.FetchFailures.Inc()
}

func (s *Service) ObserveFetchDuration(duration float64) {
	s.FetchDuration.Observe(duration)
}

func (s *Service) IncPollsSkipped(reason string) {
	s.PollsSkipped.WithLabelValues(reason).Inc()
}

func (s *Service) IncStaleResponses() {
	s.StaleResponses.Inc()
}

func (s *Service) IncCommands(command string) {
	s.Commands.WithLabelValues(command).Inc()
}

func (s *Service) IncCommandFailures(command string) {
	s.CommandFailures.WithLabelValues(command).Inc()
}

func (s *Service) IncNotifSent(channel string) {
	s.NotifSent.WithLabelValues(channel).Inc()
}

func (s *Service) IncNotifFailed(channel string) {
	s.NotifFailed.WithLabelValues(channel).Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
