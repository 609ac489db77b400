package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	Fetches            prometheus.Counter
	FetchFailures      prometheus.Counter
	FetchDuration      prometheus.Histogram
	PollsSkipped       *prometheus.CounterVec
	StaleResponses     prometheus.Counter
	Commands           *prometheus.CounterVec
	CommandFailures    *prometheus.CounterVec
	NotifSent          *prometheus.CounterVec
	NotifFailed        *prometheus.CounterVec
	StartupTimeSeconds prometheus.Gauge
}

type discard struct{}

// Discard is a Metrics that records nothing.
var Discard Metrics = discard{}

func (discard) IncFetches() {}
func (discard) IncFetchFailures() {}
func (discard) ObserveFetchDuration(float64) {}
func (discard) IncPollsSkipped(string) {}
func (discard) IncStaleResponses() {}
func (discard) IncCommands(string) {}
func (discard) IncCommandFailures(string) {}
func (discard) IncNotifSent(string) {}
func (discard) IncNotifFailed(string) {}
func (discard) SetStartupTime(float64) {}
