package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncFetches()
	IncFetchFailures()
	ObserveFetchDuration(duration float64)
	IncPollsSkipped(reason string)
	IncStaleResponses()
	IncCommands(command string)
	IncCommandFailures(command string)
	IncNotifSent(channel string)
	IncNotifFailed(channel string)
	SetStartupTime(duration float64)
}

// Poll skip reasons.
const (
	SkipHidden  = "hidden"
	SkipEditing = "editing"
)
