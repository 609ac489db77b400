package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu              sync.Mutex
	fetches         int
	fetchFailures   int
	fetchDurations  []float64
	pollsSkipped    map[string]int
	staleResponses  int
	commands        map[string]int
	commandFailures map[string]int
	notifSent       map[string]int
	notifFailed     map[string]int
	startupTime     float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		fetchDurations:  make([]float64, 0),
		pollsSkipped:    make(map[string]int),
		commands:        make(map[string]int),
		commandFailures: make(map[string]int),
		notifSent:       make(map[string]int),
		notifFailed:     make(map[string]int),
	}
}

var _ Metrics = (*Mock)(nil)

func (m *Mock) IncFetches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
}

func (m *Mock) IncFetchFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchFailures++
}

func (m *Mock) ObserveFetchDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchDurations = append(m.fetchDurations, duration)
}

func (m *Mock) IncPollsSkipped(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pollsSkipped[reason]++
}

func (m *Mock) IncStaleResponses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staleResponses++
}

func (m *Mock) IncCommands(command string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[command]++
}

func (m *Mock) IncCommandFailures(command string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandFailures[command]++
}

func (m *Mock) IncNotifSent(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifSent[channel]++
}

func (m *Mock) IncNotifFailed(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifFailed[channel]++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// Fetches returns the number of times IncFetches was called.
func (m *Mock) Fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

// FetchFailures returns the number of times IncFetchFailures was called.
func (m *Mock) FetchFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchFailures
}

// PollsSkipped returns how many polls were skipped for reason.
func (m *Mock) PollsSkipped(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pollsSkipped[reason]
}

// StaleResponses returns the number of dropped responses.
func (m *Mock) StaleResponses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.staleResponses
}

// Commands returns how many times command was issued.
func (m *Mock) Commands(command string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commands[command]
}

// CommandFailures returns how many times command failed.
func (m *Mock) CommandFailures(command string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commandFailures[command]
}

// NotifSent returns the number of announcements sent on channel.
func (m *Mock) NotifSent(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifSent[channel]
}

// NotifFailed returns the number of announcements that failed on channel.
func (m *Mock) NotifFailed(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifFailed[channel]
}
