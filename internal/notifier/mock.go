package notifier

import (
	"context"
	"sync"

	"github.com/mauv0809/pitchside/internal/transitions"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	AnnounceFunc func(e transitions.Event, dryRun bool) error

	AnnounceCalls []AnnounceCall
}

// AnnounceCall holds the arguments for a call to Announce.
type AnnounceCall struct {
	Event  transitions.Event
	DryRun bool
}

var _ Notifier = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Announce(_ context.Context, e transitions.Event, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnnounceCalls = append(m.AnnounceCalls, AnnounceCall{Event: e, DryRun: dryRun})
	if m.AnnounceFunc != nil {
		return m.AnnounceFunc(e, dryRun)
	}
	return nil
}

// Kinds returns the kinds announced so far, in order.
func (m *Mock) Kinds() []transitions.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]transitions.Kind, 0, len(m.AnnounceCalls))
	for _, c := range m.AnnounceCalls {
		out = append(out, c.Event.Kind)
	}
	return out
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnnounceCalls = nil
}
