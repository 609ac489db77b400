package session

import (
	"sync/atomic"
	"time"

	"github.com/mauv0809/pitchside/internal/match"
	"github.com/mauv0809/pitchside/internal/metrics"
	"github.com/mauv0809/pitchside/internal/permissions"
)

// Listener is notified after a snapshot is applied. prev is nil on the first
// snapshot.
type Listener func(prev, next *match.Snapshot)

// View is what consumers render.
type View struct {
	Snapshot     *match.Snapshot          `json:"snapshot"`
	Capabilities permissions.Capabilities `json:"capabilities"`
	Err          error                    `json:"-"`
	Notice       string                   `json:"notice,omitempty"`
	// Blocking is true while there is no good snapshot to show.
	Blocking bool `json:"blocking"`
}

// Presence holds the two poll guards.
type Presence struct {
	visible atomic.Bool
	editing atomic.Bool
}

// NewPresence returns guards for a visible surface with no focused input.
func NewPresence() *Presence {
	p := &Presence{}
	p.visible.Store(true)
	return p
}

// SetVisible records whether the consuming surface is in the foreground.
func (p *Presence) SetVisible(v bool) { p.visible.Store(v) }

// SetEditing records whether an input currently holds focus.
func (p *Presence) SetEditing(v bool) { p.editing.Store(v) }

func (p *Presence) Visible() bool { return p.visible.Load() }

func (p *Presence) Editing() bool { return p.editing.Load() }

// Option configures a Store.
type Option func(*Store)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithMetrics records fetch and command metrics.
func WithMetrics(m metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithPresence shares guards with the consuming surface.
func WithPresence(p *Presence) Option {
	return func(s *Store) { s.presence = p }
}

// WithListener subscribes l before the first fetch.
func WithListener(l Listener) Option {
	return func(s *Store) { s.listeners = append(s.listeners, l) }
}
