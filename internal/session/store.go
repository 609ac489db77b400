package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/match"
	"github.com/mauv0809/pitchside/internal/metrics"
	"github.com/mauv0809/pitchside/internal/permissions"
)

// DefaultInterval is the poll interval of a viewing session.
const DefaultInterval = 2 * time.Second

// ErrClosed is returned by operations on a stopped store.
var ErrClosed = errors.New("session closed")

// Store owns the authoritative snapshot of one match for one viewing
// session. It is safe for concurrent use.
type Store struct {
	matchID  int64
	client   api.Client
	metrics  metrics.Metrics
	presence *Presence
	interval time.Duration

	// applyMu serializes applying a response and running listeners so that
	// listeners observe snapshots in fetch order.
	applyMu sync.Mutex

	mu         sync.Mutex
	snap       *match.Snapshot
	caps       permissions.Capabilities
	err        error
	notice     string
	authFailed bool
	listeners  []Listener
	issued     uint64
	settled    uint64
	alive      bool
	scheduler  gocron.Scheduler
	cancel     context.CancelFunc
}

// NewStore creates a store for matchID. Call Start to begin polling.
func NewStore(matchID int64, client api.Client, opts ...Option) *Store {
	s := &Store{
		matchID:  matchID,
		client:   client,
		metrics:  metrics.Discard,
		presence: NewPresence(),
		interval: DefaultInterval,
		alive:    true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MatchID returns the id of the watched match.
func (s *Store) MatchID() int64 {
	return s.matchID
}

// Presence returns the guards consulted before every scheduled poll.
func (s *Store) Presence() *Presence {
	return s.presence
}

// Subscribe registers l to run after every applied snapshot. Listeners run
// in registration order and must not call Refresh synchronously.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Start fetches immediately and then polls every interval until Stop. A
// failed first fetch is recorded in the view, not returned.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.scheduler != nil {
		s.mu.Unlock()
		return fmt.Errorf("session for match %d already started", s.matchID)
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	if err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrClosed) {
		log.Warn("Initial snapshot fetch failed", "match_id", s.matchID, "error", err)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		cancel()
		return fmt.Errorf("failed to create poll scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.Tick(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cancel()
		_ = sched.Shutdown()
		return fmt.Errorf("failed to schedule poll: %w", err)
	}

	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		_ = sched.Shutdown()
		return ErrClosed
	}
	s.scheduler = sched
	s.mu.Unlock()

	sched.Start()
	log.Info("Match session started", "match_id", s.matchID, "interval", s.interval)
	return nil
}

// Stop cancels polling and in-flight requests. Responses arriving after Stop
// are dropped. Stop is idempotent.
func (s *Store) Stop() {
	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return
	}
	s.alive = false
	sched, cancel := s.scheduler, s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			log.Warn("Failed to shut down poll scheduler", "match_id", s.matchID, "error", err)
		}
	}
	log.Info("Match session stopped", "match_id", s.matchID)
}

// Alive reports whether the store has not been stopped.
func (s *Store) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// Tick is the scheduled poll. It skips the fetch while the surface is hidden
// or the user is editing.
func (s *Store) Tick(ctx context.Context) {
	if !s.presence.Visible() {
		s.metrics.IncPollsSkipped(metrics.SkipHidden)
		log.Debug("Skipping poll, surface hidden", "match_id", s.matchID)
		return
	}
	if s.presence.Editing() {
		s.metrics.IncPollsSkipped(metrics.SkipEditing)
		log.Debug("Skipping poll, user is editing", "match_id", s.matchID)
		return
	}
	_ = s.Refresh(ctx)
}

// Refresh fetches the snapshot unconditionally and applies it unless a newer
// response has already been applied or the store was stopped meanwhile.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return ErrClosed
	}
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	s.metrics.IncFetches()
	start := time.Now()
	snap, err := s.client.GetMatch(ctx, s.matchID)
	s.metrics.ObserveFetchDuration(time.Since(start).Seconds())

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		s.metrics.IncStaleResponses()
		log.Debug("Dropping response after teardown", "match_id", s.matchID, "seq", seq)
		return ErrClosed
	}
	if seq <= s.settled {
		s.mu.Unlock()
		s.metrics.IncStaleResponses()
		log.Debug("Dropping stale response", "match_id", s.matchID, "seq", seq, "settled", s.settled)
		return nil
	}
	s.settled = seq

	if err != nil {
		s.err = err
		if api.KindOf(err) == api.KindUnauthenticated {
			s.authFailed = true
		}
		s.mu.Unlock()
		s.metrics.IncFetchFailures()
		log.Warn("Snapshot fetch failed", "match_id", s.matchID, "kind", api.KindOf(err), "error", err)
		return err
	}
	if snap == nil {
		snap = &match.Snapshot{}
	}

	prev := s.snap
	if prev != nil && snap.Match.Status.Before(prev.Match.Status) {
		log.Warn("Server reported a status regression", "match_id", s.matchID, "from", prev.Match.Status, "to", snap.Match.Status)
	}
	s.snap = snap
	s.caps = permissions.ForSnapshot(snap)
	s.err = nil
	s.authFailed = false
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, seg := range snap.ScoreDrift() {
		derived := match.ScoreFromEvents(snap.EventsOf(seg.ID))
		log.Warn("Segment score disagrees with its events",
			"match_id", s.matchID, "segment_id", seg.ID,
			"stored", fmt.Sprintf("%d:%d", seg.ScoreA, seg.ScoreB),
			"derived", fmt.Sprintf("%d:%d", derived.A, derived.B))
	}
	if snap.Match.Status == match.StatusLive && snap.ActiveSegmentCount() != 1 {
		log.Warn("Live match without exactly one active segment", "match_id", s.matchID, "active", snap.ActiveSegmentCount())
	}

	for _, l := range listeners {
		l(prev, snap)
	}
	return nil
}

// Snapshot returns the last applied snapshot, or nil.
func (s *Store) Snapshot() *match.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// View returns the consumer-facing state.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Snapshot:     s.snap,
		Capabilities: s.caps,
		Err:          s.err,
		Notice:       s.notice,
		Blocking:     s.snap == nil || s.authFailed,
	}
}

// Notice returns the current dismissable status message.
func (s *Store) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

// Dismiss clears the status message.
func (s *Store) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = ""
}

// Do runs a command and refetches on success. A failure keeps the last good
// snapshot and becomes the dismissable notice. Stale references trigger a
// refetch so the view catches up.
func (s *Store) Do(ctx context.Context, name string, cmd func(ctx context.Context) error) error {
	s.mu.Lock()
	alive, authFailed := s.alive, s.authFailed
	s.mu.Unlock()
	if !alive {
		return ErrClosed
	}
	if authFailed {
		err := fmt.Errorf("%w: session needs to re-authenticate", api.ErrUnauthenticated)
		s.fail(name, err)
		return err
	}

	s.metrics.IncCommands(name)
	if err := cmd(ctx); err != nil {
		s.metrics.IncCommandFailures(name)
		s.fail(name, err)
		switch api.KindOf(err) {
		case api.KindNotFound:
			_ = s.Refresh(ctx)
		case api.KindUnauthenticated:
			s.mu.Lock()
			s.authFailed = true
			s.mu.Unlock()
		}
		return err
	}

	log.Debug("Command succeeded", "match_id", s.matchID, "command", name)
	s.Dismiss()
	if err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrClosed) {
		log.Warn("Refetch after command failed", "match_id", s.matchID, "command", name, "error", err)
	}
	return nil
}

func (s *Store) fail(name string, err error) {
	msg := api.Message(err)
	s.mu.Lock()
	s.notice = msg
	s.mu.Unlock()
	log.Warn("Command failed", "match_id", s.matchID, "command", name, "kind", api.KindOf(err), "error", err)
}
