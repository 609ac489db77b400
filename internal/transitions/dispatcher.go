package transitions

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pitchside/internal/match"
	"github.com/mauv0809/pitchside/internal/metrics"
)

const publishChannel = "pubsub"

// Dispatcher turns snapshot changes into announcements and published
// events. Delivery failures are logged and counted, never returned.
type Dispatcher struct {
	notifiers []Notifier
	publisher Publisher
	topic     string
	metrics   metrics.Metrics
	dryRun    bool
	timeout   time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithNotifier(n Notifier) Option {
	return func(d *Dispatcher) { d.notifiers = append(d.notifiers, n) }
}

func WithPublisher(p Publisher, topic string) Option {
	return func(d *Dispatcher) {
		d.publisher = p
		d.topic = topic
	}
}

// WithDryRun logs announcements instead of sending them and skips
// publishing.
func WithDryRun(dryRun bool) Option {
	return func(d *Dispatcher) { d.dryRun = dryRun }
}

func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

func NewDispatcher(m metrics.Metrics, opts ...Option) *Dispatcher {
	if m == nil {
		m = metrics.Discard
	}
	d := &Dispatcher{metrics: m, timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle is a session listener.
func (d *Dispatcher) Handle(prev, next *match.Snapshot) {
	events := Detect(prev, next)
	if len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	d.Dispatch(ctx, events)
}

// Dispatch delivers events to every notifier and the topic.
func (d *Dispatcher) Dispatch(ctx context.Context, events []Event) {
	for _, e := range events {
		log.Info("Match transition", "match_id", e.MatchID, "kind", e.Kind, "event_id", e.ID)
		for _, n := range d.notifiers {
			if err := n.Announce(ctx, e, d.dryRun); err != nil {
				log.Error("Failed to announce transition", "error", err, "channel", n.Name(), "match_id", e.MatchID, "kind", e.Kind)
			}
		}
		d.publish(ctx, e)
	}
}

func (d *Dispatcher) publish(ctx context.Context, e Event) {
	if d.publisher == nil || d.topic == "" {
		return
	}
	if d.dryRun {
		log.Info("[Dry Run] Would publish transition", "topic", d.topic, "kind", e.Kind, "match_id", e.MatchID)
		return
	}
	if err := d.publisher.SendMessage(ctx, d.topic, e); err != nil {
		d.metrics.IncNotifFailed(publishChannel)
		log.Error("Failed to publish transition", "error", err, "topic", d.topic, "kind", e.Kind)
		return
	}
	d.metrics.IncNotifSent(publishChannel)
}
