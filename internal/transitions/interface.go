package transitions

import "context"

// Notifier announces events on one channel.
type Notifier interface {
	Name() string
	Announce(ctx context.Context, e Event, dryRun bool) error
}

// Publisher sends events to a topic.
type Publisher interface {
	SendMessage(ctx context.Context, topic string, data any) error
}
