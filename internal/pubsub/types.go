package pubsub

import (
	"sync"

	"cloud.google.com/go/pubsub"
)

type client struct {
	client *pubsub.Client
	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// KindAttribute is the message attribute carrying the event kind, so
// subscriptions can filter without decoding the payload.
const KindAttribute = "kind"

type kinded interface {
	EventKind() string
}
