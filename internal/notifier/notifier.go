package notifier

import (
	"context"
	"fmt"

	"github.com/mauv0809/pitchside/internal/transitions"
)

// Notifier defines a high-level interface for announcing match transitions.
// This decouples the rest of the application from the specific provider (e.g., Slack).
type Notifier interface {
	// Name is the channel label used in logs and metrics.
	Name() string
	Announce(ctx context.Context, e transitions.Event, dryRun bool) error
}

var _ transitions.Notifier = Notifier(nil)

// Headline is the one-line summary of e.
func Headline(e transitions.Event) string {
	switch e.Kind {
	case transitions.KindStarted:
		return "Kick-off!"
	case transitions.KindSegmentOpened:
		return fmt.Sprintf("Game %d under way", e.SegNo)
	case transitions.KindPayerAssigned:
		return "Payer assigned"
	case transitions.KindFinished:
		return "Full time!"
	}
	return string(e.Kind)
}

// Details is the body of an announcement of e.
func Details(e transitions.Event) string {
	switch e.Kind {
	case transitions.KindStarted:
		return fmt.Sprintf("%s vs %s at %s", e.NameA, e.NameB, e.Venue)
	case transitions.KindSegmentOpened:
		return fmt.Sprintf("Previous game: %s %d:%d %s", e.NameA, e.ScoreA, e.ScoreB, e.NameB)
	case transitions.KindPayerAssigned:
		name := e.PayerName
		if name == "" {
			name = fmt.Sprintf("Player %d", e.PayerTgID)
		}
		return fmt.Sprintf("%s pays for the pitch at %s", name, e.Venue)
	case transitions.KindFinished:
		return fmt.Sprintf("%s %d:%d %s", e.NameA, e.ScoreA, e.ScoreB, e.NameB)
	}
	return ""
}

// Text is the plain-text announcement of e.
func Text(e transitions.Event) string {
	return Headline(e) + "\n" + Details(e)
}
