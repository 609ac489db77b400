package payer

import (
	"context"

	"github.com/mauv0809/pitchside/internal/match"
)

// Session is the slice of the match session the negotiator needs.
type Session interface {
	MatchID() int64
	Snapshot() *match.Snapshot
	Do(ctx context.Context, name string, cmd func(ctx context.Context) error) error
}
