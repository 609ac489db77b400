// Package transitions detects match lifecycle transitions between
// snapshots and fans them out to announcers and the event topic.
package transitions

import (
	"time"

	"github.com/google/uuid"
	"github.com/mauv0809/pitchside/internal/match"
)

func maxSegNo(snap *match.Snapshot) int {
	n := 0
	for _, seg := range snap.Segments {
		if seg.SegNo > n {
			n = seg.SegNo
		}
	}
	return n
}

func newEvent(kind Kind, snap *match.Snapshot, at time.Time) Event {
	return Event{
		ID:      uuid.NewString(),
		Kind:    kind,
		MatchID: snap.Match.ID,
		Venue:   snap.Match.Venue,
		NameA:   snap.TeamName(match.TeamA),
		NameB:   snap.TeamName(match.TeamB),
		At:      at,
	}
}

// Detect returns the transitions from prev to next in the order they
// happen: kick-off, new segment, payer assignment, final whistle. The
// first snapshot of a session is a baseline and yields nothing.
func Detect(prev, next *match.Snapshot) []Event {
	if prev == nil || next == nil || prev.Match.ID != next.Match.ID {
		return nil
	}
	now := time.Now().UTC()
	var events []Event

	if prev.Match.Status == match.StatusCreated && next.Match.Status != match.StatusCreated {
		events = append(events, newEvent(KindStarted, next, now))
	}

	// The kick-off segment is part of KindStarted.
	if prevNo, nextNo := maxSegNo(prev), maxSegNo(next); prevNo > 0 && nextNo > prevNo && next.Match.Status == match.StatusLive {
		e := newEvent(KindSegmentOpened, next, now)
		e.SegNo = nextNo
		for _, seg := range next.Segments {
			if seg.SegNo == prevNo {
				score := seg.Score()
				e.ScoreA, e.ScoreB = score.A, score.B
			}
		}
		events = append(events, e)
	}

	prevPayer, _ := prev.Payer()
	if payer, ok := next.Payer(); ok && payer != prevPayer {
		e := newEvent(KindPayerAssigned, next, now)
		e.PayerTgID = payer
		if m := next.MemberOf(payer); m != nil {
			e.PayerName = m.Name
		}
		events = append(events, e)
	}

	if prev.Match.Status != match.StatusFinished && next.Match.Status == match.StatusFinished {
		e := newEvent(KindFinished, next, now)
		if next.Match.FinishedAt != nil {
			e.At = next.Match.FinishedAt.Time
		}
		final := next.FinalScore()
		e.ScoreA, e.ScoreB = final.A, final.B
		events = append(events, e)
	}
	return events
}
