package scoring

import "github.com/mauv0809/pitchside/internal/match"

// Phase is the lifecycle phase of the live scoring machine.
type Phase string

const (
	PhaseForming  Phase = "forming"
	PhaseLive     Phase = "live"
	PhaseFinished Phase = "finished"
)

// PhaseOf maps a match status to its phase. Unknown statuses count as
// forming.
func PhaseOf(status match.Status) Phase {
	switch status {
	case match.StatusLive:
		return PhaseLive
	case match.StatusFinished:
		return PhaseFinished
	}
	return PhaseForming
}

// Scoreboard is the score summary of a snapshot.
type Scoreboard struct {
	Phase    Phase           `json:"phase"`
	Live     match.Score     `json:"live"`
	Final    match.Score     `json:"final"`
	Active   *match.Segment  `json:"active_segment,omitempty"`
	Segments []match.Segment `json:"segments"`
	NameA    string          `json:"team_name_a"`
	NameB    string          `json:"team_name_b"`
}

// Board summarizes the scores of snap.
func Board(snap *match.Snapshot) Scoreboard {
	if snap == nil {
		return Scoreboard{Phase: PhaseForming}
	}
	b := Scoreboard{
		Phase:    PhaseOf(snap.Match.Status),
		Live:     snap.LiveScore(),
		Final:    snap.FinalScore(),
		Segments: snap.EndedSegments(),
		NameA:    snap.TeamName(match.TeamA),
		NameB:    snap.TeamName(match.TeamB),
	}
	if seg := snap.ActiveSegment(); seg != nil {
		active := *seg
		b.Active = &active
	}
	return b
}
