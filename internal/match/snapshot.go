package match

import (
	"errors"
	"fmt"
	"sort"
)

// ErrPartitionMismatch is returned when a team partition does not cover the
// eligible members exactly once.
var ErrPartitionMismatch = errors.New("team partition does not match eligible members")

// MemberOf returns the membership record of tgID, or nil.
func (s *Snapshot) MemberOf(tgID int64) *Member {
	if s == nil {
		return nil
	}
	for i := range s.Members {
		if s.Members[i].TgID == tgID {
			return &s.Members[i]
		}
	}
	return nil
}

// Self returns the viewer's own membership, or nil when not a member.
func (s *Snapshot) Self() *Member {
	if s == nil {
		return nil
	}
	return s.MemberOf(s.Me.TgID)
}

// Eligible returns the ids of non-spectator members in join order.
func (s *Snapshot) Eligible() IDList {
	members := make([]Member, 0, len(s.Members))
	for _, m := range s.Members {
		if m.Eligible() {
			members = append(members, m)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i].JoinedAt, members[j].JoinedAt
		// Members without a join time sort last.
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(b.Time)
	})
	out := make(IDList, 0, len(members))
	for _, m := range members {
		out = append(out, IDString(m.TgID))
	}
	return out
}

// ActiveSegment returns the most recent segment without an end time.
func (s *Snapshot) ActiveSegment() *Segment {
	var active *Segment
	for i := range s.Segments {
		seg := &s.Segments[i]
		if seg.Active() && (active == nil || seg.SegNo > active.SegNo) {
			active = seg
		}
	}
	return active
}

// ActiveSegmentCount counts segments that have not ended.
func (s *Snapshot) ActiveSegmentCount() int {
	n := 0
	for _, seg := range s.Segments {
		if seg.Active() {
			n++
		}
	}
	return n
}

// SegmentByID returns the segment with id, or nil.
func (s *Snapshot) SegmentByID(id int64) *Segment {
	for i := range s.Segments {
		if s.Segments[i].ID == id {
			return &s.Segments[i]
		}
	}
	return nil
}

// EventByID returns the event with id, or nil.
func (s *Snapshot) EventByID(id int64) *Event {
	for i := range s.Events {
		if s.Events[i].ID == id {
			return &s.Events[i]
		}
	}
	return nil
}

// EndedSegments returns ended segments in sequence order.
func (s *Snapshot) EndedSegments() []Segment {
	out := make([]Segment, 0, len(s.Segments))
	for _, seg := range s.orderedSegments() {
		if !seg.Active() {
			out = append(out, seg)
		}
	}
	return out
}

// EventsOf returns the events recorded in segment id.
func (s *Snapshot) EventsOf(segmentID int64) []Event {
	var out []Event
	for _, ev := range s.Events {
		if ev.SegmentID == segmentID {
			out = append(out, ev)
		}
	}
	return out
}

// LiveScore is the score of the active segment, 0:0 when there is none.
func (s *Snapshot) LiveScore() Score {
	if seg := s.ActiveSegment(); seg != nil {
		return seg.Score()
	}
	return Score{}
}

// FinalScore is the score of the last ended segment, falling back to the most
// recent segment when none has ended.
func (s *Snapshot) FinalScore() Score {
	ordered := s.orderedSegments()
	for i := len(ordered) - 1; i >= 0; i-- {
		if !ordered[i].Active() {
			return ordered[i].Score()
		}
	}
	if len(ordered) > 0 {
		return ordered[len(ordered)-1].Score()
	}
	return Score{}
}

func (s *Snapshot) orderedSegments() []Segment {
	out := append([]Segment(nil), s.Segments...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SegNo < out[j].SegNo })
	return out
}

// ScoreFromEvents recomputes a score from its events. The credited team is
// already resolved on the wire, so own goals need no special handling here.
func ScoreFromEvents(events []Event) Score {
	var score Score
	for _, ev := range events {
		if ev.Team.Valid() {
			score.Add(ev.Team, 1)
		}
	}
	return score
}

// ScoreDrift returns the segments whose stored score disagrees with the
// score derived from their events.
func (s *Snapshot) ScoreDrift() []Segment {
	var drifted []Segment
	for _, seg := range s.Segments {
		if ScoreFromEvents(s.EventsOf(seg.ID)) != seg.Score() {
			drifted = append(drifted, seg)
		}
	}
	return drifted
}

// Variant returns the generated variant numbered no, or nil.
func (s *Snapshot) Variant(no int) *TeamVariant {
	for i := range s.TeamVariants {
		if s.TeamVariants[i].VariantNo == no {
			return &s.TeamVariants[i]
		}
	}
	return nil
}

// DefaultVariant is the server-recommended variant, else the first one.
func (s *Snapshot) DefaultVariant() *TeamVariant {
	if len(s.TeamVariants) == 0 {
		return nil
	}
	for i := range s.TeamVariants {
		if s.TeamVariants[i].IsRecommended {
			return &s.TeamVariants[i]
		}
	}
	return &s.TeamVariants[0]
}

// CurrentTeams is the persisted team state, else the first variant's split.
func (s *Snapshot) CurrentTeams() (Teams, bool) {
	if s.TeamCurrent != nil {
		return s.TeamCurrent.CurrentTeams, true
	}
	if len(s.TeamVariants) > 0 {
		return s.TeamVariants[0].Teams, true
	}
	return Teams{}, false
}

// TeamOf returns the side tgID plays on in the current teams.
func (s *Snapshot) TeamOf(tgID int64) (Team, bool) {
	teams, ok := s.CurrentTeams()
	if !ok {
		return "", false
	}
	return teams.TeamOf(IDString(tgID))
}

// TeamName returns the display name of side, with a default.
func (s *Snapshot) TeamName(side Team) string {
	if s.TeamCurrent != nil {
		name := s.TeamCurrent.CurrentTeams.NameA
		if side == TeamB {
			name = s.TeamCurrent.CurrentTeams.NameB
		}
		if name != "" {
			return name
		}
	}
	return "Team " + string(side)
}

// Payer returns the assigned payer id.
func (s *Snapshot) Payer() (int64, bool) {
	if s.Payments == nil || s.Payments.Payer == nil || s.Payments.Payer.PayerTgID == nil {
		return 0, false
	}
	return *s.Payments.Payer.PayerTgID, true
}

// PaymentOf returns the settlement state of tgID, unpaid when unknown.
func (s *Snapshot) PaymentOf(tgID int64) PaymentState {
	if s.Payments == nil {
		return PaymentUnpaid
	}
	for _, st := range s.Payments.Statuses {
		if st.TgID == tgID {
			return st.Status
		}
	}
	return PaymentUnpaid
}

// ValidatePartition checks that A and B are disjoint and together hold
// exactly the eligible ids.
func ValidatePartition(teams Teams, eligible IDList) error {
	seen := make(map[string]Team, len(teams.A)+len(teams.B))
	for _, side := range []Team{TeamA, TeamB} {
		for _, id := range teams.Side(side) {
			if prev, dup := seen[id]; dup {
				return fmt.Errorf("%w: %s listed on %s and %s", ErrPartitionMismatch, id, prev, side)
			}
			seen[id] = side
		}
	}
	want := make(map[string]struct{}, len(eligible))
	for _, id := range eligible {
		want[id] = struct{}{}
		if _, ok := seen[id]; !ok {
			return fmt.Errorf("%w: %s is not assigned", ErrPartitionMismatch, id)
		}
	}
	for id := range seen {
		if _, ok := want[id]; !ok {
			return fmt.Errorf("%w: %s is not an eligible member", ErrPartitionMismatch, id)
		}
	}
	return nil
}
