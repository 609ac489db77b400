package transitions

import "time"

// Kind identifies a lifecycle transition.
type Kind string

const (
	KindStarted       Kind = "match_started"
	KindSegmentOpened Kind = "segment_opened"
	KindPayerAssigned Kind = "payer_assigned"
	KindFinished      Kind = "match_finished"
)

// Event is a lifecycle transition observed between two snapshots. It is
// the payload of announcements and published messages.
type Event struct {
	ID      string `msgpack:"id" json:"id"`
	Kind    Kind   `msgpack:"kind" json:"kind"`
	MatchID int64  `msgpack:"match_id" json:"match_id"`
	Venue   string `msgpack:"venue" json:"venue"`
	NameA   string `msgpack:"team_name_a" json:"team_name_a"`
	NameB   string `msgpack:"team_name_b" json:"team_name_b"`
	// ScoreA and ScoreB hold the final score for KindFinished and the score
	// of the segment just ended for KindSegmentOpened.
	ScoreA    int       `msgpack:"score_a" json:"score_a"`
	ScoreB    int       `msgpack:"score_b" json:"score_b"`
	SegNo     int       `msgpack:"seg_no,omitempty" json:"seg_no,omitempty"`
	PayerTgID int64     `msgpack:"payer_tg_id,omitempty" json:"payer_tg_id,omitempty"`
	PayerName string    `msgpack:"payer_name,omitempty" json:"payer_name,omitempty"`
	At        time.Time `msgpack:"at" json:"at"`
}

// EventKind names the event for message attributes.
func (e Event) EventKind() string {
	return string(e.Kind)
}
