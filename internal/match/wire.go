package match

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// The backend emits naive ISO timestamps (UTC, no offset) as well as RFC3339.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Time is a timestamp tolerant to the layouts the API produces.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) *Time {
	return &Time{Time: t.UTC()}
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp %q", raw)
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

// IDList is a list of participant ids as strings. The API sends them as
// strings in most places but raw numbers in freshly generated variants.
type IDList []string

func (l *IDList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("id list: %w", err)
	}
	out := make(IDList, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil {
			return fmt.Errorf("id list item %s: %w", string(item), err)
		}
		out = append(out, n.String())
	}
	*l = out
	return nil
}

// Contains reports whether id is in the list.
func (l IDList) Contains(id string) bool {
	return l.Index(id) >= 0
}

// Index returns the position of id or -1.
func (l IDList) Index(id string) int {
	for i, v := range l {
		if v == id {
			return i
		}
	}
	return -1
}

// Teams is an A/B partition with optional display names.
type Teams struct {
	A     IDList `json:"A"`
	B     IDList `json:"B"`
	NameA string `json:"name_a,omitempty"`
	NameB string `json:"name_b,omitempty"`
}

type teamsWire struct {
	A     IDList `json:"A"`
	B     IDList `json:"B"`
	TeamA IDList `json:"team_a"`
	TeamB IDList `json:"team_b"`
	NameA string `json:"name_a"`
	NameB string `json:"name_b"`
}

func (t *Teams) UnmarshalJSON(data []byte) error {
	var w teamsWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t.A, t.B = w.A, w.B
	if t.A == nil && t.B == nil {
		t.A, t.B = w.TeamA, w.TeamB
	}
	if t.A == nil {
		t.A = IDList{}
	}
	if t.B == nil {
		t.B = IDList{}
	}
	t.NameA, t.NameB = w.NameA, w.NameB
	return nil
}

// Side returns the ids of team side.
func (t Teams) Side(side Team) IDList {
	if side == TeamA {
		return t.A
	}
	return t.B
}

// Clone returns a deep copy.
func (t Teams) Clone() Teams {
	out := t
	out.A = append(IDList{}, t.A...)
	out.B = append(IDList{}, t.B...)
	return out
}

// Equal compares the partitions positionally, ignoring names.
func (t Teams) Equal(other Teams) bool {
	if len(t.A) != len(other.A) || len(t.B) != len(other.B) {
		return false
	}
	for i := range t.A {
		if t.A[i] != other.A[i] {
			return false
		}
	}
	for i := range t.B {
		if t.B[i] != other.B[i] {
			return false
		}
	}
	return true
}

// TeamOf returns the side holding id.
func (t Teams) TeamOf(id string) (Team, bool) {
	if t.A.Contains(id) {
		return TeamA, true
	}
	if t.B.Contains(id) {
		return TeamB, true
	}
	return "", false
}

// IDString formats a participant id the way team lists carry it.
func IDString(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseID parses a team list entry back into a participant id.
func ParseID(id string) (int64, bool) {
	v, err := strconv.ParseInt(id, 10, 64)
	return v, err == nil
}
