package api

import (
	"encoding/json"
	"time"

	"github.com/mauv0809/pitchside/internal/match"
)

// CreateMatchParams are the fields of a new match.
type CreateMatchParams struct {
	ContextID   int64      `json:"context_id,omitempty"`
	Venue       string     `json:"venue"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// SelectTeamsParams persists a variant and optional team names.
type SelectTeamsParams struct {
	VariantNo int    `json:"variant_no"`
	TeamNameA string `json:"team_name_a,omitempty"`
	TeamNameB string `json:"team_name_b,omitempty"`
}

// TeamsPayload is the wire shape of a partition sent to the server.
type TeamsPayload struct {
	A []string `json:"A"`
	B []string `json:"B"`
}

// CustomTeamsParams submits a hand-edited partition. Empty names keep the
// names already stored.
type CustomTeamsParams struct {
	BaseVariantNo int          `json:"base_variant_no"`
	Teams         TeamsPayload `json:"teams"`
	TeamNameA     string       `json:"team_name_a,omitempty"`
	TeamNameB     string       `json:"team_name_b,omitempty"`
}

// NewSegmentResult identifies a freshly opened segment.
type NewSegmentResult struct {
	SegmentID int64 `json:"segment_id"`
	SegNo     int   `json:"seg_no"`
}

// GoalParams records a goal for the credited team.
type GoalParams struct {
	Team       match.Team `json:"team"`
	ScorerTgID int64      `json:"scorer_tg_id"`
	AssistTgID *int64     `json:"assist_tg_id,omitempty"`
}

// EventPatch changes the attribution of an event. Nil fields are left as is.
type EventPatch struct {
	ScorerTgID *int64 `json:"scorer_tg_id,omitempty"`
	AssistTgID *int64 `json:"assist_tg_id,omitempty"`
}

// PayerDetails are the contact fields the payer shares.
type PayerDetails struct {
	FIO   string `json:"payer_fio"`
	Phone string `json:"payer_phone"`
	Bank  string `json:"payer_bank"`
}

// FeedbackRecord is the stored feedback of one submitter.
type FeedbackRecord struct {
	AnswersJSON json.RawMessage `json:"answers_json"`
	MVPVoteTgID *int64          `json:"mvp_vote_tg_id"`
}

// SegmentPatch is an administrative correction of a historical segment.
type SegmentPatch struct {
	ScoreA  *int       `json:"score_a,omitempty"`
	ScoreB  *int       `json:"score_b,omitempty"`
	EndedAt *time.Time `json:"ended_at,omitempty"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type eventResponse struct {
	EventID int64 `json:"event_id"`
}

type matchesResponse struct {
	Matches []match.Match `json:"matches"`
}

type variantsResponse struct {
	Variants []match.TeamVariant `json:"variants"`
}

type whyResponse struct {
	WhyText string `json:"why_text"`
}

type envelope struct {
	OK    *bool  `json:"ok"`
	Error string `json:"error"`
}
