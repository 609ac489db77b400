package match

// Status is the lifecycle status of a match. It only ever moves forward:
// created -> live -> finished.
type Status string

const (
	StatusCreated  Status = "created"
	StatusLive     Status = "live"
	StatusFinished Status = "finished"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusLive, StatusFinished:
		return true
	}
	return false
}

// rank orders statuses so regressions can be detected.
func (s Status) rank() int {
	switch s {
	case StatusCreated:
		return 0
	case StatusLive:
		return 1
	case StatusFinished:
		return 2
	}
	return -1
}

// Before reports whether s comes strictly before other in the lifecycle.
func (s Status) Before(other Status) bool {
	return s.rank() < other.rank()
}

// Role is the role a member holds in a match.
type Role string

const (
	RoleOrganizer Role = "organizer"
	RolePlayer    Role = "player"
	RoleSpectator Role = "spectator"
)

// Team identifies one side of a match.
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// Valid reports whether t is A or B.
func (t Team) Valid() bool {
	return t == TeamA || t == TeamB
}

// Opposite returns the other side.
func (t Team) Opposite() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

// EventType is the kind of scoring event.
type EventType string

const (
	EventGoal    EventType = "goal"
	EventOwnGoal EventType = "own_goal"
)

// PaymentState is a member's settlement status towards the payer.
type PaymentState string

const (
	PaymentUnpaid       PaymentState = "unpaid"
	PaymentReportedPaid PaymentState = "reported_paid"
	PaymentConfirmed    PaymentState = "confirmed"
	PaymentRejected     PaymentState = "rejected"
)

// RequestState is the status of a payer request.
type RequestState string

const (
	RequestPending  RequestState = "pending"
	RequestOffered  RequestState = "offered"
	RequestAccepted RequestState = "accepted"
	RequestRejected RequestState = "rejected"
	// The server also reports these two for superseded offers and refused ones.
	RequestCanceled RequestState = "canceled"
	RequestDeclined RequestState = "declined"
)

// Active reports whether the request is still part of the negotiation.
func (s RequestState) Active() bool {
	return s == RequestPending || s == RequestOffered
}

// Participant is a compact member reference used in match summaries.
type Participant struct {
	TgID   int64   `json:"tg_id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

// Match is the match summary as returned by the API.
type Match struct {
	ID           int64         `json:"id"`
	ContextID    int64         `json:"context_id"`
	CreatedBy    int64         `json:"created_by"`
	ScheduledAt  *Time         `json:"scheduled_at"`
	Venue        string        `json:"venue"`
	Status       Status        `json:"status"`
	CreatedAt    *Time         `json:"created_at"`
	FinishedAt   *Time         `json:"finished_at"`
	ScoreA       int           `json:"score_a"`
	ScoreB       int           `json:"score_b"`
	TeamAMembers []Participant `json:"team_a_members"`
	TeamBMembers []Participant `json:"team_b_members"`
}

// Member is a participant's membership in a match.
type Member struct {
	TgID     int64   `json:"tg_id"`
	Role     Role    `json:"role"`
	CanEdit  bool    `json:"can_edit"`
	JoinedAt *Time   `json:"joined_at"`
	Name     string  `json:"name"`
	Avatar   *string `json:"avatar"`
}

// Eligible reports whether the member takes part in team assignment.
func (m Member) Eligible() bool {
	return m.Role != RoleSpectator
}

// Score is a running A:B score pair.
type Score struct {
	A int `json:"score_a"`
	B int `json:"score_b"`
}

// Add credits one point to team t.
func (s *Score) Add(t Team, delta int) {
	if t == TeamA {
		s.A += delta
		return
	}
	s.B += delta
}

// Segment is a scored sub-period of a match. EndedAt is nil while active.
type Segment struct {
	ID         int64 `json:"id"`
	SegNo      int   `json:"seg_no"`
	EndedAt    *Time `json:"ended_at"`
	ScoreA     int   `json:"score_a"`
	ScoreB     int   `json:"score_b"`
	IsButtGame bool  `json:"is_butt_game"`
}

// Active reports whether the segment has not ended yet.
func (s Segment) Active() bool {
	return s.EndedAt == nil
}

// Score returns the segment's stored score.
func (s Segment) Score() Score {
	return Score{A: s.ScoreA, B: s.ScoreB}
}

// Event is a scoring event. Team is the credited side: for own goals the
// server already stores the side opposite to the one that conceded.
type Event struct {
	ID            int64     `json:"id"`
	SegmentID     int64     `json:"segment_id"`
	EventType     EventType `json:"event_type"`
	Team          Team      `json:"team"`
	ScorerTgID    *int64    `json:"scorer_tg_id"`
	AssistTgID    *int64    `json:"assist_tg_id"`
	CreatedByTgID int64     `json:"created_by_tg_id"`
	CreatedAt     *Time     `json:"created_at"`
	UpdatedAt     *Time     `json:"updated_at"`
}

// TeamVariant is a generated candidate partition.
type TeamVariant struct {
	VariantNo     int     `json:"variant_no"`
	IsRecommended bool    `json:"is_recommended"`
	Teams         Teams   `json:"teams"`
	WhyText       *string `json:"why_text"`
}

// TeamCurrent is the match's active team state.
type TeamCurrent struct {
	BaseVariantNo   int     `json:"base_variant_no"`
	CurrentTeams    Teams   `json:"current_teams"`
	IsCustom        bool    `json:"is_custom"`
	WhyNowWorseText *string `json:"why_now_worse_text"`
}

// PayerInfo is the single active payer of a match.
type PayerInfo struct {
	PayerTgID  *int64  `json:"payer_tg_id"`
	PayerPhone *string `json:"payer_phone"`
	PayerFIO   *string `json:"payer_fio"`
	PayerBank  *string `json:"payer_bank"`
	Status     string  `json:"status"`
}

// PayerRequest is a self-nomination or an organizer offer.
type PayerRequest struct {
	TgID   int64        `json:"tg_id"`
	Status RequestState `json:"status"`
}

// PaymentEntry is one member's settlement status.
type PaymentEntry struct {
	TgID   int64        `json:"tg_id"`
	Status PaymentState `json:"status"`
}

// Payments is the payer and settlement summary of a snapshot.
type Payments struct {
	Payer    *PayerInfo     `json:"payer"`
	Requests []PayerRequest `json:"requests"`
	Statuses []PaymentEntry `json:"statuses"`
}

// MVP is the current MVP vote summary.
type MVP struct {
	TopTgID *int64         `json:"top_tg_id"`
	Votes   map[string]int `json:"votes"`
}

// Me identifies the viewer of a snapshot.
type Me struct {
	TgID    int64 `json:"tg_id"`
	IsAdmin bool  `json:"is_admin"`
}

// Snapshot is the full authoritative state of a match as seen by one viewer.
type Snapshot struct {
	Match        Match         `json:"match"`
	Members      []Member      `json:"members"`
	Segments     []Segment     `json:"segments"`
	Events       []Event       `json:"events"`
	TeamVariants []TeamVariant `json:"team_variants"`
	TeamCurrent  *TeamCurrent  `json:"team_current"`
	Payments     *Payments     `json:"payments,omitempty"`
	MVP          *MVP          `json:"mvp,omitempty"`
	Me           Me            `json:"me"`
}
