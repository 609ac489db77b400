package feedback

import (
	"encoding/json"
	"fmt"

	"github.com/mauv0809/pitchside/internal/api"
)

// Choices are the submitter's selections. Zero fields are unanswered.
type Choices struct {
	Best  *int64 `json:"best,omitempty"`
	Worst *int64 `json:"worst,omitempty"`
	// Comparisons maps a category to the stronger player of its pair.
	Comparisons map[string]int64 `json:"comparisons,omitempty"`

	SynergyTeam [2]int64 `json:"synergy_team"`
	SynergyOpp  [2]int64 `json:"synergy_opp"`

	DomMy        *int64 `json:"dom_my,omitempty"`
	DomOppTarget *int64 `json:"dom_opp_target,omitempty"`
	DomOpp       *int64 `json:"dom_opp,omitempty"`
	DomMyTarget  *int64 `json:"dom_my_target,omitempty"`

	RolePlayer *int64 `json:"role_player,omitempty"`
}

// ExpandedPairs are the unrated synergy and domination answers.
type ExpandedPairs struct {
	SynTeamA     *int64 `json:"syn_team_a"`
	SynTeamB     *int64 `json:"syn_team_b"`
	SynOppA      *int64 `json:"syn_opp_a"`
	SynOppB      *int64 `json:"syn_opp_b"`
	DomMy        *int64 `json:"dom_my"`
	DomOppTarget *int64 `json:"dom_opp_target"`
	DomOpp       *int64 `json:"dom_opp"`
	DomMyTarget  *int64 `json:"dom_my_target"`
}

// RoleVote names the player who best fit the asked role.
type RoleVote struct {
	PlayerID int64 `json:"player_id"`
	Role     Role  `json:"role"`
}

// Answers is the stored answers_json document.
type Answers struct {
	Best            *int64             `json:"best"`
	Worst           *int64             `json:"worst"`
	Comparisons     map[string]*int64  `json:"comparisons"`
	ComparisonPairs map[string][]int64 `json:"comparison_pairs"`
	ExpandedPairs   ExpandedPairs      `json:"expanded_pairs"`
	RoleVote        *RoleVote          `json:"role_vote"`
}

var categories = []string{CategoryOwn, CategoryOpp, CategoryCross}

func optional(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func inPool(pool []int64, id *int64, what string) error {
	if id == nil || contains(pool, *id) {
		return nil
	}
	return fmt.Errorf("%w: %s %d is not selectable", api.ErrInvalid, what, *id)
}

// Compose validates choices against q and builds the answers document.
func Compose(q Questionnaire, c Choices) (Answers, error) {
	a := Answers{
		Best:            c.Best,
		Worst:           c.Worst,
		Comparisons:     make(map[string]*int64, len(categories)),
		ComparisonPairs: make(map[string][]int64, len(categories)),
	}
	if err := inPool(q.Players, c.Best, "best"); err != nil {
		return Answers{}, err
	}
	if err := inPool(q.Players, c.Worst, "worst"); err != nil {
		return Answers{}, err
	}

	for cat := range c.Comparisons {
		if !isCategory(cat) {
			return Answers{}, fmt.Errorf("%w: unknown comparison %q", api.ErrInvalid, cat)
		}
	}
	for _, cat := range categories {
		a.Comparisons[cat] = nil
		a.ComparisonPairs[cat] = []int64{}
		pair := q.Pair(cat)
		if pair != nil {
			a.ComparisonPairs[cat] = []int64{pair[0], pair[1]}
		}
		stronger, ok := c.Comparisons[cat]
		if !ok || stronger == 0 {
			continue
		}
		if pair == nil || !pair.Contains(stronger) {
			return Answers{}, fmt.Errorf("%w: %d is not part of the %s pair", api.ErrInvalid, stronger, cat)
		}
		a.Comparisons[cat] = optional(stronger)
	}

	ep := ExpandedPairs{
		SynTeamA:     optional(c.SynergyTeam[0]),
		SynTeamB:     optional(c.SynergyTeam[1]),
		SynOppA:      optional(c.SynergyOpp[0]),
		SynOppB:      optional(c.SynergyOpp[1]),
		DomMy:        c.DomMy,
		DomOppTarget: c.DomOppTarget,
		DomOpp:       c.DomOpp,
		DomMyTarget:  c.DomMyTarget,
	}
	checks := []struct {
		pool []int64
		id   *int64
		what string
	}{
		{q.Teammates, ep.SynTeamA, "teammate"},
		{q.Teammates, ep.SynTeamB, "teammate"},
		{q.Opponents, ep.SynOppA, "opponent"},
		{q.Opponents, ep.SynOppB, "opponent"},
		{q.Teammates, ep.DomMy, "dominating teammate"},
		{q.Opponents, ep.DomOppTarget, "dominated opponent"},
		{q.Opponents, ep.DomOpp, "dominating opponent"},
		{q.Teammates, ep.DomMyTarget, "dominated teammate"},
	}
	for _, chk := range checks {
		if err := inPool(chk.pool, chk.id, chk.what); err != nil {
			return Answers{}, err
		}
	}
	a.ExpandedPairs = ep

	if c.RolePlayer != nil {
		if err := inPool(q.Players, c.RolePlayer, "role player"); err != nil {
			return Answers{}, err
		}
		a.RoleVote = &RoleVote{PlayerID: *c.RolePlayer, Role: q.Role}
	}
	return a, nil
}

func isCategory(cat string) bool {
	for _, c := range categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Record wraps answers for submission. The MVP vote is the best player.
func (a Answers) Record() (api.FeedbackRecord, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return api.FeedbackRecord{}, fmt.Errorf("failed to encode answers: %w", err)
	}
	return api.FeedbackRecord{AnswersJSON: raw, MVPVoteTgID: a.Best}, nil
}

func deref(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

// ChoicesFrom restores the choices of a saved record together with the
// role framing it was answered under.
func ChoicesFrom(record api.FeedbackRecord) (Choices, Role, error) {
	var c Choices
	var a Answers
	if len(record.AnswersJSON) > 0 && string(record.AnswersJSON) != "null" {
		if err := json.Unmarshal(record.AnswersJSON, &a); err != nil {
			return Choices{}, "", fmt.Errorf("failed to decode saved answers: %w", err)
		}
	}
	c.Best = a.Best
	if record.MVPVoteTgID != nil {
		c.Best = record.MVPVoteTgID
	}
	c.Worst = a.Worst
	for cat, id := range a.Comparisons {
		if id == nil {
			continue
		}
		if c.Comparisons == nil {
			c.Comparisons = make(map[string]int64)
		}
		c.Comparisons[cat] = *id
	}
	ep := a.ExpandedPairs
	c.SynergyTeam = [2]int64{deref(ep.SynTeamA), deref(ep.SynTeamB)}
	c.SynergyOpp = [2]int64{deref(ep.SynOppA), deref(ep.SynOppB)}
	c.DomMy, c.DomOppTarget = ep.DomMy, ep.DomOppTarget
	c.DomOpp, c.DomMyTarget = ep.DomOpp, ep.DomMyTarget

	var role Role
	if a.RoleVote != nil {
		pid := a.RoleVote.PlayerID
		c.RolePlayer = &pid
		if a.RoleVote.Role.Valid() {
			role = a.RoleVote.Role
		}
	}
	return c, role, nil
}
