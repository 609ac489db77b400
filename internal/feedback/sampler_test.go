package feedback

import (
	"encoding/json"
	"testing"

	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	assert.Equal(t, int64(49297), hash(0))
	assert.Equal(t, int64(58598), hash(1))
	assert.Equal(t, int64(2792), hash(-5))
	assert.Less(t, hash(1<<62), int64(hashMod), "no overflow on large seeds")
}

func TestSample(t *testing.T) {
	tests := []struct {
		name            string
		c               Composition
		own, opp, cross *Pair
		role            Role
		myTeam          match.Team
	}{
		{
			name:  "team A submitter",
			c:     Composition{MatchID: 7, SubmitterID: 1, TeamA: []int64{1, 2, 3}, TeamB: []int64{4, 5, 6}},
			own:   &Pair{2, 3},
			opp:   &Pair{4, 6},
			cross: &Pair{2, 3},
			role:  RoleDefender, myTeam: match.TeamA,
		},
		{
			name:  "team B submitter",
			c:     Composition{MatchID: 7, SubmitterID: 5, TeamA: []int64{1, 2, 3}, TeamB: []int64{4, 5, 6}},
			own:   &Pair{4, 6},
			opp:   &Pair{1, 3},
			cross: &Pair{1, 2},
			role:  RoleDefender, myTeam: match.TeamB,
		},
		{
			name:  "single member pools repeat",
			c:     Composition{MatchID: 0, SubmitterID: 2, TeamA: []int64{1, 2}, TeamB: []int64{3}},
			own:   &Pair{1, 1},
			opp:   &Pair{3, 3},
			cross: &Pair{1, 3},
			role:  RoleAttacker, myTeam: match.TeamA,
		},
		{
			name:  "four a side",
			c:     Composition{MatchID: 12, SubmitterID: 4, TeamA: []int64{1, 2, 3, 4}, TeamB: []int64{5, 6, 7, 8}},
			own:   &Pair{2, 1},
			opp:   &Pair{7, 6},
			cross: &Pair{8, 1},
			role:  RoleDefender, myTeam: match.TeamA,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Sample(tt.c)
			assert.Equal(t, tt.own, q.Own)
			assert.Equal(t, tt.opp, q.Opp)
			assert.Equal(t, tt.cross, q.Cross)
			assert.Equal(t, tt.role, q.Role)
			assert.Equal(t, tt.myTeam, q.MyTeam)
			assert.NotContains(t, q.Players, tt.c.SubmitterID)
			assert.Equal(t, q, Sample(tt.c), "same inputs, same questionnaire")
		})
	}
}

func TestSampleEmptyPools(t *testing.T) {
	q := Sample(Composition{MatchID: 3, SubmitterID: 1, TeamA: []int64{1}})
	assert.Nil(t, q.Own)
	assert.Nil(t, q.Opp)
	assert.Nil(t, q.Cross)
	assert.True(t, q.Role.Valid())
}

func TestPickPairFallsBackOnCollision(t *testing.T) {
	pool := []int64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110}
	require.Equal(t, pickIndex(len(pool), 1), pickIndex(len(pool), 1+secondOffset))

	assert.Equal(t, &Pair{101, 104}, pickPair(pool, 1))
}

func TestSavedRoleIsPinned(t *testing.T) {
	c := Composition{MatchID: 7, SubmitterID: 1, TeamA: []int64{1, 2}, TeamB: []int64{3, 4}}
	rolled := Sample(c).Role
	pinned := RoleAttacker
	if rolled == RoleAttacker {
		pinned = RoleDefender
	}
	c.SavedRole = pinned
	assert.Equal(t, pinned, Sample(c).Role)
}

func TestCompositionFromSkipsNonMembers(t *testing.T) {
	snap := &match.Snapshot{
		Match: match.Match{ID: 4},
		Members: []match.Member{
			{TgID: 1, Role: match.RolePlayer},
			{TgID: 2, Role: match.RolePlayer},
			{TgID: 3, Role: match.RolePlayer},
		},
		TeamCurrent: &match.TeamCurrent{CurrentTeams: match.Teams{A: match.IDList{"1", "9"}, B: match.IDList{"2", "3"}}},
		Me:          match.Me{TgID: 2},
	}

	c := CompositionFrom(snap, RoleDefender)

	assert.Equal(t, []int64{1}, c.TeamA)
	assert.Equal(t, []int64{2, 3}, c.TeamB)
	assert.Equal(t, int64(2), c.SubmitterID)
	assert.Equal(t, RoleDefender, c.SavedRole)
}

func TestComposeValidates(t *testing.T) {
	q := Sample(Composition{MatchID: 7, SubmitterID: 1, TeamA: []int64{1, 2, 3}, TeamB: []int64{4, 5, 6}})
	stranger := int64(77)
	self := int64(1)
	teammate := int64(2)

	tests := []struct {
		name    string
		choices Choices
	}{
		{"best outside pool", Choices{Best: &stranger}},
		{"worst is self", Choices{Worst: &self}},
		{"comparison outside pair", Choices{Comparisons: map[string]int64{CategoryOpp: 5}}},
		{"unknown category", Choices{Comparisons: map[string]int64{"cmp_other": 2}}},
		{"synergy with opponent", Choices{SynergyTeam: [2]int64{2, 4}}},
		{"dominated teammate is opponent", Choices{DomMyTarget: &stranger}},
		{"domination target on own team", Choices{DomOppTarget: &teammate}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compose(q, tt.choices)
			assert.ErrorIs(t, err, api.ErrInvalid)
		})
	}
}

func TestComposeDocument(t *testing.T) {
	q := Sample(Composition{MatchID: 0, SubmitterID: 2, TeamA: []int64{1, 2}, TeamB: []int64{3}})
	q.Own = nil
	best := int64(3)
	role := int64(1)

	a, err := Compose(q, Choices{
		Best:        &best,
		Comparisons: map[string]int64{CategoryCross: 3},
		SynergyOpp:  [2]int64{3, 0},
		RolePlayer:  &role,
	})
	require.NoError(t, err)

	record, err := a.Record()
	require.NoError(t, err)
	require.NotNil(t, record.MVPVoteTgID)
	assert.Equal(t, best, *record.MVPVoteTgID)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(record.AnswersJSON, &doc))
	pairs := doc["comparison_pairs"].(map[string]any)
	assert.Equal(t, []any{}, pairs[CategoryOwn], "an empty pool is an empty list, not null")
	assert.Equal(t, []any{float64(1), float64(3)}, pairs[CategoryCross])
	assert.Equal(t, float64(3), doc["comparisons"].(map[string]any)[CategoryCross])
	assert.Nil(t, doc["worst"])
	expanded := doc["expanded_pairs"].(map[string]any)
	assert.Equal(t, float64(3), expanded["syn_opp_a"])
	assert.Nil(t, expanded["syn_opp_b"])
	assert.Equal(t, map[string]any{"player_id": float64(1), "role": string(RoleAttacker)}, doc["role_vote"])
}

func TestChoicesFrom(t *testing.T) {
	t.Run("nothing saved", func(t *testing.T) {
		c, role, err := ChoicesFrom(api.FeedbackRecord{AnswersJSON: json.RawMessage("null")})
		require.NoError(t, err)
		assert.Equal(t, Choices{}, c)
		assert.Empty(t, role)
	})

	t.Run("round trip", func(t *testing.T) {
		q := Sample(Composition{MatchID: 7, SubmitterID: 1, TeamA: []int64{1, 2, 3}, TeamB: []int64{4, 5, 6}})
		best, dom, target, rp := int64(4), int64(2), int64(6), int64(5)
		want := Choices{
			Best:         &best,
			Comparisons:  map[string]int64{CategoryOwn: 3, CategoryOpp: 6},
			SynergyTeam:  [2]int64{2, 3},
			DomMy:        &dom,
			DomOppTarget: &target,
			RolePlayer:   &rp,
		}
		a, err := Compose(q, want)
		require.NoError(t, err)
		record, err := a.Record()
		require.NoError(t, err)

		got, role, err := ChoicesFrom(record)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, q.Role, role)
	})

	t.Run("mvp vote wins over best", func(t *testing.T) {
		mvp := int64(9)
		c, _, err := ChoicesFrom(api.FeedbackRecord{AnswersJSON: json.RawMessage(`{"best":3}`), MVPVoteTgID: &mvp})
		require.NoError(t, err)
		assert.Equal(t, &mvp, c.Best)
	})

	t.Run("corrupt answers", func(t *testing.T) {
		_, _, err := ChoicesFrom(api.FeedbackRecord{AnswersJSON: json.RawMessage(`[1`)})
		assert.Error(t, err)
	})
}
