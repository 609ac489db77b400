// Package feedback builds the post-match questionnaire and submits the
// answers.
//
// The comparison pairs a submitter sees are picked by a small linear
// congruential hash so that each submitter is asked about different
// match-ups, while repeated views of the same form stay identical.
package feedback

import (
	"math/big"

	"github.com/mauv0809/pitchside/internal/match"
)

// Role is the framing of the role-affinity question.
type Role string

const (
	RoleAttacker Role = "attacker"
	RoleDefender Role = "defender"
)

// Valid reports whether r is a known framing.
func (r Role) Valid() bool {
	return r == RoleAttacker || r == RoleDefender
}

// Category names, as stored in answers.
const (
	CategoryOwn   = "cmp_own"
	CategoryOpp   = "cmp_opp"
	CategoryCross = "cmp_cross"
)

const (
	hashMul = 9301
	hashInc = 49297
	hashMod = 233280

	categoryStride = 13
	secondOffset   = 11
	fallbackOffset = 23
	roleSeedMul    = 1000003
)

// Composition is everything the sampler depends on.
type Composition struct {
	MatchID     int64
	SubmitterID int64
	// TeamA and TeamB hold the members of each side in team order.
	TeamA []int64
	TeamB []int64
	// SavedRole pins the role framing once the submitter has saved it.
	SavedRole Role
}

// Pair is two players to compare. Both sides are equal when the pool had a
// single player.
type Pair [2]int64

// Contains reports whether id is one of the pair.
func (p Pair) Contains(id int64) bool {
	return p[0] == id || p[1] == id
}

// Questionnaire is the sampled form of one submitter.
type Questionnaire struct {
	MyTeam match.Team `json:"my_team"`
	Own    *Pair      `json:"cmp_own"`
	Opp    *Pair      `json:"cmp_opp"`
	Cross  *Pair      `json:"cmp_cross"`
	Role   Role       `json:"role"`
	// Teammates excludes the submitter. Players is both teams without the
	// submitter.
	Teammates []int64 `json:"teammates"`
	Opponents []int64 `json:"opponents"`
	Players   []int64 `json:"players"`
}

// Pair returns the pair of category, or nil.
func (q Questionnaire) Pair(category string) *Pair {
	switch category {
	case CategoryOwn:
		return q.Own
	case CategoryOpp:
		return q.Opp
	case CategoryCross:
		return q.Cross
	}
	return nil
}

// hash is |seed*9301 + 49297| mod 233280, computed without overflow.
func hash(seed int64) int64 {
	x := new(big.Int).Mul(big.NewInt(seed), big.NewInt(hashMul))
	x.Add(x, big.NewInt(hashInc))
	x.Abs(x)
	return x.Mod(x, big.NewInt(hashMod)).Int64()
}

func pickIndex(n int, seed int64) int {
	if n == 0 {
		return 0
	}
	return int(hash(seed) % int64(n))
}

func pickPair(pool []int64, seed int64) *Pair {
	switch len(pool) {
	case 0:
		return nil
	case 1:
		return &Pair{pool[0], pool[0]}
	}
	first := pool[pickIndex(len(pool), seed)]
	second := pool[pickIndex(len(pool), seed+secondOffset)]
	if second == first {
		second = pool[pickIndex(len(pool), seed+fallbackOffset)]
	}
	return &Pair{first, second}
}

func without(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func seedBase(matchID int64) int64 {
	if matchID == 0 {
		return 1
	}
	return matchID
}

// RoleFor returns the role framing of a submitter: the saved one when
// present, otherwise a hash of the match and submitter.
func RoleFor(matchID, submitterID int64, saved Role) Role {
	if saved.Valid() {
		return saved
	}
	if hash(seedBase(matchID)*roleSeedMul+submitterID)%2 == 0 {
		return RoleAttacker
	}
	return RoleDefender
}

// Sample builds the questionnaire of c. It is a pure function of c.
func Sample(c Composition) Questionnaire {
	base := seedBase(c.MatchID)
	mine, theirs := c.TeamA, c.TeamB
	q := Questionnaire{MyTeam: match.TeamA}
	if contains(c.TeamB, c.SubmitterID) {
		mine, theirs = c.TeamB, c.TeamA
		q.MyTeam = match.TeamB
	}
	all := append(append([]int64{}, c.TeamA...), c.TeamB...)

	q.Teammates = without(mine, c.SubmitterID)
	q.Opponents = append([]int64{}, theirs...)
	q.Players = without(all, c.SubmitterID)
	q.Own = pickPair(q.Teammates, base)
	q.Opp = pickPair(q.Opponents, base+categoryStride)
	q.Cross = pickPair(q.Players, base+2*categoryStride)
	q.Role = RoleFor(c.MatchID, c.SubmitterID, c.SavedRole)
	return q
}

// CompositionFrom reads the teams of snap. Team entries that are not
// members of the match are skipped.
func CompositionFrom(snap *match.Snapshot, saved Role) Composition {
	c := Composition{MatchID: snap.Match.ID, SubmitterID: snap.Me.TgID, SavedRole: saved}
	teams, ok := snap.CurrentTeams()
	if !ok {
		return c
	}
	members := func(ids match.IDList) []int64 {
		out := make([]int64, 0, len(ids))
		for _, id := range ids {
			tgID, ok := match.ParseID(id)
			if ok && snap.MemberOf(tgID) != nil {
				out = append(out, tgID)
			}
		}
		return out
	}
	c.TeamA = members(teams.A)
	c.TeamB = members(teams.B)
	return c
}
