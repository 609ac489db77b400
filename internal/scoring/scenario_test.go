package scoring_test

import (
	"context"
	"testing"

	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/api/apitest"
	"github.com/mauv0809/pitchside/internal/match"
	"github.com/mauv0809/pitchside/internal/scoring"
	"github.com/mauv0809/pitchside/internal/session"
	"github.com/mauv0809/pitchside/internal/teams"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKickoffFromLobby(t *testing.T) {
	srv := apitest.New()
	t.Cleanup(srv.Close)
	srv.AddUser(organizer, "Org", false)
	srv.AddUser(2, "Bea", false)
	srv.AddUser(3, "Cid", false)
	ctx := context.Background()

	client := srv.ClientFor(organizer)
	matchID, err := client.CreateMatch(ctx, api.CreateMatchParams{Venue: "Riverside"})
	require.NoError(t, err)
	require.NoError(t, srv.ClientFor(2).Join(ctx, matchID))
	require.NoError(t, srv.ClientFor(3).Join(ctx, matchID))

	store := session.NewStore(matchID, client)
	t.Cleanup(store.Stop)
	engine := teams.NewEngine(store, client)
	store.Subscribe(engine.Sync)
	machine := scoring.NewMachine(store, client)
	require.NoError(t, store.Refresh(ctx))

	require.NoError(t, engine.Regenerate(ctx))
	require.NoError(t, engine.SelectVariant(ctx, 2))
	require.NoError(t, machine.Start(ctx))

	snap := store.Snapshot()
	assert.Equal(t, "Riverside", snap.Match.Venue)
	assert.Equal(t, match.StatusLive, snap.Match.Status)
	assert.Equal(t, 2, snap.TeamCurrent.BaseVariantNo)
	assert.Equal(t, match.IDList{"1", "2"}, snap.TeamCurrent.CurrentTeams.A)
	assert.Equal(t, 1, snap.ActiveSegmentCount())
	assert.Equal(t, match.Score{}, snap.LiveScore())
	assert.False(t, engine.State().Editable, "teams lock at kick-off")
}

func TestGoalThenNewSegment(t *testing.T) {
	f := setup(t, true)
	m, store := f.live(t)
	ctx := context.Background()
	first := store.Snapshot().ActiveSegment().ID
	assist := int64(3)

	require.NoError(t, m.Goal(ctx, match.TeamA, 1, &assist))
	assert.Equal(t, match.Score{A: 1}, store.Snapshot().LiveScore())

	require.NoError(t, m.NewSegment(ctx, false))

	snap := store.Snapshot()
	prior := snap.SegmentByID(first)
	require.NotNil(t, prior)
	assert.NotNil(t, prior.EndedAt)
	assert.Equal(t, match.Score{A: 1}, prior.Score())
	require.NotNil(t, snap.ActiveSegment())
	assert.NotEqual(t, first, snap.ActiveSegment().ID)
	assert.Equal(t, match.Score{}, snap.LiveScore())
	assert.Equal(t, 1, snap.ActiveSegmentCount())
}

func TestFinalScoreIgnoresActiveSegment(t *testing.T) {
	f := setup(t, true)
	m, store := f.live(t)
	ctx := context.Background()

	require.NoError(t, m.Goal(ctx, match.TeamA, 1, nil))
	require.NoError(t, m.Goal(ctx, match.TeamA, 3, nil))
	require.NoError(t, m.Goal(ctx, match.TeamB, 2, nil))
	require.NoError(t, m.NewSegment(ctx, false))
	require.NoError(t, m.OwnGoal(ctx, match.TeamA))

	board := scoring.Board(store.Snapshot())
	assert.Equal(t, match.Score{A: 2, B: 1}, board.Final)
	assert.Equal(t, match.Score{A: 0, B: 1}, board.Live)

	// While game 2 runs, the final is the 2:1 of game 1. Finishing ends
	// game 2 too, so it becomes the last ended game and the final is 0:1.
	require.NoError(t, m.Finish(ctx, false))

	snap := store.Snapshot()
	assert.Equal(t, scoring.PhaseFinished, scoring.Board(snap).Phase)
	assert.Zero(t, snap.ActiveSegmentCount())
	assert.Len(t, snap.EndedSegments(), 2)
	assert.Equal(t, match.Score{A: 0, B: 1}, snap.FinalScore(), "finishing ends the active segment")
	assert.Equal(t, snap.FinalScore(), match.Score{A: snap.Match.ScoreA, B: snap.Match.ScoreB})
}
