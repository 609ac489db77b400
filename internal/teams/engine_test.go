package teams_test

import (
	"context"
	"testing"

	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/api/apitest"
	"github.com/mauv0809/pitchside/internal/match"
	"github.com/mauv0809/pitchside/internal/session"
	"github.com/mauv0809/pitchside/internal/teams"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const organizer = int64(1)

// setupLobby creates a match organized by user 1 with players 2, 3 and 4.
func setupLobby(t *testing.T) (*apitest.Server, int64) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	for id, name := range map[int64]string{1: "Org", 2: "Bea", 3: "Cid", 4: "Dan"} {
		srv.AddUser(id, name, false)
	}
	ctx := context.Background()
	matchID, err := srv.ClientFor(organizer).CreateMatch(ctx, api.CreateMatchParams{Venue: "Pitch 3"})
	require.NoError(t, err)
	for _, id := range []int64{2, 3, 4} {
		require.NoError(t, srv.ClientFor(id).Join(ctx, matchID))
	}
	return srv, matchID
}

func newEngine(t *testing.T, srv *apitest.Server, matchID, viewer int64) (*teams.Engine, *session.Store) {
	t.Helper()
	client := srv.ClientFor(viewer)
	store := session.NewStore(matchID, client)
	t.Cleanup(store.Stop)
	engine := teams.NewEngine(store, client)
	store.Subscribe(engine.Sync)
	require.NoError(t, store.Refresh(context.Background()))
	return engine, store
}

func TestRegenerateSelectsRecommended(t *testing.T) {
	srv, matchID := setupLobby(t)
	engine, store := newEngine(t, srv, matchID, organizer)

	require.NoError(t, engine.Regenerate(context.Background()))

	st := engine.State()
	assert.Len(t, st.Variants, 3)
	assert.Equal(t, 1, st.VariantNo)
	assert.Equal(t, match.IDList{"1", "3"}, st.Teams.A)
	assert.Equal(t, match.IDList{"2", "4"}, st.Teams.B)
	assert.False(t, st.IsCustom)
	require.NotNil(t, store.Snapshot().TeamCurrent, "selection is persisted")
}

func TestMoveAndRevertRestoresBase(t *testing.T) {
	srv, matchID := setupLobby(t)
	engine, _ := newEngine(t, srv, matchID, organizer)
	ctx := context.Background()
	require.NoError(t, engine.Regenerate(ctx))

	require.NoError(t, engine.MovePlayer(ctx, "3", match.TeamB))
	st := engine.State()
	assert.Equal(t, match.IDList{"1"}, st.Teams.A)
	assert.Equal(t, match.IDList{"2", "4", "3"}, st.Teams.B)
	assert.True(t, st.IsCustom)
	assert.Equal(t, "0 player(s) moved away from variant 1.", st.WhyWorse)

	require.NoError(t, engine.QuickSwap(ctx, match.TeamA, 0))
	st = engine.State()
	assert.Equal(t, match.IDList{"2"}, st.Teams.A)
	assert.Equal(t, match.IDList{"1", "4", "3"}, st.Teams.B)
	assert.Equal(t, "1 player(s) moved away from variant 1.", st.WhyWorse, "narrative is adopted verbatim")

	require.NoError(t, engine.Revert(ctx))
	st = engine.State()
	assert.Equal(t, match.IDList{"1", "3"}, st.Teams.A)
	assert.Equal(t, match.IDList{"2", "4"}, st.Teams.B)
	assert.False(t, st.IsCustom)
	assert.Empty(t, st.WhyWorse)
}

func TestMoveToSameTeamIsNoop(t *testing.T) {
	srv, matchID := setupLobby(t)
	engine, _ := newEngine(t, srv, matchID, organizer)
	ctx := context.Background()
	require.NoError(t, engine.Regenerate(ctx))
	before := len(srv.Requests())

	require.NoError(t, engine.MovePlayer(ctx, "1", match.TeamA))

	assert.Len(t, srv.Requests(), before)
	assert.False(t, engine.State().IsCustom)
}

func TestQuickSwapMissingMirrorIsNoop(t *testing.T) {
	srv, matchID := setupLobby(t)
	engine, _ := newEngine(t, srv, matchID, organizer)
	ctx := context.Background()
	require.NoError(t, engine.Regenerate(ctx))
	require.NoError(t, engine.MovePlayer(ctx, "4", match.TeamA))
	before := len(srv.Requests())
	want := engine.State().Teams

	require.NoError(t, engine.QuickSwap(ctx, match.TeamA, 2))

	assert.Len(t, srv.Requests(), before)
	assert.True(t, want.Equal(engine.State().Teams))
}

func TestEditsPreservePartition(t *testing.T) {
	srv, matchID := setupLobby(t)
	engine, _ := newEngine(t, srv, matchID, organizer)
	ctx := context.Background()
	require.NoError(t, engine.Regenerate(ctx))

	steps := []func() error{
		func() error { return engine.MovePlayer(ctx, "2", match.TeamA) },
		func() error { return engine.QuickSwap(ctx, match.TeamB, 0) },
		func() error { return engine.MovePlayer(ctx, "1", match.TeamB) },
		func() error { return engine.QuickSwap(ctx, match.TeamA, 1) },
	}
	for _, step := range steps {
		require.NoError(t, step())
		st := engine.State()
		assert.NoError(t, match.ValidatePartition(st.Teams, st.Eligible))
	}
}

func TestBrowseWraps(t *testing.T) {
	srv, matchID := setupLobby(t)
	engine, _ := newEngine(t, srv, matchID, organizer)
	ctx := context.Background()
	require.NoError(t, engine.Regenerate(ctx))

	require.NoError(t, engine.Browse(ctx, -1))
	assert.Equal(t, 3, engine.State().VariantNo)
	require.NoError(t, engine.Browse(ctx, 2))
	assert.Equal(t, 2, engine.State().VariantNo)
	assert.Equal(t, match.IDList{"1", "2"}, engine.State().Teams.A)
}

func TestConfirmKeepsCustomTeamsAndNames(t *testing.T) {
	srv, matchID := setupLobby(t)
	engine, store := newEngine(t, srv, matchID, organizer)
	ctx := context.Background()
	require.NoError(t, engine.Regenerate(ctx))
	require.NoError(t, engine.MovePlayer(ctx, "4", match.TeamA))

	require.NoError(t, engine.Confirm(ctx, "Reds", "Blues"))

	cur := store.Snapshot().TeamCurrent
	require.NotNil(t, cur)
	assert.True(t, cur.IsCustom)
	assert.Equal(t, match.IDList{"1", "3", "4"}, cur.CurrentTeams.A)
	assert.Equal(t, "Reds", store.Snapshot().TeamName(match.TeamA))
	assert.Equal(t, "Blues", store.Snapshot().TeamName(match.TeamB))
}

func TestSelectVariantPersistsNames(t *testing.T) {
	srv, matchID := setupLobby(t)
	engine, store := newEngine(t, srv, matchID, organizer)
	ctx := context.Background()
	require.NoError(t, engine.Regenerate(ctx))
	require.NoError(t, engine.Confirm(ctx, "Reds", ""))

	require.NoError(t, engine.SelectVariant(ctx, 2))

	assert.Equal(t, 2, store.Snapshot().TeamCurrent.BaseVariantNo)
	assert.Equal(t, "Reds", store.Snapshot().TeamName(match.TeamA))
	assert.Equal(t, "Team B", store.Snapshot().TeamName(match.TeamB))
}

func TestPlayerCannotEditTeams(t *testing.T) {
	srv, matchID := setupLobby(t)
	orgEngine, _ := newEngine(t, srv, matchID, organizer)
	require.NoError(t, orgEngine.Regenerate(context.Background()))

	engine, store := newEngine(t, srv, matchID, 2)
	before := len(srv.Requests())

	err := engine.MovePlayer(context.Background(), "3", match.TeamB)

	assert.ErrorIs(t, err, api.ErrForbidden)
	assert.Equal(t, "You are not allowed to do that.", store.Notice())
	assert.Len(t, srv.Requests(), before, "rejected before any command is issued")
	assert.False(t, engine.State().Editable)
}

func TestUnknownVariantRefetches(t *testing.T) {
	srv, matchID := setupLobby(t)
	engine, _ := newEngine(t, srv, matchID, organizer)
	require.NoError(t, engine.Regenerate(context.Background()))

	err := engine.SelectVariant(context.Background(), 9)

	assert.ErrorIs(t, err, api.ErrNotFound)
	reqs := srv.Requests()
	assert.Contains(t, reqs[len(reqs)-1], "GET /matches/")
}

func TestStaleVariantAfterJoinIsRejected(t *testing.T) {
	srv, matchID := setupLobby(t)
	engine, store := newEngine(t, srv, matchID, organizer)
	ctx := context.Background()
	require.NoError(t, engine.Regenerate(ctx))

	srv.AddUser(5, "Eve", false)
	require.NoError(t, srv.ClientFor(5).Join(ctx, matchID))
	require.NoError(t, store.Refresh(ctx))

	err := engine.SelectVariant(ctx, 2)
	assert.ErrorIs(t, err, api.ErrInvalid)
	assert.ErrorIs(t, err, match.ErrPartitionMismatch)

	require.NoError(t, engine.Regenerate(ctx))
	assert.NoError(t, engine.SelectVariant(ctx, 2))
}

func TestLockedAfterKickoff(t *testing.T) {
	srv, matchID := setupLobby(t)
	engine, store := newEngine(t, srv, matchID, organizer)
	ctx := context.Background()
	require.NoError(t, engine.Regenerate(ctx))
	require.NoError(t, srv.ClientFor(organizer).Start(ctx, matchID))
	require.NoError(t, store.Refresh(ctx))

	assert.ErrorIs(t, engine.Revert(ctx), api.ErrForbidden)
}

// assertMatchesSnapshot checks that the local team state equals the last
// applied server state.
func assertMatchesSnapshot(t *testing.T, engine *teams.Engine, store *session.Store) {
	t.Helper()
	cur := store.Snapshot().TeamCurrent
	require.NotNil(t, cur)
	st := engine.State()
	assert.Equal(t, cur.CurrentTeams, st.Teams)
	assert.Equal(t, cur.IsCustom, st.IsCustom)
	assert.Equal(t, cur.BaseVariantNo, st.VariantNo)
}

func TestFailedEditsKeepServerState(t *testing.T) {
	tests := []struct {
		name   string
		custom bool
		edit   func(ctx context.Context, e *teams.Engine) error
	}{
		{"move", false, func(ctx context.Context, e *teams.Engine) error { return e.MovePlayer(ctx, "1", match.TeamB) }},
		{"swap", false, func(ctx context.Context, e *teams.Engine) error { return e.QuickSwap(ctx, match.TeamA, 0) }},
		{"select", false, func(ctx context.Context, e *teams.Engine) error { return e.SelectVariant(ctx, 2) }},
		{"browse", false, func(ctx context.Context, e *teams.Engine) error { return e.Browse(ctx, 1) }},
		{"revert", true, func(ctx context.Context, e *teams.Engine) error { return e.Revert(ctx) }},
		{"regenerate", false, func(ctx context.Context, e *teams.Engine) error { return e.Regenerate(ctx) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, matchID := setupLobby(t)
			engine, store := newEngine(t, srv, matchID, organizer)
			ctx := context.Background()
			require.NoError(t, engine.Regenerate(ctx))
			if tt.custom {
				require.NoError(t, engine.MovePlayer(ctx, "3", match.TeamB))
			}

			srv.FailNext(503, "unavailable")
			err := tt.edit(ctx, engine)

			assert.ErrorIs(t, err, api.ErrTransient)
			assert.Equal(t, tt.custom, engine.State().IsCustom)
			assertMatchesSnapshot(t, engine, store)
		})
	}
}

func TestConfirmAfterFailedMoveKeepsVariant(t *testing.T) {
	srv, matchID := setupLobby(t)
	engine, store := newEngine(t, srv, matchID, organizer)
	ctx := context.Background()
	require.NoError(t, engine.Regenerate(ctx))

	srv.FailNext(503, "unavailable")
	require.Error(t, engine.MovePlayer(ctx, "1", match.TeamB))
	st := engine.State()
	assert.Equal(t, match.IDList{"1", "3"}, st.Teams.A)
	assert.Equal(t, match.IDList{"2", "4"}, st.Teams.B)

	require.NoError(t, engine.Confirm(ctx, "Reds", "Blues"))

	cur := store.Snapshot().TeamCurrent
	require.NotNil(t, cur)
	assert.False(t, cur.IsCustom)
	assert.Equal(t, 1, cur.BaseVariantNo)
	assert.Equal(t, match.IDList{"1", "3"}, cur.CurrentTeams.A)
	assert.Equal(t, match.IDList{"2", "4"}, cur.CurrentTeams.B)
	assert.Equal(t, "Reds", store.Snapshot().TeamName(match.TeamA))
}
