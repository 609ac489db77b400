package roster_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/api/apitest"
	"github.com/mauv0809/pitchside/internal/match"
	"github.com/mauv0809/pitchside/internal/roster"
	"github.com/mauv0809/pitchside/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const organizer = int64(1)

func setup(t *testing.T) (*apitest.Server, int64) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	for id, name := range map[int64]string{1: "Org", 2: "Bea", 3: "Cid"} {
		srv.AddUser(id, name, false)
	}
	matchID, err := roster.Create(context.Background(), srv.ClientFor(organizer), api.CreateMatchParams{Venue: " Arena "})
	require.NoError(t, err)
	return srv, matchID
}

func manager(t *testing.T, srv *apitest.Server, matchID, viewer int64) (*roster.Manager, *session.Store) {
	t.Helper()
	client := srv.ClientFor(viewer)
	store := session.NewStore(matchID, client)
	t.Cleanup(store.Stop)
	require.NoError(t, store.Refresh(context.Background()))
	return roster.NewManager(store, client), store
}

func count(srv *apitest.Server, request string) int {
	n := 0
	for _, r := range srv.Requests() {
		if r == request {
			n++
		}
	}
	return n
}

func TestCreate(t *testing.T) {
	srv, matchID := setup(t)

	snap, err := srv.ClientFor(organizer).GetMatch(context.Background(), matchID)
	require.NoError(t, err)
	assert.Equal(t, "Arena", snap.Match.Venue)
	assert.Equal(t, match.RoleOrganizer, snap.MemberOf(organizer).Role)

	before := len(srv.Requests())
	_, err = roster.Create(context.Background(), srv.ClientFor(organizer), api.CreateMatchParams{Venue: "   "})
	assert.ErrorIs(t, err, api.ErrInvalid)
	assert.Len(t, srv.Requests(), before)
}

func TestJoinThenSpectate(t *testing.T) {
	srv, matchID := setup(t)
	ctx := context.Background()
	bea, store := manager(t, srv, matchID, 2)
	join := fmt.Sprintf("POST /matches/%d/join", matchID)

	require.NoError(t, bea.Join(ctx))
	require.NotNil(t, store.Snapshot().Self())
	assert.Equal(t, match.RolePlayer, store.Snapshot().Self().Role)

	require.NoError(t, bea.Join(ctx))
	assert.Equal(t, 1, count(srv, join), "joining twice issues one command")

	require.NoError(t, bea.Spectate(ctx))
	assert.Equal(t, match.RoleSpectator, store.Snapshot().Self().Role)
	assert.NotContains(t, store.Snapshot().Eligible(), "2")
}

func TestOrganizerStays(t *testing.T) {
	srv, matchID := setup(t)
	ctx := context.Background()
	org, store := manager(t, srv, matchID, organizer)

	assert.ErrorIs(t, org.Leave(ctx), api.ErrInvalid)
	assert.ErrorIs(t, org.Spectate(ctx), api.ErrInvalid)
	assert.NotEmpty(t, store.Notice())
}

func TestLeave(t *testing.T) {
	srv, matchID := setup(t)
	ctx := context.Background()
	require.NoError(t, srv.ClientFor(2).Join(ctx, matchID))
	bea, store := manager(t, srv, matchID, 2)

	require.NoError(t, bea.Leave(ctx))
	assert.Nil(t, store.Snapshot().Self())
	assert.ErrorIs(t, bea.Leave(ctx), api.ErrInvalid)
}

func TestGrant(t *testing.T) {
	srv, matchID := setup(t)
	ctx := context.Background()
	for _, id := range []int64{2, 3} {
		require.NoError(t, srv.ClientFor(id).Join(ctx, matchID))
	}
	org, store := manager(t, srv, matchID, organizer)
	bea, _ := manager(t, srv, matchID, 2)
	patch := fmt.Sprintf("PATCH /matches/%d/members/3/permissions", matchID)

	assert.ErrorIs(t, bea.Grant(ctx, 3, true), api.ErrForbidden)
	assert.ErrorIs(t, org.Grant(ctx, 42, true), api.ErrNotFound)

	require.NoError(t, org.Grant(ctx, 3, true))
	assert.True(t, store.Snapshot().MemberOf(3).CanEdit)
	require.NoError(t, org.Grant(ctx, 3, true))
	assert.Equal(t, 1, count(srv, patch), "unchanged grants issue no command")

	require.NoError(t, org.Grant(ctx, 3, false))
	assert.False(t, store.Snapshot().MemberOf(3).CanEdit)
}

func TestRepeat(t *testing.T) {
	srv, matchID := setup(t)
	ctx := context.Background()
	require.NoError(t, srv.ClientFor(2).Join(ctx, matchID))
	require.NoError(t, srv.ClientFor(3).Spectate(ctx, matchID))
	org, store := manager(t, srv, matchID, organizer)

	_, err := org.Repeat(ctx)
	assert.ErrorIs(t, err, api.ErrInvalid, "the match has not finished")

	client := srv.ClientFor(organizer)
	_, err = client.GenerateTeams(ctx, matchID)
	require.NoError(t, err)
	require.NoError(t, client.SelectTeams(ctx, matchID, api.SelectTeamsParams{VariantNo: 1}))
	require.NoError(t, client.Start(ctx, matchID))
	require.NoError(t, client.Finish(ctx, matchID, false))
	require.NoError(t, store.Refresh(ctx))

	bea, _ := manager(t, srv, matchID, 2)
	_, err = bea.Repeat(ctx)
	assert.ErrorIs(t, err, api.ErrForbidden)

	next, err := org.Repeat(ctx)
	require.NoError(t, err)
	require.NotEqual(t, matchID, next)

	snap, err := client.GetMatch(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "Arena", snap.Match.Venue)
	assert.Equal(t, match.StatusCreated, snap.Match.Status)
	assert.Equal(t, match.IDList{"1", "2"}, snap.Eligible())
	assert.Nil(t, snap.MemberOf(3), "spectators are not carried over")
}
