package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/match"
	"github.com/mauv0809/pitchside/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotWith(status match.Status) *match.Snapshot {
	return &match.Snapshot{
		Match:   match.Match{ID: 1, Status: status},
		Members: []match.Member{{TgID: 10, Role: match.RoleOrganizer}},
		Me:      match.Me{TgID: 10},
	}
}

func TestStartFetchesImmediately(t *testing.T) {
	client := api.NewMockClient()
	client.GetMatchFunc = func(ctx context.Context, matchID int64) (*match.Snapshot, error) {
		return snapshotWith(match.StatusCreated), nil
	}
	store := NewStore(1, client, WithInterval(time.Hour))
	defer store.Stop()

	require.NoError(t, store.Start(context.Background()))

	view := store.View()
	require.NotNil(t, view.Snapshot)
	assert.False(t, view.Blocking)
	assert.NoError(t, view.Err)
	assert.True(t, view.Capabilities.CanManageTeams)
	assert.Len(t, client.CallsTo("GetMatch"), 1)
}

func TestFailedFirstFetchBlocks(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	client := api.NewMockClient()
	client.GetMatchFunc = func(ctx context.Context, matchID int64) (*match.Snapshot, error) {
		if fail.Load() {
			return nil, &api.Error{Kind: api.KindTransient, Err: errors.New("dial tcp: refused")}
		}
		return snapshotWith(match.StatusCreated), nil
	}
	store := NewStore(1, client)

	err := store.Refresh(context.Background())
	require.Error(t, err)
	view := store.View()
	assert.True(t, view.Blocking)
	assert.Error(t, view.Err)
	assert.Nil(t, view.Snapshot)

	fail.Store(false)
	require.NoError(t, store.Refresh(context.Background()))
	view = store.View()
	assert.False(t, view.Blocking)
	assert.NoError(t, view.Err)
}

func TestFailureKeepsLastGoodSnapshot(t *testing.T) {
	m := metrics.NewMock()
	calls := 0
	client := api.NewMockClient()
	client.GetMatchFunc = func(ctx context.Context, matchID int64) (*match.Snapshot, error) {
		calls++
		if calls > 1 {
			return nil, &api.Error{Status: 502, Kind: api.KindTransient}
		}
		return snapshotWith(match.StatusLive), nil
	}
	store := NewStore(1, client, WithMetrics(m))

	require.NoError(t, store.Refresh(context.Background()))
	require.Error(t, store.Refresh(context.Background()))

	view := store.View()
	require.NotNil(t, view.Snapshot)
	assert.Equal(t, match.StatusLive, view.Snapshot.Match.Status)
	assert.False(t, view.Blocking)
	assert.Error(t, view.Err)
	assert.Equal(t, 2, m.Fetches())
	assert.Equal(t, 1, m.FetchFailures())
}

func TestOlderResponseNeverOverwritesNewer(t *testing.T) {
	m := metrics.NewMock()
	release := make(chan struct{})
	started := make(chan struct{})
	var n atomic.Int32
	client := api.NewMockClient()
	client.GetMatchFunc = func(ctx context.Context, matchID int64) (*match.Snapshot, error) {
		if n.Add(1) == 1 {
			close(started)
			<-release
			return snapshotWith(match.StatusCreated), nil
		}
		return snapshotWith(match.StatusLive), nil
	}
	store := NewStore(1, client, WithMetrics(m))

	done := make(chan error)
	go func() { done <- store.Refresh(context.Background()) }()
	<-started
	require.NoError(t, store.Refresh(context.Background()))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, match.StatusLive, store.Snapshot().Match.Status)
	assert.Equal(t, 1, m.StaleResponses())
}

func TestLateResponseAfterStopIsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	client := api.NewMockClient()
	client.GetMatchFunc = func(ctx context.Context, matchID int64) (*match.Snapshot, error) {
		close(started)
		<-release
		return snapshotWith(match.StatusLive), nil
	}
	var applied atomic.Int32
	store := NewStore(1, client, WithListener(func(prev, next *match.Snapshot) { applied.Add(1) }))

	done := make(chan error)
	go func() { done <- store.Refresh(context.Background()) }()
	<-started
	store.Stop()
	close(release)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Nil(t, store.Snapshot())
	assert.Zero(t, applied.Load())
	assert.ErrorIs(t, store.Refresh(context.Background()), ErrClosed)
	store.Stop()
}

func TestTickGuards(t *testing.T) {
	m := metrics.NewMock()
	client := api.NewMockClient()
	presence := NewPresence()
	store := NewStore(1, client, WithMetrics(m), WithPresence(presence))

	presence.SetVisible(false)
	store.Tick(context.Background())
	presence.SetVisible(true)
	presence.SetEditing(true)
	store.Tick(context.Background())
	assert.Empty(t, client.CallsTo("GetMatch"))
	assert.Equal(t, 1, m.PollsSkipped(metrics.SkipHidden))
	assert.Equal(t, 1, m.PollsSkipped(metrics.SkipEditing))

	presence.SetEditing(false)
	store.Tick(context.Background())
	assert.Len(t, client.CallsTo("GetMatch"), 1)
}

func TestPollingRunsUntilStop(t *testing.T) {
	client := api.NewMockClient()
	store := NewStore(1, client, WithInterval(10*time.Millisecond))

	require.NoError(t, store.Start(context.Background()))
	assert.Eventually(t, func() bool {
		return len(client.CallsTo("GetMatch")) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	store.Stop()
	after := len(client.CallsTo("GetMatch"))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, len(client.CallsTo("GetMatch")))
	assert.False(t, store.Alive())
	assert.ErrorIs(t, store.Start(context.Background()), ErrClosed)
}

func TestListenersSeePreviousSnapshot(t *testing.T) {
	statuses := []match.Status{match.StatusCreated, match.StatusLive}
	calls := 0
	client := api.NewMockClient()
	client.GetMatchFunc = func(ctx context.Context, matchID int64) (*match.Snapshot, error) {
		snap := snapshotWith(statuses[calls])
		calls++
		return snap, nil
	}
	var seen [][2]match.Status
	store := NewStore(1, client)
	store.Subscribe(func(prev, next *match.Snapshot) {
		from := match.Status("")
		if prev != nil {
			from = prev.Match.Status
		}
		seen = append(seen, [2]match.Status{from, next.Match.Status})
	})

	require.NoError(t, store.Refresh(context.Background()))
	require.NoError(t, store.Refresh(context.Background()))

	assert.Equal(t, [][2]match.Status{{"", match.StatusCreated}, {match.StatusCreated, match.StatusLive}}, seen)
}

func TestDoRefetchesOnSuccess(t *testing.T) {
	m := metrics.NewMock()
	client := api.NewMockClient()
	store := NewStore(1, client, WithMetrics(m))

	err := store.Do(context.Background(), "start", func(ctx context.Context) error {
		return client.Start(ctx, 1)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Start", "GetMatch"}, client.Methods())
	assert.Equal(t, 1, m.Commands("start"))
	assert.Empty(t, store.Notice())
}

func TestDoFailureSetsNotice(t *testing.T) {
	m := metrics.NewMock()
	client := api.NewMockClient()
	client.GetMatchFunc = func(ctx context.Context, matchID int64) (*match.Snapshot, error) {
		return snapshotWith(match.StatusLive), nil
	}
	store := NewStore(1, client, WithMetrics(m))
	require.NoError(t, store.Refresh(context.Background()))
	client.Reset()

	err := store.Do(context.Background(), "goal", func(ctx context.Context) error {
		return &api.Error{Status: 403, Code: "forbidden", Kind: api.KindForbidden}
	})

	require.Error(t, err)
	assert.Equal(t, "You are not allowed to do that.", store.Notice())
	assert.NotNil(t, store.View().Snapshot, "last good snapshot stays visible")
	assert.False(t, store.View().Blocking)
	assert.Empty(t, client.Methods(), "forbidden is not refetched")
	assert.Equal(t, 1, m.CommandFailures("goal"))

	store.Dismiss()
	assert.Empty(t, store.Notice())
}

func TestDoNotFoundRefetches(t *testing.T) {
	client := api.NewMockClient()
	store := NewStore(1, client)

	err := store.Do(context.Background(), "delete_event", func(ctx context.Context) error {
		return &api.Error{Status: 404, Code: "event_not_found", Kind: api.KindNotFound}
	})

	assert.Error(t, err)
	assert.Equal(t, []string{"GetMatch"}, client.Methods())
}

func TestUnauthenticatedBlocksCommands(t *testing.T) {
	client := api.NewMockClient()
	client.GetMatchFunc = func(ctx context.Context, matchID int64) (*match.Snapshot, error) {
		return nil, &api.Error{Status: 401, Code: "hash_mismatch", Kind: api.KindUnauthenticated}
	}
	store := NewStore(1, client)
	require.Error(t, store.Refresh(context.Background()))

	ran := false
	err := store.Do(context.Background(), "join", func(ctx context.Context) error {
		ran = true
		return nil
	})

	assert.ErrorIs(t, err, api.ErrUnauthenticated)
	assert.False(t, ran)
	assert.True(t, store.View().Blocking)
}
