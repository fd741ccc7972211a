package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beatline/internal/model"
)

type fakeProvider struct {
	tracks []model.Track
	err    error
}

func (f *fakeProvider) FetchPlaylist(ctx context.Context, playlistID string) (*model.Playlist, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Playlist{ID: playlistID, Name: "Test", Owner: "tester", Tracks: f.tracks}, nil
}

func (f *fakeProvider) Search(ctx context.Context, query string, limit int) ([]model.Track, error) {
	return f.tracks, f.err
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeNotifier) Broadcast(sessionID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func testTracks(n int) []model.Track {
	tracks := make([]model.Track, n)
	for i := range tracks {
		tracks[i] = model.Track{
			ID:    fmt.Sprintf("track-%d", i),
			Title: fmt.Sprintf("Song %d", i),
			Year:  1970 + i*5,
		}
	}
	return tracks
}

func TestCreate(t *testing.T) {
	t.Parallel()

	m := NewMemory(&fakeProvider{}, nil, 0)
	session, host := m.Create("Alice", model.ModePro, "")

	assert.Equal(t, model.SessionWaiting, session.Status)
	assert.Equal(t, "Alice", session.HostName)
	assert.Equal(t, model.DefaultWinCondition, session.WinCondition)
	assert.Equal(t, "Alice", host.Name)
	assert.Equal(t, 5, host.Tokens)
	assert.Equal(t, 0, host.Score)
	assert.Empty(t, host.Timeline)

	err := m.View(session.ID, func(st *State) error {
		assert.Len(t, st.Players, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestLoadPlaylist(t *testing.T) {
	t.Parallel()

	m := NewMemory(&fakeProvider{tracks: testTracks(5)}, nil, 0)
	session, _ := m.Create("Alice", model.ModeOriginal, "")

	count, err := m.LoadPlaylist(context.Background(), session.ID, "pl-1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	err = m.View(session.ID, func(st *State) error {
		assert.Equal(t, "pl-1", st.Session.PlaylistID)
		require.Len(t, st.Queue, 5)
		// Shuffled copy carries the same tracks.
		seen := make(map[string]bool)
		for _, tr := range st.Queue {
			seen[tr.ID] = true
		}
		assert.Len(t, seen, 5)
		return nil
	})
	require.NoError(t, err)
}

func TestLoadPlaylist_SessionNotFound(t *testing.T) {
	t.Parallel()

	m := NewMemory(&fakeProvider{tracks: testTracks(3)}, nil, 0)
	_, err := m.LoadPlaylist(context.Background(), "missing", "pl-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLoadPlaylist_ProviderError(t *testing.T) {
	t.Parallel()

	m := NewMemory(&fakeProvider{err: fmt.Errorf("upstream down")}, nil, 0)
	session, _ := m.Create("Alice", model.ModeOriginal, "")

	_, err := m.LoadPlaylist(context.Background(), session.ID, "pl-1")
	assert.ErrorContains(t, err, "upstream down")
}

func TestStartGame_DealsStartCards(t *testing.T) {
	t.Parallel()

	m := NewMemory(&fakeProvider{}, nil, 0)
	session, host := m.Create("Alice", model.ModeOriginal, "")

	var bobID string
	err := m.Update(session.ID, func(st *State) error {
		bobID = st.AddPlayer("Bob").ID
		st.Queue = testTracks(4)
		return nil
	})
	require.NoError(t, err)

	var result *StartResult
	err = m.Update(session.ID, func(st *State) error {
		var startErr error
		result, startErr = st.StartGame()
		return startErr
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalTracks)
	assert.Len(t, result.StartCards, 2)
	require.NotNil(t, result.Playback)
	assert.Equal(t, "track-2", result.Playback.TrackID)
	assert.Equal(t, 3, result.Playback.TrackNumber)

	err = m.View(session.ID, func(st *State) error {
		assert.Equal(t, model.SessionPlaying, st.Session.Status)
		assert.Equal(t, 1, st.Session.RoundNumber)
		assert.Equal(t, 2, st.Session.CurrentTrackIndex)
		assert.Equal(t, host.ID, st.Session.CurrentPlayerTurn)
		require.NotNil(t, st.Solution)
		assert.Equal(t, "track-2", st.Solution.ID)

		for _, id := range []string{host.ID, bobID} {
			p, ok := st.Player(id)
			require.True(t, ok)
			assert.Equal(t, 1, p.Score)
			require.Len(t, p.Timeline, 1)
			assert.Equal(t, 0, p.Timeline[0].Position)
			assert.True(t, p.Timeline[0].IsCorrect)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestStartGame_NoTracks(t *testing.T) {
	t.Parallel()

	m := NewMemory(&fakeProvider{}, nil, 0)
	session, _ := m.Create("Alice", model.ModeOriginal, "")

	err := m.Update(session.ID, func(st *State) error {
		_, startErr := st.StartGame()
		return startErr
	})
	assert.ErrorIs(t, err, ErrNoTracksLoaded)
}

func TestAdvanceTrack_FinishesOnExhaustion(t *testing.T) {
	t.Parallel()

	m := NewMemory(&fakeProvider{}, nil, 0)
	session, _ := m.Create("Alice", model.ModeOriginal, "")

	err := m.Update(session.ID, func(st *State) error {
		st.Queue = testTracks(2)
		_, startErr := st.StartGame()
		return startErr
	})
	require.NoError(t, err)

	// One player, two tracks: start deals one and loads the second.
	var result *AdvanceResult
	err = m.Update(session.ID, func(st *State) error {
		var advErr error
		result, advErr = st.AdvanceTrack()
		return advErr
	})
	require.NoError(t, err)

	assert.True(t, result.Finished)
	require.Len(t, result.Leaderboard, 1)
	assert.Equal(t, 1, result.Leaderboard[0].Rank)

	err = m.View(session.ID, func(st *State) error {
		assert.Equal(t, model.SessionFinished, st.Session.Status)
		assert.Nil(t, st.Solution)
		_, pbErr := st.Playback()
		assert.ErrorIs(t, pbErr, ErrNoActiveTrack)
		return nil
	})
	require.NoError(t, err)
}

func TestAdvanceTrack_NoQueue(t *testing.T) {
	t.Parallel()

	m := NewMemory(&fakeProvider{}, nil, 0)
	session, _ := m.Create("Alice", model.ModeOriginal, "")

	err := m.Update(session.ID, func(st *State) error {
		_, advErr := st.AdvanceTrack()
		return advErr
	})
	assert.ErrorIs(t, err, ErrNoTracksLoaded)
}

func TestAdvanceTrack_RotatesTurn(t *testing.T) {
	t.Parallel()

	m := NewMemory(&fakeProvider{}, nil, 0)
	session, host := m.Create("Alice", model.ModeOriginal, "")

	var bobID string
	err := m.Update(session.ID, func(st *State) error {
		bobID = st.AddPlayer("Bob").ID
		st.Queue = testTracks(8)
		_, startErr := st.StartGame()
		return startErr
	})
	require.NoError(t, err)

	advance := func() {
		err := m.Update(session.ID, func(st *State) error {
			_, advErr := st.AdvanceTrack()
			return advErr
		})
		require.NoError(t, err)
	}

	advance()
	err = m.View(session.ID, func(st *State) error {
		assert.Equal(t, bobID, st.Session.CurrentPlayerTurn)
		assert.Equal(t, 1, st.Session.RoundNumber)
		return nil
	})
	require.NoError(t, err)

	advance()
	err = m.View(session.ID, func(st *State) error {
		assert.Equal(t, host.ID, st.Session.CurrentPlayerTurn)
		assert.Equal(t, 2, st.Session.RoundNumber)
		return nil
	})
	require.NoError(t, err)
}

func TestRemovePlayer_LastPlayerDeletesSession(t *testing.T) {
	t.Parallel()

	m := NewMemory(&fakeProvider{}, nil, 0)
	session, host := m.Create("Alice", model.ModeOriginal, "")

	err := m.Update(session.ID, func(st *State) error {
		removed, wasHost := st.RemovePlayer(host.ID)
		assert.True(t, removed)
		assert.True(t, wasHost)
		return nil
	})
	require.NoError(t, err)

	err = m.View(session.ID, func(st *State) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRemovePlayer_Unknown(t *testing.T) {
	t.Parallel()

	m := NewMemory(&fakeProvider{}, nil, 0)
	session, _ := m.Create("Alice", model.ModeOriginal, "")

	err := m.Update(session.ID, func(st *State) error {
		removed, _ := st.RemovePlayer("nope")
		assert.False(t, removed)
		return nil
	})
	require.NoError(t, err)
}

func TestLeaderboard_StableTies(t *testing.T) {
	t.Parallel()

	m := NewMemory(&fakeProvider{}, nil, 0)
	session, _ := m.Create("Alice", model.ModeOriginal, "")

	err := m.Update(session.ID, func(st *State) error {
		st.AddPlayer("Bob")
		st.AddPlayer("Carol")
		st.Players[0].Score = 2
		st.Players[1].Score = 5
		st.Players[2].Score = 2
		return nil
	})
	require.NoError(t, err)

	err = m.View(session.ID, func(st *State) error {
		lb := st.Leaderboard()
		require.Len(t, lb, 3)
		assert.Equal(t, []int{1, 2, 3}, []int{lb[0].Rank, lb[1].Rank, lb[2].Rank})
		assert.Equal(t, "Bob", lb[0].Name)
		// Alice joined before Carol; the tie keeps join order.
		assert.Equal(t, "Alice", lb[1].Name)
		assert.Equal(t, "Carol", lb[2].Name)
		return nil
	})
	require.NoError(t, err)
}

func TestListWaiting_ExcludesStarted(t *testing.T) {
	t.Parallel()

	m := NewMemory(&fakeProvider{}, nil, 0)
	waiting, _ := m.Create("Alice", model.ModeOriginal, "")
	playing, _ := m.Create("Bob", model.ModeOriginal, "")

	err := m.Update(playing.ID, func(st *State) error {
		st.Queue = testTracks(2)
		_, startErr := st.StartGame()
		return startErr
	})
	require.NoError(t, err)

	lobbies := m.ListWaiting()
	require.Len(t, lobbies, 1)
	assert.Equal(t, waiting.ID, lobbies[0].SessionID)
	assert.Equal(t, 1, lobbies[0].PlayerCount)
}

func TestUpdate_FlushesEventsInOrder(t *testing.T) {
	t.Parallel()

	n := &fakeNotifier{}
	m := NewMemory(&fakeProvider{}, n, 0)
	session, _ := m.Create("Alice", model.ModeOriginal, "")

	err := m.Update(session.ID, func(st *State) error {
		st.Emit("first", nil)
		st.Emit("second", nil)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, n.names())
}

func TestUpdate_DiscardsEventsOnError(t *testing.T) {
	t.Parallel()

	n := &fakeNotifier{}
	m := NewMemory(&fakeProvider{}, n, 0)
	session, _ := m.Create("Alice", model.ModeOriginal, "")

	err := m.Update(session.ID, func(st *State) error {
		st.Emit("never", nil)
		return ErrNoActiveTrack
	})
	assert.ErrorIs(t, err, ErrNoActiveTrack)
	assert.Empty(t, n.names())
}

func TestPlayback_Idempotent(t *testing.T) {
	t.Parallel()

	m := NewMemory(&fakeProvider{}, nil, 0)
	session, _ := m.Create("Alice", model.ModeOriginal, "")

	err := m.Update(session.ID, func(st *State) error {
		st.Queue = testTracks(3)
		_, startErr := st.StartGame()
		return startErr
	})
	require.NoError(t, err)

	var first, second *model.TrackPlayback
	err = m.View(session.ID, func(st *State) error {
		var pbErr error
		first, pbErr = st.Playback()
		require.NoError(t, pbErr)
		second, pbErr = st.Playback()
		return pbErr
	})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
