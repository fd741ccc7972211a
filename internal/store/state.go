package store

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"beatline/internal/model"
	"beatline/internal/timeline"
)

// State is one session's mutable unit: the session record, its players in
// join order, the shared shuffled queue and the active solution. It is only
// ever handed out under the session lock.
type State struct {
	Session  *model.Session
	Players  []*model.Player
	Queue    []model.Track
	Solution *model.Track

	events        []Event
	removeSession bool
}

// Emit records an event to be broadcast after the mutation commits.
func (st *State) Emit(event string, payload any) {
	st.events = append(st.events, Event{Name: event, Payload: payload})
}

// Delete marks the whole session for removal once the mutation commits.
func (st *State) Delete() {
	st.removeSession = true
}

// Player finds a player by id.
func (st *State) Player(playerID string) (*model.Player, bool) {
	for _, p := range st.Players {
		if p.ID == playerID {
			return p, true
		}
	}
	return nil, false
}

// AddPlayer appends a new player with the mode's starting token budget.
func (st *State) AddPlayer(name string) *model.Player {
	p := &model.Player{
		ID:        "p_" + uuid.NewString()[:8],
		SessionID: st.Session.ID,
		Name:      name,
		Tokens:    st.Session.Mode.StartingTokens(),
		Timeline:  []model.TimelineCard{},
		JoinedAt:  time.Now(),
	}
	st.Players = append(st.Players, p)
	return p
}

// RemovePlayer removes a player. Removing the last player marks the whole
// session for deletion. The second return reports whether the departing
// player was the host (player 0).
func (st *State) RemovePlayer(playerID string) (removed, wasHost bool) {
	for i, p := range st.Players {
		if p.ID != playerID {
			continue
		}
		wasHost = i == 0
		st.Players = append(st.Players[:i], st.Players[i+1:]...)
		if len(st.Players) == 0 {
			st.removeSession = true
		}
		if st.Session.CurrentPlayerTurn == playerID && len(st.Players) > 0 {
			st.Session.CurrentPlayerTurn = st.Players[0].ID
		}
		return true, wasHost
	}
	return false, false
}

// StartGame transitions the session to PLAYING, deals one start card to
// every player from the front of the queue, advances the shared cursor
// past the dealt cards and loads the next entry as the active solution.
func (st *State) StartGame() (*StartResult, error) {
	if len(st.Queue) == 0 {
		return nil, ErrNoTracksLoaded
	}

	now := time.Now()
	st.Session.Status = model.SessionPlaying
	st.Session.StartedAt = &now
	st.Session.RoundNumber = 1

	result := &StartResult{
		TotalTracks: len(st.Queue),
		StartCards:  make(map[string]model.TimelineCard, len(st.Players)),
	}

	dealt := 0
	for _, p := range st.Players {
		if dealt >= len(st.Queue) {
			break
		}
		track := st.Queue[dealt]
		card := model.TimelineCard{
			TrackID:   track.ID,
			Title:     track.Title,
			Artist:    track.Artist,
			Year:      track.Year,
			IsCorrect: true,
		}
		p.Timeline = timeline.InsertAt(p.Timeline, card, 0)
		p.Score = len(p.Timeline)
		result.StartCards[p.ID] = p.Timeline[0]
		dealt++
	}

	st.Session.CurrentTrackIndex = dealt
	if len(st.Players) > 0 {
		st.Session.CurrentPlayerTurn = st.Players[0].ID
	}

	if dealt < len(st.Queue) {
		st.Solution = &st.Queue[dealt]
		result.Playback = st.playback()
	} else {
		st.Solution = nil
	}

	return result, nil
}

// AdvanceTrack moves the shared cursor forward by one. Exhausting the
// queue finishes the session and yields the final leaderboard.
func (st *State) AdvanceTrack() (*AdvanceResult, error) {
	if len(st.Queue) == 0 {
		return nil, ErrNoTracksLoaded
	}

	st.Session.CurrentTrackIndex++
	if st.Session.CurrentTrackIndex >= len(st.Queue) {
		st.finish()
		return &AdvanceResult{Finished: true, Leaderboard: st.Leaderboard()}, nil
	}

	st.Solution = &st.Queue[st.Session.CurrentTrackIndex]
	st.advanceTurn()
	return &AdvanceResult{Playback: st.playback()}, nil
}

// Finish ends the session regardless of remaining queue entries (a player
// reached the win condition).
func (st *State) Finish() {
	st.finish()
}

func (st *State) finish() {
	st.Session.Status = model.SessionFinished
	st.Session.CurrentPlayerTurn = ""
	st.Solution = nil
}

// advanceTurn rotates the current player turn in join order and bumps the
// round number when the turn wraps back to player 0.
func (st *State) advanceTurn() {
	if len(st.Players) == 0 {
		return
	}
	cur := 0
	for i, p := range st.Players {
		if p.ID == st.Session.CurrentPlayerTurn {
			cur = i
			break
		}
	}
	next := (cur + 1) % len(st.Players)
	if next == 0 {
		st.Session.RoundNumber++
	}
	st.Session.CurrentPlayerTurn = st.Players[next].ID
}

// ActiveSolution returns the track players are currently guessing.
func (st *State) ActiveSolution() (*model.Track, error) {
	if st.Solution == nil {
		return nil, ErrNoActiveTrack
	}
	return st.Solution, nil
}

// Playback returns the playable view of the cursor track, without any
// solution fields. Repeated calls without an advance return the same data.
func (st *State) Playback() (*model.TrackPlayback, error) {
	if len(st.Queue) == 0 {
		return nil, ErrNoTracksLoaded
	}
	if st.Session.CurrentTrackIndex >= len(st.Queue) {
		return nil, ErrNoActiveTrack
	}
	return st.playback(), nil
}

func (st *State) playback() *model.TrackPlayback {
	t := st.Queue[st.Session.CurrentTrackIndex]
	return &model.TrackPlayback{
		TrackID:     t.ID,
		URI:         t.URI,
		DurationMS:  t.DurationMS,
		TrackNumber: st.Session.CurrentTrackIndex + 1,
		TotalTracks: len(st.Queue),
	}
}

// Leaderboard sorts players by score descending, stable on join order, with
// dense 1-based ranks.
func (st *State) Leaderboard() []model.LeaderboardEntry {
	players := make([]*model.Player, len(st.Players))
	copy(players, st.Players)
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Score > players[j].Score
	})

	entries := make([]model.LeaderboardEntry, len(players))
	for i, p := range players {
		entries[i] = model.LeaderboardEntry{
			Rank:     i + 1,
			PlayerID: p.ID,
			Name:     p.Name,
			Score:    p.Score,
			Tokens:   p.Tokens,
			HasWon:   p.HasWon,
		}
	}
	return entries
}

// StatusInfo returns the polling view of the session.
func (st *State) StatusInfo() *model.SessionStatusInfo {
	return &model.SessionStatusInfo{
		SessionID:         st.Session.ID,
		HostName:          st.Session.HostName,
		Status:            st.Session.Status,
		PlayerCount:       len(st.Players),
		CurrentTrackIndex: st.Session.CurrentTrackIndex,
		CurrentPlayerTurn: st.Session.CurrentPlayerTurn,
		RoundNumber:       st.Session.RoundNumber,
	}
}
