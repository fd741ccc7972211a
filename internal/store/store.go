// Package store owns all session, player, track-queue and solution state.
//
// State lives in process memory for the process lifetime. The SessionStore
// interface exists so a durable implementation can be substituted without
// touching the gameplay algorithms layered on top of it.
package store

import (
	"context"
	"errors"

	"beatline/internal/model"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrNoActiveTrack   = errors.New("no active track for this session")
	ErrNoTracksLoaded  = errors.New("no tracks loaded, load a playlist first")
)

// TrackProvider is the external music-catalog collaborator.
type TrackProvider interface {
	FetchPlaylist(ctx context.Context, playlistID string) (*model.Playlist, error)
	Search(ctx context.Context, query string, limit int) ([]model.Track, error)
}

// Notifier pushes an event to every client attached to a session.
// Best-effort, at-most-once; the store never blocks on delivery.
type Notifier interface {
	Broadcast(sessionID, event string, payload any)
}

// Event is a notification recorded during a mutation. The store flushes
// events to the Notifier in order before releasing the session lock, so
// per-session notification order matches mutation order.
type Event struct {
	Name    string
	Payload any
}

// SessionStore is the single owner of game state. Operations addressing
// different sessions run in parallel; operations on the same session are
// serialized by Update/View.
type SessionStore interface {
	// Create makes a new WAITING session with the host as player 0.
	Create(hostName string, mode model.GameMode, playlistID string) (*model.Session, *model.Player)

	// LoadPlaylist fetches tracks from the provider, shuffles them once and
	// installs the result as the session's shared queue. The provider call
	// happens outside the session lock.
	LoadPlaylist(ctx context.Context, sessionID, playlistID string) (int, error)

	// Update runs fn under the session's lock. Events emitted by fn are
	// flushed to the notifier only when fn returns nil.
	Update(sessionID string, fn func(*State) error) error

	// View runs fn under the session's lock; fn must not mutate.
	View(sessionID string, fn func(*State) error) error

	// ListWaiting returns discovery info for WAITING sessions only.
	ListWaiting() []model.LobbyInfo
}

// StartResult reports a successful game start.
type StartResult struct {
	TotalTracks int
	Playback    *model.TrackPlayback
	// StartCards maps player id to the auto-accepted card dealt at start.
	StartCards map[string]model.TimelineCard
}

// AdvanceResult reports a track advancement. When Finished is true the
// queue is exhausted and Leaderboard carries the final standings.
type AdvanceResult struct {
	Finished    bool
	Playback    *model.TrackPlayback
	Leaderboard []model.LeaderboardEntry
}
