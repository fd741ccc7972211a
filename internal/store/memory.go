package store

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"beatline/internal/model"
)

// Memory is the in-process SessionStore. A global RWMutex guards only the
// session map; each session carries its own mutex so operations on
// different sessions never contend.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	provider     TrackProvider
	notifier     Notifier
	winCondition int
}

type sessionEntry struct {
	mu    sync.Mutex
	state State
}

// NewMemory creates an empty store. winCondition <= 0 selects the default.
func NewMemory(provider TrackProvider, notifier Notifier, winCondition int) *Memory {
	if winCondition <= 0 {
		winCondition = model.DefaultWinCondition
	}
	return &Memory{
		sessions:     make(map[string]*sessionEntry),
		provider:     provider,
		notifier:     notifier,
		winCondition: winCondition,
	}
}

// Create makes a new WAITING session with the host as player 0.
func (m *Memory) Create(hostName string, mode model.GameMode, playlistID string) (*model.Session, *model.Player) {
	session := &model.Session{
		ID:           uuid.NewString(),
		HostName:     hostName,
		Mode:         mode,
		Status:       model.SessionWaiting,
		PlaylistID:   playlistID,
		WinCondition: m.winCondition,
		RoundNumber:  0,
		CreatedAt:    time.Now(),
	}

	entry := &sessionEntry{state: State{Session: session}}
	host := entry.state.AddPlayer(hostName)

	m.mu.Lock()
	m.sessions[session.ID] = entry
	m.mu.Unlock()

	s := *session
	h := *host
	return &s, &h
}

// LoadPlaylist fetches the playlist outside the session lock, shuffles the
// tracks once and installs the result as the shared queue.
func (m *Memory) LoadPlaylist(ctx context.Context, sessionID, playlistID string) (int, error) {
	if _, ok := m.entry(sessionID); !ok {
		return 0, ErrSessionNotFound
	}

	playlist, err := m.provider.FetchPlaylist(ctx, playlistID)
	if err != nil {
		return 0, fmt.Errorf("fetch playlist %s: %w", playlistID, err)
	}

	shuffled := make([]model.Track, len(playlist.Tracks))
	copy(shuffled, playlist.Tracks)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	err = m.Update(sessionID, func(st *State) error {
		st.Queue = shuffled
		st.Solution = nil
		st.Session.PlaylistID = playlistID
		st.Session.CurrentTrackIndex = 0
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(shuffled), nil
}

// Update runs fn under the session lock, flushes emitted events to the
// notifier in order before the lock is released, and deletes the session
// when fn emptied it.
func (m *Memory) Update(sessionID string, fn func(*State) error) error {
	entry, ok := m.entry(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	entry.mu.Lock()
	err := fn(&entry.state)
	if err != nil {
		entry.state.events = nil
		entry.mu.Unlock()
		return err
	}

	events := entry.state.events
	entry.state.events = nil
	if m.notifier != nil {
		for _, ev := range events {
			m.notifier.Broadcast(sessionID, ev.Name, ev.Payload)
		}
	}
	remove := entry.state.removeSession
	entry.mu.Unlock()

	if remove {
		m.mu.Lock()
		delete(m.sessions, sessionID)
		m.mu.Unlock()
	}
	return nil
}

// View runs fn under the session lock; fn must not mutate state.
func (m *Memory) View(sessionID string, fn func(*State) error) error {
	entry, ok := m.entry(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(&entry.state)
}

// ListWaiting returns WAITING sessions ordered by creation time.
func (m *Memory) ListWaiting() []model.LobbyInfo {
	m.mu.RLock()
	entries := make([]*sessionEntry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	lobbies := make([]model.LobbyInfo, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if e.state.Session.Status == model.SessionWaiting {
			lobbies = append(lobbies, model.LobbyInfo{
				SessionID:   e.state.Session.ID,
				HostName:    e.state.Session.HostName,
				PlayerCount: len(e.state.Players),
				Status:      e.state.Session.Status,
				CreatedAt:   e.state.Session.CreatedAt,
			})
		}
		e.mu.Unlock()
	}

	sort.Slice(lobbies, func(i, j int) bool {
		return lobbies[i].CreatedAt.Before(lobbies[j].CreatedAt)
	})
	return lobbies
}

func (m *Memory) entry(sessionID string) (*sessionEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[sessionID]
	return e, ok
}

var _ SessionStore = (*Memory)(nil)
