package model

import (
	"fmt"
	"time"
)

type SessionStatus string

const (
	SessionWaiting  SessionStatus = "waiting"
	SessionPlaying  SessionStatus = "playing"
	SessionFinished SessionStatus = "finished"
)

// GameMode selects the guessing difficulty and the starting token budget.
type GameMode string

const (
	ModeOriginal GameMode = "ORIGINAL"
	ModePro      GameMode = "PRO"
	ModeExpert   GameMode = "EXPERT"
	ModeTeamwork GameMode = "TEAMWORK"
)

// ParseGameMode validates a mode string coming from a request. The empty
// string maps to ORIGINAL.
func ParseGameMode(s string) (GameMode, error) {
	switch GameMode(s) {
	case ModeOriginal, ModePro, ModeExpert, ModeTeamwork:
		return GameMode(s), nil
	case "":
		return ModeOriginal, nil
	}
	return "", fmt.Errorf("unknown game mode %q", s)
}

// StartingTokens returns the token budget players begin with in this mode.
func (m GameMode) StartingTokens() int {
	switch m {
	case ModeOriginal:
		return 2
	case ModePro:
		return 5
	case ModeExpert:
		return 3
	case ModeTeamwork:
		return 10
	}
	return 0
}

// DefaultWinCondition is the number of timeline cards needed to win.
const DefaultWinCondition = 10

// Session is one running game. Owned by the session store; every field is
// mutated only under the store's per-session lock.
type Session struct {
	ID                string        `json:"sessionId"`
	HostName          string        `json:"hostName"`
	Mode              GameMode      `json:"gameMode"`
	Status            SessionStatus `json:"status"`
	PlaylistID        string        `json:"playlistId,omitempty"`
	WinCondition      int           `json:"winCondition"`
	CurrentTrackIndex int           `json:"currentTrackIndex"`
	CurrentPlayerTurn string        `json:"currentPlayerTurn,omitempty"`
	RoundNumber       int           `json:"roundNumber"`
	CreatedAt         time.Time     `json:"createdAt"`
	StartedAt         *time.Time    `json:"startedAt,omitempty"`
}

// LobbyInfo is the discovery view of a waiting session.
type LobbyInfo struct {
	SessionID   string        `json:"sessionId"`
	HostName    string        `json:"hostName"`
	PlayerCount int           `json:"playerCount"`
	Status      SessionStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// SessionStatusInfo is the polling view of a session's progress.
type SessionStatusInfo struct {
	SessionID         string        `json:"sessionId"`
	HostName          string        `json:"hostName"`
	Status            SessionStatus `json:"status"`
	PlayerCount       int           `json:"playerCount"`
	CurrentTrackIndex int           `json:"currentTrackIndex"`
	CurrentPlayerTurn string        `json:"currentPlayerTurn,omitempty"`
	RoundNumber       int           `json:"roundNumber"`
}
