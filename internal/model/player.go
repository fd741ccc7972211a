package model

import "time"

// Player is a participant in a session. Score always equals the length of
// the timeline; Tokens never goes negative.
type Player struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId"`
	Name      string         `json:"name"`
	Score     int            `json:"score"`
	Tokens    int            `json:"tokens"`
	HasWon    bool           `json:"hasWon"`
	Timeline  []TimelineCard `json:"timeline"`
	JoinedAt  time.Time      `json:"joinedAt"`
}

// TimelineCard is one accepted card on a player's timeline. Cards are kept
// ascending by year and Position always equals the card's index.
type TimelineCard struct {
	Position  int    `json:"position"`
	TrackID   string `json:"trackId"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Year      int    `json:"year"`
	IsCorrect bool   `json:"isCorrect"`
}

// LeaderboardEntry is a ranked row of the session leaderboard.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Tokens   int    `json:"tokens"`
	HasWon   bool   `json:"hasWon"`
}
