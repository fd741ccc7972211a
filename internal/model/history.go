package model

import "time"

// MatchRecord is the archived outcome of a finished session.
type MatchRecord struct {
	SessionID   string             `json:"sessionId" bson:"sessionId"`
	HostName    string             `json:"hostName" bson:"hostName"`
	Mode        GameMode           `json:"gameMode" bson:"gameMode"`
	PlaylistID  string             `json:"playlistId,omitempty" bson:"playlistId,omitempty"`
	WinnerID    string             `json:"winnerId,omitempty" bson:"winnerId,omitempty"`
	WinnerName  string             `json:"winnerName,omitempty" bson:"winnerName,omitempty"`
	FinalScores []LeaderboardEntry `json:"finalScores" bson:"finalScores"`
	Rounds      int                `json:"rounds" bson:"rounds"`
	StartedAt   *time.Time         `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	FinishedAt  time.Time          `json:"finishedAt" bson:"finishedAt"`
}
