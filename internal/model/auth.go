package model

import "github.com/golang-jwt/jwt/v5"

// PlayerClaims are JWT claims for session-scoped player tokens. They only
// bind a websocket connection to a player; they are not end-user auth.
type PlayerClaims struct {
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
	jwt.RegisteredClaims
}

// JoinResponse is returned when a player joins a session.
type JoinResponse struct {
	Player *Player `json:"player"`
	Token  string  `json:"token"`
}

// CreateSessionResponse is returned when a session is created.
type CreateSessionResponse struct {
	Session      *Session `json:"session"`
	HostPlayerID string   `json:"hostPlayerId"`
	Token        string   `json:"token"`
}
