package model

import "fmt"

// PlacementRequest asks to place the active track at a timeline position.
// Title/artist/year guesses are only consulted for the PRO/EXPERT token
// bonus; placement itself depends on the position alone.
type PlacementRequest struct {
	SessionID   string `json:"sessionId"`
	PlayerID    string `json:"playerId"`
	Position    int    `json:"position"`
	TitleGuess  string `json:"titleGuess,omitempty"`
	ArtistGuess string `json:"artistGuess,omitempty"`
	YearGuess   int    `json:"yearGuess,omitempty"`
}

// PlacementResult reports a placement attempt. The solution fields are
// always revealed; Timeline is empty when the placement was wrong.
type PlacementResult struct {
	Correct       bool           `json:"correct"`
	NewScore      int            `json:"newScore"`
	WonGame       bool           `json:"wonGame"`
	EarnedToken   bool           `json:"earnedToken"`
	NewTokenCount int            `json:"newTokenCount"`
	CorrectTitle  string         `json:"correctTitle"`
	CorrectArtist string         `json:"correctArtist"`
	CorrectYear   int            `json:"correctYear"`
	Timeline      []TimelineCard `json:"timeline"`
}

// TokenActionType tags the three token-spending actions.
type TokenActionType string

const (
	ActionSkipSong  TokenActionType = "SKIP_SONG"
	ActionStealCard TokenActionType = "STEAL_CARD"
	ActionBuyCard   TokenActionType = "BUY_CARD"
)

// ParseTokenActionType validates an action string coming from a request.
func ParseTokenActionType(s string) (TokenActionType, error) {
	switch TokenActionType(s) {
	case ActionSkipSong, ActionStealCard, ActionBuyCard:
		return TokenActionType(s), nil
	}
	return "", fmt.Errorf("unknown token action %q", s)
}

// TokenActionRequest carries one token action and its optional fields.
// Pointers distinguish "absent" from zero values for steal targets and the
// EXPERT year guess.
type TokenActionRequest struct {
	SessionID      string          `json:"sessionId"`
	PlayerID       string          `json:"playerId"`
	Action         TokenActionType `json:"actionType"`
	TargetPlayerID string          `json:"targetPlayerId,omitempty"`
	TargetPosition *int            `json:"targetPosition,omitempty"`
	TitleGuess     string          `json:"titleGuess,omitempty"`
	ArtistGuess    string          `json:"artistGuess,omitempty"`
	YearGuess      *int            `json:"yearGuess,omitempty"`
}

// TokenActionResult is always well-formed: precondition failures come back
// with Success=false and the unchanged token count, never as an error.
type TokenActionResult struct {
	Success       bool            `json:"success"`
	Action        TokenActionType `json:"actionType"`
	Message       string          `json:"message"`
	NewTokenCount int             `json:"newTokenCount"`
	Card          *TimelineCard   `json:"card,omitempty"`
	Timeline      []TimelineCard  `json:"timeline,omitempty"`
}

// GuessRequest is a free guess against the active track.
type GuessRequest struct {
	SessionID   string `json:"sessionId"`
	PlayerID    string `json:"playerId"`
	TitleGuess  string `json:"titleGuess,omitempty"`
	ArtistGuess string `json:"artistGuess,omitempty"`
	DecadeGuess string `json:"decadeGuess,omitempty"`
}

// GuessResult reveals the solution and which fields matched. Guessing never
// changes the score; progress comes from timeline placement only.
type GuessResult struct {
	CorrectTitle  bool           `json:"correctTitle"`
	CorrectArtist bool           `json:"correctArtist"`
	CorrectDecade bool           `json:"correctDecade"`
	Solution      SolutionReveal `json:"solution"`
}

// SolutionReveal is the answer sheet for the active track.
type SolutionReveal struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Decade string `json:"decade"`
	Year   int    `json:"year"`
}
