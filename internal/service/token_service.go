package service

import (
	"fmt"
	"strings"

	"beatline/internal/match"
	"beatline/internal/model"
	"beatline/internal/store"
	"beatline/internal/timeline"
)

// TokenService executes the three token-spending actions. Precondition
// failures come back as a result with Success=false and the player's
// unchanged token count, never as an error; only unknown ids error out.
type TokenService struct{}

// NewTokenService creates a new token service
func NewTokenService() *TokenService {
	return &TokenService{}
}

// Apply runs one token action against session state. The caller must hold
// the session lock (it runs inside a store Update).
func (s *TokenService) Apply(st *store.State, req *model.TokenActionRequest) (*model.TokenActionResult, error) {
	player, ok := st.Player(req.PlayerID)
	if !ok {
		return nil, store.ErrPlayerNotFound
	}

	switch req.Action {
	case model.ActionSkipSong:
		return s.skip(st, player), nil
	case model.ActionStealCard:
		return s.steal(st, player, req), nil
	case model.ActionBuyCard:
		return s.buy(st, player), nil
	}
	return nil, fmt.Errorf("unknown token action %q", req.Action)
}

func failure(action model.TokenActionType, tokens int, message string) *model.TokenActionResult {
	return &model.TokenActionResult{
		Success:       false,
		Action:        action,
		Message:       message,
		NewTokenCount: tokens,
	}
}

// skip debits one token and advances the shared track cursor. A failed
// advance refunds the token.
func (s *TokenService) skip(st *store.State, player *model.Player) *model.TokenActionResult {
	if player.Tokens < 1 {
		return failure(model.ActionSkipSong, player.Tokens, "Not enough tokens: skipping costs 1 token")
	}

	player.Tokens--
	advance, err := st.AdvanceTrack()
	if err != nil {
		player.Tokens++
		return failure(model.ActionSkipSong, player.Tokens, "Cannot skip: no tracks loaded")
	}

	message := "Song skipped"
	if advance.Finished {
		message = "Song skipped, the track queue is exhausted"
	}
	return &model.TokenActionResult{
		Success:       true,
		Action:        model.ActionSkipSong,
		Message:       message,
		NewTokenCount: player.Tokens,
	}
}

// steal debits one token once input validation passes, regardless of guess
// outcome. A correct guess moves the targeted card from the target's
// timeline to the thief's, appended at the end without re-sorting.
func (s *TokenService) steal(st *store.State, thief *model.Player, req *model.TokenActionRequest) *model.TokenActionResult {
	solution, err := st.ActiveSolution()
	if err != nil {
		return failure(model.ActionStealCard, thief.Tokens, "No active track to guess")
	}
	if thief.Tokens < 1 {
		return failure(model.ActionStealCard, thief.Tokens, "Not enough tokens: stealing costs 1 token")
	}

	target, ok := st.Player(req.TargetPlayerID)
	if !ok {
		return failure(model.ActionStealCard, thief.Tokens, "Invalid steal target: player not in session")
	}
	if req.TargetPosition == nil || *req.TargetPosition < 0 || *req.TargetPosition >= len(target.Timeline) {
		return failure(model.ActionStealCard, thief.Tokens, "Invalid steal target: no card at that position")
	}
	if strings.TrimSpace(req.TitleGuess) == "" || strings.TrimSpace(req.ArtistGuess) == "" {
		return failure(model.ActionStealCard, thief.Tokens, "Stealing requires both a title and an artist guess")
	}
	needYear := st.Session.Mode == model.ModeExpert
	if needYear && req.YearGuess == nil {
		return failure(model.ActionStealCard, thief.Tokens, "Expert mode stealing requires a year guess")
	}

	// Validation passed: the token is spent from here on, win or lose.
	thief.Tokens--

	matched := match.Fuzzy(req.TitleGuess, solution.Title) && match.Fuzzy(req.ArtistGuess, solution.Artist)
	if needYear {
		matched = matched && *req.YearGuess == solution.Year
	}
	if !matched {
		return failure(model.ActionStealCard, thief.Tokens, "Wrong guess, the token is spent")
	}

	card, rest, _ := timeline.RemoveAt(target.Timeline, *req.TargetPosition)
	target.Timeline = rest
	target.Score = len(target.Timeline)

	thief.Timeline = timeline.Append(thief.Timeline, card)
	thief.Score = len(thief.Timeline)

	stolen := thief.Timeline[len(thief.Timeline)-1]
	return &model.TokenActionResult{
		Success:       true,
		Action:        model.ActionStealCard,
		Message:       fmt.Sprintf("Card stolen from %s", target.Name),
		NewTokenCount: thief.Tokens,
		Card:          &stolen,
		Timeline:      timeline.Snapshot(thief.Timeline),
	}
}

// buy debits three tokens, moves the track at the shared cursor into the
// buyer's timeline at its year-sorted index and consumes the cursor entry
// for everyone in the session.
func (s *TokenService) buy(st *store.State, buyer *model.Player) *model.TokenActionResult {
	if buyer.Tokens < 3 {
		return failure(model.ActionBuyCard, buyer.Tokens, "Not enough tokens: buying costs 3 tokens")
	}
	cursor := st.Session.CurrentTrackIndex
	if cursor >= len(st.Queue) {
		return failure(model.ActionBuyCard, buyer.Tokens, "No tracks left to buy")
	}

	buyer.Tokens -= 3

	track := st.Queue[cursor]
	card := model.TimelineCard{
		TrackID:   track.ID,
		Title:     track.Title,
		Artist:    track.Artist,
		Year:      track.Year,
		IsCorrect: true,
	}
	buyer.Timeline = timeline.InsertAt(buyer.Timeline, card, timeline.SortedIndex(buyer.Timeline, track.Year))
	buyer.Score = len(buyer.Timeline)

	// The purchase consumes the cursor entry for the whole session.
	st.Session.CurrentTrackIndex++
	if st.Session.CurrentTrackIndex >= len(st.Queue) {
		st.Finish()
	} else {
		st.Solution = &st.Queue[st.Session.CurrentTrackIndex]
	}

	bought := findCard(buyer.Timeline, track.ID)
	return &model.TokenActionResult{
		Success:       true,
		Action:        model.ActionBuyCard,
		Message:       fmt.Sprintf("Bought %s", track.Title),
		NewTokenCount: buyer.Tokens,
		Card:          bought,
		Timeline:      timeline.Snapshot(buyer.Timeline),
	}
}

func findCard(cards []model.TimelineCard, trackID string) *model.TimelineCard {
	for i := range cards {
		if cards[i].TrackID == trackID {
			c := cards[i]
			return &c
		}
	}
	return nil
}
