package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"beatline/internal/cache"
	"beatline/internal/match"
	"beatline/internal/model"
	"beatline/internal/repository"
	"beatline/internal/store"
	"beatline/internal/timeline"
)

var (
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrGameNotJoinable    = errors.New("session is not accepting players")
)

// Event names pushed through the notifier.
const (
	EventPlayerJoined      = "player_joined"
	EventPlayerLeft        = "player_left"
	EventSessionClosed     = "session_closed"
	EventPlaylistLoaded    = "playlist_loaded"
	EventGameStarted       = "game_started"
	EventNewTrack          = "new_track"
	EventCardPlaced        = "card_placed"
	EventGameWon           = "game_won"
	EventGameFinished      = "game_finished"
	EventTokenActionUsed   = "token_action_used"
	EventLeaderboardUpdate = "leaderboard_update"
)

// GameService is the façade the transport layer talks to. It sequences
// store mutations, timeline checks and token actions, fires notifier
// events and mirrors results into Redis and MongoDB.
type GameService struct {
	sessions store.SessionStore
	provider store.TrackProvider
	tokens   *TokenService
	authSvc  *AuthService
	lbCache  cache.LeaderboardCache
	history  repository.HistoryRepo
}

// NewGameService creates a new game service
func NewGameService(
	sessions store.SessionStore,
	provider store.TrackProvider,
	tokens *TokenService,
	authSvc *AuthService,
	lbCache cache.LeaderboardCache,
	history repository.HistoryRepo,
) *GameService {
	return &GameService{
		sessions: sessions,
		provider: provider,
		tokens:   tokens,
		authSvc:  authSvc,
		lbCache:  lbCache,
		history:  history,
	}
}

// CreateSession creates a session with the caller as host and returns the
// host's player token.
func (s *GameService) CreateSession(hostName, modeStr, playlistID string) (*model.CreateSessionResponse, error) {
	mode, err := model.ParseGameMode(modeStr)
	if err != nil {
		return nil, err
	}

	session, host := s.sessions.Create(hostName, mode, playlistID)
	token, err := s.authSvc.GeneratePlayerToken(session.ID, host.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign player token: %w", err)
	}

	log.Printf("[Game] Session %s created by %s (mode=%s)", session.ID, hostName, mode)
	return &model.CreateSessionResponse{
		Session:      session,
		HostPlayerID: host.ID,
		Token:        token,
	}, nil
}

// JoinSession adds a player to a waiting session.
func (s *GameService) JoinSession(sessionID, name string) (*model.JoinResponse, error) {
	var joined model.Player
	err := s.sessions.Update(sessionID, func(st *store.State) error {
		if st.Session.Status != model.SessionWaiting {
			return ErrGameNotJoinable
		}
		p := st.AddPlayer(name)
		joined = *p
		st.Emit(EventPlayerJoined, map[string]any{
			"player":      p,
			"playerCount": len(st.Players),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.authSvc.GeneratePlayerToken(sessionID, joined.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign player token: %w", err)
	}
	return &model.JoinResponse{Player: &joined, Token: token}, nil
}

// LeaveSession removes a player. The host leaving, or the last player
// leaving, closes the whole session.
func (s *GameService) LeaveSession(sessionID, playerID string) error {
	closed := false
	err := s.sessions.Update(sessionID, func(st *store.State) error {
		removed, wasHost := st.RemovePlayer(playerID)
		if !removed {
			return store.ErrPlayerNotFound
		}
		st.Emit(EventPlayerLeft, map[string]any{
			"playerId":    playerID,
			"playerCount": len(st.Players),
		})
		if wasHost || len(st.Players) == 0 {
			closed = true
			st.Emit(EventSessionClosed, map[string]any{"sessionId": sessionID})
			st.Delete()
		}
		return nil
	})
	if err != nil {
		return err
	}

	if closed && s.lbCache != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.lbCache.Clear(ctx, sessionID); err != nil {
				log.Printf("[Game] WARNING: failed to clear leaderboard cache for %s: %v", sessionID, err)
			}
		}()
	}
	return nil
}

// LoadPlaylist pulls a playlist from the provider into the session queue.
func (s *GameService) LoadPlaylist(ctx context.Context, sessionID, playlistID string) (int, error) {
	count, err := s.sessions.LoadPlaylist(ctx, sessionID, playlistID)
	if err != nil {
		return 0, err
	}

	err = s.sessions.Update(sessionID, func(st *store.State) error {
		st.Emit(EventPlaylistLoaded, map[string]any{
			"playlistId": playlistID,
			"trackCount": count,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("[Game] Session %s loaded playlist %s (%d tracks)", sessionID, playlistID, count)
	return count, nil
}

// StartGame deals start cards and opens play.
func (s *GameService) StartGame(sessionID string) (*store.StartResult, error) {
	var result *store.StartResult
	var lb []model.LeaderboardEntry
	err := s.sessions.Update(sessionID, func(st *store.State) error {
		if st.Session.Status != model.SessionWaiting {
			return ErrGameAlreadyStarted
		}
		var startErr error
		result, startErr = st.StartGame()
		if startErr != nil {
			return startErr
		}
		lb = st.Leaderboard()
		st.Emit(EventGameStarted, map[string]any{
			"totalTracks":       result.TotalTracks,
			"startCards":        result.StartCards,
			"currentPlayerTurn": st.Session.CurrentPlayerTurn,
			"playback":          result.Playback,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mirrorScores(sessionID, lb)
	log.Printf("[Game] Session %s started (%d tracks)", sessionID, result.TotalTracks)
	return result, nil
}

// GetCurrentTrack returns the playable view of the active track. Repeated
// calls without an advance return the same data.
func (s *GameService) GetCurrentTrack(sessionID string) (*model.TrackPlayback, error) {
	var playback *model.TrackPlayback
	err := s.sessions.View(sessionID, func(st *store.State) error {
		var pbErr error
		playback, pbErr = st.Playback()
		return pbErr
	})
	if err != nil {
		return nil, err
	}
	return playback, nil
}

// NextTrack advances the shared cursor; exhausting the queue finishes the
// session.
func (s *GameService) NextTrack(sessionID string) (*store.AdvanceResult, error) {
	var result *store.AdvanceResult
	var record *model.MatchRecord
	err := s.sessions.Update(sessionID, func(st *store.State) error {
		var advErr error
		result, advErr = st.AdvanceTrack()
		if advErr != nil {
			return advErr
		}
		if result.Finished {
			st.Emit(EventGameFinished, map[string]any{"leaderboard": result.Leaderboard})
			record = buildMatchRecord(st)
		} else {
			st.Emit(EventNewTrack, map[string]any{
				"playback":          result.Playback,
				"currentPlayerTurn": st.Session.CurrentPlayerTurn,
				"roundNumber":       st.Session.RoundNumber,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.archiveMatch(record)
	return result, nil
}

// SubmitPlacement resolves a place-card attempt for the active track.
func (s *GameService) SubmitPlacement(req *model.PlacementRequest) (*model.PlacementResult, error) {
	var result *model.PlacementResult
	var lb []model.LeaderboardEntry
	var record *model.MatchRecord
	err := s.sessions.Update(req.SessionID, func(st *store.State) error {
		solution, err := st.ActiveSolution()
		if err != nil {
			return err
		}
		player, ok := st.Player(req.PlayerID)
		if !ok {
			return store.ErrPlayerNotFound
		}

		correct := timeline.CheckPosition(player.Timeline, req.Position, solution.Year)

		earned := false
		if correct && (st.Session.Mode == model.ModePro || st.Session.Mode == model.ModeExpert) {
			earned = match.Fuzzy(req.TitleGuess, solution.Title) && match.Fuzzy(req.ArtistGuess, solution.Artist)
			if st.Session.Mode == model.ModeExpert {
				earned = earned && req.YearGuess == solution.Year
			}
			if earned {
				player.Tokens++
			}
		}

		result = &model.PlacementResult{
			Correct:       correct,
			NewScore:      player.Score,
			EarnedToken:   earned,
			NewTokenCount: player.Tokens,
			CorrectTitle:  solution.Title,
			CorrectArtist: solution.Artist,
			CorrectYear:   solution.Year,
			Timeline:      []model.TimelineCard{},
		}

		if correct {
			card := model.TimelineCard{
				TrackID:   solution.ID,
				Title:     solution.Title,
				Artist:    solution.Artist,
				Year:      solution.Year,
				IsCorrect: true,
			}
			player.Timeline = timeline.InsertAt(player.Timeline, card, req.Position)
			player.Score = len(player.Timeline)
			result.NewScore = player.Score
			result.Timeline = timeline.Snapshot(player.Timeline)

			if player.Score >= st.Session.WinCondition {
				player.HasWon = true
				result.WonGame = true
				st.Finish()
			}
			lb = st.Leaderboard()
		}

		st.Emit(EventCardPlaced, map[string]any{
			"playerId": req.PlayerID,
			"position": req.Position,
			"correct":  correct,
			"newScore": result.NewScore,
		})
		if correct {
			st.Emit(EventLeaderboardUpdate, map[string]any{"leaderboard": lb})
		}
		if result.WonGame {
			st.Emit(EventGameWon, map[string]any{
				"winnerId":    req.PlayerID,
				"leaderboard": lb,
			})
			record = buildMatchRecord(st)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mirrorScores(req.SessionID, lb)
	s.archiveMatch(record)
	return result, nil
}

// CheckGuess evaluates a free-text guess against the active track and
// reveals the solution. Guessing never changes anyone's score.
func (s *GameService) CheckGuess(req *model.GuessRequest) (*model.GuessResult, error) {
	var result *model.GuessResult
	err := s.sessions.View(req.SessionID, func(st *store.State) error {
		solution, err := st.ActiveSolution()
		if err != nil {
			return err
		}
		if _, ok := st.Player(req.PlayerID); !ok {
			return store.ErrPlayerNotFound
		}

		result = &model.GuessResult{
			CorrectTitle:  match.Fuzzy(req.TitleGuess, solution.Title),
			CorrectArtist: match.Fuzzy(req.ArtistGuess, solution.Artist),
			CorrectDecade: match.Decade(req.DecadeGuess, solution.Decade),
			Solution: model.SolutionReveal{
				Title:  solution.Title,
				Artist: solution.Artist,
				Decade: solution.Decade,
				Year:   solution.Year,
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UseTokenAction dispatches one of the skip/steal/buy actions.
func (s *GameService) UseTokenAction(req *model.TokenActionRequest) (*model.TokenActionResult, error) {
	var result *model.TokenActionResult
	var lb []model.LeaderboardEntry
	var record *model.MatchRecord
	err := s.sessions.Update(req.SessionID, func(st *store.State) error {
		var actErr error
		result, actErr = s.tokens.Apply(st, req)
		if actErr != nil {
			return actErr
		}

		st.Emit(EventTokenActionUsed, map[string]any{
			"playerId":   req.PlayerID,
			"actionType": req.Action,
			"success":    result.Success,
		})
		if !result.Success {
			return nil
		}

		lb = st.Leaderboard()
		switch req.Action {
		case model.ActionStealCard:
			st.Emit(EventLeaderboardUpdate, map[string]any{"leaderboard": lb})
		case model.ActionSkipSong, model.ActionBuyCard:
			if st.Session.Status == model.SessionFinished {
				st.Emit(EventGameFinished, map[string]any{"leaderboard": lb})
				record = buildMatchRecord(st)
			} else if playback, pbErr := st.Playback(); pbErr == nil {
				st.Emit(EventNewTrack, map[string]any{
					"playback":          playback,
					"currentPlayerTurn": st.Session.CurrentPlayerTurn,
					"roundNumber":       st.Session.RoundNumber,
				})
			}
			if req.Action == model.ActionBuyCard {
				st.Emit(EventLeaderboardUpdate, map[string]any{"leaderboard": lb})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mirrorScores(req.SessionID, lb)
	s.archiveMatch(record)
	return result, nil
}

// Leaderboard returns the live standings.
func (s *GameService) Leaderboard(sessionID string) ([]model.LeaderboardEntry, error) {
	var lb []model.LeaderboardEntry
	err := s.sessions.View(sessionID, func(st *store.State) error {
		lb = st.Leaderboard()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lb, nil
}

// Timeline returns a snapshot of one player's timeline.
func (s *GameService) Timeline(sessionID, playerID string) ([]model.TimelineCard, error) {
	var cards []model.TimelineCard
	err := s.sessions.View(sessionID, func(st *store.State) error {
		p, ok := st.Player(playerID)
		if !ok {
			return store.ErrPlayerNotFound
		}
		cards = timeline.Snapshot(p.Timeline)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// SessionPlayers returns copies of the session's players in join order.
func (s *GameService) SessionPlayers(sessionID string) ([]model.Player, error) {
	var players []model.Player
	err := s.sessions.View(sessionID, func(st *store.State) error {
		players = make([]model.Player, len(st.Players))
		for i, p := range st.Players {
			players[i] = *p
			players[i].Timeline = timeline.Snapshot(p.Timeline)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return players, nil
}

// SessionStatus returns the polling view of a session.
func (s *GameService) SessionStatus(sessionID string) (*model.SessionStatusInfo, error) {
	var info *model.SessionStatusInfo
	err := s.sessions.View(sessionID, func(st *store.State) error {
		info = st.StatusInfo()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// LobbyList returns discoverable waiting sessions.
func (s *GameService) LobbyList() []model.LobbyInfo {
	return s.sessions.ListWaiting()
}

// SearchTracks proxies a catalog search to the track provider.
func (s *GameService) SearchTracks(ctx context.Context, query string, limit int) ([]model.Track, error) {
	return s.provider.Search(ctx, query, limit)
}

// RecentMatches lists archived finished matches, newest first.
func (s *GameService) RecentMatches(ctx context.Context, limit int) ([]model.MatchRecord, error) {
	if s.history == nil {
		return []model.MatchRecord{}, nil
	}
	return s.history.ListRecent(ctx, limit)
}

// mirrorScores writes the leaderboard through to Redis in the background.
func (s *GameService) mirrorScores(sessionID string, lb []model.LeaderboardEntry) {
	if s.lbCache == nil || len(lb) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, entry := range lb {
			if err := s.lbCache.UpdateScore(ctx, sessionID, entry.PlayerID, entry.Score); err != nil {
				log.Printf("[Game] WARNING: failed to mirror score for %s/%s: %v", sessionID, entry.PlayerID, err)
				return
			}
		}
	}()
}

// archiveMatch persists a finished match record in the background.
func (s *GameService) archiveMatch(record *model.MatchRecord) {
	if s.history == nil || record == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.history.Save(ctx, record); err != nil {
			log.Printf("[Game] WARNING: failed to archive match %s: %v", record.SessionID, err)
		}
	}()
}

// buildMatchRecord snapshots a finished session for the archive. Must run
// under the session lock.
func buildMatchRecord(st *store.State) *model.MatchRecord {
	record := &model.MatchRecord{
		SessionID:   st.Session.ID,
		HostName:    st.Session.HostName,
		Mode:        st.Session.Mode,
		PlaylistID:  st.Session.PlaylistID,
		FinalScores: st.Leaderboard(),
		Rounds:      st.Session.RoundNumber,
		StartedAt:   st.Session.StartedAt,
		FinishedAt:  time.Now(),
	}
	for _, p := range st.Players {
		if p.HasWon {
			record.WinnerID = p.ID
			record.WinnerName = p.Name
			break
		}
	}
	return record
}
