// Package app contains the game use-cases operating on domain state. It is
// transport-agnostic: the Nakama port calls in, and asynchronous results
// (timeout resolutions) flow back out through the Notifier.
package app

import (
	"context"
	"errors"
	"sort"
	"sync"

	"shogi2vs2/internal/clock"
	"shogi2vs2/internal/config"
	"shogi2vs2/internal/domain"
	"shogi2vs2/internal/kv"
	"shogi2vs2/internal/synthesis"
)

var (
	ErrGameNotFound  = errors.New("game not found")
	ErrUnknownPlayer = errors.New("player not in game")
	ErrNotYourTurn   = errors.New("not this team's turn")
	ErrGameFinished  = errors.New("game already finished")
)

// Notifier delivers events produced outside a request, such as turn
// timeouts resolved on the clock goroutine.
type Notifier interface {
	Publish(gameID string, events []Event)
}

type gameEntry struct {
	mu    sync.Mutex
	game  *domain.Game
	seats [4]string // slots 0,1 FIRST; slots 2,3 SECOND
}

func (e *gameEntry) seatOf(userID string) (int, bool) {
	for i, id := range e.seats {
		if id == userID {
			return i, true
		}
	}
	return 0, false
}

func teamForSeat(slot int) domain.Team {
	if slot < 2 {
		return domain.TeamFirst
	}
	return domain.TeamSecond
}

// Service contains the use-cases for running 2v2 matches.
type Service struct {
	cfg      *config.GameConfig
	synth    *synthesis.Synthesizer
	clock    *clock.TurnClock
	notifier Notifier

	mu    sync.Mutex
	games map[string]*gameEntry
}

// NewService wires the synthesizer and turn clock over the given store.
// The clock's expiry callback resolves the timed-out turn and publishes
// the resulting events through notifier.
func NewService(store kv.Store, cfg *config.GameConfig, notifier Notifier) *Service {
	s := &Service{
		cfg:      cfg,
		notifier: notifier,
		synth:    synthesis.New(store, cfg.SynthesisTTL()),
		games:    make(map[string]*gameEntry),
	}
	s.clock = clock.New(cfg.TurnDuration(), s.handleTimeout)
	return s
}

func (s *Service) entry(gameID string) (*gameEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.games[gameID]
	return e, ok
}

func (s *Service) remove(gameID string) {
	s.mu.Lock()
	delete(s.games, gameID)
	s.mu.Unlock()
}

// CreateGame starts a match for four seated users and arms the first
// team's turn timer. Slot order decides team membership and the order in
// which simultaneous teammate actions apply.
func (s *Service) CreateGame(gameID string, userIDs [4]string) ([]Event, error) {
	players := make([]*domain.Player, 0, 4)
	teams := map[string][]string{
		domain.TeamFirst.String():  nil,
		domain.TeamSecond.String(): nil,
	}
	for slot, userID := range userIDs {
		team := teamForSeat(slot)
		players = append(players, domain.NewPlayer(userID, team))
		teams[team.String()] = append(teams[team.String()], userID)
	}

	board := domain.NewStandardBoard()
	turns := domain.NewTurnManager(domain.TeamFirst, s.cfg.TurnDuration())
	game := domain.NewGame(gameID, players, board, domain.TeamFirst, turns)

	e := &gameEntry{game: game, seats: userIDs}
	s.mu.Lock()
	s.games[gameID] = e
	s.mu.Unlock()

	game.TurnManager().StartTurn()
	s.clock.Arm(gameID, game.TurnNumber())

	return []Event{{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			GameID:          gameID,
			Teams:           teams,
			FirstTurnTeamID: domain.TeamFirst.String(),
			TurnSeconds:     s.cfg.TurnDurationSeconds,
			Pieces:          piecePayloads(board),
		},
	}}, nil
}

// SubmitAction accepts one player's action for the current turn. The first
// teammate's action buffers and produces a waiting notice; the second
// releases the pair and resolves the turn.
func (s *Service) SubmitAction(ctx context.Context, gameID, userID string, action synthesis.Action) ([]Event, error) {
	e, ok := s.entry(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}

	e.mu.Lock()
	if e.game.Status() == domain.StatusFinished {
		e.mu.Unlock()
		return nil, ErrGameFinished
	}
	slot, ok := e.seatOf(userID)
	if !ok {
		e.mu.Unlock()
		return nil, ErrUnknownPlayer
	}
	team := teamForSeat(slot)
	if team != e.game.CurrentTeam() {
		e.mu.Unlock()
		return nil, ErrNotYourTurn
	}
	turn := e.game.TurnNumber()
	e.mu.Unlock()

	action.UserID = userID
	action.TeamID = team.String()

	// Store I/O runs without the entry lock; teammates serialize on the
	// synthesizer's per-team lock instead.
	released, ok, err := s.synth.Submit(ctx, gameID, team.String(), action)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Event{{
			Kind: EventWaitingPartner,
			Payload: WaitingPartnerPayload{
				GameID: gameID,
				TeamID: team.String(),
				UserID: userID,
			},
		}}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.game.Status() == domain.StatusFinished {
		return nil, ErrGameFinished
	}
	// A timeout can force this turn between the release and here; the pair
	// then belongs to a turn that already resolved and must not apply.
	if e.game.TurnNumber() != turn {
		return nil, ErrNotYourTurn
	}

	s.clock.Cancel(gameID)
	return s.executeTurn(e, gameID, team, released, false), nil
}

// SetConnected flips a player's connection flag on presence changes. A
// disconnected player's team still runs on the turn clock; the timeout
// forcing path resolves turns their input never completes.
func (s *Service) SetConnected(gameID, userID string, connected bool) error {
	e, ok := s.entry(gameID)
	if !ok {
		return ErrGameNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	player, ok := e.game.Player(userID)
	if !ok {
		return ErrUnknownPlayer
	}
	player.Connected = connected
	return nil
}

// Snapshot rebuilds the start-of-game event against the current board, for
// reconnecting players.
func (s *Service) Snapshot(gameID string) ([]Event, error) {
	e, ok := s.entry(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	teams := map[string][]string{
		domain.TeamFirst.String():  nil,
		domain.TeamSecond.String(): nil,
	}
	for slot, userID := range e.seats {
		team := teamForSeat(slot)
		teams[team.String()] = append(teams[team.String()], userID)
	}

	return []Event{{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			GameID:          gameID,
			Teams:           teams,
			FirstTurnTeamID: e.game.CurrentTeam().String(),
			TurnSeconds:     s.cfg.TurnDurationSeconds,
			Pieces:          piecePayloads(e.game.Board()),
		},
	}}, nil
}

// Resign ends the match in favor of the resigning player's opponents.
func (s *Service) Resign(ctx context.Context, gameID, userID string) ([]Event, error) {
	e, ok := s.entry(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.game.Status() == domain.StatusFinished {
		return nil, ErrGameFinished
	}
	player, ok := e.game.Player(userID)
	if !ok {
		return nil, ErrUnknownPlayer
	}

	e.game.HandleResign(player)

	winner, _ := e.game.Winner()
	s.clock.Forget(gameID)
	_ = s.synth.Discard(ctx, gameID, domain.TeamFirst.String(), domain.TeamSecond.String())
	s.remove(gameID)

	return []Event{{
		Kind: EventGameEnded,
		Payload: GameEndedPayload{
			GameID:       gameID,
			WinnerTeamID: winner.String(),
			Reason:       EndReasonResignation,
		},
	}}, nil
}

// Drop tears down all state for a game without declaring a winner, for
// match termination.
func (s *Service) Drop(ctx context.Context, gameID string) {
	s.clock.Forget(gameID)
	_ = s.synth.Discard(ctx, gameID, domain.TeamFirst.String(), domain.TeamSecond.String())
	s.remove(gameID)
}

// handleTimeout runs on the clock goroutine when a turn expires. Whatever
// the current team managed to buffer is force-released and applied; an
// empty buffer forfeits the turn.
//
// The clock's epoch check alone cannot rule out a callback that fired
// concurrently with a completing submission, so the armed turn number is
// re-validated under the entry lock. A stale callback must not touch the
// following turn.
func (s *Service) handleTimeout(gameID string, turn int) {
	e, ok := s.entry(gameID)
	if !ok {
		return
	}

	e.mu.Lock()
	if e.game.Status() == domain.StatusFinished || e.game.TurnNumber() != turn {
		e.mu.Unlock()
		return
	}
	team := e.game.CurrentTeam()
	actions, err := s.synth.ForceRelease(context.Background(), gameID, team.String())
	if err != nil {
		actions = nil
	}
	events := s.executeTurn(e, gameID, team, actions, true)
	e.mu.Unlock()

	s.notifier.Publish(gameID, events)
}

// executeTurn applies a released action pair, resolves end-of-turn effects
// and either finishes the game or advances to the next team. Caller holds
// the entry lock.
func (s *Service) executeTurn(e *gameEntry, gameID string, team domain.Team, actions []synthesis.Action, timedOut bool) []Event {
	sortBySeat(e, actions)

	results := make([]ActionResultPayload, 0, len(actions))
	for _, a := range actions {
		results = append(results, applyAction(e.game, a))
	}

	outcome := e.game.HandleTurnEnd()
	for i := range results {
		reconcileDrop(&results[i], outcome)
	}

	resolved := TurnResolvedPayload{
		GameID:     gameID,
		TeamID:     team.String(),
		TurnNumber: e.game.TurnNumber(),
		TimedOut:   timedOut,
		Actions:    results,
		Promoted:   promotedPayloads(e.game, outcome),
	}

	if winner, ok := e.game.Winner(); ok {
		s.clock.Forget(gameID)
		_ = s.synth.Discard(context.Background(), gameID, domain.TeamFirst.String(), domain.TeamSecond.String())
		s.remove(gameID)
		return []Event{
			{Kind: EventTurnResolved, Payload: resolved},
			{Kind: EventGameEnded, Payload: GameEndedPayload{
				GameID:       gameID,
				WinnerTeamID: winner.String(),
				Reason:       EndReasonKingCaptured,
			}},
		}
	}

	e.game.AdvanceTurn()
	resolved.NextTurnTeamID = e.game.CurrentTeam().String()
	s.clock.Arm(gameID, e.game.TurnNumber())

	return []Event{{Kind: EventTurnResolved, Payload: resolved}}
}

// sortBySeat orders a released pair by seat slot so the resolution order
// is deterministic regardless of submission order.
func sortBySeat(e *gameEntry, actions []synthesis.Action) {
	sort.SliceStable(actions, func(i, j int) bool {
		si, _ := e.seatOf(actions[i].UserID)
		sj, _ := e.seatOf(actions[j].UserID)
		return si < sj
	})
}

func applyAction(game *domain.Game, a synthesis.Action) ActionResultPayload {
	result := ActionResultPayload{
		Type:      string(a.Kind),
		UserID:    a.UserID,
		PieceType: a.PieceType,
		Promote:   a.Promote,
	}

	player, ok := game.Player(a.UserID)
	if !ok {
		return result
	}
	pt, ok := domain.ParsePieceType(a.PieceType)
	if !ok {
		return result
	}

	switch a.Kind {
	case synthesis.ActionMove:
		result.PieceID = a.PieceID
		piece, found := game.Board().PieceByID(a.PieceID, pt)
		if !found {
			return result
		}
		dirs := make([]domain.Direction, 0, len(a.Directions))
		for _, name := range a.Directions {
			d, ok := domain.ParseDirection(name)
			if !ok {
				return result
			}
			dirs = append(dirs, d)
		}
		moved, ok := game.ApplyMove(domain.PlayerMove{
			Player:     player,
			Piece:      piece,
			Directions: dirs,
			Promote:    a.Promote,
			At:         a.At,
		})
		if !ok {
			return result
		}
		result.Success = true
		for _, d := range moved.AppliedDirections {
			result.Directions = append(result.Directions, d.String())
		}
		for _, c := range moved.Captured {
			result.Captured = append(result.Captured, PiecePayload{
				PieceID:   c.ID(),
				PieceType: c.Type().String(),
				TeamID:    c.Team().String(),
			})
		}

	case synthesis.ActionDrop:
		result.X = a.X
		result.Y = a.Y
		dropped := game.ApplyDrop(domain.PlayerDropPiece{
			Player:    player,
			PieceType: pt,
			Position:  domain.Position{X: a.X, Y: a.Y},
			At:        a.At,
		})
		result.Success = dropped.Success
	}

	return result
}

// reconcileDrop downgrades a provisionally accepted drop whose piece type
// turned out to be missing from the hand at end of turn.
func reconcileDrop(res *ActionResultPayload, outcome domain.TurnOutcome) {
	if res.Type != string(synthesis.ActionDrop) || !res.Success {
		return
	}
	for _, dr := range outcome.DropResults {
		if dr.Player != nil && dr.Player.ID == res.UserID &&
			dr.Position.X == res.X && dr.Position.Y == res.Y {
			return
		}
	}
	res.Success = false
}

func promotedPayloads(game *domain.Game, outcome domain.TurnOutcome) []PiecePayload {
	if len(outcome.Promoted) == 0 {
		return nil
	}
	out := make([]PiecePayload, 0, len(outcome.Promoted))
	for _, p := range outcome.Promoted {
		payload := PiecePayload{
			PieceID:   p.ID(),
			PieceType: p.Type().String(),
			TeamID:    p.Team().String(),
			Promoted:  p.IsPromoted(),
		}
		if pos, ok := game.Board().Find(p); ok {
			payload.X = pos.X
			payload.Y = pos.Y
		}
		out = append(out, payload)
	}
	return out
}

func piecePayloads(board *domain.Board) []PiecePayload {
	pieces := board.AllPieces()
	out := make([]PiecePayload, 0, len(pieces))
	for _, p := range pieces {
		pos, ok := board.Find(p)
		if !ok {
			continue
		}
		out = append(out, PiecePayload{
			PieceID:   p.ID(),
			PieceType: p.Type().String(),
			TeamID:    p.Team().String(),
			Promoted:  p.IsPromoted(),
			X:         pos.X,
			Y:         pos.Y,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PieceType != out[j].PieceType {
			return out[i].PieceType < out[j].PieceType
		}
		return out[i].PieceID < out[j].PieceID
	})
	return out
}
