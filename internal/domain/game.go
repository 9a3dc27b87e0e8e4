package domain

// GameStatus is the forward-only lifecycle of a match.
type GameStatus uint8

const (
	StatusWaiting GameStatus = iota
	StatusInProgress
	StatusFinished
)

func (s GameStatus) String() string {
	switch s {
	case StatusWaiting:
		return "WAITING"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Game orchestrates one match: it applies moves and drops against the
// board, defers promotion and placement to the end of the turn, and asks the
// capture bookkeeping for a winner. Advancing the turn pointer is the
// caller's job, via AdvanceTurn, once the turn has fully resolved.
//
// Game is not safe for concurrent use; callers serialize access per game.
type Game struct {
	id      string
	board   *Board
	players map[string]*Player
	turns   *TurnManager

	status    GameStatus
	winner    Team
	hasWinner bool

	pendingPromotions []*Piece
	pendingDrops      []PlayerDropPiece
	moveResults       []ApplyMoveResult
}

// NewGame starts a match with the given players and populated board. The
// game begins in progress with firstTeam to move.
func NewGame(id string, players []*Player, board *Board, firstTeam Team, turns *TurnManager) *Game {
	g := &Game{
		id:      id,
		board:   board,
		players: make(map[string]*Player, len(players)),
		turns:   turns,
		status:  StatusInProgress,
	}
	if g.turns == nil {
		g.turns = NewTurnManager(firstTeam, 0)
	}
	for _, p := range players {
		g.players[p.ID] = p
	}
	return g
}

func (g *Game) ID() string         { return g.id }
func (g *Game) Board() *Board      { return g.board }
func (g *Game) Status() GameStatus { return g.status }

// Winner reports the winning team once the match has one.
func (g *Game) Winner() (Team, bool) {
	return g.winner, g.hasWinner
}

// Player looks up a participant by user id.
func (g *Game) Player(id string) (*Player, bool) {
	p, ok := g.players[id]
	return p, ok
}

// Players returns all participants.
func (g *Game) Players() []*Player {
	out := make([]*Player, 0, len(g.players))
	for _, p := range g.players {
		out = append(out, p)
	}
	return out
}

// CurrentTeam returns the team to move.
func (g *Game) CurrentTeam() Team {
	return g.turns.CurrentTeam()
}

// TurnNumber returns the number of completed turns.
func (g *Game) TurnNumber() int {
	return g.turns.TurnNumber()
}

// TurnManager exposes the turn clock state for timeout checks.
func (g *Game) TurnManager() *TurnManager {
	return g.turns
}

// AdvanceTurn hands the move to the other team. Called by the owner once
// both the turn's actions and HandleTurnEnd have resolved.
func (g *Game) AdvanceTurn() {
	g.turns.NextTurn()
}

// ApplyMove validates and executes a move order. A rejected move leaves the
// board untouched and reports ok=false.
//
// Directions arrive in the canonical frame; legality is checked against the
// piece's rule table after translating each direction back into the piece
// team's frame. Multi-square moves must use one identical, slidable
// direction for every step. Execution walks the board one step at a time and
// stops at the first step that does not land on an empty square: a capture
// ends the move, an allied stack is re-stacked onto and ends the move, and
// falling off the board hands the piece to the opposing team.
//
// A requested promotion is only queued here; it applies at HandleTurnEnd if
// the piece's final square is inside its promotion zone.
func (g *Game) ApplyMove(move PlayerMove) (ApplyMoveResult, bool) {
	if g.status != StatusInProgress || move.Piece == nil || len(move.Directions) == 0 {
		return ApplyMoveResult{}, false
	}
	piece := move.Piece
	if !g.board.IsTopOfStack(piece) {
		return ApplyMoveResult{}, false
	}
	if !g.isLegalDirectionSequence(piece, move.Directions) {
		return ApplyMoveResult{}, false
	}

	result := ApplyMoveResult{Piece: piece, Promote: move.Promote}
steps:
	for _, dir := range move.Directions {
		pos, onBoard := g.board.Find(piece)
		if !onBoard {
			break
		}
		step := g.board.MoveOneStep(piece, dir)
		switch step.Result {
		case MoveMoved:
			result.AppliedDirections = append(result.AppliedDirections, dir)
		case MoveCaptured:
			result.AppliedDirections = append(result.AppliedDirections, dir)
			result.Captured = append(result.Captured, step.Captured...)
			break steps
		case MoveStacked:
			g.board.Stack(pos.Add(dir), piece)
			result.AppliedDirections = append(result.AppliedDirections, dir)
			break steps
		case MoveFell:
			g.board.Remove(piece)
			g.board.CapturedPieces().Capture(piece.Team().Switch(), piece)
			break steps
		}
	}

	if move.Promote {
		g.pendingPromotions = append(g.pendingPromotions, piece)
	}
	g.moveResults = append(g.moveResults, result)
	return result, true
}

func (g *Game) isLegalDirectionSequence(piece *Piece, dirs []Direction) bool {
	promoted := piece.IsPromoted()
	legal := piece.Type().MovableDirections(promoted)
	for _, dir := range dirs {
		ruleDir := dir.ForTeam(piece.Team())
		if !containsDirection(legal, ruleDir) {
			return false
		}
	}
	if len(dirs) == 1 {
		return true
	}
	// Sliding: one identical direction for every step, and the piece must
	// slide in it. No turning mid-move.
	first := dirs[0]
	for _, dir := range dirs[1:] {
		if dir != first {
			return false
		}
	}
	if !piece.Type().CanSlide(promoted) {
		return false
	}
	return piece.Type().CanSlideIn(first.ForTeam(piece.Team()), promoted)
}

// ApplyDrop validates and queues a drop order. The board is not touched
// until HandleTurnEnd; an occupied or off-board target is rejected outright.
func (g *Game) ApplyDrop(drop PlayerDropPiece) ApplyDropResult {
	result := ApplyDropResult{
		Player:    drop.Player,
		PieceType: drop.PieceType,
		Position:  drop.Position,
	}
	if g.status != StatusInProgress || drop.Player == nil {
		return result
	}
	if !g.board.InsideBoard(drop.Position) {
		return result
	}
	if _, occupied := g.board.TopPieceAt(drop.Position); occupied {
		return result
	}
	result.Success = true
	g.pendingDrops = append(g.pendingDrops, drop)
	return result
}

// HandleTurnEnd resolves everything deferred during the turn and returns
// the accumulated results, clearing them for the next turn.
//
// Order matters: the winner check comes first so a king captured mid-turn
// finishes the match, then queued promotions apply to pieces whose final
// square is inside their zone, then queued drops pull pieces from hands --
// a drop whose piece type is no longer in hand is silently skipped. The turn
// pointer is not advanced here.
func (g *Game) HandleTurnEnd() TurnOutcome {
	if winner, ok := g.board.CapturedPieces().Winner(); ok && g.status != StatusFinished {
		g.status = StatusFinished
		g.winner = winner
		g.hasWinner = true
	}

	outcome := TurnOutcome{MoveResults: g.moveResults}

	for _, piece := range g.pendingPromotions {
		if piece.IsPromoted() || !piece.IsPromotable() {
			continue
		}
		pos, onBoard := g.board.Find(piece)
		if !onBoard || !g.board.IsInPromotionZone(pos, piece.Team()) {
			continue
		}
		g.board.Promote(piece)
		outcome.Promoted = append(outcome.Promoted, piece)
	}

	for _, drop := range g.pendingDrops {
		piece, ok := g.board.CapturedPieces().TakeByType(drop.Player.Team, drop.PieceType)
		if !ok {
			continue
		}
		g.board.Stack(drop.Position, piece)
		outcome.Placed = append(outcome.Placed, piece)
		outcome.DropResults = append(outcome.DropResults, ApplyDropResult{
			Player:    drop.Player,
			PieceType: drop.PieceType,
			Position:  drop.Position,
			Success:   true,
		})
	}

	g.pendingPromotions = nil
	g.pendingDrops = nil
	g.moveResults = nil
	return outcome
}

// HandleResign finishes the match in favor of the opposing team, regardless
// of any queued actions. No-op once the match is over.
func (g *Game) HandleResign(player *Player) {
	if g.status == StatusFinished || player == nil {
		return
	}
	player.Resigned = true
	g.status = StatusFinished
	g.winner = player.Team.Switch()
	g.hasWinner = true
}
