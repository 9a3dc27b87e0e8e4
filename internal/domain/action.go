package domain

import "time"

// PlayerMove is one player's move order for a turn: a piece and the list of
// directions it advances, one Direction per square. Directions are in the
// canonical (FIRST) frame.
type PlayerMove struct {
	Player     *Player
	Piece      *Piece
	Directions []Direction
	Promote    bool
	At         time.Time
}

// PlayerDropPiece is one player's order to place a piece from the team hand
// onto a board square. The concrete piece is pulled from the hand by type
// when the turn resolves.
type PlayerDropPiece struct {
	Player    *Player
	PieceType PieceType
	Position  Position
	At        time.Time
}

// ApplyMoveResult records a move that was accepted: the directions actually
// walked (truncated at the first blocking step) and every piece captured on
// the way.
type ApplyMoveResult struct {
	Piece             *Piece
	Promote           bool
	AppliedDirections []Direction
	Captured          []*Piece
}

// ApplyDropResult records the provisional outcome of a drop order.
type ApplyDropResult struct {
	Player    *Player
	PieceType PieceType
	Position  Position
	Success   bool
}

// TurnOutcome is the cleared-on-read result of a resolved turn.
type TurnOutcome struct {
	MoveResults []ApplyMoveResult
	DropResults []ApplyDropResult
	Promoted    []*Piece
	Placed      []*Piece
}
