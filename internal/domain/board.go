package domain

// MoveResult is the outcome of moving a piece one step.
type MoveResult uint8

const (
	// MoveFell means the step left the board; the piece is lost to the
	// opposing team's hand. The board is unchanged.
	MoveFell MoveResult = iota
	// MoveStacked means the target square's top piece is an ally. The board
	// is unchanged; the caller decides whether to push onto the stack.
	MoveStacked
	// MoveCaptured means the target square held enemy pieces; the whole
	// stack was captured and the mover relocated there.
	MoveCaptured
	// MoveMoved means the piece relocated to an empty square.
	MoveMoved
)

func (r MoveResult) String() string {
	switch r {
	case MoveFell:
		return "FELL"
	case MoveStacked:
		return "STACKED"
	case MoveCaptured:
		return "CAPTURED"
	case MoveMoved:
		return "MOVED"
	default:
		return "UNKNOWN"
	}
}

const (
	boardMin = 1
	boardMax = 9

	// Promotion rows are asymmetric on purpose; these are independent
	// constants, not derived from each other.
	firstPromotionRow  = 7
	secondPromotionRow = 3
)

// Board holds square occupancy as stacks (last pushed is the top and the
// only movable piece), a piece-to-square reverse index, and the capture
// bookkeeping. A piece absent from both structures is off-board, in a hand.
type Board struct {
	squares  map[Position][]*Piece
	index    map[*Piece]Position
	captured *CapturedPieces
}

// NewBoard builds a board from an initial piece placement. Pieces mapped to
// the same square stack in unspecified order.
func NewBoard(initial map[*Piece]Position) *Board {
	b := &Board{
		squares:  make(map[Position][]*Piece),
		index:    make(map[*Piece]Position, len(initial)),
		captured: NewCapturedPieces(),
	}
	for piece, pos := range initial {
		b.squares[pos] = append(b.squares[pos], piece)
		b.index[piece] = pos
	}
	return b
}

// CapturedPieces returns the capture bookkeeping shared with the game.
func (b *Board) CapturedPieces() *CapturedPieces {
	return b.captured
}

// TopPieceAt returns the top of the square's stack.
func (b *Board) TopPieceAt(pos Position) (*Piece, bool) {
	stack := b.squares[pos]
	if len(stack) == 0 {
		return nil, false
	}
	return stack[len(stack)-1], true
}

// AllPiecesAt returns the square's pieces from bottom to top.
func (b *Board) AllPiecesAt(pos Position) []*Piece {
	stack := b.squares[pos]
	out := make([]*Piece, len(stack))
	copy(out, stack)
	return out
}

// IsTopOfStack reports whether no piece sits above the given one. Only the
// top piece of a stack may move.
func (b *Board) IsTopOfStack(piece *Piece) bool {
	pos, ok := b.index[piece]
	if !ok {
		return false
	}
	top, ok := b.TopPieceAt(pos)
	return ok && top == piece
}

// Find returns the square a piece currently occupies.
func (b *Board) Find(piece *Piece) (Position, bool) {
	pos, ok := b.index[piece]
	return pos, ok
}

// AllPieces returns every piece currently on the board, in no particular
// order.
func (b *Board) AllPieces() []*Piece {
	out := make([]*Piece, 0, len(b.index))
	for p := range b.index {
		out = append(out, p)
	}
	return out
}

// Stack pushes a piece onto the square's stack and updates the reverse
// index. If the piece is already on the board it is first pulled from its
// current stack, so the same call serves hand drops and ally re-stacking.
func (b *Board) Stack(pos Position, piece *Piece) {
	if old, ok := b.index[piece]; ok {
		b.removeFromSquare(old, piece)
	}
	b.squares[pos] = append(b.squares[pos], piece)
	b.index[piece] = pos
}

// Remove takes a piece off the board without capturing it. Used when a piece
// falls off the edge before it is handed to the opposing team.
func (b *Board) Remove(piece *Piece) {
	pos, ok := b.index[piece]
	if !ok {
		return
	}
	b.removeFromSquare(pos, piece)
	delete(b.index, piece)
}

func (b *Board) removeFromSquare(pos Position, piece *Piece) {
	stack := b.squares[pos]
	for i, p := range stack {
		if p == piece {
			stack = append(stack[:i], stack[i+1:]...)
			break
		}
	}
	if len(stack) == 0 {
		delete(b.squares, pos)
	} else {
		b.squares[pos] = stack
	}
}

// CaptureAll captures every piece stacked on the square for capturingTeam
// and returns them. Each captured piece switches sides and loses its
// promotion; capturing a king decides the match as a side effect.
func (b *Board) CaptureAll(pos Position, capturingTeam Team) []*Piece {
	stack := b.squares[pos]
	if len(stack) == 0 {
		return nil
	}
	captured := make([]*Piece, len(stack))
	copy(captured, stack)
	delete(b.squares, pos)

	for _, piece := range captured {
		b.captured.Capture(capturingTeam, piece)
		delete(b.index, piece)
	}
	return captured
}

// InsideBoard reports whether the position is on the 9x9 board.
func (b *Board) InsideBoard(pos Position) bool {
	return pos.X >= boardMin && pos.X <= boardMax &&
		pos.Y >= boardMin && pos.Y <= boardMax
}

// IsInPromotionZone reports whether a square is inside the team's promotion
// rows: FIRST promotes at y>=7, SECOND at y<=3.
func (b *Board) IsInPromotionZone(pos Position, team Team) bool {
	switch team {
	case TeamFirst:
		return pos.Y >= firstPromotionRow
	case TeamSecond:
		return pos.Y <= secondPromotionRow
	}
	return false
}

// Promote marks the piece promoted. No-op for unpromotable pieces.
func (b *Board) Promote(piece *Piece) {
	piece.setPromoted(true)
}

// MoveOneStep advances the piece one square in the given direction.
//
// Off-board targets report MoveFell without moving; the caller owns handing
// the piece to the opposing team. An allied top piece reports MoveStacked
// without moving; the caller re-stacks explicitly if it wants the piece on
// top. An enemy top piece captures the entire stack and relocates the mover.
// Captured pieces from that stack are returned with the result.
func (b *Board) MoveOneStep(piece *Piece, dir Direction) MoveStepResult {
	pos, ok := b.index[piece]
	if !ok {
		return MoveStepResult{Result: MoveFell}
	}
	newPos := pos.Add(dir)
	if !b.InsideBoard(newPos) {
		return MoveStepResult{Result: MoveFell}
	}
	if top, occupied := b.TopPieceAt(newPos); occupied {
		if top.Team() == piece.Team() {
			return MoveStepResult{Result: MoveStacked}
		}
		captured := b.CaptureAll(newPos, piece.Team())
		b.Stack(newPos, piece)
		return MoveStepResult{Result: MoveCaptured, Captured: captured}
	}
	b.Stack(newPos, piece)
	return MoveStepResult{Result: MoveMoved}
}

// PieceByID finds an on-board piece by its id and type.
func (b *Board) PieceByID(id int, pieceType PieceType) (*Piece, bool) {
	for piece := range b.index {
		if piece.ID() == id && piece.Type() == pieceType {
			return piece, true
		}
	}
	return nil, false
}

// MoveStepResult pairs a one-step move outcome with the pieces captured by
// that step.
type MoveStepResult struct {
	Result   MoveResult
	Captured []*Piece
}
