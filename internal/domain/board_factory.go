package domain

// NewStandardBoard produces the standard initial placement. Piece ids count
// up from 1 per type, shared across both teams. Gold and king never promote.
func NewStandardBoard() *Board {
	next := map[PieceType]int{}
	place := func(initial map[*Piece]Position, pieceType PieceType, team Team, promotable bool, pos Position) {
		next[pieceType]++
		initial[NewPiece(next[pieceType], pieceType, team, promotable)] = pos
	}

	initial := make(map[*Piece]Position)

	// FIRST back row.
	place(initial, Lance, TeamFirst, true, Position{1, 1})
	place(initial, Knight, TeamFirst, true, Position{2, 1})
	place(initial, Silver, TeamFirst, true, Position{3, 1})
	place(initial, Gold, TeamFirst, false, Position{4, 1})
	place(initial, King, TeamFirst, false, Position{5, 1})
	place(initial, Gold, TeamFirst, false, Position{6, 1})
	place(initial, Silver, TeamFirst, true, Position{7, 1})
	place(initial, Knight, TeamFirst, true, Position{8, 1})
	place(initial, Lance, TeamFirst, true, Position{9, 1})

	// FIRST second row.
	place(initial, Rook, TeamFirst, true, Position{2, 2})
	place(initial, Bishop, TeamFirst, true, Position{8, 2})

	// FIRST pawn row.
	for x := 1; x <= 9; x++ {
		place(initial, Pawn, TeamFirst, true, Position{x, 3})
	}

	// SECOND pawn row.
	for x := 1; x <= 9; x++ {
		place(initial, Pawn, TeamSecond, true, Position{x, 7})
	}

	// SECOND second row.
	place(initial, Bishop, TeamSecond, true, Position{2, 8})
	place(initial, Rook, TeamSecond, true, Position{8, 8})

	// SECOND back row.
	place(initial, Lance, TeamSecond, true, Position{1, 9})
	place(initial, Knight, TeamSecond, true, Position{2, 9})
	place(initial, Silver, TeamSecond, true, Position{3, 9})
	place(initial, Gold, TeamSecond, false, Position{4, 9})
	place(initial, King, TeamSecond, false, Position{5, 9})
	place(initial, Gold, TeamSecond, false, Position{6, 9})
	place(initial, Silver, TeamSecond, true, Position{7, 9})
	place(initial, Knight, TeamSecond, true, Position{8, 9})
	place(initial, Lance, TeamSecond, true, Position{9, 9})

	return NewBoard(initial)
}
