package domain

import "testing"

func placedBoard(placements map[*Piece]Position) *Board {
	return NewBoard(placements)
}

func TestMoveOneStep(t *testing.T) {
	t.Run("empty square moves", func(t *testing.T) {
		pawn := NewPiece(1, Pawn, TeamFirst, true)
		board := placedBoard(map[*Piece]Position{pawn: {5, 5}})

		step := board.MoveOneStep(pawn, DirUp)
		if step.Result != MoveMoved {
			t.Fatalf("result = %v, want MOVED", step.Result)
		}
		if pos, _ := board.Find(pawn); pos != (Position{5, 6}) {
			t.Errorf("pawn at %v, want (5,6)", pos)
		}
	})

	t.Run("off board fell without moving", func(t *testing.T) {
		rook := NewPiece(1, Rook, TeamFirst, true)
		board := placedBoard(map[*Piece]Position{rook: {9, 5}})

		step := board.MoveOneStep(rook, DirRight)
		if step.Result != MoveFell {
			t.Fatalf("result = %v, want FELL", step.Result)
		}
		if pos, _ := board.Find(rook); pos != (Position{9, 5}) {
			t.Errorf("rook at %v, want unchanged (9,5)", pos)
		}
	})

	t.Run("ally top reports stacked without moving", func(t *testing.T) {
		pawn := NewPiece(1, Pawn, TeamFirst, true)
		gold := NewPiece(1, Gold, TeamFirst, false)
		board := placedBoard(map[*Piece]Position{pawn: {5, 5}, gold: {5, 6}})

		step := board.MoveOneStep(pawn, DirUp)
		if step.Result != MoveStacked {
			t.Fatalf("result = %v, want STACKED", step.Result)
		}
		if pos, _ := board.Find(pawn); pos != (Position{5, 5}) {
			t.Errorf("pawn at %v, want unchanged (5,5)", pos)
		}
	})

	t.Run("enemy top captures whole stack", func(t *testing.T) {
		mover := NewPiece(1, Silver, TeamFirst, true)
		bottom := NewPiece(1, Pawn, TeamSecond, true)
		top := NewPiece(2, Pawn, TeamSecond, true)
		top.setPromoted(true)
		board := placedBoard(map[*Piece]Position{mover: {5, 5}})
		board.Stack(Position{5, 6}, bottom)
		board.Stack(Position{5, 6}, top)

		step := board.MoveOneStep(mover, DirUp)
		if step.Result != MoveCaptured {
			t.Fatalf("result = %v, want CAPTURED", step.Result)
		}
		if len(step.Captured) != 2 {
			t.Fatalf("captured %d pieces, want 2", len(step.Captured))
		}
		if pos, _ := board.Find(mover); pos != (Position{5, 6}) {
			t.Errorf("mover at %v, want (5,6)", pos)
		}
		for _, c := range step.Captured {
			if c.Team() != TeamFirst {
				t.Errorf("captured piece still on %v", c.Team())
			}
			if c.IsPromoted() {
				t.Error("captured piece kept its promotion")
			}
		}
		if hand := board.CapturedPieces().Hand(TeamFirst); len(hand) != 2 {
			t.Errorf("hand size = %d, want 2", len(hand))
		}
	})
}

func TestStackPullsFromOldSquare(t *testing.T) {
	a := NewPiece(1, Pawn, TeamFirst, true)
	b := NewPiece(2, Pawn, TeamFirst, true)
	board := placedBoard(map[*Piece]Position{a: {3, 3}, b: {4, 4}})

	board.Stack(Position{4, 4}, a)

	if pieces := board.AllPiecesAt(Position{3, 3}); len(pieces) != 0 {
		t.Errorf("old square still holds %d pieces", len(pieces))
	}
	stack := board.AllPiecesAt(Position{4, 4})
	if len(stack) != 2 {
		t.Fatalf("stack size = %d, want 2", len(stack))
	}
	if stack[1] != a {
		t.Error("stacked piece is not on top")
	}
	if !board.IsTopOfStack(a) || board.IsTopOfStack(b) {
		t.Error("top-of-stack bookkeeping wrong after re-stack")
	}
}

func TestKingCaptureLatchesWinner(t *testing.T) {
	king := NewPiece(1, King, TeamSecond, false)
	pawn := NewPiece(1, Pawn, TeamSecond, true)
	board := placedBoard(map[*Piece]Position{king: {5, 5}, pawn: {6, 6}})

	board.CaptureAll(Position{5, 5}, TeamFirst)
	winner, ok := board.CapturedPieces().Winner()
	if !ok || winner != TeamFirst {
		t.Fatalf("winner = %v, %v; want FIRST", winner, ok)
	}

	// A later king capture must not overwrite the decided winner.
	secondKing := NewPiece(2, King, TeamFirst, false)
	board.Stack(Position{7, 7}, secondKing)
	board.CaptureAll(Position{7, 7}, TeamSecond)
	winner, _ = board.CapturedPieces().Winner()
	if winner != TeamFirst {
		t.Errorf("winner changed to %v after the match was decided", winner)
	}
}

func TestIsInPromotionZone(t *testing.T) {
	tests := []struct {
		name     string
		pos      Position
		team     Team
		expected bool
	}{
		{name: "first at y=7", pos: Position{1, 7}, team: TeamFirst, expected: true},
		{name: "first at y=9", pos: Position{9, 9}, team: TeamFirst, expected: true},
		{name: "first at y=6", pos: Position{5, 6}, team: TeamFirst, expected: false},
		{name: "second at y=3", pos: Position{1, 3}, team: TeamSecond, expected: true},
		{name: "second at y=1", pos: Position{9, 1}, team: TeamSecond, expected: true},
		{name: "second at y=4", pos: Position{5, 4}, team: TeamSecond, expected: false},
	}

	board := NewBoard(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := board.IsInPromotionZone(tt.pos, tt.team); got != tt.expected {
				t.Errorf("IsInPromotionZone(%v, %v) = %v, want %v", tt.pos, tt.team, got, tt.expected)
			}
		})
	}
}

func TestTakeByType(t *testing.T) {
	captured := NewCapturedPieces()
	pawn := NewPiece(1, Pawn, TeamSecond, true)
	captured.Capture(TeamFirst, pawn)

	got, ok := captured.TakeByType(TeamFirst, Pawn)
	if !ok || got != pawn {
		t.Fatalf("TakeByType = %v, %v", got, ok)
	}
	if _, ok := captured.TakeByType(TeamFirst, Pawn); ok {
		t.Error("second take from an empty hand succeeded")
	}
	if _, ok := captured.TakeByType(TeamSecond, Pawn); ok {
		t.Error("take from the other team's hand succeeded")
	}
}
