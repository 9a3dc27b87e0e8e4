package domain

// Position is a square on the 9x9 board, 1-indexed on both axes with (1,1)
// at the FIRST team's left corner. Values are immutable; movement produces a
// new Position.
type Position struct {
	X int
	Y int
}

// Add returns the position one step away in the given direction.
func (p Position) Add(d Direction) Position {
	return Position{X: p.X + d.Dx(), Y: p.Y + d.Dy()}
}
