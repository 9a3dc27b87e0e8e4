package domain

// Coordinates are 1..9, so a 180 degree rotation subtracts from 10.
const rotationIndex = 10

// Normalize translates a position between the canonical (FIRST) frame and
// the SECOND team's rotated view. The rotation is its own inverse, so the
// same call serves both inbound drop targets and outbound snapshots. FIRST
// positions pass through unchanged.
func Normalize(pos Position, team Team) Position {
	if team == TeamSecond {
		return Position{X: rotationIndex - pos.X, Y: rotationIndex - pos.Y}
	}
	return pos
}
