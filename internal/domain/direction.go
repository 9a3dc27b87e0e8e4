package domain

// Direction is a single-square movement vector. All vectors are expressed in
// the FIRST team's frame; SECOND-team input is translated through ForTeam at
// the boundary and never stored inverted.
type Direction uint8

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
	DirUpRight
	DirUpLeft
	DirDownRight
	DirDownLeft
	DirKnightLeft
	DirKnightRight
	DirOppoKnightLeft
	DirOppoKnightRight

	numDirections
)

type vector struct {
	dx, dy int
}

var directionVectors = [numDirections]vector{
	DirUp:              {0, +1},
	DirDown:            {0, -1},
	DirLeft:            {-1, 0},
	DirRight:           {+1, 0},
	DirUpRight:         {+1, +1},
	DirUpLeft:          {-1, +1},
	DirDownRight:       {+1, -1},
	DirDownLeft:        {-1, -1},
	DirKnightLeft:      {-1, +2},
	DirKnightRight:     {+1, +2},
	DirOppoKnightLeft:  {-1, -2},
	DirOppoKnightRight: {+1, -2},
}

var directionNames = [numDirections]string{
	DirUp:              "UP",
	DirDown:            "DOWN",
	DirLeft:            "LEFT",
	DirRight:           "RIGHT",
	DirUpRight:         "UP_RIGHT",
	DirUpLeft:          "UP_LEFT",
	DirDownRight:       "DOWN_RIGHT",
	DirDownLeft:        "DOWN_LEFT",
	DirKnightLeft:      "KNIGHT_LEFT",
	DirKnightRight:     "KNIGHT_RIGHT",
	DirOppoKnightLeft:  "OPPO_KNIGHT_LEFT",
	DirOppoKnightRight: "OPPO_KNIGHT_RIGHT",
}

var directionOpposites = [numDirections]Direction{
	DirUp:              DirDown,
	DirDown:            DirUp,
	DirLeft:            DirRight,
	DirRight:           DirLeft,
	DirUpRight:         DirDownLeft,
	DirUpLeft:          DirDownRight,
	DirDownRight:       DirUpLeft,
	DirDownLeft:        DirUpRight,
	DirKnightLeft:      DirOppoKnightRight,
	DirKnightRight:     DirOppoKnightLeft,
	DirOppoKnightLeft:  DirKnightRight,
	DirOppoKnightRight: DirKnightLeft,
}

// Dx returns the horizontal component of the vector.
func (d Direction) Dx() int { return directionVectors[d].dx }

// Dy returns the vertical component of the vector.
func (d Direction) Dy() int { return directionVectors[d].dy }

// ForTeam translates the direction into the given team's frame. FIRST is the
// canonical frame and passes through unchanged; SECOND inverts straight and
// diagonal vectors and swaps knight vectors with their opposite-knight
// counterparts. Applying ForTeam(TeamSecond) twice yields the original value.
func (d Direction) ForTeam(t Team) Direction {
	if t == TeamSecond {
		return directionOpposites[d]
	}
	return d
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "UNKNOWN"
}

// ParseDirection maps a wire direction name to a Direction.
func ParseDirection(s string) (Direction, bool) {
	for d, name := range directionNames {
		if name == s {
			return Direction(d), true
		}
	}
	return DirUp, false
}
