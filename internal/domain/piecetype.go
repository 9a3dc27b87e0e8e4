package domain

// PieceType identifies one of the eight shogi piece kinds.
type PieceType uint8

const (
	Pawn PieceType = iota
	Lance
	Knight
	Silver
	Gold
	Bishop
	Rook
	King
)

var pieceTypeNames = map[PieceType]string{
	Pawn:   "PAWN",
	Lance:  "LANCE",
	Knight: "KNIGHT",
	Silver: "SILVER",
	Gold:   "GOLD",
	Bishop: "BISHOP",
	Rook:   "ROOK",
	King:   "KING",
}

func (p PieceType) String() string {
	if name, ok := pieceTypeNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParsePieceType maps a wire piece-type name to a PieceType.
func ParsePieceType(s string) (PieceType, bool) {
	for pt, name := range pieceTypeNames {
		if name == s {
			return pt, true
		}
	}
	return Pawn, false
}

// moveRule tags a piece type with its movement data: legal step sets before
// and after promotion, and the directions that permit sliding (repeated
// steps) before and after promotion.
type moveRule struct {
	steps             []Direction
	promotedSteps     []Direction
	slideDirs         []Direction
	promotedSlideDirs []Direction
}

var (
	goldSteps = []Direction{
		DirUp, DirUpLeft, DirUpRight, DirLeft, DirRight, DirDown,
	}
	bishopSteps = []Direction{
		DirUpLeft, DirUpRight, DirDownLeft, DirDownRight,
	}
	rookSteps = []Direction{
		DirUp, DirDown, DirLeft, DirRight,
	}
	kingSteps = []Direction{
		DirUp, DirDown, DirLeft, DirRight,
		DirUpLeft, DirUpRight, DirDownLeft, DirDownRight,
	}
	// Promoted rook/bishop gain the complementary axes as one-step moves;
	// sliding stays restricted to the piece's original axes.
	promotedBishopSteps = append(append([]Direction{}, bishopSteps...), rookSteps...)
	promotedRookSteps   = append(append([]Direction{}, rookSteps...), bishopSteps...)
)

var moveRules = map[PieceType]moveRule{
	Pawn: {
		steps:         []Direction{DirUp},
		promotedSteps: goldSteps,
	},
	Lance: {
		steps:         []Direction{DirUp},
		promotedSteps: goldSteps,
		slideDirs:     []Direction{DirUp},
	},
	Knight: {
		steps:         []Direction{DirKnightLeft, DirKnightRight},
		promotedSteps: goldSteps,
	},
	Silver: {
		steps: []Direction{
			DirUp, DirUpLeft, DirUpRight, DirDownLeft, DirDownRight,
		},
		promotedSteps: goldSteps,
	},
	Gold: {
		steps:         goldSteps,
		promotedSteps: goldSteps,
	},
	Bishop: {
		steps:             bishopSteps,
		promotedSteps:     promotedBishopSteps,
		slideDirs:         bishopSteps,
		promotedSlideDirs: bishopSteps,
	},
	Rook: {
		steps:             rookSteps,
		promotedSteps:     promotedRookSteps,
		slideDirs:         rookSteps,
		promotedSlideDirs: rookSteps,
	},
	King: {
		steps:         kingSteps,
		promotedSteps: kingSteps,
	},
}

// MovableDirections returns the legal step set for the piece type. Directions
// are in the FIRST team's frame; callers translate team-relative input first.
func (p PieceType) MovableDirections(promoted bool) []Direction {
	rule := moveRules[p]
	if promoted {
		return rule.promotedSteps
	}
	return rule.steps
}

// CanSlide reports whether the piece type may repeat steps in one move.
func (p PieceType) CanSlide(promoted bool) bool {
	rule := moveRules[p]
	if promoted {
		return len(rule.promotedSlideDirs) > 0
	}
	return len(rule.slideDirs) > 0
}

// CanSlideIn reports whether the piece type may repeat steps in the given
// direction.
func (p PieceType) CanSlideIn(dir Direction, promoted bool) bool {
	rule := moveRules[p]
	dirs := rule.slideDirs
	if promoted {
		dirs = rule.promotedSlideDirs
	}
	return containsDirection(dirs, dir)
}

func containsDirection(dirs []Direction, dir Direction) bool {
	for _, d := range dirs {
		if d == dir {
			return true
		}
	}
	return false
}
