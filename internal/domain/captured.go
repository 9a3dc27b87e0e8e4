package domain

// CapturedPieces tracks each team's hand of captured pieces and owns win
// detection: capturing a KING records the capturing team as the winner, and
// the first recorded winner is final.
type CapturedPieces struct {
	hands     map[Team][]*Piece
	winner    Team
	hasWinner bool
}

func NewCapturedPieces() *CapturedPieces {
	return &CapturedPieces{
		hands: map[Team][]*Piece{
			TeamFirst:  {},
			TeamSecond: {},
		},
	}
}

// Hand returns the team's captured pieces in capture order.
func (c *CapturedPieces) Hand(team Team) []*Piece {
	hand := c.hands[team]
	out := make([]*Piece, len(hand))
	copy(out, hand)
	return out
}

// Winner reports the winning team once a king has been captured.
func (c *CapturedPieces) Winner() (Team, bool) {
	return c.winner, c.hasWinner
}

// Capture moves a piece into the capturing team's hand. The piece changes
// sides and loses its promotion.
func (c *CapturedPieces) Capture(team Team, piece *Piece) {
	if piece.Type() == King && !c.hasWinner {
		c.winner = team
		c.hasWinner = true
	}
	piece.setTeam(team)
	piece.setPromoted(false)
	c.hands[team] = append(c.hands[team], piece)
}

// TakeByType removes and returns the first piece of the given type from the
// team's hand. Which piece of several equal-typed ones comes out is not
// specified.
func (c *CapturedPieces) TakeByType(team Team, pieceType PieceType) (*Piece, bool) {
	hand := c.hands[team]
	for i, piece := range hand {
		if piece.Type() == pieceType {
			c.hands[team] = append(hand[:i], hand[i+1:]...)
			return piece, true
		}
	}
	return nil, false
}
