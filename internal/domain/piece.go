package domain

// Piece is a single playing piece. The id is unique per type and team at
// creation, not globally. Team changes when the piece is captured; the
// promoted flag is cleared on capture.
type Piece struct {
	id         int
	pieceType  PieceType
	team       Team
	promoted   bool
	promotable bool
}

// NewPiece constructs an unpromoted piece.
func NewPiece(id int, pieceType PieceType, team Team, promotable bool) *Piece {
	return &Piece{
		id:         id,
		pieceType:  pieceType,
		team:       team,
		promotable: promotable,
	}
}

func (p *Piece) ID() int            { return p.id }
func (p *Piece) Type() PieceType    { return p.pieceType }
func (p *Piece) Team() Team         { return p.team }
func (p *Piece) IsPromoted() bool   { return p.promoted }
func (p *Piece) IsPromotable() bool { return p.promotable }

func (p *Piece) setTeam(t Team) { p.team = t }

// setPromoted is a no-op for pieces that cannot promote.
func (p *Piece) setPromoted(v bool) {
	if v && !p.promotable {
		return
	}
	p.promoted = v
}
