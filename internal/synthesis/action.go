package synthesis

import "time"

// ActionKind discriminates the buffered action envelope.
type ActionKind string

const (
	ActionMove ActionKind = "MOVE"
	ActionDrop ActionKind = "DROP"
)

// Action is the buffered form of one player's turn input. Directions and
// the drop position are already normalized to the canonical (FIRST) frame
// by the transport boundary before submission.
type Action struct {
	Kind       ActionKind `json:"actionType"`
	UserID     string     `json:"userId"`
	TeamID     string     `json:"teamId"`
	PieceID    int        `json:"pieceId,omitempty"`
	PieceType  string     `json:"pieceType,omitempty"`
	Directions []string   `json:"directions,omitempty"`
	Promote    bool       `json:"promote,omitempty"`
	X          int        `json:"x,omitempty"`
	Y          int        `json:"y,omitempty"`
	At         time.Time  `json:"at"`
}
