package app

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventGameStarted    EventKind = "game_started"
	EventWaitingPartner EventKind = "waiting_partner"
	EventTurnResolved   EventKind = "turn_resolved"
	EventGameEnded      EventKind = "game_ended"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

// PiecePayload describes a board piece in wire form. Positions and
// directions are expressed in the home team's frame; the transport layer
// re-orients them for the opposing side before dispatch.
type PiecePayload struct {
	PieceID   int    `json:"pieceId"`
	PieceType string `json:"pieceType"`
	TeamID    string `json:"teamId"`
	Promoted  bool   `json:"promoted"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

type GameStartedPayload struct {
	GameID          string              `json:"gameId"`
	Teams           map[string][]string `json:"teams"`
	FirstTurnTeamID string              `json:"firstTurnTeamId"`
	TurnSeconds     int                 `json:"turnSeconds"`
	Pieces          []PiecePayload      `json:"pieces"`
}

type WaitingPartnerPayload struct {
	GameID string `json:"gameId"`
	TeamID string `json:"teamId"`
	UserID string `json:"userId"`
}

// ActionResultPayload carries the outcome of one applied move or drop.
type ActionResultPayload struct {
	Type       string         `json:"type"`
	UserID     string         `json:"userId"`
	PieceID    int            `json:"pieceId,omitempty"`
	PieceType  string         `json:"pieceType"`
	Directions []string       `json:"directions,omitempty"`
	Promote    bool           `json:"promote,omitempty"`
	X          int            `json:"x,omitempty"`
	Y          int            `json:"y,omitempty"`
	Success    bool           `json:"success"`
	Captured   []PiecePayload `json:"captured,omitempty"`
}

type TurnResolvedPayload struct {
	GameID         string                `json:"gameId"`
	TeamID         string                `json:"teamId"`
	TurnNumber     int                   `json:"turnNumber"`
	TimedOut       bool                  `json:"timedOut"`
	Actions        []ActionResultPayload `json:"actions"`
	Promoted       []PiecePayload        `json:"promoted,omitempty"`
	NextTurnTeamID string                `json:"nextTurnTeamId,omitempty"`
}

type GameEndedPayload struct {
	GameID       string `json:"gameId"`
	WinnerTeamID string `json:"winnerTeamId"`
	Reason       string `json:"reason"`
}

const (
	EndReasonKingCaptured = "KING_CAPTURED"
	EndReasonResignation  = "RESIGNATION"
)
