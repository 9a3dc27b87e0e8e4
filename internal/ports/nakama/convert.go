package nakama

import (
	"fmt"

	"shogi2vs2/internal/app"
	"shogi2vs2/internal/domain"
	"shogi2vs2/internal/synthesis"
)

// MoveRequest is the client payload for OpSubmitMove. Directions are given
// in the sender's own frame; the adapter translates them into the canonical
// frame before the action enters the pipeline.
type MoveRequest struct {
	PieceID    int      `json:"pieceId"`
	PieceType  string   `json:"pieceType"`
	Directions []string `json:"directions"`
	Promote    bool     `json:"promote"`
}

// DropRequest is the client payload for OpSubmitDrop. The target square is
// given in the sender's own frame.
type DropRequest struct {
	PieceType string `json:"pieceType"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

// GameErrorEvent is sent privately to the user whose request was rejected.
type GameErrorEvent struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// moveToAction translates a move request from the sender's frame into a
// canonical-frame synthesis action.
func moveToAction(team domain.Team, req MoveRequest) (synthesis.Action, error) {
	dirs := make([]string, 0, len(req.Directions))
	for _, name := range req.Directions {
		d, ok := domain.ParseDirection(name)
		if !ok {
			return synthesis.Action{}, fmt.Errorf("unknown direction %q", name)
		}
		dirs = append(dirs, d.ForTeam(team).String())
	}
	return synthesis.Action{
		Kind:       synthesis.ActionMove,
		PieceID:    req.PieceID,
		PieceType:  req.PieceType,
		Directions: dirs,
		Promote:    req.Promote,
	}, nil
}

// dropToAction translates a drop request from the sender's frame into a
// canonical-frame synthesis action.
func dropToAction(team domain.Team, req DropRequest) (synthesis.Action, error) {
	if _, ok := domain.ParsePieceType(req.PieceType); !ok {
		return synthesis.Action{}, fmt.Errorf("unknown piece type %q", req.PieceType)
	}
	pos := domain.Normalize(domain.Position{X: req.X, Y: req.Y}, team)
	return synthesis.Action{
		Kind:      synthesis.ActionDrop,
		PieceType: req.PieceType,
		X:         pos.X,
		Y:         pos.Y,
	}, nil
}

// eventViewFor re-orients an event's positions and directions into the
// viewing team's frame. Canonical payloads pass through unchanged for the
// home side; the opposing side sees its own rotated view of the board.
func eventViewFor(team domain.Team, ev app.Event) app.Event {
	if team == domain.TeamFirst {
		return ev
	}
	switch p := ev.Payload.(type) {
	case app.GameStartedPayload:
		p.Pieces = reorientPieces(team, p.Pieces)
		ev.Payload = p
	case app.TurnResolvedPayload:
		actions := make([]app.ActionResultPayload, len(p.Actions))
		for i, a := range p.Actions {
			actions[i] = reorientAction(team, a)
		}
		p.Actions = actions
		p.Promoted = reorientPieces(team, p.Promoted)
		ev.Payload = p
	}
	return ev
}

func reorientPieces(team domain.Team, pieces []app.PiecePayload) []app.PiecePayload {
	if len(pieces) == 0 {
		return pieces
	}
	out := make([]app.PiecePayload, len(pieces))
	for i, p := range pieces {
		pos := domain.Normalize(domain.Position{X: p.X, Y: p.Y}, team)
		p.X = pos.X
		p.Y = pos.Y
		out[i] = p
	}
	return out
}

func reorientAction(team domain.Team, a app.ActionResultPayload) app.ActionResultPayload {
	if len(a.Directions) > 0 {
		dirs := make([]string, len(a.Directions))
		for i, name := range a.Directions {
			if d, ok := domain.ParseDirection(name); ok {
				dirs[i] = d.ForTeam(team).String()
			} else {
				dirs[i] = name
			}
		}
		a.Directions = dirs
	}
	if a.X != 0 || a.Y != 0 {
		pos := domain.Normalize(domain.Position{X: a.X, Y: a.Y}, team)
		a.X = pos.X
		a.Y = pos.Y
	}
	a.Captured = reorientPieces(team, a.Captured)
	return a
}
