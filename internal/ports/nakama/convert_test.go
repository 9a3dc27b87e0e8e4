package nakama

import (
	"reflect"
	"testing"

	"shogi2vs2/internal/app"
	"shogi2vs2/internal/domain"
)

func TestMoveToAction(t *testing.T) {
	tests := []struct {
		name     string
		team     domain.Team
		dirs     []string
		expected []string
		wantErr  bool
	}{
		{
			name:     "first passes through",
			team:     domain.TeamFirst,
			dirs:     []string{"UP", "UP"},
			expected: []string{"UP", "UP"},
		},
		{
			name:     "second inverts into canonical frame",
			team:     domain.TeamSecond,
			dirs:     []string{"UP", "UP_LEFT", "KNIGHT_RIGHT"},
			expected: []string{"DOWN", "DOWN_RIGHT", "OPPO_KNIGHT_LEFT"},
		},
		{
			name:    "unknown direction rejected",
			team:    domain.TeamFirst,
			dirs:    []string{"SIDEWAYS"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := moveToAction(tt.team, MoveRequest{
				PieceID: 1, PieceType: "PAWN", Directions: tt.dirs,
			})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("moveToAction: %v", err)
			}
			if !reflect.DeepEqual(action.Directions, tt.expected) {
				t.Errorf("directions = %v, want %v", action.Directions, tt.expected)
			}
		})
	}
}

func TestDropToAction(t *testing.T) {
	t.Run("first unchanged", func(t *testing.T) {
		action, err := dropToAction(domain.TeamFirst, DropRequest{PieceType: "PAWN", X: 3, Y: 3})
		if err != nil {
			t.Fatalf("dropToAction: %v", err)
		}
		if action.X != 3 || action.Y != 3 {
			t.Errorf("position = (%d,%d), want (3,3)", action.X, action.Y)
		}
	})

	t.Run("second rotated", func(t *testing.T) {
		action, err := dropToAction(domain.TeamSecond, DropRequest{PieceType: "PAWN", X: 3, Y: 3})
		if err != nil {
			t.Fatalf("dropToAction: %v", err)
		}
		if action.X != 7 || action.Y != 7 {
			t.Errorf("position = (%d,%d), want (7,7)", action.X, action.Y)
		}
	})

	t.Run("unknown piece type rejected", func(t *testing.T) {
		if _, err := dropToAction(domain.TeamFirst, DropRequest{PieceType: "DRAGON", X: 3, Y: 3}); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestEventViewFor(t *testing.T) {
	ev := app.Event{
		Kind: app.EventTurnResolved,
		Payload: app.TurnResolvedPayload{
			GameID: "g1",
			TeamID: "FIRST",
			Actions: []app.ActionResultPayload{
				{Type: "MOVE", Directions: []string{"UP"}, Success: true},
				{Type: "DROP", X: 3, Y: 3, Success: true},
			},
			Promoted: []app.PiecePayload{{PieceID: 1, PieceType: "PAWN", X: 5, Y: 7}},
		},
	}

	t.Run("first view unchanged", func(t *testing.T) {
		got := eventViewFor(domain.TeamFirst, ev)
		if !reflect.DeepEqual(got, ev) {
			t.Error("canonical view was modified")
		}
	})

	t.Run("second view rotated", func(t *testing.T) {
		got := eventViewFor(domain.TeamSecond, ev).Payload.(app.TurnResolvedPayload)
		if got.Actions[0].Directions[0] != "DOWN" {
			t.Errorf("direction = %q, want DOWN", got.Actions[0].Directions[0])
		}
		if got.Actions[1].X != 7 || got.Actions[1].Y != 7 {
			t.Errorf("drop position = (%d,%d), want (7,7)", got.Actions[1].X, got.Actions[1].Y)
		}
		if got.Promoted[0].X != 5 || got.Promoted[0].Y != 3 {
			t.Errorf("promoted position = (%d,%d), want (5,3)", got.Promoted[0].X, got.Promoted[0].Y)
		}
	})

	t.Run("rotation does not mutate the original", func(t *testing.T) {
		_ = eventViewFor(domain.TeamSecond, ev)
		payload := ev.Payload.(app.TurnResolvedPayload)
		if payload.Actions[0].Directions[0] != "UP" || payload.Promoted[0].Y != 7 {
			t.Error("canonical payload mutated by the rotated view")
		}
	})
}
