package nakama

import (
	"context"
	"encoding/json"
	"testing"

	"shogi2vs2/internal/app"
	"shogi2vs2/internal/config"
	"shogi2vs2/internal/kv"

	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy
// the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type mockPresence struct {
	userID string
}

func (p *mockPresence) GetUserId() string                 { return p.userID }
func (p *mockPresence) GetSessionId() string              { return "session-" + p.userID }
func (p *mockPresence) GetNodeId() string                 { return "node" }
func (p *mockPresence) GetHidden() bool                   { return false }
func (p *mockPresence) GetPersistence() bool              { return false }
func (p *mockPresence) GetUsername() string               { return p.userID }
func (p *mockPresence) GetStatus() string                 { return "" }
func (p *mockPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }

type mockMatchData struct {
	mockPresence
	opCode int64
	data   []byte
}

func (m *mockMatchData) GetOpCode() int64      { return m.opCode }
func (m *mockMatchData) GetData() []byte       { return m.data }
func (m *mockMatchData) GetReliable() bool     { return true }
func (m *mockMatchData) GetReceiveTime() int64 { return 0 }

type broadcast struct {
	opCode     int64
	data       []byte
	recipients []runtime.Presence
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	broadcasts   []broadcast
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.broadcasts = append(md.broadcasts, broadcast{
		opCode:     opCode,
		data:       append([]byte(nil), data...),
		recipients: presences,
	})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return md.BroadcastMessage(opCode, data, presences, sender, reliable)
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) byOpCode(opCode int64) []broadcast {
	var out []broadcast
	for _, b := range md.broadcasts {
		if b.opCode == opCode {
			out = append(out, b)
		}
	}
	return out
}

var testUserIDs = [4]string{"u1", "u2", "u3", "u4"}

func newTestState() *MatchState {
	pending := &pendingEvents{}
	return &MatchState{
		Presences: make(map[string]runtime.Presence),
		App:       app.NewService(kv.NewMemory(), config.Default(), pending),
		Pending:   pending,
	}
}

func joinAll(t *testing.T, mh *matchHandler, state *MatchState, dispatcher *mockDispatcher) {
	t.Helper()
	presences := make([]runtime.Presence, 0, 4)
	for _, id := range testUserIDs {
		presences = append(presences, &mockPresence{userID: id})
	}
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_MATCH_ID, "match-1")
	result := mh.MatchJoin(ctx, noopLogger{}, nil, nil, dispatcher, 1, state, presences)
	if result == nil {
		t.Fatal("MatchJoin returned nil state")
	}
}

func TestMatchInit(t *testing.T) {
	mh := &matchHandler{}
	state, tickRate, label := mh.MatchInit(context.Background(), noopLogger{}, nil, nil, nil)

	if state == nil {
		t.Fatal("MatchInit returned nil state")
	}
	if tickRate != 1 {
		t.Errorf("tickRate = %d, want 1", tickRate)
	}

	var parsed matchLabel
	if err := json.Unmarshal([]byte(label), &parsed); err != nil {
		t.Fatalf("label is not valid JSON: %v", err)
	}
	if parsed.Open != 4 || parsed.State != "lobby" || parsed.Game != "shogi2vs2" {
		t.Errorf("label = %+v", parsed)
	}
}

func TestMatchJoinSeatsPlayersAndStartsGame(t *testing.T) {
	mh := &matchHandler{}
	state := newTestState()
	dispatcher := &mockDispatcher{}

	joinAll(t, mh, state, dispatcher)

	if !state.Started {
		t.Fatal("four seated players did not start the game")
	}
	if state.GameID != "match-1" {
		t.Errorf("game id = %q", state.GameID)
	}
	for i, id := range testUserIDs {
		if state.Seats[i] != id {
			t.Errorf("seat %d = %q, want %q", i, state.Seats[i], id)
		}
	}

	if got := len(dispatcher.byOpCode(OpPlayerJoined)); got != 4 {
		t.Errorf("player joined broadcasts = %d, want 4", got)
	}

	// The start event goes out twice, one frame per team.
	started := dispatcher.byOpCode(OpGameStarted)
	if len(started) != 2 {
		t.Fatalf("game started broadcasts = %d, want 2", len(started))
	}
	for _, b := range started {
		if len(b.recipients) != 2 {
			t.Errorf("game started sent to %d recipients, want 2", len(b.recipients))
		}
	}

	var firstView, secondView app.GameStartedPayload
	if err := json.Unmarshal(started[0].data, &firstView); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if err := json.Unmarshal(started[1].data, &secondView); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if len(firstView.Pieces) != 40 || len(secondView.Pieces) != 40 {
		t.Fatal("board snapshot incomplete")
	}
	// Same piece, two frames: the SECOND view is the rotation of the FIRST.
	if firstView.Pieces[0].PieceID != secondView.Pieces[0].PieceID {
		t.Fatal("piece order differs between views")
	}
	if secondView.Pieces[0].X != 10-firstView.Pieces[0].X || secondView.Pieces[0].Y != 10-firstView.Pieces[0].Y {
		t.Errorf("SECOND view not rotated: first=(%d,%d) second=(%d,%d)",
			firstView.Pieces[0].X, firstView.Pieces[0].Y, secondView.Pieces[0].X, secondView.Pieces[0].Y)
	}
}

func TestMatchJoinAttempt(t *testing.T) {
	mh := &matchHandler{}
	state := newTestState()
	dispatcher := &mockDispatcher{}
	ctx := context.Background()

	_, ok, _ := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, dispatcher, 1, state, &mockPresence{userID: "u1"}, nil)
	if !ok {
		t.Fatal("join rejected with open seats")
	}

	joinAll(t, mh, state, dispatcher)

	_, ok, reason := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, dispatcher, 1, state, &mockPresence{userID: "u5"}, nil)
	if ok {
		t.Fatalf("join accepted into a started match (reason=%q)", reason)
	}
}

func TestMatchLoopMoveFlow(t *testing.T) {
	mh := &matchHandler{}
	state := newTestState()
	dispatcher := &mockDispatcher{}
	joinAll(t, mh, state, dispatcher)
	ctx := context.Background()

	moveFor := func(userID string, pieceID int) *mockMatchData {
		data, _ := json.Marshal(MoveRequest{
			PieceID: pieceID, PieceType: "PAWN", Directions: []string{"UP"},
		})
		return &mockMatchData{
			mockPresence: mockPresence{userID: userID},
			opCode:       OpSubmitMove,
			data:         data,
		}
	}

	// First teammate buffers and only they get the waiting notice.
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.MatchData{moveFor("u1", 1)})
	waiting := dispatcher.byOpCode(OpWaitingPartner)
	if len(waiting) != 1 {
		t.Fatalf("waiting broadcasts = %d, want 1", len(waiting))
	}
	if len(waiting[0].recipients) != 1 || waiting[0].recipients[0].GetUserId() != "u1" {
		t.Error("waiting notice not targeted at the submitter alone")
	}

	// Second teammate releases the pair and the turn resolves per team.
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.MatchData{moveFor("u2", 2)})
	resolved := dispatcher.byOpCode(OpTurnResolved)
	if len(resolved) != 2 {
		t.Fatalf("turn resolved broadcasts = %d, want one per team", len(resolved))
	}

	var payload app.TurnResolvedPayload
	if err := json.Unmarshal(resolved[0].data, &payload); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if payload.NextTurnTeamID != "SECOND" {
		t.Errorf("next turn = %q, want SECOND", payload.NextTurnTeamID)
	}
	if len(payload.Actions) != 2 || !payload.Actions[0].Success || !payload.Actions[1].Success {
		t.Errorf("actions not applied: %+v", payload.Actions)
	}
}

func TestMatchLoopRejectsOutOfTurnSubmission(t *testing.T) {
	mh := &matchHandler{}
	state := newTestState()
	dispatcher := &mockDispatcher{}
	joinAll(t, mh, state, dispatcher)

	data, _ := json.Marshal(MoveRequest{PieceID: 10, PieceType: "PAWN", Directions: []string{"UP"}})
	msg := &mockMatchData{
		mockPresence: mockPresence{userID: "u3"},
		opCode:       OpSubmitMove,
		data:         data,
	}
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.MatchData{msg})

	errs := dispatcher.byOpCode(OpGameError)
	if len(errs) != 1 {
		t.Fatalf("error broadcasts = %d, want 1", len(errs))
	}
	if len(errs[0].recipients) != 1 || errs[0].recipients[0].GetUserId() != "u3" {
		t.Error("error not targeted at the offending user")
	}
}

func TestMatchLoopResign(t *testing.T) {
	mh := &matchHandler{}
	state := newTestState()
	dispatcher := &mockDispatcher{}
	joinAll(t, mh, state, dispatcher)

	msg := &mockMatchData{
		mockPresence: mockPresence{userID: "u3"},
		opCode:       OpResign,
	}
	result := mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.MatchData{msg})

	if result != nil {
		t.Fatal("finished match not terminated")
	}
	if state.Started {
		t.Fatal("match still marked started after resignation")
	}
	ended := dispatcher.byOpCode(OpGameEnded)
	if len(ended) != 1 {
		t.Fatalf("game ended broadcasts = %d, want 1", len(ended))
	}

	var payload app.GameEndedPayload
	if err := json.Unmarshal(ended[0].data, &payload); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if payload.WinnerTeamID != "FIRST" || payload.Reason != app.EndReasonResignation {
		t.Errorf("payload = %+v", payload)
	}
}

func TestMatchLoopFlushesDeferredEvents(t *testing.T) {
	mh := &matchHandler{}
	state := newTestState()
	dispatcher := &mockDispatcher{}
	joinAll(t, mh, state, dispatcher)

	state.Pending.Publish("match-1", []app.Event{{
		Kind: app.EventGameEnded,
		Payload: app.GameEndedPayload{
			GameID:       "match-1",
			WinnerTeamID: "SECOND",
			Reason:       app.EndReasonKingCaptured,
		},
	}})

	result := mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, nil)

	if len(dispatcher.byOpCode(OpGameEnded)) != 1 {
		t.Fatal("deferred event not dispatched on the next tick")
	}
	if result != nil {
		t.Error("game end did not terminate the match; stale seats would block every new joiner")
	}
}

func TestMatchLeaveDuringGameKeepsSeat(t *testing.T) {
	mh := &matchHandler{}
	state := newTestState()
	dispatcher := &mockDispatcher{}
	joinAll(t, mh, state, dispatcher)
	ctx := context.Background()

	leaver := []runtime.Presence{&mockPresence{userID: "u1"}}
	result := mh.MatchLeave(ctx, noopLogger{}, nil, nil, dispatcher, 2, state, leaver)
	if result == nil {
		t.Fatal("match terminated with players still present")
	}

	if !state.Started {
		t.Fatal("leaving mid-game ended the match")
	}
	if state.Seats[0] != "u1" {
		t.Error("leaver's seat was freed during a running game")
	}
	if len(dispatcher.byOpCode(OpGameEnded)) != 0 {
		t.Error("a disconnect produced a game end")
	}

	// Reconnect: the seat is recognized and the board is replayed privately.
	_, ok, _ := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, dispatcher, 3, state, &mockPresence{userID: "u1"}, nil)
	if !ok {
		t.Fatal("seated player denied reconnection")
	}
	before := len(dispatcher.byOpCode(OpGameStarted))
	mh.MatchJoin(context.WithValue(ctx, runtime.RUNTIME_CTX_MATCH_ID, "match-1"), noopLogger{}, nil, nil, dispatcher, 3, state,
		[]runtime.Presence{&mockPresence{userID: "u1"}})

	snapshots := dispatcher.byOpCode(OpGameStarted)
	if len(snapshots) != before+1 {
		t.Fatalf("reconnect sent %d snapshots, want 1", len(snapshots)-before)
	}
	replay := snapshots[len(snapshots)-1]
	if len(replay.recipients) != 1 || replay.recipients[0].GetUserId() != "u1" {
		t.Error("board replay not targeted at the reconnecting player")
	}
}

func TestMatchLeaveLastPlayerTerminates(t *testing.T) {
	mh := &matchHandler{}
	state := newTestState()
	dispatcher := &mockDispatcher{}
	joinAll(t, mh, state, dispatcher)

	all := make([]runtime.Presence, 0, 4)
	for _, id := range testUserIDs {
		all = append(all, &mockPresence{userID: id})
	}
	result := mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, all)
	if result != nil {
		t.Fatal("empty match not terminated")
	}
}
