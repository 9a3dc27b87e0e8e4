package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"

	"shogi2vs2/internal/app"
	"shogi2vs2/internal/config"
	"shogi2vs2/internal/domain"
	"shogi2vs2/internal/kv"

	"github.com/heroiclabs/nakama-common/runtime"
)

// pendingEvents collects events produced off the match loop, such as turn
// timeout resolutions, until the next tick can dispatch them. Nakama's
// dispatcher is only safe to use from match callbacks.
type pendingEvents struct {
	mu     sync.Mutex
	events []app.Event
}

func (q *pendingEvents) Publish(gameID string, events []app.Event) {
	q.mu.Lock()
	q.events = append(q.events, events...)
	q.mu.Unlock()
}

func (q *pendingEvents) drain() []app.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out
}

// MatchState holds the authoritative runtime state for the Nakama match
// handler.
type MatchState struct {
	Seats     [4]string                   `json:"seats"` // slots 0,1 FIRST; slots 2,3 SECOND
	Started   bool                        `json:"started"`
	Finished  bool                        `json:"finished"`
	GameID    string                      `json:"game_id"`
	Presences map[string]runtime.Presence `json:"-"`
	App       *app.Service                `json:"-"`
	Pending   *pendingEvents              `json:"-"`
}

func (ms *MatchState) openSeatCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) seatOf(userID string) int {
	for i, seat := range ms.Seats {
		if seat == userID {
			return i
		}
	}
	return -1
}

func teamForSeat(slot int) domain.Team {
	if slot < 2 {
		return domain.TeamFirst
	}
	return domain.TeamSecond
}

// seatsForTeam returns the user ids seated on the given team.
func (ms *MatchState) seatsForTeam(team domain.Team) []string {
	var out []string
	for i, userID := range ms.Seats {
		if userID != "" && teamForSeat(i) == team {
			out = append(out, userID)
		}
	}
	return out
}

type matchLabel struct {
	Open  int    `json:"open"`
	Game  string `json:"game"`
	State string `json:"state"`
}

func newMatchHandler() runtime.Match {
	return &matchHandler{}
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	configPath := "data/game_config.json"
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if val, ok := env["shogi_config_path"]; ok && val != "" {
			configPath = val
		}
	}
	if err := config.LoadGameConfig(configPath); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}
	cfg := config.GetGameConfig()

	store, err := kv.NewStore(ctx, cfg)
	if err != nil {
		logger.Warn("MatchInit: Store unavailable, falling back to memory: %v", err)
		store = kv.NewMemory()
	}

	pending := &pendingEvents{}
	state := &MatchState{
		Presences: make(map[string]runtime.Presence),
		App:       app.NewService(store, cfg, pending),
		Pending:   pending,
	}

	labelBytes, err := json.Marshal(matchLabel{
		Open:  state.openSeatCount(),
		Game:  "shogi2vs2",
		State: "lobby",
	})
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, string(labelBytes)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	if matchState.Started {
		// Only seated players may come back into a running match.
		if matchState.seatOf(presence.GetUserId()) >= 0 {
			return state, true, ""
		}
		return state, false, "Match already started"
	}
	if matchState.openSeatCount() <= 0 {
		return state, false, "Match full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p

		if seat := matchState.seatOf(p.GetUserId()); seat >= 0 {
			// Reconnect: restore the flag and replay the board state to
			// the returning player in their own frame.
			if err := matchState.App.SetConnected(matchState.GameID, p.GetUserId(), true); err == nil {
				logger.Info("MatchJoin: User %s reconnected to seat %d.", p.GetUserId(), seat)
				if snapshot, err := matchState.App.Snapshot(matchState.GameID); err == nil {
					for _, ev := range snapshot {
						mh.send(matchState, dispatcher, logger, eventViewFor(teamForSeat(seat), ev), []string{p.GetUserId()})
					}
				}
			}
			continue
		}

		assigned := false
		for i, seatUserID := range matchState.Seats {
			if seatUserID == "" {
				matchState.Seats[i] = p.GetUserId()
				assigned = true
				mh.broadcastPlayerJoined(matchState, dispatcher, logger, p.GetUserId(), i)
				break
			}
		}
		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat was available.", p.GetUserId())
		}
	}

	if !matchState.Started && matchState.openSeatCount() == 0 {
		matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
		matchState.GameID = matchID

		events, err := matchState.App.CreateGame(matchID, matchState.Seats)
		if err != nil {
			logger.Error("MatchJoin: Failed to start game: %v", err)
		} else {
			matchState.Started = true
			mh.dispatchEvents(matchState, dispatcher, logger, events)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave is called when one or more players leave the match. A running
// game keeps the leaver's seat and marks them disconnected; the turn clock
// and forced release carry their team until they return or the match ends.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())

		if matchState.Started {
			if err := matchState.App.SetConnected(matchState.GameID, p.GetUserId(), false); err == nil {
				logger.Debug("MatchLeave: User %s disconnected, seat kept.", p.GetUserId())
			}
		} else if seat := matchState.seatOf(p.GetUserId()); seat >= 0 {
			matchState.Seats[seat] = ""
			logger.Debug("MatchLeave: User %s left, seat %d freed.", p.GetUserId(), seat)
		}
	}

	if len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: Terminating empty match.")
		matchState.App.Drop(ctx, matchState.GameID)
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	// Timeout resolutions arrive between ticks; flush them first so clients
	// see the forced turn before any reaction to it.
	if deferred := matchState.Pending.drain(); len(deferred) > 0 {
		mh.dispatchEvents(matchState, dispatcher, logger, deferred)
		mh.noteGameEnd(matchState, deferred)
	}

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpSubmitMove:
			mh.handleSubmitMove(ctx, matchState, dispatcher, logger, msg)
		case OpSubmitDrop:
			mh.handleSubmitDrop(ctx, matchState, dispatcher, logger, msg)
		case OpResign:
			mh.handleResign(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.Finished {
		logger.Info("MatchLoop: Game over, terminating match.")
		return nil
	}
	return matchState
}

func (mh *matchHandler) handleSubmitMove(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	seat := state.seatOf(senderID)
	if !state.Started || seat < 0 {
		mh.sendError(state, dispatcher, logger, senderID, 400, "not in a running game")
		return
	}

	var req MoveRequest
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Warn("handleSubmitMove: Invalid request from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, "invalid move request")
		return
	}

	action, err := moveToAction(teamForSeat(seat), req)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	events, err := state.App.SubmitAction(ctx, state.GameID, senderID, action)
	if err != nil {
		logger.Warn("handleSubmitMove: User %s rejected: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.dispatchEvents(state, dispatcher, logger, events)
	mh.noteGameEnd(state, events)
}

func (mh *matchHandler) handleSubmitDrop(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	seat := state.seatOf(senderID)
	if !state.Started || seat < 0 {
		mh.sendError(state, dispatcher, logger, senderID, 400, "not in a running game")
		return
	}

	var req DropRequest
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Warn("handleSubmitDrop: Invalid request from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, "invalid drop request")
		return
	}

	action, err := dropToAction(teamForSeat(seat), req)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	events, err := state.App.SubmitAction(ctx, state.GameID, senderID, action)
	if err != nil {
		logger.Warn("handleSubmitDrop: User %s rejected: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.dispatchEvents(state, dispatcher, logger, events)
	mh.noteGameEnd(state, events)
}

func (mh *matchHandler) handleResign(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if !state.Started {
		mh.sendError(state, dispatcher, logger, senderID, 400, "not in a running game")
		return
	}

	events, err := state.App.Resign(ctx, state.GameID, senderID)
	if err != nil {
		logger.Warn("handleResign: User %s rejected: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.dispatchEvents(state, dispatcher, logger, events)
	mh.noteGameEnd(state, events)
}

// noteGameEnd marks the match finished when the dispatched events include
// a game end. The loop terminates a finished match at the end of the same
// tick, after the final broadcasts have gone out, so the stale seat map
// never lingers as a lobby nobody can join.
func (mh *matchHandler) noteGameEnd(state *MatchState, events []app.Event) {
	for _, ev := range events {
		if ev.Kind == app.EventGameEnded {
			state.Started = false
			state.Finished = true
		}
	}
}

// dispatchEvents converts app events into opcode messages. Board-bearing
// payloads are sent twice: the canonical view to the home side and the
// rotated view to the opposing side, so each client always sees itself
// moving up the board.
func (mh *matchHandler) dispatchEvents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		switch ev.Kind {
		case app.EventGameStarted, app.EventTurnResolved:
			mh.sendPerTeam(state, dispatcher, logger, ev)
		case app.EventWaitingPartner:
			p, ok := ev.Payload.(app.WaitingPartnerPayload)
			if !ok {
				continue
			}
			// Only the submitter learns their action is buffered; the
			// partner must not be tipped off that a pair is half-formed.
			mh.send(state, dispatcher, logger, ev, []string{p.UserID})
		case app.EventGameEnded:
			mh.send(state, dispatcher, logger, ev, nil)
		default:
			logger.Warn("Unknown event kind: %v", ev.Kind)
		}
	}
}

func (mh *matchHandler) sendPerTeam(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	for _, team := range []domain.Team{domain.TeamFirst, domain.TeamSecond} {
		recipients := state.seatsForTeam(team)
		if len(recipients) == 0 {
			continue
		}
		mh.send(state, dispatcher, logger, eventViewFor(team, ev), recipients)
	}
}

// send marshals and broadcasts one event. An empty recipients list means
// broadcast to everyone.
func (mh *matchHandler) send(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event, recipients []string) {
	opCode, ok := opCodeFor(ev.Kind)
	if !ok {
		logger.Warn("No opcode for event kind: %v", ev.Kind)
		return
	}

	bytes, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	var targets []runtime.Presence
	if len(recipients) > 0 {
		for _, uid := range recipients {
			if p, ok := state.Presences[uid]; ok {
				targets = append(targets, p)
			}
		}
		// Intended recipients who are all disconnected must not widen into
		// a broadcast.
		if len(targets) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, targets, nil, true)
}

func opCodeFor(kind app.EventKind) (int64, bool) {
	switch kind {
	case app.EventGameStarted:
		return OpGameStarted, true
	case app.EventWaitingPartner:
		return OpWaitingPartner, true
	case app.EventTurnResolved:
		return OpTurnResolved, true
	case app.EventGameEnded:
		return OpGameEnded, true
	default:
		return 0, false
	}
}

type playerJoinedEvent struct {
	UserID string `json:"userId"`
	Seat   int    `json:"seat"`
	TeamID string `json:"teamId"`
}

func (mh *matchHandler) broadcastPlayerJoined(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, seat int) {
	bytes, err := json.Marshal(playerJoinedEvent{
		UserID: userID,
		Seat:   seat,
		TeamID: teamForSeat(seat).String(),
	})
	if err != nil {
		logger.Error("Failed to marshal playerJoinedEvent: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpPlayerJoined, bytes, nil, nil, true)
}

// sendError sends a GameErrorEvent to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	bytes, err := json.Marshal(GameErrorEvent{Code: code, Message: message})
	if err != nil {
		logger.Error("Failed to marshal GameErrorEvent: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	labelState := "lobby"
	if state.Started {
		labelState = "playing"
	}

	labelBytes, err := json.Marshal(matchLabel{
		Open:  state.openSeatCount(),
		Game:  "shogi2vs2",
		State: labelState,
	})
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	if matchState, ok := state.(*MatchState); ok && matchState.GameID != "" {
		matchState.App.Drop(ctx, matchState.GameID)
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
