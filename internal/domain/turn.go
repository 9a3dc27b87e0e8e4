package domain

import "time"

// TurnManager tracks whose team moves, a monotonically increasing turn
// counter, and when the current turn started. The start timestamp backs a
// duration-based timeout check usable instead of (or as a safety net for)
// externally scheduled timers.
type TurnManager struct {
	currentTeam Team
	turnNumber  int
	turnStart   time.Time
	timeout     time.Duration
}

// NewTurnManager starts counting with the given team to move.
func NewTurnManager(firstTeam Team, timeout time.Duration) *TurnManager {
	return &TurnManager{
		currentTeam: firstTeam,
		turnStart:   time.Now(),
		timeout:     timeout,
	}
}

// StartTurn resets the turn's start time to now.
func (t *TurnManager) StartTurn() {
	t.turnStart = time.Now()
}

// Remaining returns how much of the turn's time budget is left.
func (t *TurnManager) Remaining() time.Duration {
	return t.timeout - time.Since(t.turnStart)
}

// IsTimedOut reports whether the current turn has used up its budget.
func (t *TurnManager) IsTimedOut() bool {
	return time.Since(t.turnStart) >= t.timeout
}

// NextTurn hands the move to the other team and restarts the turn timer.
func (t *TurnManager) NextTurn() {
	t.turnNumber++
	t.currentTeam = t.currentTeam.Switch()
	t.StartTurn()
}

// CurrentTeam returns the team to move.
func (t *TurnManager) CurrentTeam() Team {
	return t.currentTeam
}

// TurnNumber returns the number of completed turns.
func (t *TurnManager) TurnNumber() int {
	return t.turnNumber
}
