package domain

// Player holds the domain state for one of the four participants.
type Player struct {
	ID        string
	Team      Team
	Resigned  bool
	Connected bool
}

// NewPlayer constructs a connected, non-resigned player.
func NewPlayer(id string, team Team) *Player {
	return &Player{ID: id, Team: team, Connected: true}
}
