package domain

// Team identifies one of the two sides. Each team is played by two users.
type Team uint8

const (
	TeamFirst Team = iota
	TeamSecond
)

// Switch returns the opposing team.
func (t Team) Switch() Team {
	if t == TeamFirst {
		return TeamSecond
	}
	return TeamFirst
}

func (t Team) String() string {
	if t == TeamFirst {
		return "FIRST"
	}
	return "SECOND"
}

// ParseTeam maps a wire team id to a Team.
func ParseTeam(s string) (Team, bool) {
	switch s {
	case "FIRST":
		return TeamFirst, true
	case "SECOND":
		return TeamSecond, true
	default:
		return TeamFirst, false
	}
}
