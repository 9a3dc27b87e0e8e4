package nakama

const (
	// RpcFindMatch is the Nakama RPC id clients call to find or create a match
	// with open seats.
	RpcFindMatch = "find_match"

	// MatchNameShogi is the authoritative match handler name registered with
	// Nakama.
	MatchNameShogi = "shogi2vs2_match"

	// MatchLabelKeyOpenSeats is the label key used to filter joinable matches.
	MatchLabelKeyOpenSeats = "open"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpSubmitMove int64 = 1
	OpSubmitDrop int64 = 2
	OpResign     int64 = 3

	// Server -> Client events
	OpPlayerJoined   int64 = 101
	OpGameStarted    int64 = 102
	OpWaitingPartner int64 = 103
	OpTurnResolved   int64 = 104
	OpGameEnded      int64 = 105
	OpGameError      int64 = 110
)
