package models

// State is the per-account game state. The client owns the counters and
// the server replaces its copy wholesale on every sync, so JSON field
// names here are the wire format.
type State struct {
	TotalSeconds        int         `json:"totalSeconds"`
	CoinsSpent          int         `json:"coinsSpent"`
	Cards               []CardLevel `json:"cards"`
	CoinsClaimed        int         `json:"coinsClaimed"`
	CoinEventsTriggered int         `json:"coinEventsTriggered"`
}

// NewState returns the zero state a fresh account starts with.
func NewState() State {
	return State{Cards: []CardLevel{}}
}

// LastCards returns up to n most recent draw outcomes, oldest first.
func (s State) LastCards(n int) []CardLevel {
	if n <= 0 || len(s.Cards) == 0 {
		return []CardLevel{}
	}
	if len(s.Cards) <= n {
		out := make([]CardLevel, len(s.Cards))
		copy(out, s.Cards)
		return out
	}
	out := make([]CardLevel, n)
	copy(out, s.Cards[len(s.Cards)-n:])
	return out
}
