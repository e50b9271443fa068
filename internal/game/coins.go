package game

import "time"

// Coin economy constants. Interval and window are the defaults; both
// are configurable on the session runner.
const (
	// BaseCoins is granted to every account when it begins.
	BaseCoins = 2

	// DrawCost is spent on every card draw.
	DrawCost = 3

	// DefaultCoinInterval is the active time between two coin events.
	DefaultCoinInterval = 20 * time.Second

	// DefaultCoinWindow is how long a spawned coin stays claimable.
	DefaultCoinWindow = 3 * time.Second
)

// ThresholdIndex is the count of coin-eligible intervals reached at
// totalSeconds. coinInterval is in whole seconds and must be positive.
func ThresholdIndex(totalSeconds, coinInterval int) int {
	if coinInterval <= 0 {
		return 0
	}
	return totalSeconds / coinInterval
}

// EvaluateThreshold reports whether a new coin event fires at
// totalSeconds, and the coinEventsTriggered value to record if it does.
//
// A single event fires no matter how many thresholds were crossed since
// the last trigger (e.g. after the client was backgrounded across
// several intervals); intermediate thresholds are not separately
// claimable. No event fires while a coin offer is already pending.
func EvaluateThreshold(totalSeconds, coinEventsTriggered, coinInterval int, pending bool) (fired bool, newTriggered int) {
	idx := ThresholdIndex(totalSeconds, coinInterval)
	if idx > coinEventsTriggered && !pending {
		return true, idx
	}
	return false, coinEventsTriggered
}

// AvailableCoins derives the spendable balance from claim/spend
// history. It is never persisted; always recompute.
func AvailableCoins(claimed, spent int) int {
	return BaseCoins + claimed - spent
}

// CanDraw reports whether the balance covers one draw.
func CanDraw(claimed, spent int) bool {
	return AvailableCoins(claimed, spent) >= DrawCost
}
