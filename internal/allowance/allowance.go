// Package allowance holds the daily-limit arithmetic. It is pure on
// purpose: the ledger owns reading consumption, this package only
// decides what a given state means.
package allowance

// Remaining returns the units a customer may still buy today. Never
// negative, even when past purchases overshoot the limit (the limit
// may have been lowered since).
func Remaining(dailyLimit, consumedToday float64) float64 {
	remaining := dailyLimit - consumedToday
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanPurchase reports whether a purchase of the given units fits the
// remaining allowance. Equality is allowed: a purchase that lands
// exactly on the limit goes through.
func CanPurchase(remaining, units float64) bool {
	return units <= remaining
}
