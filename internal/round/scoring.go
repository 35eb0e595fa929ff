package round

import "math"

// roundHalfUp rounds to the nearest integer with halves going toward +Inf.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// SpeedScore awards a base of 10 plus half a point per second left.
func SpeedScore(timeLeft float64) int {
	return 10 + roundHalfUp(timeLeft*0.5)
}

// MatchScore scores a fully solved memory deck. Moves beyond the minimum of one per
// pair cost half a point each.
func MatchScore(timeLeft float64, moves, totalPairs int) int {
	penalty := max(0, roundHalfUp(float64(moves-totalPairs)*0.5))
	return max(5, 20+roundHalfUp(timeLeft*2)-penalty)
}

// MatchTimeoutScore scores an unfinished memory deck.
func MatchTimeoutScore(matchedPairs int) int {
	return max(0, matchedPairs*5)
}

// MatchPercentage is the share of zones holding their own item, in percent.
func MatchPercentage(matches, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(matches) / float64(total) * 100
}

// PlacementScore scores a placement round where every item was placed.
func PlacementScore(matchPercentage, timeLeft float64) int {
	return max(5, roundHalfUp(matchPercentage/100*20)+roundHalfUp(timeLeft*0.5))
}

// PlacementTimeoutScore scores a placement round that ended before every item was placed.
func PlacementTimeoutScore(placed, total int) int {
	if total == 0 {
		return 0
	}
	return max(0, roundHalfUp(float64(placed)/float64(total)*10))
}
