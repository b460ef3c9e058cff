package dice

// Roll evaluates expr using src.
//
// Postcondition: len(result.Dice) == expr.Count and every die is in [1, Sides].
func Roll(expr Expression, src Source) RollResult {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	raw := expr.Raw
	if raw == "" {
		raw = expr.String()
	}
	return RollResult{Expression: raw, Dice: rolled, Modifier: expr.Modifier}
}

// RollDice rolls n dice with the given number of sides and returns the sum.
//
// Precondition: n >= 0, sides >= 1.
func RollDice(src Source, n, sides int) int {
	total := 0
	for i := 0; i < n; i++ {
		total += src.Intn(sides) + 1
	}
	return total
}

// Range returns a value in [lo, hi). When hi <= lo it returns lo.
func Range(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo)
}
