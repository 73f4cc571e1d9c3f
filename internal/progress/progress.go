package progress

import "math"

// Compute returns the typing-accuracy completion percentage for a flashcode
// attempt.
//
// 100 is returned iff input matches target character for character; this is
// stricter than the rounded ratio reaching 100 and is checked first, so a
// full-length attempt with a trailing mismatch never shows 100%. Otherwise
// the score is the rounded share of matching positions over the prefix
// overlap, relative to the target length.
func Compute(target, input string) int {
	if len(target) == 0 {
		return 0
	}
	if input == target {
		return 100
	}

	n := len(input)
	if len(target) < n {
		n = len(target)
	}

	matches := 0
	for i := 0; i < n; i++ {
		if input[i] == target[i] {
			matches++
		}
	}

	pct := int(math.Round(100 * float64(matches) / float64(len(target))))
	if pct >= 100 {
		// Rounding may hit 100 without exact equality; cap below it.
		pct = 99
	}
	return pct
}
