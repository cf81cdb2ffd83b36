// internal/game/engine.go
//
// Scoring engine shared by the practice server and the solver tests.
// Responsibilities:
//   - Score guesses against a secret using the classic two-pass Wordle
//     algorithm, generalized to the 16-symbol hex alphabet.
//   - Bytes outside the alphabet (such as an out-of-alphabet filler) never
//     count and always score miss.
//
// Notes:
//   - Mark is an enum defined in this package (MarkHit/MarkPresent/MarkMiss).
//   - Callers are expected to validate lengths; Score assumes
//     len(secret) == len(guess).
package game

// Score implements the standard Wordle two-pass scoring algorithm.
//
// Pass 1:
//   - Mark exact matches as Hit.
//   - Count remaining (non-hit) secret symbols by alphabet index.
//
// Pass 2:
//   - For each non-hit guess symbol: if there is remaining count for that
//     symbol, mark Present and decrement the count; otherwise mark Miss.
//
// This ensures correct behavior with repeated symbols in both secret and
// guess, which is exactly what makes single-position probing ambiguous for
// a solver.
func Score(secret, guess string) []Mark {
	n := len(guess)
	res := make([]Mark, n)

	// Symbol frequency for the non-hit positions.
	var counts [16]int

	// First pass: mark hits and collect counts for remaining secret symbols.
	for i := 0; i < n; i++ {
		if guess[i] == secret[i] {
			res[i] = MarkHit
		} else if j := SymbolIndex(secret[i]); j >= 0 {
			counts[j]++
		}
	}

	// Second pass: resolve presents/misses for non-hit positions.
	for i := 0; i < n; i++ {
		if res[i] == MarkHit {
			continue
		}
		j := SymbolIndex(guess[i])
		if j >= 0 && counts[j] > 0 {
			res[i] = MarkPresent
			counts[j]--
		} else {
			res[i] = MarkMiss
		}
	}
	return res
}

// AllHit returns true if all marks are MarkHit.
func AllHit(marks []Mark) bool {
	for _, m := range marks {
		if m != MarkHit {
			return false
		}
	}
	return true
}
