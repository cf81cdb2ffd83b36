// internal/game/types.go
//
// Core type definitions for the Flagdle challenge.
// Defines:
//   - Mark: per-position result of a guess (hit/present/miss).
//   - The wire glyph vocabulary (🟩/🟨/⬛) and its codec.
//   - The flag wrapper format and the fixed hex alphabet.

package game

import (
	"errors"
	"fmt"
	"strings"
)

// Mark represents the evaluation result for a single position in a guess.
// Possible values:
//   - "hit":     symbol is correct and in the correct position.
//   - "present": symbol exists in the secret but in a different position.
//   - "miss":    symbol does not occur in the unresolved part of the secret.
type Mark string

const (
	MarkHit     Mark = "hit"
	MarkPresent Mark = "present"
	MarkMiss    Mark = "miss"
)

// Feedback glyphs as served by the challenge endpoint.
const (
	GlyphHit     = '🟩'
	GlyphPresent = '🟨'
	GlyphMiss    = '⬛'
)

const (
	// BodyLength is the number of symbols in the flag body and in every
	// feedback sequence.
	BodyLength = 32

	// Alphabet is the fixed ordered symbol set the secret is drawn from.
	Alphabet = "0123456789abcdef"

	flagPrefix = "flag{"
	flagSuffix = "}"
)

// ErrFeedbackLength reports feedback that is not exactly BodyLength glyphs.
var ErrFeedbackLength = errors.New("feedback length mismatch")

// Wrap surrounds a 32-symbol body with the flag format the server expects.
func Wrap(body string) string {
	return flagPrefix + body + flagSuffix
}

// Unwrap strips the flag wrapper and reports whether the guess was
// well-formed: exact prefix, exact suffix, and a BodyLength-byte body.
func Unwrap(guess string) (string, bool) {
	if !strings.HasPrefix(guess, flagPrefix) || !strings.HasSuffix(guess, flagSuffix) {
		return "", false
	}
	body := guess[len(flagPrefix) : len(guess)-len(flagSuffix)]
	if len(body) != BodyLength {
		return "", false
	}
	return body, true
}

// ValidBody reports whether s is exactly BodyLength symbols of the alphabet.
func ValidBody(s string) bool {
	if len(s) != BodyLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if SymbolIndex(s[i]) < 0 {
			return false
		}
	}
	return true
}

// SymbolIndex maps an alphabet byte to 0..15, or -1 for anything else.
func SymbolIndex(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	}
	return -1
}

// DecodeFeedback converts a glyph string into per-position marks.
// Unrecognized glyphs decode to MarkMiss; the server only ever sends the
// three known glyphs, so anything else is read as absent rather than
// rejected. Returns ErrFeedbackLength if the string is not exactly
// BodyLength glyphs.
func DecodeFeedback(s string) ([]Mark, error) {
	marks := make([]Mark, 0, BodyLength)
	for _, r := range s {
		switch r {
		case GlyphHit:
			marks = append(marks, MarkHit)
		case GlyphPresent:
			marks = append(marks, MarkPresent)
		default:
			marks = append(marks, MarkMiss)
		}
	}
	if len(marks) != BodyLength {
		return nil, fmt.Errorf("%w: got %d glyphs in %q", ErrFeedbackLength, len(marks), s)
	}
	return marks, nil
}

// EncodeFeedback renders marks as the wire glyph string.
func EncodeFeedback(marks []Mark) string {
	var b strings.Builder
	for _, m := range marks {
		switch m {
		case MarkHit:
			b.WriteRune(GlyphHit)
		case MarkPresent:
			b.WriteRune(GlyphPresent)
		default:
			b.WriteRune(GlyphMiss)
		}
	}
	return b.String()
}
