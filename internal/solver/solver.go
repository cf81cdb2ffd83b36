// internal/solver/solver.go
//
// Adaptive guessing strategy that recovers the 32-symbol secret behind a
// Flagdle feedback channel. One run walks three sequential phases:
//   - Inventory scan: 16 repeated-symbol guesses establish how many of each
//     alphabet symbol the secret contains, and pick a filler known (or
//     assumed) absent.
//   - Positional placement: every unresolved position is probed with one
//     candidate symbol at a time, filler everywhere else; an exact match at
//     the probed position locks it.
//   - Cleanup search: if duplicates left positions unresolved, distinct
//     permutations of the unplaced symbols are tried over the open slots
//     until the whole feedback reads exact-match.
//
// The run is strictly sequential with a single request in flight; every
// channel failure aborts it.
package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ctfkit/flagdle/internal/game"
)

// unknown marks a solution-buffer slot that has not been locked yet.
const unknown = '?'

// fallbackFiller pads probes when every alphabet symbol occurs in the
// secret. It lies outside the hex alphabet, so a well-formed secret can
// never contain it; a server that scores non-hex symbols as anything but
// absent would silently corrupt the placement probes, which is why engaging
// it is logged as a warning.
const fallbackFiller = 'g'

// ErrSearchExhausted reports that the cleanup phase tried every distinct
// permutation of the unplaced symbols without the server confirming a full
// match. If the inventory and placement invariants held, this cannot
// happen; it signals a defect, not a recoverable condition.
var ErrSearchExhausted = errors.New("cleanup search exhausted all permutations")

// errSolved unwinds the permutation walk once the channel confirms a full
// match.
var errSolved = errors.New("solved")

// Channel submits one guess body to the challenge and reports per-position
// marks. Implementations must return exactly game.BodyLength marks or an
// error.
type Channel interface {
	Probe(ctx context.Context, body string) ([]game.Mark, error)
}

// Inventory maps each alphabet symbol to its occurrence count.
type Inventory map[byte]int

// Total sums the counts across all symbols.
func (inv Inventory) Total() int {
	n := 0
	for _, c := range inv {
		n += c
	}
	return n
}

func (inv Inventory) clone() Inventory {
	out := make(Inventory, len(inv))
	for k, v := range inv {
		out[k] = v
	}
	return out
}

// Result is the outcome of a completed run.
type Result struct {
	Body     string        // the 32 recovered symbols
	Flag     string        // Body in the wrapped flag format
	Requests int           // guesses submitted across all phases
	Elapsed  time.Duration // wall time of the run
	Cleanup  bool          // whether the cleanup search was needed
}

// Solver drives the three phases over a feedback channel.
type Solver struct {
	ch       Channel
	requests int
}

// New returns a Solver bound to the given feedback channel.
func New(ch Channel) *Solver {
	return &Solver{ch: ch}
}

// Run executes inventory, placement, and (when needed) cleanup, returning
// the recovered flag. Any channel error aborts the run; ctx cancellation
// surfaces as the context error.
func (s *Solver) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	inv, filler, err := s.scanInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory scan: %w", err)
	}

	buf, remaining, err := s.placeSymbols(ctx, inv, filler)
	if err != nil {
		return nil, fmt.Errorf("positional placement: %w", err)
	}

	cleanup := bytes.IndexByte(buf, unknown) >= 0
	if cleanup {
		buf, err = s.searchLeftovers(ctx, buf, remaining)
		if err != nil {
			return nil, fmt.Errorf("cleanup search: %w", err)
		}
	}

	body := string(buf)
	log.Info().
		Str("body", body).
		Int("requests", s.requests).
		Bool("cleanup", cleanup).
		Msg("secret recovered")

	return &Result{
		Body:     body,
		Flag:     game.Wrap(body),
		Requests: s.requests,
		Elapsed:  time.Since(start),
		Cleanup:  cleanup,
	}, nil
}

// probe counts and forwards one guess. The explicit ctx check keeps an
// operator interrupt effective even against channels that ignore contexts.
func (s *Solver) probe(ctx context.Context, body string) ([]game.Mark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.requests++
	return s.ch.Probe(ctx, body)
}

// scanInventory learns the occurrence count of every alphabet symbol with
// one repeated-symbol guess each, and picks the filler: the first symbol
// whose feedback came back all-absent, or the out-of-alphabet fallback when
// every symbol occurs.
func (s *Solver) scanInventory(ctx context.Context) (Inventory, byte, error) {
	inv := make(Inventory, len(game.Alphabet))
	var filler byte

	for i := 0; i < len(game.Alphabet); i++ {
		sym := game.Alphabet[i]
		marks, err := s.probe(ctx, strings.Repeat(string(sym), game.BodyLength))
		if err != nil {
			return nil, 0, err
		}
		count := 0
		for _, m := range marks {
			if m == game.MarkHit || m == game.MarkPresent {
				count++
			}
		}
		inv[sym] = count
		if count == 0 && filler == 0 {
			filler = sym
		}
		log.Debug().Str("symbol", string(sym)).Int("count", count).Msg("scanned symbol")
	}

	if filler == 0 {
		filler = fallbackFiller
		log.Warn().
			Str("filler", string(filler)).
			Msg("every alphabet symbol occurs in the secret, probing with an out-of-alphabet filler")
	}

	log.Info().
		Int("total", inv.Total()).
		Str("filler", string(filler)).
		Msg("inventory complete")
	return inv, filler, nil
}

// placeSymbols resolves positions one at a time. For each open position it
// tries every symbol that still has remaining count, keeping locked symbols
// in place and padding the rest with the filler; an exact match at the
// probed position locks that symbol there. Positions no candidate matched
// stay unknown for the cleanup phase.
func (s *Solver) placeSymbols(ctx context.Context, inv Inventory, filler byte) ([]byte, Inventory, error) {
	buf := bytes.Repeat([]byte{unknown}, game.BodyLength)
	remaining := inv.clone()

	for pos := 0; pos < game.BodyLength; pos++ {
		if buf[pos] != unknown {
			continue
		}
		for i := 0; i < len(game.Alphabet); i++ {
			sym := game.Alphabet[i]
			if remaining[sym] == 0 {
				continue
			}
			marks, err := s.probe(ctx, string(probeBody(buf, pos, sym, filler)))
			if err != nil {
				return nil, nil, err
			}
			if marks[pos] == game.MarkHit {
				buf[pos] = sym
				remaining[sym]--
				log.Info().Int("position", pos).Str("symbol", string(sym)).Msg("position locked")
				break
			}
		}
	}
	return buf, remaining, nil
}

// probeBody builds one placement guess: locked symbols stay, the candidate
// goes at the probed position, the filler everywhere still unresolved.
func probeBody(buf []byte, pos int, candidate, filler byte) []byte {
	out := make([]byte, len(buf))
	for i, b := range buf {
		switch {
		case b != unknown:
			out[i] = b
		case i == pos:
			out[i] = candidate
		default:
			out[i] = filler
		}
	}
	return out
}

// searchLeftovers enumerates distinct permutations of the unplaced symbol
// multiset over the open slots, submitting one guess per permutation and
// accepting the first all-hit response. Exponential in the duplicate count
// by nature; it is only ever reached when placement left ambiguity, which
// an honest exact-match channel does not produce.
func (s *Solver) searchLeftovers(ctx context.Context, buf []byte, remaining Inventory) ([]byte, error) {
	slots := make([]int, 0, len(buf))
	for i, b := range buf {
		if b == unknown {
			slots = append(slots, i)
		}
	}
	if len(slots) == 0 {
		return buf, nil
	}

	log.Info().
		Int("slots", len(slots)).
		Int("unplaced", remaining.Total()).
		Msg("starting cleanup search")

	candidate := append([]byte(nil), buf...)
	counts := remaining.clone()

	var try func(k int) error
	try = func(k int) error {
		if k == len(slots) {
			marks, err := s.probe(ctx, string(candidate))
			if err != nil {
				return err
			}
			if game.AllHit(marks) {
				return errSolved
			}
			return nil
		}
		for i := 0; i < len(game.Alphabet); i++ {
			sym := game.Alphabet[i]
			if counts[sym] == 0 {
				continue
			}
			counts[sym]--
			candidate[slots[k]] = sym
			if err := try(k + 1); err != nil {
				return err
			}
			counts[sym]++
		}
		return nil
	}

	switch err := try(0); {
	case errors.Is(err, errSolved):
		return candidate, nil
	case err != nil:
		return nil, err
	default:
		return nil, ErrSearchExhausted
	}
}
