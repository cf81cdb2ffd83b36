package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctfkit/flagdle/internal/game"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

// mkBody builds a full-length body of base symbols with a few positions
// substituted.
func mkBody(base byte, subs map[int]byte) string {
	b := bytes.Repeat([]byte{base}, game.BodyLength)
	for i, c := range subs {
		b[i] = c
	}
	return string(b)
}

// scoreChannel scores probes against a fixed secret the way the real
// endpoint does.
type scoreChannel struct {
	secret string
	probes int
}

func (c *scoreChannel) Probe(_ context.Context, body string) ([]game.Mark, error) {
	c.probes++
	return game.Score(c.secret, body), nil
}

// hidingChannel reports chosen positions as present instead of hit unless
// the whole guess matches, so placement cannot lock them and the run has to
// fall through to the cleanup search.
type hidingChannel struct {
	secret string
	hide   map[int]bool
	probes int
}

func (c *hidingChannel) Probe(_ context.Context, body string) ([]game.Mark, error) {
	c.probes++
	marks := game.Score(c.secret, body)
	if game.AllHit(marks) {
		return marks, nil
	}
	for pos := range c.hide {
		if marks[pos] == game.MarkHit {
			marks[pos] = game.MarkPresent
		}
	}
	return marks, nil
}

// missChannel never confirms anything.
type missChannel struct {
	probes int
}

func (c *missChannel) Probe(context.Context, string) ([]game.Mark, error) {
	c.probes++
	marks := make([]game.Mark, game.BodyLength)
	for i := range marks {
		marks[i] = game.MarkMiss
	}
	return marks, nil
}

type errChannel struct {
	err error
}

func (c errChannel) Probe(context.Context, string) ([]game.Mark, error) {
	return nil, c.err
}

// tripChannel fires a callback after a fixed number of probes, then keeps
// delegating.
type tripChannel struct {
	inner Channel
	after int
	trip  func()
	seen  int
}

func (c *tripChannel) Probe(ctx context.Context, body string) ([]game.Mark, error) {
	c.seen++
	if c.seen == c.after {
		c.trip()
	}
	return c.inner.Probe(ctx, body)
}

func TestRunRecoversSecret(t *testing.T) {
	cases := []struct {
		name   string
		secret string
	}{
		{"single symbol", strings.Repeat("0", game.BodyLength)},
		{"two strays", mkBody('0', map[int]byte{3: '1', 17: '2'})},
		{"every symbol present", "0123456789abcdef0123456789abcdef"},
		{"hex words", "d3adb33fc0ffeec0d3adb33fc0ffeec0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ch := &scoreChannel{secret: tc.secret}
			res, err := New(ch).Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.secret, res.Body)
			assert.Equal(t, game.Wrap(tc.secret), res.Flag)
			assert.False(t, res.Cleanup)
			assert.Equal(t, ch.probes, res.Requests)
			assert.LessOrEqual(t, res.Requests, len(game.Alphabet)+game.BodyLength*len(game.Alphabet))
		})
	}
}

func TestRunRequestCountSingleSymbolSecret(t *testing.T) {
	// 16 inventory probes, then one probe per position because only one
	// symbol has remaining count.
	ch := &scoreChannel{secret: strings.Repeat("0", game.BodyLength)}
	res, err := New(ch).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 48, res.Requests)
}

func TestScanInventory(t *testing.T) {
	t.Run("counts every symbol", func(t *testing.T) {
		s := New(&scoreChannel{secret: "00001111222233334444555566667777"})
		inv, filler, err := s.scanInventory(context.Background())
		require.NoError(t, err)
		for i := 0; i < len(game.Alphabet); i++ {
			sym := game.Alphabet[i]
			if sym <= '7' {
				assert.Equal(t, 4, inv[sym], "count of %q", sym)
			} else {
				assert.Equal(t, 0, inv[sym], "count of %q", sym)
			}
		}
		assert.Equal(t, game.BodyLength, inv.Total())
		assert.Equal(t, byte('8'), filler)
	})

	t.Run("saturated alphabet falls back to out-of-alphabet filler", func(t *testing.T) {
		s := New(&scoreChannel{secret: "00112233445566778899aabbccddeeff"})
		inv, filler, err := s.scanInventory(context.Background())
		require.NoError(t, err)
		for i := 0; i < len(game.Alphabet); i++ {
			assert.Equal(t, 2, inv[game.Alphabet[i]])
		}
		assert.Equal(t, byte(fallbackFiller), filler)
	})
}

func TestPlaceSymbolsLocksEveryPosition(t *testing.T) {
	secret := mkBody('a', map[int]byte{0: '0', 31: 'f'})
	ch := &scoreChannel{secret: secret}
	s := New(ch)

	buf, remaining, err := s.placeSymbols(context.Background(), Inventory{'a': 30, '0': 1, 'f': 1}, '1')
	require.NoError(t, err)
	assert.Equal(t, secret, string(buf))
	assert.Equal(t, 0, remaining.Total())
	// With an exact-match channel every position locks on a single probe of
	// the symbol actually there.
	assert.Equal(t, game.BodyLength, ch.probes)
}

func TestProbeBody(t *testing.T) {
	got := probeBody([]byte("a??b?c"), 2, 'x', 'g')
	assert.Equal(t, "agxbgc", string(got))
}

func TestSearchLeftovers(t *testing.T) {
	t.Run("finds the consistent permutation", func(t *testing.T) {
		secret := mkBody('0', map[int]byte{4: 'b', 9: 'a', 20: 'b'})
		buf := []byte(secret)
		buf[4], buf[9], buf[20] = unknown, unknown, unknown

		ch := &scoreChannel{secret: secret}
		got, err := New(ch).searchLeftovers(context.Background(), buf, Inventory{'a': 1, 'b': 2})
		require.NoError(t, err)
		assert.Equal(t, secret, string(got))
		// {a, b, b} over three slots has three distinct arrangements.
		assert.LessOrEqual(t, ch.probes, 3)
	})

	t.Run("no open slots returns the buffer untouched", func(t *testing.T) {
		secret := strings.Repeat("5", game.BodyLength)
		ch := &scoreChannel{secret: secret}
		got, err := New(ch).searchLeftovers(context.Background(), []byte(secret), Inventory{})
		require.NoError(t, err)
		assert.Equal(t, secret, string(got))
		assert.Zero(t, ch.probes)
	})

	t.Run("exhaustion is an error", func(t *testing.T) {
		buf := []byte(strings.Repeat("0", game.BodyLength))
		buf[0], buf[1] = unknown, unknown

		ch := &missChannel{}
		_, err := New(ch).searchLeftovers(context.Background(), buf, Inventory{'a': 1, 'b': 1})
		assert.ErrorIs(t, err, ErrSearchExhausted)
		assert.Equal(t, 2, ch.probes)
	})
}

func TestRunCleanupAfterWithheldFeedback(t *testing.T) {
	secret := mkBody('0', map[int]byte{5: 'a', 11: 'b'})
	ch := &hidingChannel{secret: secret, hide: map[int]bool{5: true, 11: true}}

	res, err := New(ch).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Cleanup)
	assert.Equal(t, secret, res.Body)
	assert.Equal(t, ch.probes, res.Requests)
}

func TestRunPropagatesChannelErrors(t *testing.T) {
	t.Run("transport failure", func(t *testing.T) {
		boom := errors.New("endpoint unavailable")
		_, err := New(errChannel{err: boom}).Run(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "inventory scan")
	})

	t.Run("malformed feedback", func(t *testing.T) {
		bad := fmt.Errorf("%w: got 31 glyphs", game.ErrFeedbackLength)
		_, err := New(errChannel{err: bad}).Run(context.Background())
		assert.ErrorIs(t, err, game.ErrFeedbackLength)
	})
}

func TestRunHonorsCancellation(t *testing.T) {
	t.Run("before the first probe", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ch := &scoreChannel{secret: strings.Repeat("7", game.BodyLength)}
		_, err := New(ch).Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, ch.probes)
	})

	t.Run("mid run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		inner := &scoreChannel{secret: strings.Repeat("7", game.BodyLength)}
		ch := &tripChannel{inner: inner, after: 20, trip: cancel}
		_, err := New(ch).Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, inner.probes, 48)
	})
}
