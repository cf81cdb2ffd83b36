package secret

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctfkit/flagdle/internal/game"
)

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	at := time.Date(2025, 6, 1, 2, 30, 0, 0, loc)
	// 02:30 UTC+9 is still May 31 in UTC.
	assert.Equal(t, "2025-05-31", DateKey(at))
	assert.Equal(t, "2025-06-01", DateKey(at.Add(12*time.Hour)))
}

func TestDerive(t *testing.T) {
	t.Run("deterministic per salt and key", func(t *testing.T) {
		a := Derive("salt", "2025-06-01")
		b := Derive("salt", "2025-06-01")
		assert.Equal(t, a, b)
	})

	t.Run("distinct across salts and dates", func(t *testing.T) {
		base := Derive("salt", "2025-06-01")
		assert.NotEqual(t, base, Derive("other", "2025-06-01"))
		assert.NotEqual(t, base, Derive("salt", "2025-06-02"))
	})

	t.Run("always a valid body", func(t *testing.T) {
		for _, salt := range []string{"", DefaultSalt, "x"} {
			require.True(t, game.ValidBody(Derive(salt, "2025-06-01")))
		}
	})
}

func TestRandom(t *testing.T) {
	a, b := Random(), Random()
	assert.True(t, game.ValidBody(a))
	assert.True(t, game.ValidBody(b))
	assert.NotEqual(t, a, b)
}
