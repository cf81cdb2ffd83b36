package transcript

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRecords(t *testing.T) {
	l := New()
	assert.Zero(t, l.Total())
	assert.Empty(t, l.Recent())

	l.Record("guess-1", "feedback-1")
	l.Record("guess-2", "feedback-2")

	assert.Equal(t, 2, l.Total())
	recent := l.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "guess-1", recent[0].Guess)
	assert.Equal(t, "feedback-2", recent[1].Feedback)
	assert.False(t, recent[0].At.IsZero())
}

func TestLogEvictsOldest(t *testing.T) {
	l := New()
	for i := 0; i < keep+5; i++ {
		l.Record(fmt.Sprintf("guess-%d", i), "fb")
	}

	assert.Equal(t, keep+5, l.Total())
	recent := l.Recent()
	require.Len(t, recent, keep)
	assert.Equal(t, "guess-5", recent[0].Guess)
	assert.Equal(t, fmt.Sprintf("guess-%d", keep+4), recent[keep-1].Guess)
}

func TestRecentReturnsACopy(t *testing.T) {
	l := New()
	l.Record("guess", "fb")

	got := l.Recent()
	got[0].Guess = "mutated"
	assert.Equal(t, "guess", l.Recent()[0].Guess)
}
