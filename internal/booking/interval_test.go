package booking

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func win(startHours, endHours int) Window {
	return Window{
		StartAt: t0.Add(time.Duration(startHours) * time.Hour),
		EndAt:   t0.Add(time.Duration(endHours) * time.Hour),
	}
}

func TestOverlaps_Basic(t *testing.T) {
	assert.True(t, win(0, 10).Overlaps(win(5, 15)))
	assert.True(t, win(5, 15).Overlaps(win(0, 10)))
	assert.True(t, win(0, 10).Overlaps(win(2, 3)), "containment overlaps")
	assert.True(t, win(2, 3).Overlaps(win(0, 10)))
	assert.False(t, win(0, 5).Overlaps(win(6, 10)), "disjoint windows")
	assert.True(t, win(0, 5).Overlaps(win(0, 5)), "identical windows")
}

func TestOverlaps_AdjacencyDoesNotOverlap(t *testing.T) {
	// [t0,t1) and [t1,t2) share no instant: back-to-back rentals of
	// the same unit must be allowed.
	a := win(0, 24)
	b := win(24, 48)
	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))
}

func TestOverlaps_Commutative(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		aStart := rng.Intn(200)
		bStart := rng.Intn(200)
		a := win(aStart, aStart+1+rng.Intn(100))
		b := win(bStart, bStart+1+rng.Intn(100))
		assert.Equal(t, a.Overlaps(b), b.Overlaps(a), "a=%v b=%v", a, b)
	}
}

func TestOverlaps_AdjacencyProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		s := rng.Intn(100)
		mid := s + 1 + rng.Intn(50)
		end := mid + 1 + rng.Intn(50)
		assert.False(t, win(s, mid).Overlaps(win(mid, end)))
	}
}

func TestWindowValidate(t *testing.T) {
	require.NoError(t, win(0, 1).Validate())

	err := win(5, 5).Validate()
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	err = win(5, 2).Validate()
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestWindowShiftDays(t *testing.T) {
	w := win(0, 30)
	next := w.ShiftDays(1)
	prev := w.ShiftDays(-1)
	assert.Equal(t, w.Duration(), next.Duration())
	assert.Equal(t, w.Duration(), prev.Duration())
	assert.Equal(t, w.StartAt.Add(24*time.Hour), next.StartAt)
	assert.Equal(t, w.StartAt.Add(-24*time.Hour), prev.StartAt)
}
