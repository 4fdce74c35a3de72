package daystore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fau-Caudullo/happyapp/internal/model"
)

func TestShiftDate_Boundaries(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"2025-01-31", 1, "2025-02-01"},
		{"2025-01-01", -1, "2024-12-31"},
		{"2024-12-31", 1, "2025-01-01"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2023-02-28", 1, "2023-03-01"},
		{"2024-03-01", -1, "2024-02-29"},
		{"2025-03-30", 1, "2025-03-31"}, // DST change in Europe
		{"2025-01-05", 30, "2025-02-04"},
	}
	for _, tc := range tests {
		got, err := ShiftDate(tc.in, tc.n)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s%+d", tc.in, tc.n)
	}
}

func TestNextPrevDay(t *testing.T) {
	next, err := NextDay("2025-12-31")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01", next)

	prev, err := PrevDay(next)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-31", prev)

	_, err = NextDay("2025-13-01")
	assert.True(t, model.IsValidationError(err))
}

func TestFormatDate_IgnoresLocation(t *testing.T) {
	loc := time.FixedZone("UTC+14", 14*3600)
	ts := time.Date(2025, 1, 5, 23, 30, 0, 0, loc)
	assert.Equal(t, "2025-01-05", FormatDate(ts))
}

func TestIDGenerator_StrictlyIncreasing(t *testing.T) {
	fixed := time.UnixMilli(1736035200000)
	g := &IDGenerator{now: func() time.Time { return fixed }}
	a, b, c := g.Next(), g.Next(), g.Next()
	assert.Equal(t, int64(1736035200000), a)
	assert.Equal(t, a+1, b)
	assert.Equal(t, b+1, c)

	wall := NewIDGenerator()
	assert.Greater(t, wall.Next(), int64(0))
}
