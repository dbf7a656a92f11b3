package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfDayKeepsLocation(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	late := time.Date(2024, 6, 14, 23, 45, 12, 0, kolkata)
	start := StartOfDay(late)

	assert.Equal(t, time.Date(2024, 6, 14, 0, 0, 0, 0, kolkata), start)
	assert.Equal(t, kolkata, start.Location())
}

func TestStartOfDayUsesCivilDateNotUTC(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 01:30 local is still the previous day in UTC; the day boundary
	// must follow the terminal's civil date.
	early := time.Date(2024, 6, 15, 1, 30, 0, 0, kolkata)
	start := StartOfDay(early)

	assert.Equal(t, 15, start.Day())
	assert.True(t, start.Before(early))
}

func TestFakeClockAdvanceAndSet(t *testing.T) {
	base := time.Date(2024, 6, 14, 10, 0, 0, 0, time.UTC)
	clk := NewFakeClock(base)

	assert.Equal(t, base, clk.Now())

	clk.Advance(90 * time.Minute)
	assert.Equal(t, base.Add(90*time.Minute), clk.Now())

	next := time.Date(2024, 6, 15, 0, 1, 0, 0, time.UTC)
	clk.Set(next)
	assert.Equal(t, next, clk.Now())
}
