package timeparser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var ref = time.Date(2026, time.July, 31, 14, 0, 0, 0, time.UTC) // a Friday

func TestParseAt_Asap(t *testing.T) {
	got := ParseAt("ASAP", ref)
	require.True(t, got.OK)
	require.True(t, got.IsAsap)
	require.Equal(t, "ASAP", got.Normalized)
}

func TestParseAt_AsSoonAsPossible(t *testing.T) {
	got := ParseAt("as soon as possible", ref)
	require.True(t, got.OK)
	require.True(t, got.IsAsap)
}

func TestParseAt_InMinutes(t *testing.T) {
	got := ParseAt("in 20 minutes", ref)
	require.True(t, got.OK)
	require.False(t, got.IsAsap)
	require.Equal(t, ref.Add(20*time.Minute), got.AbsoluteUTC)
}

func TestParseAt_InHours(t *testing.T) {
	got := ParseAt("in 2 hours", ref)
	require.True(t, got.OK)
	require.Equal(t, ref.Add(2*time.Hour), got.AbsoluteUTC)
}

func TestParseAt_HalfPast(t *testing.T) {
	got := ParseAt("half past 6", ref)
	require.True(t, got.OK)
	require.Equal(t, 6, got.AbsoluteUTC.Hour())
	require.Equal(t, 30, got.AbsoluteUTC.Minute())
}

func TestParseAt_QuarterTo(t *testing.T) {
	got := ParseAt("quarter to 5", ref)
	require.True(t, got.OK)
	require.Equal(t, 4, got.AbsoluteUTC.Hour())
	require.Equal(t, 45, got.AbsoluteUTC.Minute())
}

func TestParseAt_AtClockTimePM(t *testing.T) {
	got := ParseAt("at 6pm", ref)
	require.True(t, got.OK)
	require.Equal(t, 18, got.AbsoluteUTC.Hour())
}

func TestParseAt_AtClockTimeRollsToTomorrowWhenPast(t *testing.T) {
	got := ParseAt("at 9am", ref)
	require.True(t, got.OK)
	require.Equal(t, ref.AddDate(0, 0, 1).Day(), got.AbsoluteUTC.Day())
	require.Equal(t, 9, got.AbsoluteUTC.Hour())
}

func TestParseAt_WeekdayName(t *testing.T) {
	got := ParseAt("next monday", ref)
	require.True(t, got.OK)
	require.Equal(t, time.Monday, got.AbsoluteUTC.Weekday())
	require.True(t, got.AbsoluteUTC.After(ref))
}

func TestParseAt_Unrecognized(t *testing.T) {
	got := ParseAt("whenever suits", ref)
	require.False(t, got.OK)
}

func TestParseAt_EmptyInput(t *testing.T) {
	got := ParseAt("   ", ref)
	require.False(t, got.OK)
}

func TestParse_UsesWallClock(t *testing.T) {
	got := Parse("ASAP")
	require.True(t, got.OK)
	require.True(t, got.IsAsap)
}
