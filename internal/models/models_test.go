package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalScan(t *testing.T) {
	cases := []struct {
		in   interface{}
		want time.Duration
	}{
		{nil, 0},
		{"00:00:42", 42 * time.Second},
		{[]byte("01:02:03.5"), time.Hour + 2*time.Minute + 3500*time.Millisecond},
		{"1 day 00:00:10", 24*time.Hour + 10*time.Second},
		{"90.5 seconds", 90500 * time.Millisecond},
		{"3 mins", 3 * time.Minute},
		{int64(12), 12 * time.Second},
	}
	for _, tc := range cases {
		var d Interval
		require.NoError(t, d.Scan(tc.in), "%v", tc.in)
		assert.Equal(t, tc.want, d.Duration(), "%v", tc.in)
	}

	var d Interval
	assert.Error(t, d.Scan("5 fortnights"))
	assert.Error(t, d.Scan("12"))
	assert.Error(t, d.Scan(3.5))
}

func TestIntervalValueRoundTrip(t *testing.T) {
	original := Interval(75*time.Second + 250*time.Millisecond)
	raw, err := original.Value()
	require.NoError(t, err)
	assert.Equal(t, "75.25 seconds", raw)

	var back Interval
	require.NoError(t, back.Scan(raw))
	assert.Equal(t, original, back)
	assert.Equal(t, "00:01:15", back.String())
}

func TestContestStateTransitions(t *testing.T) {
	now := time.Date(2025, 12, 24, 23, 59, 0, 0, time.UTC)

	closed, err := ContestState{PublicScores: true}.Close(now)
	require.NoError(t, err)
	assert.True(t, closed.Closed)
	assert.True(t, closed.PublicScores)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, now, *closed.ClosedAt)

	_, err = closed.Close(now)
	assert.ErrorIs(t, err, ErrContestAlreadyClosed)

	open, err := closed.Reopen()
	require.NoError(t, err)
	assert.False(t, open.Closed)
	assert.Nil(t, open.ClosedAt)

	_, err = open.Reopen()
	assert.ErrorIs(t, err, ErrContestNotClosed)
}

func TestAgeAt(t *testing.T) {
	birth := time.Date(2001, 12, 25, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 23, AgeAt(birth, time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 24, AgeAt(birth, time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, AgeAt(birth, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, AgeAt(time.Time{}, time.Now()))
}

func TestVideoLikes(t *testing.T) {
	live, frozen := 10, 7
	v := Video{InstagramLikes: &live, ClosingLikes: &frozen}
	assert.Equal(t, 7, *v.Likes(true))
	assert.Equal(t, 10, *v.Likes(false))

	v.ClosingLikes = nil
	assert.Equal(t, 10, *v.Likes(true))
}
