package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Close(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewSession("s1", "/project", "/tmp/t.jsonl", t0)
	assert.False(t, s.IsClosed())

	s.Close(t0.Add(125 * time.Second))

	require.True(t, s.IsClosed())
	require.NotNil(t, s.DurationSeconds)
	assert.Equal(t, int64(125), *s.DurationSeconds)
}

func TestSession_CloseFloorsFractionalSeconds(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewSession("s1", "", "", t0)

	s.Close(t0.Add(59*time.Second + 999*time.Millisecond))

	assert.Equal(t, int64(59), *s.DurationSeconds)
}

func TestSession_CloseTwiceLastWriteWins(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewSession("s1", "", "", t0)

	s.Close(t0.Add(10 * time.Second))
	s.Close(t0.Add(90 * time.Second))

	assert.Equal(t, int64(90), *s.DurationSeconds)
	assert.Equal(t, t0.Add(90*time.Second), *s.EndTime)
}
