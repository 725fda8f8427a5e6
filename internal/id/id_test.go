package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunIDSorts(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	a := NewRunID(now)
	b := NewRunID(now)
	c := NewRunID(now.Add(time.Second))

	assert.Len(t, a, 26)
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

func TestRunTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	got, err := RunTime(NewRunID(now))
	require.NoError(t, err)
	assert.True(t, now.Equal(got))

	_, err = RunTime("not-a-ulid")
	assert.Error(t, err)
}
