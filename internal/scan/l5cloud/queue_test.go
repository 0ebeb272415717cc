package l5cloud

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deltaOf(ids ...float64) Delta {
	d := Delta{}
	for _, id := range ids {
		d.Points = append(d.Points, r3.Vector{X: id})
		d.Colors = append(d.Colors, Color{R: uint8(id)})
	}
	return d
}

func TestQueue_FIFO(t *testing.T) {
	t.Parallel()
	q := NewQueue(3)
	require.True(t, q.TryPush(deltaOf(1)))
	require.True(t, q.TryPush(deltaOf(2)))

	d, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, 1.0, d.Points[0].X)

	require.True(t, q.TryPush(deltaOf(3)))
	require.True(t, q.TryPush(deltaOf(4)))
	assert.Equal(t, 3, q.Len())

	for _, want := range []float64{2, 3, 4} {
		d, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, want, d.Points[0].X)
	}
	_, ok = q.TryPop()
	assert.False(t, ok)
}

func TestQueue_RejectNewest(t *testing.T) {
	t.Parallel()
	q := NewQueue(2)
	assert.True(t, q.TryPush(deltaOf(1)))
	assert.True(t, q.TryPush(deltaOf(2)))
	assert.False(t, q.TryPush(deltaOf(3)))
	assert.False(t, q.TryPush(deltaOf(4)))
	assert.Equal(t, uint64(2), q.Dropped())
	assert.Equal(t, 2, q.Len())

	d, _ := q.TryPop()
	assert.Equal(t, 1.0, d.Points[0].X)
	d, _ = q.TryPop()
	assert.Equal(t, 2.0, d.Points[0].X)
}

func TestQueue_DefaultCapacity(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DefaultQueueCapacity, NewQueue(0).Cap())
	assert.Equal(t, DefaultQueueCapacity, NewQueue(-5).Cap())
	assert.Equal(t, 7, NewQueue(7).Cap())
}

func TestQueue_Clear(t *testing.T) {
	t.Parallel()
	q := NewQueue(1)
	q.TryPush(deltaOf(1))
	q.TryPush(deltaOf(2))
	require.Equal(t, uint64(1), q.Dropped())

	q.Clear()
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, uint64(0), q.Dropped())
	assert.True(t, q.TryPush(deltaOf(3)))
}
