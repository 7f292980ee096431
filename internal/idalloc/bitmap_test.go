package idalloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocLowestClearBit(t *testing.T) {
	b := NewBitmap(8)
	for i := 0; i < 8; i++ {
		id, err := b.Alloc()
		require.NoError(t, err)
		require.Equal(t, i, id)
	}
	_, err := b.Alloc()
	require.ErrorIs(t, err, ErrNoSpace)
}

func TestSaturationAt257th(t *testing.T) {
	b := NewBitmap(256)
	for i := 0; i < 256; i++ {
		_, err := b.Alloc()
		require.NoError(t, err)
	}
	_, err := b.Alloc()
	require.ErrorIs(t, err, ErrNoSpace)
}

func TestReleaseThenReuse(t *testing.T) {
	b := NewBitmap(4)
	id0, _ := b.Alloc()
	id1, _ := b.Alloc()
	require.Equal(t, 0, id0)
	require.Equal(t, 1, id1)

	b.Release(id0)
	reused, err := b.Alloc()
	require.NoError(t, err)
	require.Equal(t, 0, reused)
}

func TestUIDCounterMonotonic(t *testing.T) {
	var c UIDCounter
	a := c.Next()
	b := c.Next()
	require.Less(t, a, b)
}
