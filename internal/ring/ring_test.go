package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRing_PushWithinCapacity(t *testing.T) {
	require := require.New(t)

	r := New[int](3)
	require.True(r.IsEmpty())
	_, ok := r.Last()
	require.False(ok)

	require.False(r.Push(1))
	require.False(r.Push(2))

	require.Equal(2, r.Len())
	require.Equal(3, r.Cap())
	require.Equal([]int{1, 2}, r.Items())

	last, ok := r.Last()
	require.True(ok)
	require.Equal(2, last)
}

func TestRing_EvictsOldestFirst(t *testing.T) {
	require := require.New(t)

	r := New[int](3)
	for i := 1; i <= 3; i++ {
		require.False(r.Push(i))
	}
	require.True(r.Push(4))
	require.True(r.Push(5))

	require.Equal(3, r.Len())
	require.Equal([]int{3, 4, 5}, r.Items())

	var seen []int
	r.Each(func(v int) { seen = append(seen, v) })
	require.Equal([]int{3, 4, 5}, seen)

	last, _ := r.Last()
	require.Equal(5, last)
}

func TestRing_ItemsIsACopy(t *testing.T) {
	require := require.New(t)

	r := New[int](2)
	r.Push(1)
	items := r.Items()
	items[0] = 42

	require.Equal([]int{1}, r.Items())
}

func TestRing_ResetAndMinimumCapacity(t *testing.T) {
	require := require.New(t)

	r := New[string](0)
	require.Equal(1, r.Cap())

	r.Push("a")
	require.True(r.Push("b"))
	require.Equal([]string{"b"}, r.Items())

	r.Reset()
	require.True(r.IsEmpty())
	require.Empty(r.Items())

	r.Push("c")
	require.Equal([]string{"c"}, r.Items())
}
