package wishlist

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet_Empty(t *testing.T) {
	s := New()

	assert.False(t, s.Contains(1))
	assert.Empty(t, s.List())
	assert.Equal(t, 0, s.Len())
}

func TestSet_Toggle(t *testing.T) {
	s := New()

	assert.True(t, s.Toggle(7))
	assert.True(t, s.Contains(7))

	assert.False(t, s.Toggle(7))
	assert.False(t, s.Contains(7))
}

func TestSet_ToggleTwiceRestoresMembership(t *testing.T) {
	for _, id := range []int64{-3, 0, 1, 7, 1 << 40} {
		s := New()
		s.Toggle(42)

		before := s.Contains(id)
		s.Toggle(id)
		s.Toggle(id)

		assert.Equal(t, before, s.Contains(id), "id %d", id)
		assert.True(t, s.Contains(42))
	}

	// Also from a member state.
	s := New()
	s.Toggle(5)
	s.Toggle(5)
	s.Toggle(5)
	assert.True(t, s.Contains(5))
}

func TestSet_UnknownIDAccepted(t *testing.T) {
	s := New()

	assert.True(t, s.Toggle(999_999))
	assert.Equal(t, []int64{999_999}, s.List())
}

func TestSet_ListSortedAndUnique(t *testing.T) {
	s := New()
	s.Toggle(7)
	s.Toggle(3)
	s.Toggle(11)

	assert.Equal(t, []int64{3, 7, 11}, s.List())
	assert.Equal(t, 3, s.Len())
}

func TestSet_ListIsCopy(t *testing.T) {
	s := New()
	s.Toggle(1)

	l := s.List()
	l[0] = 100

	assert.Equal(t, []int64{1}, s.List())
}

func TestSet_ConcurrentToggles(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Toggle(int64(i))
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, s.Len())
}
