package revision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetUnionAndIntersection(t *testing.T) {
	a := NewSet(Base, Left)
	b := NewSet(Left, Right)

	assert.True(t, a.Union(b).IsFull())
	assert.Equal(t, NewSet(Left), a.Intersection(b))
}

func TestSetAddHasCount(t *testing.T) {
	var s Set
	assert.True(t, s.IsEmpty())

	s = s.Add(Base)
	assert.True(t, s.Has(Base))
	assert.False(t, s.Has(Left))
	assert.Equal(t, 1, s.Count())
}

func TestAnyPrefersLeftThenRightThenBase(t *testing.T) {
	r, ok := NewSet(Base, Left, Right).Any()
	assert.True(t, ok)
	assert.Equal(t, Left, r)

	r, ok = NewSet(Base, Right).Any()
	assert.True(t, ok)
	assert.Equal(t, Right, r)

	r, ok = NewSet(Base).Any()
	assert.True(t, ok)
	assert.Equal(t, Base, r)
}

func TestNESetPanicsOnEmpty(t *testing.T) {
	assert.Panics(t, func() {
		NewNESet(Set(0))
	})
}
