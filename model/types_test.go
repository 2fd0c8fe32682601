package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakePairKey(t *testing.T) {
	t.Run("Symmetric", func(t *testing.T) {
		a, ok, err := MakePairKey(3, 7)
		require.NoError(t, err)
		require.True(t, ok)
		b, ok, err := MakePairKey(7, 3)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, a, b)
		assert.Equal(t, PairKey{Lo: 3, Hi: 7}, a)
		assert.True(t, a.Valid())
	})

	t.Run("SelfPair", func(t *testing.T) {
		_, ok, err := MakePairKey(4, 4)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, _, err := MakePairKey(-1, 2)
		assert.ErrorIs(t, err, ErrInvalidIndex)
		_, _, err = MakePairKey(1, MaxIndex+1)
		assert.ErrorIs(t, err, ErrInvalidIndex)
	})

	t.Run("MaxIndex", func(t *testing.T) {
		k, ok, err := MakePairKey(MaxIndex, 0)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, PairKey{Lo: 0, Hi: math.MaxInt32}, k)
	})
}

func TestPairKeyLess(t *testing.T) {
	assert.True(t, PairKey{0, 5}.Less(PairKey{1, 2}))
	assert.True(t, PairKey{1, 2}.Less(PairKey{1, 3}))
	assert.False(t, PairKey{1, 3}.Less(PairKey{1, 3}))
}

func TestShape(t *testing.T) {
	s := Shape{3, 32, 32}
	assert.Equal(t, 3072, s.Size())
	assert.Equal(t, "3x32x32", s.String())
	assert.True(t, s.Equal(Shape{3, 32, 32}))
	assert.False(t, s.Equal(Shape{3, 32}))
	assert.False(t, s.Equal(Shape{3, 32, 31}))
	assert.Equal(t, 0, Shape{}.Size())
}

func TestNewItem(t *testing.T) {
	_, err := NewItem(Shape{2, 2}, []float32{1, 2, 3})
	assert.Error(t, err)

	it, err := NewItem(Shape{2, 2}, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Len(t, it.Data, 4)
}
