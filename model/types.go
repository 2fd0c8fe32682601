package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidIndex is returned when an index cannot be used as part of a PairKey.
var ErrInvalidIndex = errors.New("invalid index")

// Index is the stable, 0-based position of an item within its collection.
type Index int

// NoIndex marks a comparison between items that are not addressed by index.
const NoIndex Index = -1

// MaxIndex is the largest index a PairKey accepts. Keys are stored as
// uint32, but the bound is math.MaxInt32 so it fits Index on 32-bit
// platforms too.
const MaxIndex Index = math.MaxInt32

// Shape describes the dimensions of an item (e.g. 3x32x32).
type Shape []int

// Size returns the number of elements described by the shape.
func (s Shape) Size() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal reports whether both shapes have identical dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// String returns the shape as "AxBxC".
func (s Shape) String() string {
	if len(s) == 0 {
		return "[]"
	}
	out := fmt.Sprint(s[0])
	for _, d := range s[1:] {
		out += fmt.Sprintf("x%d", d)
	}
	return out
}

// Item is an immutable fixed-shape numeric array.
// Data is row-major and must not be modified once the item is stored.
type Item struct {
	Shape Shape
	Data  []float32
}

// NewItem creates an item, validating that data matches the shape.
func NewItem(shape Shape, data []float32) (Item, error) {
	if shape.Size() != len(data) {
		return Item{}, fmt.Errorf("shape %s needs %d values, got %d", shape, shape.Size(), len(data))
	}
	return Item{Shape: shape, Data: data}, nil
}

// PairKey is an unordered pair of distinct indices stored as (Lo, Hi) with Lo < Hi.
type PairKey struct {
	Lo uint32
	Hi uint32
}

// MakePairKey canonicalizes (i, j) into a PairKey.
// ok is false for self-pairs (i == j); err is set when either index is
// negative or larger than MaxIndex.
func MakePairKey(i, j Index) (key PairKey, ok bool, err error) {
	if i < 0 || j < 0 || i > MaxIndex || j > MaxIndex {
		return PairKey{}, false, fmt.Errorf("%w: pair (%d, %d)", ErrInvalidIndex, i, j)
	}
	if i == j {
		return PairKey{}, false, nil
	}
	if i > j {
		i, j = j, i
	}
	return PairKey{Lo: uint32(i), Hi: uint32(j)}, true, nil
}

// Less orders keys by (Lo, Hi).
func (k PairKey) Less(o PairKey) bool {
	if k.Lo != o.Lo {
		return k.Lo < o.Lo
	}
	return k.Hi < o.Hi
}

// Valid reports whether the key is canonical.
func (k PairKey) Valid() bool {
	return k.Lo < k.Hi
}

// String returns a string representation of the PairKey.
func (k PairKey) String() string {
	return fmt.Sprintf("Pair(%d:%d)", k.Lo, k.Hi)
}
