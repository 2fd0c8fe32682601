package distance

import (
	"math"
	"testing"

	"github.com/mklyu/MatrixClassifier/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(shape model.Shape, vals ...float32) model.Item {
	return model.Item{Shape: shape, Data: vals}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name     string
		a, b     model.Item
		expected float32
	}{
		{"Simple", item(model.Shape{3}, 1, 2, 3), item(model.Shape{3}, 4, 5, 6), float32(math.Sqrt(27))},
		{"Zero", item(model.Shape{3}, 0, 0, 0), item(model.Shape{3}, 0, 0, 0), 0},
		{"Identical", item(model.Shape{2, 2}, 1, 2, 3, 4), item(model.Shape{2, 2}, 1, 2, 3, 4), 0},
		{"Matrix", item(model.Shape{2, 2}, 1, -1, 0, 0), item(model.Shape{2, 2}, -1, 1, 0, 0), float32(math.Sqrt(8))},
		{"Empty", item(model.Shape{0}), item(model.Shape{0}), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, m := range []Metric{Frobenius{}, L2{}} {
				got, err := m.Calculate(tt.a, tt.b)
				require.NoError(t, err)
				assert.InDelta(t, tt.expected, got, 1e-5)
			}
		})
	}
}

func TestSymmetry(t *testing.T) {
	a := item(model.Shape{2, 3}, 0.1, 0.9, 0.3, 0.4, 0.5, 0.25)
	b := item(model.Shape{2, 3}, 0.7, 0.2, 0.8, 0.1, 0.0, 1.0)

	for _, m := range []Metric{Frobenius{}, L2{}} {
		ab, err := m.Calculate(a, b)
		require.NoError(t, err)
		ba, err := m.Calculate(b, a)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
		assert.GreaterOrEqual(t, ab, float32(0))
	}
}

func TestFrobeniusLargeValues(t *testing.T) {
	a := item(model.Shape{2}, 3e30, 4e30)
	b := item(model.Shape{2}, 0, 0)
	got, err := Frobenius{}.Calculate(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 5e30, float64(got), 1e25)
}

func TestCalculate_SaturatesBeyondFloat32(t *testing.T) {
	a := item(model.Shape{2}, 3e38, 3e38)
	b := item(model.Shape{2}, -3e38, -3e38)
	for _, m := range []Metric{Frobenius{}, L2{}} {
		got, err := m.Calculate(a, b)
		require.NoError(t, err)
		assert.Equal(t, float32(math.MaxFloat32), got, "%T", m)
		assert.False(t, math.IsInf(float64(got), 0))
	}
}

func TestShapeMismatch(t *testing.T) {
	a := item(model.Shape{2, 2}, 1, 2, 3, 4)
	b := item(model.Shape{4}, 1, 2, 3, 4)

	for _, m := range []Metric{Frobenius{}, L2{}} {
		_, err := m.Calculate(a, b)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrShapeMismatch)
		var sm *ShapeMismatchError
		require.ErrorAs(t, err, &sm)
		assert.Equal(t, model.Shape{2, 2}, sm.A)
	}
}

func TestNew(t *testing.T) {
	m, err := New("frobenius")
	require.NoError(t, err)
	assert.IsType(t, Frobenius{}, m)

	m, err = New("L2")
	require.NoError(t, err)
	assert.IsType(t, L2{}, m)

	_, err = New("cosine")
	assert.ErrorIs(t, err, ErrUnsupportedVariant)

	_, err = Provider(NormType(99))
	assert.ErrorIs(t, err, ErrUnsupportedVariant)
}

func TestNormTypeString(t *testing.T) {
	assert.Equal(t, "frobenius", NormFrobenius.String())
	assert.Equal(t, "l2", NormL2.String())
	assert.Equal(t, "Unknown(99)", NormType(99).String())
}

func TestUncached(t *testing.T) {
	calls := 0
	m := Func(func(a, b model.Item) (float32, error) {
		calls++
		return L2{}.Calculate(a, b)
	})
	im := Uncached(m)

	a := item(model.Shape{1}, 0)
	b := item(model.Shape{1}, 3)

	d, err := im.ComputeOrFetch(a, b, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(3), d)

	d, err = im.ComputeOrFetch(a, a, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, float32(0), d)
	assert.Equal(t, 1, calls)
}
