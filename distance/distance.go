package distance

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mklyu/MatrixClassifier/model"
)

var (
	// ErrShapeMismatch is returned when two items with different shapes are compared.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrUnsupportedVariant is returned for an unknown norm type.
	ErrUnsupportedVariant = errors.New("unsupported norm type")
)

// ShapeMismatchError reports the shapes of an incompatible comparison.
type ShapeMismatchError struct {
	A model.Shape
	B model.Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %s vs %s", e.A, e.B)
}

// Is allows errors.Is(err, ErrShapeMismatch).
func (e *ShapeMismatchError) Is(target error) bool { return target == ErrShapeMismatch }

// Metric computes a non-negative distance between two same-shaped items.
// Implementations must be safe for concurrent use.
type Metric interface {
	Calculate(a, b model.Item) (float32, error)
}

// NormType selects the norm used by a metric.
type NormType int

const (
	NormFrobenius NormType = iota
	NormL2
)

func (n NormType) String() string {
	switch n {
	case NormFrobenius:
		return "frobenius"
	case NormL2:
		return "l2"
	default:
		return fmt.Sprintf("Unknown(%d)", n)
	}
}

// ParseNormType maps a configuration string ("frobenius" | "l2") to a NormType.
func ParseNormType(s string) (NormType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "frobenius", "":
		return NormFrobenius, nil
	case "l2":
		return NormL2, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedVariant, s)
	}
}

// New returns the metric for the given norm type string.
func New(normType string) (Metric, error) {
	n, err := ParseNormType(normType)
	if err != nil {
		return nil, err
	}
	return Provider(n)
}

// Provider returns the metric for the given norm type.
func Provider(n NormType) (Metric, error) {
	switch n {
	case NormFrobenius:
		return Frobenius{}, nil
	case NormL2:
		return L2{}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedVariant, n)
	}
}

func checkShapes(a, b model.Item) error {
	if !a.Shape.Equal(b.Shape) || len(a.Data) != len(b.Data) {
		return &ShapeMismatchError{A: a.Shape, B: b.Shape}
	}
	return nil
}

// Frobenius is the Frobenius norm of the element-wise difference.
// It accumulates a scaled sum of squares so large values cannot overflow.
type Frobenius struct{}

// Calculate implements Metric.
func (Frobenius) Calculate(a, b model.Item) (float32, error) {
	if err := checkShapes(a, b); err != nil {
		return 0, err
	}

	scale, ssq := 0.0, 1.0
	for i := range a.Data {
		d := float64(a.Data[i]) - float64(b.Data[i])
		if d == 0 {
			continue
		}
		ad := math.Abs(d)
		if scale < ad {
			r := scale / ad
			ssq = 1 + ssq*r*r
			scale = ad
		} else {
			r := ad / scale
			ssq += r * r
		}
	}
	return narrow(scale * math.Sqrt(ssq)), nil
}

// L2 is the Euclidean norm of the flattened difference.
type L2 struct{}

// Calculate implements Metric.
func (L2) Calculate(a, b model.Item) (float32, error) {
	if err := checkShapes(a, b); err != nil {
		return 0, err
	}
	return narrow(math.Sqrt(SquaredL2(a.Data, b.Data))), nil
}

// narrow converts a norm to float32. Norms beyond the float32 range
// saturate at math.MaxFloat32, so finite items always have a finite
// distance.
func narrow(v float64) float32 {
	if v > math.MaxFloat32 {
		return math.MaxFloat32
	}
	return float32(v)
}

// SquaredL2 calculates the squared L2 distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// Func adapts a plain function to the Metric interface.
type Func func(a, b model.Item) (float32, error)

// Calculate implements Metric.
func (f Func) Calculate(a, b model.Item) (float32, error) { return f(a, b) }
