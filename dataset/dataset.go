package dataset

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mklyu/MatrixClassifier/model"
)

// ErrIndexOutOfRange is returned when an index is outside [0, Len()).
var ErrIndexOutOfRange = errors.New("index out of range")

// IndexOutOfRangeError reports the offending index and the collection length.
type IndexOutOfRangeError struct {
	Index model.Index
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index out of range: %d not in [0, %d)", e.Index, e.Len)
}

// Is allows errors.Is(err, ErrIndexOutOfRange).
func (e *IndexOutOfRangeError) Is(target error) bool { return target == ErrIndexOutOfRange }

// Dataset is an indexed, read-only collection of items.
// Indexing must be stable for the lifetime of a run.
type Dataset interface {
	// Len returns the number of items.
	Len() int
	// ItemAt returns the item at index i, or an *IndexOutOfRangeError.
	ItemAt(i model.Index) (model.Item, error)
}

// Collection is an arena of fixed-shape items.
// Appends are serialized; reads are safe for concurrent use.
type Collection struct {
	mu     sync.RWMutex
	shape  model.Shape
	stride int
	data   []float32
	labels []int
}

// NewCollection creates an empty collection for items of the given shape.
// capacity is a hint for the number of items.
func NewCollection(shape model.Shape, capacity int) *Collection {
	stride := shape.Size()
	return &Collection{
		shape:  append(model.Shape(nil), shape...),
		stride: stride,
		data:   make([]float32, 0, max(capacity, 0)*stride),
		labels: make([]int, 0, max(capacity, 0)),
	}
}

// Shape returns the shape shared by all items.
func (c *Collection) Shape() model.Shape {
	return c.shape
}

// Append copies data into the arena and returns the new item's index.
// label is optional metadata (e.g. the CIFAR-10 class); use -1 if unknown.
func (c *Collection) Append(data []float32, label int) (model.Index, error) {
	if len(data) != c.stride {
		return model.NoIndex, fmt.Errorf("item has %d values, collection shape %s needs %d", len(data), c.shape, c.stride)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.labels) > int(model.MaxIndex) {
		return model.NoIndex, fmt.Errorf("%w: collection is full", model.ErrInvalidIndex)
	}

	c.data = append(c.data, data...)
	c.labels = append(c.labels, label)
	return model.Index(len(c.labels) - 1), nil
}

// Len implements Dataset.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.labels)
}

// ItemAt implements Dataset.
// The returned item aliases the arena and must be treated as read-only.
func (c *Collection) ItemAt(i model.Index) (model.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i < 0 || int(i) >= len(c.labels) {
		return model.Item{}, &IndexOutOfRangeError{Index: i, Len: len(c.labels)}
	}
	off := int(i) * c.stride
	return model.Item{
		Shape: c.shape,
		Data:  c.data[off : off+c.stride : off+c.stride],
	}, nil
}

// Label returns the label stored with item i.
func (c *Collection) Label(i model.Index) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i < 0 || int(i) >= len(c.labels) {
		return 0, &IndexOutOfRangeError{Index: i, Len: len(c.labels)}
	}
	return c.labels[i], nil
}

// Truncate keeps only the first n items.
func (c *Collection) Truncate(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n < 0 || n >= len(c.labels) {
		return
	}
	c.data = c.data[:n*c.stride]
	c.labels = c.labels[:n]
}

// Items returns every item of ds in index order.
func Items(ds Dataset) ([]model.Item, error) {
	n := ds.Len()
	items := make([]model.Item, n)
	for i := range n {
		it, err := ds.ItemAt(model.Index(i))
		if err != nil {
			return nil, err
		}
		items[i] = it
	}
	return items, nil
}
