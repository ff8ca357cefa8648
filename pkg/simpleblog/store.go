package simpleblog

import (
	"context"
)

// Store defines the collection-store capability for one entity type. Insert
// assigns a fresh id before persisting. Replace reports whether a record with
// the given id existed. DeleteByID is unconditionally idempotent: deleting an
// absent id is not an error.
type Store[E Entity] interface {
	Insert(ctx context.Context, entity E) (E, error)
	Replace(ctx context.Context, id string, entity E) (bool, error)
	FindByID(ctx context.Context, id string) (E, error)
	FindAll(ctx context.Context, opts ...ListOption) (Cursor[E], error)
	DeleteByID(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

// Cursor is a pull-based iterator over a store read. Production is driven by
// the consumer: nothing past the current element is fetched until Next is
// called again, so a slow consumer throttles the underlying read. Close
// releases the store-side resources and must be called when the consumer
// stops early.
type Cursor[E any] interface {
	// Next advances to the next element, reporting whether one is available.
	// Once it returns false, Err holds the cause if the read failed.
	Next() bool
	// Value returns the current element. Repeatable without side effects.
	Value() E
	// Err returns the error that terminated iteration, if any.
	Err() error
	// Close releases the underlying store read.
	Close() error
}

// ListOptions carries the caller-specified ordering, passed through to the
// store unmodified. The zero value means store iteration order.
type ListOptions struct {
	SortField  string
	Descending bool
}

// ListOption represents a functional option for collection reads.
type ListOption func(*ListOptions)

// WithSort orders the read by the given entity field, ascending.
func WithSort(field string) ListOption {
	return func(o *ListOptions) {
		o.SortField = field
	}
}

// WithDescending reverses the sort direction.
func WithDescending() ListOption {
	return func(o *ListOptions) {
		o.Descending = true
	}
}

// NewListOptions applies the given options on top of the zero value.
func NewListOptions(opts ...ListOption) ListOptions {
	var o ListOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Collect materializes a cursor into a slice, closing it afterwards.
func Collect[E any](cursor Cursor[E]) ([]E, error) {
	defer cursor.Close()

	var result []E
	for cursor.Next() {
		result = append(result, cursor.Value())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SliceCursor adapts an in-memory slice to the Cursor interface.
type SliceCursor[E any] struct {
	elems []E
	idx   int
}

// NewSliceCursor returns a cursor over the given elements.
func NewSliceCursor[E any](elems []E) *SliceCursor[E] {
	return &SliceCursor[E]{elems: elems}
}

func (c *SliceCursor[E]) Next() bool {
	if c.idx >= len(c.elems) {
		return false
	}
	c.idx++
	return true
}

func (c *SliceCursor[E]) Value() E {
	return c.elems[c.idx-1]
}

func (c *SliceCursor[E]) Err() error { return nil }

func (c *SliceCursor[E]) Close() error {
	c.idx = len(c.elems)
	return nil
}
