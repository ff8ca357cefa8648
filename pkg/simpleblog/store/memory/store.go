// Package memory provides an in-memory Store for testing and development.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/eslab/simple-blog/pkg/simpleblog"
)

// Store implements simpleblog.Store using an in-memory map. Records are kept
// as marshalled JSON documents so reads always decode a fresh copy and never
// alias caller state.
type Store[T any, PT interface {
	*T
	simpleblog.Entity
}] struct {
	mu   sync.RWMutex
	docs map[string]json.RawMessage
}

// NewStore creates a new in-memory store for one entity type.
func NewStore[T any, PT interface {
	*T
	simpleblog.Entity
}]() simpleblog.Store[PT] {
	return &Store[T, PT]{docs: make(map[string]json.RawMessage)}
}

func (s *Store[T, PT]) Insert(ctx context.Context, entity PT) (PT, error) {
	entity.SetEntityID(uuid.NewString())
	doc, err := json.Marshal(entity)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.docs[entity.EntityID()] = doc
	s.mu.Unlock()

	return entity, nil
}

func (s *Store[T, PT]) Replace(ctx context.Context, id string, entity PT) (bool, error) {
	entity.SetEntityID(id)
	doc, err := json.Marshal(entity)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[id]; !exists {
		return false, nil
	}
	s.docs[id] = doc
	return true, nil
}

func (s *Store[T, PT]) FindByID(ctx context.Context, id string) (PT, error) {
	s.mu.RLock()
	doc, exists := s.docs[id]
	s.mu.RUnlock()

	if !exists {
		return nil, simpleblog.ErrNotFound
	}
	return decode[T, PT](doc)
}

func (s *Store[T, PT]) FindAll(ctx context.Context, opts ...simpleblog.ListOption) (simpleblog.Cursor[PT], error) {
	options := simpleblog.NewListOptions(opts...)

	s.mu.RLock()
	docs := make([]json.RawMessage, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	s.mu.RUnlock()

	if options.SortField != "" {
		sortDocs(docs, options.SortField, options.Descending)
	}

	return &cursor[T, PT]{docs: docs}, nil
}

func (s *Store[T, PT]) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()
	return nil
}

func (s *Store[T, PT]) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	s.docs = make(map[string]json.RawMessage)
	s.mu.Unlock()
	return nil
}

func decode[T any, PT interface {
	*T
	simpleblog.Entity
}](doc json.RawMessage) (PT, error) {
	entity := PT(new(T))
	if err := json.Unmarshal(doc, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// sortDocs orders documents by the string form of the given field. RFC 3339
// timestamps and plain text both order correctly this way.
func sortDocs(docs []json.RawMessage, field string, descending bool) {
	key := func(doc json.RawMessage) string {
		var fields map[string]any
		if err := json.Unmarshal(doc, &fields); err != nil {
			return ""
		}
		value, exists := fields[field]
		if !exists || value == nil {
			return ""
		}
		return fmt.Sprint(value)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if descending {
			return key(docs[i]) > key(docs[j])
		}
		return key(docs[i]) < key(docs[j])
	})
}

// cursor yields the snapshot taken at FindAll time, decoding one document per
// pull.
type cursor[T any, PT interface {
	*T
	simpleblog.Entity
}] struct {
	docs    []json.RawMessage
	idx     int
	current PT
	err     error
	closed  bool
}

func (c *cursor[T, PT]) Next() bool {
	if c.closed || c.err != nil || c.idx >= len(c.docs) {
		return false
	}
	entity, err := decode[T, PT](c.docs[c.idx])
	if err != nil {
		c.err = err
		return false
	}
	c.current = entity
	c.idx++
	return true
}

func (c *cursor[T, PT]) Value() PT { return c.current }

func (c *cursor[T, PT]) Err() error { return c.err }

func (c *cursor[T, PT]) Close() error {
	c.closed = true
	return nil
}
