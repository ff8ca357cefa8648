// Package redis provides a Store keeping entities as JSON documents in
// Redis, one key per record plus a set index per entity type.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/eslab/simple-blog/pkg/simpleblog"
)

// Store implements simpleblog.Store on Redis. Documents live under
// "{prefix}:{id}" keys; "{prefix}" is the id index set.
type Store[T any, PT interface {
	*T
	simpleblog.Entity
}] struct {
	client *redis.Client
	prefix string
}

// NewStore creates a Redis store using the given key prefix (e.g. "blog").
func NewStore[T any, PT interface {
	*T
	simpleblog.Entity
}](client *redis.Client, prefix string) simpleblog.Store[PT] {
	return &Store[T, PT]{client: client, prefix: prefix}
}

func (s *Store[T, PT]) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

func (s *Store[T, PT]) Insert(ctx context.Context, entity PT) (PT, error) {
	entity.SetEntityID(uuid.NewString())
	doc, err := json.Marshal(entity)
	if err != nil {
		return nil, err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(entity.EntityID()), doc, 0)
	pipe.SAdd(ctx, s.prefix, entity.EntityID())
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *Store[T, PT]) Replace(ctx context.Context, id string, entity PT) (bool, error) {
	entity.SetEntityID(id)
	doc, err := json.Marshal(entity)
	if err != nil {
		return false, err
	}

	// SET XX only succeeds when the key already exists, which is exactly the
	// replace-if-present contract.
	set, err := s.client.SetXX(ctx, s.key(id), doc, 0).Result()
	if err != nil {
		return false, err
	}
	return set, nil
}

func (s *Store[T, PT]) FindByID(ctx context.Context, id string) (PT, error) {
	doc, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, simpleblog.ErrNotFound
		}
		return nil, err
	}

	entity := PT(new(T))
	if err := json.Unmarshal(doc, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// FindAll scans the index set lazily; each pull fetches one document. A
// requested sort cannot be pushed down to Redis, so the read is materialized
// and ordered at the snapshot point instead.
func (s *Store[T, PT]) FindAll(ctx context.Context, opts ...simpleblog.ListOption) (simpleblog.Cursor[PT], error) {
	options := simpleblog.NewListOptions(opts...)

	if options.SortField != "" {
		entities, err := s.findAllSorted(ctx, options)
		if err != nil {
			return nil, err
		}
		return simpleblog.NewSliceCursor(entities), nil
	}

	iter := s.client.SScan(ctx, s.prefix, 0, "", 0).Iterator()
	return &scanCursor[T, PT]{ctx: ctx, store: s, iter: iter}, nil
}

func (s *Store[T, PT]) findAllSorted(ctx context.Context, options simpleblog.ListOptions) ([]PT, error) {
	ids, err := s.client.SMembers(ctx, s.prefix).Result()
	if err != nil {
		return nil, err
	}

	type record struct {
		entity PT
		key    string
	}
	records := make([]record, 0, len(ids))
	for _, id := range ids {
		doc, err := s.client.Get(ctx, s.key(id)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		entity := PT(new(T))
		if err := json.Unmarshal(doc, entity); err != nil {
			return nil, err
		}
		records = append(records, record{entity: entity, key: sortKey(doc, options.SortField)})
	}

	sort.SliceStable(records, func(i, j int) bool {
		if options.Descending {
			return records[i].key > records[j].key
		}
		return records[i].key < records[j].key
	})

	entities := make([]PT, len(records))
	for i, rec := range records {
		entities[i] = rec.entity
	}
	return entities, nil
}

func sortKey(doc []byte, field string) string {
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

func (s *Store[T, PT]) DeleteByID(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.SRem(ctx, s.prefix, id)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store[T, PT]) DeleteAll(ctx context.Context) error {
	ids, err := s.client.SMembers(ctx, s.prefix).Result()
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.key(id))
	}
	pipe.Del(ctx, s.prefix)
	_, err = pipe.Exec(ctx)
	return err
}

// scanCursor walks the index set with SSCAN, fetching one document per pull.
// Ids removed between the scan and the fetch are skipped.
type scanCursor[T any, PT interface {
	*T
	simpleblog.Entity
}] struct {
	ctx     context.Context
	store   *Store[T, PT]
	iter    *redis.ScanIterator
	current PT
	err     error
	closed  bool
}

func (c *scanCursor[T, PT]) Next() bool {
	if c.closed || c.err != nil {
		return false
	}
	for c.iter.Next(c.ctx) {
		entity, err := c.store.FindByID(c.ctx, c.iter.Val())
		if err != nil {
			if errors.Is(err, simpleblog.ErrNotFound) {
				continue
			}
			c.err = err
			return false
		}
		c.current = entity
		return true
	}
	c.err = c.iter.Err()
	return false
}

func (c *scanCursor[T, PT]) Value() PT { return c.current }

func (c *scanCursor[T, PT]) Err() error { return c.err }

func (c *scanCursor[T, PT]) Close() error {
	c.closed = true
	return nil
}
