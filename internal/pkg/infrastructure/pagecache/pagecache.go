// Package pagecache keeps cached pages of server-paginated lists and
// applies optimistic deletions across them, with snapshot-based rollback
// when the server call fails and reconciliation against server truth when
// it succeeds.
package pagecache

import (
	"context"
	"sync"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/awcwater/field-asset-mgmt/pkg/types"
)

// Key identifies one cached page. Entries with different keys are fully
// independent and never mutate each other.
type Key struct {
	Kind   string
	Filter string
	Page   int
}

// FetchFunc retrieves a page from the server for a given key.
type FetchFunc[T any] func(ctx context.Context, key Key) (types.Page[T], error)

type Cache[T any] struct {
	mu       sync.Mutex
	entries  map[Key]types.Page[T]
	versions map[Key]uint64
	deleting map[string]string

	idOf  func(T) string
	fetch FetchFunc[T]
}

func New[T any](idOf func(T) string, fetch FetchFunc[T]) *Cache[T] {
	return &Cache[T]{
		entries:  map[Key]types.Page[T]{},
		versions: map[Key]uint64{},
		deleting: map[string]string{},
		idOf:     idOf,
		fetch:    fetch,
	}
}

func (c *Cache[T]) Get(key Key) (types.Page[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, ok := c.entries[key]
	return page, ok
}

func (c *Cache[T]) Put(key Key, page types.Page[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = page
}

// Keys returns every live cache key matching a kind, regardless of filter
// or page index.
func (c *Cache[T]) Keys(kind string) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.keysLocked(kind)
}

func (c *Cache[T]) keysLocked(kind string) []Key {
	keys := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		if k.Kind == kind {
			keys = append(keys, k)
		}
	}
	return keys
}

// Deleting reports whether a delete for the given entity id is in flight.
// Callers use it to disable the trigger control; a second delete for the
// same id is not prevented here.
func (c *Cache[T]) Deleting(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.deleting[id]
	return ok
}

// Refresh fetches a key's page and stores it, unless a newer refresh for
// the same key started while this one was in flight. Results arriving for
// a superseded version are discarded, and a failed fetch keeps the
// last-known-good entry in place.
func (c *Cache[T]) Refresh(ctx context.Context, key Key) error {
	c.mu.Lock()
	c.versions[key]++
	version := c.versions[key]
	c.mu.Unlock()

	page, err := c.fetch(ctx, key)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.versions[key] != version {
		return nil
	}
	c.entries[key] = page
	return nil
}

// Invalidate forces a background refetch of every cached page of a kind so
// server truth supersedes any optimistic guess (total counts, pagination
// boundaries and sort order are never invented client side).
func (c *Cache[T]) Invalidate(ctx context.Context, kind string) {
	log := logging.GetFromContext(ctx)

	for _, key := range c.Keys(kind) {
		go func(key Key) {
			if err := c.Refresh(ctx, key); err != nil {
				log.Warn().Err(err).Msgf("background refetch failed for %s page %d", key.Kind, key.Page)
			}
		}(key)
	}
}

// DeleteByID removes an entity from every cached page of a kind before the
// server confirms, then reconciles: on success all matching pages are
// refetched, on failure every snapshotted page is restored verbatim and
// the error is returned for user-facing reporting.
//
// The sequence snapshot, optimistic apply, network call, settle is strictly
// ordered for one mutation; mutations on different entities are unordered
// with respect to each other.
func (c *Cache[T]) DeleteByID(ctx context.Context, kind, id string, del func(ctx context.Context) error) error {
	log := logging.GetFromContext(ctx)
	mutationID := uuid.NewString()

	c.mu.Lock()

	// full value snapshot of every matching entry, keyed by its cache key
	snapshot := make(map[Key]types.Page[T])
	for _, key := range c.keysLocked(kind) {
		page := c.entries[key]
		page.Content = append([]T(nil), page.Content...)
		snapshot[key] = page
	}

	for key, page := range snapshot {
		filtered := lo.Filter(page.Content, func(item T, _ int) bool {
			return c.idOf(item) != id
		})
		if len(filtered) == len(page.Content) {
			continue
		}

		next := page
		next.Content = filtered
		if next.TotalElements > 0 {
			next.TotalElements--
		}
		c.entries[key] = next
	}

	c.deleting[id] = mutationID
	c.mu.Unlock()

	err := del(ctx)

	c.mu.Lock()
	delete(c.deleting, id)

	if err != nil {
		for key, page := range snapshot {
			c.entries[key] = page
		}
		c.mu.Unlock()

		log.Warn().Err(err).Str("mutation_id", mutationID).Msgf("delete of %s failed, restored %d cached pages", id, len(snapshot))

		return err
	}
	c.mu.Unlock()

	log.Debug().Str("mutation_id", mutationID).Msgf("delete of %s confirmed, refetching %s pages", id, kind)

	c.Invalidate(ctx, kind)
	return nil
}
