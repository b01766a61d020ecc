package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// lruCache is the enabled strategy behind New.
//
// Recency is the list order: front is most recently used, eviction pops the
// back. Entries that were last used at the same instant keep their relative
// list order, so eviction falls back to insertion order and is fully
// deterministic. Eviction runs before an insert, so the entry count never
// exceeds maxSize, even transiently.
//
// A single mutex guards all bookkeeping. Every operation is O(1) map and
// pointer work except InvalidatePrefix and Clear, and none of them touch
// the network or disk.
type lruCache struct {
	mu         sync.Mutex
	maxSize    int
	defaultTTL time.Duration

	order *list.List // of *record, most recently used first
	byKey map[string]*list.Element

	now func() time.Time // swapped in tests
}

type record struct {
	key   string
	entry Entry
}

func newLRU(maxSize int, defaultTTL time.Duration) *lruCache {
	return &lruCache{
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		order:      list.New(),
		byKey:      make(map[string]*list.Element),
		now:        time.Now,
	}
}

// expired reports whether the entry is stale at instant now. The boundary
// counts as stale, so a zero TTL disables caching without a special case.
func expired(e *Entry, now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

func (c *lruCache) Get(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byKey[key]
	if !ok {
		return nil, false
	}
	rec := el.Value.(*record)
	if expired(&rec.entry, c.now()) {
		c.order.Remove(el)
		delete(c.byKey, key)
		return nil, false
	}
	c.order.MoveToFront(el)
	ent := rec.entry
	return &ent, true
}

func (c *lruCache) Put(key string, body []byte, validator string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	ent := Entry{
		Body:       append([]byte(nil), body...),
		Validator:  validator,
		InsertedAt: now,
		ExpiresAt:  now.Add(ttl),
	}

	if el, ok := c.byKey[key]; ok {
		el.Value.(*record).entry = ent
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			delete(c.byKey, oldest.Value.(*record).key)
			c.order.Remove(oldest)
		}
	}
	c.byKey[key] = c.order.PushFront(&record{key: key, entry: ent})
}

func (c *lruCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byKey[key]; ok {
		c.order.Remove(el)
		delete(c.byKey, key)
	}
}

func (c *lruCache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for el := c.order.Front(); el != nil; {
		next := el.Next()
		rec := el.Value.(*record)
		if strings.HasPrefix(rec.key, prefix) {
			c.order.Remove(el)
			delete(c.byKey, rec.key)
		}
		el = next
	}
}

func (c *lruCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.byKey = make(map[string]*list.Element)
}

func (c *lruCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}
