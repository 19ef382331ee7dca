package nav

import "container/list"

// DefaultCacheCapacity bounds how many directory listings stay resident.
const DefaultCacheCapacity = 64

type cacheSlot struct {
	listing *Listing
	dirty   bool
	elem    *list.Element
}

// Cache keeps recently scanned listings keyed by directory path, with
// LRU eviction. It is owned by the main loop and is not safe for
// concurrent use; scan results reach it only through that loop.
type Cache struct {
	capacity int
	slots    map[string]*cacheSlot
	order    *list.List // front is most recently used
}

func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		slots:    make(map[string]*cacheSlot),
		order:    list.New(),
	}
}

// Get returns the listing for path if one is cached and not marked
// dirty. A dirty listing is a miss: the caller is expected to rescan.
func (c *Cache) Get(path string) (*Listing, bool) {
	slot, ok := c.slots[path]
	if !ok || slot.dirty {
		return nil, false
	}
	c.order.MoveToFront(slot.elem)
	return slot.listing, true
}

// Peek returns whatever is cached for path, dirty or not, without
// touching recency. Render code uses it to keep showing stale contents
// while a rescan is in flight.
func (c *Cache) Peek(path string) (*Listing, bool) {
	slot, ok := c.slots[path]
	if !ok {
		return nil, false
	}
	return slot.listing, true
}

// Put stores a listing, clearing any dirty mark and evicting the least
// recently used entry when over capacity.
func (c *Cache) Put(l *Listing) {
	if l == nil {
		return
	}
	if slot, ok := c.slots[l.Path]; ok {
		slot.listing = l
		slot.dirty = false
		c.order.MoveToFront(slot.elem)
		return
	}
	slot := &cacheSlot{listing: l}
	slot.elem = c.order.PushFront(l.Path)
	c.slots[l.Path] = slot

	for c.order.Len() > c.capacity {
		back := c.order.Back()
		if back == nil {
			break
		}
		evicted := back.Value.(string)
		c.order.Remove(back)
		delete(c.slots, evicted)
	}
}

// MarkDirty flags a cached listing as invalidated. Returns whether the
// path was cached at all.
func (c *Cache) MarkDirty(path string) bool {
	slot, ok := c.slots[path]
	if !ok {
		return false
	}
	slot.dirty = true
	return true
}

// Remove drops a path from the cache.
func (c *Cache) Remove(path string) {
	slot, ok := c.slots[path]
	if !ok {
		return
	}
	c.order.Remove(slot.elem)
	delete(c.slots, path)
}

// Len reports how many listings are resident, dirty ones included.
func (c *Cache) Len() int {
	return len(c.slots)
}
