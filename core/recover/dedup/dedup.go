// Package dedup collapses the free-list double-parse: every page on the
// free list is parsed once as part of the driver's linear sweep and once
// via the free-list walk, by design. When
// an operator opts in (the CLI's --dedup flag), this package's cache lets
// the driver recognize a (page, cell-pointer) pair it has already emitted
// and drop the second occurrence, rather than writing it out twice.
package dedup

import "github.com/golang/groupcache/lru"

// key identifies a cell by its page index and page-relative byte offset.
// Two cells with the same key are, by construction, the same on-disk
// bytes, whichever pass (linear sweep or free-list walk) reached them.
type key struct {
	page        uint32
	cellPointer uint16
}

// Cache is a bounded (page, cell-pointer) seen-set backed by an LRU.
// A zero Cache is not usable; construct one with New.
type Cache struct {
	seen *lru.Cache
}

// New returns a Cache holding up to maxEntries distinct (page,
// cell-pointer) pairs before it starts evicting the least recently seen.
func New(maxEntries int) *Cache {
	return &Cache{seen: lru.New(maxEntries)}
}

// Seen reports whether (page, cellPointer) has already been recorded, and
// records it if not. The first call for a given pair returns false (the
// driver should emit the tuple); every subsequent call returns true (the
// driver should drop it).
func (c *Cache) Seen(page uint32, cellPointer uint16) bool {
	k := key{page: page, cellPointer: cellPointer}
	if _, ok := c.seen.Get(k); ok {
		return true
	}
	c.seen.Add(k, struct{}{})
	return false
}
