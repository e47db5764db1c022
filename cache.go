package heapdb

import (
	"unsafe"

	"github.com/cobaltbyte/heapdb/internal/fastmap"
)

// pageCache is a lazily-populated, never-evicted cache of *Page keyed by
// page number, backing the "pages persist only once flushed by commit"
// lifecycle of spec §3. It adapts the teacher module's fibonacci-hashed
// Uint32Map, originally built for a transaction's dirty-page set, to the
// heap file's per-directory page cache.
type pageCache struct {
	m fastmap.Uint32Map
}

func (c *pageCache) get(pageNo uint32) (*Page, bool) {
	ptr := c.m.Get(pageNo)
	if ptr == nil {
		return nil, false
	}
	return (*Page)(ptr), true
}

func (c *pageCache) set(pageNo uint32, p *Page) {
	c.m.Set(pageNo, unsafe.Pointer(p))
}

// forEach visits every cached page in unspecified order; used by commit to
// flush the full working set.
func (c *pageCache) forEach(fn func(pageNo uint32, p *Page)) {
	c.m.ForEach(func(k uint32, v unsafe.Pointer) {
		fn(k, (*Page)(v))
	})
}

func (c *pageCache) len() int { return c.m.Len() }
