package cache

import (
	"sync"

	"github.com/fsru-tools/fleet-timeline/pkg/core"
)

// VesselCache caches decoded vessel lists keyed by snapshot path so
// scrubbing the slider back and forth does not re-read files. Snapshot
// files are immutable once written, so entries never expire; Reset covers
// a directory rescan.
type VesselCache struct {
	m       sync.Mutex
	vessels map[string][]core.VesselRecord
}

func NewVesselCache() *VesselCache {
	return &VesselCache{
		vessels: make(map[string][]core.VesselRecord),
	}
}

func (c *VesselCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.vessels = make(map[string][]core.VesselRecord)
}

func (c *VesselCache) Get(path string) ([]core.VesselRecord, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if v, ok := c.vessels[path]; ok {
		return v, true
	}
	return nil, false
}

func (c *VesselCache) Add(path string, vessels []core.VesselRecord) {
	c.m.Lock()
	defer c.m.Unlock()
	c.vessels[path] = vessels
}

func (c *VesselCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.vessels)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
