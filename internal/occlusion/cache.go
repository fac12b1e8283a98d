package occlusion

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sync"
)

// MaskCache memoizes BuildMask results keyed on the input pixels and the
// parameter set. The pipeline itself stays stateless; the cache is an
// explicit layer for serving paths that rebuild the same crop repeatedly.
// Eviction is FIFO at a fixed capacity. Safe for concurrent use.
type MaskCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[uint64]*Raster
	order    []uint64
	hits     uint64
	misses   uint64
}

// NewMaskCache creates a cache holding up to capacity masks. A capacity of
// zero or less disables caching; BuildMask then always recomputes.
func NewMaskCache(capacity int) *MaskCache {
	return &MaskCache{
		capacity: capacity,
		entries:  make(map[uint64]*Raster),
	}
}

// BuildMask returns the memoized mask for (src, p), computing and storing it
// on a miss. The returned raster is a private copy the caller may mutate.
func (c *MaskCache) BuildMask(src *Raster, p Params) *Raster {
	if c == nil || c.capacity <= 0 {
		return BuildMask(src, p)
	}

	key := maskKey(src, p)

	c.mu.Lock()
	if cached, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return cached.Clone()
	}
	c.mu.Unlock()

	mask := BuildMask(src, p)

	c.mu.Lock()
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = mask.Clone()
		c.order = append(c.order, key)
		if len(c.order) > c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
	}
	c.misses++
	c.mu.Unlock()

	return mask
}

// Stats returns cumulative hit and miss counts.
func (c *MaskCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached masks.
func (c *MaskCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// maskKey hashes the raster dimensions, pixels and parameter fields with
// FNV-1a. Not cryptographic; a 64-bit digest is collision-safe enough for a
// small serving cache.
func maskKey(src *Raster, p Params) uint64 {
	h := fnv.New64a()

	var scratch [8]byte
	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(scratch[:], uint64(v))
		_, _ = h.Write(scratch[:])
	}
	writeFloat := func(v float64) {
		binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(v))
		_, _ = h.Write(scratch[:])
	}

	if src.valid() {
		writeInt(src.Width)
		writeInt(src.Height)
		_, _ = h.Write(src.Pix)
	}

	writeFloat(p.ThresholdFloor)
	writeFloat(p.ThresholdCeiling)
	writeInt(p.SealDilateRadius)
	writeInt(p.EdgeDilateRadius)
	writeInt(p.EdgeBlurRadius)
	writeFloat(p.EdgeBlurSigma)
	writeFloat(p.ColorDistance)
	if p.UseLabColor {
		writeInt(1)
	} else {
		writeInt(0)
	}
	writeInt(p.ColorDilateRadius)
	writeInt(p.ColorBlurRadius)
	writeFloat(p.ColorBlurSigma)
	writeFloat(p.BorderBandFraction)
	writeInt(p.BorderSamplesPerEdge)
	writeInt(p.GateDilateRadius)
	writeInt(p.GateBlurRadius)
	writeFloat(p.GateBlurSigma)
	writeFloat(p.Gamma)

	return h.Sum64()
}
