package driftgrid

import "hash/fnv"

const (
	// seedOffset is added to every coordinate hash so that neighbouring keys
	// do not map to neighbouring indices.
	seedOffset = 104729

	// smallPoolSize is the largest pool for which recency is not tracked.
	smallPoolSize = 10

	probeAttempts = 11
	probeStride   = 31

	// DefaultRecentImages is the default recency window capacity.
	DefaultRecentImages = 200
)

// ImagePool hands out images for grid cells. The image list is immutable
// after construction; the recency window changes with every assignment.
type ImagePool struct {
	images []ImageRef

	// recent is a FIFO ring of the last assigned refs; counts mirrors it
	// for O(1) membership tests.
	recent    []ImageRef
	head      int
	size      int
	counts    map[ImageRef]int
	assigned  uint64
	fallbacks uint64
}

// NewImagePool copies images into a new pool whose recency window holds
// at most memory entries. A non-positive memory disables the window.
func NewImagePool(images []ImageRef, memory int) *ImagePool {
	if memory < 0 {
		memory = 0
	}
	return &ImagePool{
		images: append([]ImageRef(nil), images...),
		recent: make([]ImageRef, memory),
		counts: make(map[ImageRef]int, memory),
	}
}

// Len returns the number of images in the pool.
func (p *ImagePool) Len() int {
	return len(p.images)
}

// Images returns the pool contents. The returned slice MUST NOT be mutated.
func (p *ImagePool) Images() []ImageRef {
	return p.images
}

// Assign picks an image for the cell with the given key. Returns false
// only when the pool is empty.
//
// Pools of ten or fewer images map a key to the same image every time.
// Larger pools probe up to eleven candidates and take the first one that
// is not in the recency window, or the last candidate if all are recent.
func (p *ImagePool) Assign(key string) (ImageRef, bool) {
	n := uint64(len(p.images))
	if n == 0 {
		return "", false
	}
	seed := hashKey(key) + seedOffset
	if n <= smallPoolSize {
		return p.images[seed%n], true
	}

	var ref ImageRef
	found := false
	for attempt := uint64(0); attempt < probeAttempts; attempt++ {
		ref = p.images[(seed+attempt*probeStride)%n]
		if p.counts[ref] == 0 {
			found = true
			break
		}
	}
	if !found {
		p.fallbacks++
	}
	p.remember(ref)
	p.assigned++
	return ref, true
}

// Recent reports whether ref is in the recency window.
func (p *ImagePool) Recent(ref ImageRef) bool {
	return p.counts[ref] > 0
}

// RecentLen returns the number of entries in the recency window.
func (p *ImagePool) RecentLen() int {
	return p.size
}

// remember pushes ref into the recency window, evicting the oldest entry
// once the window is full.
func (p *ImagePool) remember(ref ImageRef) {
	capacity := len(p.recent)
	if capacity == 0 {
		return
	}
	if p.size == capacity {
		old := p.recent[p.head]
		if p.counts[old] <= 1 {
			delete(p.counts, old)
		} else {
			p.counts[old]--
		}
		p.recent[p.head] = ref
		p.head = (p.head + 1) % capacity
	} else {
		p.recent[(p.head+p.size)%capacity] = ref
		p.size++
	}
	p.counts[ref]++
}

// hashKey is FNV-1a over the key bytes.
func hashKey(key string) uint64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key)) // fnv.Write never returns an error
	return uint64(h.Sum32())
}

// Stats returns the number of tracked assignments and how many of them
// exhausted every probe and reused a recent image.
func (p *ImagePool) Stats() (assigned, exhausted uint64) {
	return p.assigned, p.fallbacks
}
