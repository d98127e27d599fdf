package driftgrid

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/semaphore"
)

const (
	defaultTextureCapacity = 512
	defaultMaxLoads        = 8
)

// TextureOptions configures NewTextureCache.
type TextureOptions[T any] struct {
	// Client fetches remote images. Defaults to a client with a 30s timeout.
	Client *http.Client
	// BaseDir resolves relative image paths.
	BaseDir string
	// Capacity is the number of textures kept. Default 512.
	Capacity int
	// MaxConcurrent bounds simultaneous downloads. Default 8.
	MaxConcurrent int
	// Upload converts a decoded, scaled image into a texture. Called only
	// from Drain.
	Upload func(image.Image) T
	// Evict, if set, releases a texture dropped from the cache.
	Evict func(T)
}

// loadResult carries a finished load from a worker to Drain.
type loadResult struct {
	key string
	img image.Image
	err error
}

// TextureCache loads images in the background and keeps the most recently
// used textures. Get and Drain must be called from one goroutine (the
// frame loop); only fetching and decoding happen on workers.
type TextureCache[T any] struct {
	client  *http.Client
	baseDir string
	upload  func(image.Image) T

	sem     *semaphore.Weighted
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	results chan loadResult

	cache    *lru.Cache[string, T]
	capacity int
	pending  map[string]struct{}
	failed   map[string]error
}

// NewTextureCache creates a cache. opts.Upload is required.
func NewTextureCache[T any](opts TextureOptions[T]) (*TextureCache[T], error) {
	if opts.Upload == nil {
		return nil, fmt.Errorf("texture cache: nil Upload")
	}
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = defaultTextureCapacity
	}
	loads := opts.MaxConcurrent
	if loads <= 0 {
		loads = defaultMaxLoads
	}
	client := opts.Client
	if client == nil {
		client = defaultHTTPClient
	}

	var onEvict func(string, T)
	if opts.Evict != nil {
		onEvict = func(_ string, t T) { opts.Evict(t) }
	}
	cache, err := lru.NewWithEvict[string, T](capacity, onEvict)
	if err != nil {
		return nil, fmt.Errorf("texture cache: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &TextureCache[T]{
		client:  client,
		baseDir: opts.BaseDir,
		upload:  opts.Upload,
		sem:     semaphore.NewWeighted(int64(loads)),
		ctx:     ctx,
		cancel:  cancel,
		results: make(chan loadResult, loads*4),
		cache:    cache,
		capacity: capacity,
		pending:  make(map[string]struct{}),
		failed:   make(map[string]error),
	}, nil
}

func textureKey(ref ImageRef, w, h int) string {
	return string(ref) + "@" + strconv.Itoa(w) + "x" + strconv.Itoa(h)
}

// Get returns the texture for ref scaled to cover w x h. On a miss it
// starts a background load (once) and returns false.
func (c *TextureCache[T]) Get(ref ImageRef, w, h int) (T, bool) {
	key := textureKey(ref, w, h)
	if t, ok := c.cache.Get(key); ok {
		return t, true
	}
	var zero T
	if w <= 0 || h <= 0 {
		return zero, false
	}
	if _, ok := c.pending[key]; ok {
		return zero, false
	}
	if _, ok := c.failed[key]; ok {
		return zero, false
	}
	c.pending[key] = struct{}{}
	c.wg.Add(1)
	go c.load(key, ref, w, h)
	return zero, false
}

// Err returns the load error for ref at w x h, if its load failed.
func (c *TextureCache[T]) Err(ref ImageRef, w, h int) error {
	return c.failed[textureKey(ref, w, h)]
}

// Pending returns the number of loads in flight or awaiting Drain.
func (c *TextureCache[T]) Pending() int {
	return len(c.pending)
}

// Len returns the number of cached textures.
func (c *TextureCache[T]) Len() int {
	return c.cache.Len()
}

// Cap returns the number of textures the cache holds before evicting.
func (c *TextureCache[T]) Cap() int {
	return c.capacity
}

// Reserve grows the capacity to at least n and reports whether it grew.
// It never shrinks the cache.
func (c *TextureCache[T]) Reserve(n int) bool {
	if n <= c.capacity {
		return false
	}
	c.cache.Resize(n)
	c.capacity = n
	return true
}

// Drain uploads every finished load without blocking. Returns the number
// of results processed.
func (c *TextureCache[T]) Drain() int {
	n := 0
	for {
		select {
		case r := <-c.results:
			n++
			delete(c.pending, r.key)
			if r.err != nil {
				c.failed[r.key] = r.err
				continue
			}
			c.cache.Add(r.key, c.upload(r.img))
		default:
			return n
		}
	}
}

// Close stops outstanding loads and evicts every texture.
func (c *TextureCache[T]) Close() {
	c.cancel()
	c.wg.Wait()
	c.cache.Purge()
}

func (c *TextureCache[T]) load(key string, ref ImageRef, w, h int) {
	defer c.wg.Done()
	if err := c.sem.Acquire(c.ctx, 1); err != nil {
		return
	}
	img, err := c.fetchScaled(ref, w, h)
	c.sem.Release(1)

	select {
	case c.results <- loadResult{key: key, img: img, err: err}:
	case <-c.ctx.Done():
	}
}

func (c *TextureCache[T]) fetchScaled(ref ImageRef, w, h int) (image.Image, error) {
	data, err := fetchResource(c.ctx, c.client, string(ref), c.baseDir)
	if err != nil {
		return nil, err
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}
	return ScaleCover(src, w, h), nil
}

// ScaleCover scales src to exactly w x h, cropping the centre of the
// longer side so the aspect ratio is preserved. Scaling happens on the CPU
// so no oversized GPU textures are created.
func ScaleCover(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return dst
	}
	crop := b
	dstRatio := float64(dst.Bounds().Dx()) / float64(dst.Bounds().Dy())
	srcRatio := float64(b.Dx()) / float64(b.Dy())
	if srcRatio > dstRatio {
		cw := int(float64(b.Dy()) * dstRatio)
		crop.Min.X = b.Min.X + (b.Dx()-cw)/2
		crop.Max.X = crop.Min.X + max(cw, 1)
	} else if srcRatio < dstRatio {
		ch := int(float64(b.Dx()) / dstRatio)
		crop.Min.Y = b.Min.Y + (b.Dy()-ch)/2
		crop.Max.Y = crop.Min.Y + max(ch, 1)
	}
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}
