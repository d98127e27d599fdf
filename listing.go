package driftgrid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrBadListingURL is returned for dataset URLs without an owner and name.
var ErrBadListingURL = errors.New("bad listing url")

const (
	defaultHubURL       = "https://huggingface.co"
	defaultListingDelay = 500 * time.Millisecond
	defaultListingTTL   = 24 * time.Hour
)

// DatasetDir identifies a directory inside a hosted dataset repository.
type DatasetDir struct {
	Repo string // owner/name
	Path string // path inside the repository, may be empty
}

// ParseDatasetURL extracts the repository and directory from a dataset
// URL such as https://huggingface.co/datasets/owner/name/tree/main/dir.
func ParseDatasetURL(raw string) (DatasetDir, error) {
	parts := strings.Split(strings.TrimRight(raw, "/"), "/")
	repoIndex := -1
	for i, p := range parts {
		if p == "datasets" {
			repoIndex = i + 1
			break
		}
	}
	if repoIndex <= 0 || repoIndex+1 >= len(parts) {
		return DatasetDir{}, fmt.Errorf("%w: %q", ErrBadListingURL, raw)
	}
	dir := DatasetDir{Repo: parts[repoIndex] + "/" + parts[repoIndex+1]}
	for i := repoIndex + 2; i < len(parts); i++ {
		if parts[i] == "tree" {
			// Skip "tree/<revision>".
			if i+2 < len(parts) {
				dir.Path = strings.Join(parts[i+2:], "/")
			}
			break
		}
	}
	return dir, nil
}

// CacheKey returns a file-name-safe key for the directory.
func (d DatasetDir) CacheKey() string {
	key := "hf_images_" + d.Repo + "_" + d.Path
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
}

// listingEntry is one item of the hub tree API response.
type listingEntry struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// ListingCache stores directory listings as JSON files.
type ListingCache struct {
	Dir string
}

// cachedListing is the on-disk form of a listing.
type cachedListing struct {
	Images    []ImageRef `json:"images"`
	FetchedAt time.Time  `json:"fetchedAt"`
}

// DefaultListingCacheDir returns <user cache dir>/driftgrid/listings.
func DefaultListingCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("listing cache dir: %w", err)
	}
	return filepath.Join(base, "driftgrid", "listings"), nil
}

func (c *ListingCache) path(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns the cached listing for key. ok is false when there is no
// readable entry.
func (c *ListingCache) Get(key string) (images []ImageRef, fetchedAt time.Time, ok bool) {
	if c == nil {
		return nil, time.Time{}, false
	}
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, time.Time{}, false
	}
	var entry cachedListing
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt entries are dropped silently.
		os.Remove(c.path(key))
		return nil, time.Time{}, false
	}
	return entry.Images, entry.FetchedAt, true
}

// Put stores a listing atomically.
func (c *ListingCache) Put(key string, images []ImageRef, fetchedAt time.Time) error {
	if c == nil {
		return nil
	}
	return atomicWriteJSON(c.path(key), cachedListing{Images: images, FetchedAt: fetchedAt})
}

// ListingClient expands dataset directories into image URLs through the
// hub's tree API, caching results.
type ListingClient struct {
	// BaseURL is the hub origin. Defaults to https://huggingface.co.
	BaseURL string
	Client  *http.Client
	Cache   *ListingCache
	// TTL is how long a cached listing is used without refetching.
	TTL time.Duration
	// Delay is waited before each API request to stay under rate limits.
	Delay time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewListingClient returns a client with the default hub, delay, and TTL.
func NewListingClient(cache *ListingCache, ttl time.Duration) *ListingClient {
	if ttl <= 0 {
		ttl = defaultListingTTL
	}
	return &ListingClient{
		BaseURL: defaultHubURL,
		Client:  defaultHTTPClient,
		Cache:   cache,
		TTL:     ttl,
		Delay:   defaultListingDelay,
	}
}

func (c *ListingClient) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// List returns the image URLs in the dataset directory named by rawURL.
// A fresh cache entry is returned without a request. When the request
// fails a stale cache entry is used if there is one.
func (c *ListingClient) List(ctx context.Context, rawURL string) ([]ImageRef, error) {
	dir, err := ParseDatasetURL(rawURL)
	if err != nil {
		return nil, err
	}
	key := dir.CacheKey()
	cached, fetchedAt, hit := c.Cache.Get(key)
	if hit && c.now().Sub(fetchedAt) < c.TTL {
		return cached, nil
	}

	images, err := c.fetch(ctx, dir)
	if err != nil {
		if hit {
			return cached, nil
		}
		return nil, err
	}
	if err := c.Cache.Put(key, images, c.now()); err != nil {
		// Storage may be full or read-only; the listing is still usable.
		log.Printf("driftgrid: listing cache: %v", err)
	}
	return images, nil
}

func (c *ListingClient) fetch(ctx context.Context, dir DatasetDir) ([]ImageRef, error) {
	if c.Delay > 0 {
		select {
		case <-time.After(c.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = defaultHubURL
	}
	apiURL := fmt.Sprintf("%s/api/datasets/%s/tree/main/%s", base, dir.Repo, dir.Path)
	client := c.Client
	if client == nil {
		client = defaultHTTPClient
	}
	data, err := fetchResource(ctx, client, apiURL, "")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir.Repo, err)
	}

	var entries []listingEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("list %s: parse: %w", dir.Repo, err)
	}
	var images []ImageRef
	for _, e := range entries {
		if e.Type != "file" || !hasImageExt(e.Path) {
			continue
		}
		images = append(images, ImageRef(fmt.Sprintf("%s/datasets/%s/resolve/main/%s", base, dir.Repo, e.Path)))
	}
	return images, nil
}

// atomicWriteJSON writes v to path through a temporary file and rename.
func atomicWriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
