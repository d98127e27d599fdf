package driftgrid

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ErrNoImages is returned when an image list resolves to nothing.
var ErrNoImages = errors.New("no images")

const (
	// listingPrefix marks a line that names a remote dataset directory.
	listingPrefix = "hf:"
	// dirPrefix marks a line that names a local directory of images.
	dirPrefix = "dir:"

	defaultHTTPTimeout = 30 * time.Second
)

// imageExtensions are the file types picked up from directories and
// listings.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// defaultHTTPClient is shared by list, listing, and texture fetches.
var defaultHTTPClient = &http.Client{Timeout: defaultHTTPTimeout}

// SourceOptions controls ResolveImages and LoadImageList. Zero values are
// valid.
type SourceOptions struct {
	// Client fetches http(s) resources. Defaults to a client with a 30s
	// timeout.
	Client *http.Client
	// BaseDir resolves relative file paths. Defaults to the working
	// directory.
	BaseDir string
	// Listings expands "hf:" lines. Lines are skipped when nil.
	Listings *ListingClient
	// Rand shuffles the resolved list. The list keeps file order when nil.
	Rand *rand.Rand
}

func (o SourceOptions) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return defaultHTTPClient
}

// ResolveImages loads the image list named by cfg.ImageSource. Any failure,
// or an empty result, falls back to cfg.FallbackImages. The fallback list is
// used as-is, without shuffling.
func ResolveImages(ctx context.Context, cfg *Config, opts SourceOptions) []ImageRef {
	refs, err := LoadImageList(ctx, cfg.ImageSource, opts)
	if err != nil {
		log.Printf("driftgrid: image source %q: %v; using %d fallback images",
			cfg.ImageSource, err, len(cfg.FallbackImages))
		return append([]ImageRef(nil), cfg.FallbackImages...)
	}
	return refs
}

// LoadImageList fetches a newline-separated list of image references from
// a URL or file and expands "hf:" and "dir:" lines.
func LoadImageList(ctx context.Context, src string, opts SourceOptions) ([]ImageRef, error) {
	if src == "" {
		return nil, fmt.Errorf("load image list: %w: empty source", ErrNoImages)
	}
	data, err := fetchResource(ctx, opts.client(), src, opts.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("load image list: %w", err)
	}

	var refs []ImageRef
	for _, line := range ParseImageList(bytes.NewReader(data)) {
		switch {
		case strings.HasPrefix(line, listingPrefix):
			if opts.Listings == nil {
				continue
			}
			listed, err := opts.Listings.List(ctx, strings.TrimSpace(line[len(listingPrefix):]))
			if err != nil {
				log.Printf("driftgrid: listing %q: %v", line, err)
				continue
			}
			refs = append(refs, listed...)
		case strings.HasPrefix(line, dirPrefix):
			dir := strings.TrimSpace(line[len(dirPrefix):])
			scanned, err := ScanImageDir(resolvePath(opts.BaseDir, dir), "")
			if err != nil {
				log.Printf("driftgrid: scan %q: %v", dir, err)
				continue
			}
			refs = append(refs, scanned...)
		default:
			refs = append(refs, ImageRef(line))
		}
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("load image list %q: %w", src, ErrNoImages)
	}
	if opts.Rand != nil {
		shuffle(refs, opts.Rand)
	}
	return refs, nil
}

// ParseImageList splits r into trimmed, non-empty lines.
func ParseImageList(r io.Reader) []string {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// WriteImageList writes refs one per line.
func WriteImageList(w io.Writer, refs []ImageRef) error {
	bw := bufio.NewWriter(w)
	for _, ref := range refs {
		if _, err := bw.WriteString(string(ref) + "\n"); err != nil {
			return fmt.Errorf("write image list: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write image list: %w", err)
	}
	return nil
}

// ScanImageDir lists the image files directly inside dir, sorted by name.
// With a non-empty urlPrefix the refs are prefix/name (for serving over
// HTTP); otherwise they are file paths.
func ScanImageDir(dir, urlPrefix string) ([]ImageRef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan image dir: %w", err)
	}
	var refs []ImageRef
	for _, e := range entries {
		if e.IsDir() || !hasImageExt(e.Name()) {
			continue
		}
		if urlPrefix != "" {
			refs = append(refs, ImageRef(path.Join(urlPrefix, e.Name())))
		} else {
			refs = append(refs, ImageRef(filepath.Join(dir, e.Name())))
		}
	}
	return refs, nil
}

func hasImageExt(name string) bool {
	return slices.Contains(imageExtensions, strings.ToLower(path.Ext(name)))
}

// shuffle is an in-place Fisher-Yates shuffle.
func shuffle(refs []ImageRef, rng *rand.Rand) {
	for i := len(refs) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		refs[i], refs[j] = refs[j], refs[i]
	}
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

func resolvePath(baseDir, p string) string {
	if baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// fetchResource reads src over HTTP or from disk.
func fetchResource(ctx context.Context, client *http.Client, src, baseDir string) ([]byte, error) {
	if !isRemote(src) {
		data, err := os.ReadFile(resolvePath(baseDir, src))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", src, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", src, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", src, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	return data, nil
}
