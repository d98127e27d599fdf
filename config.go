package driftgrid

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("invalid config")

// AspectRatio is a width:height ratio for grid cells and the lightbox.
type AspectRatio struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Ratio returns Width/Height, or 1 when either side is not positive.
func (a *AspectRatio) Ratio() float64 {
	if a == nil || a.Width <= 0 || a.Height <= 0 ||
		math.IsInf(a.Width, 0) || math.IsInf(a.Height, 0) {
		return 1
	}
	return a.Width / a.Height
}

// Theme pairs an image list with an aspect ratio.
type Theme struct {
	ImageSource string
	Aspect      AspectRatio
}

// DefaultTheme is used when no theme or an unknown theme is requested.
const DefaultTheme = "general"

// Themes maps theme names to their image list and cell aspect ratio.
var Themes = map[string]Theme{
	"general":                     {ImageSource: "image_urls/images.txt", Aspect: AspectRatio{1, 1}},
	"this-sacchan-does-not-exist": {ImageSource: "image_urls/sacchan-images.txt", Aspect: AspectRatio{1, 1}},
	"this-machu-does-not-exist":   {ImageSource: "image_urls/machu-images.txt", Aspect: AspectRatio{4, 3}},
}

// defaultFallbackImages are shown when the image source cannot be resolved.
var defaultFallbackImages = []ImageRef{
	"https://picsum.photos/seed/img01/800/600",
	"https://picsum.photos/seed/img02/800/600",
	"https://picsum.photos/seed/img03/800/600",
	"https://picsum.photos/seed/img04/800/600",
	"https://picsum.photos/seed/img05/800/600",
	"https://picsum.photos/seed/img06/800/600",
	"https://picsum.photos/seed/img07/800/600",
	"https://picsum.photos/seed/img08/800/600",
	"https://picsum.photos/seed/img09/800/600",
	"https://picsum.photos/seed/img10/800/600",
}

// Config holds every tunable of the grid. Durations are stored in
// milliseconds (seconds for ListingCacheTTL) so the JSON form stays flat.
type Config struct {
	// Grid appearance.
	CellSize    float64      `json:"cellSize"`
	GridPadding float64      `json:"gridPadding"`
	AspectRatio *AspectRatio `json:"aspectRatio,omitempty"`

	// Movement.
	MoveSpeed             float64 `json:"moveSpeed"`
	RandomWalkInterval    int     `json:"randomWalkInterval"`
	RandomWalkIntensity   float64 `json:"randomWalkIntensity"`
	DirectionChangeChance float64 `json:"directionChangeChance"`
	PanSpeed              float64 `json:"panSpeed"`
	ResumeDelay           int     `json:"resumeDelay"`

	// Images.
	Theme              string     `json:"theme"`
	ImageSource        string     `json:"imageSource"`
	FallbackImages     []ImageRef `json:"fallbackImages"`
	UsedImageMemory    int        `json:"usedImageMemory"`
	TextureCacheSize   int        `json:"textureCacheSize"`
	MaxConcurrentLoads int        `json:"maxConcurrentLoads"`
	ListingCacheTTL    int        `json:"listingCacheTTL"`

	Debug bool `json:"debug"`
}

// DefaultConfig returns the configuration of the "general" theme.
func DefaultConfig() *Config {
	theme := Themes[DefaultTheme]
	aspect := theme.Aspect
	return &Config{
		CellSize:              150,
		GridPadding:           2,
		AspectRatio:           &aspect,
		MoveSpeed:             0.5,
		RandomWalkInterval:    600,
		RandomWalkIntensity:   0.4,
		DirectionChangeChance: 0,
		PanSpeed:              3,
		ResumeDelay:           3000,
		Theme:                 DefaultTheme,
		ImageSource:           theme.ImageSource,
		FallbackImages:        append([]ImageRef(nil), defaultFallbackImages...),
		UsedImageMemory:       200,
		TextureCacheSize:      512,
		MaxConcurrentLoads:    8,
		ListingCacheTTL:       24 * 60 * 60,
	}
}

// ApplyTheme sets the image source and aspect ratio from the named theme.
// Unknown names fall back to DefaultTheme. Returns the theme name applied.
func (c *Config) ApplyTheme(name string) string {
	theme, ok := Themes[name]
	if !ok {
		name = DefaultTheme
		theme = Themes[DefaultTheme]
	}
	aspect := theme.Aspect
	c.Theme = name
	c.ImageSource = theme.ImageSource
	c.AspectRatio = &aspect
	return name
}

// LoadConfig reads a JSON config file on top of DefaultConfig. Keys absent
// from the file keep their defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := ParseConfig(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseConfig decodes JSON into cfg, leaving absent keys untouched. A
// "theme" key without an explicit "imageSource" selects that theme's list
// and aspect ratio.
func ParseConfig(data []byte, cfg *Config) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if _, ok := keys["theme"]; ok {
		var name string
		if err := json.Unmarshal(keys["theme"], &name); err != nil {
			return fmt.Errorf("parse config: theme: %w", err)
		}
		cfg.ApplyTheme(name)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Validate reports every out-of-range field, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}
	if !(c.CellSize > 0) {
		bad("cellSize must be positive, got %v", c.CellSize)
	}
	if c.GridPadding < 0 || math.IsNaN(c.GridPadding) {
		bad("gridPadding must not be negative, got %v", c.GridPadding)
	}
	if c.MoveSpeed < 0 || math.IsNaN(c.MoveSpeed) {
		bad("moveSpeed must not be negative, got %v", c.MoveSpeed)
	}
	if c.PanSpeed < 0 || math.IsNaN(c.PanSpeed) {
		bad("panSpeed must not be negative, got %v", c.PanSpeed)
	}
	if c.RandomWalkInterval <= 0 {
		bad("randomWalkInterval must be positive, got %d", c.RandomWalkInterval)
	}
	if c.ResumeDelay < 0 {
		bad("resumeDelay must not be negative, got %d", c.ResumeDelay)
	}
	if c.RandomWalkIntensity < 0 || c.RandomWalkIntensity > 1 {
		bad("randomWalkIntensity must be in [0,1], got %v", c.RandomWalkIntensity)
	}
	if c.DirectionChangeChance < 0 || c.DirectionChangeChance > 1 {
		bad("directionChangeChance must be in [0,1], got %v", c.DirectionChangeChance)
	}
	if c.UsedImageMemory < 0 {
		bad("usedImageMemory must not be negative, got %d", c.UsedImageMemory)
	}
	if c.AspectRatio != nil && (!(c.AspectRatio.Width > 0) || !(c.AspectRatio.Height > 0)) {
		bad("aspectRatio sides must be positive, got %v:%v", c.AspectRatio.Width, c.AspectRatio.Height)
	}
	if c.TextureCacheSize <= 0 {
		bad("textureCacheSize must be positive, got %d", c.TextureCacheSize)
	}
	if c.MaxConcurrentLoads <= 0 {
		bad("maxConcurrentLoads must be positive, got %d", c.MaxConcurrentLoads)
	}
	return errors.Join(errs...)
}

// WalkInterval returns RandomWalkInterval as a duration.
func (c *Config) WalkInterval() time.Duration {
	return time.Duration(c.RandomWalkInterval) * time.Millisecond
}

// ResumeAfter returns ResumeDelay as a duration.
func (c *Config) ResumeAfter() time.Duration {
	return time.Duration(c.ResumeDelay) * time.Millisecond
}

// ListingTTL returns ListingCacheTTL as a duration.
func (c *Config) ListingTTL() time.Duration {
	return time.Duration(c.ListingCacheTTL) * time.Second
}
