package fontctx

import (
	"os"
	"path/filepath"

	"github.com/gogpu/fontctx/memsize"
)

// Option configures New.
//
// Example:
//
//	// Platform backend, falling back to the bundled Go fonts
//	h, err := fontctx.New(fontctx.WithFallback(fontctx.FallbackSynthetic))
type Option func(*config)

// Fallback selects what New does when the backend is unavailable.
type Fallback int

const (
	// FallbackNone returns the error to the caller together with the
	// default handle.
	FallbackNone Fallback = iota

	// FallbackEmpty returns the default handle and no error.
	FallbackEmpty

	// FallbackSynthetic opens the synthetic backend built on the Go fonts.
	FallbackSynthetic
)

// String returns the fallback policy name.
func (f Fallback) String() string {
	switch f {
	case FallbackNone:
		return "none"
	case FallbackEmpty:
		return "empty"
	case FallbackSynthetic:
		return "synthetic"
	default:
		return "unknown"
	}
}

// config holds configuration for New.
type config struct {
	backend     Backend
	fallback    Fallback
	cacheDir    string
	registry    *memsize.Registry
	registrySet bool
}

// defaultConfig returns the default configuration.
func defaultConfig() config {
	return config{
		fallback: FallbackNone,
	}
}

// WithBackend overrides the platform backend selected at build time.
func WithBackend(b Backend) Option {
	return func(c *config) {
		c.backend = b
	}
}

// WithFallback sets the policy applied when the backend fails to open.
func WithFallback(f Fallback) Option {
	return func(c *config) {
		c.fallback = f
	}
}

// WithCacheDir sets the directory where the platform scan backend keeps
// its font index. The default is fontctx under os.UserCacheDir.
//
// The system font index is loaded once per process, so only the first scan
// uses the directory; see ScanBackend.
func WithCacheDir(dir string) Option {
	return func(c *config) {
		c.cacheDir = dir
	}
}

// WithRegistry sets the memory registry opened handles report to.
// The default is memsize.Default. Pass nil to skip registration.
func WithRegistry(r *memsize.Registry) Option {
	return func(c *config) {
		c.registry = r
		c.registrySet = true
	}
}

func (c *config) memRegistry() *memsize.Registry {
	if c.registrySet {
		return c.registry
	}
	return memsize.Default
}

// defaultCacheDir returns the scan index directory, or "" when the user
// cache directory is unknown, leaving the choice to go-text.
func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "fontctx")
}

func (c *config) scanCacheDir() string {
	if c.cacheDir != "" {
		return c.cacheDir
	}
	return defaultCacheDir()
}
