//go:build ((linux && !android) || freebsd) && (amd64 || arm64)

// Package fontconfig loads the fontconfig shared library at run time and
// exposes the few calls fontctx needs: creating and destroying a
// configuration and listing font families.
//
// Nothing here requires cgo; symbols are bound with purego.
package fontconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// ErrLibraryNotFound is returned when libfontconfig cannot be loaded.
var ErrLibraryNotFound = errors.New("fontconfig: library not found")

// ErrInitFailed is returned when fontconfig fails to load its configuration.
var ErrInitFailed = errors.New("fontconfig: failed to load configuration")

// fcResultMatch is FcResultMatch from fontconfig.h.
const fcResultMatch = 0

// fcFamily is FC_FAMILY.
var fcFamily = cString("family")

var (
	lib      uintptr
	loadOnce sync.Once
	loadErr  error
)

// Function bindings.
var (
	fcGetVersion             func() int32
	fcInitLoadConfigAndFonts func() uintptr
	fcConfigDestroy          func(config uintptr)
	fcPatternCreate          func() uintptr
	fcPatternDestroy         func(p uintptr)
	fcPatternGetString       func(p uintptr, object *byte, n int32, s *uintptr) int32
	fcObjectSetCreate        func() uintptr
	fcObjectSetAdd           func(set uintptr, object *byte) int32
	fcObjectSetDestroy       func(set uintptr)
	fcFontList               func(config, p, set uintptr) uintptr
	fcFontSetDestroy         func(fs uintptr)
)

// Load loads libfontconfig and binds its functions.
// It is safe to call multiple times; subsequent calls return the first result.
func Load() error {
	loadOnce.Do(func() {
		loadErr = doLoad()
	})
	return loadErr
}

func doLoad() error {
	var err error
	lib, err = loadLibrary()
	if err != nil {
		return err
	}

	purego.RegisterLibFunc(&fcGetVersion, lib, "FcGetVersion")
	purego.RegisterLibFunc(&fcInitLoadConfigAndFonts, lib, "FcInitLoadConfigAndFonts")
	purego.RegisterLibFunc(&fcConfigDestroy, lib, "FcConfigDestroy")
	purego.RegisterLibFunc(&fcPatternCreate, lib, "FcPatternCreate")
	purego.RegisterLibFunc(&fcPatternDestroy, lib, "FcPatternDestroy")
	purego.RegisterLibFunc(&fcPatternGetString, lib, "FcPatternGetString")
	purego.RegisterLibFunc(&fcObjectSetCreate, lib, "FcObjectSetCreate")
	purego.RegisterLibFunc(&fcObjectSetAdd, lib, "FcObjectSetAdd")
	purego.RegisterLibFunc(&fcObjectSetDestroy, lib, "FcObjectSetDestroy")
	purego.RegisterLibFunc(&fcFontList, lib, "FcFontList")
	purego.RegisterLibFunc(&fcFontSetDestroy, lib, "FcFontSetDestroy")
	return nil
}

// libraryNames lists the sonames tried, most specific first.
var libraryNames = []string{
	"libfontconfig.so.1",
	"libfontconfig.so",
}

// searchPaths returns directories tried before letting the dynamic
// loader resolve bare names.
func searchPaths() []string {
	var paths []string
	if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
		paths = append(paths, filepath.SplitList(ldPath)...)
	}
	return append(paths,
		"/usr/lib/x86_64-linux-gnu",
		"/usr/lib/aarch64-linux-gnu",
		"/usr/lib64",
		"/usr/local/lib",
		"/usr/lib",
	)
}

func loadLibrary() (uintptr, error) {
	for _, dir := range searchPaths() {
		for _, name := range libraryNames {
			if h, err := purego.Dlopen(filepath.Join(dir, name), purego.RTLD_NOW|purego.RTLD_GLOBAL); err == nil {
				return h, nil
			}
		}
	}
	var lastErr error
	for _, name := range libraryNames {
		h, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return h, nil
		}
		lastErr = err
	}
	return 0, fmt.Errorf("%w: %v", ErrLibraryNotFound, lastErr)
}

// Version returns the fontconfig version as encoded by FcGetVersion
// (major*10000 + minor*100 + revision), or 0 if the library is not loaded.
func Version() int {
	if Load() != nil {
		return 0
	}
	return int(fcGetVersion())
}

// Config is an owned FcConfig reference.
// The FcConfig itself is allocated and owned by the library.
type Config struct {
	mu  sync.RWMutex
	ptr uintptr
}

// New loads the library if needed and creates a configuration with all
// configured fonts loaded.
func New() (*Config, error) {
	if err := Load(); err != nil {
		return nil, err
	}
	p := fcInitLoadConfigAndFonts()
	if p == 0 {
		return nil, ErrInitFailed
	}
	return &Config{ptr: p}, nil
}

// Ptr returns the FcConfig pointer, or 0 after Destroy.
func (c *Config) Ptr() uintptr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ptr
}

// Destroy drops the reference. It is safe to call more than once.
func (c *Config) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ptr == 0 {
		return
	}
	fcConfigDestroy(c.ptr)
	c.ptr = 0
}

// fontSet mirrors FcFontSet.
type fontSet struct {
	nfont int32
	sfont int32
	fonts uintptr
}

// Families lists the distinct family names known to the configuration,
// sorted.
func (c *Config) Families() ([]string, error) {
	// Destroy must not run while the list call holds the pointer.
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ptr == 0 {
		return nil, errors.New("fontconfig: configuration destroyed")
	}

	pat := fcPatternCreate()
	if pat == 0 {
		return nil, errors.New("fontconfig: FcPatternCreate failed")
	}
	defer fcPatternDestroy(pat)

	objs := fcObjectSetCreate()
	if objs == 0 {
		return nil, errors.New("fontconfig: FcObjectSetCreate failed")
	}
	defer fcObjectSetDestroy(objs)
	fcObjectSetAdd(objs, fcFamily)

	fsPtr := fcFontList(c.ptr, pat, objs)
	if fsPtr == 0 {
		return nil, errors.New("fontconfig: FcFontList failed")
	}
	defer fcFontSetDestroy(fsPtr)

	fs := (*fontSet)(unsafe.Pointer(fsPtr))
	patterns := unsafe.Slice((*uintptr)(unsafe.Pointer(fs.fonts)), int(fs.nfont))

	seen := make(map[string]struct{}, len(patterns))
	families := make([]string, 0, len(patterns))
	for _, p := range patterns {
		for n := int32(0); ; n++ {
			var s uintptr
			if fcPatternGetString(p, fcFamily, n, &s) != fcResultMatch {
				break
			}
			name := goString(unsafe.Pointer(s))
			if _, dup := seen[name]; dup || name == "" {
				continue
			}
			seen[name] = struct{}{}
			families = append(families, name)
		}
	}
	sort.Strings(families)
	return families, nil
}

// cString converts a Go string to a null-terminated C string.
func cString(s string) *byte {
	b := append([]byte(s), 0)
	return &b[0]
}

// goString copies a null-terminated C string.
func goString(ptr unsafe.Pointer) string {
	if ptr == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(ptr, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(ptr), n))
}
