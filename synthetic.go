package fontctx

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"unsafe"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/gofont/gosmallcapsitalic"
	"golang.org/x/image/font/sfnt"

	"github.com/gogpu/fontctx/internal/cache"
	"github.com/gogpu/fontctx/memsize"
)

const syntheticName = "synthetic"

// syntheticFile is one embedded Go font. Regular faces come first within a
// family so LoadFont picks them by default.
type syntheticFile struct {
	name string
	data []byte
}

var syntheticFiles = []syntheticFile{
	{"goregular", goregular.TTF},
	{"gobold", gobold.TTF},
	{"goitalic", goitalic.TTF},
	{"gobolditalic", gobolditalic.TTF},
	{"gomedium", gomedium.TTF},
	{"gomediumitalic", gomediumitalic.TTF},
	{"gomono", gomono.TTF},
	{"gomonobold", gomonobold.TTF},
	{"gomonoitalic", gomonoitalic.TTF},
	{"gomonobolditalic", gomonobolditalic.TTF},
	{"gosmallcaps", gosmallcaps.TTF},
	{"gosmallcapsitalic", gosmallcapsitalic.TTF},
}

// syntheticIndex maps folded family names to syntheticFiles positions.
// It is built once per process; every synthetic resource shares it.
var syntheticIndex struct {
	once     sync.Once
	byFamily map[string][]int
	families []string
	err      error
}

func loadSyntheticIndex() error {
	syntheticIndex.once.Do(func() {
		byFamily := make(map[string][]int)
		var families []string
		var buf sfnt.Buffer
		for i, f := range syntheticFiles {
			parsed, err := sfnt.Parse(f.data)
			if err != nil {
				syntheticIndex.err = fmt.Errorf("fontctx: parse %s: %w", f.name, err)
				return
			}
			family, err := parsed.Name(&buf, sfnt.NameIDFamily)
			if err != nil || family == "" {
				family = f.name
			}
			key := familyKey(family)
			if _, ok := byFamily[key]; !ok {
				families = append(families, family)
			}
			byFamily[key] = append(byFamily[key], i)
		}
		sort.Strings(families)
		syntheticIndex.byFamily = byFamily
		syntheticIndex.families = families
	})
	return syntheticIndex.err
}

// SyntheticBackend returns a backend over the Go fonts bundled with
// golang.org/x/image. It needs no platform service and is the target of
// FallbackSynthetic.
func SyntheticBackend() Backend {
	return BackendFunc(syntheticName, func() (Resource, error) {
		if err := loadSyntheticIndex(); err != nil {
			return nil, err
		}
		return &SyntheticResource{
			parsed: cache.New[int, parsedFont](len(syntheticFiles)),
		}, nil
	})
}

// SyntheticResource is the resource of the synthetic backend.
//
// Parsed fonts are cached per resource. A *font.Font is read-only and safe
// for concurrent use; callers wrap it with font.NewFace per goroutine.
type SyntheticResource struct {
	parsed *cache.Cache[int, parsedFont]
}

// parsedFont is a cached font with the heap size of its tables, measured
// once at parse time.
type parsedFont struct {
	font *font.Font
	size uintptr
}

// CacheStats contains statistics of the parsed font cache.
type CacheStats struct {
	Len       int
	Limit     int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Families implements FamilyLister.
func (r *SyntheticResource) Families() ([]string, error) {
	out := make([]string, len(syntheticIndex.families))
	copy(out, syntheticIndex.families)
	return out, nil
}

// LoadFont returns the regular face of family. Case and spaces are ignored.
func (r *SyntheticResource) LoadFont(family string) (*font.Font, error) {
	idx, ok := syntheticIndex.byFamily[familyKey(family)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
	file := idx[0]
	p, err := r.parsed.GetOrCreate(file, func() (parsedFont, error) {
		face, err := font.ParseTTF(bytes.NewReader(syntheticFiles[file].data))
		if err != nil {
			return parsedFont{}, fmt.Errorf("fontctx: parse %s: %w", syntheticFiles[file].name, err)
		}
		return parsedFont{
			font: face.Font,
			size: memsize.DeepSize(memsize.NewOps(), face.Font),
		}, nil
	})
	return p.font, err
}

// CacheStats returns statistics of the parsed font cache.
func (r *SyntheticResource) CacheStats() CacheStats {
	st := r.parsed.Stats()
	return CacheStats{
		Len:       st.Len,
		Limit:     st.Limit,
		Hits:      st.Hits,
		Misses:    st.Misses,
		Evictions: st.Evictions,
	}
}

// SizeOf counts the parsed fonts and the cache holding them. The font
// files are package globals and the family index is shared by the whole
// process, so neither is counted.
func (r *SyntheticResource) SizeOf(ops *memsize.Ops) uintptr {
	return r.parsed.SizeOf(ops, parsedFontSize)
}

func parsedFontSize(ops *memsize.Ops, p parsedFont) uintptr {
	if ops.HaveSeen(unsafe.Pointer(p.font)) {
		return 0
	}
	return p.size
}

// Close drops the parsed fonts.
func (r *SyntheticResource) Close() error {
	r.parsed.Clear()
	return nil
}
