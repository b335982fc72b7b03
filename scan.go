package fontctx

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unsafe"

	"github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/fontscan"
	"golang.org/x/text/cases"

	"github.com/gogpu/fontctx/memsize"
)

const scanName = "fontscan"

// errNoFonts is returned by the scan backend when no font files are found.
var errNoFonts = errors.New("no system fonts found")

// ScanBackend returns a backend that scans the standard font directories
// with go-text/typesetting.
//
// go-text keeps one system font index per process and stores it on disk
// under cacheDir, or under os.UserCacheDir when cacheDir is empty. Only the
// first scan in the process reads cacheDir; later scans reuse the loaded
// index whatever directory they name.
//
// ScanBackend works on every platform and is the platform backend where no
// native binding exists.
func ScanBackend(cacheDir string) Backend {
	return BackendFunc(scanName, func() (Resource, error) {
		return openScan(cacheDir)
	})
}

// scanDirs remembers the cache directory of the first system scan.
type scanDirs struct {
	mu    sync.Mutex
	first string
	set   bool
}

var systemScanDir scanDirs

// use records dir and returns the directory the process index is bound to.
func (d *scanDirs) use(dir string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.set {
		d.first, d.set = dir, true
		return dir
	}
	if dir != d.first {
		Logger().Debug("fontctx: system font index already loaded, cache directory ignored",
			"cacheDir", dir, "indexDir", d.first)
	}
	return d.first
}

// FaceInfo describes one face found by the scan backend.
type FaceInfo struct {
	Family string
	Path   string
	Index  int
	Weight float32
	Italic bool
}

// ScanResource is the resource of the scan backend. Its index is built
// once at open and only read afterwards.
//
// Family names are the names stored in the font files, as other backends
// report them. Lookups ignore case and spaces.
type ScanResource struct {
	mu         sync.RWMutex
	footprints []fontscan.Footprint
	index      map[string]*scanFamily
	families   []string
}

type scanFamily struct {
	name  string
	faces []int32
}

func openScan(cacheDir string) (*ScanResource, error) {
	dir := systemScanDir.use(cacheDir)
	fps, err := fontscan.SystemFonts(printfLogger{}, dir)
	if err != nil {
		return nil, err
	}
	if len(fps) == 0 {
		return nil, errNoFonts
	}
	r := newScanResource(fps, readFamilyName)
	Logger().Debug("fontctx: scanned system fonts",
		"faces", len(fps), "families", len(r.families), "cacheDir", dir)
	return r, nil
}

// newScanResource indexes fps by family. go-text stores family names
// normalized; displayName recovers the name of the first face of each
// family, and the normalized name is kept when it cannot.
func newScanResource(fps []fontscan.Footprint, displayName func(fontscan.Location) string) *ScanResource {
	r := &ScanResource{
		footprints: fps,
		index:      make(map[string]*scanFamily),
	}
	for i := range fps {
		if fps[i].Family == "" {
			continue
		}
		key := familyKey(fps[i].Family)
		fam, ok := r.index[key]
		if !ok {
			fam = &scanFamily{name: key}
			if name := displayName(fps[i].Location); name != "" && familyKey(name) == key {
				fam.name = name
			}
			r.index[key] = fam
			r.families = append(r.families, fam.name)
		}
		fam.faces = append(fam.faces, int32(i))
	}
	sort.Strings(r.families)
	return r
}

// familyKey returns the lookup key for a family name: go-text's normalized
// form (lower case, no spaces), case-folded. The key never shares memory
// with name.
func familyKey(name string) string {
	return strings.Clone(cases.Fold().String(font.NormalizeFamily(strings.TrimSpace(name))))
}

// readFamilyName returns the family name of the face at loc, or "" if the
// file cannot be read.
func readFamilyName(loc fontscan.Location) string {
	f, err := os.Open(loc.File)
	if err != nil {
		return ""
	}
	defer f.Close()

	lds, err := ot.NewLoaders(f)
	if err != nil || int(loc.Index) >= len(lds) {
		return ""
	}
	desc, _ := font.Describe(lds[loc.Index], nil)
	return desc.Family
}

// Families implements FamilyLister.
func (r *ScanResource) Families() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.index == nil {
		return nil, ErrReleased
	}
	out := make([]string, len(r.families))
	copy(out, r.families)
	return out, nil
}

// Faces returns the faces of family. Case and spaces in family are
// ignored.
func (r *ScanResource) Faces(family string) ([]FaceInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.index == nil {
		return nil, ErrReleased
	}
	fam, ok := r.index[familyKey(family)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
	out := make([]FaceInfo, len(fam.faces))
	for i, fi := range fam.faces {
		fp := &r.footprints[fi]
		out[i] = FaceInfo{
			Family: fam.name,
			Path:   fp.Location.File,
			Index:  int(fp.Location.Index),
			Weight: float32(fp.Aspect.Weight),
			Italic: fp.Aspect.Style == font.StyleItalic,
		}
	}
	return out, nil
}

// SizeOf counts the footprint table and the family index. Strings and
// coverage sets inside the footprints belong to go-text's process-wide
// system font index and are not counted; neither are font files.
func (r *ScanResource) SizeOf(ops *memsize.Ops) uintptr {
	r.mu.RLock()
	defer r.mu.RUnlock()

	size := memsize.SliceSize(ops, r.footprints)
	size += memsize.MapSize(r.index)
	for key, fam := range r.index {
		size += ops.StringSize(key)
		if ops.HaveSeen(unsafe.Pointer(fam)) {
			continue
		}
		size += unsafe.Sizeof(*fam)
		size += memsize.SliceSize(ops, fam.faces)
		size += ops.StringSize(fam.name)
	}
	size += memsize.SliceSize(ops, r.families)
	return size
}

// Close drops the index.
func (r *ScanResource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.footprints = nil
	r.index = nil
	r.families = nil
	return nil
}
