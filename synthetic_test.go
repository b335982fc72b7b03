package fontctx

import (
	"errors"
	"runtime"
	"sort"
	"sync"
	"testing"

	"github.com/gogpu/fontctx/memsize"
)

func openSynthetic(t *testing.T) (Handle, *SyntheticResource) {
	t.Helper()
	h, err := New(WithBackend(SyntheticBackend()), WithRegistry(nil))
	if err != nil {
		t.Fatalf("New(synthetic) = %v", err)
	}
	t.Cleanup(func() { _ = h.Release() })

	res, err := h.Resource()
	if err != nil {
		t.Fatalf("Resource() = %v", err)
	}
	sr, ok := res.(*SyntheticResource)
	if !ok {
		t.Fatalf("Resource() = %T, want *SyntheticResource", res)
	}
	return h, sr
}

func TestSyntheticFamilies(t *testing.T) {
	h, _ := openSynthetic(t)

	if got := h.Backend(); got != syntheticName {
		t.Errorf("Backend() = %q, want %q", got, syntheticName)
	}
	families, err := h.Families()
	if err != nil {
		t.Fatalf("Families() = %v", err)
	}
	if len(families) == 0 || len(families) > len(syntheticFiles) {
		t.Fatalf("Families() returned %d names, want 1..%d", len(families), len(syntheticFiles))
	}
	if !sort.StringsAreSorted(families) {
		t.Errorf("Families() not sorted: %v", families)
	}
	seen := make(map[string]bool)
	for _, f := range families {
		if seen[f] {
			t.Errorf("duplicate family %q", f)
		}
		seen[f] = true
	}
}

func TestSyntheticLoadFont(t *testing.T) {
	h, sr := openSynthetic(t)
	families, _ := h.Families()

	f1, err := sr.LoadFont(families[0])
	if err != nil {
		t.Fatalf("LoadFont(%q) = %v", families[0], err)
	}
	if f1 == nil {
		t.Fatal("LoadFont returned nil font")
	}

	f2, err := sr.LoadFont(familyKey(families[0]))
	if err != nil {
		t.Fatalf("LoadFont(folded) = %v", err)
	}
	if f1 != f2 {
		t.Error("second LoadFont should return the cached font")
	}
	if st := sr.CacheStats(); st.Hits != 1 || st.Misses != 1 {
		t.Errorf("CacheStats() hits=%d misses=%d, want 1/1", st.Hits, st.Misses)
	}

	if _, err := sr.LoadFont("No Such Family"); !errors.Is(err, ErrUnknownFamily) {
		t.Errorf("LoadFont(unknown) error = %v, want ErrUnknownFamily", err)
	}
}

func TestSyntheticSizeOf(t *testing.T) {
	h, sr := openSynthetic(t)

	if got := h.SizeOf(memsize.NewOps()); got != 0 {
		t.Errorf("SizeOf() before loading = %d, want 0 (font data is not owned)", got)
	}

	families, _ := h.Families()
	if _, err := sr.LoadFont(families[0]); err != nil {
		t.Fatal(err)
	}
	loaded := h.SizeOf(memsize.NewOps())
	if loaded == 0 {
		t.Error("SizeOf() after loading should count the cache")
	}
	if again := h.SizeOf(memsize.NewOps()); again != loaded {
		t.Errorf("SizeOf() not deterministic: %d then %d", loaded, again)
	}

	if err := sr.Close(); err != nil {
		t.Fatal(err)
	}
	if got := sr.SizeOf(memsize.NewOps()); got != 0 {
		t.Errorf("SizeOf() after Close = %d, want 0", got)
	}
}

func TestSyntheticConcurrentLoad(t *testing.T) {
	h, _ := openSynthetic(t)
	families, _ := h.Families()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		i := i
		w := h.Clone()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer w.Release()
			res, err := w.Resource()
			if err != nil {
				t.Error(err)
				return
			}
			if _, err := res.(*SyntheticResource).LoadFont(families[i%len(families)]); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}

// liveHeap returns the bytes of live heap objects after a full collection.
func liveHeap() int64 {
	runtime.GC()
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int64(ms.HeapAlloc)
}

// loadAllSynthetic parses every synthetic family into h's cache. It keeps
// no reference to the fonts.
func loadAllSynthetic(t *testing.T, h Handle) {
	t.Helper()
	res, err := h.Resource()
	if err != nil {
		t.Fatal(err)
	}
	sr := res.(*SyntheticResource)
	families, err := sr.Families()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range families {
		if _, err := sr.LoadFont(f); err != nil {
			t.Fatalf("LoadFont(%q) = %v", f, err)
		}
	}
}

func TestSyntheticSizeOfMatchesHeap(t *testing.T) {
	if testing.Short() {
		t.Skip("measures the heap")
	}
	if err := loadSyntheticIndex(); err != nil {
		t.Fatal(err)
	}

	before := liveHeap()
	h, err := New(WithBackend(SyntheticBackend()), WithRegistry(nil))
	if err != nil {
		t.Fatal(err)
	}
	loadAllSynthetic(t, h)
	loaded := liveHeap()

	size := int64(h.SizeOf(memsize.NewOps()))
	grown := loaded - before
	t.Logf("SizeOf = %d, heap grew by %d", size, grown)
	if grown <= 0 {
		t.Skip("heap did not grow; measurement disturbed")
	}
	if size < grown/3 || size > grown*3 {
		t.Errorf("SizeOf() = %d, heap grew by %d", size, grown)
	}

	if err := h.Release(); err != nil {
		t.Fatal(err)
	}
	freed := loaded - liveHeap()
	if freed < size/3 {
		t.Errorf("Release freed %d bytes, SizeOf reported %d", freed, size)
	}
}
