package memsize

import (
	"strings"
	"sync"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
)

type fixedSize struct {
	size uintptr
}

func (f *fixedSize) SizeOf(ops *Ops) uintptr {
	if ops.HaveSeen(unsafe.Pointer(f)) {
		return 0
	}
	return f.size
}

func TestOpsHaveSeen(t *testing.T) {
	ops := NewOps()
	x := new(int)

	if ops.HaveSeen(unsafe.Pointer(x)) {
		t.Error("first visit reported as seen")
	}
	if !ops.HaveSeen(unsafe.Pointer(x)) {
		t.Error("second visit not reported as seen")
	}
	if !ops.HaveSeen(nil) {
		t.Error("nil pointer should always be seen")
	}
	if got := ops.Seen(); got != 1 {
		t.Errorf("Seen() = %d, want 1", got)
	}
}

func TestStringSize(t *testing.T) {
	ops := NewOps()
	s := strings.Repeat("a", 32)
	alias := s

	if got := ops.StringSize(s); got != 32 {
		t.Errorf("StringSize() = %d, want 32", got)
	}
	if got := ops.StringSize(alias); got != 0 {
		t.Errorf("StringSize(alias) = %d, want 0 (shared backing)", got)
	}
	if got := ops.StringSize(""); got != 0 {
		t.Errorf("StringSize(\"\") = %d, want 0", got)
	}
}

func TestSliceSize(t *testing.T) {
	tests := []struct {
		name string
		s    []uint32
		want uintptr
	}{
		{"nil", nil, 0},
		{"empty with capacity", make([]uint32, 0, 4), 16},
		{"full", make([]uint32, 8), 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := NewOps()
			if got := SliceSize(ops, tt.s); got != tt.want {
				t.Errorf("SliceSize() = %d, want %d", got, tt.want)
			}
			if tt.want > 0 {
				if got := SliceSize(ops, tt.s[:1]); got != 0 {
					t.Errorf("SliceSize(subslice) = %d, want 0", got)
				}
			}
		})
	}
}

func TestMapSize(t *testing.T) {
	if got := MapSize(map[string]int(nil)); got != 0 {
		t.Errorf("MapSize(nil) = %d, want 0", got)
	}
	m := map[int32]int32{1: 1, 2: 2}
	if got, want := MapSize(m), uintptr(2*(4+4+mapEntryOverhead)); got != want {
		t.Errorf("MapSize() = %d, want %d", got, want)
	}
}

func TestRegistryCollect(t *testing.T) {
	r := NewRegistry()
	shared := &fixedSize{size: 100}

	r.Register("b/shared", shared)
	r.Register("a/own", &fixedSize{size: 7})
	r.Register("b/shared", shared)

	got := r.Collect()
	want := Report{
		Entries: []Entry{
			{Path: "a/own", Size: 7},
			{Path: "b/shared", Size: 100},
			{Path: "b/shared", Size: 0},
		},
		Total: 107,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Collect() mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryCollectDeterministic(t *testing.T) {
	r := NewRegistry()
	r.Register("x", &fixedSize{size: 3})
	r.Register("y", &fixedSize{size: 5})

	first := r.Collect()
	second := r.Collect()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Collect() not deterministic (-first +second):\n%s", diff)
	}
}

func TestRegistrationUnregister(t *testing.T) {
	r := NewRegistry()
	reg := r.Register("x", &fixedSize{size: 3})
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}

	reg.Unregister()
	reg.Unregister()
	if r.Len() != 0 {
		t.Errorf("Len() after Unregister = %d, want 0", r.Len())
	}
	if got := r.Collect().Total; got != 0 {
		t.Errorf("Total after Unregister = %d, want 0", got)
	}

	var nilReg *Registration
	nilReg.Unregister()
}

func TestRegistryConcurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	const goroutines = 50

	for n := 0; n < goroutines; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg := r.Register("c", &fixedSize{size: 1})
			_ = r.Collect()
			reg.Unregister()
		}()
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func BenchmarkCollect(b *testing.B) {
	r := NewRegistry()
	for n := 0; n < 64; n++ {
		r.Register("bench", &fixedSize{size: 64})
	}
	b.ReportAllocs()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_ = r.Collect()
	}
}

type deepNode struct {
	name string
	data []byte
	next *deepNode
	meta map[string]int
}

func TestDeepSize(t *testing.T) {
	n := &deepNode{
		name: strings.Repeat("n", 10),
		data: make([]byte, 20, 64),
	}
	n.next = n

	ops := NewOps()
	want := unsafe.Sizeof(deepNode{}) + 10 + 20
	if got := DeepSize(ops, n); got != want {
		t.Errorf("DeepSize() = %d, want %d", got, want)
	}
	if got := DeepSize(ops, n); got != 0 {
		t.Errorf("DeepSize() second visit = %d, want 0", got)
	}
	if got := DeepSize(ops, nil); got != 0 {
		t.Errorf("DeepSize(nil) = %d, want 0", got)
	}
}

func TestDeepSizeMap(t *testing.T) {
	m := map[string]int{strings.Repeat("k", 3): 1}
	want := unsafe.Sizeof("") + unsafe.Sizeof(0) + mapEntryOverhead + 3
	if got := DeepSize(NewOps(), m); got != want {
		t.Errorf("DeepSize(map) = %d, want %d", got, want)
	}
}

func TestDeepSizeSubSlices(t *testing.T) {
	buf := make([]byte, 100)
	v := struct{ A, B []byte }{buf[:10], buf[10:30]}

	// Counted by length, not by the capacity left in buf.
	if got := DeepSize(NewOps(), v); got != 30 {
		t.Errorf("DeepSize() = %d, want 30", got)
	}
}
