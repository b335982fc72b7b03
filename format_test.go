package fontctx

import (
	"fmt"
	"strconv"
	"testing"
)

func TestHandleString(t *testing.T) {
	if got, want := Default().String(), "fontctx.Handle{backend: none}"; got != want {
		t.Errorf("Default().String() = %q, want %q", got, want)
	}

	h := openCounting(t, &countingBackend{}, nil)
	c := h.Clone()
	id := strconv.FormatUint(h.c.s.id, 10)

	want := "fontctx.Handle{backend: counting, id: " + id + ", refs: 2}"
	if got := h.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := fmt.Sprintf("%v", h); got != want {
		t.Errorf("%%v = %q, want %q", got, want)
	}
	if got := fmt.Sprintf("%#v", h); got != want {
		t.Errorf("%%#v = %q, want %q", got, want)
	}

	_ = h.Release()
	want = "fontctx.Handle{backend: counting, id: " + id + ", refs: 1, released}"
	if got := h.String(); got != want {
		t.Errorf("released String() = %q, want %q", got, want)
	}

	_ = c.Release()
	want = "fontctx.Handle{backend: counting, id: " + id + ", refs: 0, released}"
	if got := c.String(); got != want {
		t.Errorf("final String() = %q, want %q", got, want)
	}
}

func TestAppendDebugNoAlloc(t *testing.T) {
	h := openCounting(t, &countingBackend{}, nil)
	t.Cleanup(func() { _ = h.Release() })

	buf := make([]byte, 0, 128)
	for _, tc := range []struct {
		name string
		h    Handle
	}{
		{"default", Default()},
		{"open", h},
	} {
		allocs := testing.AllocsPerRun(100, func() {
			buf = tc.h.AppendDebug(buf[:0])
		})
		if allocs != 0 {
			t.Errorf("%s: AppendDebug allocated %.0f times, want 0", tc.name, allocs)
		}
	}
}

func BenchmarkAppendDebug(b *testing.B) {
	h := Default()
	buf := make([]byte, 0, 128)
	b.ReportAllocs()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		buf = h.AppendDebug(buf[:0])
	}
}
