// Package memsize implements the memory accounting protocol used by fontctx
// and its callers.
//
// Every long-lived object reports the heap memory it exclusively owns by
// implementing [SizeOfer]. A traversal threads a single [Ops] value through
// all SizeOf calls; Ops remembers visited allocations so that memory shared
// between several owners (for example, the resource behind cloned handles)
// is reported exactly once.
//
// Objects that should appear in process-wide reports register themselves
// with a [Registry]:
//
//	reg := memsize.Register("fontctx/fontconfig/1", res)
//	defer reg.Unregister()
//
//	rep := memsize.Collect()
//	fmt.Println(rep.Total)
//
// Memory owned by the operating system or a native library is never
// reported. Sizes are estimates of Go heap usage and are deterministic for
// unchanged objects.
package memsize
