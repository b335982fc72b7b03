package memsize

import "unsafe"

// SizeOfer is implemented by long-lived objects that take part in memory
// reports. SizeOf returns the heap bytes the receiver exclusively owns,
// not counting the receiver itself.
//
// Memory owned by the operating system, a native library or another
// subsystem must be reported as 0.
type SizeOfer interface {
	SizeOf(ops *Ops) uintptr
}

// Ops carries the state of a single accounting traversal.
// It records which allocations have already been counted so that
// memory reachable from several owners is reported once.
//
// Ops is not safe for concurrent use. Use one Ops per traversal.
type Ops struct {
	seen map[uintptr]struct{}
}

// NewOps creates an empty traversal state.
func NewOps() *Ops {
	return &Ops{}
}

// HaveSeen reports whether p was already visited during this traversal
// and marks it as visited. A nil pointer is always reported as seen.
func (o *Ops) HaveSeen(p unsafe.Pointer) bool {
	if p == nil {
		return true
	}
	if o.seen == nil {
		o.seen = make(map[uintptr]struct{})
	}
	key := uintptr(p)
	if _, ok := o.seen[key]; ok {
		return true
	}
	o.seen[key] = struct{}{}
	return false
}

// Seen returns the number of distinct allocations visited so far.
func (o *Ops) Seen() int {
	return len(o.seen)
}

// StringSize returns the size of the bytes backing s, or 0 if they
// were already counted.
func (o *Ops) StringSize(s string) uintptr {
	if len(s) == 0 {
		return 0
	}
	if o.HaveSeen(unsafe.Pointer(unsafe.StringData(s))) {
		return 0
	}
	return uintptr(len(s))
}

// SliceSize returns the size of the array backing s (capacity, not
// length), or 0 if it was already counted. Elements are not traversed.
func SliceSize[T any](o *Ops, s []T) uintptr {
	if cap(s) == 0 {
		return 0
	}
	if o.HaveSeen(unsafe.Pointer(unsafe.SliceData(s))) {
		return 0
	}
	var zero T
	return uintptr(cap(s)) * unsafe.Sizeof(zero)
}

// mapEntryOverhead approximates per-entry bookkeeping of a Go map
// (control byte, tophash and load factor slack).
const mapEntryOverhead = 8

// MapSize estimates the table size of m. Keys and values are not
// traversed. Maps have no stable address reachable from user code, so
// callers must guard shared maps with HaveSeen on their owner.
func MapSize[K comparable, V any](m map[K]V) uintptr {
	if len(m) == 0 {
		return 0
	}
	var (
		k K
		v V
	)
	return uintptr(len(m)) * (unsafe.Sizeof(k) + unsafe.Sizeof(v) + mapEntryOverhead)
}
