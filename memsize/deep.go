package memsize

import (
	"reflect"
	"unsafe"
)

// DeepSize estimates the heap memory reachable from v through pointers,
// slices, strings, maps and interfaces. The inline storage of v itself is
// not counted; pass a pointer to count the pointee.
//
// Allocations already seen by o are skipped, so DeepSize composes with the
// other helpers of a traversal. Slices are counted by length: sub-slices
// of one buffer would otherwise each claim the buffer's spare capacity.
// Functions and channels count as 0.
func DeepSize(o *Ops, v any) uintptr {
	if v == nil {
		return 0
	}
	return o.walk(reflect.ValueOf(v))
}

func (o *Ops) walk(v reflect.Value) uintptr {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() || o.HaveSeen(v.UnsafePointer()) {
			return 0
		}
		e := v.Elem()
		return e.Type().Size() + o.walk(e)

	case reflect.Slice:
		if v.Len() == 0 || o.HaveSeen(v.UnsafePointer()) {
			return 0
		}
		et := v.Type().Elem()
		size := uintptr(v.Len()) * et.Size()
		if hasRefs(et) {
			for i := 0; i < v.Len(); i++ {
				size += o.walk(v.Index(i))
			}
		}
		return size

	case reflect.String:
		s := v.String()
		if len(s) == 0 || o.HaveSeen(unsafe.Pointer(unsafe.StringData(s))) {
			return 0
		}
		return uintptr(len(s))

	case reflect.Array:
		if !hasRefs(v.Type().Elem()) {
			return 0
		}
		var size uintptr
		for i := 0; i < v.Len(); i++ {
			size += o.walk(v.Index(i))
		}
		return size

	case reflect.Struct:
		var size uintptr
		for i := 0; i < v.NumField(); i++ {
			size += o.walk(v.Field(i))
		}
		return size

	case reflect.Interface:
		if v.IsNil() {
			return 0
		}
		e := v.Elem()
		switch e.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Slice, reflect.String:
			return o.walk(e)
		default:
			// Non-pointer values are boxed.
			return e.Type().Size() + o.walk(e)
		}

	case reflect.Map:
		if v.IsNil() || v.Len() == 0 || o.HaveSeen(v.UnsafePointer()) {
			return 0
		}
		t := v.Type()
		size := uintptr(v.Len()) * (t.Key().Size() + t.Elem().Size() + mapEntryOverhead)
		if hasRefs(t.Key()) || hasRefs(t.Elem()) {
			iter := v.MapRange()
			for iter.Next() {
				size += o.walk(iter.Key()) + o.walk(iter.Value())
			}
		}
		return size
	}
	return 0
}

// hasRefs reports whether values of t can reach heap memory.
func hasRefs(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.String, reflect.Map, reflect.Interface:
		return true
	case reflect.Array:
		return t.Len() > 0 && hasRefs(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasRefs(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}
