//go:build windows

// Package dwrite creates the shared DirectWrite factory and reads the
// system font collection through raw COM vtable calls.
package dwrite

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// ErrNotLoaded is returned when dwrite.dll or its entry point is missing.
var ErrNotLoaded = errors.New("dwrite: DWriteCreateFactory not available")

// HRESULTError is a failed COM call.
type HRESULTError struct {
	Op     string
	Result uint32
}

func (e *HRESULTError) Error() string {
	return fmt.Sprintf("dwrite: %s failed: HRESULT 0x%08X", e.Op, e.Result)
}

// factoryTypeShared is DWRITE_FACTORY_TYPE_SHARED.
const factoryTypeShared = 0

// iidIDWriteFactory is IID_IDWriteFactory.
var iidIDWriteFactory = windows.GUID{
	Data1: 0xb859ee5a,
	Data2: 0xd838,
	Data3: 0x4b5b,
	Data4: [8]byte{0xa2, 0xe8, 0x1a, 0xdc, 0x7d, 0x93, 0xdb, 0x48},
}

var (
	modDWrite               = windows.NewLazySystemDLL("dwrite.dll")
	procDWriteCreateFactory = modDWrite.NewProc("DWriteCreateFactory")
)

// vtable slots.
const (
	slotRelease = 2

	slotFactoryGetSystemFontCollection = 3

	slotCollectionGetFontFamilyCount = 3
	slotCollectionGetFontFamily      = 4

	slotFamilyGetFamilyNames = 6

	slotStringsFindLocaleName  = 4
	slotStringsGetStringLength = 7
	slotStringsGetString       = 8
)

// Factory is a reference to the process-wide shared IDWriteFactory.
// The factory object is owned by DirectWrite.
type Factory struct {
	mu  sync.RWMutex
	ptr uintptr
}

// NewFactory returns a reference to the shared DirectWrite factory.
func NewFactory() (*Factory, error) {
	if err := procDWriteCreateFactory.Find(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotLoaded, err)
	}
	var ptr uintptr
	hr, _, _ := procDWriteCreateFactory.Call(
		factoryTypeShared,
		uintptr(unsafe.Pointer(&iidIDWriteFactory)),
		uintptr(unsafe.Pointer(&ptr)),
	)
	if failed(hr) {
		return nil, &HRESULTError{Op: "DWriteCreateFactory", Result: uint32(hr)}
	}
	if ptr == 0 {
		return nil, &HRESULTError{Op: "DWriteCreateFactory", Result: uint32(hr)}
	}
	return &Factory{ptr: ptr}, nil
}

// Ptr returns the IDWriteFactory pointer, or 0 after Release.
func (f *Factory) Ptr() uintptr {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ptr
}

// Release drops the reference. It is safe to call more than once.
func (f *Factory) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ptr == 0 {
		return
	}
	release(f.ptr)
	f.ptr = 0
}

// Families lists the family names of the system font collection, sorted.
// The en-us name is preferred; otherwise the first localized name is used.
func (f *Factory) Families() ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.ptr == 0 {
		return nil, errors.New("dwrite: factory released")
	}

	var collection uintptr
	hr := call(f.ptr, slotFactoryGetSystemFontCollection,
		uintptr(unsafe.Pointer(&collection)), 0)
	if failed(hr) {
		return nil, &HRESULTError{Op: "GetSystemFontCollection", Result: uint32(hr)}
	}
	defer release(collection)

	count := call(collection, slotCollectionGetFontFamilyCount)
	families := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	for i := uintptr(0); i < count; i++ {
		var family uintptr
		hr := call(collection, slotCollectionGetFontFamily, i, uintptr(unsafe.Pointer(&family)))
		if failed(hr) {
			return nil, &HRESULTError{Op: "GetFontFamily", Result: uint32(hr)}
		}
		name, err := familyName(family)
		release(family)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[name]; dup || name == "" {
			continue
		}
		seen[name] = struct{}{}
		families = append(families, name)
	}
	sort.Strings(families)
	return families, nil
}

var enUS = windows.StringToUTF16Ptr("en-us")

func familyName(family uintptr) (string, error) {
	var names uintptr
	hr := call(family, slotFamilyGetFamilyNames, uintptr(unsafe.Pointer(&names)))
	if failed(hr) {
		return "", &HRESULTError{Op: "GetFamilyNames", Result: uint32(hr)}
	}
	defer release(names)

	var (
		index  uint32
		exists int32
	)
	hr = call(names, slotStringsFindLocaleName,
		uintptr(unsafe.Pointer(enUS)),
		uintptr(unsafe.Pointer(&index)),
		uintptr(unsafe.Pointer(&exists)))
	if failed(hr) || exists == 0 {
		index = 0
	}

	var length uint32
	hr = call(names, slotStringsGetStringLength, uintptr(index), uintptr(unsafe.Pointer(&length)))
	if failed(hr) {
		return "", &HRESULTError{Op: "GetStringLength", Result: uint32(hr)}
	}
	buf := make([]uint16, length+1)
	hr = call(names, slotStringsGetString, uintptr(index),
		uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if failed(hr) {
		return "", &HRESULTError{Op: "GetString", Result: uint32(hr)}
	}
	return windows.UTF16ToString(buf), nil
}

// call invokes vtable slot of the COM object obj.
func call(obj uintptr, slot int, args ...uintptr) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(slot)*unsafe.Sizeof(uintptr(0))))
	r, _, _ := syscall.SyscallN(fn, append([]uintptr{obj}, args...)...)
	return r
}

func release(obj uintptr) {
	if obj != 0 {
		call(obj, slotRelease)
	}
}

func failed(hr uintptr) bool {
	return int32(uint32(hr)) < 0
}
