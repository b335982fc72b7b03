package fontctx

import "github.com/gogpu/fontctx/memsize"

// Backend opens connections to one kind of font service.
// Exactly one platform backend is compiled into each build; see
// PlatformBackend.
type Backend interface {
	// Name returns a short identifier such as "fontconfig".
	Name() string

	// Open connects to the font service. It returns either a ready
	// Resource or an error, never a partially initialized Resource.
	Open() (Resource, error)
}

// Resource is an open connection to a font service.
//
// A Resource is shared by all clones of a Handle and must be safe for
// concurrent use. Close is called exactly once, after the last clone is
// released.
type Resource interface {
	// SizeOf reports heap memory the engine allocated on top of the native
	// resource. Memory owned by the platform is reported as 0.
	SizeOf(ops *memsize.Ops) uintptr

	// Close releases the native resource.
	Close() error
}

// FamilyLister is implemented by resources that can enumerate installed
// font families.
type FamilyLister interface {
	// Families returns the sorted, de-duplicated family names.
	Families() ([]string, error)
}

// stateless is the resource of backends that hold nothing. Handles over a
// stateless resource are plain values; cloning them has no side effect.
type stateless struct{}

func (stateless) SizeOf(*memsize.Ops) uintptr { return 0 }
func (stateless) Close() error                { return nil }

// funcBackend adapts a function to the Backend interface.
type funcBackend struct {
	name string
	open func() (Resource, error)
}

func (b funcBackend) Name() string            { return b.name }
func (b funcBackend) Open() (Resource, error) { return b.open() }

// BackendFunc returns a Backend named name that opens resources with open.
func BackendFunc(name string, open func() (Resource, error)) Backend {
	return funcBackend{name: name, open: open}
}
