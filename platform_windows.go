//go:build windows

package fontctx

import (
	"github.com/gogpu/fontctx/internal/dwrite"
	"github.com/gogpu/fontctx/memsize"
)

const platformName = "directwrite"

func platformBackend(*config) Backend {
	return BackendFunc(platformName, openDirectWrite)
}

func openDirectWrite() (Resource, error) {
	f, err := dwrite.NewFactory()
	if err != nil {
		return nil, err
	}
	return &DirectWriteResource{factory: f}, nil
}

// DirectWriteResource holds a reference to the shared DirectWrite factory.
type DirectWriteResource struct {
	factory *dwrite.Factory
}

// Factory returns the IDWriteFactory pointer, or 0 once the resource is
// closed.
func (r *DirectWriteResource) Factory() uintptr {
	return r.factory.Ptr()
}

// Families implements FamilyLister.
func (r *DirectWriteResource) Families() ([]string, error) {
	return r.factory.Families()
}

// SizeOf reports 0: the shared factory belongs to DirectWrite and is used
// by every component of the process.
func (r *DirectWriteResource) SizeOf(*memsize.Ops) uintptr {
	return 0
}

// Close releases the factory reference.
func (r *DirectWriteResource) Close() error {
	r.factory.Release()
	return nil
}
