//go:build ((linux && !android) || freebsd) && (amd64 || arm64)

package fontctx

import (
	"github.com/gogpu/fontctx/internal/fontconfig"
	"github.com/gogpu/fontctx/memsize"
)

const platformName = "fontconfig"

func platformBackend(*config) Backend {
	return BackendFunc(platformName, openFontconfig)
}

func openFontconfig() (Resource, error) {
	cfg, err := fontconfig.New()
	if err != nil {
		return nil, err
	}
	Logger().Debug("fontctx: fontconfig loaded", "version", fontconfig.Version())
	return &FontconfigResource{cfg: cfg}, nil
}

// FontconfigResource holds one FcConfig reference.
type FontconfigResource struct {
	cfg *fontconfig.Config
}

// Config returns the FcConfig pointer for calls into fontconfig, or 0 once
// the resource is closed.
func (r *FontconfigResource) Config() uintptr {
	return r.cfg.Ptr()
}

// Families implements FamilyLister.
func (r *FontconfigResource) Families() ([]string, error) {
	return r.cfg.Families()
}

// SizeOf reports 0: the configuration and its font sets are allocated
// and owned by libfontconfig.
func (r *FontconfigResource) SizeOf(*memsize.Ops) uintptr {
	return 0
}

// Close destroys the configuration reference.
func (r *FontconfigResource) Close() error {
	r.cfg.Destroy()
	return nil
}
