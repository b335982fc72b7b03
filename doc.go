// Package fontctx provides the platform font context used by the text
// subsystem: a cheap, cloneable Handle that stands for a live connection to
// the operating system's font service.
//
// # Overview
//
// Font loading, shaping and glyph caching code needs "the current platform
// font context" to open font files and enumerate installed fonts. Each
// platform exposes a different native resource for this. fontctx hides the
// difference behind one value type:
//
//	h, err := fontctx.New(fontctx.WithFallback(fontctx.FallbackSynthetic))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Release()
//
//	// One clone per worker goroutine.
//	w := h.Clone()
//	go func() {
//	    defer w.Release()
//	    families, _ := w.Families()
//	    _ = families
//	}()
//
// # Backends
//
// The platform backend is chosen at build time:
//   - Linux, FreeBSD: fontconfig, loaded at run time without cgo
//   - Windows: the shared DirectWrite factory
//   - macOS: a placeholder holding no resource
//   - other targets: a scan of the standard font directories
//
// Two portable backends are always available: ScanBackend, built on
// go-text/typesetting, and SyntheticBackend, which serves the Go fonts
// embedded in golang.org/x/image and never fails.
//
// # Lifetime
//
// The zero Handle is valid and empty. New returns a handle whose backend
// resource is shared by all its clones and closed when the last clone is
// released. Release is idempotent per clone.
//
// # Memory accounting
//
// Handle implements memsize.SizeOfer. It reports only memory the engine
// allocates on top of the native resource, and counts a shared resource
// once per traversal no matter how many clones are visited. Opened
// resources register themselves with memsize.Default (see WithRegistry) so
// process-wide reports include them.
//
// # Logging
//
// fontctx logs through log/slog and is silent by default; see SetLogger.
package fontctx
