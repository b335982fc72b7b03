package fontctx

import (
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"unsafe"

	"github.com/gogpu/fontctx/memsize"
)

// Handle is a connection to the platform font service.
//
// The zero Handle is the default handle: valid, empty, and backed by no
// native resource. Handles returned by New share one backend resource
// between all their clones; the resource is closed when the last clone
// is released.
//
// Clones are independent values: each must be released once, and each may
// be used from a different goroutine. Assigning a Handle (h2 := h1) does not
// clone it; both variables then name the same clone.
type Handle struct {
	c *clone
}

// clone is the per-clone token. released makes Release idempotent.
type clone struct {
	s        *shared
	released atomic.Bool
}

// shared is the reference-counted record behind all clones of a handle.
type shared struct {
	id      uint64
	backend string
	res     Resource
	refs    atomic.Int64
	closed  atomic.Bool
	reg     *memsize.Registration
}

var nextSharedID atomic.Uint64

// Compile-time interface check.
var _ memsize.SizeOfer = Handle{}

// Default returns the empty handle. It never fails and never touches the
// platform font service.
func Default() Handle {
	return Handle{}
}

// New opens the font context of the platform backend selected at build
// time, or the backend given with WithBackend.
//
// If the backend cannot be opened, New applies the fallback policy set with
// WithFallback. With the default policy it returns the default handle and an
// error matching ErrUnavailable.
func New(opts ...Option) (Handle, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	b := cfg.backend
	if b == nil {
		b = platformBackend(&cfg)
	}

	h, err := open(b, &cfg)
	if err == nil {
		return h, nil
	}

	switch cfg.fallback {
	case FallbackEmpty:
		Logger().Warn("fontctx: backend unavailable, using empty font context",
			"backend", b.Name(), "error", err)
		return Default(), nil
	case FallbackSynthetic:
		Logger().Warn("fontctx: backend unavailable, using synthetic font context",
			"backend", b.Name(), "error", err)
		return open(SyntheticBackend(), &cfg)
	default:
		return Default(), err
	}
}

// open opens b and wraps the resource in a new shared record.
func open(b Backend, cfg *config) (Handle, error) {
	name := b.Name()
	res, err := b.Open()
	if err != nil {
		return Handle{}, unavailable(name, err)
	}
	if res == nil {
		return Handle{}, unavailable(name, errors.New("backend returned no resource"))
	}
	if _, ok := res.(stateless); ok {
		return Handle{}, nil
	}

	s := &shared{
		id:      nextSharedID.Add(1),
		backend: name,
		res:     res,
	}
	s.refs.Store(1)
	if reg := cfg.memRegistry(); reg != nil {
		s.reg = reg.Register("fontctx/"+name+"/"+strconv.FormatUint(s.id, 10), s)
	}

	Logger().Debug("fontctx: opened font context", "backend", name, "id", s.id)
	return Handle{c: &clone{s: s}}, nil
}

// Clone returns a new handle sharing h's resource. The clone must be
// released independently of h. Cloning the default handle returns the
// default handle.
//
// Clone panics if h has been released. A Clone racing with the last
// Release of h either panics or returns a clone whose resource is open.
func (h Handle) Clone() Handle {
	c := h.c
	if c == nil {
		return Handle{}
	}
	if c.released.Load() || !c.s.acquire() {
		panic("fontctx: Clone of released Handle")
	}
	return Handle{c: &clone{s: c.s}}
}

// acquire adds a reference unless the count already dropped to zero.
func (s *shared) acquire() bool {
	for {
		n := s.refs.Load()
		if n <= 0 {
			return false
		}
		if s.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Release retires h. When the last clone of a resource is released the
// resource is closed, and any close error is returned. Releasing the default
// handle, or a clone that was already released, does nothing.
func (h Handle) Release() error {
	c := h.c
	if c == nil || !c.released.CompareAndSwap(false, true) {
		return nil
	}
	return c.s.release()
}

func (s *shared) release() error {
	n := s.refs.Add(-1)
	if n > 0 {
		return nil
	}
	if n < 0 {
		panic("fontctx: reference count underflow")
	}

	s.closed.Store(true)
	s.reg.Unregister()
	if err := s.res.Close(); err != nil {
		Logger().Warn("fontctx: closing font context failed",
			"backend", s.backend, "id", s.id, "error", err)
		return fmt.Errorf("fontctx: close %s: %w", s.backend, err)
	}
	Logger().Debug("fontctx: closed font context", "backend", s.backend, "id", s.id)
	return nil
}

// SizeOf reports the shared record once per traversal.
func (s *shared) SizeOf(ops *memsize.Ops) uintptr {
	if s.closed.Load() || ops.HaveSeen(unsafe.Pointer(s)) {
		return 0
	}
	return s.res.SizeOf(ops)
}

// SizeOf returns the heap memory the engine exclusively owns through h.
//
// The default handle, stateless backends and released clones report 0.
// Memory owned by the platform font service is never counted. Clones share
// one resource, which is counted only by the first clone visited with ops.
func (h Handle) SizeOf(ops *memsize.Ops) uintptr {
	c := h.c
	if c == nil || c.released.Load() {
		return 0
	}
	return c.s.SizeOf(ops)
}

// Backend returns the name of the backend h is connected to, or "none" for
// the default handle.
func (h Handle) Backend() string {
	if h.c == nil {
		return "none"
	}
	return h.c.s.backend
}

// Valid reports whether h can still be used. Only released clones are
// invalid.
func (h Handle) Valid() bool {
	return h.c == nil || !h.c.released.Load()
}

// Resource returns the backend resource for use by font loading code.
// Callers type-assert it to the backend-specific type they understand.
func (h Handle) Resource() (Resource, error) {
	c := h.c
	if c == nil {
		return stateless{}, nil
	}
	if c.released.Load() {
		return nil, ErrReleased
	}
	return c.s.res, nil
}

// Families lists the font families installed on the system, if the backend
// can enumerate them. It returns ErrNotSupported otherwise.
func (h Handle) Families() ([]string, error) {
	res, err := h.Resource()
	if err != nil {
		return nil, err
	}
	fl, ok := res.(FamilyLister)
	if !ok {
		return nil, ErrNotSupported
	}
	return fl.Families()
}
