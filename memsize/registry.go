package memsize

import (
	"sort"
	"sync"
)

// Registry holds the set of objects included in a memory report.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[uint64]registered
	nextID  uint64
}

type registered struct {
	path string
	obj  SizeOfer
}

// Registration is returned by Register and removes the entry again.
type Registration struct {
	reg  *Registry
	id   uint64
	once sync.Once
}

// Entry is a single line of a Report.
type Entry struct {
	Path string
	Size uintptr
}

// Report is the result of a collection pass.
type Report struct {
	Entries []Entry
	Total   uintptr
}

// Default is the process-wide registry.
var Default = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[uint64]registered),
		nextID:  1,
	}
}

// Register adds obj to the registry under path. Several objects may share
// a path; their sizes are reported as separate entries.
func (r *Registry) Register(path string, obj SizeOfer) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.entries[id] = registered{path: path, obj: obj}
	return &Registration{reg: r, id: id}
}

// Unregister removes the entry. It is safe to call more than once and
// on a nil Registration.
func (g *Registration) Unregister() {
	if g == nil {
		return
	}
	g.once.Do(func() {
		g.reg.mu.Lock()
		delete(g.reg.entries, g.id)
		g.reg.mu.Unlock()
	})
}

// Len returns the number of registered objects.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Collect measures every registered object with a single Ops, so memory
// shared between registered objects is counted once. Entries are sorted
// by path, then by registration order.
func (r *Registry) Collect() Report {
	r.mu.RLock()
	ids := make([]uint64, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	objs := make([]registered, len(ids))
	for i, id := range ids {
		objs[i] = r.entries[id]
	}
	r.mu.RUnlock()

	// SizeOf may take locks of its own; r.mu is not held here.
	ops := NewOps()
	rep := Report{Entries: make([]Entry, 0, len(objs))}
	for _, o := range objs {
		size := o.obj.SizeOf(ops)
		rep.Entries = append(rep.Entries, Entry{Path: o.path, Size: size})
		rep.Total += size
	}
	sort.SliceStable(rep.Entries, func(i, j int) bool {
		return rep.Entries[i].Path < rep.Entries[j].Path
	})
	return rep
}

// Register adds obj to the Default registry.
func Register(path string, obj SizeOfer) *Registration {
	return Default.Register(path, obj)
}

// Collect collects a report from the Default registry.
func Collect() Report {
	return Default.Collect()
}
