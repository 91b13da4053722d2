package scene

// Resource is a kind of GPU allocation.
type Resource string

// Tracked resource kinds.
const (
	ResourceGeometry Resource = "geometry"
	ResourceMaterial Resource = "material"
	ResourceTexture  Resource = "texture"
	ResourceRenderer Resource = "renderer"
)

// Ledger counts GPU allocations a scene makes. Entries are released by
// dispose() and nothing else, the same way a real graphics context never
// collects them on its own.
type Ledger struct {
	live      map[string]Resource
	allocated map[Resource]int
	released  map[Resource]int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		live:      make(map[string]Resource),
		allocated: make(map[Resource]int),
		released:  make(map[Resource]int),
	}
}

// Alloc records a new allocation and returns its id, an uppercase UUID.
func (l *Ledger) Alloc(kind Resource) string {
	id := newUUID()
	l.live[id] = kind
	l.allocated[kind]++
	return id
}

// Release frees id. It reports false for unknown or already released ids.
func (l *Ledger) Release(id string) bool {
	kind, ok := l.live[id]
	if !ok {
		return false
	}
	delete(l.live, id)
	l.released[kind]++
	return true
}

// Owns reports whether id is live.
func (l *Ledger) Owns(id string) bool {
	_, ok := l.live[id]
	return ok
}

// Live returns the number of unreleased allocations.
func (l *Ledger) Live() int { return len(l.live) }

// LiveOf returns the number of unreleased allocations of kind.
func (l *Ledger) LiveOf(kind Resource) int {
	return l.allocated[kind] - l.released[kind]
}

// Allocated returns how many allocations of kind were ever made.
func (l *Ledger) Allocated(kind Resource) int { return l.allocated[kind] }

// Drain releases everything still live and returns how many entries it freed.
func (l *Ledger) Drain() int {
	n := len(l.live)
	for id := range l.live {
		l.Release(id)
	}
	return n
}
