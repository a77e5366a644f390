package ofd

// IDAllocator hands out the document-wide object identifiers OFD requires.
// Identifiers start at 1 and are never reused. Resource keys can be bound
// so the same font or image keeps one identifier across pages.
type IDAllocator struct {
	last int
	keys map[string]int
}

// NewIDAllocator returns an allocator whose first identifier is 1.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{keys: make(map[string]int)}
}

// Next returns a fresh identifier.
func (a *IDAllocator) Next() int {
	a.last++
	return a.last
}

// Bind returns the identifier bound to key, allocating one on first use.
// The second result is true when the key was bound by this call.
func (a *IDAllocator) Bind(key string) (int, bool) {
	if id, ok := a.keys[key]; ok {
		return id, false
	}
	id := a.Next()
	a.keys[key] = id
	return id, true
}

// Lookup returns the identifier bound to key, if any.
func (a *IDAllocator) Lookup(key string) (int, bool) {
	id, ok := a.keys[key]
	return id, ok
}

// MaxUnitID is the value for CommonData/MaxUnitID: one past the last
// identifier issued.
func (a *IDAllocator) MaxUnitID() int {
	return a.last + 1
}
