package rtti

import "sync"

// Arena is the allocation list of one reification call. Descriptors it hands
// out stay valid until Release; afterwards they are poisoned so that a stale
// use fails loudly instead of reading recycled data. An Arena belongs to a
// single goroutine.
type Arena struct {
	cells []*TypeInfo
}

// NewArena returns an empty allocation list.
func NewArena() *Arena {
	return &Arena{}
}

// Len returns the number of live cells.
func (a *Arena) Len() int {
	if a == nil {
		return 0
	}
	return len(a.cells)
}

// Owns reports whether t was allocated by a and is still live.
func (a *Arena) Owns(t *TypeInfo) bool {
	return a != nil && t != nil && t.owner == a
}

func (a *Arena) alloc(ctor CtorID, n int) *TypeInfo {
	t := &TypeInfo{ctor: ctor, args: make([]*TypeInfo, n)}
	if a != nil {
		t.owner = a
		a.cells = append(a.cells, t)
	}
	return t
}

// Release frees every cell at once. Releasing twice is harmless.
func (a *Arena) Release() {
	if a == nil {
		return
	}
	for i, t := range a.cells {
		t.ctor = NoCtorID
		t.args = nil
		t.owner = nil
		a.cells[i] = nil
	}
	a.cells = a.cells[:0]
}

// Keep copies the arena-owned part of t to ordinary memory so the result
// survives Release. Subterms the arena does not own are shared.
func (a *Arena) Keep(t *TypeInfo) *TypeInfo {
	if t == nil || !a.Owns(t) {
		return t
	}
	out := &TypeInfo{ctor: t.ctor, args: make([]*TypeInfo, len(t.args))}
	for i, arg := range t.args {
		out.args[i] = a.Keep(arg)
	}
	return out
}

// Scoped runs fn with a fresh arena and releases it on every exit path,
// including panics.
func Scoped(fn func(a *Arena) error) error {
	a := acquireArena()
	defer releaseArena(a)
	return fn(a)
}

var arenaPool = sync.Pool{
	New: func() any { return NewArena() },
}

func acquireArena() *Arena {
	return arenaPool.Get().(*Arena)
}

func releaseArena(a *Arena) {
	a.Release()
	arenaPool.Put(a)
}
