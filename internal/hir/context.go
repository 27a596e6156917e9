package hir

import (
	"fmt"

	"hashql/internal/source"
	"hashql/internal/types"
)

// Counter hands out fresh ids. Ids are never reused within a compilation.
type Counter struct {
	nodes HirID
	vars  VarID
}

// NextHirID returns a fresh node id.
func (c *Counter) NextHirID() HirID {
	c.nodes++
	return c.nodes
}

// NextVarID returns a fresh binder id.
func (c *Counter) NextVarID() VarID {
	c.vars++
	return c.vars
}

// TypeInfo is the per-node metadata produced by type checking.
type TypeInfo struct {
	Type      types.TypeID
	Arguments Interned[types.TypeID] // monomorphized type arguments, if any
}

// TypeMap maps node ids to their TypeInfo.
type TypeMap struct {
	entries map[HirID]TypeInfo
}

// NewTypeMap creates an empty map.
func NewTypeMap() *TypeMap {
	return &TypeMap{entries: make(map[HirID]TypeInfo, 256)}
}

// Insert records info for id, replacing any previous entry.
func (m *TypeMap) Insert(id HirID, info TypeInfo) {
	m.entries[id] = info
}

// Get returns the entry for id.
func (m *TypeMap) Get(id HirID) (TypeInfo, bool) {
	info, ok := m.entries[id]
	return info, ok
}

// Type returns the type recorded for id, or NoTypeID.
func (m *TypeMap) Type(id HirID) types.TypeID {
	return m.entries[id].Type
}

// Copy duplicates the entry of from under to. A missing source entry means an earlier
// pass broke the "every node has a type" contract, so it panics.
func (m *TypeMap) Copy(from, to HirID) {
	info, ok := m.entries[from]
	if !ok {
		panic(fmt.Sprintf("hir: no type information for node %d", from))
	}
	m.entries[to] = info
}

// Len returns the number of entries.
func (m *TypeMap) Len() int {
	return len(m.entries)
}

// Context is the mutable state of one compilation. It is owned by a single pass at a time
// and must not be shared between goroutines.
type Context struct {
	Interner *Interner
	Symbols  *source.Interner
	Counter  Counter
	Map      *TypeMap
}

// NewContext creates a context with fresh arenas.
func NewContext() *Context {
	return &Context{
		Interner: NewInterner(),
		Symbols:  source.NewInterner(),
		Map:      NewTypeMap(),
	}
}

// NextHirID returns a fresh node id.
func (c *Context) NextHirID() HirID { return c.Counter.NextHirID() }

// NextVarID returns a fresh binder id.
func (c *Context) NextVarID() VarID { return c.Counter.NextVarID() }

// Symbol interns s.
func (c *Context) Symbol(s string) source.StringID { return c.Symbols.Intern(s) }

// SymbolName resolves a symbol, "" for NoStringID.
func (c *Context) SymbolName(id source.StringID) string {
	s, _ := c.Symbols.Lookup(id)
	return s
}
