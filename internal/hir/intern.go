package hir

import (
	"encoding/binary"
	"fmt"
	"iter"
	"slices"

	"fortio.org/safecast"
	"github.com/cespare/xxhash/v2"

	"hashql/internal/source"
	"hashql/internal/types"
)

// Interned is a handle to an immutable, deduplicated sequence. Equal handles mean
// equal contents. The zero value is the empty sequence.
type Interned[T any] struct {
	items *[]T
}

// Len returns the number of elements.
func (s Interned[T]) Len() int {
	if s.items == nil {
		return 0
	}
	return len(*s.items)
}

// IsEmpty reports whether the sequence has no elements.
func (s Interned[T]) IsEmpty() bool { return s.Len() == 0 }

// At returns the i-th element.
func (s Interned[T]) At(i int) T {
	return (*s.items)[i]
}

// Slice exposes the elements. The returned slice is shared and must not be modified.
func (s Interned[T]) Slice() []T {
	if s.items == nil {
		return nil
	}
	return *s.items
}

// All iterates over index/element pairs.
func (s Interned[T]) All() iter.Seq2[int, T] {
	return slices.All(s.Slice())
}

// InternSet hash-conses sequences of T.
type InternSet[T comparable] struct {
	key     func([]byte, T) []byte
	buckets map[uint64][]*[]T
	scratch []byte
	count   int
}

// NewInternSet creates a set. key appends a byte encoding of an element used for hashing;
// it does not need to be injective, candidates are compared element-wise.
func NewInternSet[T comparable](key func([]byte, T) []byte) *InternSet[T] {
	return &InternSet[T]{
		key:     key,
		buckets: make(map[uint64][]*[]T, 64),
	}
}

// Intern returns the canonical handle for items. items is copied, the caller keeps ownership.
func (s *InternSet[T]) Intern(items []T) Interned[T] {
	if len(items) == 0 {
		return Interned[T]{}
	}

	s.scratch = s.scratch[:0]
	for _, item := range items {
		s.scratch = s.key(s.scratch, item)
	}
	hash := xxhash.Sum64(s.scratch)

	for _, candidate := range s.buckets[hash] {
		if slices.Equal(*candidate, items) {
			return Interned[T]{items: candidate}
		}
	}

	owned := slices.Clone(items)
	s.buckets[hash] = append(s.buckets[hash], &owned)
	s.count++
	return Interned[T]{items: &owned}
}

// Len returns the number of distinct non-empty sequences.
func (s *InternSet[T]) Len() int {
	return s.count
}

// Interner owns every interned HIR structure of one compilation.
type Interner struct {
	Nodes         *InternSet[Node]
	Idents        *InternSet[Ident]
	TypeIDs       *InternSet[types.TypeID]
	Bindings      *InternSet[Binding]
	StructFields  *InternSet[StructField]
	DictFields    *InternSet[DictField]
	CallArguments *InternSet[CallArgument]
	ClosureParams *InternSet[ClosureParam]
	GraphReadBody *InternSet[GraphReadBody]

	nodes map[NodeData]Node
	arena []*NodeData
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{
		Nodes:         NewInternSet(appendNodeKey),
		Idents:        NewInternSet(appendIdentKey),
		TypeIDs:       NewInternSet(appendTypeIDKey),
		Bindings:      NewInternSet(appendBindingKey),
		StructFields:  NewInternSet(appendStructFieldKey),
		DictFields:    NewInternSet(appendDictFieldKey),
		CallArguments: NewInternSet(appendCallArgumentKey),
		ClosureParams: NewInternSet(appendClosureParamKey),
		GraphReadBody: NewInternSet(appendGraphReadBodyKey),
		nodes:         make(map[NodeData]Node, 256),
		arena:         []*NodeData{nil}, // seq 0 is the zero Node
	}
}

// InternNode returns the canonical handle for data. Data with an invalid id or a nil kind is a
// programming error.
func (in *Interner) InternNode(data NodeData) Node {
	if !data.ID.IsValid() {
		panic("hir: interning node without a HirID")
	}
	if data.Kind == nil {
		panic(fmt.Sprintf("hir: interning node %d without a kind", data.ID))
	}
	data.seq = 0
	if node, ok := in.nodes[data]; ok {
		return node
	}

	seq, err := safecast.Conv[uint32](len(in.arena))
	if err != nil {
		panic(fmt.Errorf("hir: node arena overflow: %w", err))
	}
	stored := data
	stored.seq = seq
	in.arena = append(in.arena, &stored)

	node := Node{data: &stored}
	in.nodes[data] = node
	return node
}

// NodeCount returns the number of distinct interned nodes.
func (in *Interner) NodeCount() int {
	return len(in.arena) - 1
}

func appendU32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

func appendSpan(b []byte, span source.Span) []byte {
	b = appendU32(b, uint32(span.File))
	b = appendU32(b, span.Start)
	return appendU32(b, span.End)
}

func appendNodeKey(b []byte, node Node) []byte {
	if node.data == nil {
		return appendU32(b, 0)
	}
	return appendU32(b, node.data.seq)
}

func appendIdentKey(b []byte, ident Ident) []byte {
	b = appendU32(b, uint32(ident.Value))
	return appendSpan(b, ident.Span)
}

func appendTypeIDKey(b []byte, id types.TypeID) []byte {
	return appendU32(b, uint32(id))
}

func appendBinderKey(b []byte, binder Binder) []byte {
	b = appendU32(b, uint32(binder.ID))
	b = appendU32(b, uint32(binder.Name))
	return appendSpan(b, binder.Span)
}

func appendBindingKey(b []byte, binding Binding) []byte {
	b = appendBinderKey(b, binding.Binder)
	b = appendSpan(b, binding.Span)
	return appendNodeKey(b, binding.Value)
}

func appendStructFieldKey(b []byte, field StructField) []byte {
	b = appendIdentKey(b, field.Name)
	return appendNodeKey(b, field.Value)
}

func appendDictFieldKey(b []byte, field DictField) []byte {
	b = appendNodeKey(b, field.Key)
	return appendNodeKey(b, field.Value)
}

func appendCallArgumentKey(b []byte, argument CallArgument) []byte {
	b = appendSpan(b, argument.Span)
	return appendNodeKey(b, argument.Value)
}

func appendClosureParamKey(b []byte, param ClosureParam) []byte {
	b = appendSpan(b, param.Span)
	return appendBinderKey(b, param.Binder)
}

func appendGraphReadBodyKey(b []byte, body GraphReadBody) []byte {
	b = append(b, byte(body.Kind))
	return appendNodeKey(b, body.Filter)
}
