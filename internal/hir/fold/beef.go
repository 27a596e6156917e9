package fold

import (
	"slices"

	"hashql/internal/hir"
)

// Beef rewrites an interned sequence element by element. It keeps referring to the interned
// storage until an element actually changes, then switches to an owned copy. Finish hands back
// the original handle when nothing changed.
type Beef[T comparable] struct {
	interned hir.Interned[T]
	owned    []T
	isOwned  bool
}

// NewBeef wraps an interned sequence without copying it.
func NewBeef[T comparable](items hir.Interned[T]) Beef[T] {
	return Beef[T]{interned: items}
}

// Len returns the number of elements.
func (b *Beef[T]) Len() int {
	if b.isOwned {
		return len(b.owned)
	}
	return b.interned.Len()
}

// Slice returns the current elements. The slice must not be modified.
func (b *Beef[T]) Slice() []T {
	if b.isOwned {
		return b.owned
	}
	return b.interned.Slice()
}

// IsOwned reports whether a modification has been recorded.
func (b *Beef[T]) IsOwned() bool {
	return b.isOwned
}

// Map replaces every element with fn(element).
func (b *Beef[T]) Map(fn func(T) T) {
	_ = b.TryMap(func(item T) (T, error) {
		return fn(item), nil
	})
}

// TryMap replaces every element with fn(element), stopping at the first error. Elements mapped
// before the failure keep their new value; the failing element and everything after it are left
// as they were.
func (b *Beef[T]) TryMap(fn func(T) (T, error)) error {
	start := 0
	if !b.isOwned {
		items := b.interned.Slice()
		for ; start < len(items); start++ {
			mapped, err := fn(items[start])
			if err != nil {
				return err
			}
			if mapped != items[start] {
				b.owned = slices.Clone(items)
				b.owned[start] = mapped
				b.isOwned = true
				start++
				break
			}
		}
		if !b.isOwned {
			return nil
		}
	}

	for i := start; i < len(b.owned); i++ {
		mapped, err := fn(b.owned[i])
		if err != nil {
			return err
		}
		b.owned[i] = mapped
	}
	return nil
}

// Finish returns the interned result. An unmodified buffer returns the original handle.
func (b *Beef[T]) Finish(set *hir.InternSet[T]) hir.Interned[T] {
	if !b.isOwned {
		return b.interned
	}
	return set.Intern(b.owned)
}
