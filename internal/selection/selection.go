// Package selection maintains the set of selected points as its own spatial
// index.
package selection

import (
	"github.com/atlasmap-sc/scatter/internal/quadtree"
)

// Manager owns the selection index. It must be built with the same
// coordinate functions and extent as the data index so both trees agree on
// where a point lives.
type Manager[T comparable] struct {
	x, y     func(T) float64
	extent   quadtree.Extent
	tree     *quadtree.Tree[T]
	onChange func(inProgress bool)

	// mutations counts index adds and removes.
	mutations int
}

// NewManager returns an empty selection. onChange, if set, is called once
// for every operation that changed the selection.
func NewManager[T comparable](x, y func(T) float64, extent quadtree.Extent, onChange func(inProgress bool)) *Manager[T] {
	return &Manager[T]{
		x:        x,
		y:        y,
		extent:   extent,
		tree:     quadtree.New(x, y, extent),
		onChange: onChange,
	}
}

// Reset replaces the coordinate functions and empties the selection without
// notifying. It is used when the underlying data changes.
func (m *Manager[T]) Reset(x, y func(T) float64, extent quadtree.Extent) {
	m.x, m.y, m.extent = x, y, extent
	m.tree = quadtree.New(x, y, extent)
}

// Tree returns the selection index. Callers must not mutate it.
func (m *Manager[T]) Tree() *quadtree.Tree[T] { return m.tree }

// Items returns the selected points.
func (m *Manager[T]) Items() []T { return m.tree.Data() }

// Size returns the number of selected points.
func (m *Manager[T]) Size() int { return m.tree.Size() }

// Contains reports whether v is selected.
func (m *Manager[T]) Contains(v T) bool { return m.tree.Has(v) }

// Set makes items the selection, touching only the points that differ.
// An empty items clears the selection. It reports whether anything changed.
func (m *Manager[T]) Set(items []T, inProgress bool) bool {
	if len(items) == 0 {
		return m.Clear(inProgress)
	}
	added, removed := Diff(m.tree.Data(), items)
	if len(added) == 0 && len(removed) == 0 {
		return false
	}
	m.mutations += m.tree.RemoveAll(removed)
	m.tree.AddAll(added)
	m.mutations += len(added)
	m.notify(inProgress)
	return true
}

// Clear empties the selection. It returns false when it was already empty.
func (m *Manager[T]) Clear(inProgress bool) bool {
	if m.tree.Size() == 0 {
		return false
	}
	m.mutations += m.tree.Size()
	m.tree = quadtree.New(m.x, m.y, m.extent)
	m.notify(inProgress)
	return true
}

// Add selects items that are not selected yet.
func (m *Manager[T]) Add(items []T, inProgress bool) bool {
	changed := false
	for _, v := range items {
		if m.tree.Has(v) {
			continue
		}
		m.tree.Add(v)
		m.mutations++
		changed = true
	}
	if changed {
		m.notify(inProgress)
	}
	return changed
}

// Remove deselects items.
func (m *Manager[T]) Remove(items []T, inProgress bool) bool {
	n := m.tree.RemoveAll(items)
	m.mutations += n
	if n > 0 {
		m.notify(inProgress)
	}
	return n > 0
}

func (m *Manager[T]) notify(inProgress bool) {
	if m.onChange != nil {
		m.onChange(inProgress)
	}
}

// Diff returns the members of next missing from current and the members of
// current missing from next. Membership is by identity using a linear
// search, so the cost is O(len(current)*len(next)).
func Diff[T comparable](current, next []T) (added, removed []T) {
	for _, v := range next {
		if indexOf(current, v) < 0 && indexOf(added, v) < 0 {
			added = append(added, v)
		}
	}
	for _, v := range current {
		if indexOf(next, v) < 0 {
			removed = append(removed, v)
		}
	}
	return added, removed
}

func indexOf[T comparable](s []T, v T) int {
	for i, o := range s {
		if o == v {
			return i
		}
	}
	return -1
}
