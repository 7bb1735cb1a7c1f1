// Package quadtree provides a point quadtree over a fixed, normalized extent.
//
// The tree never copies the indexed values: each leaf holds the value together
// with the coordinates derived from it at insertion time. Values that share the
// exact same coordinates are chained in one leaf instead of being subdivided.
package quadtree

// maxDepth bounds subdivision. Below it, distinct coordinates that still fall
// into the same cell are chained like duplicates.
const maxDepth = 64

// Extent is an axis-aligned box [X0,X1] x [Y0,Y1].
type Extent struct {
	X0, Y0, X1, Y1 float64
}

// Contains reports whether (x, y) lies inside e, borders included.
func (e Extent) Contains(x, y float64) bool {
	return x >= e.X0 && x <= e.X1 && y >= e.Y0 && y <= e.Y1
}

// Width returns X1-X0.
func (e Extent) Width() float64 { return e.X1 - e.X0 }

// Height returns Y1-Y0.
func (e Extent) Height() float64 { return e.Y1 - e.Y0 }

// index returns the quadrant of (x, y): bit 0 is set for the right half,
// bit 1 for the upper half.
func (e Extent) index(x, y float64) int {
	i := 0
	if x >= (e.X0+e.X1)/2 {
		i |= 1
	}
	if y >= (e.Y0+e.Y1)/2 {
		i |= 2
	}
	return i
}

// Quadrant returns the sub-extent of quadrant i (0..3).
func (e Extent) Quadrant(i int) Extent {
	xm, ym := (e.X0+e.X1)/2, (e.Y0+e.Y1)/2
	if i&1 == 0 {
		e.X1 = xm
	} else {
		e.X0 = xm
	}
	if i&2 == 0 {
		e.Y1 = ym
	} else {
		e.Y0 = ym
	}
	return e
}

// Item is one indexed value in a leaf chain.
type Item[T comparable] struct {
	Value T
	X, Y  float64
	next  *Item[T]
}

// Next returns the next item of the same leaf, or nil.
func (it *Item[T]) Next() *Item[T] { return it.next }

// Node is either an internal node with up to four children or a leaf
// holding a non-empty chain of items.
type Node[T comparable] struct {
	children [4]*Node[T]
	items    *Item[T]
}

// Leaf reports whether n holds items.
func (n *Node[T]) Leaf() bool { return n.items != nil }

// Child returns quadrant i of an internal node (nil when empty).
func (n *Node[T]) Child(i int) *Node[T] { return n.children[i] }

// Items returns the head of the leaf chain, nil for internal nodes.
func (n *Node[T]) Items() *Item[T] { return n.items }

// Action tells Visit whether to descend into a node's children.
type Action int

const (
	// Descend continues into the children of the visited node.
	Descend Action = iota
	// Prune skips the subtree below the visited node.
	Prune
)

// Visitor is called for each visited node with the node's bounding box.
type Visitor[T comparable] func(n *Node[T], e Extent) Action

// Tree is a quadtree of values of type T. Values are compared by ==, so
// pointer types give identity semantics.
type Tree[T comparable] struct {
	x, y   func(T) float64
	extent Extent
	root   *Node[T]
	size   int
}

// New creates an empty tree over extent using the given coordinate accessors.
func New[T comparable](x, y func(T) float64, extent Extent) *Tree[T] {
	return &Tree[T]{x: x, y: y, extent: extent}
}

// Build creates a tree and inserts every value of data.
func Build[T comparable](data []T, x, y func(T) float64, extent Extent) *Tree[T] {
	t := New(x, y, extent)
	t.AddAll(data)
	return t
}

// Extent returns the fixed root extent.
func (t *Tree[T]) Extent() Extent { return t.extent }

// Root returns the root node, nil for an empty tree.
func (t *Tree[T]) Root() *Node[T] { return t.root }

// Size returns the number of indexed values, duplicates included.
func (t *Tree[T]) Size() int { return t.size }

// coords returns the coordinates of v clamped into the root extent.
func (t *Tree[T]) coords(v T) (float64, float64) {
	x, y := t.x(v), t.y(v)
	if x < t.extent.X0 {
		x = t.extent.X0
	} else if x > t.extent.X1 {
		x = t.extent.X1
	}
	if y < t.extent.Y0 {
		y = t.extent.Y0
	} else if y > t.extent.Y1 {
		y = t.extent.Y1
	}
	return x, y
}

// Add inserts v.
func (t *Tree[T]) Add(v T) {
	x, y := t.coords(v)
	t.root = insert(t.root, t.extent, &Item[T]{Value: v, X: x, Y: y}, 0)
	t.size++
}

// AddAll inserts every value of vs.
func (t *Tree[T]) AddAll(vs []T) {
	for _, v := range vs {
		t.Add(v)
	}
}

func insert[T comparable](n *Node[T], e Extent, it *Item[T], depth int) *Node[T] {
	if n == nil {
		return &Node[T]{items: it}
	}
	if !n.Leaf() {
		i := e.index(it.X, it.Y)
		n.children[i] = insert(n.children[i], e.Quadrant(i), it, depth+1)
		return n
	}
	head := n.items
	if (head.X == it.X && head.Y == it.Y) || depth >= maxDepth {
		last := head
		for last.next != nil {
			last = last.next
		}
		last.next = it
		return n
	}
	// Push the existing leaf one level down and retry from the new parent.
	parent := &Node[T]{}
	parent.children[e.index(head.X, head.Y)] = n
	return insert(parent, e, it, depth)
}

// Remove deletes one occurrence of v. It reports whether v was found.
func (t *Tree[T]) Remove(v T) bool {
	x, y := t.coords(v)
	root, ok := remove(t.root, t.extent, v, x, y)
	if !ok {
		return false
	}
	t.root = root
	t.size--
	return true
}

// RemoveAll deletes every value of vs and returns how many were found.
func (t *Tree[T]) RemoveAll(vs []T) int {
	n := 0
	for _, v := range vs {
		if t.Remove(v) {
			n++
		}
	}
	return n
}

func remove[T comparable](n *Node[T], e Extent, v T, x, y float64) (*Node[T], bool) {
	if n == nil {
		return nil, false
	}
	if n.Leaf() {
		var prev *Item[T]
		for it := n.items; it != nil; prev, it = it, it.next {
			if it.Value != v {
				continue
			}
			if prev == nil {
				n.items = it.next
			} else {
				prev.next = it.next
			}
			if n.items == nil {
				return nil, true
			}
			return n, true
		}
		return n, false
	}
	i := e.index(x, y)
	child, ok := remove(n.children[i], e.Quadrant(i), v, x, y)
	if !ok {
		return n, false
	}
	n.children[i] = child
	return n.collapse(), true
}

// collapse replaces an internal node that lost all but one leaf child by
// that leaf, and drops it entirely when it has no children left.
func (n *Node[T]) collapse() *Node[T] {
	var only *Node[T]
	count := 0
	for _, c := range n.children {
		if c != nil {
			count++
			only = c
		}
	}
	switch {
	case count == 0:
		return nil
	case count == 1 && only.Leaf():
		return only
	}
	return n
}

// Has reports whether v is indexed.
func (t *Tree[T]) Has(v T) bool {
	x, y := t.coords(v)
	n, e := t.root, t.extent
	for n != nil && !n.Leaf() {
		i := e.index(x, y)
		n, e = n.children[i], e.Quadrant(i)
	}
	if n == nil {
		return false
	}
	for it := n.items; it != nil; it = it.next {
		if it.Value == v {
			return true
		}
	}
	return false
}

// Clear removes every value.
func (t *Tree[T]) Clear() {
	t.root = nil
	t.size = 0
}

// Visit walks the tree depth-first in pre-order, children in quadrant order.
func (t *Tree[T]) Visit(fn Visitor[T]) {
	if t.root == nil {
		return
	}
	type frame struct {
		n *Node[T]
		e Extent
	}
	stack := []frame{{t.root, t.extent}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if fn(f.n, f.e) == Prune || f.n.Leaf() {
			continue
		}
		for i := 3; i >= 0; i-- {
			if c := f.n.children[i]; c != nil {
				stack = append(stack, frame{c, f.e.Quadrant(i)})
			}
		}
	}
}

// Data returns every indexed value in traversal order.
func (t *Tree[T]) Data() []T {
	if t.root == nil {
		return nil
	}
	out := make([]T, 0, t.size)
	return appendLeaves(out, t.root)
}
