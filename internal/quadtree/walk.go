package quadtree

import "math/rand/v2"

// Leaves returns every value below n in pre-order.
func Leaves[T comparable](n *Node[T]) []T {
	if n == nil {
		return nil
	}
	return appendLeaves(nil, n)
}

func appendLeaves[T comparable](out []T, n *Node[T]) []T {
	EachItem(n, func(it *Item[T]) {
		out = append(out, it.Value)
	})
	return out
}

// EachItem calls fn for every item below n in pre-order.
func EachItem[T comparable](n *Node[T], fn func(*Item[T])) {
	if n == nil {
		return
	}
	if n.Leaf() {
		for it := n.items; it != nil; it = it.next {
			fn(it)
		}
		return
	}
	for _, c := range n.children {
		EachItem(c, fn)
	}
}

// SubtreeSize returns the number of items below n.
func SubtreeSize[T comparable](n *Node[T]) int {
	count := 0
	EachItem(n, func(*Item[T]) { count++ })
	return count
}

// FirstLeaf returns the first item reached by always descending into the
// lowest non-empty quadrant. The result only depends on the tree shape.
func FirstLeaf[T comparable](n *Node[T]) *Item[T] {
	for n != nil && !n.Leaf() {
		var next *Node[T]
		for _, c := range n.children {
			if c != nil {
				next = c
				break
			}
		}
		n = next
	}
	if n == nil {
		return nil
	}
	return n.items
}

// RandomLeaf descends through uniformly chosen non-empty quadrants and
// returns a uniformly chosen item of the leaf it reaches.
func RandomLeaf[T comparable](n *Node[T], rnd *rand.Rand) *Item[T] {
	var kids [4]*Node[T]
	for n != nil && !n.Leaf() {
		k := 0
		for _, c := range n.children {
			if c != nil {
				kids[k] = c
				k++
			}
		}
		if k == 0 {
			return nil
		}
		n = kids[rnd.IntN(k)]
	}
	if n == nil {
		return nil
	}
	count := 0
	for it := n.items; it != nil; it = it.next {
		count++
	}
	it := n.items
	for i := rnd.IntN(count); i > 0; i-- {
		it = it.next
	}
	return it
}

// FindItems returns the values below n whose item satisfies match.
func FindItems[T comparable](n *Node[T], match func(*Item[T]) bool) []T {
	var out []T
	EachItem(n, func(it *Item[T]) {
		if match(it) {
			out = append(out, it.Value)
		}
	})
	return out
}
