// Package hittest provides the geometric testers used for click and lasso
// selection, and a tester-driven search over a quadtree.
package hittest

import (
	"github.com/atlasmap-sc/scatter/internal/quadtree"
)

// Tester decides point membership and prunes boxes that cannot contain a
// member. TestArea may return true for boxes without members but must never
// return false for a box that contains one.
type Tester interface {
	Test(x, y float64) bool
	TestArea(x0, y0, x1, y1 float64) bool
}

// Overlaps reports whether two boxes intersect, touching borders included.
func Overlaps(a, b quadtree.Extent) bool {
	return a.X0 <= b.X1 && b.X0 <= a.X1 && a.Y0 <= b.Y1 && b.Y0 <= a.Y1
}

// Rect tests membership in an axis-aligned box.
type Rect quadtree.Extent

// Test implements Tester.
func (r Rect) Test(x, y float64) bool {
	return quadtree.Extent(r).Contains(x, y)
}

// TestArea implements Tester.
func (r Rect) TestArea(x0, y0, x1, y1 float64) bool {
	return Overlaps(quadtree.Extent(r), quadtree.Extent{X0: x0, Y0: y0, X1: x1, Y1: y1})
}

// Ellipse tests membership in an axis-aligned ellipse.
type Ellipse struct {
	CX, CY float64
	RX, RY float64
}

// Test implements Tester.
func (e Ellipse) Test(x, y float64) bool {
	dx, dy := x-e.CX, y-e.CY
	var s float64
	if e.RX > 0 {
		s += dx * dx / (e.RX * e.RX)
	} else if dx != 0 {
		return false
	}
	if e.RY > 0 {
		s += dy * dy / (e.RY * e.RY)
	} else if dy != 0 {
		return false
	}
	return s <= 1
}

// TestArea implements Tester using the ellipse's bounding box.
func (e Ellipse) TestArea(x0, y0, x1, y1 float64) bool {
	return Overlaps(e.Bounds(), quadtree.Extent{X0: x0, Y0: y0, X1: x1, Y1: y1})
}

// Bounds returns the bounding box of e.
func (e Ellipse) Bounds() quadtree.Extent {
	return quadtree.Extent{X0: e.CX - e.RX, Y0: e.CY - e.RY, X1: e.CX + e.RX, Y1: e.CY + e.RY}
}

// Find returns the values of t accepted by tester. Nodes whose four corners
// pass the tester are accepted whole; this is exact for convex testers.
func Find[T comparable](t *quadtree.Tree[T], tester Tester) []T {
	if tester == nil {
		return nil
	}
	var out []T
	t.Visit(func(n *quadtree.Node[T], e quadtree.Extent) quadtree.Action {
		if tester.Test(e.X0, e.Y0) && tester.Test(e.X1, e.Y0) &&
			tester.Test(e.X0, e.Y1) && tester.Test(e.X1, e.Y1) {
			quadtree.EachItem(n, func(it *quadtree.Item[T]) {
				out = append(out, it.Value)
			})
			return quadtree.Prune
		}
		if !tester.TestArea(e.X0, e.Y0, e.X1, e.Y1) {
			return quadtree.Prune
		}
		if n.Leaf() {
			for it := n.Items(); it != nil; it = it.Next() {
				if tester.Test(it.X, it.Y) {
					out = append(out, it.Value)
				}
			}
		}
		return quadtree.Descend
	})
	return out
}
