package hittest

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/atlasmap-sc/scatter/internal/quadtree"
)

// Polygon tests membership in the convex hull of a point set.
type Polygon struct {
	ring  orb.Ring
	bound orb.Bound
}

// NewPolygon builds the convex hull of pts. It returns nil when the hull has
// fewer than three vertices, which callers treat as "no tester".
func NewPolygon(pts []orb.Point) *Polygon {
	if len(pts) < 3 {
		return nil
	}
	hull := ConvexHull(pts)
	if len(hull) < 3 {
		return nil
	}
	ring := append(orb.Ring(hull), hull[0])
	return &Polygon{ring: ring, bound: ring.Bound()}
}

// Ring returns the closed hull ring.
func (p *Polygon) Ring() orb.Ring { return p.ring }

// Test implements Tester. Points on the boundary are inside.
func (p *Polygon) Test(x, y float64) bool {
	pt := orb.Point{x, y}
	if !p.bound.Contains(pt) {
		return false
	}
	return planar.RingContains(p.ring, pt)
}

// TestArea implements Tester using the hull's bounding box.
func (p *Polygon) TestArea(x0, y0, x1, y1 float64) bool {
	b := quadtree.Extent{X0: p.bound.Min[0], Y0: p.bound.Min[1], X1: p.bound.Max[0], Y1: p.bound.Max[1]}
	return Overlaps(b, quadtree.Extent{X0: x0, Y0: y0, X1: x1, Y1: y1})
}

// ConvexHull returns the hull of pts in counter-clockwise order using the
// monotone chain algorithm. Collinear points are dropped.
func ConvexHull(pts []orb.Point) []orb.Point {
	if len(pts) < 3 {
		return append([]orb.Point(nil), pts...)
	}
	sorted := append([]orb.Point(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	hull := make([]orb.Point, 0, 2*len(sorted))
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// cross is positive when o, a, b turn counter-clockwise.
func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}
