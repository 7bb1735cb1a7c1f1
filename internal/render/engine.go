package render

import (
	"math"

	"github.com/atlasmap-sc/scatter/internal/hittest"
	"github.com/atlasmap-sc/scatter/internal/quadtree"
)

// DefaultAggregationThreshold is the on-screen size in pixels below which a
// subtree is drawn as a single point.
const DefaultAggregationThreshold = 5.0

// Renderer draws points. Done is called once after the last Render.
type Renderer[T any] interface {
	Render(px, py float64, v T)
	Done()
}

// Stats counts what a traversal did. Point counts for hidden and aggregated
// subtrees are only filled in when the pass has Debug set.
type Stats struct {
	Nodes          int
	Rendered       int
	Aggregated     int
	AggregateNodes int
	Hidden         int
	HiddenNodes    int
}

// Pass describes one traversal.
type Pass[T comparable] struct {
	Tree     *quadtree.Tree[T]
	Renderer Renderer[T]

	// X and Y map normalized coordinates to pixels.
	X, Y func(float64) float64

	// Visible reports whether a node box may contain visible points. Nil
	// means every node is visible.
	Visible func(e quadtree.Extent) bool
	// Aggregate reports whether a node is drawn as one point. Nil disables
	// aggregation.
	Aggregate func(e quadtree.Extent) bool

	Debug bool
}

// Traverse walks the tree once and hands every visible point, or one
// representative per aggregated subtree, to the renderer. Each indexed point
// is rendered, represented by an aggregate or hidden, never more than one
// of these.
func Traverse[T comparable](p Pass[T]) Stats {
	var st Stats
	defer p.Renderer.Done()
	if p.Tree == nil {
		return st
	}

	p.Tree.Visit(func(n *quadtree.Node[T], e quadtree.Extent) quadtree.Action {
		st.Nodes++
		if p.Visible != nil && !p.Visible(e) {
			st.HiddenNodes++
			if p.Debug {
				st.Hidden += quadtree.SubtreeSize(n)
			}
			return quadtree.Prune
		}
		if p.Aggregate != nil && p.Aggregate(e) {
			it := quadtree.FirstLeaf(n)
			p.Renderer.Render(p.X(it.X), p.Y(it.Y), it.Value)
			st.AggregateNodes++
			if p.Debug {
				st.Aggregated += quadtree.SubtreeSize(n)
			}
			return quadtree.Prune
		}
		if n.Leaf() {
			for it := n.Items(); it != nil; it = it.Next() {
				p.Renderer.Render(p.X(it.X), p.Y(it.Y), it.Value)
				st.Rendered++
			}
		}
		return quadtree.Descend
	})
	return st
}

// LevelOfDetail returns an aggregation predicate that accepts boxes whose
// pixel width and height are both below threshold.
func LevelOfDetail(x, y func(float64) float64, threshold float64) func(quadtree.Extent) bool {
	if threshold <= 0 {
		threshold = DefaultAggregationThreshold
	}
	return func(e quadtree.Extent) bool {
		return math.Abs(x(e.X1)-x(e.X0)) < threshold && math.Abs(y(e.Y1)-y(e.Y0)) < threshold
	}
}

// Within returns a visibility predicate for the window w.
func Within(w quadtree.Extent) func(quadtree.Extent) bool {
	return func(e quadtree.Extent) bool {
		return hittest.Overlaps(e, w)
	}
}
