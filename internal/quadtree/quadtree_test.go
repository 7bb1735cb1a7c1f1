package quadtree

import (
	"math/rand/v2"
	"testing"
)

type point struct {
	x, y float64
}

func px(p *point) float64 { return p.x }
func py(p *point) float64 { return p.y }

var unit = Extent{X0: 0, Y0: 0, X1: 100, Y1: 100}

func TestBuild_DuplicatesChained(t *testing.T) {
	a, b, c := &point{10, 10}, &point{10, 10}, &point{90, 90}
	tr := Build([]*point{a, b, c}, px, py, unit)

	if tr.Size() != 3 {
		t.Fatalf("expected size 3, got %d", tr.Size())
	}

	var leaves, chained int
	tr.Visit(func(n *Node[*point], e Extent) Action {
		if n.Leaf() {
			leaves++
			if n.Items().Next() != nil {
				chained++
			}
		}
		return Descend
	})
	if leaves != 2 {
		t.Errorf("expected 2 leaves, got %d", leaves)
	}
	if chained != 1 {
		t.Errorf("expected one chained leaf, got %d", chained)
	}
	if got := len(tr.Data()); got != 3 {
		t.Errorf("expected 3 values from Data, got %d", got)
	}
}

func TestVisit_ItemsInsideExtent(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))
	data := make([]*point, 2000)
	for i := range data {
		data[i] = &point{rnd.Float64() * 100, rnd.Float64() * 100}
	}
	tr := Build(data, px, py, unit)

	tr.Visit(func(n *Node[*point], e Extent) Action {
		EachItem(n, func(it *Item[*point]) {
			if !e.Contains(it.X, it.Y) {
				t.Fatalf("item (%v,%v) outside node extent %+v", it.X, it.Y, e)
			}
		})
		return Descend
	})
}

func TestAdd_ClampsOutOfRange(t *testing.T) {
	p := &point{-5, 250}
	tr := Build([]*point{p}, px, py, unit)

	it := FirstLeaf(tr.Root())
	if it == nil {
		t.Fatal("expected a leaf")
	}
	if it.X != 0 || it.Y != 100 {
		t.Errorf("expected clamped (0,100), got (%v,%v)", it.X, it.Y)
	}
	if !tr.Has(p) {
		t.Error("expected clamped point to be found")
	}
}

func TestRemove(t *testing.T) {
	a, b, c, d := &point{10, 10}, &point{10, 10}, &point{90, 90}, &point{60, 20}
	tr := Build([]*point{a, b, c, d}, px, py, unit)

	t.Run("duplicate keeps sibling", func(t *testing.T) {
		if !tr.Remove(a) {
			t.Fatal("expected a to be removed")
		}
		if tr.Has(a) {
			t.Error("a still indexed")
		}
		if !tr.Has(b) {
			t.Error("b lost together with a")
		}
		if tr.Size() != 3 {
			t.Errorf("expected size 3, got %d", tr.Size())
		}
	})

	t.Run("missing value", func(t *testing.T) {
		if tr.Remove(&point{10, 10}) {
			t.Error("removed a value that was never added")
		}
		if tr.Size() != 3 {
			t.Errorf("expected size 3, got %d", tr.Size())
		}
	})

	t.Run("collapse to single leaf", func(t *testing.T) {
		if n := tr.RemoveAll([]*point{b, d}); n != 2 {
			t.Fatalf("expected 2 removals, got %d", n)
		}
		if !tr.Root().Leaf() {
			t.Error("expected root to collapse into the remaining leaf")
		}
		if tr.Root().Items().Value != c {
			t.Error("unexpected remaining value")
		}
	})

	t.Run("empty", func(t *testing.T) {
		tr.Remove(c)
		if tr.Root() != nil || tr.Size() != 0 {
			t.Errorf("expected empty tree, root=%v size=%d", tr.Root(), tr.Size())
		}
	})
}

func TestVisit_Prune(t *testing.T) {
	data := []*point{{10, 10}, {20, 20}, {80, 80}, {90, 90}}
	tr := Build(data, px, py, unit)

	var visited int
	tr.Visit(func(n *Node[*point], e Extent) Action {
		visited++
		return Prune
	})
	if visited != 1 {
		t.Errorf("expected only the root to be visited, got %d", visited)
	}
}

func TestWalkHelpers(t *testing.T) {
	data := []*point{{10, 10}, {20, 20}, {80, 80}, {90, 90}, {90, 90}}
	tr := Build(data, px, py, unit)

	if got := SubtreeSize(tr.Root()); got != 5 {
		t.Errorf("SubtreeSize = %d, want 5", got)
	}
	if got := len(Leaves(tr.Root())); got != 5 {
		t.Errorf("len(Leaves) = %d, want 5", got)
	}

	first := FirstLeaf(tr.Root())
	if first == nil || first.Value != data[0] {
		t.Errorf("FirstLeaf should return the lowest-quadrant point")
	}

	high := FindItems(tr.Root(), func(it *Item[*point]) bool { return it.X > 50 })
	if len(high) != 3 {
		t.Errorf("FindItems returned %d values, want 3", len(high))
	}

	rnd := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 50; i++ {
		it := RandomLeaf(tr.Root(), rnd)
		if it == nil || !tr.Has(it.Value) {
			t.Fatalf("RandomLeaf returned %v", it)
		}
	}
}

func BenchmarkBuild(b *testing.B) {
	rnd := rand.New(rand.NewPCG(3, 4))
	data := make([]*point, 100000)
	for i := range data {
		data[i] = &point{rnd.Float64() * 100, rnd.Float64() * 100}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Build(data, px, py, unit)
	}
}
