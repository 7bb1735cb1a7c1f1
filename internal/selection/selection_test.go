package selection

import (
	"testing"

	"github.com/atlasmap-sc/scatter/internal/quadtree"
)

type point struct {
	x, y float64
}

func px(p *point) float64 { return p.x }
func py(p *point) float64 { return p.y }

var unit = quadtree.Extent{X1: 100, Y1: 100}

type counter struct {
	final, interim int
}

func (c *counter) onChange(inProgress bool) {
	if inProgress {
		c.interim++
	} else {
		c.final++
	}
}

func TestSet_MinimalDiff(t *testing.T) {
	a, b, c := &point{1, 1}, &point{50, 50}, &point{90, 10}
	var n counter
	m := NewManager(px, py, unit, n.onChange)

	if !m.Set([]*point{a, b}, false) {
		t.Fatal("first Set reported no change")
	}
	before := m.mutations

	added, removed := Diff(m.Items(), []*point{b, c})
	if len(added) != 1 || added[0] != c || len(removed) != 1 || removed[0] != a {
		t.Fatalf("Diff = %v, %v", added, removed)
	}

	n = counter{}
	if !m.Set([]*point{b, c}, false) {
		t.Fatal("second Set reported no change")
	}
	if got := m.mutations - before; got != 2 {
		t.Errorf("mutations = %d, want 2", got)
	}
	if n.final != 1 {
		t.Errorf("notifications = %d, want 1", n.final)
	}
	if m.Size() != 2 || !m.Contains(b) || !m.Contains(c) || m.Contains(a) {
		t.Errorf("unexpected selection %v", m.Items())
	}
}

func TestSet_Unchanged(t *testing.T) {
	a, b := &point{1, 1}, &point{2, 2}
	var n counter
	m := NewManager(px, py, unit, n.onChange)
	m.Set([]*point{a, b}, false)
	before, notified := m.mutations, n.final

	if m.Set([]*point{b, a}, false) {
		t.Error("Set with the current selection reported a change")
	}
	if m.mutations != before || n.final != notified {
		t.Error("no-op Set mutated the index or notified")
	}
}

func TestSet_EmptyClears(t *testing.T) {
	var n counter
	m := NewManager(px, py, unit, n.onChange)
	if m.Set(nil, false) {
		t.Error("clearing an empty selection reported a change")
	}
	m.Set([]*point{{3, 3}}, false)
	if !m.Set([]*point{}, false) {
		t.Error("Set([]) on a non-empty selection reported no change")
	}
	if m.Size() != 0 {
		t.Errorf("size = %d after clear", m.Size())
	}
	if m.Clear(false) {
		t.Error("second Clear reported a change")
	}
	if n.final != 2 {
		t.Errorf("notifications = %d, want 2", n.final)
	}
}

func TestAddRemove(t *testing.T) {
	a, b := &point{10, 10}, &point{10, 10}
	var n counter
	m := NewManager(px, py, unit, n.onChange)

	if !m.Add([]*point{a, b}, true) {
		t.Error("Add reported no change")
	}
	if m.Add([]*point{a}, true) {
		t.Error("adding a selected point reported a change")
	}
	if !m.Remove([]*point{a}, false) || m.Contains(a) || !m.Contains(b) {
		t.Error("Remove did not remove exactly a")
	}
	if m.Remove([]*point{a}, false) {
		t.Error("removing an unselected point reported a change")
	}
	if n.interim != 1 || n.final != 1 {
		t.Errorf("notifications interim=%d final=%d", n.interim, n.final)
	}
}

func TestDiff_DuplicatesInNext(t *testing.T) {
	a := &point{1, 1}
	added, removed := Diff(nil, []*point{a, a})
	if len(added) != 1 || len(removed) != 0 {
		t.Errorf("Diff = %v, %v", added, removed)
	}
}

func TestReset(t *testing.T) {
	var n counter
	m := NewManager(px, py, unit, n.onChange)
	m.Set([]*point{{1, 1}}, false)
	m.Reset(py, px, quadtree.Extent{X1: 50, Y1: 50})
	if m.Size() != 0 {
		t.Error("Reset kept items")
	}
	if n.final != 1 {
		t.Error("Reset notified")
	}
	if e := m.Tree().Extent(); e.X1 != 50 {
		t.Errorf("extent not replaced: %+v", e)
	}
}
