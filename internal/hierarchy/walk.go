package hierarchy

// DefaultMaxVisits bounds how many nodes one walk may visit. Walks that hit it
// stop early and report Truncated.
const DefaultMaxVisits = 1 << 16

// WalkStats reports edges the walk refused to follow.
type WalkStats struct {
	Visited       int
	OutOfRange    int
	CyclicEdges   int
	Truncated     bool
	MissingAnchor bool
}

// Descendants walks the subclass edges below anchor in pre-order (each child is
// emitted, then its own subtree, before the next sibling) and extracts the
// element matching level from every visited item. Items lacking that element
// are visited but contribute nothing. A node reachable through several parents
// is emitted once per path. Out-of-range indices are skipped, and edges back to
// a node already on the current path are dropped, so the walk terminates on
// any input.
func Descendants(g *Graph, anchor int, level Level) ([]Element, WalkStats) {
	return DescendantsWithLimit(g, anchor, level, DefaultMaxVisits)
}

// DescendantsWithLimit is Descendants with an explicit visit budget.
func DescendantsWithLimit(g *Graph, anchor int, level Level, maxVisits int) ([]Element, WalkStats) {
	var stats WalkStats
	if _, ok := g.At(anchor); !ok {
		stats.MissingAnchor = true
		return nil, stats
	}

	type frame struct {
		index int
		next  int
	}

	onPath := make([]bool, len(g.Items))
	onPath[anchor] = true
	stack := []frame{{index: anchor}}
	out := make([]Element, 0)

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		subclasses := g.Items[top.index].Subclasses
		if top.next >= len(subclasses) {
			onPath[top.index] = false
			stack = stack[:len(stack)-1]
			continue
		}
		child := subclasses[top.next]
		top.next++

		if child < 0 || child >= len(g.Items) {
			stats.OutOfRange++
			continue
		}
		if onPath[child] {
			stats.CyclicEdges++
			continue
		}
		if maxVisits > 0 && stats.Visited >= maxVisits {
			stats.Truncated = true
			break
		}

		stats.Visited++
		if element, ok := g.Items[child].ElementFor(level); ok {
			out = append(out, *element)
		}
		onPath[child] = true
		stack = append(stack, frame{index: child})
	}

	return out, stats
}
