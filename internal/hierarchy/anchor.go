package hierarchy

// Level decides which element a descendant walk extracts.
type Level int

const (
	TypeLevel Level = iota
	MemberLevel
)

func (l Level) String() string {
	if l == MemberLevel {
		return "member"
	}
	return "type"
}

// SelectAnchor finds the item for the symbol at offset. The first item whose
// active element location contains offset wins; otherwise item 0 is used,
// which covers queries issued from a call site. It returns -1 for an empty graph.
func SelectAnchor(g *Graph, offset int) (int, Level) {
	if g.Len() == 0 {
		return -1, TypeLevel
	}

	anchor := 0
	for i, item := range g.Items {
		element := item.Active()
		if element == nil || element.Location == nil {
			continue
		}
		if element.Location.Contains(offset) {
			anchor = i
			break
		}
	}

	if g.Items[anchor].Kind == MemberNode {
		return anchor, MemberLevel
	}
	return anchor, TypeLevel
}
