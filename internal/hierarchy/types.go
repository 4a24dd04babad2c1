package hierarchy

// ElementKind classifies a program entity referenced by the hierarchy graph.
type ElementKind int

const (
	KindUnknown ElementKind = iota
	KindClass
	KindInterface
	KindStruct
	KindType
	KindMethod
	KindField
	KindFunction
)

func (k ElementKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindStruct:
		return "struct"
	case KindType:
		return "type"
	case KindMethod:
		return "method"
	case KindField:
		return "field"
	case KindFunction:
		return "func"
	default:
		return "unknown"
	}
}

// ParseElementKind maps the lower-case names produced by String and the
// upper-case names used by analysis servers (CLASS, METHOD, ...) to a kind.
func ParseElementKind(raw string) ElementKind {
	switch raw {
	case "class", "CLASS", "CLASS_TYPE_ALIAS", "MIXIN", "ENUM", "EXTENSION":
		return KindClass
	case "interface", "INTERFACE":
		return KindInterface
	case "struct", "STRUCT":
		return KindStruct
	case "type", "TYPE_ALIAS", "FUNCTION_TYPE_ALIAS", "TYPE":
		return KindType
	case "method", "METHOD", "GETTER", "SETTER", "CONSTRUCTOR":
		return KindMethod
	case "field", "FIELD", "ENUM_CONSTANT":
		return KindField
	case "func", "FUNC", "FUNCTION":
		return KindFunction
	default:
		return KindUnknown
	}
}

// SourceLocation is a range within a named file. Length may be zero.
type SourceLocation struct {
	File   string `json:"file"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// Contains reports whether offset lies within the location, inclusive on both ends.
func (l SourceLocation) Contains(offset int) bool {
	return l.Offset <= offset && offset <= l.Offset+l.Length
}

// Element is a type or member. Location is nil when no declaration site is known.
type Element struct {
	Kind     ElementKind
	Name     string
	Location *SourceLocation
}

// ItemKind tags a hierarchy item as a type node or a member node.
type ItemKind int

const (
	TypeNode ItemKind = iota
	MemberNode
)

func (k ItemKind) String() string {
	if k == MemberNode {
		return "member"
	}
	return "type"
}

// Item is one node of a hierarchy graph. Type holds the class element (for a
// MemberNode, the owning type, which may be nil). Member is set only for
// MemberNode. Subclasses are indices into the owning Graph.
type Item struct {
	Kind       ItemKind
	Type       *Element
	Member     *Element
	Subclasses []int
}

// NewTypeItem builds a TypeNode.
func NewTypeItem(element *Element, subclasses ...int) Item {
	return Item{Kind: TypeNode, Type: element, Subclasses: subclasses}
}

// NewMemberItem builds a MemberNode. A nil member degrades to a TypeNode so the
// tag always agrees with the payload.
func NewMemberItem(owner *Element, member *Element, subclasses ...int) Item {
	if member == nil {
		return NewTypeItem(owner, subclasses...)
	}
	return Item{Kind: MemberNode, Type: owner, Member: member, Subclasses: subclasses}
}

// Active returns the element that identifies the item: the member for a
// member node, the type otherwise.
func (it Item) Active() *Element {
	if it.Kind == MemberNode {
		return it.Member
	}
	return it.Type
}

// ElementFor returns the element a walk at the given level extracts from this item.
func (it Item) ElementFor(level Level) (*Element, bool) {
	switch level {
	case MemberLevel:
		if it.Kind != MemberNode || it.Member == nil {
			return nil, false
		}
		return it.Member, true
	default:
		if it.Type == nil {
			return nil, false
		}
		return it.Type, true
	}
}

// Graph is the ordered item sequence for one query. Item 0 is the originating
// query context.
type Graph struct {
	Items []Item
}

func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Items)
}

// At returns the item at index, or false when index is out of range.
func (g *Graph) At(index int) (Item, bool) {
	if g == nil || index < 0 || index >= len(g.Items) {
		return Item{}, false
	}
	return g.Items[index], true
}
