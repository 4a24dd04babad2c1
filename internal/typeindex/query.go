package typeindex

import (
	"context"
	"path/filepath"

	"github.com/morozRed/implscope/internal/hierarchy"
	"github.com/morozRed/implscope/internal/outline"
)

type target struct {
	decl   *typeDecl
	member string
}

// locate finds the innermost declaration in file covering offset: a method
// (interface method or receiver method) beats the type enclosing it.
func (idx *Index) locate(file string, offset int) (target, bool) {
	var best target
	bestLen := -1
	consider := func(decl *typeDecl, node *outline.Node, member string) {
		if node.Element.Location == nil || node.Element.Location.File != file {
			return
		}
		if offset < node.Offset || offset > node.End() {
			return
		}
		if bestLen < 0 || node.Length < bestLen {
			best = target{decl: decl, member: member}
			bestLen = node.Length
		}
	}

	for _, decl := range idx.order {
		consider(decl, decl.node, "")
		for name, method := range decl.methods {
			consider(decl, method, name)
		}
	}
	return best, bestLen >= 0
}

// QueryTypeHierarchy returns the structural hierarchy around the declaration
// at (file, offset). Item 0 is the queried type, or the owner of the queried
// method as a member node. Subtypes follow breadth-first; supertypes are
// appended last with edges back to item 0. A position without a declaration
// yields a nil graph.
func (idx *Index) QueryTypeHierarchy(ctx context.Context, file string, offset int) (*hierarchy.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(idx.root, file)
	}
	found, ok := idx.locate(filepath.Clean(file), offset)
	if !ok {
		return nil, nil
	}

	b := &graphBuilder{idx: idx, member: found.member, indexOf: make(map[*typeDecl]int)}
	b.add(found.decl)
	for queue := []*typeDecl{found.decl}; len(queue) > 0; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]
		parent := b.indexOf[current]
		for _, child := range idx.children(current) {
			i, added := b.addOrGet(child)
			b.graph.Items[parent].Subclasses = append(b.graph.Items[parent].Subclasses, i)
			if added {
				queue = append(queue, child)
			}
		}
	}

	for _, super := range idx.supertypes(found.decl) {
		if _, exists := b.indexOf[super]; exists {
			continue
		}
		i, _ := b.addOrGet(super)
		b.graph.Items[i].Subclasses = append(b.graph.Items[i].Subclasses, 0)
	}
	return &b.graph, nil
}

type graphBuilder struct {
	idx     *Index
	member  string
	indexOf map[*typeDecl]int
	graph   hierarchy.Graph
}

func (b *graphBuilder) add(decl *typeDecl) int {
	i := len(b.graph.Items)
	b.indexOf[decl] = i
	b.graph.Items = append(b.graph.Items, b.item(decl))
	return i
}

func (b *graphBuilder) addOrGet(decl *typeDecl) (int, bool) {
	if i, ok := b.indexOf[decl]; ok {
		return i, false
	}
	return b.add(decl), true
}

func (b *graphBuilder) item(decl *typeDecl) hierarchy.Item {
	if b.member == "" {
		return hierarchy.NewTypeItem(decl.element())
	}
	method, ok := decl.methods[b.member]
	if !ok {
		return hierarchy.NewTypeItem(decl.element())
	}
	member := method.Element
	return hierarchy.NewMemberItem(decl.element(), &member)
}
