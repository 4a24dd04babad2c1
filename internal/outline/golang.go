package outline

import (
	"strings"

	"github.com/morozRed/implscope/internal/hierarchy"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// GoBuilder outlines Go source files
type GoBuilder struct {
	tree *treeBuilder
}

// NewGoBuilder creates a new Go outline builder
func NewGoBuilder() *GoBuilder {
	return &GoBuilder{tree: newTreeBuilder(golang.GetLanguage())}
}

func (g *GoBuilder) Language() string {
	return "go"
}

func (g *GoBuilder) Extensions() []string {
	return []string{".go"}
}

func (g *GoBuilder) Build(path string, content []byte) (*Outline, error) {
	tree, err := g.tree.parse(content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	result := &Outline{Path: path, Language: "go", Nodes: make([]*Node, 0)}
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		result.Nodes = append(result.Nodes, g.declarations(path, root.NamedChild(i), content)...)
	}
	return result, nil
}

func (g *GoBuilder) declarations(path string, node *sitter.Node, content []byte) []*Node {
	switch node.Type() {
	case "function_declaration":
		if fn := declNode(path, hierarchy.KindFunction, node, node.ChildByFieldName("name"), content); fn != nil {
			return []*Node{fn}
		}

	case "method_declaration":
		method := declNode(path, hierarchy.KindMethod, node, node.ChildByFieldName("name"), content)
		if method != nil {
			method.Receiver = receiverTypeName(node.ChildByFieldName("receiver"), content)
			return []*Node{method}
		}

	case "type_declaration":
		specs := make([]*sitter.Node, 0)
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "type_spec" || child.Type() == "type_alias" {
				specs = append(specs, child)
			}
		}
		out := make([]*Node, 0, len(specs))
		for _, spec := range specs {
			// A lone spec owns the "type" keyword too.
			decl := spec
			if len(specs) == 1 {
				decl = node
			}
			if typ := g.typeSpec(path, decl, spec, content); typ != nil {
				out = append(out, typ)
			}
		}
		return out
	}
	return nil
}

func (g *GoBuilder) typeSpec(path string, decl, spec *sitter.Node, content []byte) *Node {
	typeNode := spec.ChildByFieldName("type")
	kind := hierarchy.KindType
	if typeNode != nil {
		switch typeNode.Type() {
		case "struct_type":
			kind = hierarchy.KindStruct
		case "interface_type":
			kind = hierarchy.KindInterface
		}
	}

	typ := declNode(path, kind, decl, spec.ChildByFieldName("name"), content)
	if typ == nil || typeNode == nil {
		return typ
	}

	switch kind {
	case hierarchy.KindInterface:
		g.interfaceMembers(path, typeNode, content, typ)
	case hierarchy.KindStruct:
		g.structFields(path, typeNode, content, typ)
	}
	return typ
}

func (g *GoBuilder) interfaceMembers(path string, iface *sitter.Node, content []byte, typ *Node) {
	for i := 0; i < int(iface.NamedChildCount()); i++ {
		child := iface.NamedChild(i)
		switch child.Type() {
		case "method_elem", "method_spec":
			if method := declNode(path, hierarchy.KindMethod, child, child.ChildByFieldName("name"), content); method != nil {
				method.Receiver = typ.Name
				typ.Children = append(typ.Children, method)
			}
		case "type_elem", "constraint_elem":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if name := embeddedTypeName(child.NamedChild(j), content); name != "" {
					typ.Embeds = append(typ.Embeds, name)
				}
			}
		case "type_identifier", "qualified_type":
			if name := embeddedTypeName(child, content); name != "" {
				typ.Embeds = append(typ.Embeds, name)
			}
		}
	}
}

func (g *GoBuilder) structFields(path string, structType *sitter.Node, content []byte, typ *Node) {
	for i := 0; i < int(structType.NamedChildCount()); i++ {
		list := structType.NamedChild(i)
		if list.Type() != "field_declaration_list" {
			continue
		}
		for j := 0; j < int(list.NamedChildCount()); j++ {
			field := list.NamedChild(j)
			if field.Type() != "field_declaration" {
				continue
			}
			named := false
			for k := 0; k < int(field.NamedChildCount()); k++ {
				nameNode := field.NamedChild(k)
				if nameNode.Type() != "field_identifier" {
					continue
				}
				named = true
				if child := declNode(path, hierarchy.KindField, field, nameNode, content); child != nil {
					typ.Children = append(typ.Children, child)
				}
			}
			if !named {
				if name := embeddedTypeName(field.ChildByFieldName("type"), content); name != "" {
					typ.Embeds = append(typ.Embeds, name)
				}
			}
		}
	}
}

func receiverTypeName(receiver *sitter.Node, content []byte) string {
	if receiver == nil {
		return ""
	}
	for i := 0; i < int(receiver.NamedChildCount()); i++ {
		param := receiver.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		return embeddedTypeName(param.ChildByFieldName("type"), content)
	}
	return ""
}

// embeddedTypeName strips pointers and type arguments: *pkg.Store[T] -> pkg.Store.
func embeddedTypeName(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "pointer_type":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if name := embeddedTypeName(node.NamedChild(i), content); name != "" {
				return name
			}
		}
		return ""
	case "generic_type":
		return embeddedTypeName(node.ChildByFieldName("type"), content)
	case "type_identifier", "qualified_type":
		return strings.TrimSpace(node.Content(content))
	}
	return ""
}
