package outline

import (
	"strings"

	"github.com/morozRed/implscope/internal/hierarchy"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TypeScriptBuilder outlines TypeScript and JavaScript source files
type TypeScriptBuilder struct {
	ts *treeBuilder
	js *treeBuilder
}

// NewTypeScriptBuilder creates a new TypeScript/JavaScript outline builder
func NewTypeScriptBuilder() *TypeScriptBuilder {
	return &TypeScriptBuilder{
		ts: newTreeBuilder(typescript.GetLanguage()),
		js: newTreeBuilder(javascript.GetLanguage()),
	}
}

func (t *TypeScriptBuilder) Language() string {
	return "typescript"
}

func (t *TypeScriptBuilder) Extensions() []string {
	return []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}
}

func (t *TypeScriptBuilder) Build(path string, content []byte) (*Outline, error) {
	b := t.ts
	lang := "typescript"
	if isJavaScriptFile(path) {
		b = t.js
		lang = "javascript"
	}

	tree, err := b.parse(content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	result := &Outline{Path: path, Language: lang, Nodes: make([]*Node, 0)}
	result.Nodes = t.collect(path, tree.RootNode(), content)
	return result, nil
}

func isJavaScriptFile(path string) bool {
	for _, ext := range []string{".js", ".jsx", ".mjs", ".cjs"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func (t *TypeScriptBuilder) collect(path string, node *sitter.Node, content []byte) []*Node {
	out := make([]*Node, 0)
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if decl := t.declaration(path, child, content); decl != nil {
			out = append(out, decl)
			continue
		}
		out = append(out, t.collect(path, child, content)...)
	}
	return out
}

func (t *TypeScriptBuilder) declaration(path string, node *sitter.Node, content []byte) *Node {
	name := node.ChildByFieldName("name")
	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		return declNode(path, hierarchy.KindFunction, node, name, content)

	case "class_declaration", "abstract_class_declaration", "class":
		class := declNode(path, hierarchy.KindClass, node, name, content)
		if class == nil {
			return nil
		}
		class.Embeds = heritageNames(node, content)
		if body := node.ChildByFieldName("body"); body != nil {
			class.Children = t.members(path, body, content, class.Name)
		}
		return class

	case "interface_declaration":
		iface := declNode(path, hierarchy.KindInterface, node, name, content)
		if iface == nil {
			return nil
		}
		iface.Embeds = heritageNames(node, content)
		if body := node.ChildByFieldName("body"); body != nil {
			iface.Children = t.members(path, body, content, iface.Name)
		}
		return iface

	case "type_alias_declaration":
		return declNode(path, hierarchy.KindType, node, name, content)
	}
	return nil
}

func (t *TypeScriptBuilder) members(path string, body *sitter.Node, content []byte, owner string) []*Node {
	out := make([]*Node, 0)
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		var node *Node
		switch member.Type() {
		case "method_definition", "method_signature", "abstract_method_signature":
			node = declNode(path, hierarchy.KindMethod, member, member.ChildByFieldName("name"), content)
		case "public_field_definition", "field_definition", "property_signature":
			nameNode := member.ChildByFieldName("name")
			if nameNode == nil {
				nameNode = member.ChildByFieldName("property")
			}
			node = declNode(path, hierarchy.KindField, member, nameNode, content)
		}
		if node != nil {
			node.Receiver = owner
			out = append(out, node)
		}
	}
	return out
}

// heritageNames collects the names after extends/implements clauses.
func heritageNames(node *sitter.Node, content []byte) []string {
	var out []string
	var visit func(n *sitter.Node, inHeritage bool)
	visit = func(n *sitter.Node, inHeritage bool) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "class_body", "interface_body", "object_type":
				continue
			case "class_heritage", "extends_clause", "implements_clause", "extends_type_clause":
				visit(child, true)
				continue
			}
			if inHeritage && (child.Type() == "identifier" || child.Type() == "type_identifier" || child.Type() == "member_expression" || child.Type() == "nested_type_identifier") {
				out = append(out, strings.TrimSpace(child.Content(content)))
				continue
			}
			if inHeritage {
				visit(child, true)
			}
		}
	}
	visit(node, false)
	return out
}
