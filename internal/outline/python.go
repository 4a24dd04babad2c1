package outline

import (
	"strings"

	"github.com/morozRed/implscope/internal/hierarchy"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// PythonBuilder outlines Python source files
type PythonBuilder struct {
	tree *treeBuilder
}

// NewPythonBuilder creates a new Python outline builder
func NewPythonBuilder() *PythonBuilder {
	return &PythonBuilder{tree: newTreeBuilder(python.GetLanguage())}
}

func (p *PythonBuilder) Language() string {
	return "python"
}

func (p *PythonBuilder) Extensions() []string {
	return []string{".py", ".pyi"}
}

func (p *PythonBuilder) Build(path string, content []byte) (*Outline, error) {
	tree, err := p.tree.parse(content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	result := &Outline{Path: path, Language: "python"}
	result.Nodes = p.block(path, tree.RootNode(), content, "")
	return result, nil
}

func (p *PythonBuilder) block(path string, node *sitter.Node, content []byte, owner string) []*Node {
	out := make([]*Node, 0)
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		decl := child
		if child.Type() == "decorated_definition" {
			if inner := child.ChildByFieldName("definition"); inner != nil {
				decl = inner
			}
		}

		switch decl.Type() {
		case "class_definition":
			class := declNode(path, hierarchy.KindClass, child, decl.ChildByFieldName("name"), content)
			if class == nil {
				continue
			}
			class.Embeds = pythonBases(decl.ChildByFieldName("superclasses"), content)
			if body := decl.ChildByFieldName("body"); body != nil {
				class.Children = p.block(path, body, content, class.Name)
			}
			out = append(out, class)

		case "function_definition":
			kind := hierarchy.KindFunction
			if owner != "" {
				kind = hierarchy.KindMethod
			}
			fn := declNode(path, kind, child, decl.ChildByFieldName("name"), content)
			if fn == nil {
				continue
			}
			fn.Receiver = owner
			out = append(out, fn)
		}
	}
	return out
}

func pythonBases(args *sitter.Node, content []byte) []string {
	if args == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "identifier" || arg.Type() == "attribute" {
			out = append(out, strings.TrimSpace(arg.Content(content)))
		}
	}
	return out
}
