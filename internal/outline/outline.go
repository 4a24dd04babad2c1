package outline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-enry/go-enry/v2"
	"github.com/morozRed/implscope/internal/hierarchy"
	"github.com/morozRed/implscope/internal/workspace"
	sitter "github.com/smacker/go-tree-sitter"
)

// Node is one declaration in a file outline. Offset and Length span the whole
// declaration; Element.Location spans the declared name.
type Node struct {
	Kind     hierarchy.ElementKind
	Name     string
	Offset   int
	Length   int
	Element  hierarchy.Element
	Children []*Node

	// Receiver is the receiver type name of a Go method declaration.
	Receiver string
	// Embeds lists embedded interface or base type names, as written.
	Embeds []string
}

// End returns the offset just past the declaration.
func (n *Node) End() int {
	return n.Offset + n.Length
}

// Outline holds the top-level declarations of one file.
type Outline struct {
	Path     string
	Language string
	Nodes    []*Node
}

// Builder produces outlines for one language family.
type Builder interface {
	// Language returns the language name (e.g., "go", "python")
	Language() string

	// Extensions returns file extensions this builder handles
	Extensions() []string

	// Build extracts the declaration outline from source code
	Build(path string, content []byte) (*Outline, error)
}

var enryLanguages = map[string]string{
	"Go":         "go",
	"TypeScript": "typescript",
	"TSX":        "typescript",
	"JavaScript": "typescript",
	"Python":     "python",
}

// Registry maps files to outline builders.
type Registry struct {
	builders  map[string]Builder
	extToLang map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders:  make(map[string]Builder),
		extToLang: make(map[string]string),
	}
}

// NewDefaultRegistry registers every built-in language.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewGoBuilder())
	r.Register(NewTypeScriptBuilder())
	r.Register(NewPythonBuilder())
	return r
}

// Register adds a builder, taking over its extensions.
func (r *Registry) Register(b Builder) {
	lang := b.Language()
	r.builders[lang] = b
	for _, ext := range b.Extensions() {
		r.extToLang[strings.ToLower(ext)] = lang
	}
}

// Languages lists the registered language names.
func (r *Registry) Languages() []string {
	out := make([]string, 0, len(r.builders))
	for lang := range r.builders {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// BuilderForFile picks a builder by extension, then by enry detection over the
// content for files with unfamiliar extensions.
func (r *Registry) BuilderForFile(path string, content []byte) (Builder, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := r.extToLang[ext]; ok {
		b, ok := r.builders[lang]
		return b, ok
	}

	detected := enry.GetLanguage(filepath.Base(path), content)
	lang, ok := enryLanguages[detected]
	if !ok {
		return nil, false
	}
	b, ok := r.builders[lang]
	return b, ok
}

// BuildFile outlines content with the matching builder.
func (r *Registry) BuildFile(path string, content []byte) (*Outline, error) {
	b, ok := r.BuilderForFile(path, content)
	if !ok {
		return nil, fmt.Errorf("no outline support for %s", path)
	}
	return b.Build(path, content)
}

// FindNearest returns the deepest node containing offset. With
// wholeDeclaration the full declaration range is used, otherwise only the
// name span. Both bounds are inclusive.
func FindNearest(o *Outline, offset int, wholeDeclaration bool) *Node {
	if o == nil {
		return nil
	}
	return findIn(o.Nodes, offset, wholeDeclaration)
}

func findIn(nodes []*Node, offset int, wholeDeclaration bool) *Node {
	for _, node := range nodes {
		if deeper := findIn(node.Children, offset, wholeDeclaration); deeper != nil {
			return deeper
		}
		if nodeContains(node, offset, wholeDeclaration) {
			return node
		}
	}
	return nil
}

func nodeContains(node *Node, offset int, wholeDeclaration bool) bool {
	if wholeDeclaration {
		return node.Offset <= offset && offset <= node.End()
	}
	return node.Element.Location != nil && node.Element.Location.Contains(offset)
}

// Walk visits nodes depth-first with their nesting depth.
func Walk(o *Outline, fn func(node *Node, depth int)) {
	if o == nil {
		return
	}
	var visit func(nodes []*Node, depth int)
	visit = func(nodes []*Node, depth int) {
		for _, node := range nodes {
			fn(node, depth)
			visit(node.Children, depth+1)
		}
	}
	visit(o.Nodes, 0)
}

// Resolver snaps a cursor to the nearest declaration of an open document.
type Resolver struct {
	registry *Registry
	logger   *slog.Logger
}

// NewResolver wraps registry. A nil logger discards output.
func NewResolver(registry *Registry, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{registry: registry, logger: logger}
}

// NearestDeclaration returns the element declared by the deepest outline node
// covering pos in doc.
func (r *Resolver) NearestDeclaration(doc *workspace.Document, pos workspace.Position, wholeDeclaration bool) (*hierarchy.Element, bool) {
	if doc == nil {
		return nil, false
	}
	o, err := r.registry.BuildFile(doc.Path, doc.Content())
	if err != nil {
		r.logger.Debug("outline unavailable", "file", doc.Path, "error", err)
		return nil, false
	}
	node := FindNearest(o, doc.OffsetAt(pos), wholeDeclaration)
	if node == nil || node.Element.Location == nil {
		return nil, false
	}
	element := node.Element
	return &element, true
}

// treeBuilder serializes access to a tree-sitter parser, which is not safe
// for concurrent use.
type treeBuilder struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

func newTreeBuilder(lang *sitter.Language) *treeBuilder {
	p := sitter.NewParser()
	p.SetLanguage(lang)
	return &treeBuilder{parser: p}
}

func (b *treeBuilder) parse(content []byte) (*sitter.Tree, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.parser.ParseCtx(context.Background(), nil, content)
}

func declNode(path string, kind hierarchy.ElementKind, decl, name *sitter.Node, content []byte) *Node {
	if decl == nil || name == nil {
		return nil
	}
	nameText := strings.TrimSpace(name.Content(content))
	if nameText == "" {
		return nil
	}
	start := int(decl.StartByte())
	return &Node{
		Kind:   kind,
		Name:   nameText,
		Offset: start,
		Length: int(decl.EndByte()) - start,
		Element: hierarchy.Element{
			Kind: kind,
			Name: nameText,
			Location: &hierarchy.SourceLocation{
				File:   path,
				Offset: int(name.StartByte()),
				Length: int(name.EndByte() - name.StartByte()),
			},
		},
	}
}
