package outline

import (
	"reflect"
	"strings"
	"testing"

	"github.com/morozRed/implscope/internal/hierarchy"
	"github.com/morozRed/implscope/internal/workspace"
)

const goSource = `package demo

import "fmt"

type Shape interface {
	fmt.Stringer
	Named
	Area() float64
}

type Square struct {
	Base
	Side, Scale float64
}

func (s *Square) Area() float64 { return s.Side * s.Side }

func helper() {}
`

func mustBuild(t *testing.T, r *Registry, path, content string) *Outline {
	t.Helper()
	o, err := r.BuildFile(path, []byte(content))
	if err != nil {
		t.Fatalf("BuildFile(%s) failed: %v", path, err)
	}
	return o
}

func offsetOf(t *testing.T, content, needle string, delta int) int {
	t.Helper()
	idx := strings.Index(content, needle)
	if idx < 0 {
		t.Fatalf("needle %q not found", needle)
	}
	return idx + delta
}

func TestGoOutline(t *testing.T) {
	o := mustBuild(t, NewDefaultRegistry(), "/repo/demo.go", goSource)
	if o.Language != "go" {
		t.Fatalf("expected go outline, got %q", o.Language)
	}

	got := make([]string, 0)
	Walk(o, func(node *Node, depth int) {
		got = append(got, strings.Repeat(">", depth)+node.Kind.String()+":"+node.Name)
	})
	want := []string{
		"interface:Shape",
		">method:Area",
		"struct:Square",
		">field:Side",
		">field:Scale",
		"method:Area",
		"func:helper",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected outline:\n got %v\nwant %v", got, want)
	}

	shape := o.Nodes[0]
	if !reflect.DeepEqual(shape.Embeds, []string{"fmt.Stringer", "Named"}) {
		t.Fatalf("unexpected interface embeds: %#v", shape.Embeds)
	}
	if shape.Offset != strings.Index(goSource, "type Shape") {
		t.Fatalf("expected lone type spec to include the type keyword, got offset %d", shape.Offset)
	}
	if loc := shape.Element.Location; loc.Offset != strings.Index(goSource, "Shape") || loc.Length != len("Shape") {
		t.Fatalf("unexpected name span: %#v", loc)
	}

	square := o.Nodes[1]
	if !reflect.DeepEqual(square.Embeds, []string{"Base"}) {
		t.Fatalf("unexpected struct embeds: %#v", square.Embeds)
	}
	if method := o.Nodes[2]; method.Receiver != "Square" {
		t.Fatalf("expected receiver Square, got %q", method.Receiver)
	}
}

func TestFindNearest(t *testing.T) {
	o := mustBuild(t, NewDefaultRegistry(), "/repo/demo.go", goSource)

	node := FindNearest(o, offsetOf(t, goSource, "Area() float64\n}", 6), true)
	if node == nil || node.Name != "Area" || node.Receiver != "Shape" {
		t.Fatalf("expected interface method Area, got %#v", node)
	}

	node = FindNearest(o, offsetOf(t, goSource, "type Shape", 1), true)
	if node == nil || node.Name != "Shape" {
		t.Fatalf("expected type keyword to snap to Shape, got %#v", node)
	}

	node = FindNearest(o, offsetOf(t, goSource, "{ return s.Side", 3), true)
	if node == nil || node.Kind != hierarchy.KindMethod || node.Receiver != "Square" {
		t.Fatalf("expected body offset to snap to Square.Area, got %#v", node)
	}

	if node := FindNearest(o, offsetOf(t, goSource, "type Shape", 1), false); node != nil {
		t.Fatalf("expected name-span mode to miss the type keyword, got %#v", node)
	}
	node = FindNearest(o, offsetOf(t, goSource, "Shape interface", 2), false)
	if node == nil || node.Name != "Shape" {
		t.Fatalf("expected name-span mode to hit Shape, got %#v", node)
	}

	if node := FindNearest(o, offsetOf(t, goSource, "import", 0), true); node != nil {
		t.Fatalf("expected import to have no declaration, got %#v", node)
	}
}

func TestResolverNearestDeclaration(t *testing.T) {
	resolver := NewResolver(NewDefaultRegistry(), nil)
	doc := workspace.NewDocument("/repo/demo.go", []byte(goSource))

	pos := doc.PositionAt(offsetOf(t, goSource, "func helper", 2))
	element, ok := resolver.NearestDeclaration(doc, pos, true)
	if !ok {
		t.Fatalf("expected a declaration at %#v", pos)
	}
	if element.Name != "helper" || element.Location.Offset != strings.Index(goSource, "helper") {
		t.Fatalf("unexpected element: %#v", element)
	}

	readme := workspace.NewDocument("/repo/README.md", []byte("# demo\n"))
	if _, ok := resolver.NearestDeclaration(readme, workspace.Position{}, true); ok {
		t.Fatalf("expected unsupported file to produce no declaration")
	}
}

func TestTypeScriptOutline(t *testing.T) {
	source := `export interface Animal extends Named {
  name: string;
  speak(): string;
}

export abstract class Base implements Animal {
  name = "base";
  abstract speak(): string;
}

class Dog extends Base {
  speak() { return "woof"; }
}

function make(): Animal { return new Dog(); }
`
	o := mustBuild(t, NewDefaultRegistry(), "/repo/zoo.ts", source)

	got := make([]string, 0)
	Walk(o, func(node *Node, depth int) {
		got = append(got, strings.Repeat(">", depth)+node.Kind.String()+":"+node.Name)
	})
	want := []string{
		"interface:Animal",
		">field:name",
		">method:speak",
		"class:Base",
		">field:name",
		">method:speak",
		"class:Dog",
		">method:speak",
		"func:make",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected outline:\n got %v\nwant %v", got, want)
	}

	dog := o.Nodes[2]
	if !reflect.DeepEqual(dog.Embeds, []string{"Base"}) {
		t.Fatalf("unexpected heritage for Dog: %#v", dog.Embeds)
	}
	node := FindNearest(o, offsetOf(t, source, `return "woof"`, 2), true)
	if node == nil || node.Receiver != "Dog" || node.Name != "speak" {
		t.Fatalf("expected Dog.speak, got %#v", node)
	}
}

func TestPythonOutline(t *testing.T) {
	source := `class Animal:
    def speak(self):
        raise NotImplementedError


class Dog(Animal):
    @property
    def name(self):
        return "dog"

    def speak(self):
        return "woof"


def make():
    return Dog()
`
	o := mustBuild(t, NewDefaultRegistry(), "/repo/zoo.py", source)

	got := make([]string, 0)
	Walk(o, func(node *Node, depth int) {
		got = append(got, strings.Repeat(">", depth)+node.Kind.String()+":"+node.Name)
	})
	want := []string{
		"class:Animal",
		">method:speak",
		"class:Dog",
		">method:name",
		">method:speak",
		"func:make",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected outline:\n got %v\nwant %v", got, want)
	}
	if !reflect.DeepEqual(o.Nodes[1].Embeds, []string{"Animal"}) {
		t.Fatalf("unexpected bases: %#v", o.Nodes[1].Embeds)
	}
}

func TestRegistryBuilderForFile(t *testing.T) {
	r := NewDefaultRegistry()
	if b, ok := r.BuilderForFile("web/app.TSX", nil); !ok || b.Language() != "typescript" {
		t.Fatalf("expected tsx to map to typescript builder")
	}
	if b, ok := r.BuilderForFile("lib/tool.py", nil); !ok || b.Language() != "python" {
		t.Fatalf("expected py to map to python builder")
	}
	if _, ok := r.BuilderForFile("notes/README.md", []byte("# notes\n")); ok {
		t.Fatalf("expected markdown to be unsupported")
	}
}
