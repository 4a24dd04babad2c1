package implementation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/morozRed/implscope/internal/hierarchy"
	"github.com/morozRed/implscope/internal/outline"
	"github.com/morozRed/implscope/internal/typeindex"
	"github.com/morozRed/implscope/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeclarations struct {
	element *hierarchy.Element
}

func (f fakeDeclarations) NearestDeclaration(*workspace.Document, workspace.Position, bool) (*hierarchy.Element, bool) {
	return f.element, f.element != nil
}

type fakeHierarchy struct {
	graph   *hierarchy.Graph
	err     error
	after   func()
	offsets []int
}

func (f *fakeHierarchy) QueryTypeHierarchy(_ context.Context, _ string, offset int) (*hierarchy.Graph, error) {
	f.offsets = append(f.offsets, offset)
	if f.after != nil {
		f.after()
	}
	return f.graph, f.err
}

type fakeFiles struct {
	mu      sync.Mutex
	content map[string]string
	delay   map[string]time.Duration
	opens   atomic.Int32
	order   []string
	onOpen  func()
}

func (f *fakeFiles) Open(ctx context.Context, path string) (*workspace.Document, error) {
	f.opens.Add(1)
	if f.onOpen != nil {
		f.onOpen()
	}
	if d := f.delay[path]; d > 0 {
		time.Sleep(d)
	}
	f.mu.Lock()
	f.order = append(f.order, path)
	f.mu.Unlock()
	text, ok := f.content[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return workspace.NewDocument(path, []byte(text)), nil
}

func element(name, file string, offset, length int) *hierarchy.Element {
	return &hierarchy.Element{
		Kind:     hierarchy.KindClass,
		Name:     name,
		Location: &hierarchy.SourceLocation{File: file, Offset: offset, Length: length},
	}
}

func files(locations []Location) []string {
	out := make([]string, 0, len(locations))
	for _, loc := range locations {
		out = append(out, loc.File)
	}
	return out
}

// C -> [S1, S2], S1 -> [S3]
func treeGraph() *hierarchy.Graph {
	return &hierarchy.Graph{Items: []hierarchy.Item{
		hierarchy.NewTypeItem(element("C", "c.go", 10, 1), 1, 2),
		hierarchy.NewTypeItem(element("S1", "s1.go", 0, 2), 3),
		hierarchy.NewTypeItem(element("S2", "s2.go", 0, 2)),
		hierarchy.NewTypeItem(element("S3", "s3.go", 0, 2)),
	}}
}

func allFiles() *fakeFiles {
	return &fakeFiles{content: map[string]string{
		"c.go":  "0123456789C\n",
		"s1.go": "S1\n",
		"s2.go": "S2\n",
		"s3.go": "S3\n",
	}}
}

func TestSingletonHierarchyHasNoResult(t *testing.T) {
	graph := &hierarchy.Graph{Items: []hierarchy.Item{hierarchy.NewTypeItem(element("C", "c.go", 0, 1))}}
	opener := allFiles()
	finder := &Finder{Hierarchy: &fakeHierarchy{graph: graph}, Files: opener}

	locations, ok := finder.ComputeImplementationLocations(context.Background(), workspace.NewDocument("c.go", []byte("C")), workspace.Position{})
	assert.False(t, ok)
	assert.Nil(t, locations)
	assert.Zero(t, opener.opens.Load())
}

func TestMissingOrFailedHierarchyHasNoResult(t *testing.T) {
	doc := workspace.NewDocument("c.go", []byte("C"))
	for name, service := range map[string]*fakeHierarchy{
		"nil graph":   {},
		"empty graph": {graph: &hierarchy.Graph{}},
		"error":       {graph: treeGraph(), err: errors.New("backend down")},
	} {
		t.Run(name, func(t *testing.T) {
			finder := &Finder{Hierarchy: service, Files: allFiles()}
			_, ok := finder.ComputeImplementationLocations(context.Background(), doc, workspace.Position{})
			assert.False(t, ok)
		})
	}
}

func TestPreOrderLocations(t *testing.T) {
	doc := workspace.NewDocument("c.go", []byte("0123456789C\n"))
	finder := &Finder{
		Declarations: fakeDeclarations{element: element("C", "c.go", 10, 1)},
		Hierarchy:    &fakeHierarchy{graph: treeGraph()},
		Files:        allFiles(),
	}

	locations, ok := finder.ComputeImplementationLocations(context.Background(), doc, workspace.Position{})
	require.True(t, ok)
	assert.Equal(t, []string{"s1.go", "s3.go", "s2.go"}, files(locations))
	assert.Equal(t, workspace.Range{
		Start: workspace.Position{Line: 0, Character: 0},
		End:   workspace.Position{Line: 0, Character: 2},
	}, locations[0].Range)
}

func TestOrderSurvivesConcurrentAcquisition(t *testing.T) {
	opener := allFiles()
	opener.delay = map[string]time.Duration{"s1.go": 30 * time.Millisecond, "s3.go": 15 * time.Millisecond}
	finder := &Finder{
		Hierarchy:   &fakeHierarchy{graph: treeGraph()},
		Files:       opener,
		Concurrency: 3,
	}

	locations, ok := finder.ComputeImplementationLocations(context.Background(), workspace.NewDocument("c.go", []byte("0123456789C\n")), workspace.Position{Character: 10})
	require.True(t, ok)
	assert.Equal(t, []string{"s1.go", "s3.go", "s2.go"}, files(locations))
	assert.Equal(t, int32(3), opener.opens.Load())
}

func TestCancellationAfterHierarchyCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	opener := allFiles()
	finder := &Finder{
		Hierarchy: &fakeHierarchy{graph: treeGraph(), after: cancel},
		Files:     opener,
	}

	locations, ok := finder.ComputeImplementationLocations(ctx, workspace.NewDocument("c.go", []byte("C")), workspace.Position{})
	assert.False(t, ok)
	assert.Nil(t, locations)
	assert.Zero(t, opener.opens.Load())
}

func TestCancellationDuringAcquisition(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	opener := allFiles()
	opener.onOpen = cancel
	finder := &Finder{
		Hierarchy:   &fakeHierarchy{graph: treeGraph()},
		Files:       opener,
		Concurrency: 1,
	}

	locations, ok := finder.ComputeImplementationLocations(ctx, workspace.NewDocument("c.go", []byte("C")), workspace.Position{})
	assert.False(t, ok)
	assert.Nil(t, locations)
	assert.Equal(t, int32(1), opener.opens.Load(), "no acquisition starts after cancellation")
}

func TestCancellationBeforeHierarchyCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	service := &fakeHierarchy{graph: treeGraph()}
	finder := &Finder{Hierarchy: service, Files: allFiles()}

	_, ok := finder.ComputeImplementationLocations(ctx, workspace.NewDocument("c.go", []byte("C")), workspace.Position{})
	assert.False(t, ok)
	assert.Empty(t, service.offsets)
}

func TestUnlocatableElementsAreSkipped(t *testing.T) {
	graph := treeGraph()
	graph.Items[2].Type.Location = nil
	graph.Items[3].Type.Location.File = "missing.go"
	finder := &Finder{Hierarchy: &fakeHierarchy{graph: graph}, Files: allFiles()}

	locations, ok := finder.ComputeImplementationLocations(context.Background(), workspace.NewDocument("c.go", []byte("C")), workspace.Position{})
	require.True(t, ok)
	assert.Equal(t, []string{"s1.go"}, files(locations))
}

func TestSharedDescendantIsReportedPerPath(t *testing.T) {
	graph := &hierarchy.Graph{Items: []hierarchy.Item{
		hierarchy.NewTypeItem(element("C", "c.go", 10, 1), 1, 2),
		hierarchy.NewTypeItem(element("A", "s1.go", 0, 1), 3),
		hierarchy.NewTypeItem(element("B", "s2.go", 0, 1), 3),
		hierarchy.NewTypeItem(element("D", "s3.go", 0, 1)),
	}}
	finder := &Finder{Hierarchy: &fakeHierarchy{graph: graph}, Files: allFiles()}

	locations, ok := finder.ComputeImplementationLocations(context.Background(), workspace.NewDocument("c.go", []byte("C")), workspace.Position{})
	require.True(t, ok)
	assert.Equal(t, []string{"s1.go", "s3.go", "s2.go", "s3.go"}, files(locations))
}

func TestFallsBackToCursorOffset(t *testing.T) {
	service := &fakeHierarchy{graph: treeGraph()}
	finder := &Finder{Declarations: fakeDeclarations{}, Hierarchy: service, Files: allFiles()}
	doc := workspace.NewDocument("c.go", []byte("line one\nline two\n"))

	_, ok := finder.ComputeImplementationLocations(context.Background(), doc, workspace.Position{Line: 1, Character: 5})
	require.True(t, ok)
	assert.Equal(t, []int{14}, service.offsets)
}

func TestFindsInterfaceImplementationsEndToEnd(t *testing.T) {
	root := t.TempDir()
	source := `package store

type Store interface {
	Get(key string) (string, error)
}

type memory struct{}

func (memory) Get(key string) (string, error) { return "", nil }
`
	diskSource := `package store

type disk struct{ dir string }

func (d *disk) Get(key string) (string, error) { return d.dir, nil }
`
	mustWriteFile(t, filepath.Join(root, "store", "store.go"), source)
	mustWriteFile(t, filepath.Join(root, "store", "disk.go"), diskSource)

	idx, err := typeindex.Build(context.Background(), root, typeindex.Options{})
	require.NoError(t, err)
	cache := workspace.NewFileCache(root)
	finder := &Finder{
		Declarations: outline.NewResolver(outline.NewDefaultRegistry(), nil),
		Hierarchy:    idx,
		Files:        cache,
	}

	doc, err := cache.Open(context.Background(), filepath.Join(root, "store", "store.go"))
	require.NoError(t, err)

	// cursor inside the interface method signature
	pos := doc.PositionAt(strings.Index(source, "key string) (string, error)\n}"))
	locations, ok := finder.ComputeImplementationLocations(context.Background(), doc, pos)
	require.True(t, ok)
	require.Len(t, locations, 2)

	assert.Equal(t, filepath.Join(root, "store", "disk.go"), locations[0].File)
	assert.Equal(t, 4, locations[0].Range.Start.Line)
	assert.Equal(t, filepath.Join(root, "store", "store.go"), locations[1].File)
	assert.Equal(t, 8, locations[1].Range.Start.Line)
	assert.Equal(t, strings.Index("func (memory) Get", "Get"), locations[1].Range.Start.Character)

	// cursor on the type name lists the implementing types
	pos = doc.PositionAt(strings.Index(source, "Store interface"))
	locations, ok = finder.ComputeImplementationLocations(context.Background(), doc, pos)
	require.True(t, ok)
	require.Len(t, locations, 2)
	assert.Equal(t, 2, locations[0].Range.Start.Line)
	assert.Equal(t, 6, locations[1].Range.Start.Line)
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
