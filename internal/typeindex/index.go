package typeindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/morozRed/implscope/internal/hierarchy"
	"github.com/morozRed/implscope/internal/ignore"
	"github.com/morozRed/implscope/internal/outline"
	"github.com/morozRed/implscope/internal/workspace"
)

// Options control which files the index reads.
type Options struct {
	// Include restricts indexing to files matching these doublestar globs.
	Include []string
	// Ignore holds gitignore-style rules applied on top of the defaults.
	Ignore []string
	Logger *slog.Logger
}

type typeDecl struct {
	pkg     string
	node    *outline.Node
	methods map[string]*outline.Node
}

func (t *typeDecl) key() string {
	return t.pkg + "." + t.node.Name
}

func (t *typeDecl) isInterface() bool {
	return t.node.Kind == hierarchy.KindInterface
}

func (t *typeDecl) element() *hierarchy.Element {
	element := t.node.Element
	return &element
}

// fileStamp identifies the version of a file the index was built from.
type fileStamp struct {
	modTime time.Time
	size    int64
	hash    string
}

// Index is a structural view of the Go types under a root directory.
type Index struct {
	root   string
	opts   Options
	types  map[string]*typeDecl
	order  []*typeDecl
	issues []string

	mu    sync.Mutex
	files map[string]fileStamp
}

var errStale = errors.New("index is stale")

// Build walks root, outlines every Go file and links receiver methods to
// their types.
func Build(ctx context.Context, root string, opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	builder := outline.NewGoBuilder()
	idx := &Index{
		root:  absRoot,
		opts:  opts,
		types: make(map[string]*typeDecl),
		files: make(map[string]fileStamp),
	}
	pendingMethods := make(map[string][]*outline.Node)

	err = walkGoFiles(ctx, absRoot, opts, &idx.issues, func(path, relPath string, info os.FileInfo) error {
		stamp := fileStamp{modTime: info.ModTime(), size: info.Size()}
		content, err := os.ReadFile(path)
		if err != nil {
			idx.files[path] = stamp
			idx.issues = append(idx.issues, fmt.Sprintf("%s: %v", relPath, err))
			return nil
		}
		stamp.hash = workspace.HashContent(content)
		idx.files[path] = stamp

		o, err := builder.Build(path, content)
		if err != nil {
			idx.issues = append(idx.issues, fmt.Sprintf("%s: %v", relPath, err))
			return nil
		}

		pkg := filepath.ToSlash(filepath.Dir(relPath))
		for _, node := range o.Nodes {
			switch node.Kind {
			case hierarchy.KindMethod:
				if node.Receiver == "" {
					continue
				}
				key := pkg + "." + node.Receiver
				pendingMethods[key] = append(pendingMethods[key], node)
			case hierarchy.KindInterface, hierarchy.KindStruct, hierarchy.KindType:
				decl := &typeDecl{pkg: pkg, node: node, methods: make(map[string]*outline.Node)}
				if decl.isInterface() {
					for _, method := range node.Children {
						decl.methods[method.Name] = method
					}
				}
				idx.types[decl.key()] = decl
				idx.order = append(idx.order, decl)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for key, methods := range pendingMethods {
		decl, ok := idx.types[key]
		if !ok || decl.isInterface() {
			continue
		}
		for _, method := range methods {
			decl.methods[method.Name] = method
		}
	}

	sort.Slice(idx.order, func(i, j int) bool {
		a, b := idx.order[i].node, idx.order[j].node
		if a.Element.Location.File != b.Element.Location.File {
			return a.Element.Location.File < b.Element.Location.File
		}
		return a.Offset < b.Offset
	})

	for _, issue := range idx.issues {
		logger.Debug("type index issue", "issue", issue)
	}
	logger.Debug("type index built", "root", absRoot, "types", len(idx.order))
	return idx, nil
}

// Stale reports whether a Go file was added, removed or edited since the
// index was built. Files whose stat changed are compared by content hash, so
// a touched but unchanged file does not count.
func (idx *Index) Stale(ctx context.Context) (bool, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	seen := 0
	err := walkGoFiles(ctx, idx.root, idx.opts, nil, func(path, relPath string, info os.FileInfo) error {
		stamp, ok := idx.files[path]
		if !ok {
			return errStale
		}
		seen++
		if stamp.modTime.Equal(info.ModTime()) && stamp.size == info.Size() {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil || workspace.HashContent(content) != stamp.hash {
			return errStale
		}
		idx.files[path] = fileStamp{modTime: info.ModTime(), size: info.Size(), hash: stamp.hash}
		return nil
	})
	if errors.Is(err, errStale) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return seen != len(idx.files), nil
}

// walkGoFiles calls fn for every Go file under root that passes the ignore
// rules and include globs. Walk problems are appended to issues when it is
// not nil.
func walkGoFiles(ctx context.Context, root string, opts Options, issues *[]string, fn func(path, relPath string, info os.FileInfo) error) error {
	matcher := ignore.NewMatcher(opts.Ignore)
	report := func(issue string) {
		if issues != nil {
			*issues = append(*issues, issue)
		}
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			report(fmt.Sprintf("walk error: %v", walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, _ := filepath.Rel(root, path)
		if matcher.ShouldIgnore(relPath, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != ".go" || !ignore.MatchAny(opts.Include, relPath) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			report(fmt.Sprintf("%s: %v", relPath, err))
			return nil
		}
		return fn(path, relPath, info)
	})
}

// Root returns the indexed directory.
func (idx *Index) Root() string {
	return idx.root
}

// TypeCount reports how many named types were indexed.
func (idx *Index) TypeCount() int {
	return len(idx.order)
}

// Issues lists files that could not be read or parsed.
func (idx *Index) Issues() []string {
	return append([]string(nil), idx.issues...)
}

// resolveEmbed finds the interface named by an embedded reference written in pkg.
func (idx *Index) resolveEmbed(pkg, ref string) *typeDecl {
	if !strings.Contains(ref, ".") {
		return idx.types[pkg+"."+ref]
	}
	qualifier, name := ref[:strings.LastIndex(ref, ".")], ref[strings.LastIndex(ref, ".")+1:]
	for _, decl := range idx.order {
		if decl.node.Name == name && filepath.Base(decl.pkg) == qualifier {
			return decl
		}
	}
	return nil
}

// methodSet returns the method names of an interface including embedded ones.
func (idx *Index) methodSet(decl *typeDecl) map[string]bool {
	set := make(map[string]bool)
	seen := make(map[*typeDecl]bool)
	var visit func(d *typeDecl)
	visit = func(d *typeDecl) {
		if d == nil || seen[d] || !d.isInterface() {
			return
		}
		seen[d] = true
		for name := range d.methods {
			set[name] = true
		}
		for _, ref := range d.node.Embeds {
			visit(idx.resolveEmbed(d.pkg, ref))
		}
	}
	visit(decl)
	return set
}

// implements reports whether concrete has every method of iface by name.
// Interfaces with an empty method set have no implementers.
func (idx *Index) implements(concrete, iface *typeDecl) bool {
	if concrete.isInterface() || !iface.isInterface() {
		return false
	}
	required := idx.methodSet(iface)
	if len(required) == 0 {
		return false
	}
	for name := range required {
		if _, ok := concrete.methods[name]; !ok {
			return false
		}
	}
	return true
}

func (idx *Index) embeds(outer, inner *typeDecl) bool {
	for _, ref := range outer.node.Embeds {
		if idx.resolveEmbed(outer.pkg, ref) == inner {
			return true
		}
	}
	return false
}

// children lists the direct subtypes of an interface: interfaces embedding it,
// then concrete types implementing it but none of those embedders.
func (idx *Index) children(decl *typeDecl) []*typeDecl {
	if !decl.isInterface() {
		return nil
	}
	embedders := make([]*typeDecl, 0)
	for _, candidate := range idx.order {
		if candidate != decl && candidate.isInterface() && idx.embeds(candidate, decl) {
			embedders = append(embedders, candidate)
		}
	}

	out := append([]*typeDecl(nil), embedders...)
	for _, candidate := range idx.order {
		if !idx.implements(candidate, decl) {
			continue
		}
		covered := false
		for _, embedder := range embedders {
			if idx.implements(candidate, embedder) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, candidate)
		}
	}
	return out
}

// supertypes lists the interfaces decl implements or embeds directly.
func (idx *Index) supertypes(decl *typeDecl) []*typeDecl {
	out := make([]*typeDecl, 0)
	for _, candidate := range idx.order {
		if candidate == decl || !candidate.isInterface() {
			continue
		}
		if decl.isInterface() {
			if idx.embeds(decl, candidate) {
				out = append(out, candidate)
			}
			continue
		}
		if idx.implements(decl, candidate) {
			out = append(out, candidate)
		}
	}
	return out
}
