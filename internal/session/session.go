package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/morozRed/implscope/internal/config"
	"github.com/morozRed/implscope/internal/hierarchy"
	"github.com/morozRed/implscope/internal/ignore"
	"github.com/morozRed/implscope/internal/implementation"
	"github.com/morozRed/implscope/internal/lsp"
	"github.com/morozRed/implscope/internal/outline"
	"github.com/morozRed/implscope/internal/typeindex"
	"github.com/morozRed/implscope/internal/workspace"
)

// Query addresses a cursor in a file, either by 1-based line and column or
// by byte offset when HasOffset is set.
type Query struct {
	File      string `json:"file"`
	Line      int    `json:"line,omitempty"`
	Column    int    `json:"column,omitempty"`
	Offset    int    `json:"offset,omitempty"`
	HasOffset bool   `json:"-"`
}

// Result is an implementation location with the file relative to the root.
type Result struct {
	File  string          `json:"file"`
	Range workspace.Range `json:"range"`
}

// String renders the 1-based form file:line:col-line:col.
func (r Result) String() string {
	return fmt.Sprintf("%s:%d:%d-%d:%d",
		r.File,
		r.Range.Start.Line+1, r.Range.Start.Character+1,
		r.Range.End.Line+1, r.Range.End.Character+1,
	)
}

// HierarchyReport is the raw graph a query produced with the anchor it selected.
type HierarchyReport struct {
	File   string           `json:"file"`
	Offset int              `json:"offset"`
	Anchor int              `json:"anchor"`
	Level  string           `json:"level"`
	Graph  *hierarchy.Graph `json:"-"`
}

// Session binds a workspace root to a hierarchy backend and a file cache.
type Session struct {
	Root     string
	Config   *config.Config
	Files    *workspace.FileCache
	Outlines *outline.Registry
	Backend  implementation.HierarchyService

	finder *implementation.Finder
}

// Open prepares a session for root. The local backend indexes the workspace
// up front and reindexes before a query when Go files changed; the command
// backend defers all work to query time.
func Open(ctx context.Context, root string, cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	registry := outline.NewDefaultRegistry()
	files := workspace.NewFileCache(absRoot)

	var backend implementation.HierarchyService
	switch cfg.Backend {
	case config.BackendCommand:
		client := lsp.NewHierarchyClient(absRoot, cfg.Command)
		client.Encoding = cfg.OffsetEncoding
		client.Files = files
		backend = client
	default:
		rules, err := ignore.LoadRules(absRoot)
		if err != nil {
			return nil, err
		}
		live := &liveIndex{
			root: absRoot,
			opts: typeindex.Options{
				Include: cfg.Include,
				Ignore:  append(rules, cfg.Ignore...),
				Logger:  logger,
			},
			logger: logger,
		}
		if err := live.rebuild(ctx); err != nil {
			return nil, err
		}
		backend = live
	}

	s := &Session{
		Root:     absRoot,
		Config:   cfg,
		Files:    files,
		Outlines: registry,
		Backend:  backend,
	}
	s.finder = &implementation.Finder{
		Declarations: outline.NewResolver(registry, logger),
		Hierarchy:    backend,
		Files:        files,
		Logger:       logger,
		Concurrency:  cfg.Concurrency,
	}
	return s, nil
}

// Locate opens the queried file and converts the query to a position.
func (s *Session) Locate(ctx context.Context, q Query) (*workspace.Document, workspace.Position, error) {
	if strings.TrimSpace(q.File) == "" {
		return nil, workspace.Position{}, errors.New("file is required")
	}
	doc, err := s.Files.Open(ctx, q.File)
	if err != nil {
		return nil, workspace.Position{}, err
	}
	if q.HasOffset {
		if q.Offset < 0 || q.Offset > doc.Len() {
			return nil, workspace.Position{}, fmt.Errorf("offset %d out of range (file has %d bytes)", q.Offset, doc.Len())
		}
		return doc, doc.PositionAt(q.Offset), nil
	}
	if q.Line <= 0 {
		return nil, workspace.Position{}, errors.New("line must be > 0")
	}
	if q.Line > doc.LineCount() {
		return nil, workspace.Position{}, fmt.Errorf("line %d out of range (file has %d lines)", q.Line, doc.LineCount())
	}
	column := q.Column
	if column <= 0 {
		column = 1
	}
	return doc, workspace.Position{Line: q.Line - 1, Character: column - 1}, nil
}

// Implementations lists implementation sites for the query. The boolean is
// false when there is nothing to report. Errors are reserved for bad input.
func (s *Session) Implementations(ctx context.Context, q Query) ([]Result, bool, error) {
	doc, pos, err := s.Locate(ctx, q)
	if err != nil {
		return nil, false, err
	}
	locations, ok := s.finder.ComputeImplementationLocations(ctx, doc, pos)
	if !ok {
		return nil, false, nil
	}
	results := make([]Result, 0, len(locations))
	for _, location := range locations {
		results = append(results, Result{File: s.Rel(location.File), Range: location.Range})
	}
	return results, true, nil
}

// Hierarchy returns the raw graph for the query, without walking it.
func (s *Session) Hierarchy(ctx context.Context, q Query) (*HierarchyReport, error) {
	doc, pos, err := s.Locate(ctx, q)
	if err != nil {
		return nil, err
	}
	offset := s.finder.AnchorOffset(doc, pos)
	graph, err := s.Backend.QueryTypeHierarchy(ctx, doc.Path, offset)
	if err != nil {
		return nil, err
	}
	report := &HierarchyReport{File: s.Rel(doc.Path), Offset: offset, Anchor: -1, Graph: graph}
	if graph.Len() > 0 {
		anchor, level := hierarchy.SelectAnchor(graph, offset)
		report.Anchor = anchor
		report.Level = level.String()
	}
	return report, nil
}

// Rel returns path relative to the root in slash form, or path itself when
// it lies outside the root.
func (s *Session) Rel(path string) string {
	rel, err := filepath.Rel(s.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// liveIndex serves hierarchy queries from the local type index, rebuilding it
// first when a Go file under the root was added, removed or edited.
type liveIndex struct {
	root   string
	opts   typeindex.Options
	logger *slog.Logger

	mu    sync.Mutex
	index *typeindex.Index
}

func (l *liveIndex) QueryTypeHierarchy(ctx context.Context, file string, offset int) (*hierarchy.Graph, error) {
	idx, err := l.current(ctx)
	if err != nil {
		return nil, err
	}
	return idx.QueryTypeHierarchy(ctx, file, offset)
}

func (l *liveIndex) current(ctx context.Context) (*typeindex.Index, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stale, err := l.index.Stale(ctx)
	if err != nil {
		return nil, err
	}
	if stale {
		l.logger.Debug("workspace changed, rebuilding type index", "root", l.root)
		if err := l.rebuildLocked(ctx); err != nil {
			return nil, err
		}
	}
	return l.index, nil
}

func (l *liveIndex) rebuild(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rebuildLocked(ctx)
}

func (l *liveIndex) rebuildLocked(ctx context.Context) error {
	idx, err := typeindex.Build(ctx, l.root, l.opts)
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", l.root, err)
	}
	l.index = idx
	return nil
}
