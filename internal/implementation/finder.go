package implementation

import (
	"context"
	"io"
	"log/slog"

	"github.com/morozRed/implscope/internal/hierarchy"
	"github.com/morozRed/implscope/internal/workspace"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel file acquisition when Finder.Concurrency is unset.
const DefaultConcurrency = 4

// DeclarationFinder snaps a cursor position to the declaration enclosing it.
type DeclarationFinder interface {
	NearestDeclaration(doc *workspace.Document, pos workspace.Position, wholeDeclaration bool) (*hierarchy.Element, bool)
}

// HierarchyService answers type hierarchy queries for a declaration offset.
type HierarchyService interface {
	QueryTypeHierarchy(ctx context.Context, file string, offset int) (*hierarchy.Graph, error)
}

// FileOpener loads the text of a file so offsets can become ranges.
type FileOpener interface {
	Open(ctx context.Context, path string) (*workspace.Document, error)
}

// Location is one resolved implementation site.
type Location struct {
	File  string          `json:"file"`
	Range workspace.Range `json:"range"`
}

// Finder computes implementation locations for a cursor position.
type Finder struct {
	Declarations DeclarationFinder
	Hierarchy    HierarchyService
	Files        FileOpener
	Logger       *slog.Logger
	// Concurrency caps simultaneous file opens. Zero means DefaultConcurrency.
	Concurrency int
}

// ComputeImplementationLocations resolves the symbol at pos in doc and returns
// the locations of its subtypes or overriding members in pre-order. The
// boolean is false when there is nothing to report: no hierarchy, a singleton
// hierarchy, or a cancelled context. Cancellation never yields partial output.
func (f *Finder) ComputeImplementationLocations(ctx context.Context, doc *workspace.Document, pos workspace.Position) ([]Location, bool) {
	logger := f.logger()
	if doc == nil {
		return nil, false
	}

	offset := f.AnchorOffset(doc, pos)
	graph, ok := f.fetchHierarchy(ctx, doc.Path, offset)
	if !ok {
		return nil, false
	}

	anchor, level := hierarchy.SelectAnchor(graph, offset)
	elements, stats := hierarchy.Descendants(graph, anchor, level)
	logger.Debug("collected descendants",
		"file", doc.Path,
		"offset", offset,
		"anchor", anchor,
		"level", level.String(),
		"items", graph.Len(),
		"elements", len(elements),
		"visited", stats.Visited,
	)
	if stats.OutOfRange > 0 || stats.CyclicEdges > 0 || stats.Truncated {
		logger.Warn("malformed type hierarchy",
			"file", doc.Path,
			"out_of_range", stats.OutOfRange,
			"cyclic_edges", stats.CyclicEdges,
			"truncated", stats.Truncated,
		)
	}

	return f.resolveLocations(ctx, elements)
}

// AnchorOffset is the offset sent to the hierarchy service for pos: the
// stored offset of the enclosing declaration, else the raw cursor offset.
func (f *Finder) AnchorOffset(doc *workspace.Document, pos workspace.Position) int {
	if f.Declarations != nil {
		element, ok := f.Declarations.NearestDeclaration(doc, pos, true)
		if ok && element != nil && element.Location != nil {
			return element.Location.Offset
		}
	}
	return doc.OffsetAt(pos)
}

func (f *Finder) fetchHierarchy(ctx context.Context, file string, offset int) (*hierarchy.Graph, bool) {
	if ctx.Err() != nil || f.Hierarchy == nil {
		return nil, false
	}
	graph, err := f.Hierarchy.QueryTypeHierarchy(ctx, file, offset)
	if ctx.Err() != nil {
		return nil, false
	}
	if err != nil {
		f.logger().Debug("type hierarchy query failed", "file", file, "offset", offset, "error", err)
		return nil, false
	}
	if graph.Len() <= 1 {
		return nil, false
	}
	return graph, true
}

// resolveLocations opens the file behind each element and converts its span
// to a range. Results keep the input order regardless of completion order.
func (f *Finder) resolveLocations(ctx context.Context, elements []hierarchy.Element) ([]Location, bool) {
	if f.Files == nil {
		return nil, false
	}
	slots := make([]*Location, len(elements))
	limit := f.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	stopped := false
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	for i := range elements {
		location := elements[i].Location
		if location == nil {
			continue
		}
		if ctx.Err() != nil {
			stopped = true
			break
		}
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			doc, err := f.Files.Open(groupCtx, location.File)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				f.logger().Debug("skipping unreadable implementation", "file", location.File, "error", err)
				return nil
			}
			slots[i] = &Location{
				File:  location.File,
				Range: doc.OffsetToRange(location.Offset, location.Length),
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil || stopped || ctx.Err() != nil {
		return nil, false
	}

	out := make([]Location, 0, len(elements))
	for _, slot := range slots {
		if slot != nil {
			out = append(out, *slot)
		}
	}
	return out, true
}

func (f *Finder) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return f.Logger
}
