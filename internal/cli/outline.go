package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/morozRed/implscope/internal/fileutil"
	"github.com/morozRed/implscope/internal/outline"
	"github.com/morozRed/implscope/internal/workspace"
	"github.com/spf13/cobra"
)

type OutlineEntry struct {
	Kind     string         `json:"kind"`
	Name     string         `json:"name"`
	Line     int            `json:"line"`
	Column   int            `json:"column"`
	EndLine  int            `json:"end_line"`
	Receiver string         `json:"receiver,omitempty"`
	Embeds   []string       `json:"embeds,omitempty"`
	Children []OutlineEntry `json:"children,omitempty"`
}

func RunOutline(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(cmd)
	if err != nil {
		return err
	}
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}

	doc, err := workspace.NewFileCache(rootPath).Open(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	o, err := outline.NewDefaultRegistry().BuildFile(doc.Path, doc.Content())
	if err != nil {
		return err
	}

	if format == FormatJSON {
		return fileutil.PrintJSON(os.Stdout, outlineEntries(doc, o.Nodes))
	}

	fmt.Printf("outline: %s (%s)\n", args[0], o.Language)
	outline.Walk(o, func(node *outline.Node, depth int) {
		pos := doc.PositionAt(nameOffset(node))
		fmt.Printf("%s%s %s %d:%d\n", strings.Repeat("  ", depth), node.Kind, node.Name, pos.Line+1, pos.Character+1)
	})
	return nil
}

func outlineEntries(doc *workspace.Document, nodes []*outline.Node) []OutlineEntry {
	out := make([]OutlineEntry, 0, len(nodes))
	for _, node := range nodes {
		pos := doc.PositionAt(nameOffset(node))
		out = append(out, OutlineEntry{
			Kind:     node.Kind.String(),
			Name:     node.Name,
			Line:     pos.Line + 1,
			Column:   pos.Character + 1,
			EndLine:  doc.PositionAt(node.End()).Line + 1,
			Receiver: node.Receiver,
			Embeds:   node.Embeds,
			Children: outlineEntries(doc, node.Children),
		})
	}
	return out
}

func nameOffset(node *outline.Node) int {
	if node.Element.Location == nil {
		return node.Offset
	}
	return node.Element.Location.Offset
}
