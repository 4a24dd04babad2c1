package lsp

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/morozRed/implscope/internal/config"
	"github.com/morozRed/implscope/internal/hierarchy"
	"github.com/morozRed/implscope/internal/workspace"
)

const (
	filePlaceholder   = "{file}"
	offsetPlaceholder = "{offset}"
)

type CommandRunner func(ctx context.Context, dir string, name string, args ...string) (string, error)

// FileOpener supplies file text for offset conversion.
type FileOpener interface {
	Open(ctx context.Context, path string) (*workspace.Document, error)
}

// HierarchyClient asks an external program for the type hierarchy at a
// position. The program prints a JSON document with a hierarchyItems array.
// With Encoding set to utf-16 the program reads and prints UTF-16 code unit
// offsets; Files is then required to translate them to and from bytes.
type HierarchyClient struct {
	Root     string
	Command  []string
	Runner   CommandRunner
	Encoding string
	Files    FileOpener
}

func NewHierarchyClient(root string, command []string) *HierarchyClient {
	return &HierarchyClient{Root: root, Command: command, Runner: defaultRunner}
}

func (c *HierarchyClient) QueryTypeHierarchy(ctx context.Context, file string, offset int) (*hierarchy.Graph, error) {
	if c.Runner == nil {
		return nil, errors.New("command runner is required")
	}
	if len(c.Command) == 0 || strings.TrimSpace(c.Command[0]) == "" {
		return nil, errors.New("hierarchy command is required")
	}
	if offset < 0 {
		return nil, errors.New("offset must be >= 0")
	}

	absFile := file
	if !filepath.IsAbs(absFile) {
		absFile = filepath.Join(c.Root, file)
	}
	utf16 := c.Encoding == config.EncodingUTF16
	if utf16 {
		if c.Files == nil {
			return nil, errors.New("utf-16 offsets require a file opener")
		}
		doc, err := c.Files.Open(ctx, absFile)
		if err != nil {
			return nil, err
		}
		offset = doc.UTF16Offset(offset)
	}
	args := ExpandArgs(c.Command[1:], absFile, offset)

	output, err := c.Runner(ctx, c.Root, c.Command[0], args...)
	if err != nil {
		return nil, fmt.Errorf("hierarchy query failed: %w", err)
	}
	graph, err := hierarchy.DecodeGraph([]byte(output))
	if err != nil || !utf16 || graph == nil {
		return graph, err
	}
	c.toByteOffsets(ctx, graph)
	return graph, nil
}

// toByteOffsets rewrites UTF-16 locations in g as byte locations. Locations
// in files that cannot be opened are left unchanged.
func (c *HierarchyClient) toByteOffsets(ctx context.Context, g *hierarchy.Graph) {
	docs := make(map[string]*workspace.Document)
	convert := func(element *hierarchy.Element) {
		if element == nil || element.Location == nil {
			return
		}
		loc := element.Location
		doc, seen := docs[loc.File]
		if !seen {
			doc, _ = c.Files.Open(ctx, loc.File)
			docs[loc.File] = doc
		}
		if doc == nil {
			return
		}
		start := doc.ByteOffsetFromUTF16(loc.Offset)
		end := doc.ByteOffsetFromUTF16(loc.Offset + loc.Length)
		loc.Offset, loc.Length = start, end-start
	}
	for i := range g.Items {
		convert(g.Items[i].Type)
		convert(g.Items[i].Member)
	}
}

// ExpandArgs substitutes {file} and {offset} in args. When neither
// placeholder appears, file and offset are appended.
func ExpandArgs(args []string, file string, offset int) []string {
	out := make([]string, 0, len(args)+2)
	substituted := false
	for _, arg := range args {
		if strings.Contains(arg, filePlaceholder) || strings.Contains(arg, offsetPlaceholder) {
			substituted = true
			arg = strings.ReplaceAll(arg, filePlaceholder, file)
			arg = strings.ReplaceAll(arg, offsetPlaceholder, strconv.Itoa(offset))
		}
		out = append(out, arg)
	}
	if !substituted {
		out = append(out, file, strconv.Itoa(offset))
	}
	return out
}

func defaultRunner(ctx context.Context, dir string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}
