package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/morozRed/implscope/internal/fileutil"
	"github.com/morozRed/implscope/internal/hierarchy"
	"github.com/morozRed/implscope/internal/session"
	"github.com/spf13/cobra"
)

type ImplementationsOutput struct {
	Query           session.Query    `json:"query"`
	Found           bool             `json:"found"`
	Implementations []session.Result `json:"implementations"`
}

func RunImplementations(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(cmd)
	if err != nil {
		return err
	}
	query, err := parseQuery(cmd, args[0])
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}

	results, found, err := s.Implementations(commandContext(cmd), query)
	if err != nil {
		return err
	}
	if results == nil {
		results = []session.Result{}
	}

	if format == FormatJSON {
		return fileutil.PrintJSON(os.Stdout, ImplementationsOutput{Query: query, Found: found, Implementations: results})
	}
	if len(results) == 0 {
		fmt.Println("no implementations found")
		return nil
	}
	for _, result := range results {
		fmt.Println(result.String())
	}
	return nil
}

type HierarchyOutput struct {
	*session.HierarchyReport
	Graph json.RawMessage `json:"graph"`
}

func RunHierarchy(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(cmd)
	if err != nil {
		return err
	}
	query, err := parseQuery(cmd, args[0])
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}

	report, err := s.Hierarchy(commandContext(cmd), query)
	if err != nil {
		return err
	}

	if format == FormatJSON {
		graph, err := hierarchy.EncodeGraph(report.Graph)
		if err != nil {
			return err
		}
		return fileutil.PrintJSON(os.Stdout, HierarchyOutput{HierarchyReport: report, Graph: graph})
	}

	fmt.Printf("hierarchy: file=%s offset=%d items=%d\n", report.File, report.Offset, report.Graph.Len())
	if report.Graph.Len() == 0 {
		return nil
	}
	for i, item := range report.Graph.Items {
		marker := " "
		if i == report.Anchor {
			marker = "*"
		}
		fmt.Printf("%s [%d] %s %s", marker, i, item.Kind, describeElement(cmd, s, item.Type))
		if item.Member != nil {
			fmt.Printf(" member=%s", describeElement(cmd, s, item.Member))
		}
		fmt.Printf(" subclasses=%v\n", item.Subclasses)
	}
	fmt.Printf("anchor: %d (%s)\n", report.Anchor, report.Level)
	return nil
}

func describeElement(cmd *cobra.Command, s *session.Session, element *hierarchy.Element) string {
	if element == nil {
		return "<none>"
	}
	label := element.Kind.String() + ":" + element.Name
	if element.Location == nil {
		return label
	}
	doc, err := s.Files.Open(commandContext(cmd), element.Location.File)
	if err != nil {
		return fmt.Sprintf("%s@%s+%d", label, s.Rel(element.Location.File), element.Location.Offset)
	}
	pos := doc.PositionAt(element.Location.Offset)
	return fmt.Sprintf("%s@%s:%d:%d", label, s.Rel(element.Location.File), pos.Line+1, pos.Character+1)
}
