package hierarchy

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Wire types mirror the analysis-server search.getTypeHierarchy response.

type wireResponse struct {
	HierarchyItems []wireItem `json:"hierarchyItems"`
}

type wireItem struct {
	ClassElement  *wireElement `json:"classElement,omitempty"`
	MemberElement *wireElement `json:"memberElement,omitempty"`
	DisplayName   string       `json:"displayName,omitempty"`
	Superclass    *int         `json:"superclass,omitempty"`
	Interfaces    []int        `json:"interfaces,omitempty"`
	Mixins        []int        `json:"mixins,omitempty"`
	Subclasses    []int        `json:"subclasses"`
}

type wireElement struct {
	Kind     string        `json:"kind"`
	Name     string        `json:"name"`
	Location *wireLocation `json:"location,omitempty"`
}

type wireLocation struct {
	File   string `json:"file"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// DecodeGraph parses a type-hierarchy response. Blank input and a response
// without hierarchyItems decode to nil with no error.
func DecodeGraph(data []byte) (*Graph, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var resp wireResponse
	if err := json.Unmarshal([]byte(trimmed), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode type hierarchy: %w", err)
	}
	if resp.HierarchyItems == nil {
		return nil, nil
	}

	g := &Graph{Items: make([]Item, 0, len(resp.HierarchyItems))}
	for _, raw := range resp.HierarchyItems {
		subclasses := append([]int(nil), raw.Subclasses...)
		class := raw.ClassElement.toElement()
		if raw.MemberElement != nil {
			g.Items = append(g.Items, NewMemberItem(class, raw.MemberElement.toElement(), subclasses...))
			continue
		}
		g.Items = append(g.Items, NewTypeItem(class, subclasses...))
	}
	return g, nil
}

// EncodeGraph renders g in the same response shape DecodeGraph reads.
func EncodeGraph(g *Graph) ([]byte, error) {
	resp := wireResponse{HierarchyItems: make([]wireItem, 0, g.Len())}
	if g != nil {
		for _, item := range g.Items {
			raw := wireItem{
				ClassElement: fromElement(item.Type),
				Subclasses:   append([]int{}, item.Subclasses...),
			}
			if item.Kind == MemberNode {
				raw.MemberElement = fromElement(item.Member)
			}
			if item.Type != nil {
				raw.DisplayName = item.Type.Name
			}
			resp.HierarchyItems = append(resp.HierarchyItems, raw)
		}
	}
	return json.MarshalIndent(resp, "", "  ")
}

func (w *wireElement) toElement() *Element {
	if w == nil {
		return nil
	}
	element := &Element{
		Kind: ParseElementKind(w.Kind),
		Name: w.Name,
	}
	if w.Location != nil {
		element.Location = &SourceLocation{
			File:   w.Location.File,
			Offset: w.Location.Offset,
			Length: w.Location.Length,
		}
	}
	return element
}

func fromElement(element *Element) *wireElement {
	if element == nil {
		return nil
	}
	out := &wireElement{
		Kind: strings.ToUpper(element.Kind.String()),
		Name: element.Name,
	}
	if element.Location != nil {
		out.Location = &wireLocation{
			File:   element.Location.File,
			Offset: element.Location.Offset,
			Length: element.Location.Length,
		}
	}
	return out
}
