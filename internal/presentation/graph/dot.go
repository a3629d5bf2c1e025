package graph

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"

	"github.com/aretw0/surveyflow/pkg/domain"
)

const dotGraphName = "survey"

// GenerateDOT renders a flow graph in Graphviz DOT. Nodes that carry a layout
// position get a pinned pos attribute so neato/fdp keep the computed placement.
func GenerateDOT(g domain.FlowGraph, rankdir string) (string, error) {
	out := gographviz.NewGraph()
	if err := out.SetName(dotGraphName); err != nil {
		return "", err
	}
	if err := out.SetDir(true); err != nil {
		return "", err
	}
	if rankdir != "" {
		if err := out.AddAttr(dotGraphName, "rankdir", rankdir); err != nil {
			return "", err
		}
	}

	for _, n := range g.Nodes {
		attrs := map[string]string{
			"label": strconv.Quote(n.DisplayName()),
			"shape": dotShape(n),
		}
		if n.Position != (domain.Position{}) {
			attrs["pos"] = strconv.Quote(fmt.Sprintf("%g,%g!", n.Position.X, -n.Position.Y))
		}
		if err := out.AddNode(dotGraphName, strconv.Quote(n.ID), attrs); err != nil {
			return "", fmt.Errorf("node %s: %w", n.ID, err)
		}
	}

	for _, e := range g.Edges {
		attrs := map[string]string{}
		switch e.Kind {
		case domain.EdgeConditional:
			label := "default"
			if e.Data.Condition != nil && !e.Data.Condition.IsEmpty() {
				label = e.Data.Condition.String()
			}
			attrs["label"] = strconv.Quote(label)
			attrs["color"] = strconv.Quote("#1f6feb")
		case domain.EdgePageToPage:
			attrs["penwidth"] = "2"
		case domain.EdgeSequential:
			if e.Data.Dashed {
				attrs["style"] = "dashed"
			}
		}
		if err := out.AddEdge(strconv.Quote(e.Source), strconv.Quote(e.Target), true, attrs); err != nil {
			return "", fmt.Errorf("edge %s: %w", e.ID, err)
		}
	}

	return out.String(), nil
}

func dotShape(n domain.FlowNode) string {
	switch n.Kind {
	case domain.NodeStart:
		return "circle"
	case domain.NodeSubmit:
		return "doublecircle"
	case domain.NodePage:
		return "folder"
	default:
		if n.Data.FieldName != "" {
			return "parallelogram"
		}
		return "box"
	}
}
