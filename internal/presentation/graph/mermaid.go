package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// GraphOverlay contains session data to highlight on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart from a flow graph.
// Shapes follow the node kind:
// - Start: ((Circle))
// - Submit: (((Double circle)))
// - Page: [[Subroutine]]
// - Block collecting an answer: [/Parallelogram/]
// - Other blocks: [Rectangle]
// Conditional edges carry their condition as label; dashed sequential edges
// mark fallbacks of blocks that own rules.
func GenerateMermaid(g domain.FlowGraph, direction string, overlay *GraphOverlay) string {
	if direction == "" {
		direction = "TD"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "graph %s\n", direction)

	for _, n := range g.Nodes {
		opener, closer := shape(n)
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(n.ID), opener, escape(n.DisplayName()), closer)
	}

	for _, e := range g.Edges {
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.Source), arrow(e), sanitizeMermaidID(e.Target))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on both light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !visited[safeID] {
				visited[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func shape(n domain.FlowNode) (string, string) {
	switch n.Kind {
	case domain.NodeStart:
		return "((", "))"
	case domain.NodeSubmit:
		return "(((", ")))"
	case domain.NodePage:
		return "[[", "]]"
	default:
		if n.Data.FieldName != "" {
			return "[/", "/]"
		}
		return "[", "]"
	}
}

func arrow(e domain.FlowEdge) string {
	switch e.Kind {
	case domain.EdgeConditional:
		label := "default"
		if e.Data.Condition != nil && !e.Data.Condition.IsEmpty() {
			label = e.Data.Condition.String()
		}
		return fmt.Sprintf("-- \"%s\" -->", escape(label))
	case domain.EdgePageToPage:
		return "==>"
	case domain.EdgeSequential:
		if e.Data.Dashed {
			return "-.->"
		}
		return "-->"
	default:
		return "-->"
	}
}

// escape keeps labels inside Mermaid's double-quoted strings.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
