package domain

// NodeKind classifies flow graph nodes.
type NodeKind string

const (
	NodeStart  NodeKind = "start"
	NodePage   NodeKind = "page"
	NodeBlock  NodeKind = "block"
	NodeSubmit NodeKind = "submit"
)

// EdgeKind classifies flow graph edges.
type EdgeKind string

const (
	EdgeStartEntry  EdgeKind = "start-entry"
	EdgePageEntry   EdgeKind = "page-entry"
	EdgeSequential  EdgeKind = "sequential"
	EdgePageToPage  EdgeKind = "page-to-page"
	EdgeConditional EdgeKind = "conditional"
)

// Well-known node ids.
const (
	StartNodeID  = "start"
	SubmitNodeID = "submit"
)

// Position is the top-left corner of a node box.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the extent of a node box.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NodeData is the payload carried by a flow node. Block payloads keep enough of
// the block to rebuild it when converting the graph back into a survey.
type NodeData struct {
	Label     string     `json:"label,omitempty"`
	Name      string     `json:"name,omitempty"`
	RefID     string     `json:"refId,omitempty"`
	PageID    string     `json:"pageId,omitempty"`
	BlockType string     `json:"blockType,omitempty"`
	FieldName string     `json:"fieldName,omitempty"`
	Options   []string   `json:"options,omitempty"`
	VisibleIf *Condition `json:"visibleIf,omitempty"`
	HasRules  bool       `json:"hasRules,omitempty"`
}

// FlowNode is a node of the flow graph.
type FlowNode struct {
	ID       string   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Position Position `json:"position"`
	Size     Size     `json:"size"`
	Data     NodeData `json:"data"`
}

// DisplayName returns the label shown for the node in diagnostics.
func (n FlowNode) DisplayName() string {
	switch {
	case n.Data.Label != "":
		return n.Data.Label
	case n.Data.Name != "":
		return n.Data.Name
	case n.Data.FieldName != "":
		return n.Data.FieldName
	default:
		return n.ID
	}
}

// EdgeData is the payload carried by a flow edge. Conditional edges carry the
// rule they were derived from; Target keeps the authored target reference so it
// survives a round trip unchanged.
type EdgeData struct {
	Condition *Condition `json:"condition,omitempty"`
	IsDefault bool       `json:"isDefault,omitempty"`
	IsPage    bool       `json:"isPage,omitempty"`
	Dashed    bool       `json:"dashed,omitempty"`
	RuleIndex int        `json:"ruleIndex,omitempty"`
	Target    string     `json:"target,omitempty"`
}

// FlowEdge is a directed edge of the flow graph.
type FlowEdge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
	Data   EdgeData `json:"data"`
}

// FlowGraph is the explicit node/edge view of a survey.
type FlowGraph struct {
	Nodes []FlowNode `json:"nodes"`
	Edges []FlowEdge `json:"edges"`
}

// Node returns a pointer to the node with the given id, or nil.
func (g *FlowGraph) Node(id string) *FlowNode {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Edge returns a pointer to the edge with the given id, or nil.
func (g *FlowGraph) Edge(id string) *FlowEdge {
	for i := range g.Edges {
		if g.Edges[i].ID == id {
			return &g.Edges[i]
		}
	}
	return nil
}

// Outgoing returns the edges leaving a node, optionally filtered by kind.
func (g *FlowGraph) Outgoing(id string, kinds ...EdgeKind) []FlowEdge {
	var out []FlowEdge
	for _, e := range g.Edges {
		if e.Source != id {
			continue
		}
		if len(kinds) > 0 && !hasKind(kinds, e.Kind) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func hasKind(kinds []EdgeKind, k EdgeKind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the graph.
func (g FlowGraph) Clone() FlowGraph {
	out := FlowGraph{
		Nodes: make([]FlowNode, len(g.Nodes)),
		Edges: make([]FlowEdge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		n.Data.Options = append([]string(nil), n.Data.Options...)
		if n.Data.VisibleIf != nil {
			c := n.Data.VisibleIf.Clone()
			n.Data.VisibleIf = &c
		}
		out.Nodes[i] = n
	}
	for i, e := range g.Edges {
		if e.Data.Condition != nil {
			c := e.Data.Condition.Clone()
			e.Data.Condition = &c
		}
		out.Edges[i] = e
	}
	return out
}
