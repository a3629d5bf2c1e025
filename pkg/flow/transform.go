package flow

import (
	"github.com/aretw0/surveyflow/pkg/domain"
)

// ToGraph derives the flow graph of a survey. The graph shares no memory with
// the survey. Rules whose target cannot be resolved are left out of the graph
// but stay on the block.
func ToGraph(s *domain.Survey) domain.FlowGraph {
	g := domain.FlowGraph{Nodes: []domain.FlowNode{}, Edges: []domain.FlowEdge{}}

	g.Nodes = append(g.Nodes, domain.FlowNode{
		ID:   domain.StartNodeID,
		Kind: domain.NodeStart,
		Data: domain.NodeData{Label: "Start", RefID: s.UUID},
	})

	for _, pid := range s.Pages {
		p, _ := s.Page(pid)
		g.Nodes = append(g.Nodes, domain.FlowNode{
			ID:   p.UUID,
			Kind: domain.NodePage,
			Data: domain.NodeData{Name: p.Name, RefID: p.UUID},
		})
		for _, bid := range p.Blocks {
			b, _ := s.Block(bid)
			g.Nodes = append(g.Nodes, blockNode(b, p.UUID))
		}
	}

	g.Nodes = append(g.Nodes, domain.FlowNode{
		ID:   domain.SubmitNodeID,
		Kind: domain.NodeSubmit,
		Data: domain.NodeData{Label: "Submit"},
	})

	g.Edges = append(g.Edges, structuralEdges(s)...)
	for _, b := range s.Blocks() {
		g.Edges = append(g.Edges, ruleEdges(s, b)...)
	}
	return g
}

func blockNode(b *domain.Block, pageID string) domain.FlowNode {
	n := domain.FlowNode{
		ID:   b.UUID,
		Kind: domain.NodeBlock,
		Data: domain.NodeData{
			Label:     b.Label,
			RefID:     b.UUID,
			PageID:    pageID,
			BlockType: b.Type,
			FieldName: b.FieldName,
			Options:   append([]string(nil), b.Options...),
			HasRules:  len(b.NavigationRules) > 0,
		},
	}
	if b.VisibleIf != nil {
		c := b.VisibleIf.Clone()
		n.Data.VisibleIf = &c
	}
	return n
}

func structuralEdges(s *domain.Survey) []domain.FlowEdge {
	var edges []domain.FlowEdge

	if len(s.Pages) == 0 {
		return append(edges, domain.FlowEdge{
			ID: startEntryID(domain.SubmitNodeID), Source: domain.StartNodeID, Target: domain.SubmitNodeID,
			Kind: domain.EdgeStartEntry,
		})
	}

	edges = append(edges, domain.FlowEdge{
		ID: startEntryID(s.Pages[0]), Source: domain.StartNodeID, Target: s.Pages[0],
		Kind: domain.EdgeStartEntry,
	})

	var prevBlock *domain.Block
	for i, pid := range s.Pages {
		p, _ := s.Page(pid)
		if i+1 < len(s.Pages) {
			next := s.Pages[i+1]
			edges = append(edges, domain.FlowEdge{
				ID: pageToPageID(pid, next), Source: pid, Target: next,
				Kind: domain.EdgePageToPage,
			})
		}
		for j, bid := range p.Blocks {
			b, _ := s.Block(bid)
			if j == 0 {
				edges = append(edges, domain.FlowEdge{
					ID: pageEntryID(pid, bid), Source: pid, Target: bid,
					Kind: domain.EdgePageEntry,
				})
			}
			if prevBlock != nil {
				edges = append(edges, sequentialEdge(prevBlock, bid))
			}
			prevBlock = b
		}
	}
	if prevBlock != nil {
		edges = append(edges, sequentialEdge(prevBlock, domain.SubmitNodeID))
	}
	return edges
}

func sequentialEdge(from *domain.Block, to string) domain.FlowEdge {
	return domain.FlowEdge{
		ID: sequentialID(from.UUID, to), Source: from.UUID, Target: to,
		Kind: domain.EdgeSequential,
		Data: domain.EdgeData{Dashed: len(from.NavigationRules) > 0},
	}
}

// ruleEdges builds one conditional edge per resolvable rule of the block.
func ruleEdges(s *domain.Survey, b *domain.Block) []domain.FlowEdge {
	var edges []domain.FlowEdge
	for i, rule := range b.NavigationRules {
		target, ok := TargetNode(s, rule)
		if !ok {
			continue
		}
		data := domain.EdgeData{
			IsDefault: rule.IsDefault,
			IsPage:    rule.IsPage,
			RuleIndex: i,
			Target:    rule.Target,
		}
		if !rule.Condition.IsEmpty() {
			c := rule.Condition.Clone()
			data.Condition = &c
		}
		edges = append(edges, domain.FlowEdge{
			ID: ruleEdgeID(b.UUID, i), Source: b.UUID, Target: target,
			Kind: domain.EdgeConditional, Data: data,
		})
	}
	return edges
}

// TargetNode resolves a rule target to a graph node id.
func TargetNode(s *domain.Survey, rule domain.NavigationRule) (string, bool) {
	if rule.Target == domain.TargetSubmit {
		return domain.SubmitNodeID, true
	}
	if rule.IsPage {
		p, ok := s.FindPage(rule.Target)
		if !ok {
			return "", false
		}
		return p.UUID, true
	}
	b, ok := s.FindBlock(rule.Target)
	if !ok {
		return "", false
	}
	return b.UUID, true
}
