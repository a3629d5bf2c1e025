package flow

import (
	"fmt"
	"sort"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// FromGraph rebuilds a survey from a flow graph. Page order follows the
// start-entry edge and then the page-to-page chain; a page holds the block its
// page-entry edge reaches and the sequential chain after it. Pages and blocks
// not reachable that way keep their node order, blocks by their PageID. Navigation rules come only from conditional
// edges, ordered by rule index.
func FromGraph(g domain.FlowGraph) (*domain.Survey, error) {
	nodes := make(map[string]*domain.FlowNode, len(g.Nodes))
	for i := range g.Nodes {
		nodes[g.Nodes[i].ID] = &g.Nodes[i]
	}

	rootID := ""
	if start, ok := nodes[domain.StartNodeID]; ok {
		rootID = start.Data.RefID
	}
	s := domain.NewSurvey(rootID)

	pages := pageOrder(g, nodes)
	members := pageMembers(g, nodes, pages)
	for _, pid := range pages {
		n := nodes[pid]
		if _, err := s.AddPage(pid, n.Data.Name); err != nil {
			return nil, err
		}
		for _, bid := range members[pid] {
			if _, err := s.AddBlock(pid, blockFromNode(nodes[bid])); err != nil {
				return nil, err
			}
		}
	}

	byBlock := make(map[string][]domain.FlowEdge)
	for _, e := range g.Edges {
		if e.Kind != domain.EdgeConditional {
			continue
		}
		src, ok := nodes[e.Source]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, e.Source)
		}
		if src.Kind != domain.NodeBlock {
			return nil, fmt.Errorf("edge %s: %w", e.ID, domain.ErrInvalidRuleSource)
		}
		byBlock[e.Source] = append(byBlock[e.Source], e)
	}

	for blockID, edges := range byBlock {
		sort.SliceStable(edges, func(i, j int) bool { return edges[i].Data.RuleIndex < edges[j].Data.RuleIndex })
		rules := make([]domain.NavigationRule, 0, len(edges))
		for _, e := range edges {
			tgt, ok := nodes[e.Target]
			if !ok {
				return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, e.Target)
			}
			rule, err := ruleFromEdge(e, tgt)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
		if err := s.SetRules(blockID, rules); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func pageOrder(g domain.FlowGraph, nodes map[string]*domain.FlowNode) []string {
	next := make(map[string]string)
	first := ""
	for _, e := range g.Edges {
		switch e.Kind {
		case domain.EdgeStartEntry:
			if n, ok := nodes[e.Target]; ok && n.Kind == domain.NodePage {
				first = e.Target
			}
		case domain.EdgePageToPage:
			next[e.Source] = e.Target
		}
	}

	var order []string
	seen := make(map[string]bool)
	for id := first; id != "" && !seen[id]; id = next[id] {
		if n, ok := nodes[id]; !ok || n.Kind != domain.NodePage {
			break
		}
		seen[id] = true
		order = append(order, id)
	}
	for _, n := range g.Nodes {
		if n.Kind == domain.NodePage && !seen[n.ID] {
			seen[n.ID] = true
			order = append(order, n.ID)
		}
	}
	return order
}

// pageMembers assigns block nodes to pages. A page owns its page-entry block
// and the sequential chain after it, up to another page's entry block or a block
// whose PageID names a different page. Blocks no chain reaches fall back to
// their PageID, in node order.
func pageMembers(g domain.FlowGraph, nodes map[string]*domain.FlowNode, pages []string) map[string][]string {
	isKind := func(id string, kind domain.NodeKind) bool {
		n, ok := nodes[id]
		return ok && n.Kind == kind
	}

	entry := make(map[string]string)   // page -> first block
	entryOf := make(map[string]string) // block -> page it opens
	next := make(map[string]string)
	for _, e := range g.Edges {
		switch {
		case e.Kind == domain.EdgePageEntry && isKind(e.Source, domain.NodePage) && isKind(e.Target, domain.NodeBlock):
			entry[e.Source] = e.Target
			entryOf[e.Target] = e.Source
		case e.Kind == domain.EdgeSequential && isKind(e.Source, domain.NodeBlock) && isKind(e.Target, domain.NodeBlock):
			next[e.Source] = e.Target
		}
	}

	owner := make(map[string]string)
	members := make(map[string][]string, len(pages))
	for _, pid := range pages {
		first := entry[pid]
		for id := first; id != "" && owner[id] == ""; id = next[id] {
			if id != first {
				if entryOf[id] != "" {
					break
				}
				if p := nodes[id].Data.PageID; p != "" && p != pid {
					break
				}
			}
			owner[id] = pid
			members[pid] = append(members[pid], id)
		}
	}

	known := make(map[string]bool, len(pages))
	for _, pid := range pages {
		known[pid] = true
	}
	for _, n := range g.Nodes {
		if n.Kind != domain.NodeBlock || owner[n.ID] != "" || !known[n.Data.PageID] {
			continue
		}
		owner[n.ID] = n.Data.PageID
		members[n.Data.PageID] = append(members[n.Data.PageID], n.ID)
	}
	return members
}

func blockFromNode(n *domain.FlowNode) domain.Block {
	b := domain.Block{
		UUID:      n.ID,
		Type:      n.Data.BlockType,
		FieldName: n.Data.FieldName,
		Label:     n.Data.Label,
		Options:   append([]string(nil), n.Data.Options...),
	}
	if n.Data.VisibleIf != nil {
		c := n.Data.VisibleIf.Clone()
		b.VisibleIf = &c
	}
	return b
}

// ruleFromEdge converts a conditional edge back into the rule it represents.
// The authored target reference is kept when it still names the edge target.
func ruleFromEdge(e domain.FlowEdge, target *domain.FlowNode) (domain.NavigationRule, error) {
	rule := domain.NavigationRule{IsDefault: e.Data.IsDefault}
	if e.Data.Condition != nil {
		rule.Condition = e.Data.Condition.Clone()
	}
	if rule.Condition.IsEmpty() {
		rule.IsDefault = true
	}

	switch target.Kind {
	case domain.NodeSubmit:
		rule.Target = domain.TargetSubmit
	case domain.NodePage:
		rule.IsPage = true
		rule.Target = target.ID
		if e.Data.IsPage && refersTo(e.Data.Target, target) {
			rule.Target = e.Data.Target
		}
	case domain.NodeBlock:
		rule.Target = target.ID
		if !e.Data.IsPage && refersTo(e.Data.Target, target) {
			rule.Target = e.Data.Target
		}
	default:
		return rule, fmt.Errorf("edge %s: %w", e.ID, domain.ErrInvalidTarget)
	}
	return rule, nil
}

func refersTo(ref string, n *domain.FlowNode) bool {
	if ref == "" {
		return false
	}
	return ref == n.ID || (n.Kind == domain.NodePage && ref == n.Data.Name) ||
		(n.Kind == domain.NodeBlock && ref == n.Data.FieldName)
}
