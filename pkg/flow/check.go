package flow

import (
	"fmt"
	"sort"

	"github.com/aretw0/surveyflow/pkg/condition"
	"github.com/aretw0/surveyflow/pkg/domain"
)

// Severity grades an Issue.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// IssueCode identifies the kind of problem Check found.
type IssueCode string

const (
	IssueEdgeWithoutRule  IssueCode = "edge-without-rule"
	IssueRuleWithoutEdge  IssueCode = "rule-without-edge"
	IssueUnresolvedTarget IssueCode = "unresolved-target"
	IssueInvalidCondition IssueCode = "invalid-condition"
	IssueMultipleDefaults IssueCode = "multiple-defaults"
	IssueDefaultNotLast   IssueCode = "default-not-last"
	IssueCycle            IssueCode = "cycle"
	IssueUnreachable      IssueCode = "unreachable-block"
)

// Issue is a single finding of Check. Nothing is repaired automatically.
type Issue struct {
	Severity Severity  `json:"severity"`
	Code     IssueCode `json:"code"`
	BlockID  string    `json:"blockId,omitempty"`
	EdgeID   string    `json:"edgeId,omitempty"`
	Message  string    `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Code, i.Message)
}

// Check compares a survey with a graph and reports inconsistencies between
// rules and conditional edges, invalid conditions, default rule placement,
// unreachable blocks and conditional cycles.
func Check(s *domain.Survey, g domain.FlowGraph) []Issue {
	var issues []Issue

	edgesByBlock := make(map[string][]domain.FlowEdge)
	for _, e := range g.Edges {
		if e.Kind == domain.EdgeConditional {
			edgesByBlock[e.Source] = append(edgesByBlock[e.Source], e)
		}
	}

	for _, b := range s.Blocks() {
		issues = append(issues, checkRules(s, b, edgesByBlock[b.UUID])...)
		if b.VisibleIf != nil {
			if msg, bad := invalidCondition(*b.VisibleIf); bad {
				issues = append(issues, Issue{
					Severity: SeverityError, Code: IssueInvalidCondition, BlockID: b.UUID,
					Message: fmt.Sprintf("visibleIf of %s: %s", b.DisplayName(), msg),
				})
			}
		}
	}

	for blockID, edges := range edgesByBlock {
		b, ok := s.Block(blockID)
		for _, e := range edges {
			if ok && hasRuleFor(s, b, e) {
				continue
			}
			issues = append(issues, Issue{
				Severity: SeverityError, Code: IssueEdgeWithoutRule, BlockID: blockID, EdgeID: e.ID,
				Message: fmt.Sprintf("edge %s from %s has no matching rule", e.ID, blockID),
			})
		}
	}

	for _, id := range Unreachable(s, g) {
		issues = append(issues, Issue{
			Severity: SeverityWarning, Code: IssueUnreachable, BlockID: id,
			Message: fmt.Sprintf("block %s cannot be reached from the start", id),
		})
	}

	for _, c := range FindCycles(g) {
		issues = append(issues, Issue{Severity: SeverityWarning, Code: IssueCycle, Message: c})
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Code != issues[j].Code {
			return issues[i].Code < issues[j].Code
		}
		if issues[i].BlockID != issues[j].BlockID {
			return issues[i].BlockID < issues[j].BlockID
		}
		return issues[i].EdgeID < issues[j].EdgeID
	})
	return issues
}

func checkRules(s *domain.Survey, b *domain.Block, edges []domain.FlowEdge) []Issue {
	var issues []Issue
	defaults := 0
	for i, rule := range b.NavigationRules {
		if rule.IsDefault {
			defaults++
			if i != len(b.NavigationRules)-1 {
				issues = append(issues, Issue{
					Severity: SeverityWarning, Code: IssueDefaultNotLast, BlockID: b.UUID,
					Message: fmt.Sprintf("default rule %d of %s shadows the rules after it", i, b.DisplayName()),
				})
			}
		}
		if msg, bad := invalidCondition(rule.Condition); bad {
			issues = append(issues, Issue{
				Severity: SeverityError, Code: IssueInvalidCondition, BlockID: b.UUID,
				Message: fmt.Sprintf("rule %d of %s: %s", i, b.DisplayName(), msg),
			})
		}

		target, ok := TargetNode(s, rule)
		if !ok {
			issues = append(issues, Issue{
				Severity: SeverityError, Code: IssueUnresolvedTarget, BlockID: b.UUID,
				Message: fmt.Sprintf("rule %d of %s targets unknown %s", i, b.DisplayName(), rule.Target),
			})
			continue
		}
		if !hasEdgeFor(edges, rule, target) {
			issues = append(issues, Issue{
				Severity: SeverityError, Code: IssueRuleWithoutEdge, BlockID: b.UUID,
				Message: fmt.Sprintf("rule %d of %s has no conditional edge to %s", i, b.DisplayName(), target),
			})
		}
	}
	if defaults > 1 {
		issues = append(issues, Issue{
			Severity: SeverityWarning, Code: IssueMultipleDefaults, BlockID: b.UUID,
			Message: fmt.Sprintf("%s has %d default rules; the first one wins", b.DisplayName(), defaults),
		})
	}
	return issues
}

func hasEdgeFor(edges []domain.FlowEdge, rule domain.NavigationRule, target string) bool {
	for i := range edges {
		if edges[i].Target == target && edgeRule(&edges[i]).Signature() == rule.Signature() {
			return true
		}
	}
	return false
}

func hasRuleFor(s *domain.Survey, b *domain.Block, e domain.FlowEdge) bool {
	sig := edgeRule(&e).Signature()
	for _, rule := range b.NavigationRules {
		if rule.Signature() != sig {
			continue
		}
		if target, ok := TargetNode(s, rule); ok && target == e.Target {
			return true
		}
	}
	return false
}

func invalidCondition(c domain.Condition) (string, bool) {
	if c.IsExpression() {
		if err := condition.Validate(c.Expression); err != nil {
			return err.Error(), true
		}
		return "", false
	}
	for _, r := range c.Rules {
		if _, ok := condition.ParseOperator(r.Operator); !ok {
			return fmt.Sprintf("unknown operator %q", r.Operator), true
		}
	}
	return "", false
}
