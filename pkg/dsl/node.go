package dsl

import (
	"fmt"

	"github.com/aretw0/surveyflow/pkg/condition"
	"github.com/aretw0/surveyflow/pkg/domain"
)

// BlockBuilder provides a fluent API for configuring a block and its rules.
type BlockBuilder struct {
	block domain.Block
	page  *PageBuilder
}

// Type sets the block type (text, number, choice, ...).
func (n *BlockBuilder) Type(blockType string) *BlockBuilder {
	n.block.Type = blockType
	return n
}

// Field sets the answer key the block writes to.
func (n *BlockBuilder) Field(name string) *BlockBuilder {
	n.block.FieldName = name
	return n
}

// Label sets the text shown to the respondent.
func (n *BlockBuilder) Label(label string) *BlockBuilder {
	n.block.Label = label
	return n
}

// Options sets the choices of a choice block.
func (n *BlockBuilder) Options(options ...string) *BlockBuilder {
	n.block.Options = append([]string(nil), options...)
	return n
}

// VisibleIf shows the block only when the expression holds.
func (n *BlockBuilder) VisibleIf(expression string) *BlockBuilder {
	n.check(expression)
	c := domain.Expr(expression)
	n.block.VisibleIf = &c
	return n
}

// VisibleWhen shows the block only when the structured rule holds.
func (n *BlockBuilder) VisibleWhen(field, operator string, value any) *BlockBuilder {
	c := domain.Rule(field, operator, value)
	n.block.VisibleIf = &c
	return n
}

// Branch adds a rule jumping to a block when the expression holds.
func (n *BlockBuilder) Branch(expression, target string) *BlockBuilder {
	return n.rule(domain.Expr(expression), target, false, false, expression)
}

// BranchPage adds a rule jumping to a page when the expression holds.
func (n *BlockBuilder) BranchPage(expression, pageRef string) *BlockBuilder {
	return n.rule(domain.Expr(expression), pageRef, true, false, expression)
}

// When adds a structured rule jumping to a block.
func (n *BlockBuilder) When(field, operator string, value any, target string) *BlockBuilder {
	return n.rule(domain.Rule(field, operator, value), target, false, false, "")
}

// SubmitIf adds a rule that ends the survey when the expression holds.
func (n *BlockBuilder) SubmitIf(expression string) *BlockBuilder {
	return n.rule(domain.Expr(expression), domain.TargetSubmit, false, false, expression)
}

// Otherwise adds the default rule to a block.
func (n *BlockBuilder) Otherwise(target string) *BlockBuilder {
	return n.rule(domain.Condition{}, target, false, true, "")
}

// OtherwisePage adds the default rule to a page.
func (n *BlockBuilder) OtherwisePage(pageRef string) *BlockBuilder {
	return n.rule(domain.Condition{}, pageRef, true, true, "")
}

// Submit adds a default rule that ends the survey.
func (n *BlockBuilder) Submit() *BlockBuilder {
	return n.rule(domain.Condition{}, domain.TargetSubmit, false, true, "")
}

// Block starts the next block on the same page.
func (n *BlockBuilder) Block(id string) *BlockBuilder {
	return n.page.Block(id)
}

// Question starts the next typed block on the same page.
func (n *BlockBuilder) Question(id, blockType, field string) *BlockBuilder {
	return n.page.Question(id, blockType, field)
}

// Page returns to the page builder.
func (n *BlockBuilder) Page() *PageBuilder {
	return n.page
}

// Build returns a copy of the underlying domain.Block.
func (n *BlockBuilder) Build() domain.Block {
	return *n.block.Clone()
}

func (n *BlockBuilder) rule(c domain.Condition, target string, isPage, isDefault bool, expression string) *BlockBuilder {
	if expression != "" {
		n.check(expression)
	}
	n.block.NavigationRules = append(n.block.NavigationRules, domain.NavigationRule{
		Condition: c,
		Target:    target,
		IsPage:    isPage,
		IsDefault: isDefault,
	})
	return n
}

// check records malformed expressions so Build can report them instead of
// silently storing a condition that always evaluates false.
func (n *BlockBuilder) check(expression string) {
	if err := condition.Validate(expression); err != nil {
		b := n.page.builder
		b.errs = append(b.errs, fmt.Errorf("block %q: %w", n.block.UUID, err))
	}
}
