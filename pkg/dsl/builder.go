package dsl

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aretw0/surveyflow/pkg/adapters/memory"
	"github.com/aretw0/surveyflow/pkg/domain"
)

// Builder manages the survey construction.
type Builder struct {
	id    string
	pages []*PageBuilder
	index map[string]*PageBuilder
	errs  []error
}

// New creates a new survey builder. An empty id gets a random UUID.
func New(id string) *Builder {
	if id == "" {
		id = uuid.NewString()
	}
	return &Builder{
		id:    id,
		index: make(map[string]*PageBuilder),
	}
}

// Page appends a page to the survey, or returns the existing builder for id.
// An empty id gets a random UUID.
func (b *Builder) Page(id string) *PageBuilder {
	if id == "" {
		id = uuid.NewString()
	}
	if pb, ok := b.index[id]; ok {
		return pb
	}
	pb := &PageBuilder{id: id, builder: b}
	b.pages = append(b.pages, pb)
	b.index[id] = pb
	return pb
}

// Build compiles the survey into the domain model.
func (b *Builder) Build() (*domain.Survey, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	s := domain.NewSurvey(b.id)
	for _, pb := range b.pages {
		if _, err := s.AddPage(pb.id, pb.name); err != nil {
			return nil, fmt.Errorf("page %s: %w", pb.id, err)
		}
		for _, bb := range pb.blocks {
			if _, err := s.AddBlock(pb.id, bb.block); err != nil {
				return nil, fmt.Errorf("page %s: %w", pb.id, err)
			}
		}
	}
	return s, nil
}

// MustBuild is Build for fixtures; it panics on error.
func (b *Builder) MustBuild() *domain.Survey {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// Loader compiles the survey into an in-memory loader.
func (b *Builder) Loader() (*memory.Loader, error) {
	s, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return memory.NewLoader(s), nil
}

// PageBuilder provides a fluent API for configuring a page.
type PageBuilder struct {
	id      string
	name    string
	blocks  []*BlockBuilder
	builder *Builder
}

// Name sets the page name used by name-based rule targets.
func (p *PageBuilder) Name(name string) *PageBuilder {
	p.name = name
	return p
}

// Block appends a block. An empty id lets the survey derive "{page}-block-{n}".
func (p *PageBuilder) Block(id string) *BlockBuilder {
	bb := &BlockBuilder{block: domain.Block{UUID: id, Type: "text"}, page: p}
	p.blocks = append(p.blocks, bb)
	return bb
}

// Question is shorthand for a typed block that stores its answer in field.
func (p *PageBuilder) Question(id, blockType, field string) *BlockBuilder {
	return p.Block(id).Type(blockType).Field(field)
}

// End returns to the survey builder.
func (p *PageBuilder) End() *Builder {
	return p.builder
}
