package domain

import (
	"fmt"
	"strings"
)

// Block is a single question or content unit. Blocks are leaves owned by a Page.
type Block struct {
	UUID            string           `json:"uuid"`
	Type            string           `json:"type"`
	FieldName       string           `json:"fieldName,omitempty"`
	Label           string           `json:"label,omitempty"`
	Options         []string         `json:"options,omitempty"`
	NavigationRules []NavigationRule `json:"navigationRules,omitempty"`
	VisibleIf       *Condition       `json:"visibleIf,omitempty"`
}

// DisplayName returns the most human-friendly identifier of the block.
func (b *Block) DisplayName() string {
	switch {
	case b.Label != "":
		return b.Label
	case b.FieldName != "":
		return b.FieldName
	default:
		return b.UUID
	}
}

// Clone returns a deep copy of the block.
func (b *Block) Clone() *Block {
	out := *b
	out.Options = append([]string(nil), b.Options...)
	out.NavigationRules = CloneRules(b.NavigationRules)
	if b.VisibleIf != nil {
		c := b.VisibleIf.Clone()
		out.VisibleIf = &c
	}
	return &out
}

// Page is an ordered group of blocks shown together ("set").
type Page struct {
	UUID   string   `json:"uuid"`
	Name   string   `json:"name,omitempty"`
	Blocks []string `json:"blocks"`
}

// DisplayName returns the page name, or its uuid when unnamed.
func (p *Page) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.UUID
}

// Survey is the root section. It is an arena: pages and blocks live in maps keyed
// by id and the page order is a list of ids.
type Survey struct {
	UUID  string
	Pages []string

	pages  map[string]*Page
	blocks map[string]*Block
	owner  map[string]string // block id -> page id
}

// NewSurvey creates an empty survey with the given root id.
func NewSurvey(uuid string) *Survey {
	return &Survey{
		UUID:   uuid,
		pages:  make(map[string]*Page),
		blocks: make(map[string]*Block),
		owner:  make(map[string]string),
	}
}

// AddPage appends a page. Its block list is reset; use AddBlock to populate it.
func (s *Survey) AddPage(uuid, name string) (*Page, error) {
	if uuid == "" {
		return nil, fmt.Errorf("page uuid is required")
	}
	if _, exists := s.pages[uuid]; exists {
		return nil, fmt.Errorf("duplicate page uuid %q", uuid)
	}
	p := &Page{UUID: uuid, Name: name}
	s.pages[uuid] = p
	s.Pages = append(s.Pages, uuid)
	return p, nil
}

// AddBlock appends a block to a page. A block without uuid receives the derived
// id "{pageId}-block-{index}".
func (s *Survey) AddBlock(pageID string, b Block) (*Block, error) {
	p, ok := s.pages[pageID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}
	if b.UUID == "" {
		b.UUID = DerivedBlockID(pageID, len(p.Blocks))
	}
	if _, exists := s.blocks[b.UUID]; exists {
		return nil, fmt.Errorf("duplicate block uuid %q", b.UUID)
	}
	stored := b.Clone()
	s.blocks[stored.UUID] = stored
	s.owner[stored.UUID] = pageID
	p.Blocks = append(p.Blocks, stored.UUID)
	return stored, nil
}

// DerivedBlockID is the id given to blocks that lack their own uuid.
func DerivedBlockID(pageID string, index int) string {
	return fmt.Sprintf("%s-block-%d", pageID, index)
}

// Page returns the page with the given uuid.
func (s *Survey) Page(id string) (*Page, bool) {
	p, ok := s.pages[id]
	return p, ok
}

// Block returns the block with the given uuid.
func (s *Survey) Block(id string) (*Block, bool) {
	b, ok := s.blocks[id]
	return b, ok
}

// PageOf returns the page owning the given block.
func (s *Survey) PageOf(blockID string) (*Page, bool) {
	pid, ok := s.owner[blockID]
	if !ok {
		return nil, false
	}
	return s.Page(pid)
}

// PageIndex returns the position of a page in the survey order, or -1.
func (s *Survey) PageIndex(pageID string) int {
	for i, id := range s.Pages {
		if id == pageID {
			return i
		}
	}
	return -1
}

// Blocks returns every block in authored order.
func (s *Survey) Blocks() []*Block {
	var out []*Block
	for _, pid := range s.Pages {
		for _, bid := range s.pages[pid].Blocks {
			out = append(out, s.blocks[bid])
		}
	}
	return out
}

// FindPage resolves a page reference by uuid first, then by name.
func (s *Survey) FindPage(ref string) (*Page, bool) {
	if p, ok := s.pages[ref]; ok {
		return p, true
	}
	for _, pid := range s.Pages {
		if p := s.pages[pid]; p.Name == ref {
			return p, true
		}
	}
	return nil, false
}

// FindBlock resolves a block reference by uuid first, then by field name.
func (s *Survey) FindBlock(ref string) (*Block, bool) {
	if b, ok := s.blocks[ref]; ok {
		return b, true
	}
	for _, b := range s.Blocks() {
		if b.FieldName != "" && b.FieldName == ref {
			return b, true
		}
	}
	return nil, false
}

// SetRules replaces the navigation rules of a block.
func (s *Survey) SetRules(blockID string, rules []NavigationRule) error {
	b, ok := s.blocks[blockID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	b.NavigationRules = CloneRules(rules)
	return nil
}

// Clone returns a deep copy of the survey. No substructure is shared.
func (s *Survey) Clone() *Survey {
	out := NewSurvey(s.UUID)
	out.Pages = append([]string(nil), s.Pages...)
	for id, p := range s.pages {
		cp := *p
		cp.Blocks = append([]string(nil), p.Blocks...)
		out.pages[id] = &cp
	}
	for id, b := range s.blocks {
		out.blocks[id] = b.Clone()
	}
	for k, v := range s.owner {
		out.owner[k] = v
	}
	return out
}

// String renders a compact outline, mostly for debugging.
func (s *Survey) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "survey %s\n", s.UUID)
	for _, pid := range s.Pages {
		p := s.pages[pid]
		fmt.Fprintf(&sb, "  page %s\n", p.DisplayName())
		for _, bid := range p.Blocks {
			b := s.blocks[bid]
			fmt.Fprintf(&sb, "    block %s (%d rules)\n", b.DisplayName(), len(b.NavigationRules))
		}
	}
	return sb.String()
}
