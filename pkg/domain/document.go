package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Node type tags used by the survey document format.
const (
	DocumentTypeSection = "section"
	DocumentTypePage    = "set"
)

// Document is the JSON-serializable survey tree:
// { uuid, type: "section", items?: Block[], nodes?: (Page|Section|uuid)[] }.
type Document struct {
	UUID  string         `json:"uuid"`
	Type  string         `json:"type"`
	Items []Block        `json:"items,omitempty"`
	Nodes []DocumentNode `json:"nodes,omitempty"`
}

// PageDocument is a page in the document format.
type PageDocument struct {
	UUID  string  `json:"uuid"`
	Type  string  `json:"type"`
	Name  string  `json:"name,omitempty"`
	Items []Block `json:"items"`
}

// DocumentNode is one entry of Document.Nodes: an inline page, a nested section,
// or a string reference to a page declared elsewhere in the document.
type DocumentNode struct {
	Ref     string
	Page    *PageDocument
	Section *Document
}

func (n DocumentNode) MarshalJSON() ([]byte, error) {
	switch {
	case n.Page != nil:
		return json.Marshal(n.Page)
	case n.Section != nil:
		return json.Marshal(n.Section)
	default:
		return json.Marshal(n.Ref)
	}
}

func (n *DocumentNode) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*n = DocumentNode{}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &n.Ref)
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return fmt.Errorf("document node: %w", err)
	}
	if probe.Type == DocumentTypeSection {
		var sec Document
		if err := json.Unmarshal(trimmed, &sec); err != nil {
			return fmt.Errorf("nested section: %w", err)
		}
		n.Section = &sec
		return nil
	}
	var page PageDocument
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return fmt.Errorf("page: %w", err)
	}
	n.Page = &page
	return nil
}

// ImplicitPageID is the id of the page that holds root-level items.
func ImplicitPageID(rootID string) string {
	return rootID + "-items"
}

// FromDocument builds the Survey arena from its document form. Root items become
// an implicit leading page; nested sections are flattened (one level only); string
// references resolve against pages declared anywhere in the document.
func FromDocument(doc Document) (*Survey, error) {
	if doc.Type != "" && doc.Type != DocumentTypeSection {
		return nil, &DocumentError{Source: doc.UUID, Reasons: []string{fmt.Sprintf("root type must be %q, got %q", DocumentTypeSection, doc.Type)}}
	}

	declared := make(map[string]*PageDocument)
	if err := collectPages(doc.Nodes, declared, 0); err != nil {
		return nil, &DocumentError{Source: doc.UUID, Err: err}
	}

	s := NewSurvey(doc.UUID)
	if len(doc.Items) > 0 {
		if err := addPageDocument(s, &PageDocument{UUID: ImplicitPageID(doc.UUID), Items: doc.Items}); err != nil {
			return nil, &DocumentError{Source: doc.UUID, Err: err}
		}
	}
	if err := addNodes(s, doc.Nodes, declared); err != nil {
		return nil, &DocumentError{Source: doc.UUID, Err: err}
	}
	return s, nil
}

func collectPages(nodes []DocumentNode, into map[string]*PageDocument, depth int) error {
	for _, n := range nodes {
		switch {
		case n.Page != nil:
			into[n.Page.UUID] = n.Page
		case n.Section != nil:
			if depth > 0 {
				return fmt.Errorf("section %q is nested more than one level", n.Section.UUID)
			}
			if err := collectPages(n.Section.Nodes, into, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func addNodes(s *Survey, nodes []DocumentNode, declared map[string]*PageDocument) error {
	for _, n := range nodes {
		switch {
		case n.Page != nil:
			if _, done := s.Page(n.Page.UUID); done {
				continue
			}
			if err := addPageDocument(s, n.Page); err != nil {
				return err
			}
		case n.Section != nil:
			if len(n.Section.Items) > 0 {
				implicit := &PageDocument{UUID: ImplicitPageID(n.Section.UUID), Items: n.Section.Items}
				if err := addPageDocument(s, implicit); err != nil {
					return err
				}
			}
			if err := addNodes(s, n.Section.Nodes, declared); err != nil {
				return err
			}
		case n.Ref != "":
			if _, done := s.Page(n.Ref); done {
				continue
			}
			p, ok := declared[n.Ref]
			if !ok {
				return fmt.Errorf("%w: reference %q", ErrPageNotFound, n.Ref)
			}
			if err := addPageDocument(s, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func addPageDocument(s *Survey, pd *PageDocument) error {
	if _, err := s.AddPage(pd.UUID, pd.Name); err != nil {
		return err
	}
	for _, b := range pd.Items {
		if _, err := s.AddBlock(pd.UUID, b); err != nil {
			return err
		}
	}
	return nil
}

// Document converts the survey back into its document form. Every page is emitted
// inline, in order.
func (s *Survey) Document() Document {
	doc := Document{UUID: s.UUID, Type: DocumentTypeSection}
	for _, pid := range s.Pages {
		p := s.pages[pid]
		pd := &PageDocument{UUID: p.UUID, Type: DocumentTypePage, Name: p.Name, Items: []Block{}}
		for _, bid := range p.Blocks {
			pd.Items = append(pd.Items, *s.blocks[bid].Clone())
		}
		doc.Nodes = append(doc.Nodes, DocumentNode{Page: pd})
	}
	return doc
}

// DecodeDocument parses a JSON survey document into a Survey.
func DecodeDocument(data []byte) (*Survey, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DocumentError{Err: err}
	}
	return FromDocument(doc)
}
